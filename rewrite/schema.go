package rewrite

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	_ "embed"

	jsValidator "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/unionjson/unionjson/json"
	"github.com/unionjson/unionjson/validation"
	"github.com/unionjson/unionjson/yml"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

//go:embed rules.schema.json
var rulesSchemaJSON string

var (
	rulesSchemaValidator *jsValidator.Schema
	rulesSchemaOnce      sync.Once
	defaultPrinter       = message.NewPrinter(language.English)
)

func initRulesSchema() {
	rulesSchemaOnce.Do(func() {
		schema, err := jsValidator.UnmarshalJSON(bytes.NewReader([]byte(rulesSchemaJSON)))
		if err != nil {
			panic(err)
		}

		c := jsValidator.NewCompiler()
		if err := c.AddResource("rules.schema.json", schema); err != nil {
			panic(err)
		}
		rulesSchemaValidator = c.MustCompile("rules.schema.json")
	})
}

// ValidateDocument validates raw rule file data against the rule file JSON
// Schema, reporting each violation at its line and column in the data.
func ValidateDocument(ctx context.Context, data []byte) []error {
	initRulesSchema()

	if len(bytes.TrimSpace(data)) == 0 {
		return []error{fmt.Errorf("empty document")}
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return []error{fmt.Errorf("failed to parse rewrite document: %w", err)}
	}

	buf := bytes.NewBuffer([]byte{})
	if err := json.YAMLToJSON(&doc, 0, buf); err != nil {
		return []error{validation.NewValidationError(fmt.Errorf("rewrite document is not convertible to json: %s", err.Error()), &doc)}
	}

	jsAny, err := jsValidator.UnmarshalJSON(buf)
	if err != nil {
		return []error{validation.NewValidationError(fmt.Errorf("rewrite document is not valid json: %s", err.Error()), &doc)}
	}

	var errs []error
	if err := rulesSchemaValidator.Validate(jsAny); err != nil {
		var validationErr *jsValidator.ValidationError
		if errors.As(err, &validationErr) {
			errs = rootCauses(ctx, validationErr, &doc)
			validation.SortValidationErrors(errs)
		} else {
			errs = []error{validation.NewValidationError(fmt.Errorf("rewrite document invalid: %s", err.Error()), &doc)}
		}
	}

	return errs
}

// rootCauses walks the validation error tree down to its leaves, locating
// each one in the document so errors carry real positions.
func rootCauses(ctx context.Context, err *jsValidator.ValidationError, root *yaml.Node) []error {
	if len(err.Causes) == 0 {
		return []error{causeError(ctx, err, root)}
	}

	errs := []error{}
	for _, cause := range err.Causes {
		errs = append(errs, rootCauses(ctx, cause, root)...)
	}

	return errs
}

func causeError(ctx context.Context, cause *jsValidator.ValidationError, root *yaml.Node) error {
	node := locateNode(ctx, root, cause.InstanceLocation)
	msg := cause.ErrorKind.LocalizedString(defaultPrinter)

	if len(cause.InstanceLocation) == 0 {
		return validation.NewValidationError(fmt.Errorf("rewrite document %s", msg), node)
	}

	return validation.NewValidationError(fmt.Errorf("rewrite field %s %s", strings.Join(cause.InstanceLocation, "."), msg), node)
}

// locateNode descends from the document root through the instance location's
// member names and sequence indexes, returning the deepest node found.
func locateNode(ctx context.Context, root *yaml.Node, location []string) *yaml.Node {
	node := yml.ResolveAlias(root)
	if node != nil && node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = yml.ResolveAlias(node.Content[0])
	}

	for _, part := range location {
		if node == nil {
			return root
		}

		switch node.Kind {
		case yaml.MappingNode:
			_, valueNode, found := yml.GetMapElementNodes(ctx, node, part)
			if !found {
				return node
			}
			node = yml.ResolveAlias(valueNode)
		case yaml.SequenceNode:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node.Content) {
				return node
			}
			node = yml.ResolveAlias(node.Content[idx])
		default:
			return node
		}
	}

	return node
}
