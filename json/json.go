// Package json provides utilities for working with JSON.
package json

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/unionjson/unionjson/yml"
	"gopkg.in/yaml.v3"
)

// YAMLToJSON will convert the provided YAML node to JSON in a stable way not reordering keys.
func YAMLToJSON(node *yaml.Node, indentation int, buffer io.Writer) error {
	var compact bytes.Buffer

	if err := writeNode(&compact, node); err != nil {
		return err
	}

	out := compact.Bytes()

	if indentation > 0 {
		var indented bytes.Buffer
		if err := json.Indent(&indented, out, "", strings.Repeat(" ", indentation)); err != nil {
			return err
		}
		out = indented.Bytes()
	}

	out = append(out, '\n')

	_, err := buffer.Write(out)
	return err
}

func writeNode(buf *bytes.Buffer, node *yaml.Node) error {
	if node == nil {
		buf.WriteString("null")
		return nil
	}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeNode(buf, node.Content[0])
	case yaml.SequenceNode:
		return writeSequenceNode(buf, node)
	case yaml.MappingNode:
		return writeMappingNode(buf, node)
	case yaml.ScalarNode:
		return writeScalarNode(buf, node)
	case yaml.AliasNode:
		return writeNode(buf, node.Alias)
	default:
		return fmt.Errorf("unknown node kind: %s", yml.NodeKindToString(node.Kind))
	}
}

func writeMappingNode(buf *bytes.Buffer, node *yaml.Node) error {
	buf.WriteByte('{')

	for i := 0; i+1 < len(node.Content); i += 2 {
		if i > 0 {
			buf.WriteByte(',')
		}

		if err := writeKeyNode(buf, node.Content[i]); err != nil {
			return err
		}

		buf.WriteByte(':')

		if err := writeNode(buf, node.Content[i+1]); err != nil {
			return err
		}
	}

	buf.WriteByte('}')
	return nil
}

// writeKeyNode renders a mapping key. JSON object keys must be strings so
// non-string YAML keys are rendered through their JSON representation first.
func writeKeyNode(buf *bytes.Buffer, node *yaml.Node) error {
	key := yml.ResolveAlias(node)
	if key == nil {
		return fmt.Errorf("unresolvable alias for mapping key")
	}

	var v any
	if err := key.Decode(&v); err != nil {
		return err
	}

	s, ok := v.(string)
	if !ok {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		s = string(data)
	}

	data, err := json.Marshal(s)
	if err != nil {
		return err
	}

	buf.Write(data)
	return nil
}

func writeSequenceNode(buf *bytes.Buffer, node *yaml.Node) error {
	buf.WriteByte('[')

	for i, n := range node.Content {
		if i > 0 {
			buf.WriteByte(',')
		}

		if err := writeNode(buf, n); err != nil {
			return err
		}
	}

	buf.WriteByte(']')
	return nil
}

func writeScalarNode(buf *bytes.Buffer, node *yaml.Node) error {
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	buf.Write(data)
	return nil
}
