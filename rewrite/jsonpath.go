package rewrite

import (
	"github.com/speakeasy-api/jsonpath/pkg/jsonpath"
	"github.com/speakeasy-api/jsonpath/pkg/jsonpath/config"
	"github.com/vmware-labs/yaml-jsonpath/pkg/yamlpath"
	"gopkg.in/yaml.v3"
)

// Queryable is an interface for querying YAML nodes using JSONPath expressions.
type Queryable interface {
	Query(root *yaml.Node) []*yaml.Node
}

// rfcJSONPathQueryable wraps a jsonpath.JSONPath to implement Queryable.
type rfcJSONPathQueryable struct {
	path *jsonpath.JSONPath
}

func (r rfcJSONPathQueryable) Query(root *yaml.Node) []*yaml.Node {
	return r.path.Query(root)
}

type yamlPathQueryable struct {
	path *yamlpath.Path
}

func (y yamlPathQueryable) Query(root *yaml.Node) []*yaml.Node {
	if y.path == nil {
		return []*yaml.Node{}
	}
	// errors aren't actually possible from yamlpath.
	result, _ := y.path.Find(root)
	return result
}

// NewPath creates a JSONPath queryable from the given target expression. The
// implementation used depends on the rule file's JSONPathVersion setting, see
// UsesRFC9535.
func (r *Rewrite) NewPath(target string) (Queryable, error) {
	if r.UsesRFC9535() {
		path, err := jsonpath.NewPath(target, config.WithPropertyNameExtension())
		if err != nil {
			return nil, err
		}
		return rfcJSONPathQueryable{path: path}, nil
	}

	path, err := yamlpath.NewPath(target)
	return yamlPathQueryable{path: path}, err
}

// UsesRFC9535 reports whether rule targets use the RFC 9535 JSONPath
// implementation. RFC 9535 is the default; set JSONPathVersion to "legacy"
// to use the legacy yamlpath implementation instead.
func (r *Rewrite) UsesRFC9535() bool {
	return r.JSONPathVersion != JSONPathLegacy
}
