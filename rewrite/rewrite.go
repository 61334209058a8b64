// Package rewrite applies union flatten and wrap transforms to whole
// documents without Go types, driven by declarative YAML rule files.
package rewrite

import (
	"bytes"

	"github.com/unionjson/unionjson/union"
	"gopkg.in/yaml.v3"
)

// Version constants for the rule file format.
const (
	// LatestVersion is the latest supported rule file version.
	LatestVersion = "1.0.0"
	// Version100 is the rewrite 1.0.0 version.
	Version100 = "1.0.0"
)

// JSONPath implementation constants.
const (
	// JSONPathRFC9535 selects the RFC 9535 JSONPath implementation.
	JSONPathRFC9535 = "rfc9535"
	// JSONPathLegacy selects the legacy yamlpath implementation (for backward compatibility).
	JSONPathLegacy = "legacy"
)

// Extensions provides a place for extensions to be added to components of a
// rule file. These are a map from x-* extension fields to their values.
type Extensions map[string]any

// Rewrite is the top-level configuration of a rule file.
type Rewrite struct {
	Extensions `yaml:"-,inline"`

	// Version is the version of the rule file format.
	Version string `yaml:"rewrite"`

	// JSONPathVersion controls the JSONPath implementation used for rule
	// targets. Defaults to RFC 9535, use "legacy" to opt out.
	JSONPathVersion string `yaml:"jsonpath,omitempty"`

	// Rules is the list of union fields to rewrite in selected objects.
	Rules []Rule `yaml:"rules"`
}

func (r *Rewrite) ToString() (string, error) {
	buf := bytes.NewBuffer([]byte{})
	enc := yaml.NewEncoder(buf)
	enc.SetIndent(2)
	err := enc.Encode(r)
	return buf.String(), err
}

// Rule describes one union field to rewrite in the objects selected by its
// target.
type Rule struct {
	Extensions `yaml:"-,inline"`

	// Target is a JSONPath selecting the object nodes holding the union
	// field. Empty selects the document root.
	Target string `yaml:"target,omitempty"`

	// Field is the name of the union field.
	Field string `yaml:"field"`

	// Discriminator is the name of the sibling field whose value selects a
	// mapping. Defaults to "type".
	Discriminator string `yaml:"discriminator,omitempty"`

	// Mappings associate discriminator values with type identities.
	Mappings []Mapping `yaml:"mappings"`
}

func (r Rule) discriminatorName() string {
	if r.Discriminator != "" {
		return r.Discriminator
	}
	return union.DefaultDiscriminator
}

// mappingFor returns the mapping for the discriminator value, or nil when the
// value is unmapped.
func (r Rule) mappingFor(value string) *Mapping {
	for i := range r.Mappings {
		if r.Mappings[i].Value == value {
			return &r.Mappings[i]
		}
	}
	return nil
}

// Mapping associates one discriminator value with a type identity and an
// optional alternate wire name for the union field's content.
type Mapping struct {
	Extensions `yaml:"-,inline"`

	// Value is the discriminator value this mapping applies to.
	Value string `yaml:"value"`

	// Type is the type identity stored in envelopes built for this mapping.
	Type string `yaml:"type"`

	// SerializedName optionally renames the union field on the wire when
	// this mapping applies.
	SerializedName string `yaml:"serializedName,omitempty"`
}

// resolvedName returns the wire name the union field's content is stored
// under when this mapping applies.
func (m Mapping) resolvedName(fieldName string) string {
	if m.SerializedName != "" {
		return m.SerializedName
	}
	return fieldName
}
