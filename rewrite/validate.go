package rewrite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/unionjson/unionjson/internal/sliceutil"
	"github.com/unionjson/unionjson/internal/version"
)

// SupportedVersions are the rule file format versions this package can apply.
var SupportedVersions = []*version.Version{version.MustParse(Version100)}

// Errors
var (
	ErrVersionInvalid         = errors.New("rewrite version is invalid")
	ErrVersionNotSupported    = fmt.Errorf("rewrite version must be one of: `%s`", strings.Join(sliceutil.Map(SupportedVersions, func(v *version.Version) string { return v.String() }), ", "))
	ErrJSONPathVersionInvalid = fmt.Errorf("rewrite jsonpath must be one of: `%s`", strings.Join([]string{JSONPathRFC9535, JSONPathLegacy}, ", "))
	ErrNoRules                = errors.New("rewrite must define at least one rule")
)

// ValidationErrors collects the problems found while validating a rule file.
type ValidationErrors []error

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, err := range v {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

func (v ValidationErrors) Unwrap() []error {
	return v
}

func (v ValidationErrors) Return() error {
	if len(v) > 0 {
		return v
	}
	return nil
}

// ValidateVersion checks the rule file format version is supported.
func (r *Rewrite) ValidateVersion() []error {
	errs := make(ValidationErrors, 0)
	rewriteVersion, err := version.Parse(r.Version)
	switch {
	case err != nil || rewriteVersion == nil:
		errs = append(errs, ErrVersionInvalid)
	case !rewriteVersion.IsOneOf(SupportedVersions):
		errs = append(errs, ErrVersionNotSupported)
	}

	return errs
}

// Validate checks the rule file is usable: a supported version, a known
// JSONPath setting, and rules with a field, parseable targets and complete,
// unambiguous mappings.
func (r *Rewrite) Validate() error {
	errs := make(ValidationErrors, 0)

	errs = append(errs, r.ValidateVersion()...)

	if r.JSONPathVersion != "" && r.JSONPathVersion != JSONPathRFC9535 && r.JSONPathVersion != JSONPathLegacy {
		errs = append(errs, ErrJSONPathVersionInvalid)
	}

	if len(r.Rules) == 0 {
		errs = append(errs, ErrNoRules)
	}

	for i, rule := range r.Rules {
		if rule.Field == "" {
			errs = append(errs, fmt.Errorf("rule at index %d field must be defined", i))
		}

		if rule.Target != "" {
			if _, err := r.NewPath(rule.Target); err != nil {
				errs = append(errs, fmt.Errorf("rule at index %d target is not a valid jsonpath: %s", i, err.Error()))
			}
		}

		if len(rule.Mappings) == 0 {
			errs = append(errs, fmt.Errorf("rule at index %d must define at least one mapping", i))
		}

		seen := make(map[string]bool, len(rule.Mappings))
		for j, mapping := range rule.Mappings {
			if mapping.Value == "" {
				errs = append(errs, fmt.Errorf("rule at index %d mapping at index %d value must be defined", i, j))
			}
			if mapping.Type == "" {
				errs = append(errs, fmt.Errorf("rule at index %d mapping at index %d type must be defined", i, j))
			}

			if mapping.Value != "" && seen[mapping.Value] {
				errs = append(errs, fmt.Errorf("rule at index %d maps value %q twice", i, mapping.Value))
			}
			seen[mapping.Value] = true
		}
	}

	return errs.Return()
}
