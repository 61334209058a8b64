package rewrite

import (
	"context"
	"fmt"

	"github.com/unionjson/unionjson/union"
	"github.com/unionjson/unionjson/validation"
	"github.com/unionjson/unionjson/yml"
	"gopkg.in/yaml.v3"
)

// Direction selects which way rules transform the selected objects.
type Direction string

const (
	// DirectionFlatten unwraps type envelopes back to the flattened wire
	// shape.
	DirectionFlatten Direction = "flatten"
	// DirectionWrap replaces flattened union content with type envelopes.
	DirectionWrap Direction = "wrap"
)

// Apply transforms every object selected by the rewrite's rules in the given
// direction.
func Apply(ctx context.Context, root *yaml.Node, rewrite *Rewrite, direction Direction) error {
	return rewrite.ApplyTo(ctx, root, direction)
}

// ApplyTo will take a rewrite and apply its rules to the given YAML document
// in the given direction. Objects whose discriminator carries an unmapped
// value pass through untouched, as do rules whose target selects nothing.
func (r *Rewrite) ApplyTo(ctx context.Context, root *yaml.Node, direction Direction) error {
	for i, rule := range r.Rules {
		if _, err := r.applyRule(ctx, root, rule, direction); err != nil {
			return fmt.Errorf("rule %d (field %q): %w", i, rule.Field, err)
		}
	}

	return nil
}

// ApplyToStrict applies the rewrite's rules like ApplyTo but additionally
// errors when a rule's target selects no object node.
func (r *Rewrite) ApplyToStrict(ctx context.Context, root *yaml.Node, direction Direction) error {
	for i, rule := range r.Rules {
		matched, err := r.applyRule(ctx, root, rule, direction)
		if err != nil {
			return fmt.Errorf("rule %d (field %q): %w", i, rule.Field, err)
		}
		if matched == 0 {
			return fmt.Errorf("rule %d (field %q): selector %q did not select any objects", i, rule.Field, rule.Target)
		}
	}

	return nil
}

func (r *Rewrite) applyRule(ctx context.Context, root *yaml.Node, rule Rule, direction Direction) (int, error) {
	targets, err := r.selectTargets(root, rule)
	if err != nil {
		return 0, err
	}

	matched := 0
	for _, node := range targets {
		resolved := yml.ResolveAlias(node)
		if resolved != nil && resolved.Kind == yaml.DocumentNode && len(resolved.Content) > 0 {
			resolved = yml.ResolveAlias(resolved.Content[0])
		}
		if resolved == nil || resolved.Kind != yaml.MappingNode {
			continue
		}
		matched++

		if err := applyRuleToNode(ctx, resolved, rule, direction); err != nil {
			return matched, err
		}
	}

	return matched, nil
}

func (r *Rewrite) selectTargets(root *yaml.Node, rule Rule) ([]*yaml.Node, error) {
	if rule.Target == "" {
		return []*yaml.Node{root}, nil
	}

	path, err := r.NewPath(rule.Target)
	if err != nil {
		return nil, err
	}

	return path.Query(root), nil
}

func applyRuleToNode(ctx context.Context, node *yaml.Node, rule Rule, direction Direction) error {
	discriminator := rule.discriminatorName()

	_, valueNode, found := yml.GetMapElementNodes(ctx, node, discriminator)
	if !found {
		return validation.NewValidationError(
			union.ErrDiscriminatorNotFound.Wrap(fmt.Errorf("%q not found in object", discriminator)), node)
	}

	value, ok := yml.GetScalarString(valueNode)
	if !ok {
		return validation.NewValidationError(
			fmt.Errorf("discriminator %q must be a scalar value, got %s", discriminator, yml.NodeKindToString(valueNode.Kind)), valueNode)
	}

	mapping := rule.mappingFor(value)
	if mapping == nil {
		return nil
	}

	switch direction {
	case DirectionWrap:
		union.Wrap(ctx, node, rule.Field, mapping.resolvedName(rule.Field), mapping.Type, union.DefaultEnvelopeKeys())
		return nil
	case DirectionFlatten:
		return flattenNode(ctx, node, rule.Field, mapping)
	default:
		return fmt.Errorf("unknown direction %q", direction)
	}
}

// flattenNode unwraps the envelope held by the union field and renames the
// field to the mapping's wire name. An absent field is a no-op.
func flattenNode(ctx context.Context, node *yaml.Node, fieldName string, mapping *Mapping) error {
	_, envelope, found := yml.GetMapElementNodes(ctx, node, fieldName)
	if !found {
		return nil
	}

	typeID, content, err := union.UnwrapElement(ctx, envelope, union.DefaultEnvelopeKeys())
	if err != nil {
		return err
	}

	if typeID != mapping.Type {
		return validation.NewValidationError(
			union.ErrInvalidEnvelope.Wrap(fmt.Errorf("envelope type %q does not match mapping type %q for value %q", typeID, mapping.Type, mapping.Value)), envelope)
	}

	yml.CreateOrUpdateMapNodeElement(ctx, fieldName, nil, content, node)
	union.Flatten(ctx, node, fieldName, mapping.resolvedName(fieldName))

	return nil
}
