package union

import (
	"context"
	"fmt"

	"github.com/unionjson/unionjson/validation"
	"github.com/unionjson/unionjson/yml"
	"gopkg.in/yaml.v3"
)

// EnvelopeKeys name the members of a type envelope: an object associating a
// type id with a content node.
type EnvelopeKeys struct {
	TypeKey string
	DataKey string
}

// DefaultEnvelopeKeys returns the standard envelope member names.
func DefaultEnvelopeKeys() EnvelopeKeys {
	return EnvelopeKeys{TypeKey: "type", DataKey: "data"}
}

// Flatten renames a union field to its resolved wire name in a serialized
// object node. It is a no-op when the names are equal or the field is absent
// from the node.
func Flatten(ctx context.Context, node *yaml.Node, fieldName, resolvedName string) *yaml.Node {
	return yml.RenameMapNodeKey(ctx, node, fieldName, resolvedName)
}

// Wrap moves the union content found at resolvedName back under fieldName,
// enveloped with the type id so the typed decode knows the concrete type.
// Absent content is enveloped as null, deferring missing-content handling to
// the typed decode.
func Wrap(ctx context.Context, node *yaml.Node, fieldName, resolvedName, typeID string, keys EnvelopeKeys) *yaml.Node {
	_, content, found := yml.GetMapElementNodes(ctx, node, resolvedName)
	if !found {
		content = yml.CreateNullNode()
	} else {
		node = yml.DeleteMapNodeElement(ctx, resolvedName, node)
	}

	envelope := WrapElement(ctx, content, typeID, keys)

	return yml.CreateOrUpdateMapNodeElement(ctx, fieldName, nil, envelope, node)
}

// WrapElement envelopes a content node with a type id.
func WrapElement(ctx context.Context, content *yaml.Node, typeID string, keys EnvelopeKeys) *yaml.Node {
	if content == nil {
		content = yml.CreateNullNode()
	}

	return yml.CreateMapNode(ctx, []*yaml.Node{
		yml.CreateOrUpdateKeyNode(ctx, keys.TypeKey, nil),
		yml.CreateStringNode(typeID),
		yml.CreateOrUpdateKeyNode(ctx, keys.DataKey, nil),
		content,
	})
}

// UnwrapElement splits an envelope node into its type id and content node.
func UnwrapElement(ctx context.Context, envelope *yaml.Node, keys EnvelopeKeys) (string, *yaml.Node, error) {
	resolved := yml.ResolveAlias(envelope)
	if resolved == nil || resolved.Kind != yaml.MappingNode {
		return "", nil, validation.NewValidationError(
			ErrInvalidEnvelope.Wrap(fmt.Errorf("expected object with %q and %q members", keys.TypeKey, keys.DataKey)), resolved)
	}

	_, typeNode, found := yml.GetMapElementNodes(ctx, resolved, keys.TypeKey)
	if !found {
		return "", nil, validation.NewValidationError(
			ErrInvalidEnvelope.Wrap(fmt.Errorf("missing %q member", keys.TypeKey)), resolved)
	}

	typeID, ok := yml.GetScalarString(typeNode)
	if !ok {
		return "", nil, validation.NewValidationError(
			ErrInvalidEnvelope.Wrap(fmt.Errorf("%q member must be a string", keys.TypeKey)), typeNode)
	}

	_, content, found := yml.GetMapElementNodes(ctx, resolved, keys.DataKey)
	if !found {
		return "", nil, validation.NewValidationError(
			ErrInvalidEnvelope.Wrap(fmt.Errorf("missing %q member", keys.DataKey)), resolved)
	}

	return typeID, content, nil
}
