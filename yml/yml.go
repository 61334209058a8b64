// Package yml provides utilities for working with yaml.Node document trees.
package yml

import (
	"context"
	"strconv"

	"gopkg.in/yaml.v3"
)

func CreateOrUpdateKeyNode(ctx context.Context, key string, keyNode *yaml.Node) *yaml.Node {
	if keyNode != nil {
		resolvedKeyNode := ResolveAlias(keyNode)
		if resolvedKeyNode == nil {
			resolvedKeyNode = keyNode
		}

		resolvedKeyNode.Value = key
		return keyNode
	}

	cfg := GetConfigFromContext(ctx)

	return &yaml.Node{
		Value: key,
		Kind:  yaml.ScalarNode,
		Tag:   "!!str",
		Style: cfg.KeyStringStyle,
	}
}

func CreateOrUpdateScalarNode(ctx context.Context, value any, valueNode *yaml.Node) *yaml.Node {
	var convNode yaml.Node
	if err := convNode.Encode(value); err != nil {
		return nil
	}

	resolvedValueNode := ResolveAlias(valueNode)

	if resolvedValueNode != nil {
		resolvedValueNode.Value = convNode.Value
		resolvedValueNode.Tag = convNode.Tag
		return valueNode
	}

	cfg := GetConfigFromContext(ctx)

	if convNode.Kind == yaml.ScalarNode && convNode.Tag == "!!str" {
		convNode.Style = cfg.ValueStringStyle
	}

	return &convNode
}

func CreateOrUpdateMapNodeElement(ctx context.Context, key string, keyNode, valueNode, mapNode *yaml.Node) *yaml.Node {
	resolvedMapNode := ResolveAlias(mapNode)

	if resolvedMapNode != nil {
		for i := 0; i < len(resolvedMapNode.Content); i += 2 {
			existingKeyNode := resolvedMapNode.Content[i]
			if existingKeyNode.Value == key {
				resolvedMapNode.Content[i+1] = valueNode
				return mapNode
			}
			// Alias keys like *keyAlias match on their resolved value
			if resolvedKeyNode := ResolveAlias(existingKeyNode); resolvedKeyNode != nil && resolvedKeyNode.Value == key {
				resolvedMapNode.Content[i+1] = valueNode
				return mapNode
			}
		}

		resolvedMapNode.Content = append(resolvedMapNode.Content, CreateOrUpdateKeyNode(ctx, key, keyNode))
		resolvedMapNode.Content = append(resolvedMapNode.Content, valueNode)

		return mapNode
	}

	return CreateMapNode(ctx, []*yaml.Node{
		CreateOrUpdateKeyNode(ctx, key, keyNode),
		valueNode,
	})
}

func CreateStringNode(value string) *yaml.Node {
	return &yaml.Node{
		Value: value,
		Kind:  yaml.ScalarNode,
		Tag:   "!!str",
	}
}

func CreateIntNode(value int64) *yaml.Node {
	return &yaml.Node{
		Value: strconv.FormatInt(value, 10),
		Kind:  yaml.ScalarNode,
		Tag:   "!!int",
	}
}

func CreateBoolNode(value bool) *yaml.Node {
	return &yaml.Node{
		Value: strconv.FormatBool(value),
		Kind:  yaml.ScalarNode,
		Tag:   "!!bool",
	}
}

func CreateNullNode() *yaml.Node {
	return &yaml.Node{
		Value: "null",
		Kind:  yaml.ScalarNode,
		Tag:   "!!null",
	}
}

func CreateMapNode(ctx context.Context, content []*yaml.Node) *yaml.Node {
	return &yaml.Node{
		Content: content,
		Kind:    yaml.MappingNode,
		Tag:     "!!map",
	}
}

func CreateSequenceNode(ctx context.Context, content []*yaml.Node) *yaml.Node {
	return &yaml.Node{
		Content: content,
		Kind:    yaml.SequenceNode,
		Tag:     "!!seq",
	}
}

func DeleteMapNodeElement(ctx context.Context, key string, mapNode *yaml.Node) *yaml.Node {
	if mapNode == nil {
		return nil
	}

	resolvedMapNode := ResolveAlias(mapNode)
	if resolvedMapNode == nil {
		return nil
	}

	for i := 0; i < len(resolvedMapNode.Content); i += 2 {
		if resolvedMapNode.Content[i].Value == key {
			mapNode.Content = append(resolvedMapNode.Content[:i], resolvedMapNode.Content[i+2:]...) //nolint:gocritic
			return mapNode
		}
	}

	return mapNode
}

// RenameMapNodeKey renames the element keyed oldKey to newKey in place,
// preserving the element's position in the map. It is a no-op if the keys are
// equal or oldKey is not present. An existing element keyed newKey is removed
// so the rename never introduces a duplicate key.
func RenameMapNodeKey(ctx context.Context, mapNode *yaml.Node, oldKey, newKey string) *yaml.Node {
	if mapNode == nil || oldKey == newKey {
		return mapNode
	}

	resolvedMapNode := ResolveAlias(mapNode)
	if resolvedMapNode == nil || resolvedMapNode.Kind != yaml.MappingNode {
		return mapNode
	}

	keyNode, _, found := GetMapElementNodes(ctx, resolvedMapNode, oldKey)
	if !found {
		return mapNode
	}

	DeleteMapNodeElement(ctx, newKey, resolvedMapNode)

	resolvedKeyNode := ResolveAlias(keyNode)
	if resolvedKeyNode == nil {
		resolvedKeyNode = keyNode
	}
	resolvedKeyNode.Value = newKey

	return mapNode
}

func GetMapElementNodes(ctx context.Context, mapNode *yaml.Node, key string) (*yaml.Node, *yaml.Node, bool) {
	resolvedMapNode := ResolveAlias(mapNode)
	if resolvedMapNode == nil {
		return nil, nil, false
	}

	if resolvedMapNode.Kind != yaml.MappingNode {
		return nil, nil, false
	}

	for i := 0; i < len(resolvedMapNode.Content); i += 2 {
		keyNode := resolvedMapNode.Content[i]
		if keyNode.Value == key {
			return keyNode, resolvedMapNode.Content[i+1], true
		}
		// Alias keys like *keyAlias match on their resolved value
		if resolvedKeyNode := ResolveAlias(keyNode); resolvedKeyNode != nil && resolvedKeyNode.Value == key {
			return keyNode, resolvedMapNode.Content[i+1], true
		}
	}

	return nil, nil, false
}

// GetScalarString returns the string value of a scalar node, resolving
// aliases. The second return is false when the node is not a scalar.
func GetScalarString(node *yaml.Node) (string, bool) {
	resolved := ResolveAlias(node)
	if resolved == nil || resolved.Kind != yaml.ScalarNode {
		return "", false
	}
	return resolved.Value, true
}

func ResolveAlias(node *yaml.Node) *yaml.Node {
	if node == nil {
		return nil
	}

	switch node.Kind {
	case yaml.AliasNode:
		return ResolveAlias(node.Alias)
	default:
		return node
	}
}

// EqualNodes compares two yaml.Node instances for equality.
// It performs a deep comparison of the essential fields.
func EqualNodes(a, b *yaml.Node) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	resolvedA := ResolveAlias(a)
	resolvedB := ResolveAlias(b)

	if resolvedA == nil && resolvedB == nil {
		return true
	}
	if resolvedA == nil || resolvedB == nil {
		return false
	}

	if resolvedA.Kind != resolvedB.Kind {
		return false
	}
	if resolvedA.Tag != resolvedB.Tag {
		return false
	}
	if resolvedA.Value != resolvedB.Value {
		return false
	}

	if len(resolvedA.Content) != len(resolvedB.Content) {
		return false
	}
	for i, contentA := range resolvedA.Content {
		if !EqualNodes(contentA, resolvedB.Content[i]) {
			return false
		}
	}

	return true
}
