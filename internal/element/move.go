package element

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMove     = errors.New("invalid move")
	ErrElementNotFound = errors.New("element not found")
)

// Move detaches the node (with its subtree) and reinserts it under
// newParentID at newOrder. An empty newParentID targets the root level.
// Fails with ErrInvalidMove when the target parent sits inside the moved
// subtree or cannot hold children. Both the source and target sibling
// levels come back resequenced.
func Move(tree []BlockElement, nodeID, newParentID string, newOrder int, defs Lookup) ([]BlockElement, error) {
	if nodeID == "" {
		return nil, fmt.Errorf("%w: missing element id", ErrElementNotFound)
	}
	if nodeID == newParentID {
		return nil, fmt.Errorf("%w: element cannot become its own parent", ErrInvalidMove)
	}

	tree, moved, found := detach(tree, nodeID)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, nodeID)
	}

	if newParentID != "" && FindByID(moved.Children, newParentID) != nil {
		return nil, fmt.Errorf("%w: target parent %s is a descendant of %s", ErrInvalidMove, newParentID, nodeID)
	}

	moved.Order = newOrder

	if newParentID == "" {
		return NormalizeOrder(insertSibling(tree, *moved, newOrder)), nil
	}

	parent := FindByID(tree, newParentID)
	if parent == nil {
		return nil, fmt.Errorf("%w: target parent %s", ErrElementNotFound, newParentID)
	}
	if !canHaveChildren(parent.Type, defs) {
		return nil, fmt.Errorf("%w: element type '%s' cannot have children", ErrInvalidMove, parent.Type)
	}

	parent.Children = insertSibling(parent.Children, *moved, newOrder)
	return NormalizeOrder(tree), nil
}

func detach(tree []BlockElement, nodeID string) ([]BlockElement, *BlockElement, bool) {
	for i := range tree {
		if tree[i].ID == nodeID {
			removed := tree[i]
			return append(tree[:i:i], tree[i+1:]...), &removed, true
		}
		children, removed, found := detach(tree[i].Children, nodeID)
		if found {
			tree[i].Children = children
			return tree, removed, true
		}
	}
	return tree, nil, false
}

// insertSibling places the node among its new siblings so that its
// requested order wins ties against existing nodes at the same position.
func insertSibling(siblings []BlockElement, node BlockElement, order int) []BlockElement {
	ordered := make([]BlockElement, 0, len(siblings)+1)
	for _, idx := range sortedSiblingIndexes(siblings) {
		ordered = append(ordered, siblings[idx])
	}

	position := len(ordered)
	for i := range ordered {
		if ordered[i].Order >= order {
			position = i
			break
		}
	}

	result := make([]BlockElement, 0, len(ordered)+1)
	result = append(result, ordered[:position]...)
	result = append(result, node)
	result = append(result, ordered[position:]...)
	return result
}
