package element

import (
	"iter"
	"sort"

	"github.com/google/uuid"
)

// AssignStableIDs gives every node lacking an identifier a fresh uuid.
// Existing identifiers are never reassigned, so the operation is
// idempotent and never changes the node count.
func AssignStableIDs(tree []BlockElement) []BlockElement {
	for i := range tree {
		if tree[i].ID == "" {
			tree[i].ID = uuid.NewString()
		}
		tree[i].Children = AssignStableIDs(tree[i].Children)
	}
	return tree
}

// CountNodes counts every element in the tree including descendants.
func CountNodes(tree []BlockElement) int {
	count := 0
	for i := range tree {
		count += 1 + CountNodes(tree[i].Children)
	}
	return count
}

// FlatNode is one entry of a flattened traversal.
type FlatNode struct {
	Element  *BlockElement
	Depth    int
	ParentID string
}

// FlattenByOrder yields a depth-first pre-order traversal, each sibling
// level sorted by order ascending with id as the tie-break. The sequence
// is lazy and restartable: ranging over it again traverses from the top.
func FlattenByOrder(tree []BlockElement) iter.Seq[FlatNode] {
	return func(yield func(FlatNode) bool) {
		flatten(tree, 0, "", yield)
	}
}

func flatten(siblings []BlockElement, depth int, parentID string, yield func(FlatNode) bool) bool {
	for _, idx := range sortedSiblingIndexes(siblings) {
		node := &siblings[idx]
		if !yield(FlatNode{Element: node, Depth: depth, ParentID: parentID}) {
			return false
		}
		if !flatten(node.Children, depth+1, node.ID, yield) {
			return false
		}
	}
	return true
}

// sortedSiblingIndexes orders siblings by order ascending. Duplicate
// order values are tolerated on read and resolved by the stable id sort.
func sortedSiblingIndexes(siblings []BlockElement) []int {
	indexes := make([]int, len(siblings))
	for i := range indexes {
		indexes[i] = i
	}
	sort.SliceStable(indexes, func(a, b int) bool {
		ea, eb := &siblings[indexes[a]], &siblings[indexes[b]]
		if ea.Order != eb.Order {
			return ea.Order < eb.Order
		}
		return ea.ID < eb.ID
	})
	return indexes
}

// NormalizeOrder resequences every sibling level to contiguous order
// values starting at 0, preserving the read order. Called before every
// persist.
func NormalizeOrder(tree []BlockElement) []BlockElement {
	indexes := sortedSiblingIndexes(tree)
	normalized := make([]BlockElement, 0, len(tree))
	for position, idx := range indexes {
		node := tree[idx]
		node.Order = position
		node.Children = NormalizeOrder(node.Children)
		normalized = append(normalized, node)
	}
	return normalized
}

// FindByID returns the node with the given id, or nil.
func FindByID(tree []BlockElement, id string) *BlockElement {
	for i := range tree {
		if tree[i].ID == id {
			return &tree[i]
		}
		if found := FindByID(tree[i].Children, id); found != nil {
			return found
		}
	}
	return nil
}
