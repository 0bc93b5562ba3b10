package version

import (
	"reflect"

	"github.com/strata-cms/strata/internal/element"
)

// Diff is a node-count summary between two trees, keyed by stable id.
// It classifies nodes, it does not compute an edit script.
type Diff struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
}

type flatEntry struct {
	elementType string
	order       int
	data        map[string]any
}

// DiffSummary compares two element trees at the flattened node level.
// Present only in new counts as added, only in old as removed, in both
// with differing type/order/data as modified. Unchanged nodes are not
// counted.
func DiffSummary(oldTree, newTree []element.BlockElement) Diff {
	oldNodes := indexByID(oldTree)
	newNodes := indexByID(newTree)

	var diff Diff
	for id, entry := range newNodes {
		previous, existed := oldNodes[id]
		if !existed {
			diff.Added++
			continue
		}
		if previous.elementType != entry.elementType ||
			previous.order != entry.order ||
			!reflect.DeepEqual(previous.data, entry.data) {
			diff.Modified++
		}
	}
	for id := range oldNodes {
		if _, stillThere := newNodes[id]; !stillThere {
			diff.Removed++
		}
	}
	return diff
}

func indexByID(tree []element.BlockElement) map[string]flatEntry {
	nodes := make(map[string]flatEntry)
	for node := range element.FlattenByOrder(tree) {
		nodes[node.Element.ID] = flatEntry{
			elementType: node.Element.Type,
			order:       node.Element.Order,
			data:        node.Element.Data,
		}
	}
	return nodes
}
