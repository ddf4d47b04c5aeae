// Package nester implements component D (spec.md §4.D): it turns a
// flat parse table into the recursively nested tree the transformer
// visitor walks, by repeatedly folding "child" rows into the
// "internal" row they belong under until every remaining row is
// top-level.
package nester

import (
	"sort"

	"github.com/aledsdavies/gostyler/pkg/token"
)

// Nest converts flat into a list of top-level trees, in PosID order.
// flat is consumed (rows are reparented into Child lists in place);
// callers should not use it afterwards except through the returned
// roots.
func Nest(flat []*token.Token) []*token.Token {
	byID := make(map[int]*token.Token, len(flat))
	for _, t := range flat {
		byID[t.ID] = t
	}

	active := make([]*token.Token, len(flat))
	copy(active, flat)

	for {
		internalIDs := make(map[int]bool)
		for _, t := range active {
			if t.Parent > 0 {
				internalIDs[t.Parent] = true
			}
		}

		var remaining []*token.Token
		childByParent := make(map[int][]*token.Token)
		done := true

		for _, t := range active {
			isInternal := internalIDs[t.ID] || t.Parent <= 0
			if isInternal {
				remaining = append(remaining, t)
				continue
			}
			// A pure child row this iteration: fold it under its parent.
			childByParent[t.Parent] = append(childByParent[t.Parent], t)
			done = false
		}

		if done {
			return sortedByPosID(remaining)
		}

		for _, t := range remaining {
			added, ok := childByParent[t.ID]
			if !ok {
				continue
			}
			t.Child = append(t.Child, added...)
			sort.SliceStable(t.Child, func(i, j int) bool { return t.Child[i].PosID < t.Child[j].PosID })
		}

		active = remaining
	}
}

func sortedByPosID(rows []*token.Token) []*token.Token {
	out := make([]*token.Token, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool { return out[i].PosID < out[j].PosID })
	return out
}
