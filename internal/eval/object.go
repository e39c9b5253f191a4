package eval

import "github.com/lumenlang/lumen/internal/ast"

// objLeaf is one leaf of an extension tree: either a simple object or a
// comprehension object (spec.md §3).
type objLeaf struct {
	simple *HeapSimpleObject
	comp   *HeapComprehensionObject
}

// flattenLeaves walks an extension tree right-first then left (spec.md
// §4.F.8 "traverse the extension tree right-first (then left)"), so index
// 0 is always the most recently `+`-added leaf.
func flattenLeaves(v Value, out *[]objLeaf) {
	switch e := v.Ref.(type) {
	case *HeapExtendedObject:
		flattenLeaves(e.Right, out)
		flattenLeaves(e.Left, out)
	case *HeapSimpleObject:
		*out = append(*out, objLeaf{simple: e})
	case *HeapComprehensionObject:
		*out = append(*out, objLeaf{comp: e})
	}
}

func leavesOf(obj Value) []objLeaf {
	var leaves []objLeaf
	flattenLeaves(obj, &leaves)
	return leaves
}

// findField resolves a field starting startFrom leaves in (implementing
// `super`'s offset skip), returning the leaf index it was found at and
// enough information to evaluate it (spec.md §4.F.8-9).
func findField(leaves []objLeaf, field string, startFrom int) (idx int, spec FieldSpec, comp *HeapComprehensionObject, ok bool) {
	for i := startFrom; i < len(leaves); i++ {
		leaf := leaves[i]
		if leaf.simple != nil {
			if fs, present := leaf.simple.Fields[field]; present {
				return i, fs, nil, true
			}
		} else if leaf.comp != nil {
			if _, present := leaf.comp.CompValues[field]; present {
				return i, FieldSpec{Hide: ast.HideVisible}, leaf.comp, true
			}
		}
	}
	return 0, FieldSpec{}, nil, false
}

// resolveVisibility implements the hide-merge rule of spec.md §3
// Invariant 3: the most recent (rightmost) leaf's explicit hide wins;
// INHERIT defers to the next leaf down the chain that defines the field;
// if every occurrence is INHERIT (or the chain is exhausted), the field is
// VISIBLE.
func resolveVisibility(leaves []objLeaf, field string) ast.Hide {
	for _, leaf := range leaves {
		if leaf.simple != nil {
			if fs, ok := leaf.simple.Fields[field]; ok {
				if fs.Hide != ast.HideInherit {
					return fs.Hide
				}
				continue
			}
		} else if leaf.comp != nil {
			if _, ok := leaf.comp.CompValues[field]; ok {
				return ast.HideVisible
			}
		}
	}
	return ast.HideVisible
}

// visibleFieldNames returns every field name defined anywhere in the
// extension tree, hidden or not, without duplicates and in leaf order.
// Callers filter out hidden names with resolveVisibility.
func visibleFieldNames(obj Value) []string {
	leaves := leavesOf(obj)
	seen := map[string]bool{}
	var names []string
	for _, leaf := range leaves {
		if leaf.simple != nil {
			for name := range leaf.simple.Fields {
				if !seen[name] {
					seen[name] = true
					names = append(names, name)
				}
			}
		} else if leaf.comp != nil {
			for name := range leaf.comp.CompValues {
				if !seen[name] {
					seen[name] = true
					names = append(names, name)
				}
			}
		}
	}
	return names
}

// allAsserts collects every leaf's asserts in traversal order, for
// invariant execution (spec.md §4.F.10).
func allAsserts(obj Value) []ast.Node {
	leaves := leavesOf(obj)
	var asserts []ast.Node
	for _, leaf := range leaves {
		if leaf.simple != nil {
			asserts = append(asserts, leaf.simple.Asserts...)
		}
	}
	return asserts
}
