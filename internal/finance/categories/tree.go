package categories

import (
	"iter"
	"slices"
)

// BuildForest materializes the child lists from the flat parent-linked records.
// Sibling order follows the input list order, so a repository that returns rows
// sorted by name yields a name-sorted tree.
//
// Construction is deliberately forgiving: a node whose ParentID references a
// category absent from the input is promoted to a root instead of failing the
// build, and parent cycles are broken by promoting their first-listed member.
// The ids of such nodes are returned in orphans so callers can log the
// inconsistency. No node is ever dropped.
func BuildForest(list []Category) (roots []*Node, orphans []int64) {
	nodes := make(map[int64]*Node, len(list))
	for _, c := range list {
		nodes[c.ID] = &Node{Category: c}
	}
	for _, c := range list {
		n := nodes[c.ID]
		if c.ParentID == nil {
			roots = append(roots, n)
			continue
		}
		parent, ok := nodes[*c.ParentID]
		if !ok || *c.ParentID == c.ID {
			orphans = append(orphans, c.ID)
			roots = append(roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}

	// Mutually-referencing parents leave whole cycles unreachable from any
	// root. Break each cycle at its first-listed member: detach it from its
	// parent and promote it, then the rest of the cycle hangs off it.
	visited := make(map[int64]bool, len(nodes))
	var mark func(n *Node)
	mark = func(n *Node) {
		if visited[n.ID] {
			return
		}
		visited[n.ID] = true
		for _, child := range n.Children {
			mark(child)
		}
	}
	for _, r := range roots {
		mark(r)
	}
	for _, c := range list {
		if visited[c.ID] {
			continue
		}
		n := nodes[c.ID]
		if parent, ok := nodes[*c.ParentID]; ok {
			parent.Children = slices.DeleteFunc(parent.Children, func(ch *Node) bool {
				return ch == n
			})
		}
		orphans = append(orphans, n.ID)
		roots = append(roots, n)
		mark(n)
	}
	return roots, orphans
}

// FindByID searches the forest depth-first and returns the node, or nil when
// no category carries the id. Nesting depth is unbounded.
func FindByID(forest []*Node, id int64) *Node {
	for _, n := range forest {
		if n.ID == id {
			return n
		}
		if found := FindByID(n.Children, id); found != nil {
			return found
		}
	}
	return nil
}

// Flatten returns a restartable pre-order traversal of the forest, yielding
// each node together with its depth (roots at 0). Every node is visited
// exactly once; children keep their sibling order. Used to render indented
// category pickers.
func Flatten(forest []*Node) iter.Seq2[*Node, int] {
	return func(yield func(*Node, int) bool) {
		var walk func(n *Node, depth int) bool
		walk = func(n *Node, depth int) bool {
			if !yield(n, depth) {
				return false
			}
			for _, child := range n.Children {
				if !walk(child, depth+1) {
					return false
				}
			}
			return true
		}
		for _, root := range forest {
			if !walk(root, 0) {
				return
			}
		}
	}
}

// NameIndex flattens the forest into an id-to-name lookup map.
func NameIndex(forest []*Node) map[int64]string {
	names := make(map[int64]string)
	for n := range Flatten(forest) {
		names[n.ID] = n.Name
	}
	return names
}
