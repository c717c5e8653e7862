package todolist

// Resolve returns the node at the given pre-order index, counting n as 0.
// Indexes are positional and shift after any structural change.
func (n *Node) Resolve(index int) (*Node, error) {
	if index < 0 {
		return nil, &IndexError{Index: index, Size: n.Count()}
	}
	visited := 0
	if found := n.resolve(index, &visited); found != nil {
		return found, nil
	}
	return nil, &IndexError{Index: index, Size: visited}
}

// resolve compares before incrementing, so the first child visited after
// the node at i is i+1. When nothing matches, *visited ends at the node count.
func (n *Node) resolve(target int, visited *int) *Node {
	if *visited == target {
		return n
	}
	*visited++
	for _, c := range n.Children {
		if found := c.resolve(target, visited); found != nil {
			return found
		}
	}
	return nil
}

// locate finds the group owning the node at index and the node's position
// in that group's children. Index 0 (the root) has no owner.
func (n *Node) locate(index int) (*Node, int, bool) {
	type frame struct {
		group *Node
		next  int
	}
	i := 0
	stack := []frame{{group: n}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next >= len(top.group.Children) {
			stack = stack[:len(stack)-1]
			continue
		}
		pos := top.next
		child := top.group.Children[pos]
		top.next++
		i++
		if i == index {
			return top.group, pos, true
		}
		if child.Kind == Group {
			stack = append(stack, frame{group: child})
		}
	}
	return nil, 0, false
}

// Remove deletes the node at index, with its subtree, from its owning group
// and returns it.
func (n *Node) Remove(index int) (*Node, error) {
	if index == 0 {
		return nil, ErrRemoveRoot
	}
	if index < 0 {
		return nil, &IndexError{Index: index, Size: n.Count()}
	}
	parent, pos, ok := n.locate(index)
	if !ok {
		return nil, &IndexError{Index: index, Size: n.Count()}
	}
	removed := parent.Children[pos]
	parent.Children = append(parent.Children[:pos], parent.Children[pos+1:]...)
	return removed, nil
}
