// Package todolist implements the hierarchical to-do list: a tree of groups
// and leaf tasks addressed by pre-order position.
package todolist

// Kind distinguishes the two node variants.
type Kind int

const (
	Leaf Kind = iota
	Group
)

func (k Kind) String() string {
	switch k {
	case Leaf:
		return "leaf"
	case Group:
		return "group"
	}
	return "unknown"
}

// Node is a single element of the list. A Group owns its Children
// exclusively; a Leaf carries a completion flag and has no children.
type Node struct {
	Kind     Kind
	Label    string
	Done     bool    // Leaf only
	Children []*Node // Group only
}

// New returns an empty top-level list.
func New(label string) *Node {
	return &Node{Kind: Group, Label: label, Children: []*Node{}}
}

// NewTask returns an incomplete leaf.
func NewTask(label string) *Node {
	return &Node{Kind: Leaf, Label: label}
}

// IsGroup reports whether n is a Group.
func (n *Node) IsGroup() bool {
	return n.Kind == Group
}

// AddChild appends item to n. A leaf is first promoted into a group with the
// same label whose first child keeps the leaf's label and completion flag.
// item must not be owned by any other node.
func (n *Node) AddChild(item *Node) {
	if n.Kind == Leaf {
		n.promote()
	}
	n.Children = append(n.Children, item)
}

// promote replaces n in place with a group seeded by a copy of itself.
func (n *Node) promote() {
	seed := &Node{Kind: Leaf, Label: n.Label, Done: n.Done}
	*n = Node{Kind: Group, Label: n.Label, Children: []*Node{seed}}
}

// Mark sets the completion flag of a leaf, or of every leaf below a group.
func (n *Node) Mark(value bool) {
	if n.Kind == Leaf {
		n.Done = value
		return
	}
	for _, c := range n.Children {
		c.Mark(value)
	}
}

// Count returns the number of nodes in the tree rooted at n.
func (n *Node) Count() int {
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}

// Walk visits every node in pre-order. fn receives the node, its depth below
// n and its pre-order index. Returning false skips the node's children.
func (n *Node) Walk(fn func(node *Node, depth, index int) bool) {
	i := 0
	n.walk(fn, 0, &i)
}

func (n *Node) walk(fn func(*Node, int, int) bool, depth int, i *int) {
	idx := *i
	*i++
	if !fn(n, depth, idx) {
		return
	}
	for _, c := range n.Children {
		c.walk(fn, depth+1, i)
	}
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	out := &Node{Kind: n.Kind, Label: n.Label, Done: n.Done}
	if n.Kind == Group {
		out.Children = make([]*Node, 0, len(n.Children))
		for _, c := range n.Children {
			out.Children = append(out.Children, c.Clone())
		}
	}
	return out
}

// Equal reports whether a and b have the same kinds, labels, flags and
// child order at every depth.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Label != b.Label {
		return false
	}
	if a.Kind == Leaf {
		return a.Done == b.Done
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// Stats summarizes a tree.
type Stats struct {
	Nodes   int `json:"nodes"`
	Groups  int `json:"groups"`
	Leaves  int `json:"leaves"`
	Done    int `json:"done"`
	Pending int `json:"pending"`
}

// Stats counts the nodes of the tree rooted at n.
func (n *Node) Stats() Stats {
	var s Stats
	n.Walk(func(node *Node, _, _ int) bool {
		s.Nodes++
		if node.Kind == Group {
			s.Groups++
			return true
		}
		s.Leaves++
		if node.Done {
			s.Done++
		} else {
			s.Pending++
		}
		return true
	})
	return s
}
