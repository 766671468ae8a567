package tree

// Visibility is the state of a node's continuations.
type Visibility int

const (
	// continuations are shown as children
	Expanded Visibility = iota
	// continuations are hidden as followers
	Collapsed
)

func (v Visibility) String() string {
	switch v {
	case Expanded:
		return "expanded"
	default:
		return "collapsed"
	}
}

// Node holds one word and its continuations. The continuations live in a single slice
// tagged by Visibility, so a node can never show and hide them at the same time.
type Node struct {
	Word string
	Id   int

	// previous layout position, used by renderers as the transition origin
	X0 float64
	Y0 float64

	visibility    Visibility
	continuations []*Node
}

func (n *Node) Visibility() Visibility {
	return n.visibility
}

// Children returns the visible continuations, or nil when collapsed.
func (n *Node) Children() []*Node {
	if n.visibility == Expanded {
		return n.continuations
	}
	return nil
}

// Followers returns the hidden continuations, or nil when expanded.
func (n *Node) Followers() []*Node {
	if n.visibility == Collapsed {
		return n.continuations
	}
	return nil
}

func (n *Node) IsLeaf() bool {
	return len(n.continuations) == 0
}

// Toggle swaps children and followers. Leaves are unchanged.
func (n *Node) Toggle() bool {
	if n.IsLeaf() {
		return false
	}
	if n.visibility == Expanded {
		n.visibility = Collapsed
	} else {
		n.visibility = Expanded
	}
	return true
}

func (n *Node) ExpandAll() {
	if n.IsLeaf() {
		return
	}
	n.visibility = Expanded
	for _, c := range n.continuations {
		c.ExpandAll()
	}
}

func (n *Node) CollapseAll() {
	if n.IsLeaf() {
		return
	}
	n.visibility = Collapsed
	for _, c := range n.continuations {
		c.CollapseAll()
	}
}

// Walk visits n and every visible descendant, depth first.
func (n *Node) Walk(visit func(node *Node, depth int)) {
	n.walk(0, visit)
}

func (n *Node) walk(depth int, visit func(node *Node, depth int)) {
	visit(n, depth)
	for _, c := range n.Children() {
		c.walk(depth+1, visit)
	}
}

// Visible returns the nodes a renderer would draw, depth first.
func (n *Node) Visible() []*Node {
	nodes := []*Node{}
	n.Walk(func(node *Node, depth int) {
		nodes = append(nodes, node)
	})
	return nodes
}

func (n *Node) each(visit func(node *Node)) {
	visit(n)
	for _, c := range n.continuations {
		c.each(visit)
	}
}
