package tree

import (
	"strconv"
	"strings"
)

// DefaultViewHeight is the drawing height the root is centered on.
const DefaultViewHeight = 560

// Model is the current word-association tree.
// Ids are keyed by the word path from the root, so a node the server sends again
// at the same position keeps its id across snapshots.
type Model struct {
	viewHeight float64

	root   *Node
	nextId int
	ids    map[string]int
	nodes  map[int]*Node
}

func NewModel() *Model {
	return NewModelWithViewHeight(DefaultViewHeight)
}

func NewModelWithViewHeight(viewHeight float64) *Model {
	return &Model{
		viewHeight: viewHeight,
		ids:        map[string]int{},
		nodes:      map[int]*Node{},
	}
}

func (m *Model) Root() *Node {
	return m.root
}

// ReplaceRoot discards the current tree and installs the snapshot.
// Every subtree starts collapsed except the root, whose first level is shown.
func (m *Model) ReplaceRoot(snapshot *Snapshot) *Node {
	ids := map[string]int{}
	nodes := map[int]*Node{}
	root := m.build(snapshot, "", 0, ids, nodes)
	root.X0 = m.viewHeight / 2
	root.Y0 = 0

	root.ExpandAll()
	for _, c := range root.continuations {
		c.CollapseAll()
	}

	m.root = root
	m.ids = ids
	m.nodes = nodes
	return root
}

func (m *Model) build(snapshot *Snapshot, parentKey string, index int, ids map[string]int, nodes map[int]*Node) *Node {
	key := parentKey + "/" + strconv.Itoa(index) + ":" + strings.ToLower(snapshot.Word)
	id, ok := m.ids[key]
	if !ok {
		m.nextId++
		id = m.nextId
	}
	node := &Node{
		Word: snapshot.Word,
		Id:   id,
	}
	ids[key] = id
	nodes[id] = node
	for i := range snapshot.FollowWordObjs {
		child := m.build(&snapshot.FollowWordObjs[i], key, i, ids, nodes)
		node.continuations = append(node.continuations, child)
	}
	return node
}

// Find returns the node with the given id in the current tree.
func (m *Model) Find(id int) (*Node, bool) {
	node, ok := m.nodes[id]
	return node, ok
}

// Toggle flips a single node. Unknown ids and leaves are a no-op.
func (m *Model) Toggle(id int) bool {
	node, ok := m.nodes[id]
	if !ok {
		return false
	}
	return node.Toggle()
}

func (m *Model) Len() int {
	if m.root == nil {
		return 0
	}
	n := 0
	m.root.each(func(node *Node) {
		n++
	})
	return n
}
