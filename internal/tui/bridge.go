package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang/glog"

	"echotree/internal/control"
	"echotree/internal/tree"
)

const bridgeBufferSize = 1024

// Row is one visible tree node, flattened for drawing.
type Row struct {
	Id       int
	Word     string
	Depth    int
	Leaf     bool
	Expanded bool
}

type treeMsg []Row

type tickerMsg string

type messageMsg string

type promptMsg struct {
	id   string
	text string
}

type readOnlyMsg bool

type endedMsg control.EndReason

// Bridge receives session callbacks on the session loop and hands them to the
// program as messages. Trees are flattened before they leave the loop, so the
// program never reads the live tree.
type Bridge struct {
	msgs      chan tea.Msg
	done      chan struct{}
	closeOnce sync.Once
}

func NewBridge() *Bridge {
	return &Bridge{
		msgs: make(chan tea.Msg, bridgeBufferSize),
		done: make(chan struct{}),
	}
}

// Close is called when the program has exited. Later callbacks are dropped.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
	})
}

func (b *Bridge) send(msg tea.Msg) {
	select {
	case b.msgs <- msg:
	case <-b.done:
		glog.V(2).Infof("[tui]drop %T, program exited\n", msg)
	}
}

// wait delivers the next session message to the program.
func (b *Bridge) wait() tea.Cmd {
	return func() tea.Msg {
		return <-b.msgs
	}
}

func (b *Bridge) OnTreeChanged(root *tree.Node) {
	rows := []Row{}
	if root != nil {
		root.Walk(func(node *tree.Node, depth int) {
			rows = append(rows, Row{
				Id:       node.Id,
				Word:     node.Word,
				Depth:    depth,
				Leaf:     node.IsLeaf(),
				Expanded: node.Visibility() == tree.Expanded,
			})
		})
	}
	b.send(treeMsg(rows))
}

func (b *Bridge) OnTickerChanged(content string) {
	b.send(tickerMsg(content))
}

func (b *Bridge) OnMessage(text string) {
	b.send(messageMsg(text))
}

func (b *Bridge) OnSessionEnded(reason control.EndReason) {
	b.send(endedMsg(reason))
}

func (b *Bridge) OnReadOnlyChanged(readOnly bool) {
	b.send(readOnlyMsg(readOnly))
}

func (b *Bridge) OnPrompt(paragraphId string, text string) {
	b.send(promptMsg{id: paragraphId, text: text})
}
