package tui

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-playground/assert/v2"

	"echotree/internal/control"
	"echotree/internal/identity"
	"echotree/internal/session"
	"echotree/internal/ticker"
	"echotree/internal/tree"
)

type testController struct {
	calls []string
}

func (c *testController) Type(token ticker.Token) {
	c.calls = append(c.calls, "type "+token.Encode())
}

func (c *testController) Click(nodeId int, button session.Button) {
	c.calls = append(c.calls, fmt.Sprintf("click %d %d", nodeId, button))
}

func (c *testController) SelectWord(nodeId int) {
	c.calls = append(c.calls, fmt.Sprintf("select %d", nodeId))
}

func (c *testController) RequestRoot(word string) {
	c.calls = append(c.calls, "root "+word)
}

func (c *testController) GoodGuess() {
	c.calls = append(c.calls, "goodGuess")
}

func (c *testController) ParagraphDone() {
	c.calls = append(c.calls, "parDone")
}

func (c *testController) Close() {
	c.calls = append(c.calls, "close")
}

func update(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func key(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func testTree() *tree.Node {
	model := tree.NewModel()
	return model.ReplaceRoot(&tree.Snapshot{
		Word: "cat",
		FollowWordObjs: []tree.Snapshot{
			{Word: "food", FollowWordObjs: []tree.Snapshot{{Word: "bowl"}}},
			{Word: "toy"},
		},
	})
}

func TestBridgeFlattensVisibleTree(t *testing.T) {
	bridge := NewBridge()
	root := testTree()
	bridge.OnTreeChanged(root)

	msg := (<-bridge.msgs).(treeMsg)
	assert.Equal(t, len(msg), 3)
	assert.Equal(t, msg[0].Word, "cat")
	assert.Equal(t, msg[0].Depth, 0)
	assert.Equal(t, msg[0].Expanded, true)
	assert.Equal(t, msg[1].Word, "food")
	assert.Equal(t, msg[1].Depth, 1)
	assert.Equal(t, msg[1].Expanded, false)
	assert.Equal(t, msg[1].Leaf, false)
	assert.Equal(t, msg[2].Leaf, true)

	// rows are a copy; later toggles do not reach the program
	root.Children()[0].Toggle()
	assert.Equal(t, len(msg), 3)
}

func TestClosedBridgeDoesNotBlock(t *testing.T) {
	bridge := NewBridge()
	bridge.Close()
	bridge.Close()
	for i := 0; i < 2*bridgeBufferSize; i++ {
		bridge.OnTickerChanged("x")
	}
	bridge.OnSessionEnded(control.EndReason{Kind: control.EndLocal})
}

func TestTypistKeys(t *testing.T) {
	controller := &testController{}
	bridge := NewBridge()
	m := NewModel(controller, bridge, identity.Disabled)

	bridge.OnTreeChanged(testTree())
	m = update(m, <-bridge.msgs)
	assert.Equal(t, len(m.rows), 3)

	m = update(m, runes("hi"))
	m = update(m, key(tea.KeySpace))
	m = update(m, key(tea.KeyBackspace))
	m = update(m, runes("é"))
	m = update(m, key(tea.KeyDown))
	m = update(m, key(tea.KeyEnter))
	m = update(m, key(tea.KeyTab))
	m = update(m, key(tea.KeyCtrlW))
	m = update(m, key(tea.KeyCtrlD))

	id := m.rows[1].Id
	assert.Equal(t, controller.calls, []string{
		"type h",
		"type i",
		"type  ",
		"type 0x08",
		fmt.Sprintf("click %d %d", id, session.PrimaryButton),
		fmt.Sprintf("click %d %d", id, session.SecondaryButton),
		fmt.Sprintf("select %d", id),
		"parDone",
	})
}

func TestReadOnlyPartner(t *testing.T) {
	controller := &testController{}
	bridge := NewBridge()
	m := NewModel(controller, bridge, identity.Partner)

	m = update(m, readOnlyMsg(true))
	m = update(m, tickerMsg("hello"))
	m = update(m, runes("x"))
	m = update(m, key(tea.KeyCtrlW))
	m = update(m, key(tea.KeyCtrlG))
	assert.Equal(t, m.ticker, "hello")
	assert.Equal(t, controller.calls, []string{"goodGuess"})
}

func TestRootPrompt(t *testing.T) {
	controller := &testController{}
	m := NewModel(controller, NewBridge(), identity.Partner)

	m = update(m, key(tea.KeyCtrlR))
	assert.Equal(t, m.mode, modeRoot)
	m = update(m, runes("sea"))
	m = update(m, key(tea.KeyEnter))
	assert.Equal(t, m.mode, modeTicker)
	assert.Equal(t, controller.calls, []string{"root sea"})
}

func TestCursorFollowsNode(t *testing.T) {
	m := NewModel(&testController{}, NewBridge(), identity.Disabled)
	m.setRows([]Row{{Id: 1, Word: "a"}, {Id: 2, Word: "b"}, {Id: 3, Word: "c"}})
	m.cursor = 2
	m.setRows([]Row{{Id: 1, Word: "a"}, {Id: 3, Word: "c"}})
	assert.Equal(t, m.cursor, 1)
	m.setRows([]Row{{Id: 9, Word: "z"}})
	assert.Equal(t, m.cursor, 0)
}

func TestEndedSessionQuitsOnKey(t *testing.T) {
	controller := &testController{}
	m := NewModel(controller, NewBridge(), identity.Disabled)

	m = update(m, messageMsg("All done. Thank you!"))
	m = update(m, endedMsg(control.EndReason{Kind: control.EndRequested, Message: "All done. Thank you!"}))
	reason, ended := m.Reason()
	assert.Equal(t, ended, true)
	assert.Equal(t, reason.Kind, control.EndRequested)

	next, cmd := m.Update(runes("x"))
	assert.Equal(t, cmd != nil, true)
	assert.Equal(t, next.(Model).quitting, true)
	assert.Equal(t, len(controller.calls), 0)
}

func TestEscapeClosesSession(t *testing.T) {
	controller := &testController{}
	m := NewModel(controller, NewBridge(), identity.Disabled)
	m = update(m, key(tea.KeyEsc))
	assert.Equal(t, controller.calls, []string{"close"})
	assert.Equal(t, m.View(), "")
}
