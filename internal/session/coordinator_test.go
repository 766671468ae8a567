package session

import (
	"errors"
	"testing"

	"github.com/go-playground/assert/v2"

	"echotree/internal/control"
	"echotree/internal/identity"
	"echotree/internal/protocol"
	"echotree/internal/ticker"
	"echotree/internal/tree"
)

type testListener struct {
	trees    []string
	tickers  []string
	messages []string
	ends     []control.EndReason
	readOnly []bool
	prompts  []string
}

func (l *testListener) OnTreeChanged(root *tree.Node) {
	l.trees = append(l.trees, root.Word)
}

func (l *testListener) OnTickerChanged(content string) {
	l.tickers = append(l.tickers, content)
}

func (l *testListener) OnMessage(text string) {
	l.messages = append(l.messages, text)
}

func (l *testListener) OnSessionEnded(reason control.EndReason) {
	l.ends = append(l.ends, reason)
}

func (l *testListener) OnReadOnlyChanged(readOnly bool) {
	l.readOnly = append(l.readOnly, readOnly)
}

func (l *testListener) OnPrompt(paragraphId string, text string) {
	l.prompts = append(l.prompts, paragraphId+":"+text)
}

type testWords struct {
	sent []string
}

func (w *testWords) SendWord(token string) error {
	w.sent = append(w.sent, token)
	return nil
}

type testTrees struct {
	roots         []string
	subscriptions []string
}

func (t *testTrees) RequestNewRoot(word string) error {
	t.roots = append(t.roots, word)
	return nil
}

func (t *testTrees) Subscribe(myId string, creatorId string, treeType string) error {
	t.subscriptions = append(t.subscriptions, myId+">"+creatorId+">"+treeType)
	return nil
}

type testJournal struct {
	kinds []string
}

func (j *testJournal) Record(kind string, data string) {
	j.kinds = append(j.kinds, kind)
}

func newTestCoordinator(role identity.Role) (*Coordinator, *testListener, *testWords, *testTrees) {
	id := identity.New(role, "self@x", "peer@x")
	id.Establish()
	listener := &testListener{}
	words := &testWords{}
	trees := &testTrees{}
	c := NewCoordinator(id, " ", listener, &testJournal{})
	c.Bind(words, trees)
	c.LoggedIn(role)
	return c, listener, words, trees
}

func typeString(c *Coordinator, s string) {
	for _, r := range s {
		c.Keystroke(ticker.Char(r))
	}
}

func TestTypistDelimiterRequestsRootOnce(t *testing.T) {
	c, listener, words, trees := newTestCoordinator(identity.Disabled)
	typeString(c, "cat ")

	assert.Equal(t, trees.roots, []string{"cat"})
	assert.Equal(t, words.sent, []string{"c", "a", "t", " "})
	assert.Equal(t, listener.tickers[len(listener.tickers)-1], "cat ")

	// more delimiters do not ask again
	typeString(c, " ,")
	assert.Equal(t, trees.roots, []string{"cat"})

	typeString(c, "dog.")
	assert.Equal(t, trees.roots, []string{"cat", "dog"})
}

func TestTypistBackspace(t *testing.T) {
	c, listener, words, _ := newTestCoordinator(identity.Disabled)
	typeString(c, "hi")
	c.Keystroke(ticker.BackspaceToken())
	typeString(c, "!")
	assert.Equal(t, listener.tickers[len(listener.tickers)-1], "h!")
	assert.Equal(t, words.sent, []string{"h", "i", "0x08", "!"})
}

func TestPartnerKeystrokesStayLocal(t *testing.T) {
	c, listener, words, _ := newTestCoordinator(identity.Partner)
	assert.Equal(t, listener.readOnly, []bool{true})

	err := c.Keystroke(ticker.Char('x'))
	assert.Equal(t, errors.Is(err, ErrReadOnly), true)
	assert.Equal(t, len(words.sent), 0)
	assert.Equal(t, c.Ticker().Content(), "")
}

func TestRelayIsNotPropagated(t *testing.T) {
	c, listener, words, trees := newTestCoordinator(identity.Partner)

	c.AddWord("c")
	c.AddWord("a")
	c.AddWord("t")
	c.AddWord(" ")
	assert.Equal(t, c.Ticker().Content(), "cat ")
	assert.Equal(t, len(words.sent), 0)
	// delimiter detection also runs on relayed characters
	assert.Equal(t, trees.roots, []string{"cat"})
	// read only is lifted around every relay and restored
	assert.Equal(t, listener.readOnly[:3], []bool{true, false, true})
	assert.Equal(t, c.ReadOnly(), true)

	c.AddWord("0x08")
	assert.Equal(t, c.Ticker().Content(), "cat")

	c.AddWord("hat")
	assert.Equal(t, c.Ticker().Content(), "cat hat")
}

func TestSelectWord(t *testing.T) {
	c, _, words, _ := newTestCoordinator(identity.Disabled)
	c.ReplaceTree(&tree.Snapshot{Word: "cat", FollowWordObjs: []tree.Snapshot{{Word: "food"}}})
	food := c.Model().Root().Children()[0]

	typeString(c, "my")
	assert.Equal(t, c.SelectWord(food.Id), nil)
	assert.Equal(t, c.Ticker().Content(), "my food")
	assert.Equal(t, words.sent[len(words.sent)-1], "food")

	p, _, _, _ := newTestCoordinator(identity.Partner)
	assert.Equal(t, p.SelectWord(1), ErrNotTypist)
}

func TestSelectOneLetterWordJoinsOnPeer(t *testing.T) {
	c, _, words, _ := newTestCoordinator(identity.Disabled)
	c.ReplaceTree(&tree.Snapshot{Word: "cat", FollowWordObjs: []tree.Snapshot{{Word: "a"}}})
	a := c.Model().Root().Children()[0]

	typeString(c, "my")
	assert.Equal(t, c.SelectWord(a.Id), nil)
	assert.Equal(t, c.Ticker().Content(), "my a")

	// a single character on the wire continues the current word
	p, _, _, _ := newTestCoordinator(identity.Partner)
	for _, token := range words.sent {
		p.AddWord(token)
	}
	assert.Equal(t, words.sent, []string{"m", "y", "a"})
	assert.Equal(t, p.Ticker().Content(), "mya")
}

func TestClickNode(t *testing.T) {
	c, listener, words, trees := newTestCoordinator(identity.Partner)
	c.ReplaceTree(&tree.Snapshot{Word: "cat", FollowWordObjs: []tree.Snapshot{
		{Word: "food", FollowWordObjs: []tree.Snapshot{{Word: "bowl"}}},
	}})
	food := c.Model().Root().Children()[0]

	assert.Equal(t, c.ClickNode(food.Id, SecondaryButton), nil)
	assert.Equal(t, food.Visibility(), tree.Expanded)
	assert.Equal(t, listener.trees, []string{"cat", "cat"})
	assert.Equal(t, len(trees.roots), 0)

	assert.Equal(t, c.ClickNode(food.Id, PrimaryButton), nil)
	assert.Equal(t, trees.roots, []string{"food"})
	// the partner's root requests never touch the ticker
	assert.Equal(t, c.Ticker().Content(), "")
	assert.Equal(t, len(words.sent), 0)

	assert.Equal(t, c.ClickNode(999, PrimaryButton), ErrUnknownNode)
}

func TestNewParagraph(t *testing.T) {
	c, listener, _, trees := newTestCoordinator(identity.Disabled)
	typeString(c, "old text")

	c.NewParagraph(protocol.Paragraph{Id: "3", Text: "Dogs like bones."})
	assert.Equal(t, c.Ticker().Content(), "")
	assert.Equal(t, listener.prompts, []string{"3:Dogs like bones."})
	assert.Equal(t, trees.roots[len(trees.roots)-1], "Dogs")

	p, plistener, _, ptrees := newTestCoordinator(identity.Partner)
	p.NewParagraph(protocol.Paragraph{Topic: "animals"})
	assert.Equal(t, plistener.messages, []string{"The next paragraph will loosely be about animals"})
	assert.Equal(t, ptrees.roots, []string{"animals"})
}

func TestSubscribeUsesEstablishedId(t *testing.T) {
	c, _, _, trees := newTestCoordinator(identity.Partner)
	assert.Equal(t, c.SubscribeToTree("peer@x", "google"), nil)
	assert.Equal(t, trees.subscriptions, []string{"self@x>peer@x>google"})
}

func TestEndSessionOnce(t *testing.T) {
	c, listener, _, _ := newTestCoordinator(identity.Disabled)
	c.EndSession(control.EndReason{Kind: control.EndRequested})
	c.EndSession(control.EndReason{Kind: control.EndTransportClosed})
	reason, ended := c.Ended()
	assert.Equal(t, ended, true)
	assert.Equal(t, reason.Kind, control.EndRequested)
	assert.Equal(t, len(listener.ends), 1)
}

func TestControlFramesThroughCoordinator(t *testing.T) {
	id := identity.New(identity.Partner, "self@x", "peer@x")
	listener := &testListener{}
	c := NewCoordinator(id, " ", listener, nil)
	client := control.NewClient(id, protocol.NewCodec(""), c, "index.html")
	trees := &testTrees{}
	c.Bind(client, trees)
	sender := &testSender{}
	client.Connect(sender)
	client.HandleOpen()

	// before the login the relay is dropped
	client.HandleFrame("addWord>x")
	assert.Equal(t, c.Ticker().Content(), "")

	client.HandleFrame("sendLogin>")
	client.HandleFrame("addWord>x")
	assert.Equal(t, c.Ticker().Content(), "x")
	// nothing echoed back
	assert.Equal(t, len(sender.frames), 1)
}

func TestDecodeKey(t *testing.T) {
	token, ok := DecodeKey('a')
	assert.Equal(t, ok, true)
	assert.Equal(t, token, ticker.Char('a'))
	token, ok = DecodeKey(8)
	assert.Equal(t, ok, true)
	assert.Equal(t, token.Backspace, true)
	_, ok = DecodeKey('~')
	assert.Equal(t, ok, false)
	_, ok = DecodeKey('é')
	assert.Equal(t, ok, false)
}

type testSender struct {
	frames []string
}

func (s *testSender) Send(frame string) error {
	s.frames = append(s.frames, frame)
	return nil
}

func (s *testSender) Close() error {
	return nil
}
