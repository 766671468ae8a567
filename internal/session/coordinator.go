package session

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/golang/glog"

	"echotree/internal/control"
	"echotree/internal/identity"
	"echotree/internal/journal"
	"echotree/internal/protocol"
	"echotree/internal/ticker"
	"echotree/internal/tree"
)

var (
	ErrReadOnly    = errors.New("ticker is read only")
	ErrUnknownNode = errors.New("unknown node")
	ErrNotTypist   = errors.New("only the disabled participant adds words")
)

// Listener is the surface for rendering and navigation collaborators.
// It is always called from the session loop.
type Listener interface {
	OnTreeChanged(root *tree.Node)
	OnTickerChanged(content string)
	OnMessage(text string)
	OnSessionEnded(reason control.EndReason)
	OnReadOnlyChanged(readOnly bool)
}

// PromptListener is implemented by collaborators that show the typist's paragraph.
type PromptListener interface {
	OnPrompt(paragraphId string, text string)
}

type Journal interface {
	Record(kind string, data string)
}

type nopJournal struct{}

func (nopJournal) Record(kind string, data string) {}

type Button int

const (
	PrimaryButton Button = iota
	SecondaryButton
)

type wordSender interface {
	SendWord(token string) error
}

type treeRequester interface {
	RequestNewRoot(word string) error
	Subscribe(myId string, creatorId string, treeType string) error
}

// Coordinator owns the ticker and the tree and routes edits between them and the two channels.
// It implements control.Handler and treechan.Listener.
type Coordinator struct {
	identity *identity.Identity
	ticker   *ticker.Buffer
	model    *tree.Model
	listener Listener
	journal  Journal

	words wordSender
	trees treeRequester

	readOnly bool
	// set once a delimiter asked for a root, cleared by the next non-delimiter
	delimiterPending bool

	ended     bool
	endReason control.EndReason
}

func NewCoordinator(identity *identity.Identity, delimiter string, listener Listener, j Journal) *Coordinator {
	if j == nil {
		j = nopJournal{}
	}
	return &Coordinator{
		identity: identity,
		ticker:   ticker.NewBuffer(delimiter),
		model:    tree.NewModel(),
		listener: listener,
		journal:  j,
	}
}

func (c *Coordinator) Bind(words wordSender, trees treeRequester) {
	c.words = words
	c.trees = trees
}

func (c *Coordinator) Ticker() *ticker.Buffer {
	return c.ticker
}

func (c *Coordinator) Model() *tree.Model {
	return c.model
}

func (c *Coordinator) ReadOnly() bool {
	return c.readOnly
}

func (c *Coordinator) Ended() (control.EndReason, bool) {
	return c.endReason, c.ended
}

// Keystroke applies a locally typed token. Only the typist's keystrokes go to the peer.
func (c *Coordinator) Keystroke(token ticker.Token) error {
	if c.readOnly {
		return ErrReadOnly
	}
	c.journal.Record(journal.KindKeystroke, token.Encode())
	return c.apply(token, c.identity.Role == identity.Disabled, false)
}

// SelectWord adds the word of a tree node to the ticker as a whole word.
// The peer starts a new word only for tokens longer than one character, so a
// one-letter word ("a", "I") joins the previous word on the peer's ticker.
func (c *Coordinator) SelectWord(id int) error {
	if c.identity.Role != identity.Disabled {
		return ErrNotTypist
	}
	node, ok := c.model.Find(id)
	if !ok {
		return ErrUnknownNode
	}
	c.journal.Record(journal.KindWordSelected, node.Word)
	return c.apply(ticker.Word(node.Word), true, true)
}

// ClickNode handles a click on a visible node. The primary button asks for a tree rooted
// at the node's word; the secondary button toggles the node locally.
func (c *Coordinator) ClickNode(id int, button Button) error {
	node, ok := c.model.Find(id)
	if !ok {
		return ErrUnknownNode
	}
	switch button {
	case SecondaryButton:
		if c.model.Toggle(id) {
			c.listener.OnTreeChanged(c.model.Root())
		}
		return nil
	default:
		return c.requestRoot(node.Word)
	}
}

// RequestRoot asks for a tree rooted at an arbitrary word.
func (c *Coordinator) RequestRoot(word string) error {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil
	}
	return c.requestRoot(word)
}

func (c *Coordinator) apply(token ticker.Token, propagate bool, prependDelimiter bool) error {
	content := c.ticker.Apply(token, prependDelimiter)
	c.listener.OnTickerChanged(content)

	var err error
	if propagate && c.words != nil {
		if err = c.words.SendWord(token.Encode()); err != nil {
			glog.Warningf("[session]send word error = %s\n", err)
		}
	}
	c.detectDelimiter(token)
	return err
}

func (c *Coordinator) detectDelimiter(token ticker.Token) {
	r, size := utf8.DecodeRuneInString(token.Text)
	if token.Backspace || size == 0 || size != len(token.Text) || !ticker.IsDelimiter(r) {
		c.delimiterPending = false
		return
	}
	if c.delimiterPending {
		return
	}
	word, ok := c.ticker.LatestCompleteWord()
	if !ok {
		return
	}
	c.delimiterPending = true
	c.requestRoot(word)
}

func (c *Coordinator) requestRoot(word string) error {
	c.journal.Record(journal.KindRootRequest, word)
	if c.trees == nil {
		return protocol.NewProtocolError("", protocol.ErrNotConnected)
	}
	err := c.trees.RequestNewRoot(word)
	if err != nil {
		glog.Warningf("[session]root request %q error = %s\n", word, err)
	}
	return err
}

func (c *Coordinator) setReadOnly(readOnly bool) {
	if c.readOnly == readOnly {
		return
	}
	c.readOnly = readOnly
	c.listener.OnReadOnlyChanged(readOnly)
}

// control.Handler

func (c *Coordinator) ShowMessage(text string) {
	c.listener.OnMessage(text)
}

func (c *Coordinator) LoggedIn(role identity.Role) {
	// the partner only receives relayed characters
	c.setReadOnly(role == identity.Partner)
}

// AddWord applies a token relayed by the peer. It is never sent back.
// A single character continues the current word; anything longer starts a new one.
func (c *Coordinator) AddWord(token string) {
	t := ticker.ParseToken(token)
	prependDelimiter := !t.Backspace && 1 < utf8.RuneCountInString(token)

	c.journal.Record(journal.KindRelay, token)
	restore := c.readOnly
	c.setReadOnly(false)
	defer c.setReadOnly(restore)
	c.apply(t, false, prependDelimiter)
}

func (c *Coordinator) NewParagraph(paragraph protocol.Paragraph) {
	c.ticker.Clear()
	c.delimiterPending = false
	c.listener.OnTickerChanged("")
	c.journal.Record(journal.KindParagraph, paragraph.Encode())

	var root string
	if paragraph.IsTopic() {
		c.listener.OnMessage(fmt.Sprintf("The next paragraph will loosely be about %s", paragraph.Topic))
		root = paragraph.Topic
	} else {
		if prompt, ok := c.listener.(PromptListener); ok {
			prompt.OnPrompt(paragraph.Id, paragraph.Text)
		} else {
			c.listener.OnMessage(paragraph.Text)
		}
		root = firstWord(paragraph.Text)
	}
	if root != "" {
		c.requestRoot(root)
	}
}

func firstWord(text string) string {
	words := strings.FieldsFunc(text, ticker.IsDelimiter)
	if len(words) == 0 {
		return ""
	}
	return words[0]
}

func (c *Coordinator) SubscribeToTree(creatorId string, treeType string) error {
	if c.trees == nil {
		return protocol.NewProtocolError(protocol.CommandSubscribeToTree, protocol.ErrNotConnected)
	}
	return c.trees.Subscribe(c.identity.SelfId(), creatorId, treeType)
}

func (c *Coordinator) GoodGuess() {
	c.journal.Record(journal.KindGoodGuess, "received")
	c.listener.OnMessage("Good guess, 'disabled' player will type more.")
}

func (c *Coordinator) EndSession(reason control.EndReason) {
	if c.ended {
		return
	}
	c.ended = true
	c.endReason = reason
	c.journal.Record(journal.KindSessionEnd, reason.Kind.String())
	c.listener.OnSessionEnded(reason)
}

// treechan.Listener

func (c *Coordinator) ReplaceTree(snapshot *tree.Snapshot) {
	root := c.model.ReplaceRoot(snapshot)
	c.journal.Record(journal.KindTree, root.Word)
	c.listener.OnTreeChanged(root)
}
