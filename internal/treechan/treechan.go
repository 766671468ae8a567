package treechan

import (
	"fmt"

	"github.com/golang/glog"

	"echotree/internal/identity"
	"echotree/internal/protocol"
	"echotree/internal/tree"
)

type Sender interface {
	Send(frame string) error
	Close() error
}

// Listener owns the tree model. The client hands it every snapshot that parses.
type Listener interface {
	ReplaceTree(snapshot *tree.Snapshot)
	ShowMessage(text string)
}

// Client is the subscription dialogue with the tree content endpoint.
// Requests carry no correlation id; whichever snapshot arrives last is the tree.
type Client struct {
	identity *identity.Identity
	treeType string
	listener Listener

	sender Sender
	open   bool
	closed bool
	// a subscription asked for before the channel opened
	pendingSubscribe *protocol.TreeRequest
}

func NewClient(identity *identity.Identity, treeType string, listener Listener) *Client {
	return &Client{
		identity: identity,
		treeType: treeType,
		listener: listener,
	}
}

func (c *Client) Connect(sender Sender) {
	c.sender = sender
}

func (c *Client) HandleOpen() {
	glog.Infof("[tree]open\n")
	c.open = true
	if c.pendingSubscribe != nil {
		request := c.pendingSubscribe
		c.pendingSubscribe = nil
		if err := c.send(request); err != nil {
			glog.Warningf("[tree]subscribe error = %s\n", err)
		}
	}
}

func (c *Client) Open() bool {
	return c.open
}

func (c *Client) HandleError(err error) {
	glog.Infof("[tree]transport error = %s\n", err)
	c.listener.ShowMessage(fmt.Sprintf("Tree connection error: %s", err))
}

// HandleClose stops further tree updates. The session continues.
func (c *Client) HandleClose(err error) {
	wasOpen := c.open
	c.open = false
	if c.closed {
		return
	}
	c.closed = true
	glog.Infof("[tree]closed (%v)\n", err)
	if wasOpen {
		c.listener.ShowMessage("The word tree connection was lost. The tree will no longer update.")
	}
}

func (c *Client) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.open = false
	if c.sender != nil {
		c.sender.Close()
	}
}

// RequestNewRoot asks for a tree rooted at word. Fire and forget.
func (c *Client) RequestNewRoot(word string) error {
	submitter := c.identity.SelfId()
	if submitter == "" {
		submitter = c.identity.ConfiguredSelfId
	}
	return c.send(protocol.NewRootWordRequest(submitter, word, c.treeType))
}

// Subscribe asks the server to push the trees of creatorId to myId.
// Before the channel opens the latest subscription is held and sent on open.
func (c *Client) Subscribe(myId string, creatorId string, treeType string) error {
	if treeType == "" {
		treeType = c.treeType
	}
	request := protocol.NewSubscribeRequest(myId, creatorId, treeType)
	if !c.open && !c.closed && c.sender != nil {
		c.pendingSubscribe = request
		return nil
	}
	return c.send(request)
}

func (c *Client) send(request *protocol.TreeRequest) error {
	if !c.open || c.sender == nil {
		return protocol.NewProtocolError(protocol.Command(request.Command), protocol.ErrNotConnected)
	}
	frame, err := request.Encode()
	if err != nil {
		return err
	}
	glog.V(2).Infof("[tree]-> %s\n", frame)
	if err := c.sender.Send(frame); err != nil {
		return &protocol.TransportError{
			Channel: "tree",
			Err:     err,
		}
	}
	return nil
}

// HandleFrame installs a snapshot. A frame that does not parse is dropped and the
// current tree stays.
func (c *Client) HandleFrame(raw string) error {
	if raw == "" {
		glog.V(2).Infof("[tree]drop empty frame\n")
		return nil
	}
	snapshot, err := tree.ParseSnapshot([]byte(raw))
	if err != nil {
		perr := &protocol.ParseError{Err: err}
		glog.Warningf("[tree]drop snapshot: %s\n", perr)
		return perr
	}
	glog.V(2).Infof("[tree]<- snapshot %q\n", snapshot.Word)
	c.listener.ReplaceTree(snapshot)
	return nil
}
