package control

import (
	"fmt"

	"github.com/golang/glog"

	"echotree/internal/identity"
	"echotree/internal/protocol"
)

const ReconnectPrompt = "The connection to the experiment server was lost. Please log in again from the start page."

type State int

const (
	Disconnected State = iota
	Connecting
	AwaitingLogin
	Active
	Closing
	Closed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case AwaitingLogin:
		return "awaiting login"
	case Active:
		return "active"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type EndKind int

const (
	// the server handed the participants a new assignment
	EndAssignment EndKind = iota
	// the server asked the client to close
	EndRequested
	// the transport closed without being asked to
	EndTransportClosed
	// the participant closed the session
	EndLocal
)

func (k EndKind) String() string {
	switch k {
	case EndAssignment:
		return "assignment"
	case EndRequested:
		return "requested"
	case EndLocal:
		return "local"
	default:
		return "transport closed"
	}
}

type EndReason struct {
	Kind    EndKind
	Message string
	// where the navigation collaborator should go next
	NextUrl string
}

// Sender is the outbound half of a transport.
type Sender interface {
	Send(frame string) error
	Close() error
}

// Handler receives the commands that act outside the control channel.
type Handler interface {
	ShowMessage(text string)
	LoggedIn(role identity.Role)
	AddWord(token string)
	NewParagraph(paragraph protocol.Paragraph)
	SubscribeToTree(creatorId string, treeType string) error
	GoodGuess()
	EndSession(reason EndReason)
}

// Client is the command dialogue with the experiment control endpoint.
// The server drives the handshake: after the transport opens the client waits for
// sendLogin, answers with login, and only then accepts session commands.
type Client struct {
	identity *identity.Identity
	codec    protocol.Codec
	handler  Handler
	entryUrl string

	sender Sender
	state  State
}

func NewClient(identity *identity.Identity, codec protocol.Codec, handler Handler, entryUrl string) *Client {
	return &Client{
		identity: identity,
		codec:    codec,
		handler:  handler,
		entryUrl: entryUrl,
		state:    Disconnected,
	}
}

func (c *Client) State() State {
	return c.state
}

// Connect records the transport that is being dialed.
func (c *Client) Connect(sender Sender) {
	c.sender = sender
	c.state = Connecting
}

func (c *Client) HandleOpen() {
	if c.state != Connecting {
		glog.Warningf("[control]open in state %s\n", c.state)
		return
	}
	glog.Infof("[control]open, awaiting login prompt\n")
	c.state = AwaitingLogin
}

// HandleError surfaces a transport error. Only a close ends the session.
func (c *Client) HandleError(err error) {
	glog.Infof("[control]transport error = %s\n", err)
	c.handler.ShowMessage(fmt.Sprintf("Connection error: %s", err))
}

// HandleClose finishes a requested close, or ends the session when the close was not asked for.
func (c *Client) HandleClose(err error) {
	switch c.state {
	case Closing, Closed:
		c.state = Closed
		return
	}
	glog.Infof("[control]closed unexpectedly in state %s (%v)\n", c.state, err)
	c.state = Closed
	c.handler.ShowMessage(ReconnectPrompt)
	c.handler.EndSession(EndReason{
		Kind:    EndTransportClosed,
		Message: ReconnectPrompt,
		NextUrl: c.entryUrl,
	})
}

// Close closes the channel from the client side. The following transport close is expected.
func (c *Client) Close() {
	switch c.state {
	case Closing, Closed:
		return
	}
	c.state = Closing
	if c.sender != nil {
		if err := c.sender.Close(); err != nil {
			glog.Infof("[control]close error = %s\n", err)
		}
	}
}

// HandleFrame dispatches one inbound frame. Errors are logged and returned; the frame is dropped
// and the state is unchanged.
func (c *Client) HandleFrame(raw string) error {
	err := c.handleFrame(raw)
	if err != nil {
		glog.Warningf("[control]drop %q: %s\n", raw, err)
	}
	return err
}

func (c *Client) handleFrame(raw string) error {
	frame, err := c.codec.Decode(raw)
	if err != nil {
		return err
	}
	glog.V(2).Infof("[control]<- %s\n", frame.Command)

	// checked before the state so an early subscription reports the missing identity
	if frame.Command == protocol.CommandSubscribeToTree && !c.identity.Known() {
		return protocol.NewProtocolError(frame.Command, protocol.ErrIdentityNotYetKnown)
	}

	switch frame.Command {
	case protocol.CommandSendLogin:
		if c.state != AwaitingLogin {
			return protocol.NewProtocolError(frame.Command, protocol.ErrOutOfOrder)
		}
		return c.login()
	case protocol.CommandTest, protocol.CommandShowMsg, protocol.CommandPleaseClose:
		if c.state != AwaitingLogin && c.state != Active {
			return protocol.NewProtocolError(frame.Command, protocol.ErrOutOfOrder)
		}
	default:
		if c.state != Active {
			return protocol.NewProtocolError(frame.Command, protocol.ErrOutOfOrder)
		}
	}

	switch frame.Command {
	case protocol.CommandTest:
		return c.send(protocol.NewFrame(protocol.CommandTest, c.identity.Role.String()+" got it."))
	case protocol.CommandShowMsg:
		if frame.Payload == "" {
			return protocol.NewProtocolError(frame.Command, protocol.ErrMissingArgument)
		}
		c.handler.ShowMessage(frame.Payload)
	case protocol.CommandWaitForPlayer:
		if frame.Payload == "" {
			return protocol.NewProtocolError(frame.Command, protocol.ErrMissingArgument)
		}
		c.handler.ShowMessage(fmt.Sprintf("Waiting for player %s", frame.Payload))
	case protocol.CommandDyadComplete:
		c.handler.ShowMessage("You are both online. Ready to go?")
	case protocol.CommandSubscribeToTree:
		fields := frame.Fields(c.codec.Separator, 2)
		if len(fields) < 2 || fields[0] == "" || fields[1] == "" {
			return protocol.NewProtocolError(frame.Command, protocol.ErrMissingArgument)
		}
		return c.handler.SubscribeToTree(fields[0], fields[1])
	case protocol.CommandAddWord:
		if frame.Payload == "" {
			return protocol.NewProtocolError(frame.Command, protocol.ErrMissingArgument)
		}
		c.handler.AddWord(frame.Payload)
	case protocol.CommandNewPar:
		paragraph, err := protocol.ParseParagraph(frame.Payload)
		if err != nil {
			return protocol.NewProtocolError(frame.Command, err)
		}
		if paragraph.IsTopic() {
			c.identity.ClearParagraph()
		} else {
			c.identity.SetParagraph(paragraph.Id)
		}
		c.handler.NewParagraph(paragraph)
	case protocol.CommandGoodGuessClicked:
		c.handler.GoodGuess()
	case protocol.CommandDone:
		c.handler.ShowMessage("All done. Thank you!")
	case protocol.CommandNewAssignment:
		assignment, err := protocol.ParseAssignment(frame.Payload)
		if err != nil {
			return protocol.NewProtocolError(frame.Command, err)
		}
		c.identity.Reassign(assignment.SelfId, assignment.PeerId)
		if assignment.Instructions != "" {
			c.handler.ShowMessage(assignment.Instructions)
		}
		c.Close()
		c.handler.EndSession(EndReason{
			Kind:    EndAssignment,
			Message: assignment.Instructions,
			NextUrl: assignment.NextUrl,
		})
	case protocol.CommandPleaseClose:
		c.Close()
		c.handler.EndSession(EndReason{
			Kind:    EndRequested,
			Message: frame.Payload,
			NextUrl: c.entryUrl,
		})
	default:
		glog.V(2).Infof("[control]ignore unknown command %s\n", frame.Command)
	}
	return nil
}

func (c *Client) login() error {
	disabledId, partnerId := c.identity.LoginIds()
	if disabledId == "" || partnerId == "" {
		return protocol.NewProtocolError(protocol.CommandSendLogin, protocol.ErrMissingIdentity)
	}
	payload := protocol.LoginPayload{
		Role:       c.identity.Role.String(),
		DisabledId: disabledId,
		PartnerId:  partnerId,
	}
	if err := c.send(protocol.NewFrame(protocol.CommandLogin, payload.Encode())); err != nil {
		return err
	}
	c.identity.Establish()
	c.state = Active
	glog.Infof("[control]logged in as %s (%s)\n", c.identity.SelfId(), c.identity.Role)
	c.handler.LoggedIn(c.identity.Role)
	return nil
}

// SendWord relays a character, a backspace token, or a whole word to the peer.
func (c *Client) SendWord(token string) error {
	return c.sendActive(protocol.NewFrame(protocol.CommandAddWord, token))
}

func (c *Client) SendGoodGuess() error {
	return c.sendActive(protocol.NewFrame(protocol.CommandGoodGuessClicked, ""))
}

// SendParagraphDone reports the current paragraph, or -1 to ask for the first one.
func (c *Client) SendParagraphDone() error {
	id, ok := c.identity.Paragraph()
	if !ok {
		id = "-1"
	}
	return c.sendActive(protocol.NewFrame(protocol.CommandParDone, id))
}

func (c *Client) sendActive(frame protocol.Frame) error {
	if c.state != Active {
		return protocol.NewProtocolError(frame.Command, protocol.ErrNotConnected)
	}
	return c.send(frame)
}

func (c *Client) send(frame protocol.Frame) error {
	if c.sender == nil {
		return protocol.NewProtocolError(frame.Command, protocol.ErrNotConnected)
	}
	glog.V(2).Infof("[control]-> %s\n", frame.Command)
	if err := c.sender.Send(c.codec.Encode(frame)); err != nil {
		return &protocol.TransportError{
			Channel: "control",
			Err:     err,
		}
	}
	return nil
}
