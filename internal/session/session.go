package session

import (
	"context"

	"github.com/golang/glog"

	"echotree/internal/config"
	"echotree/internal/control"
	"echotree/internal/identity"
	"echotree/internal/journal"
	"echotree/internal/protocol"
	"echotree/internal/ticker"
	"echotree/internal/transport"
	"echotree/internal/treechan"
)

const InputBufferSize = 64

// Session runs one participant's session. Everything that touches the ticker, the tree,
// the identity or the channel clients runs on the loop goroutine started by Run.
// The public input methods post closures onto that loop.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc

	config   *config.Config
	settings *transport.Settings
	identity *identity.Identity

	coordinator *Coordinator
	control     *control.Client
	trees       *treechan.Client
	journal     *journal.Recorder

	inputs chan func()
}

func NewWithDefaults(ctx context.Context, cfg *config.Config, listener Listener, recorder *journal.Recorder) *Session {
	return New(ctx, cfg, listener, recorder, transport.DefaultSettings())
}

func New(
	ctx context.Context,
	cfg *config.Config,
	listener Listener,
	recorder *journal.Recorder,
	settings *transport.Settings,
) *Session {
	cancelCtx, cancel := context.WithCancel(ctx)
	id := identity.New(cfg.Role, cfg.SelfId, cfg.PeerId)

	var j Journal
	if recorder != nil {
		recorder.SetParticipant(cfg.Role.String(), cfg.SelfId)
		j = recorder
	}
	coordinator := NewCoordinator(id, cfg.WordDelimiter, listener, j)
	controlClient := control.NewClient(id, protocol.NewCodec(cfg.Separator), coordinator, cfg.EntryUrl)
	treeClient := treechan.NewClient(id, cfg.TreeType, coordinator)
	coordinator.Bind(controlClient, treeClient)

	return &Session{
		ctx:         cancelCtx,
		cancel:      cancel,
		config:      cfg,
		settings:    settings,
		identity:    id,
		coordinator: coordinator,
		control:     controlClient,
		trees:       treeClient,
		journal:     recorder,
		inputs:      make(chan func(), InputBufferSize),
	}
}

// Identity is only safe to read after Run returned.
func (s *Session) Identity() *identity.Identity {
	return s.identity
}

// Run connects both channels and processes events until the control channel is done.
func (s *Session) Run() (control.EndReason, error) {
	defer s.cancel()

	controlConn := transport.Connect(s.ctx, "control", s.config.ControlUrl, s.settings)
	treeConn := transport.Connect(s.ctx, "tree", s.config.TreeUrl, s.settings)
	defer treeConn.Close()
	s.control.Connect(controlConn)
	s.trees.Connect(treeConn)

	controlEvents := controlConn.Events()
	treeEvents := treeConn.Events()

	for controlEvents != nil {
		select {
		case <-s.ctx.Done():
			controlConn.Close()
			return control.EndReason{}, s.ctx.Err()
		case input := <-s.inputs:
			input()
		case event := <-controlEvents:
			s.handleControlEvent(event)
			if event.Kind == transport.EventClosed {
				controlEvents = nil
			}
		case event := <-treeEvents:
			s.handleTreeEvent(event)
			if event.Kind == transport.EventClosed {
				treeEvents = nil
			}
		}
	}

	s.trees.Close()
	if reason, ok := s.coordinator.Ended(); ok {
		return reason, nil
	}
	reason := control.EndReason{
		Kind:    control.EndLocal,
		Message: "Session closed.",
	}
	s.coordinator.EndSession(reason)
	return reason, nil
}

func (s *Session) handleControlEvent(event transport.Event) {
	switch event.Kind {
	case transport.EventOpen:
		s.control.HandleOpen()
	case transport.EventMessage:
		s.control.HandleFrame(event.Data)
	case transport.EventError:
		s.control.HandleError(event.Err)
	case transport.EventClosed:
		s.control.HandleClose(event.Err)
	}
}

func (s *Session) handleTreeEvent(event transport.Event) {
	switch event.Kind {
	case transport.EventOpen:
		s.trees.HandleOpen()
	case transport.EventMessage:
		s.trees.HandleFrame(event.Data)
	case transport.EventError:
		s.trees.HandleError(event.Err)
	case transport.EventClosed:
		s.trees.HandleClose(event.Err)
	}
}

func (s *Session) post(input func()) {
	select {
	case s.inputs <- input:
	case <-s.ctx.Done():
	}
}

// Type applies a decoded key from the local participant.
func (s *Session) Type(token ticker.Token) {
	s.post(func() {
		if err := s.coordinator.Keystroke(token); err != nil {
			glog.V(2).Infof("[session]keystroke %q: %s\n", token.Encode(), err)
		}
	})
}

func (s *Session) Click(nodeId int, button Button) {
	s.post(func() {
		s.coordinator.ClickNode(nodeId, button)
	})
}

func (s *Session) SelectWord(nodeId int) {
	s.post(func() {
		if err := s.coordinator.SelectWord(nodeId); err != nil {
			glog.V(2).Infof("[session]select word: %s\n", err)
		}
	})
}

func (s *Session) RequestRoot(word string) {
	s.post(func() {
		s.coordinator.RequestRoot(word)
	})
}

func (s *Session) GoodGuess() {
	s.post(func() {
		if err := s.control.SendGoodGuess(); err != nil {
			glog.Warningf("[session]good guess: %s\n", err)
			return
		}
		if s.journal != nil {
			s.journal.Record(journal.KindGoodGuess, "sent")
		}
	})
}

func (s *Session) ParagraphDone() {
	s.post(func() {
		id, _ := s.identity.Paragraph()
		if err := s.control.SendParagraphDone(); err != nil {
			glog.Warningf("[session]paragraph done: %s\n", err)
			return
		}
		if s.journal != nil {
			s.journal.Record(journal.KindParagraphDone, id)
		}
	})
}

// Close ends the session from the participant's side.
func (s *Session) Close() {
	s.post(func() {
		s.control.Close()
	})
}
