package journal

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const DefaultQueueSize = 1024

// event kinds
const (
	KindKeystroke     = "keystroke"
	KindRelay         = "relay"
	KindWordSelected  = "word_selected"
	KindRootRequest   = "root_request"
	KindTree          = "tree"
	KindParagraph     = "paragraph"
	KindGoodGuess     = "good_guess"
	KindParagraphDone = "paragraph_done"
	KindSessionEnd    = "session_end"
)

// Event is one entry of the experiment journal.
// Ids are ulids so events from one session sort by creation time.
type Event struct {
	Id          string    `json:"id"`
	SessionId   string    `json:"sessionId"`
	Time        time.Time `json:"time"`
	Kind        string    `json:"kind"`
	Role        string    `json:"role"`
	Participant string    `json:"participant"`
	Data        string    `json:"data,omitempty"`
}

func (e *Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

func ParseEvent(data []byte) (*Event, error) {
	e := &Event{}
	if err := json.Unmarshal(data, e); err != nil {
		return nil, err
	}
	return e, nil
}

type Sink interface {
	Write(ctx context.Context, events []*Event) error
	Close() error
}

// Recorder queues events and writes them to its sinks from its own goroutine,
// so recording never blocks the session loop. When the queue is full events are dropped.
type Recorder struct {
	ctx    context.Context
	cancel context.CancelFunc

	sessionId   string
	role        string
	participant string

	sinks []Sink
	queue chan *Event

	closeOnce sync.Once
	done      chan struct{}
}

func NewSessionId() string {
	return uuid.NewString()
}

func NewRecorder(ctx context.Context, sessionId string, sinks ...Sink) *Recorder {
	cancelCtx, cancel := context.WithCancel(ctx)
	r := &Recorder{
		ctx:       cancelCtx,
		cancel:    cancel,
		sessionId: sessionId,
		sinks:     sinks,
		queue:     make(chan *Event, DefaultQueueSize),
		done:      make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Recorder) SessionId() string {
	return r.sessionId
}

// SetParticipant stamps later events with the role and participant id.
func (r *Recorder) SetParticipant(role string, participant string) {
	r.role = role
	r.participant = participant
}

func (r *Recorder) Record(kind string, data string) {
	event := &Event{
		Id:          ulid.Make().String(),
		SessionId:   r.sessionId,
		Time:        time.Now(),
		Kind:        kind,
		Role:        r.role,
		Participant: r.participant,
		Data:        data,
	}
	select {
	case r.queue <- event:
	default:
		glog.Warningf("[journal]drop %s event, queue full\n", kind)
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for {
		select {
		case <-r.ctx.Done():
			r.flush(r.drain(nil))
			return
		case event := <-r.queue:
			r.flush(r.drain([]*Event{event}))
		}
	}
}

func (r *Recorder) drain(events []*Event) []*Event {
	for {
		select {
		case event := <-r.queue:
			events = append(events, event)
		default:
			return events
		}
	}
}

func (r *Recorder) flush(events []*Event) {
	if len(events) == 0 {
		return
	}
	// sinks get their own deadline so a flush during shutdown still completes
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, sink := range r.sinks {
		if err := sink.Write(ctx, events); err != nil {
			glog.Errorf("[journal]write %d events error = %s\n", len(events), err)
		}
	}
}

// Close writes what is queued and closes the sinks.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		r.cancel()
		<-r.done
		for _, sink := range r.sinks {
			if err := sink.Close(); err != nil {
				glog.Errorf("[journal]close error = %s\n", err)
			}
		}
	})
}
