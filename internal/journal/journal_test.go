package journal

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/go-playground/assert/v2"
)

type memorySink struct {
	mu     sync.Mutex
	events []*Event
	closed bool
}

func (s *memorySink) Write(ctx context.Context, events []*Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	return nil
}

func (s *memorySink) Close() error {
	s.closed = true
	return nil
}

func TestRecorderWritesInOrder(t *testing.T) {
	sink := &memorySink{}
	r := NewRecorder(context.Background(), "s1", sink)
	r.SetParticipant("disabledRole", "a@x")
	r.Record(KindKeystroke, "c")
	r.Record(KindKeystroke, "a")
	r.Record(KindRootRequest, "ca")
	r.Close()

	assert.Equal(t, sink.closed, true)
	assert.Equal(t, len(sink.events), 3)
	assert.Equal(t, sink.events[2].Kind, KindRootRequest)
	assert.Equal(t, sink.events[0].SessionId, "s1")
	assert.Equal(t, sink.events[0].Participant, "a@x")
	// ulids sort by creation time
	assert.Equal(t, sink.events[0].Id < sink.events[2].Id, true)

	// closing twice is fine
	r.Close()
}

func TestEventEncode(t *testing.T) {
	e := &Event{Id: "01H", SessionId: "s1", Kind: KindRelay, Role: "partnerRole", Participant: "b@x", Data: "x"}
	b, err := e.Encode()
	assert.Equal(t, err, nil)
	var decoded map[string]any
	assert.Equal(t, json.Unmarshal(b, &decoded), nil)
	assert.Equal(t, decoded["kind"], "relay")
	assert.Equal(t, decoded["sessionId"], "s1")

	parsed, err := ParseEvent(b)
	assert.Equal(t, err, nil)
	assert.Equal(t, parsed.Participant, "b@x")

	_, err = ParseEvent([]byte("{"))
	assert.NotEqual(t, err, nil)
}

func TestSessionChannel(t *testing.T) {
	assert.Equal(t, SessionChannel("abc"), "echotree:session:abc")
	assert.NotEqual(t, NewSessionId(), NewSessionId())
}
