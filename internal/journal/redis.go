package journal

import (
	"context"
	"fmt"

	"github.com/golang/glog"
	"github.com/redis/go-redis/v9"
)

// RedisSink publishes every event on the session's pub/sub channel,
// so an experimenter can watch a dyad live.
type RedisSink struct {
	client  *redis.Client
	channel string
}

func SessionChannel(sessionId string) string {
	return fmt.Sprintf("echotree:session:%s", sessionId)
}

func NewRedisSink(ctx context.Context, addr string, sessionId string) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, err
	}
	return &RedisSink{
		client:  client,
		channel: SessionChannel(sessionId),
	}, nil
}

func (s *RedisSink) Write(ctx context.Context, events []*Event) error {
	pipe := s.client.Pipeline()
	for _, event := range events {
		payload, err := event.Encode()
		if err != nil {
			return err
		}
		pipe.Publish(ctx, s.channel, payload)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}

// Watch calls handle for every event published on the session channel until ctx is done.
func Watch(ctx context.Context, addr string, sessionId string, handle func(event *Event)) error {
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	pubsub := client.Subscribe(ctx, SessionChannel(sessionId))
	defer pubsub.Close()
	// wait for the subscription so no event published after Watch returns is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case message, ok := <-messages:
			if !ok {
				return nil
			}
			event, err := ParseEvent([]byte(message.Payload))
			if err != nil {
				glog.Warningf("[journal]drop message on %s: %s\n", message.Channel, err)
				continue
			}
			handle(event)
		}
	}
}
