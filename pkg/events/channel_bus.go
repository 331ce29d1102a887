package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// ChannelBus is the in-process bus used when no NATS server is configured.
// Every event goes onto one watermill topic; subscribers filter by subject.
type ChannelBus struct {
	pubSub *gochannel.GoChannel
	topic  string
}

var (
	_ Publisher  = (*ChannelBus)(nil)
	_ Subscriber = (*ChannelBus)(nil)
)

func NewChannelBus(topic string, logger watermill.LoggerAdapter) *ChannelBus {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &ChannelBus{
		pubSub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, logger),
		topic:  topic,
	}
}

func (b *ChannelBus) Publish(ctx context.Context, event Event) error {
	data, err := Encode(event)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("subject", Subject(event))
	return b.pubSub.Publish(b.topic, msg)
}

func (b *ChannelBus) Subscribe(ctx context.Context, pattern, durableName string, handler Handler) error {
	messages, err := b.pubSub.Subscribe(ctx, b.topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			if !MatchSubject(pattern, msg.Metadata.Get("subject")) {
				msg.Ack()
				continue
			}
			event, err := Decode(msg.Payload)
			if err != nil {
				// undecodable payloads would loop forever on Nack
				msg.Ack()
				continue
			}
			if err := handler(msg.Context(), event); err != nil {
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}()
	return nil
}

func (b *ChannelBus) Close() error {
	return b.pubSub.Close()
}
