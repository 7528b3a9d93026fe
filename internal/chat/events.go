package chat

import (
	kafkax "github.com/ariefcatur/go-chat-orders/internal/kafka"
	"github.com/ariefcatur/go-chat-orders/internal/orders"
	kafkago "github.com/segmentio/kafka-go"
)

type emitter struct {
	pub      kafkax.Publisher
	producer string
}

func (e emitter) emit(topic, eventType, sessionID, reference string, payload any) {
	if e.pub == nil {
		return
	}
	ev := orders.NewEnvelope(eventType, e.producer, reference, payload)
	e.pub.Publish(topic, orders.PartitionKey(sessionID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
