package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Publisher is what domain code needs from the event bus.
type Publisher interface {
	Publish(topic string, key, value []byte, headers ...kafka.Header)
}

// Producer buffers messages in memory and writes them from one goroutine.
// The topic travels with each message so one writer serves every topic.
type Producer struct {
	w       *kafka.Writer
	log     *logrus.Logger
	mu      sync.RWMutex
	closed  bool
	inbox   chan kafka.Message
	closeCh chan struct{}
}

func NewProducer(brokers []string, buf int, log *logrus.Logger) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		log:     log,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

// Start runs the write loop until Close is called; remaining messages are flushed.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for m := range p.inbox {
			wctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			if ctx.Err() != nil {
				// shutting down: still try to flush with a fresh deadline
				wctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
			}
			if err := p.w.WriteMessages(wctx, m); err != nil {
				p.log.WithError(err).WithField("topic", m.Topic).Error("kafka write failed")
			}
			cancel()
		}
		if err := p.w.Close(); err != nil {
			p.log.WithError(err).Warn("kafka writer close")
		}
	}()
}

func (p *Producer) Publish(topic string, key, value []byte, headers ...kafka.Header) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.log.WithField("topic", topic).Warn("publish after close dropped")
		return
	}
	p.inbox <- kafka.Message{
		Topic:   topic,
		Key:     key,
		Value:   value,
		Time:    time.Now(),
		Headers: headers,
	}
}

// Close stops accepting messages; the loop flushes what is buffered and exits.
func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.inbox)
}

// WaitClosed blocks until the write loop is done.
func (p *Producer) WaitClosed() { <-p.closeCh }

// Discard drops every event. Used when no brokers are configured.
type Discard struct{}

func (Discard) Publish(string, []byte, []byte, ...kafka.Header) {}
