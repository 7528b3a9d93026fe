package archive

import (
	"context"
	"encoding/json"
	"fmt"

	kafkax "github.com/ariefcatur/go-chat-orders/internal/kafka"
	"github.com/ariefcatur/go-chat-orders/internal/orders"
	"github.com/ariefcatur/go-chat-orders/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type Repo interface {
	Archive(ctx context.Context, p orders.OrderPaidPayload) (int, error)
}

// Service copies paid orders into the durable history table.
type Service struct {
	Repo Repo
	// Redis is an optional dedup shortcut; the table itself is idempotent.
	Redis       *redis.Client
	ServiceName string
	Log         *logrus.Logger
}

// HandleOrderPaid is installed as the order.paid consumer handler.
func (s *Service) HandleOrderPaid(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// poison message: log and commit so the partition keeps moving
		s.Log.WithError(err).WithField("offset", m.Offset).Error("undecodable event")
		return nil
	}
	if env.EventType != orders.EventOrderPaid {
		return nil
	}
	log := s.Log.WithFields(logrus.Fields{"event_id": env.EventID, "reference": env.CorrelationID})

	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	if s.Redis != nil {
		if seen, _ := redisx.Exists(ctx, s.Redis, dkey); seen {
			log.Debug("duplicate event skipped")
			return nil
		}
	}

	p, err := kafkax.UnwrapPayload[orders.OrderPaidPayload](env.Payload)
	if err != nil {
		log.WithError(err).Error("undecodable payload")
		return nil
	}

	n, err := s.Repo.Archive(ctx, p)
	if err != nil {
		return fmt.Errorf("archive %s: %w", p.Reference, err)
	}
	log.WithFields(logrus.Fields{"session": p.SessionID, "lines": n}).Info("order archived")

	if s.Redis != nil {
		if _, err := redisx.MarkOnce(ctx, s.Redis, dkey, redisx.TTLDedup); err != nil {
			log.WithError(err).Warn("dedup mark failed")
		}
	}
	return nil
}
