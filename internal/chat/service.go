package chat

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-chat-orders/internal/session"
	"github.com/sirupsen/logrus"
)

// Service runs the controller with per-session exclusivity: messages of one
// session are handled one at a time, in arrival order.
type Service struct {
	controller *Controller
	store      session.Store
	locker     *session.Locker
	log        *logrus.Logger
}

func NewService(c *Controller, store session.Store, locker *session.Locker, log *logrus.Logger) *Service {
	return &Service{controller: c, store: store, locker: locker, log: log}
}

func (s *Service) Message(ctx context.Context, sessionID, message string) (Reply, error) {
	unlock := s.locker.Lock(sessionID)
	defer unlock()

	st, err := s.store.Get(ctx, sessionID)
	if errors.Is(err, session.ErrCorruptState) {
		s.log.WithError(err).WithField("session", sessionID).Warn("resetting corrupt session")
		st, err = session.New(), nil
	}
	if err != nil {
		return Reply{}, err
	}

	next, reply := s.controller.Handle(ctx, sessionID, st, message)
	if err := s.store.Put(ctx, sessionID, next); err != nil {
		return Reply{}, err
	}
	return reply, nil
}
