package chat

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-chat-orders/internal/menu"
	"github.com/ariefcatur/go-chat-orders/internal/payment"
	"github.com/ariefcatur/go-chat-orders/internal/session"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu          sync.Mutex
	initCalls   []payment.InitializeRequest
	verifyCalls []string
	initErr     error
	verify      payment.Verification
	verifyErr   error
	// when set, Initialize signals entered and waits for release
	entered chan struct{}
	release chan struct{}
}

func (f *fakeGateway) Initialize(_ context.Context, req payment.InitializeRequest) (payment.Initialized, error) {
	f.mu.Lock()
	f.initCalls = append(f.initCalls, req)
	err := f.initErr
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	if err != nil {
		return payment.Initialized{}, err
	}
	return payment.Initialized{
		RedirectURL: "https://checkout.paystack.com/" + req.Reference,
		Reference:   req.Reference,
	}, nil
}

func (f *fakeGateway) Verify(_ context.Context, reference string) (payment.Verification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyCalls = append(f.verifyCalls, reference)
	if f.verifyErr != nil {
		return payment.Verification{}, f.verifyErr
	}
	v := f.verify
	v.Reference = reference
	return v, nil
}

func (f *fakeGateway) initCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.initCalls)
}

type published struct {
	topic string
	key   string
	value []byte
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(topic string, key, value []byte, _ ...kafkago.Header) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{topic: topic, key: string(key), value: value})
}

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.topic)
	}
	return out
}

type harness struct {
	gw        *fakeGateway
	pub       *recordingPublisher
	store     *session.MemoryStore
	pending   *payment.MemoryPendingStore
	locker    *session.Locker
	ctrl      *Controller
	svc       *Service
	callbacks *Callbacks
	refs      int
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		gw:      &fakeGateway{verify: payment.Verification{Status: payment.StatusSuccess}},
		pub:     &recordingPublisher{},
		store:   session.NewMemoryStore(time.Hour),
		pending: payment.NewMemoryPendingStore(time.Hour),
		locker:  session.NewLocker(),
	}
	log := quietLogger()
	h.ctrl = NewController(menu.Default(), h.gw, h.pending, h.pub, Options{
		ServiceName: "chat-api",
		CallbackURL: "http://localhost:8081/payment-callback",
	}, log)
	h.ctrl.newRef = func() string {
		h.refs++
		return "ref-" + string(rune('0'+h.refs))
	}
	h.svc = NewService(h.ctrl, h.store, h.locker, log)
	h.callbacks = NewCallbacks(h.store, h.locker, h.gw, h.pending, h.pub, "chat-api", log)
	return h
}

// send pushes messages through the service and returns the last reply.
func (h *harness) send(t *testing.T, sessionID string, msgs ...string) Reply {
	t.Helper()
	var r Reply
	for _, m := range msgs {
		var err error
		r, err = h.svc.Message(context.Background(), sessionID, m)
		require.NoError(t, err)
	}
	return r
}

func (h *harness) state(t *testing.T, sessionID string) session.State {
	t.Helper()
	st, err := h.store.Get(context.Background(), sessionID)
	require.NoError(t, err)
	return st
}
