package chat

import (
	"context"
	"testing"
	"time"

	"github.com/ariefcatur/go-chat-orders/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_SerializesPerSession(t *testing.T) {
	h := newHarness(t)
	h.send(t, "a", "2", "1", "Now")

	h.gw.entered = make(chan struct{}, 1)
	h.gw.release = make(chan struct{})

	checkoutDone := make(chan Reply, 1)
	go func() {
		r, err := h.svc.Message(context.Background(), "a", "99")
		assert.NoError(t, err)
		checkoutDone <- r
	}()
	<-h.gw.entered

	// another session is not blocked by a's gateway call
	r := h.send(t, "b", "1")
	assert.Contains(t, r.Text, "Please select an item")

	secondDone := make(chan Reply, 1)
	go func() {
		r, err := h.svc.Message(context.Background(), "a", "97")
		assert.NoError(t, err)
		secondDone <- r
	}()

	select {
	case <-secondDone:
		t.Fatal("second message of session a ran before the first finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(h.gw.release)
	first := <-checkoutDone
	second := <-secondDone
	assert.NotEmpty(t, first.PaymentURL)
	assert.Contains(t, second.Text, "Current Order:")
}

type corruptStore struct{ *session.MemoryStore }

func (c corruptStore) Get(ctx context.Context, id string) (session.State, error) {
	return session.State{}, session.ErrCorruptState
}

func TestService_CorruptStateStartsFresh(t *testing.T) {
	h := newHarness(t)
	mem := session.NewMemoryStore(time.Hour)
	svc := NewService(h.ctrl, corruptStore{mem}, session.NewLocker(), quietLogger())

	r, err := svc.Message(context.Background(), "s1", "1")
	require.NoError(t, err)
	assert.Contains(t, r.Text, "Please select an item")
}
