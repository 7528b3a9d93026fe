package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	mu      sync.Mutex
	queue   []kafka.Message
	commits []int64
	closed  bool
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if len(f.queue) > 0 {
		m := f.queue[0]
		f.queue = f.queue[1:]
		f.mu.Unlock()
		return m, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.commits = append(f.commits, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeReader) committed() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.commits...)
}

func testConsumer(r reader, workers int) *Consumer {
	return &Consumer{r: r, workers: workers, log: quietLogger(), backoff: time.Millisecond, maxBackoff: 5 * time.Millisecond}
}

func TestConsumer_FailedMessageIsRetriedBeforeLaterOffsets(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{
		{Partition: 0, Offset: 10},
		{Partition: 0, Offset: 11},
		{Partition: 0, Offset: 12},
	}}
	c := testConsumer(r, 4)

	var mu sync.Mutex
	var seen []int64
	failures := 0
	h := func(_ context.Context, m kafka.Message) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, m.Offset)
		if m.Offset == 10 && failures < 3 {
			failures++
			return errors.New("db unavailable")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx, h) }()

	require.Eventually(t, func() bool { return len(r.committed()) == 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []int64{10, 11, 12}, r.committed())
	mu.Lock()
	assert.Equal(t, []int64{10, 10, 10, 10, 11, 12}, seen)
	mu.Unlock()
	assert.True(t, r.closed)
}

func TestConsumer_NoCommitWhileHandlerKeepsFailing(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{{Partition: 0, Offset: 1}, {Partition: 0, Offset: 2}}}
	c := testConsumer(r, 2)

	var mu sync.Mutex
	calls := map[int64]int{}
	h := func(_ context.Context, m kafka.Message) error {
		mu.Lock()
		defer mu.Unlock()
		calls[m.Offset]++
		if m.Offset == 1 {
			return errors.New("still down")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx, h) }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls[1] >= 3
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Empty(t, r.committed(), "offset 2 must not be committed past the failing offset 1")
	mu.Lock()
	assert.Zero(t, calls[2])
	mu.Unlock()
}

func TestConsumer_PartitionsProceedIndependently(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{{Partition: 0, Offset: 5}, {Partition: 1, Offset: 7}}}
	c := testConsumer(r, 2)

	h := func(_ context.Context, m kafka.Message) error {
		if m.Partition == 0 {
			return errors.New("stuck")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx, h) }()

	require.Eventually(t, func() bool { return len(r.committed()) == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, []int64{7}, r.committed())
}
