package async

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProcessor struct {
	mu   sync.Mutex
	seen []uuid.UUID
	fail bool
}

func (p *recordingProcessor) Process(ctx context.Context, job Job) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("missing deadline")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, job.RecordID)
	if p.fail {
		return errors.New("boom")
	}
	return nil
}

func TestProcessorQueue(t *testing.T) {
	t.Run("Should process every job before shutdown returns", func(t *testing.T) {
		proc := &recordingProcessor{}
		q := NewProcessorQueue(proc, nil, WithWorkers(3), WithQueueSize(2), WithProcessTimeout(time.Second))

		want := make([]uuid.UUID, 10)
		for i := range want {
			want[i] = uuid.New()
			require.NoError(t, q.Enqueue(t.Context(), Job{RecordID: want[i]}))
		}
		q.Shutdown(t.Context())

		assert.ElementsMatch(t, want, proc.seen)
	})

	t.Run("Should keep going after a failed job", func(t *testing.T) {
		proc := &recordingProcessor{fail: true}
		q := NewProcessorQueue(proc, nil, WithWorkers(1))
		require.NoError(t, q.Enqueue(t.Context(), Job{RecordID: uuid.New()}))
		require.NoError(t, q.Enqueue(t.Context(), Job{RecordID: uuid.New()}))
		q.Shutdown(t.Context())
		assert.Len(t, proc.seen, 2)
	})

	t.Run("Should refuse jobs after shutdown", func(t *testing.T) {
		q := NewProcessorQueue(&recordingProcessor{}, nil)
		q.Shutdown(t.Context())
		q.Shutdown(t.Context())
		assert.ErrorIs(t, q.Enqueue(t.Context(), Job{RecordID: uuid.New()}), ErrQueueClosed)
	})
}
