package async

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/freight-reader/internal/vision"
)

// Job is one accepted submission waiting for extraction.
type Job struct {
	RecordID    uuid.UUID
	UserID      string
	Pages       []vision.PageImage
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// Processor handles one job to completion.
type Processor interface {
	Process(ctx context.Context, job Job) error
}
