package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/freight-reader/constants"
	"github.com/joseph-ayodele/freight-reader/internal/freight"
)

// Record is one uploaded document and its canonical extraction, for data
// transfer between layers. Document is nil until extraction finishes.
type Record struct {
	ID            uuid.UUID                `json:"id"`
	UserID        string                   `json:"user_id"`
	FileName      string                   `json:"file_name"`
	Status        constants.DocumentStatus `json:"status"`
	FailureReason *string                  `json:"failure_reason,omitempty"`
	Document      *freight.Document        `json:"document,omitempty"`
	Pinned        bool                     `json:"pinned"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

// Exportable reports whether the record holds a document ready for export.
func (r *Record) Exportable() bool {
	return r != nil && r.Status == constants.StatusDone && r.Document != nil && r.Document.ReadyForExport
}
