package utils

import (
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/freight-reader/internal/entity"
	"github.com/joseph-ayodele/freight-reader/internal/freight"
)

// RecordView is the wire shape of a stored record.
type RecordView struct {
	ID            string            `json:"id"`
	FileName      string            `json:"fileName"`
	Status        string            `json:"status"`
	FailureReason string            `json:"failureReason,omitempty"`
	Pinned        bool              `json:"pinned"`
	Document      *freight.Document `json:"document,omitempty"`
	CreatedAt     string            `json:"createdAt"`
	UpdatedAt     string            `json:"updatedAt"`
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func ToRecordView(r *entity.Record) RecordView {
	return RecordView{
		ID:            r.ID.String(),
		FileName:      r.FileName,
		Status:        string(r.Status),
		FailureReason: strOrEmpty(r.FailureReason),
		Pinned:        r.Pinned,
		Document:      r.Document,
		CreatedAt:     r.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     r.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func ToRecordViews(recs []*entity.Record) []RecordView {
	out := make([]RecordView, len(recs))
	for i, r := range recs {
		out[i] = ToRecordView(r)
	}
	return out
}

// ToStruct renders any JSON-encodable value as a protobuf Struct. The value
// must encode to a JSON object.
func ToStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, fmt.Errorf("build struct: %w", err)
	}
	return out, nil
}

// FromStruct decodes a protobuf Struct into v through its JSON form.
func FromStruct(s *structpb.Struct, v any) error {
	if s == nil {
		s = &structpb.Struct{}
	}
	b, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("read struct: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}
