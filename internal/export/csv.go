package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/joseph-ayodele/freight-reader/internal/freight"
)

func renderCSV(items []Item) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	for _, it := range items {
		if it.Document == nil {
			continue
		}
		if err := w.Write(row(it.Document)); err != nil {
			return nil, fmt.Errorf("csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv flush: %w", err)
	}
	return buf.Bytes(), nil
}

func renderJSON(items []Item) ([]byte, error) {
	var v any
	if len(items) == 1 {
		v = items[0].Document
	} else {
		docs := make([]*freight.Document, 0, len(items))
		for _, it := range items {
			if it.Document != nil {
				docs = append(docs, it.Document)
			}
		}
		v = docs
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json encode: %w", err)
	}
	return b, nil
}
