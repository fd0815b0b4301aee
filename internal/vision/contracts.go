// Package vision is the boundary to the model that reads freight page images.
// Everything it returns is untrusted and goes through freight.Normalize.
package vision

import (
	"context"
	"errors"

	"github.com/joseph-ayodele/freight-reader/internal/freight"
)

var (
	ErrMissingImage = errors.New("missing image payload or content type")
	ErrInvalidJSON  = errors.New("response was not valid JSON")
	ErrNotObject    = errors.New("response was not a JSON object")
	ErrNoText       = errors.New("response did not include text content")
)

// PageImage is one rendered page of an uploaded document.
type PageImage struct {
	Page        int    // 1-based
	ContentType string // e.g. image/png
	Data        []byte
}

// PageExtractor reads one page image into raw fields.
type PageExtractor interface {
	ExtractPage(ctx context.Context, img PageImage) (freight.RawPageExtraction, []byte /*rawJSON*/, error)
}

// PageExtractorFunc adapts a function to PageExtractor.
type PageExtractorFunc func(ctx context.Context, img PageImage) (freight.RawPageExtraction, []byte, error)

func (f PageExtractorFunc) ExtractPage(ctx context.Context, img PageImage) (freight.RawPageExtraction, []byte, error) {
	return f(ctx, img)
}
