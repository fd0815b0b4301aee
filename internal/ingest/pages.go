package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"

	"github.com/joseph-ayodele/freight-reader/constants"
	"github.com/joseph-ayodele/freight-reader/internal/common"
	"github.com/joseph-ayodele/freight-reader/internal/freight"
	"github.com/joseph-ayodele/freight-reader/internal/vision"
)

// LoadPageImage reads one image file as a single-page document.
func LoadPageImage(path string) ([]vision.PageImage, error) {
	ct, ok := constants.ContentTypeByExt[constants.NormalizeExt(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("%s: unsupported image type: %w", path, common.ErrInvalidInput)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s is empty: %w", path, common.ErrInvalidInput)
	}
	return []vision.PageImage{{Page: 1, ContentType: ct, Data: data}}, nil
}

// ParseRawPages accepts either one raw page object or an array of them.
// Pages without a page number are numbered by position.
func ParseRawPages(data []byte) ([]freight.RawPageExtraction, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("raw pages: %w", common.ErrInvalidInput)
	}
	root := gjson.ParseBytes(data)

	var pages []freight.RawPageExtraction
	switch {
	case root.IsArray():
		if err := json.Unmarshal(data, &pages); err != nil {
			return nil, fmt.Errorf("raw pages: %w", err)
		}
	case root.IsObject():
		var page freight.RawPageExtraction
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("raw page: %w", err)
		}
		pages = []freight.RawPageExtraction{page}
	default:
		return nil, fmt.Errorf("raw pages must be an object or array: %w", common.ErrInvalidInput)
	}

	for i := range pages {
		if pages[i].Page == 0 {
			pages[i].Page = i + 1
		}
	}
	return pages, nil
}

// LoadRawPages reads and parses a raw page JSON file.
func LoadRawPages(path string) ([]freight.RawPageExtraction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	pages, err := ParseRawPages(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pages, nil
}
