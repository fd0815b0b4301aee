package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/freight-reader/constants"
	"github.com/joseph-ayodele/freight-reader/internal/common"
)

// File is one rendered download.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// BulkReport counts what a bulk export did with its input.
type BulkReport struct {
	Attempted int
	Exported  int
	Skipped   int
}

// Service renders exports of stored documents. Only documents whose
// canonical record is ready for export are ever rendered.
type Service struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, now: time.Now}
}

// ExportSingle renders one document, refusing documents that are not ready.
func (s *Service) ExportSingle(it Item, format constants.ExportFormat) (*File, error) {
	if !it.Ready() {
		s.logger.Warn("export.single.not_ready", "id", it.ID, "format", format)
		return nil, fmt.Errorf("%s: %w", it.Name, common.ErrNotReady)
	}
	data, err := Render(format, []Item{it})
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.single.ok", "id", it.ID, "format", format, "bytes", len(data))
	return &File{
		Name:        FileName(it.Name, format),
		ContentType: ContentType(format),
		Data:        data,
	}, nil
}

// ExportBulk bundles every ready document into one ZIP, silently skipping the
// rest. XLSX exports share one workbook; every other format gets one file
// per document.
func (s *Service) ExportBulk(items []Item, format constants.ExportFormat) (*File, BulkReport, error) {
	start := time.Now()
	rep := BulkReport{Attempted: len(items)}
	if _, ok := extensions[format]; !ok {
		return nil, rep, fmt.Errorf("%q: %w", format, common.ErrUnsupportedFormat)
	}

	ready := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Ready() {
			ready = append(ready, it)
		}
	}
	rep.Exported = len(ready)
	rep.Skipped = rep.Attempted - rep.Exported
	if len(ready) == 0 {
		s.logger.Warn("export.bulk.nothing_ready", "attempted", rep.Attempted, "format", format)
		return nil, rep, common.ErrNothingToExport
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	add := func(name string, data []byte) error {
		w, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("zip entry %s: %w", name, err)
		}
		_, err = w.Write(data)
		return err
	}

	if format == constants.ExportXLSX {
		data, err := Render(format, ready)
		if err != nil {
			return nil, rep, err
		}
		if err := add("freight-export.xlsx", data); err != nil {
			return nil, rep, err
		}
	} else {
		seen := make(map[string]int, len(ready))
		for _, it := range ready {
			data, err := Render(format, []Item{it})
			if err != nil {
				return nil, rep, err
			}
			if err := add(uniqueName(seen, FileName(it.Name, format)), data); err != nil {
				return nil, rep, err
			}
		}
	}
	if err := zw.Close(); err != nil {
		return nil, rep, fmt.Errorf("zip close: %w", err)
	}

	if rep.Skipped > 0 {
		s.logger.Warn("export.bulk.partial",
			"exported", rep.Exported, "attempted", rep.Attempted, "format", format)
	}
	s.logger.Info("export.bulk.ok",
		"exported", rep.Exported,
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &File{
		Name:        ZipName(s.now()),
		ContentType: "application/zip",
		Data:        buf.Bytes(),
	}, rep, nil
}

// ZipName is the download name of a bulk export made at t.
func ZipName(t time.Time) string {
	return "freight-export-" + t.UTC().Format(time.DateOnly) + ".zip"
}

// uniqueName suffixes repeated names: a.csv, a-2.csv, a-3.csv.
func uniqueName(seen map[string]int, name string) string {
	seen[name]++
	n := seen[name]
	if n == 1 {
		return name
	}
	dot := strings.LastIndexByte(name, '.')
	candidate := name[:dot] + "-" + strconv.Itoa(n) + name[dot:]
	return uniqueName(seen, candidate)
}
