// Package intake orchestrates a document from upload to export: extraction,
// normalization, user edits and persistence of the canonical record.
package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/freight-reader/constants"
	"github.com/joseph-ayodele/freight-reader/internal/async"
	"github.com/joseph-ayodele/freight-reader/internal/common"
	"github.com/joseph-ayodele/freight-reader/internal/entity"
	"github.com/joseph-ayodele/freight-reader/internal/export"
	"github.com/joseph-ayodele/freight-reader/internal/freight"
	"github.com/joseph-ayodele/freight-reader/internal/repository"
	"github.com/joseph-ayodele/freight-reader/internal/vision"
)

const exportAllLimit = 1000

// DocumentExtractor turns page images into raw per-page extractions.
type DocumentExtractor interface {
	ExtractDocument(ctx context.Context, pages []vision.PageImage) ([]freight.RawPageExtraction, vision.Report)
}

// Service holds explicit handles to every collaborator; nothing is global.
type Service struct {
	repo      repository.DocumentRepository
	extractor DocumentExtractor
	exporter  *export.Service
	queue     async.Queue
	logger    *slog.Logger
}

func NewService(repo repository.DocumentRepository, extractor DocumentExtractor, exporter *export.Service, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if exporter == nil {
		exporter = export.NewService(logger)
	}
	return &Service{repo: repo, extractor: extractor, exporter: exporter, logger: logger}
}

// SetQueue enables SubmitAsync. The queue normally wraps this same service
// as its Processor, so it is attached after construction.
func (s *Service) SetQueue(q async.Queue) {
	s.queue = q
}

func requireUser(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", common.ErrUnauthorized
	}
	return userID, nil
}

func validateSubmission(fileName string, pages []vision.PageImage) error {
	if strings.TrimSpace(fileName) == "" {
		return fmt.Errorf("file name is required: %w", common.ErrInvalidInput)
	}
	if len(pages) == 0 {
		return fmt.Errorf("at least one page image is required: %w", common.ErrInvalidInput)
	}
	return nil
}

// Submit extracts and normalizes a document synchronously and returns the
// stored record. A document whose pages all fail extraction is still stored
// as DONE with the all-error canonical record.
func (s *Service) Submit(ctx context.Context, userID, fileName string, pages []vision.PageImage) (*entity.Record, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return nil, err
	}
	if err := validateSubmission(fileName, pages); err != nil {
		return nil, err
	}
	rec, err := s.repo.Create(ctx, userID, fileName)
	if err != nil {
		return nil, err
	}
	job := async.Job{RecordID: rec.ID, UserID: userID, Pages: pages, SubmittedAt: time.Now(), TraceID: common.RequestIDFromContext(ctx)}
	if err := s.Process(ctx, job); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, userID, rec.ID)
}

// SubmitAsync stores a PROCESSING record and hands extraction to the queue.
func (s *Service) SubmitAsync(ctx context.Context, userID, fileName string, pages []vision.PageImage) (*entity.Record, error) {
	if s.queue == nil {
		return s.Submit(ctx, userID, fileName, pages)
	}
	userID, err := requireUser(userID)
	if err != nil {
		return nil, err
	}
	if err := validateSubmission(fileName, pages); err != nil {
		return nil, err
	}
	rec, err := s.repo.Create(ctx, userID, fileName)
	if err != nil {
		return nil, err
	}
	job := async.Job{RecordID: rec.ID, UserID: userID, Pages: pages, SubmittedAt: time.Now(), TraceID: common.RequestIDFromContext(ctx)}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.markFailed(rec.ID, "could not queue document for extraction")
		return nil, common.WrapError(err, "enqueue document")
	}
	return rec, nil
}

// Process runs extraction and normalization for one stored record. It
// implements async.Processor.
func (s *Service) Process(ctx context.Context, job async.Job) error {
	start := time.Now()
	s.logger.Info("intake.process.start", "record_id", job.RecordID, "pages", len(job.Pages))

	raw, rep := s.extractor.ExtractDocument(ctx, job.Pages)
	doc := freight.Normalize(raw)

	if err := s.repo.SaveDocument(ctx, job.RecordID, doc); err != nil {
		s.logger.Error("intake.process.save_failed", "record_id", job.RecordID, "error", err)
		s.markFailed(job.RecordID, "could not store the extracted document")
		return err
	}
	s.logger.Info("intake.process.ok",
		"record_id", job.RecordID,
		"document_type", doc.DocumentType,
		"pages_ok", rep.Succeeded,
		"pages_failed", rep.Failed,
		"errors", len(doc.Errors()),
		"warnings", len(doc.Warnings()),
		"ready", doc.ReadyForExport,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// markFailed runs detached from the request context, which may be the
// reason we are failing.
func (s *Service) markFailed(id uuid.UUID, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.repo.MarkFailed(ctx, id, reason); err != nil {
		s.logger.Error("intake.mark_failed.error", "record_id", id, "error", err)
	}
}

// Edit applies user overrides to a finished record, re-runs every rule on
// the merged state and stores the result wholesale.
func (s *Service) Edit(ctx context.Context, userID string, id uuid.UUID, overrides freight.Overrides) (*entity.Record, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return nil, err
	}
	rec, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if rec.Status != constants.StatusDone || rec.Document == nil {
		return nil, common.NewAppError("NOT_DONE", "document is still "+strings.ToLower(string(rec.Status)), common.ErrNotReady)
	}

	doc := freight.Revalidate(rec.Document, overrides)
	if err := s.repo.SaveDocument(ctx, id, doc); err != nil {
		return nil, err
	}
	s.logger.Info("intake.edit.ok", "record_id", id, "ready", doc.ReadyForExport, "errors", len(doc.Errors()))
	return s.repo.GetByID(ctx, userID, id)
}

func (s *Service) Get(ctx context.Context, userID string, id uuid.UUID) (*entity.Record, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, userID, id)
}

func (s *Service) List(ctx context.Context, userID string, limit int) ([]*entity.Record, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByUser(ctx, userID, limit)
}

func (s *Service) Pin(ctx context.Context, userID string, id uuid.UUID, pinned bool) (*entity.Record, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetPinned(ctx, userID, id, pinned); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, userID, id)
}

// Export renders one record; records that are not ready are refused.
func (s *Service) Export(ctx context.Context, userID string, id uuid.UUID, format constants.ExportFormat) (*export.File, error) {
	rec, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.exporter.ExportSingle(toItem(rec), format)
}

// ExportAll bundles every ready record of the user into one ZIP.
func (s *Service) ExportAll(ctx context.Context, userID string, format constants.ExportFormat) (*export.File, export.BulkReport, error) {
	recs, err := s.List(ctx, userID, exportAllLimit)
	if err != nil {
		return nil, export.BulkReport{}, err
	}
	items := make([]export.Item, len(recs))
	for i, rec := range recs {
		items[i] = toItem(rec)
	}
	f, rep, err := s.exporter.ExportBulk(items, format)
	if err != nil && !errors.Is(err, common.ErrNothingToExport) {
		s.logger.Error("intake.export_all.failed", "user_id", userID, "error", err)
	}
	return f, rep, err
}

func toItem(rec *entity.Record) export.Item {
	it := export.Item{ID: rec.ID.String(), Name: rec.FileName}
	if rec.Exportable() {
		it.Document = rec.Document
	}
	return it
}
