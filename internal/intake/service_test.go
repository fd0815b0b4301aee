package intake

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/freight-reader/constants"
	"github.com/joseph-ayodele/freight-reader/internal/async"
	"github.com/joseph-ayodele/freight-reader/internal/common"
	"github.com/joseph-ayodele/freight-reader/internal/freight"
	"github.com/joseph-ayodele/freight-reader/internal/repository"
	"github.com/joseph-ayodele/freight-reader/internal/vision"
)

type fakeExtractor struct {
	mu    sync.Mutex
	pages []freight.RawPageExtraction
	calls int
}

func (f *fakeExtractor) ExtractDocument(_ context.Context, pages []vision.PageImage) ([]freight.RawPageExtraction, vision.Report) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.pages, vision.Report{Attempted: len(pages), Succeeded: len(f.pages), Failed: len(pages) - len(f.pages)}
}

func goodPage() freight.RawPageExtraction {
	return freight.RawPageExtraction{
		Page:             1,
		DocumentType:     freight.String("BOL"),
		ShipperName:      freight.String("Acme Corp"),
		ShipperAddress:   freight.String("100 Main St, Springfield, IL 62704"),
		ConsigneeName:    freight.String("Beta LLC"),
		ConsigneeAddress: freight.String("200 Oak Ave, Dallas, TX 75201"),
		BOLNumber:        freight.String("B-1001"),
		TotalWeightLbs:   freight.Number(820),
	}
}

func onePage() []vision.PageImage {
	return []vision.PageImage{{Page: 1, ContentType: "image/png", Data: []byte{1, 2, 3}}}
}

func newTestService(t *testing.T, ex *fakeExtractor) *Service {
	t.Helper()
	db, err := repository.Open(t.Context(), repository.Config{
		Driver: repository.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "intake.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return NewService(repository.NewDocumentRepository(db, nil), ex, nil, nil)
}

func TestSubmit(t *testing.T) {
	t.Run("Should store a normalized, ready record", func(t *testing.T) {
		svc := newTestService(t, &fakeExtractor{pages: []freight.RawPageExtraction{goodPage()}})
		rec, err := svc.Submit(t.Context(), "user-1", "bol.png", onePage())
		require.NoError(t, err)

		assert.Equal(t, constants.StatusDone, rec.Status)
		require.NotNil(t, rec.Document)
		assert.Equal(t, freight.DocumentTypeBOL, rec.Document.DocumentType)
		assert.True(t, rec.Document.ReadyForExport)
	})

	t.Run("Should store the all-error record when every page fails", func(t *testing.T) {
		svc := newTestService(t, &fakeExtractor{})
		rec, err := svc.Submit(t.Context(), "user-1", "blurry.png", onePage())
		require.NoError(t, err)

		assert.Equal(t, constants.StatusDone, rec.Status)
		require.NotNil(t, rec.Document)
		assert.False(t, rec.Document.ReadyForExport)
		assert.Len(t, rec.Document.Errors(), 4)
	})

	t.Run("Should require an authenticated user and real input", func(t *testing.T) {
		ex := &fakeExtractor{}
		svc := newTestService(t, ex)
		_, err := svc.Submit(t.Context(), " ", "bol.png", onePage())
		assert.ErrorIs(t, err, common.ErrUnauthorized)
		_, err = svc.Submit(t.Context(), "user-1", "", onePage())
		assert.ErrorIs(t, err, common.ErrInvalidInput)
		_, err = svc.Submit(t.Context(), "user-1", "bol.png", nil)
		assert.ErrorIs(t, err, common.ErrInvalidInput)
		assert.Zero(t, ex.calls)
	})
}

func TestSubmitAsync(t *testing.T) {
	t.Run("Should return a processing record and finish in the background", func(t *testing.T) {
		svc := newTestService(t, &fakeExtractor{pages: []freight.RawPageExtraction{goodPage()}})
		q := async.NewProcessorQueue(svc, nil, async.WithWorkers(1))
		svc.SetQueue(q)

		rec, err := svc.SubmitAsync(t.Context(), "user-1", "bol.png", onePage())
		require.NoError(t, err)
		assert.Equal(t, constants.StatusProcessing, rec.Status)

		q.Shutdown(t.Context())
		got, err := svc.Get(t.Context(), "user-1", rec.ID)
		require.NoError(t, err)
		assert.Equal(t, constants.StatusDone, got.Status)
	})

	t.Run("Should mark the record failed when the queue refuses it", func(t *testing.T) {
		svc := newTestService(t, &fakeExtractor{})
		q := async.NewProcessorQueue(svc, nil)
		q.Shutdown(t.Context())
		svc.SetQueue(q)

		_, err := svc.SubmitAsync(t.Context(), "user-1", "bol.png", onePage())
		assert.ErrorIs(t, err, async.ErrQueueClosed)

		recs, err := svc.List(t.Context(), "user-1", 10)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, constants.StatusFailed, recs[0].Status)
	})
}

func TestEdit(t *testing.T) {
	t.Run("Should re-validate and persist user edits", func(t *testing.T) {
		page := goodPage()
		page.ConsigneeName = freight.Null()
		svc := newTestService(t, &fakeExtractor{pages: []freight.RawPageExtraction{page}})
		rec, err := svc.Submit(t.Context(), "user-1", "bol.png", onePage())
		require.NoError(t, err)
		require.False(t, rec.Document.ReadyForExport)

		edited, err := svc.Edit(t.Context(), "user-1", rec.ID, freight.Overrides{
			Consignee: &freight.PartyOverrides{Name: freight.Some("Beta LLC")},
		})
		require.NoError(t, err)
		assert.True(t, edited.Document.ReadyForExport)
		assert.Equal(t, "Beta LLC", *edited.Document.Consignee.Name)

		again, err := svc.Get(t.Context(), "user-1", rec.ID)
		require.NoError(t, err)
		assert.True(t, again.Document.ReadyForExport)
	})

	t.Run("Should refuse to edit another user's record", func(t *testing.T) {
		svc := newTestService(t, &fakeExtractor{pages: []freight.RawPageExtraction{goodPage()}})
		rec, err := svc.Submit(t.Context(), "user-1", "bol.png", onePage())
		require.NoError(t, err)
		_, err = svc.Edit(t.Context(), "user-2", rec.ID, freight.Overrides{})
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestExport(t *testing.T) {
	t.Run("Should export ready records and refuse the rest", func(t *testing.T) {
		ex := &fakeExtractor{pages: []freight.RawPageExtraction{goodPage()}}
		svc := newTestService(t, ex)
		ready, err := svc.Submit(t.Context(), "user-1", "bol.png", onePage())
		require.NoError(t, err)
		ex.pages = nil
		blocked, err := svc.Submit(t.Context(), "user-1", "blurry.png", onePage())
		require.NoError(t, err)

		f, err := svc.Export(t.Context(), "user-1", ready.ID, constants.ExportCSV)
		require.NoError(t, err)
		assert.Equal(t, "bol-extracted.csv", f.Name)

		_, err = svc.Export(t.Context(), "user-1", blocked.ID, constants.ExportCSV)
		assert.ErrorIs(t, err, common.ErrNotReady)

		_, rep, err := svc.ExportAll(t.Context(), "user-1", constants.ExportJSON)
		require.NoError(t, err)
		assert.Equal(t, 2, rep.Attempted)
		assert.Equal(t, 1, rep.Exported)
		assert.Equal(t, 1, rep.Skipped)
	})

	t.Run("Should report nothing to export", func(t *testing.T) {
		svc := newTestService(t, &fakeExtractor{})
		_, _, err := svc.ExportAll(t.Context(), "user-1", constants.ExportCSV)
		assert.ErrorIs(t, err, common.ErrNothingToExport)
	})

	t.Run("Should pin records", func(t *testing.T) {
		svc := newTestService(t, &fakeExtractor{pages: []freight.RawPageExtraction{goodPage()}})
		rec, err := svc.Submit(t.Context(), "user-1", "bol.png", onePage())
		require.NoError(t, err)
		pinned, err := svc.Pin(t.Context(), "user-1", rec.ID, true)
		require.NoError(t, err)
		assert.True(t, pinned.Pinned)

		_, err = svc.Pin(t.Context(), "user-1", uuid.New(), true)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestProcessSurvivesSlowExtraction(t *testing.T) {
	t.Run("Should complete within the runner deadline", func(t *testing.T) {
		slow := vision.PageExtractorFunc(func(ctx context.Context, _ vision.PageImage) (freight.RawPageExtraction, []byte, error) {
			<-ctx.Done()
			return freight.RawPageExtraction{}, nil, ctx.Err()
		})
		db, err := repository.Open(t.Context(), repository.Config{
			Driver: repository.DriverSQLite,
			DSN:    filepath.Join(t.TempDir(), "slow.db"),
		}, nil)
		require.NoError(t, err)
		t.Cleanup(db.Close)
		runner := vision.NewRunner(slow, nil, vision.WithTimeout(20*time.Millisecond))
		svc := NewService(repository.NewDocumentRepository(db, nil), runner, nil, nil)

		rec, err := svc.Submit(t.Context(), "user-1", "bol.png", onePage())
		require.NoError(t, err)
		assert.Equal(t, constants.StatusDone, rec.Status)
		assert.False(t, rec.Document.ReadyForExport)
	})
}
