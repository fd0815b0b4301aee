package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/freight-reader/constants"
	"github.com/joseph-ayodele/freight-reader/internal/common"
	"github.com/joseph-ayodele/freight-reader/internal/freight"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.Context(), Config{
		Driver: DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "freight.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func newTestRepo(t *testing.T) *documentRepository {
	t.Helper()
	repo := NewDocumentRepository(openTestDB(t), nil).(*documentRepository)
	clock := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return repo
}

func sampleDocument() *freight.Document {
	return freight.Normalize([]freight.RawPageExtraction{{
		Page:          1,
		DocumentType:  freight.String("BOL"),
		ShipperName:   freight.String("Acme Corp"),
		ConsigneeName: freight.String("Beta LLC"),
		BOLNumber:     freight.String("B-1001"),
		Quantity:      freight.Number(3),
		BillToName:    freight.String("Gamma Freight"),
	}})
}

func TestOpen(t *testing.T) {
	t.Run("Should apply migrations idempotently", func(t *testing.T) {
		dsn := filepath.Join(t.TempDir(), "freight.db")
		for range 2 {
			db, err := Open(t.Context(), Config{Driver: DriverSQLite, DSN: dsn}, nil)
			require.NoError(t, err)
			require.NoError(t, db.Ping(t.Context(), time.Second))
			db.Close()
		}
	})
	t.Run("Should reject an unknown driver", func(t *testing.T) {
		_, err := Open(t.Context(), Config{Driver: "mysql"}, nil)
		assert.Error(t, err)
	})
}

func TestDocumentRepository(t *testing.T) {
	t.Run("Should create a processing record", func(t *testing.T) {
		repo := newTestRepo(t)
		rec, err := repo.Create(t.Context(), "user-1", "bol.png")
		require.NoError(t, err)

		got, err := repo.GetByID(t.Context(), "user-1", rec.ID)
		require.NoError(t, err)
		assert.Equal(t, constants.StatusProcessing, got.Status)
		assert.Equal(t, "bol.png", got.FileName)
		assert.Nil(t, got.Document)
		assert.Nil(t, got.FailureReason)
		assert.False(t, got.Pinned)
		assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("Should hide records owned by another user", func(t *testing.T) {
		repo := newTestRepo(t)
		rec, err := repo.Create(t.Context(), "user-1", "bol.png")
		require.NoError(t, err)

		_, err = repo.GetByID(t.Context(), "user-2", rec.ID)
		assert.ErrorIs(t, err, common.ErrNotFound)
		assert.ErrorIs(t, repo.SetPinned(t.Context(), "user-2", rec.ID, true), common.ErrNotFound)
	})

	t.Run("Should store the canonical record and mark it done", func(t *testing.T) {
		repo := newTestRepo(t)
		rec, err := repo.Create(t.Context(), "user-1", "bol.png")
		require.NoError(t, err)
		doc := sampleDocument()

		require.NoError(t, repo.SaveDocument(t.Context(), rec.ID, doc))
		got, err := repo.GetByID(t.Context(), "user-1", rec.ID)
		require.NoError(t, err)

		assert.Equal(t, constants.StatusDone, got.Status)
		require.NotNil(t, got.Document)
		assert.Equal(t, doc.DocumentType, got.Document.DocumentType)
		assert.Equal(t, doc.Shipper, got.Document.Shipper)
		assert.Equal(t, doc.BillTo, got.Document.BillTo)
		assert.Equal(t, doc.References, got.Document.References)
		assert.Equal(t, doc.Quantity, got.Document.Quantity)
		assert.Equal(t, doc.Issues, got.Document.Issues)
		assert.Equal(t, doc.ReadyForExport, got.Document.ReadyForExport)
		assert.Len(t, got.Document.RawPages, 1)
		assert.True(t, got.UpdatedAt.After(got.CreatedAt))
	})

	t.Run("Should record failures", func(t *testing.T) {
		repo := newTestRepo(t)
		rec, err := repo.Create(t.Context(), "user-1", "bol.png")
		require.NoError(t, err)

		require.NoError(t, repo.MarkFailed(t.Context(), rec.ID, "upload corrupted"))
		got, err := repo.GetByID(t.Context(), "user-1", rec.ID)
		require.NoError(t, err)
		assert.Equal(t, constants.StatusFailed, got.Status)
		require.NotNil(t, got.FailureReason)
		assert.Equal(t, "upload corrupted", *got.FailureReason)
	})

	t.Run("Should list pinned records first then newest", func(t *testing.T) {
		repo := newTestRepo(t)
		var ids []uuid.UUID
		for _, name := range []string{"a.png", "b.png", "c.png"} {
			rec, err := repo.Create(t.Context(), "user-1", name)
			require.NoError(t, err)
			ids = append(ids, rec.ID)
		}
		_, err := repo.Create(t.Context(), "user-2", "other.png")
		require.NoError(t, err)
		require.NoError(t, repo.SetPinned(t.Context(), "user-1", ids[0], true))

		recs, err := repo.ListByUser(t.Context(), "user-1", 0)
		require.NoError(t, err)
		require.Len(t, recs, 3)
		assert.Equal(t, []string{"a.png", "c.png", "b.png"},
			[]string{recs[0].FileName, recs[1].FileName, recs[2].FileName})
		assert.True(t, recs[0].Pinned)

		recs, err = repo.ListByUser(t.Context(), "user-1", 2)
		require.NoError(t, err)
		assert.Len(t, recs, 2)
	})

	t.Run("Should report unknown ids", func(t *testing.T) {
		repo := newTestRepo(t)
		assert.ErrorIs(t, repo.SaveDocument(t.Context(), uuid.New(), sampleDocument()), common.ErrNotFound)
		assert.ErrorIs(t, repo.MarkFailed(t.Context(), uuid.New(), "x"), common.ErrNotFound)
		assert.ErrorIs(t, repo.SaveDocument(t.Context(), uuid.New(), nil), common.ErrInvalidInput)
	})
}
