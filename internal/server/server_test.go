package server

import (
	"context"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/freight-reader/internal/freight"
	"github.com/joseph-ayodele/freight-reader/internal/intake"
	"github.com/joseph-ayodele/freight-reader/internal/repository"
	"github.com/joseph-ayodele/freight-reader/internal/vision"
)

type stubExtractor struct {
	pages []freight.RawPageExtraction
}

func (s stubExtractor) ExtractDocument(_ context.Context, pages []vision.PageImage) ([]freight.RawPageExtraction, vision.Report) {
	return s.pages, vision.Report{Attempted: len(pages), Succeeded: len(s.pages)}
}

func readyPage() freight.RawPageExtraction {
	return freight.RawPageExtraction{
		Page:             1,
		DocumentType:     freight.String(" bol "),
		ShipperName:      freight.String("Acme Corp"),
		ShipperAddress:   freight.String("100 Main St, Springfield, IL 62704"),
		ConsigneeName:    freight.String("Beta LLC"),
		ConsigneeAddress: freight.String("200 Oak Ave, Dallas, TX 75201"),
		BOLNumber:        freight.String("B-1001"),
		PRONumber:        freight.String("PRO 778"),
		TotalWeightLbs:   freight.String("1,250 lbs"),
	}
}

func newTestClient(t *testing.T, ex intake.DocumentExtractor) *Client {
	t.Helper()
	db, err := repository.Open(t.Context(), repository.Config{
		Driver: repository.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "server.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	svc := intake.NewService(repository.NewDocumentRepository(db, nil), ex, nil, nil)
	s, _ := NewGRPCServer(NewIntakeServer(svc, nil), nil)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	healthy, err := healthpb.NewHealthClient(conn).Check(t.Context(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, healthy.GetStatus())

	return NewClient(conn, nil)
}

func asUser(ctx context.Context, userID string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, MetadataUserID, userID)
}

func mustStruct(t *testing.T, v map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(v)
	require.NoError(t, err)
	return s
}

func toJSON(t *testing.T, s *structpb.Struct) gjson.Result {
	t.Helper()
	b, err := protojson.Marshal(s)
	require.NoError(t, err)
	return gjson.ParseBytes(b)
}

func submitOne(ctx context.Context, t *testing.T, c *Client) gjson.Result {
	t.Helper()
	out, err := c.Call(ctx, MethodSubmitDocument, mustStruct(t, map[string]any{
		"fileName": "bol-scan.png",
		"pages": []any{
			map[string]any{"page": 1, "contentType": "image/png", "data": "cG5nLWJ5dGVz"},
		},
	}))
	require.NoError(t, err)
	return toJSON(t, out)
}

func TestNormalizeRPC(t *testing.T) {
	t.Run("Should normalize raw pages without storing anything", func(t *testing.T) {
		c := newTestClient(t, stubExtractor{})
		out, err := c.Call(t.Context(), MethodNormalize, mustStruct(t, map[string]any{
			"pages": []any{
				map[string]any{
					"page":             1,
					"document_type":    "Rate Confirmation",
					"shipper_name":     "  Acme Corp ",
					"total_weight_lbs": "2,000",
				},
			},
		}))
		require.NoError(t, err)

		doc := toJSON(t, out).Get("document")
		assert.Equal(t, "RATE_CONFIRMATION", doc.Get("documentType").String())
		assert.Equal(t, "Acme Corp", doc.Get("shipper.name").String())
		assert.Equal(t, 2000.0, doc.Get("weightLbs").Float())
		assert.False(t, doc.Get("readyForExport").Bool())
	})

	t.Run("Should return the all-error record for no pages", func(t *testing.T) {
		c := newTestClient(t, stubExtractor{})
		out, err := c.Call(t.Context(), MethodNormalize, mustStruct(t, map[string]any{"pages": []any{}}))
		require.NoError(t, err)

		doc := toJSON(t, out).Get("document")
		assert.Equal(t, "UNKNOWN", doc.Get("documentType").String())
		assert.Len(t, doc.Get("issues").Array(), 4)
	})
}

func TestRevalidateRPC(t *testing.T) {
	t.Run("Should apply overrides and recompute readiness", func(t *testing.T) {
		c := newTestClient(t, stubExtractor{})
		norm, err := c.Call(t.Context(), MethodNormalize, mustStruct(t, map[string]any{
			"pages": []any{map[string]any{"page": 1, "document_type": "BOL", "shipper_name": "Acme Corp"}},
		}))
		require.NoError(t, err)
		doc := norm.GetFields()["document"]

		out, err := c.Call(t.Context(), MethodRevalidate, &structpb.Struct{Fields: map[string]*structpb.Value{
			"document": doc,
			"overrides": structpb.NewStructValue(mustStruct(t, map[string]any{
				"consignee":  map[string]any{"name": "Beta LLC"},
				"references": map[string]any{"bol": "B-1001"},
			})),
		}})
		require.NoError(t, err)

		got := toJSON(t, out).Get("document")
		assert.Equal(t, "Beta LLC", got.Get("consignee.name").String())
		assert.Equal(t, "B-1001", got.Get("references.bol").String())
		assert.True(t, got.Get("readyForExport").Bool())
	})
}

func TestDocumentRPCs(t *testing.T) {
	t.Run("Should reject callers without a user", func(t *testing.T) {
		c := newTestClient(t, stubExtractor{pages: []freight.RawPageExtraction{readyPage()}})
		_, err := c.Call(t.Context(), MethodSubmitDocument, mustStruct(t, map[string]any{
			"fileName": "bol.png",
			"pages":    []any{map[string]any{"page": 1, "contentType": "image/png", "data": "AQID"}},
		}))
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("Should validate submissions before extracting", func(t *testing.T) {
		c := newTestClient(t, stubExtractor{})
		_, err := c.Call(asUser(t.Context(), "user-1"), MethodSubmitDocument, mustStruct(t, map[string]any{
			"fileName": "",
		}))
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("Should submit, fetch, list, and pin a document", func(t *testing.T) {
		c := newTestClient(t, stubExtractor{pages: []freight.RawPageExtraction{readyPage()}})
		ctx := asUser(t.Context(), "user-1")

		rec := submitOne(ctx, t, c).Get("record")
		assert.Equal(t, "DONE", rec.Get("status").String())
		assert.Equal(t, "BOL", rec.Get("document.documentType").String())
		assert.Equal(t, "PRO778", rec.Get("document.references.pro").String())
		assert.True(t, rec.Get("document.readyForExport").Bool())
		id := rec.Get("id").String()

		got, err := c.Call(ctx, MethodGetDocument, mustStruct(t, map[string]any{"id": id}))
		require.NoError(t, err)
		assert.Equal(t, id, toJSON(t, got).Get("record.id").String())

		pinned, err := c.Call(ctx, MethodPinDocument, mustStruct(t, map[string]any{"id": id, "pinned": true}))
		require.NoError(t, err)
		assert.True(t, toJSON(t, pinned).Get("record.pinned").Bool())

		list, err := c.Call(ctx, MethodListDocuments, mustStruct(t, map[string]any{}))
		require.NoError(t, err)
		assert.Len(t, toJSON(t, list).Get("records").Array(), 1)

		other, err := c.Call(asUser(t.Context(), "user-2"), MethodListDocuments, mustStruct(t, map[string]any{}))
		require.NoError(t, err)
		assert.Empty(t, toJSON(t, other).Get("records").Array())
	})

	t.Run("Should hide other users' documents", func(t *testing.T) {
		c := newTestClient(t, stubExtractor{pages: []freight.RawPageExtraction{readyPage()}})
		id := submitOne(asUser(t.Context(), "user-1"), t, c).Get("record.id").String()

		_, err := c.Call(asUser(t.Context(), "user-2"), MethodGetDocument, mustStruct(t, map[string]any{"id": id}))
		assert.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("Should reject malformed IDs", func(t *testing.T) {
		c := newTestClient(t, stubExtractor{})
		_, err := c.Call(asUser(t.Context(), "user-1"), MethodGetDocument, mustStruct(t, map[string]any{"id": "nope"}))
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("Should edit a document through overrides", func(t *testing.T) {
		c := newTestClient(t, stubExtractor{pages: []freight.RawPageExtraction{readyPage()}})
		ctx := asUser(t.Context(), "user-1")
		id := submitOne(ctx, t, c).Get("record.id").String()

		out, err := c.Call(ctx, MethodEditDocument, mustStruct(t, map[string]any{
			"id":        id,
			"overrides": map[string]any{"consignee": map[string]any{"name": nil}},
		}))
		require.NoError(t, err)

		doc := toJSON(t, out).Get("record.document")
		assert.Equal(t, gjson.Null, doc.Get("consignee.name").Type)
		assert.False(t, doc.Get("readyForExport").Bool())
	})
}

func TestExportRPCs(t *testing.T) {
	t.Run("Should export a ready document as CSV", func(t *testing.T) {
		c := newTestClient(t, stubExtractor{pages: []freight.RawPageExtraction{readyPage()}})
		ctx := asUser(t.Context(), "user-1")
		id := submitOne(ctx, t, c).Get("record.id").String()

		out, err := c.Call(ctx, MethodExportDocument, mustStruct(t, map[string]any{"id": id, "format": "CSV"}))
		require.NoError(t, err)

		f := toJSON(t, out)
		assert.Equal(t, "bol-scan-extracted.csv", f.Get("fileName").String())
		assert.NotEmpty(t, f.Get("data").String())
	})

	t.Run("Should refuse to export a document that is not ready", func(t *testing.T) {
		c := newTestClient(t, stubExtractor{})
		ctx := asUser(t.Context(), "user-1")
		id := submitOne(ctx, t, c).Get("record.id").String()

		_, err := c.Call(ctx, MethodExportDocument, mustStruct(t, map[string]any{"id": id, "format": "json"}))
		assert.Equal(t, codes.FailedPrecondition, status.Code(err))

		_, err = c.Call(ctx, MethodExportDocuments, mustStruct(t, map[string]any{"format": "json"}))
		assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	})

	t.Run("Should reject unknown formats", func(t *testing.T) {
		c := newTestClient(t, stubExtractor{})
		_, err := c.Call(asUser(t.Context(), "user-1"), MethodExportDocuments, mustStruct(t, map[string]any{"format": "pdf"}))
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("Should bundle ready documents into a zip", func(t *testing.T) {
		c := newTestClient(t, stubExtractor{pages: []freight.RawPageExtraction{readyPage()}})
		ctx := asUser(t.Context(), "user-1")
		submitOne(ctx, t, c)
		submitOne(ctx, t, c)

		out, err := c.Call(ctx, MethodExportDocuments, mustStruct(t, map[string]any{"format": "quickbooks"}))
		require.NoError(t, err)

		f := toJSON(t, out)
		assert.Equal(t, "application/zip", f.Get("contentType").String())
		assert.Equal(t, int64(2), f.Get("exported").Int())
		assert.Equal(t, int64(0), f.Get("skipped").Int())
	})
}
