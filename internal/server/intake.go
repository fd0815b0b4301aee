package server

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/freight-reader/internal/common"
	"github.com/joseph-ayodele/freight-reader/internal/freight"
	"github.com/joseph-ayodele/freight-reader/internal/intake"
	"github.com/joseph-ayodele/freight-reader/internal/utils"
	"github.com/joseph-ayodele/freight-reader/internal/vision"
)

const maxFileNameLen = 255

type IntakeServer struct {
	svc    *intake.Service
	logger *slog.Logger
}

func NewIntakeServer(svc *intake.Service, logger *slog.Logger) *IntakeServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &IntakeServer{svc: svc, logger: logger}
}

var _ IntakeServiceServer = (*IntakeServer)(nil)

func decode(in *structpb.Struct, v any) error {
	if err := utils.FromStruct(in, v); err != nil {
		return common.InvalidArgumentError(err.Error())
	}
	return nil
}

func encode(v any) (*structpb.Struct, error) {
	out, err := utils.ToStruct(v)
	if err != nil {
		return nil, common.InternalError(err.Error())
	}
	return out, nil
}

func parseID(raw string) (uuid.UUID, error) {
	v := common.NewValidator().Field("id", raw, common.Required, common.UUID)
	if err := common.ValidateAndReturnError(v); err != nil {
		return uuid.Nil, err
	}
	return uuid.MustParse(raw), nil
}

// Normalize is stateless: raw pages in, canonical record out.
func (s *IntakeServer) Normalize(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req normalizeRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	return encode(documentResponse{Document: freight.Normalize(req.Pages)})
}

// Revalidate is stateless: record plus user overrides in, re-checked record out.
func (s *IntakeServer) Revalidate(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req revalidateRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	return encode(documentResponse{Document: freight.Revalidate(req.Document, req.Overrides)})
}

func (s *IntakeServer) SubmitDocument(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req submitRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	v := common.NewValidator().
		Field("fileName", req.FileName, common.Required, common.MaxLength(maxFileNameLen))
	if len(req.Pages) == 0 {
		v.Field("pages", nil, common.Required)
	}
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}

	pages := make([]vision.PageImage, len(req.Pages))
	for i, p := range req.Pages {
		pages[i] = vision.PageImage{Page: p.Page, ContentType: p.ContentType, Data: p.Data}
	}
	userID := common.UserIDFromContext(ctx)
	submit := s.svc.Submit
	if req.Async {
		submit = s.svc.SubmitAsync
	}
	rec, err := submit(ctx, userID, req.FileName, pages)
	if err != nil {
		s.logger.Warn("rpc.submit.failed", "user_id", userID, "file_name", req.FileName, "error", err)
		return nil, common.ToStatus(err)
	}
	return encode(recordResponse{Record: utils.ToRecordView(rec)})
}

func (s *IntakeServer) EditDocument(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req editRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	id, err := parseID(req.ID)
	if err != nil {
		return nil, err
	}
	rec, err := s.svc.Edit(ctx, common.UserIDFromContext(ctx), id, req.Overrides)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return encode(recordResponse{Record: utils.ToRecordView(rec)})
}

func (s *IntakeServer) GetDocument(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req idRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	id, err := parseID(req.ID)
	if err != nil {
		return nil, err
	}
	rec, err := s.svc.Get(ctx, common.UserIDFromContext(ctx), id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return encode(recordResponse{Record: utils.ToRecordView(rec)})
}

func (s *IntakeServer) ListDocuments(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req listRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	recs, err := s.svc.List(ctx, common.UserIDFromContext(ctx), req.Limit)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return encode(listResponse{Records: utils.ToRecordViews(recs)})
}

func (s *IntakeServer) PinDocument(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req pinRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	id, err := parseID(req.ID)
	if err != nil {
		return nil, err
	}
	rec, err := s.svc.Pin(ctx, common.UserIDFromContext(ctx), id, req.Pinned)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return encode(recordResponse{Record: utils.ToRecordView(rec)})
}
