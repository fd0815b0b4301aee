package server

import (
	"context"
	"errors"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/freight-reader/constants"
	"github.com/joseph-ayodele/freight-reader/internal/common"
	"github.com/joseph-ayodele/freight-reader/internal/export"
)

func parseFormat(raw string) (constants.ExportFormat, error) {
	v := common.NewValidator().Field("format", raw, common.Required, common.OneOf(constants.ExportFormatsAsStrings()...))
	if err := common.ValidateAndReturnError(v); err != nil {
		return "", err
	}
	return export.ParseFormat(raw)
}

func (s *IntakeServer) ExportDocument(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req exportRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	id, err := parseID(req.ID)
	if err != nil {
		return nil, err
	}
	format, err := parseFormat(req.Format)
	if err != nil {
		return nil, err
	}
	f, err := s.svc.Export(ctx, common.UserIDFromContext(ctx), id, format)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return encode(fileResponse{FileName: f.Name, ContentType: f.ContentType, Data: f.Data})
}

func (s *IntakeServer) ExportDocuments(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req exportRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	format, err := parseFormat(req.Format)
	if err != nil {
		return nil, err
	}
	f, rep, err := s.svc.ExportAll(ctx, common.UserIDFromContext(ctx), format)
	if err != nil {
		if errors.Is(err, common.ErrNothingToExport) {
			s.logger.Info("rpc.export_all.empty", "attempted", rep.Attempted)
		}
		return nil, common.ToStatus(err)
	}
	return encode(fileResponse{
		FileName:    f.Name,
		ContentType: f.ContentType,
		Data:        f.Data,
		Attempted:   rep.Attempted,
		Exported:    rep.Exported,
		Skipped:     rep.Skipped,
	})
}
