package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/freight-reader/internal/common"
)

const (
	MetadataUserID    = "x-user-id"
	MetadataRequestID = "x-request-id"
)

// ContextInterceptor copies the caller identity and a request ID from
// incoming metadata into the context, and logs each call. Authentication
// itself happens upstream; an absent user is rejected by the handlers that
// need one.
func ContextInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		var userID, requestID string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get(MetadataUserID); len(v) > 0 {
				userID = v[0]
			}
			if v := md.Get(MetadataRequestID); len(v) > 0 {
				requestID = v[0]
			}
		}
		if requestID == "" {
			requestID = uuid.New().String()
		}
		ctx = common.WithRequestID(common.WithUserID(ctx, userID), requestID)

		resp, err := handler(ctx, req)
		logger.Info("rpc.call",
			"method", info.FullMethod,
			"req_id", requestID,
			"user_id", common.UserIDFromContext(ctx),
			"code", status.Code(err).String(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}
