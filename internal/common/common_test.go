package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{fmt.Errorf("load: %w", ErrNotFound), codes.NotFound},
		{ErrInvalidInput, codes.InvalidArgument},
		{ErrUnsupportedFormat, codes.InvalidArgument},
		{ErrUnauthorized, codes.Unauthenticated},
		{fmt.Errorf("export: %w", ErrNotReady), codes.FailedPrecondition},
		{ErrNothingToExport, codes.FailedPrecondition},
		{NewAppError("DB", "boom", ErrDatabase), codes.Internal},
		{errors.New("plain"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run("Should map "+tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, status.Code(ToStatus(tt.err)))
		})
	}

	t.Run("Should pass through existing statuses and nil", func(t *testing.T) {
		err := NotFoundError("gone")
		assert.Equal(t, err, ToStatus(err))
		assert.NoError(t, ToStatus(nil))
	})
}

func TestAppError(t *testing.T) {
	t.Run("Should unwrap to its cause", func(t *testing.T) {
		err := NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Equal(t, "CONFIG_ERROR: DB_URL is required: invalid input", err.Error())
	})
	t.Run("Should leave nil errors unwrapped", func(t *testing.T) {
		assert.NoError(t, WrapError(nil, "ignored"))
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("Should read environment overrides", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("DB_DRIVER", "Postgres")
		t.Setenv("DB_URL", "postgres://localhost/freight")
		t.Setenv("ANTHROPIC_API_KEY", "k")
		t.Setenv("EXTRACT_TIMEOUT", "10s")
		t.Setenv("EXTRACT_MAX_PAGES", "0")
		t.Setenv("LOG_LEVEL", "debug")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, 10*time.Second, cfg.Intake.ExtractTimeout)
		assert.Equal(t, 0, cfg.Intake.MaxPages)
		assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("Should fall back to defaults and require an API key", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("ANTHROPIC_API_KEY", "")
		t.Setenv("EXTRACT_TIMEOUT", "garbage")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, 28*time.Second, cfg.Intake.ExtractTimeout)
		assert.Equal(t, 1, cfg.Intake.MaxPages)
		assert.Equal(t, 600, cfg.Vision.MaxTokens)
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidInput)
	})
}

func TestValidator(t *testing.T) {
	t.Run("Should collect every failing rule", func(t *testing.T) {
		v := NewValidator().
			Field("id", "nope", Required, UUID).
			Field("format", "pdf", OneOf("csv", "json")).
			Field("file_name", "ok.png", Required, MaxLength(255))

		require.Len(t, v.Errors(), 2)
		err := ValidateAndReturnError(v)
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
		assert.Contains(t, err.Error(), "must be a valid UUID")
		assert.Contains(t, err.Error(), "must be one of csv, json")
	})
	t.Run("Should pass clean input", func(t *testing.T) {
		v := NewValidator().Field("format", " CSV ", OneOf("csv"))
		assert.NoError(t, ValidateAndReturnError(v))
	})
}

func TestContextValues(t *testing.T) {
	t.Run("Should carry the user and request identifiers", func(t *testing.T) {
		ctx := WithUserID(WithRequestID(context.Background(), "req-1"), " user-7 ")
		assert.Equal(t, "user-7", UserIDFromContext(ctx))
		assert.Equal(t, "req-1", RequestIDFromContext(ctx))
		assert.Empty(t, UserIDFromContext(context.Background()))
	})
}
