package errors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	pkgerrors "github.com/modelshelf/modelshelf/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{Resource: "entry", ID: "fox"}
		assert.Equal(t, "entry with ID fox not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		wrapped := fmt.Errorf("delete: %w", pkgerrors.NewNotFoundError("entry", "fox"))
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("name", "", "cannot be empty")
		assert.Equal(t, "validation failed for field name: cannot be empty", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "empty batch"}
		assert.Equal(t, "validation failed: empty batch", err.Error())
	})
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		name        string
		err         *pkgerrors.APIError
		wantMsg     string
		rateLimited bool
	}{
		{
			name:    "with status code",
			err:     pkgerrors.NewAPIError("telegram", "getUpdates", http.StatusBadGateway, "bad gateway"),
			wantMsg: "telegram getUpdates failed (status 502): bad gateway",
		},
		{
			name:    "without status code",
			err:     pkgerrors.NewAPIError("telegram", "deleteMessage", 0, "message not found"),
			wantMsg: "telegram deleteMessage failed: message not found",
		},
		{
			name:        "rate limited",
			err:         pkgerrors.NewAPIError("telegram", "getFile", http.StatusTooManyRequests, "slow down"),
			wantMsg:     "telegram getFile failed (status 429): slow down",
			rateLimited: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
			assert.True(t, pkgerrors.IsTransport(tt.err))
			assert.Equal(t, tt.rateLimited, pkgerrors.IsRateLimited(tt.err))
		})
	}
}

func TestConfigError(t *testing.T) {
	base := errors.New("env var unset")
	err := pkgerrors.NewConfigError("telegram", "bot token is required", base)

	assert.Equal(t, "configuration error in telegram: bot token is required", err.Error())
	assert.True(t, pkgerrors.IsConfigError(err))
	assert.ErrorIs(t, err, base)
}

func TestWrapHelpers(t *testing.T) {
	t.Run("nil passthrough", func(t *testing.T) {
		assert.NoError(t, pkgerrors.WrapIO("read", "x", nil))
		assert.NoError(t, pkgerrors.WrapResource("load", "catalog", "", nil))
		assert.NoError(t, pkgerrors.WrapParse("json", "x", nil))
		assert.NoError(t, pkgerrors.WrapAPI("telegram", "getFile", 0, nil))
	})

	t.Run("io", func(t *testing.T) {
		base := errors.New("disk full")
		err := pkgerrors.WrapIO("write", "/tmp/models.json", base)
		require.Error(t, err)

		var ioErr *pkgerrors.IOError
		require.True(t, errors.As(err, &ioErr))
		assert.Equal(t, "write", ioErr.Operation)
		assert.ErrorIs(t, err, base)
	})

	t.Run("parse", func(t *testing.T) {
		err := pkgerrors.WrapParse("json", "pending.json", errors.New("unexpected EOF"))
		assert.Equal(t, "parse error in json file pending.json: unexpected EOF", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("api", func(t *testing.T) {
		err := pkgerrors.WrapAPI("telegram", "getUpdates", 0, errors.New("connection refused"))
		assert.True(t, pkgerrors.IsTransport(err))
		assert.False(t, pkgerrors.IsRateLimited(err))
	})

	t.Run("resource", func(t *testing.T) {
		err := pkgerrors.WrapResource("save", "catalog", "", errors.New("denied"))
		assert.Equal(t, "failed to save catalog: denied", err.Error())
	})
}
