package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesFromCode(t *testing.T) {
	tests := []struct {
		code      string
		category  Category
		severity  Severity
		retryable bool
	}{
		{ErrCodeConfigInvalid, CategoryConfig, SeverityFatal, false},
		{ErrCodeFileNotFound, CategoryIO, SeverityError, false},
		{ErrCodeBackendUnavailable, CategoryNetwork, SeverityWarning, true},
		{ErrCodeInvalidMode, CategoryValidation, SeverityFatal, false},
		{ErrCodeEmbeddingFailed, CategoryInternal, SeverityError, false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "boom", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.severity, err.Severity)
			assert.Equal(t, tt.retryable, err.Retryable)
		})
	}
}

func TestError_FormatsCodeAndMessage(t *testing.T) {
	err := New(ErrCodeQueryEmpty, "query must not be empty", nil)
	assert.Equal(t, "[ERR_404_QUERY_EMPTY] query must not be empty", err.Error())
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := New(ErrCodeInvalidMode, "unknown mode", nil)

	assert.ErrorIs(t, err, New(ErrCodeInvalidMode, "", nil))
	assert.NotErrorIs(t, err, New(ErrCodeInvalidInput, "", nil))
}

func TestError_IsMatchesThroughWrapping(t *testing.T) {
	inner := New(ErrCodeBackendUnavailable, "both channels failed", nil)
	wrapped := fmt.Errorf("retrieve: %w", inner)

	assert.ErrorIs(t, wrapped, New(ErrCodeBackendUnavailable, "", nil))
}

func TestUnwrap_ExposesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeEmbedderUnavailable, cause)

	require.NotNil(t, err)
	assert.Equal(t, cause.Error(), err.Message)
	assert.ErrorIs(t, err, cause)
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestWithDetail(t *testing.T) {
	err := InvalidMode("fuzzy")

	assert.Equal(t, "fuzzy", err.Details["mode"])
	assert.Contains(t, err.Message, "fuzzy")
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(BackendError("down", nil)))
	assert.False(t, IsRetryable(ValidationError("bad", nil)))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(nil))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(ConfigError("bad config", nil)))
	assert.True(t, IsFatal(New(ErrCodeChunkParams, "overlap >= size", nil)))
	assert.False(t, IsFatal(New(ErrCodeCorruptIndex, "bad index", nil)))
	assert.False(t, IsFatal(nil))
}

func TestCategoryFromCode_ShortCode(t *testing.T) {
	assert.Equal(t, CategoryInternal, categoryFromCode("ERR"))
}
