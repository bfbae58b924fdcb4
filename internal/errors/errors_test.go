package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ReturnsFreshInstance(t *testing.T) {
	a := New(ErrValidation, "")
	b := New(ErrValidation, "")
	a.WithFields("latitude")

	assert.Empty(t, b.Fields)
	assert.NotEmpty(t, a.Message)
}

func TestGetAppError_ThroughWrapping(t *testing.T) {
	base := New(ErrDuplicateKey, "").WithDetails("IMG_1.jpg")
	wrapped := fmt.Errorf("insert: %w", base)

	appErr, ok := GetAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrDuplicateKey, appErr.Code)
	assert.True(t, Is(wrapped, ErrDuplicateKey))
	assert.False(t, Is(wrapped, ErrRecordNotFound))
	assert.False(t, Is(stderrors.New("plain"), ErrDuplicateKey))
}

func TestWrap_KeepsOriginalError(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(ErrIOFailure, "", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, "disk full", err.Details)
	assert.Contains(t, err.Error(), "[2005]")
}

func TestGetErrorMessageWithLang(t *testing.T) {
	assert.Equal(t, "记录未找到", GetErrorMessageWithLang(ErrRecordNotFound, "zh-CN"))
	assert.Equal(t, "Record not found", GetErrorMessageWithLang(ErrRecordNotFound, "en-US"))
	assert.Equal(t, "Unknown Error", GetErrorMessageWithLang(ErrorCode(9999), "en-US"))
}
