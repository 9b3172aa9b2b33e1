package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindBadRequest, http.StatusBadRequest},
		{KindUnauthenticated, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindInternal, http.StatusInternalServerError},
		{Kind(99), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.Status())
		})
	}
}

func TestSentinelMatchingSurvivesWrapping(t *testing.T) {
	wrapped := fmt.Errorf("verify: %w", ErrOTPInvalid.Wrap(stderrors.New("hash mismatch")))

	assert.True(t, stderrors.Is(wrapped, ErrOTPInvalid))
	assert.False(t, stderrors.Is(wrapped, ErrResetTokenInvalid))
	assert.Equal(t, KindBadRequest, KindOf(wrapped))

	de, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "OTP_INVALID", de.Code)
	assert.Contains(t, de.Error(), "hash mismatch")
}

func TestWrapDoesNotMutateSentinel(t *testing.T) {
	_ = ErrPermissionDenied.Wrap(stderrors.New("cause"))
	assert.Nil(t, ErrPermissionDenied.Err)
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(stderrors.New("boom")))
}
