package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeValidation, http.StatusBadRequest},
		{CodeConflict, http.StatusConflict},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeInternal, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestErrorIsMatchesByCode(t *testing.T) {
	err := NotFoundf("job %s", "abc")
	wrapped := fmt.Errorf("lookup: %w", err)

	assert.True(t, Is(wrapped, ErrNotFound))
	assert.False(t, Is(wrapped, ErrValidation))
	assert.Equal(t, "job abc", err.Error())
}

func TestInternalWrapsCause(t *testing.T) {
	cause := New("disk full")
	err := Internal("write failed", cause)

	assert.True(t, Is(err, cause))
	assert.True(t, Is(err, ErrInternal))
	assert.Equal(t, "write failed: disk full", err.Error())
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusOf(fmt.Errorf("x: %w", NotFoundf("missing"))))
	assert.Equal(t, http.StatusServiceUnavailable, StatusOf(Unavailable("closed")))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(New("plain")))
}
