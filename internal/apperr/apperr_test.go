package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("post not found")))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))

	wrapped := fmt.Errorf("apply vote: %w", ResourceExhausted("slow down"))
	assert.Equal(t, KindResourceExhausted, KindOf(wrapped))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("serialization failure")
	err := Aborted("vote transaction", cause)
	assert.ErrorIs(t, err, cause)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(Unauthenticated("sign in required")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(InvalidArgument("bad value")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("gone")))
	assert.Equal(t, http.StatusTooManyRequests, HTTPStatus(ResourceExhausted("limit")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(Aborted("conflict", nil)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}
