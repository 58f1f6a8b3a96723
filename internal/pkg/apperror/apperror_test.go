package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusCode(Validation("bad")))
	assert.Equal(t, http.StatusNotFound, StatusCode(NotFound("missing")))
	assert.Equal(t, http.StatusForbidden, StatusCode(Forbidden("no")))
	assert.Equal(t, http.StatusConflict, StatusCode(Conflict("again")))
	assert.Equal(t, http.StatusUnauthorized, StatusCode(Unauthenticated("who")))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(errors.New("boom")))
}

func TestStorage_HidesCause(t *testing.T) {
	cause := errors.New("pq: relation \"metals\" does not exist")
	err := Storage(cause)

	assert.Equal(t, KindStorage, KindOf(err))
	assert.Equal(t, "Internal Server Error", PublicMessage(err))
	assert.ErrorIs(t, err, cause)
}

func TestStorage_PassesClassifiedThrough(t *testing.T) {
	notFound := NotFound("Metal not found")
	wrapped := fmt.Errorf("load metal: %w", notFound)

	assert.Same(t, wrapped, Storage(wrapped))
	assert.True(t, Is(wrapped, KindNotFound))
	assert.Equal(t, "Metal not found", PublicMessage(wrapped))
	assert.Nil(t, Storage(nil))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "Conflict", KindConflict.String())
	assert.Equal(t, "StorageFailure", KindStorage.String())
	assert.Equal(t, "Unauthenticated", KindUnauthenticated.String())
}
