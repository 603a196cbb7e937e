package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("loading project: %w", NotFound("project %s", "p1"))

	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrHTTP))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestErrorMessage(t *testing.T) {
	err := HTTP(500, "database down")
	assert.Equal(t, "database down (status 500)", err.Error())

	err = InvalidFields(map[string]string{
		"name":     "The field 'name' is required.",
		"deadline": "Deadline must be within project start and end dates",
	})
	assert.Equal(t, "invalid input: Deadline must be within project start and end dates; The field 'name' is required.", err.Error())
}

func TestNetworkUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := Network("GET /task/1", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, "Cannot reach the server. Check your connection and retry.", UserMessage(err))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, NotLoadedMessage, UserMessage(NotLoaded()))
	assert.Equal(t, "only Admins can move tasks out of Review into Done", UserMessage(Permission("only Admins can move tasks out of Review into Done")))
}
