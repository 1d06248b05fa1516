package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFetchError(t *testing.T) {
	statusErr := &FetchError{Kind: FetchStatus, Path: "/webhook/tasks", Status: 502}
	assert.Equal(t, "upstream /webhook/tasks: status 502", statusErr.Error())

	cause := errors.New("connection refused")
	wrapped := fmt.Errorf("load tasks: %w", &FetchError{Kind: FetchTransport, Path: "/webhook/goals", Err: cause})
	assert.Equal(t, FetchTransport, FetchErrorKind(wrapped))
	assert.ErrorIs(t, wrapped, cause)

	assert.Equal(t, FetchKind(""), FetchErrorKind(cause))
}
