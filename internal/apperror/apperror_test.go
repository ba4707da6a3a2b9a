package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesKindAndRule(t *testing.T) {
	err := Conflict(RuleJobFull, "job is full")

	assert.True(t, errors.Is(err, ErrConflict))
	assert.True(t, errors.Is(err, &Error{Kind: KindConflict, Rule: RuleJobFull}))
	assert.False(t, errors.Is(err, &Error{Kind: KindConflict, Rule: RuleDeadlinePassed}))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestWrappedErrorKeepsKind(t *testing.T) {
	err := fmt.Errorf("apply: %w", Forbidden(RuleWrongRole, "only applicants can apply"))

	assert.Equal(t, KindForbidden, KindOf(err))
	assert.Equal(t, RuleWrongRole, RuleOf(err))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(err))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[error]int{
		NotFound("job not found"):                   http.StatusNotFound,
		Forbidden(RuleNotOwner, "not yours"):        http.StatusForbidden,
		Conflict(RuleInvalidTransition, "wrong"):    http.StatusConflict,
		Invalid("sop is required"):                  http.StatusBadRequest,
		Internal("db down", errors.New("refused")):  http.StatusInternalServerError,
		errors.New("something that is not ours"):    http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, HTTPStatus(err), err.Error())
	}
}

func TestPublicMessageHidesInternalDetail(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := Internal("failed to load job", cause)

	assert.Equal(t, "Internal server error", PublicMessage(err))
	assert.Contains(t, err.Error(), "connection refused")
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, "job not found", PublicMessage(NotFound("job not found")))
}
