package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: NotFound("annonce introuvable"), want: http.StatusNotFound},
		{name: "forbidden", err: Forbidden("You can only delete your own ads"), want: http.StatusForbidden},
		{name: "conflict", err: Conflict("blocked"), want: http.StatusConflict},
		{name: "validation", err: Validation("bad rating"), want: http.StatusBadRequest},
		{name: "wrapped conflict", err: fmt.Errorf("delete ad: %w", Conflict("blocked")), want: http.StatusConflict},
		{name: "plain error", err: errors.New("db down"), want: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}

func TestSentinelMatching(t *testing.T) {
	sentinel := Conflict("already reviewed")
	err := fmt.Errorf("create review: %w", Conflict("already reviewed"))

	assert.True(t, errors.Is(err, sentinel))
	assert.False(t, errors.Is(err, Conflict("something else")))
	assert.True(t, IsKind(err, KindConflict))
	assert.False(t, IsKind(nil, KindConflict))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("record not found")
	err := Wrap(KindNotFound, "utilisateur introuvable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "utilisateur introuvable", err.Error())
}
