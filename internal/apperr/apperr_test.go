package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad subject"), http.StatusBadRequest},
		{Auth("authentication required"), http.StatusUnauthorized},
		{Upstream("tutor unavailable", errors.New("timeout")), http.StatusBadGateway},
		{Config("missing key"), http.StatusInternalServerError},
		{Persistence("store failed", errors.New("boom")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("turn: %w", Upstream("tutor unavailable", errors.New("eof")))
	assert.Equal(t, KindUpstream, KindOf(err))
	assert.True(t, Is(err, KindUpstream))
	assert.Equal(t, "tutor unavailable", Message(err))
}

func TestMessage_HidesUnknownErrors(t *testing.T) {
	assert.Equal(t, "internal error", Message(errors.New("dial tcp 10.0.0.1:3306: refused")))
}
