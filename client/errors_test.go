package client

import (
	"testing"

	"github.com/pkg/errors"
)

func TestSurfaceMessage(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"unauthorized", ErrUnauthorized, "Your session has expired. Please sign in again."},
		{"wrapped unauthorized", errors.Wrap(ErrUnauthorized, "presign shot.png"), "Your session has expired. Please sign in again."},
		{"api message", &APIError{Status: 400, Message: "Title is required"}, "Title is required"},
		{"api without message", &APIError{Status: 502}, genericFailure},
		{"plain error", errors.New("dial tcp: connection refused"), genericFailure},
	}
	for _, tc := range cases {
		if got := SurfaceMessage(tc.err); got != tc.want {
			t.Fatalf("%s: SurfaceMessage = %q, want %q", tc.name, got, tc.want)
		}
	}
}
