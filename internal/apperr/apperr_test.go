package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOfThroughWrapping(t *testing.T) {
	base := New(UpstreamMalformedResponse, errors.New("bad json"))
	wrapped := fmt.Errorf("classify: %w", base)

	if got := KindOf(wrapped); got != UpstreamMalformedResponse {
		t.Fatalf("KindOf = %v, want %v", got, UpstreamMalformedResponse)
	}
	if wrapped.Error() != "classify: bad json" {
		t.Fatalf("unexpected message %q", wrapped.Error())
	}
}

func TestKindOfUntagged(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != Internal {
		t.Fatalf("KindOf = %v, want Internal", got)
	}
}

func TestNewNil(t *testing.T) {
	if err := New(PersistenceFailure, nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestUnwrapKeepsCause(t *testing.T) {
	err := New(UpstreamUnavailable, context.DeadlineExceeded)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("cause lost")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		InvalidRequest:            http.StatusUnprocessableEntity,
		UpstreamUnavailable:       http.StatusBadGateway,
		UpstreamMalformedResponse: http.StatusBadGateway,
		ConfigurationMissing:      http.StatusServiceUnavailable,
		PersistenceFailure:        http.StatusInternalServerError,
		Internal:                  http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := HTTPStatus(kind); got != want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", kind, got, want)
		}
	}
}
