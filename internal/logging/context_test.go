// Forkcast - Restaurant Discovery and Taste Matching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/forkcast

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestRequestIDRoundTrip(t *testing.T) {
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("empty context request id = %q, want empty", got)
	}

	id := GenerateRequestID()
	if id == "" {
		t.Fatal("GenerateRequestID returned empty string")
	}
	ctx := ContextWithRequestID(context.Background(), id)
	if got := RequestIDFromContext(ctx); got != id {
		t.Errorf("request id = %q, want %q", got, id)
	}
}

func TestCtxEnrichesAndChains(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger()
	SetLogger(zerolog.New(&buf))
	defer SetLogger(prev)

	ctx := ContextWithRequestID(context.Background(), "req-123")

	// The returned logger must support direct chaining of the leveled
	// methods and carry the request id on every event.
	Ctx(ctx).Warn().Msg("first")
	Ctx(ctx).Error().Msg("second")
	Ctx(ctx).Info().Msg("third")

	out := buf.String()
	if strings.Count(out, `"request_id":"req-123"`) != 3 {
		t.Errorf("request id missing from events:\n%s", out)
	}

	buf.Reset()
	Ctx(context.Background()).Info().Msg("bare")
	if strings.Contains(buf.String(), "request_id") {
		t.Errorf("unexpected request id without context value:\n%s", buf.String())
	}
}
