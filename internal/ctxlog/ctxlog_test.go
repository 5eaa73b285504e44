package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithLogger(context.Background(), logger)
	FromContext(ctx).Info("hello")

	assert.Same(t, logger, FromContext(ctx))
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestFromContext_FallsBackToDiscard(t *testing.T) {
	got := FromContext(context.Background())

	assert.Same(t, Discard(), got)
	assert.NotPanics(t, func() { got.Info("dropped") })
}

func TestMustFromContext(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	assert.Same(t, logger, MustFromContext(WithLogger(context.Background(), logger)))
	assert.PanicsWithValue(t, "ctxlog: logger missing from context", func() {
		MustFromContext(context.Background())
	})
	assert.Panics(t, func() {
		MustFromContext(WithLogger(context.Background(), nil))
	})
}
