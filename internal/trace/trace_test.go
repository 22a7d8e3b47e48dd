package trace

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpansExportWhenEnabled(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Config{Enabled: true, Version: "test", Output: &buf}))
	assert.True(t, Enabled())

	ctx, span := StartSpan(context.Background(), "executor.PlaceOrder")
	traceID, spanID, ok := IDs(ctx)
	assert.True(t, ok)
	assert.NotEmpty(t, traceID)
	assert.NotEmpty(t, spanID)
	Fail(ctx, errors.New("rejected"))
	span.End()

	require.NoError(t, Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "executor.PlaceOrder")
	assert.False(t, Enabled())
}

func TestIDsWithoutSpan(t *testing.T) {
	_, _, ok := IDs(context.Background())
	assert.False(t, ok)
}
