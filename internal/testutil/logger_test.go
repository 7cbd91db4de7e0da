package testutil

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTB struct {
	testing.TB
	lines []string
}

func (r *recordingTB) Helper() {}

func (r *recordingTB) Log(args ...any) { r.lines = append(r.lines, fmt.Sprint(args...)) }

func TestNewTestLogger(t *testing.T) {
	tb := &recordingTB{TB: t}
	logger := NewTestLogger(tb)

	logger.Debug("script converted", "path", "procs/get_orders.sql")

	require.Len(t, tb.lines, 1)
	assert.Contains(t, tb.lines[0], `level=DEBUG msg="script converted" path=procs/get_orders.sql`)
	assert.NotContains(t, tb.lines[0], "time=")
}
