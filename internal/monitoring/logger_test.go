package monitoring

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func restore(t *testing.T) {
	t.Helper()
	t.Cleanup(Snapshot())
}

func TestSetLogger(t *testing.T) {
	restore(t)

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")
	assert.True(t, called, "custom logger was not called")

	// nil installs a no-op; this must not panic
	SetLogger(nil)
	Logf("test message")
	Logger().Info().Msg("dropped")
}

func TestSetOutputAndLevel(t *testing.T) {
	restore(t)

	var buf bytes.Buffer
	SetOutput(&buf)

	Logf("chip %d done", 12)
	assert.Contains(t, buf.String(), "chip 12 done")

	buf.Reset()
	Debugf("hidden %d", 1)
	assert.Empty(t, buf.String())

	SetLevel(zerolog.DebugLevel)
	Debugf("shown %d", 2)
	assert.Contains(t, buf.String(), "shown 2")

	buf.Reset()
	Logger().Info().Int("missing", 3).Msg("xray")
	assert.Contains(t, buf.String(), "missing=3")

	buf.Reset()
	Warnf("careful")
	assert.Contains(t, buf.String(), "careful")
}

func TestSnapshot(t *testing.T) {
	restore(t)

	var before, during bytes.Buffer
	SetOutput(&before)
	undo := Snapshot()

	SetOutput(&during)
	SetLevel(zerolog.DebugLevel)
	Debugf("inside")
	undo()

	Debugf("after")
	Logf("chip %d", 13)
	assert.Contains(t, during.String(), "inside")
	assert.NotContains(t, before.String(), "after", "debug level is restored too")
	assert.Contains(t, before.String(), "chip 13")
	assert.NotContains(t, during.String(), "chip 13")
}
