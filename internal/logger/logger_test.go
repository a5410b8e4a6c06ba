package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVerboseGating(t *testing.T) {
	var buf bytes.Buffer
	verbose := false
	log := NewWithWriter("parser", &callbackChecker{callback: func() bool { return verbose }}, &buf)

	log.Debug("hidden %d", 1)
	log.Info("hidden")
	assert.Empty(t, buf.String())

	log.Warn("shown %s", "warn")
	log.Error("shown error")
	out := buf.String()
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "shown warn")
	assert.Contains(t, out, "ERROR")
	assert.Contains(t, out, "parser")

	buf.Reset()
	verbose = true
	log.Debug("now visible")
	assert.Contains(t, buf.String(), "DEBUG")
	assert.Contains(t, buf.String(), "now visible")
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("", &callbackChecker{callback: func() bool { return true }}, &buf)

	log.InfoWithFields("parsed %s", []Field{
		Count(42),
		Duration(1500 * time.Millisecond),
		Error(errors.New("boom")),
		F("format", "syslog"),
	}, "input")

	out := buf.String()
	assert.Contains(t, out, "main")
	assert.Contains(t, out, "parsed input")
	assert.Contains(t, out, `"count": 42`)
	assert.Contains(t, out, `"duration": "1.5s"`)
	assert.Contains(t, out, `"error": "boom"`)
	assert.Contains(t, out, `"format": "syslog"`)
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("cli", nil, &buf).WithComponent("filter")

	log.Warn("missing stopwords")
	log.Info("dropped without a checker")

	out := strings.TrimSpace(buf.String())
	assert.Equal(t, 1, strings.Count(out, "\n")+1)
	assert.Contains(t, out, "filter")
	assert.NotContains(t, out, "cli")
}

func TestNilCallback(t *testing.T) {
	log := NewWithCallback("x", nil)
	assert.False(t, log.IsVerbose())
}
