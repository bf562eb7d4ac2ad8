package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilteringHandler(t *testing.T) {
	enabledSections = sectionsFrom("")
	buf := &bytes.Buffer{}
	logger := slog.New(&filteringHandler{underlying: slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})})

	logger.With("section", "saturate").Debug("kept")
	logger.With("section", "parser").Debug("dropped")
	logger.With("section", "parser").Warn("warned")
	logger.Info("by attribute", "section", "graph")

	out := buf.String()
	assert.Contains(t, out, "msg=kept")
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "msg=warned")
	assert.Contains(t, out, `msg="by attribute"`)
}

func TestSectionsFrom(t *testing.T) {
	assert.Equal(t, []string{"saturate", "cli"}, sectionsFrom(" saturate, ,cli"))
	assert.Contains(t, sectionsFrom(""), "hypothesis")
}
