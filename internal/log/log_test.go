package log

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithAttrsBranchesKeepSeparateSections(t *testing.T) {
	// parent slice with spare capacity, as left behind by earlier appends
	parent := &filteringHandler{
		underlying: slog.NewTextHandler(io.Discard, nil),
		sections:   append(make([]string, 0, 4), "types"),
	}

	first := parent.WithAttrs([]slog.Attr{slog.String("section", "overload")}).(*filteringHandler)
	second := parent.WithAttrs([]slog.Attr{slog.String("section", "parser")}).(*filteringHandler)

	assert.Equal(t, []string{"types", "overload"}, first.sections)
	assert.Equal(t, []string{"types", "parser"}, second.sections)
	assert.Equal(t, []string{"types"}, parent.sections)
}

func TestFilteringHandlerSectionGate(t *testing.T) {
	cases := []struct {
		name    string
		level   slog.Level
		section string
		kept    bool
	}{
		{name: "debug in an enabled section is kept", level: slog.LevelDebug, section: "types", kept: true},
		{name: "debug in an unknown section is dropped", level: slog.LevelDebug, section: "wibble", kept: false},
		{name: "debug with no section is dropped", level: slog.LevelDebug, kept: false},
		{name: "warn passes regardless of section", level: slog.LevelWarn, section: "wibble", kept: true},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &filteringHandler{underlying: slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})}
			rec := slog.NewRecord(time.Time{}, tt.level, "judging pair", 0)
			if tt.section != "" {
				rec.AddAttrs(slog.String("section", tt.section))
			}

			assert.NoError(t, h.Handle(context.Background(), rec))
			assert.Equal(t, tt.kept, buf.Len() > 0)
		})
	}
}

func TestSectionAttrStaysOutOfRecords(t *testing.T) {
	var buf bytes.Buffer
	base := &filteringHandler{underlying: slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})}
	h := base.WithAttrs([]slog.Attr{slog.String("section", "types"), slog.String("pass", "structural")})

	rec := slog.NewRecord(time.Time{}, slog.LevelDebug, "judging pair", 0)
	assert.NoError(t, h.Handle(context.Background(), rec))

	out := buf.String()
	assert.Contains(t, out, "pass=structural")
	assert.NotContains(t, out, "section=")
}
