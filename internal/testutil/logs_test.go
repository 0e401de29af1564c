package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogCapture_RecordsLevelsAndAttrs(t *testing.T) {
	capture, logger := NewLogCapture()

	logger.Debug("applying filter", "column", "title")
	logger.With("filter", "priority").Warn("filter rejected", "reason", `"blocker" is not a priority`)

	records := capture.Records()
	require.Len(t, records, 2)
	assert.Equal(t, slog.LevelDebug, records[0].Level)
	assert.Equal(t, "title", records[0].Attrs["column"])

	warns := capture.AtLevel(slog.LevelWarn)
	require.Len(t, warns, 1)
	assert.Equal(t, "priority", warns[0].Attrs["filter"])
	assert.Contains(t, warns[0].String(), "blocker")
}
