package logger_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookrecon/internal/logger"
)

func TestSetupWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookrecon.log")

	cfg := logger.DefaultConfig()
	cfg.Format = "json"
	cfg.Output = path
	cfg.Level = "debug"
	require.NoError(t, logger.Setup(cfg))
	t.Cleanup(func() {
		_ = logger.Close()
		_ = logger.Setup(logger.DefaultConfig())
	})

	log := logger.WithComponent("test")
	log.Info().Str("file", "R1.pdf").Msg("Parsed")
	runLog := logger.ForRun("reconciliation", "run-1")
	runLog.Debug().Msg("Run started")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "test", first["component"])
	assert.Equal(t, "R1.pdf", first["file"])
	assert.Equal(t, "info", first["level"])

	var second map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "run-1", second["run_id"])
	assert.Equal(t, "reconciliation", second["component"])
}

func TestSetupRejectsUnknownLevel(t *testing.T) {
	cfg := logger.DefaultConfig()
	cfg.Level = "loud"
	assert.Error(t, logger.Setup(cfg))
}

func TestCloseWithoutFile(t *testing.T) {
	require.NoError(t, logger.Setup(logger.DefaultConfig()))
	assert.NoError(t, logger.Close())
}
