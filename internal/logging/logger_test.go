package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesJSONL(t *testing.T) {
	Shutdown()
	dir := t.TempDir()
	Init(Config{LogDir: dir})
	defer Shutdown()

	Logger().Info("test_message", "key", "value")

	records := readRecords(t, dir)
	require.Len(t, records, 1)
	assert.Equal(t, "test_message", records[0]["msg"])
	assert.Equal(t, "value", records[0]["key"])
}

func TestInitWithoutDirDiscards(t *testing.T) {
	Shutdown()
	Init(Config{Debug: true})
	defer Shutdown()

	require.NotNil(t, Logger())
	Logger().Info("this goes nowhere")
}

func TestLoggerBeforeInit(t *testing.T) {
	Shutdown()
	require.NotNil(t, Logger())
	Logger().Info("discarded")
}

func TestForComponentCreatedBeforeInit(t *testing.T) {
	Shutdown()
	cl := ForComponent(CompWatch)

	dir := t.TempDir()
	Init(Config{LogDir: dir})
	defer Shutdown()

	cl.Info("pass_complete", "session", "infra")

	records := readRecords(t, dir)
	require.Len(t, records, 1)
	assert.Equal(t, CompWatch, records[0]["component"])
	assert.Equal(t, "infra", records[0]["session"])
}

func TestLevelFiltering(t *testing.T) {
	Shutdown()
	dir := t.TempDir()
	Init(Config{LogDir: dir, Level: "warn"})
	defer Shutdown()

	Logger().Info("should_be_filtered")
	Logger().Warn("should_appear")

	records := readRecords(t, dir)
	require.Len(t, records, 1)
	assert.Equal(t, "should_appear", records[0]["msg"])
}

func TestDebugOverridesLevel(t *testing.T) {
	Shutdown()
	dir := t.TempDir()
	Init(Config{LogDir: dir, Level: "error", Debug: true})
	defer Shutdown()

	Logger().Debug("debug_visible")
	records := readRecords(t, dir)
	require.Len(t, records, 1)
}

func TestTextFormat(t *testing.T) {
	Shutdown()
	dir := t.TempDir()
	Init(Config{LogDir: dir, Format: "text"})
	defer Shutdown()

	Logger().Info("text_format_test")

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	require.NoError(t, err)
	var record map[string]any
	assert.Error(t, json.Unmarshal(data, &record), "text format must not be JSON")
	assert.Contains(t, string(data), "text_format_test")
}

func TestDumpRingBuffer(t *testing.T) {
	Shutdown()
	dir := t.TempDir()
	Init(Config{LogDir: dir, RingBufferSize: 1024})
	defer Shutdown()

	Logger().Info("ring_test_message")

	dumpPath := filepath.Join(dir, "watch-crash.jsonl")
	require.NoError(t, DumpRingBuffer(dumpPath))

	data, err := os.ReadFile(dumpPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ring_test_message")
}
