package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readRecords(t *testing.T, dir string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	require.NoError(t, err)

	var records []map[string]any
	start := 0
	for i, b := range data {
		if b == '\n' {
			var r map[string]any
			if err := json.Unmarshal(data[start:i], &r); err == nil {
				records = append(records, r)
			}
			start = i + 1
		}
	}
	return records
}

func TestBridgeWriterParsesCategory(t *testing.T) {
	Shutdown()
	dir := t.TempDir()
	Init(Config{Debug: true, LogDir: dir})
	defer Shutdown()

	bw := NewBridgeWriter("legacy")
	tests := []struct {
		input    string
		wantComp string
		wantMsg  string
	}{
		{"[TMUX] capture-pane slow\n", CompHost, "capture-pane slow"},
		{"[WEBHOOK] post failed\n", CompNotify, "post failed"},
		{"[IDLE] threshold crossed\n", CompWatch, "threshold crossed"},
		{"plain message without category\n", "legacy", "plain message without category"},
	}
	for _, tt := range tests {
		_, _ = bw.Write([]byte(tt.input))
	}

	records := readRecords(t, dir)
	require.Len(t, records, len(tests))
	for i, tt := range tests {
		assert.Equal(t, tt.wantComp, records[i]["component"], "record %d", i)
		assert.Equal(t, tt.wantMsg, records[i]["msg"], "record %d", i)
	}
}

func TestBridgeWriterStripsTimestamp(t *testing.T) {
	Shutdown()
	dir := t.TempDir()
	Init(Config{Debug: true, LogDir: dir})
	defer Shutdown()

	bw := NewBridgeWriter("legacy")
	_, _ = bw.Write([]byte("15:04:05.000000 [STATE] saved\n"))

	records := readRecords(t, dir)
	require.Len(t, records, 1)
	assert.Equal(t, "saved", records[0]["msg"])
	assert.Equal(t, CompState, records[0]["component"])
}

func TestBridgeWriterEmptyInput(t *testing.T) {
	bw := NewBridgeWriter("legacy")
	n, err := bw.Write([]byte("  \n"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestStripLogTimestamp(t *testing.T) {
	assert.Equal(t, "msg", stripLogTimestamp("15:04:05.123456 msg"))
	assert.Equal(t, "msg", stripLogTimestamp("15:04:05 msg"))
	assert.Equal(t, "no timestamp", stripLogTimestamp("no timestamp"))
}

func TestCanonicalComponent(t *testing.T) {
	assert.Equal(t, CompHost, canonicalComponent("tmux"))
	assert.Equal(t, CompNotify, canonicalComponent("notif"))
	assert.Equal(t, CompState, canonicalComponent("mapping"))
	assert.Equal(t, "custom", canonicalComponent("custom"))
}
