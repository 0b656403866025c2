package protocol_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilot-dev/pilot/internal/protocol"
)

func TestStatusWriter_StreamRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := protocol.NewStatusWriter(&buf)

	w.RunStarted("run-calm-oak-0042", "list the files")
	w.PlanCreated("run-calm-oak-0042", 2)
	w.StepStarted("run-calm-oak-0042", 1, "list the files")
	w.CommandRun("run-calm-oak-0042", 1, "ls", "notes.txt")
	w.StepCompleted("run-calm-oak-0042", 1, "done")
	w.RunCompleted("run-calm-oak-0042", "all steps done")

	msgs, err := protocol.ParseStatusStream(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, msgs, 6)

	assert.Equal(t, protocol.MsgRunStarted, msgs[0].Type)
	assert.Equal(t, "run-calm-oak-0042", msgs[0].RunID)
	assert.Equal(t, "list the files", msgs[0].Message)

	assert.Equal(t, protocol.MsgCommandRun, msgs[3].Type)
	assert.Equal(t, "ls", msgs[3].Command)
	assert.Equal(t, "notes.txt", msgs[3].Result)
	assert.False(t, msgs[3].Timestamp.IsZero())

	// One JSON object per line.
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 6)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "{"), "not a JSON line: %q", line)
	}
}

func TestParseStatusStream_BadInput(t *testing.T) {
	msgs, err := protocol.ParseStatusStream([]byte(`{"type":"log"}` + "\n" + `not json`))
	assert.Error(t, err)
	assert.Len(t, msgs, 1, "messages before the corruption are kept")
}

func TestAppendHistory(t *testing.T) {
	dir := t.TempDir()

	protocol.AppendHistoryMarker(dir, "run run-calm-oak-0042 started")
	protocol.AppendHistory(dir, "run-calm-oak-0042", "ls -la", true, "total 8\nnotes.txt")
	protocol.AppendHistory(dir, "run-calm-oak-0042", "cat missing", false, "")

	data, err := os.ReadFile(filepath.Join(dir, ".pilot", "history.log"))
	require.NoError(t, err)
	log := string(data)

	assert.Contains(t, log, "run run-calm-oak-0042 started")
	assert.Contains(t, log, "cmd:ls -la result:ok")
	assert.Contains(t, log, "  | total 8")
	assert.Contains(t, log, "  | notes.txt")
	assert.Contains(t, log, "cmd:cat missing result:failed")
}
