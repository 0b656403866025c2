package protocol

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const historyFile = ".pilot/history.log"

// AppendHistory appends an executed command entry to the run's history log.
// Command output is included indented with "  | " so the log stays greppable.
func AppendHistory(workDir, runID, command string, success bool, output string) {
	path := filepath.Join(workDir, historyFile)
	_ = os.MkdirAll(filepath.Dir(path), 0755)

	ts := time.Now().UTC().Format(time.RFC3339)
	result := "ok"
	if !success {
		result = "failed"
	}
	entry := fmt.Sprintf("[%s] run:%s cmd:%s result:%s\n", ts, runID, command, result)
	trimmed := strings.TrimRight(output, "\n")
	if trimmed != "" {
		for _, line := range strings.Split(trimmed, "\n") {
			entry += "  | " + line + "\n"
		}
	}
	entry += "\n"

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.WriteString(entry)
}

// AppendHistoryMarker appends a run-level marker (start/end) to the history log.
func AppendHistoryMarker(workDir, marker string) {
	path := filepath.Join(workDir, historyFile)
	_ = os.MkdirAll(filepath.Dir(path), 0755)

	ts := time.Now().UTC().Format(time.RFC3339)
	entry := fmt.Sprintf("[%s] %s\n\n", ts, marker)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.WriteString(entry)
}
