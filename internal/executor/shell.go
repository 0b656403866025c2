package executor

import (
	"context"
	"os/exec"
	"strings"
)

// cwdSentinel marks the line where the wrapper script prints the shell's
// final working directory. Unusual enough not to collide with real output.
const cwdSentinel = "__PILOT_CWD__:"

// CommandRunner executes one shell command in the given working directory and
// reports the captured output and the directory the shell ended up in.
type CommandRunner interface {
	Run(ctx context.Context, command, cwd string) (output, finalCwd string, err error)
}

// ShellRunner runs commands through `sh -c`. The command is wrapped so the
// shell reports $PWD after the command finishes; a `cd` inside the command is
// observed without parsing the command text. The command's own exit status is
// preserved.
type ShellRunner struct{}

func (ShellRunner) Run(ctx context.Context, command, cwd string) (string, string, error) {
	script := command + "\n" +
		"__pilot_status=$?\n" +
		"printf '\\n" + cwdSentinel + "%s\\n' \"$PWD\"\n" +
		"exit $__pilot_status\n"

	cmd := exec.CommandContext(ctx, "sh", "-c", script)
	cmd.Dir = cwd

	raw, err := cmd.CombinedOutput()
	output, finalCwd := splitSentinel(string(raw))
	if finalCwd == "" {
		finalCwd = cwd
	}
	return output, finalCwd, err
}

// splitSentinel strips the sentinel line from the captured output and returns
// the reported working directory.
func splitSentinel(raw string) (output, cwd string) {
	lines := strings.Split(raw, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(line, cwdSentinel) {
			cwd = strings.TrimPrefix(line, cwdSentinel)
			continue
		}
		kept = append(kept, line)
	}
	output = strings.TrimRight(strings.Join(kept, "\n"), "\n")
	return output, cwd
}
