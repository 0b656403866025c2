package planner

import (
	"fmt"
	"strings"

	"github.com/pilot-dev/pilot/internal/domain"
)

const planSystem = `You are a desktop automation planner. Decompose the user's goal into the
smallest ordered list of steps that achieves it.

Each step is handled by one agent:
- "terminal": a shell session on this machine; the action is a concrete task
  for the shell operator (commands are decided later, one at a time).
- "general": a reasoning task answered directly, with no side effects.

Respond with a JSON array only:
[{"step_number": 1, "agent": "terminal", "action": "..."}]`

func planPrompt(goal string) string {
	return fmt.Sprintf("%s\n\n## Goal\n%s", planSystem, goal)
}

const nextActionSystem = `You operate a shell one command at a time. Given the task and the commands
already run with their output, decide the single next command, or declare the
task finished.

Rules:
- One command per response. No interactive programs, no editors.
- If a previous command failed, diagnose from its output and adjust.
- Declare done as soon as the task is satisfied; do not add extra commands.

Respond with JSON only, one of:
{"command": "<shell command>", "reason": "<why>"}
{"done": true, "reason": "<what was accomplished>"}`

func nextActionPrompt(goal, cwd string, history []domain.CommandRecord) string {
	var b strings.Builder
	b.WriteString(nextActionSystem)
	b.WriteString("\n\n## Task\n")
	b.WriteString(goal)
	b.WriteString("\n\n## Working directory\n")
	b.WriteString(cwd)

	if len(history) > 0 {
		b.WriteString("\n\n## Commands so far\n")
		for i, rec := range history {
			status := "ok"
			if !rec.Success {
				status = "FAILED"
			}
			fmt.Fprintf(&b, "### %d. `%s` (%s)\n", i+1, rec.Command, status)
			out := strings.TrimSpace(rec.Output)
			if out == "" {
				b.WriteString("(no output)\n")
			} else {
				fmt.Fprintf(&b, "```\n%s\n```\n", truncate(out, 4000))
			}
		}
	}
	return b.String()
}

const selectCellSystem = `The screenshot has a numbered grid drawn over it. Find the UI element the
user describes and answer with the number of the cell that contains it, or
declare it absent.

Respond with JSON only, one of:
{"found": true, "cell": <number>, "reason": "<what you see there>"}
{"found": false, "reason": "<why the element is not visible>"}`

func selectCellPrompt(description string) string {
	return fmt.Sprintf("%s\n\n## Element to find\n%s", selectCellSystem, description)
}
