package planner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/pilot-dev/pilot/internal/domain"
	"github.com/pilot-dev/pilot/internal/ports"
)

// CommandClient invokes an agent CLI for planner decisions when no API key is
// configured. The prompt goes in on stdin; images are written to a temp file
// the CLI is asked to read.
type CommandClient struct {
	Command string
	Args    []string
}

func NewCommandClient(command string, args ...string) *CommandClient {
	if command == "" {
		command = "claude"
		if len(args) == 0 {
			args = []string{"-p", "--output-format", "text"}
		}
	}
	return &CommandClient{Command: command, Args: args}
}

func (c *CommandClient) Plan(ctx context.Context, goal string, _ []byte) ([]*domain.Step, error) {
	raw, err := c.invoke(ctx, planPrompt(goal))
	if err != nil {
		return nil, err
	}
	return decodePlan(raw)
}

func (c *CommandClient) NextAction(ctx context.Context, goal, cwd string, history []domain.CommandRecord) (ports.Action, error) {
	raw, err := c.invoke(ctx, nextActionPrompt(goal, cwd, history))
	if err != nil {
		return ports.Action{}, err
	}
	return decodeAction(raw)
}

func (c *CommandClient) SelectCell(ctx context.Context, image []byte, description string) (ports.Selection, error) {
	f, err := os.CreateTemp("", "pilot-grid-*.png")
	if err != nil {
		return ports.Selection{}, fmt.Errorf("writing screenshot: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(image); err != nil {
		f.Close()
		return ports.Selection{}, fmt.Errorf("writing screenshot: %w", err)
	}
	f.Close()

	prompt := selectCellPrompt(description) +
		fmt.Sprintf("\n\nThe annotated screenshot is the image file at %s. Read it first.", f.Name())
	raw, err := c.invoke(ctx, prompt)
	if err != nil {
		return ports.Selection{}, err
	}
	return decodeSelection(raw)
}

func (c *CommandClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.invoke(ctx, prompt)
}

func (c *CommandClient) invoke(ctx context.Context, prompt string) (string, error) {
	cmd := exec.CommandContext(ctx, c.Command, c.Args...)
	cmd.Stdin = strings.NewReader(prompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("planner command failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}
	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return "", fmt.Errorf("empty response from planner command")
	}
	return out, nil
}
