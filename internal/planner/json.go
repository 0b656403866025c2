package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pilot-dev/pilot/internal/domain"
	"github.com/pilot-dev/pilot/internal/ports"
)

// ExtractJSON pulls the JSON payload out of an LLM response, tolerating
// markdown fences and prose around the object or array.
func ExtractJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)

	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+3:]
		s = strings.TrimPrefix(s, "json")
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", fmt.Errorf("no JSON payload in response: %q", truncate(raw, 120))
	}
	var end int
	if s[start] == '{' {
		end = strings.LastIndex(s, "}")
	} else {
		end = strings.LastIndex(s, "]")
	}
	if end < start {
		return "", fmt.Errorf("unterminated JSON payload in response: %q", truncate(raw, 120))
	}
	return s[start : end+1], nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

type plannedStepJSON struct {
	StepNumber int    `json:"step_number"`
	Agent      string `json:"agent"`
	Action     string `json:"action"`
}

type actionJSON struct {
	Command string `json:"command"`
	Done    bool   `json:"done"`
	Reason  string `json:"reason"`
}

type selectionJSON struct {
	Found  *bool  `json:"found"`
	Cell   int    `json:"cell"`
	Reason string `json:"reason"`
}

// decodePlan parses the planner's step list. Unknown agent kinds fall back to
// terminal so a sloppy model answer degrades to the most observable path.
func decodePlan(raw string) ([]*domain.Step, error) {
	payload, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	var parsed []plannedStepJSON
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, fmt.Errorf("decoding plan: %w", err)
	}

	steps := make([]*domain.Step, 0, len(parsed))
	for i, p := range parsed {
		if strings.TrimSpace(p.Action) == "" {
			continue
		}
		agent := domain.AgentKind(p.Agent)
		if agent != domain.AgentTerminal && agent != domain.AgentGeneral {
			agent = domain.AgentTerminal
		}
		steps = append(steps, &domain.Step{
			StepNumber: i + 1,
			Agent:      agent,
			Action:     strings.TrimSpace(p.Action),
			Status:     domain.StepStatusPending,
		})
	}
	return steps, nil
}

func decodeAction(raw string) (ports.Action, error) {
	payload, err := ExtractJSON(raw)
	if err != nil {
		return ports.Action{}, err
	}
	var parsed actionJSON
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return ports.Action{}, fmt.Errorf("decoding action: %w", err)
	}
	if !parsed.Done && strings.TrimSpace(parsed.Command) == "" {
		return ports.Action{}, fmt.Errorf("planner returned neither a command nor done")
	}
	return ports.Action{
		Command: strings.TrimSpace(parsed.Command),
		Done:    parsed.Done,
		Reason:  parsed.Reason,
	}, nil
}

// decodeSelection parses a cell choice. An explicit refusal (found=false or a
// zero cell) maps to ports.ErrTargetNotFound so callers can tell "not on
// screen" apart from a broken response.
func decodeSelection(raw string) (ports.Selection, error) {
	payload, err := ExtractJSON(raw)
	if err != nil {
		return ports.Selection{}, err
	}
	var parsed selectionJSON
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return ports.Selection{}, fmt.Errorf("decoding selection: %w", err)
	}
	if (parsed.Found != nil && !*parsed.Found) || parsed.Cell == 0 {
		return ports.Selection{}, ports.ErrTargetNotFound
	}
	if parsed.Cell < 0 {
		return ports.Selection{}, fmt.Errorf("invalid cell %d", parsed.Cell)
	}
	return ports.Selection{Cell: parsed.Cell, Reason: parsed.Reason}, nil
}
