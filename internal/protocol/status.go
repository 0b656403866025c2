package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

type MessageType string

const (
	MsgRunStarted    MessageType = "run_started"
	MsgPlanCreated   MessageType = "plan_created"
	MsgStepStarted   MessageType = "step_started"
	MsgStepCompleted MessageType = "step_completed"
	MsgCommandRun    MessageType = "command_run"
	MsgConfirmNeeded MessageType = "confirmation_needed"
	MsgRunCompleted  MessageType = "run_completed"
	MsgLog           MessageType = "log"
	MsgError         MessageType = "error"
)

type StatusMessage struct {
	Type      MessageType `json:"type"`
	RunID     string      `json:"run_id,omitempty"`
	Step      int         `json:"step,omitempty"`
	Command   string      `json:"command,omitempty"`
	Result    string      `json:"result,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// StatusWriter emits run progress as a JSON-lines stream.
type StatusWriter struct {
	w   io.Writer
	enc *json.Encoder
}

func NewStatusWriter(w io.Writer) *StatusWriter {
	return &StatusWriter{w: w, enc: json.NewEncoder(w)}
}

func (s *StatusWriter) RunStarted(runID, goal string) {
	s.write(StatusMessage{Type: MsgRunStarted, RunID: runID, Message: goal})
}

func (s *StatusWriter) PlanCreated(runID string, stepCount int) {
	s.write(StatusMessage{Type: MsgPlanCreated, RunID: runID, Step: stepCount})
}

func (s *StatusWriter) StepStarted(runID string, step int, action string) {
	s.write(StatusMessage{Type: MsgStepStarted, RunID: runID, Step: step, Message: action})
}

func (s *StatusWriter) StepCompleted(runID string, step int, result string) {
	s.write(StatusMessage{Type: MsgStepCompleted, RunID: runID, Step: step, Result: result})
}

func (s *StatusWriter) CommandRun(runID string, step int, command, result string) {
	s.write(StatusMessage{Type: MsgCommandRun, RunID: runID, Step: step, Command: command, Result: result})
}

func (s *StatusWriter) ConfirmationNeeded(runID, requestID, command string) {
	s.write(StatusMessage{Type: MsgConfirmNeeded, RunID: runID, Command: command, Message: requestID})
}

func (s *StatusWriter) RunCompleted(runID, result string) {
	s.write(StatusMessage{Type: MsgRunCompleted, RunID: runID, Result: result})
}

func (s *StatusWriter) Log(runID, message string) {
	s.write(StatusMessage{Type: MsgLog, RunID: runID, Message: message})
}

func (s *StatusWriter) Error(runID, message string) {
	s.write(StatusMessage{Type: MsgError, RunID: runID, Message: message})
}

func (s *StatusWriter) write(msg StatusMessage) {
	msg.Timestamp = time.Now()
	_ = s.enc.Encode(msg)
}

// ParseStatusStream decodes a recorded JSON-lines status stream.
func ParseStatusStream(data []byte) ([]StatusMessage, error) {
	var msgs []StatusMessage
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var msg StatusMessage
		if err := dec.Decode(&msg); err != nil {
			return msgs, fmt.Errorf("failed to decode status message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}
