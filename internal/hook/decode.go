package hook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MaxInputBytes caps stdin reads. Hook payloads are small JSON objects.
const MaxInputBytes = 1 << 20

// ErrInput is the sentinel matched by every ParseError.
var ErrInput = errors.New("invalid hook input")

// ParseError reports a hook payload that is not a JSON object.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing hook input: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrInput) true for any ParseError.
func (e *ParseError) Is(target error) bool { return target == ErrInput }

// Read reads at most MaxInputBytes from r and decodes the event for stage.
func Read(stage Stage, r io.Reader) (Event, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxInputBytes+1))
	if err != nil {
		return nil, &ParseError{Err: fmt.Errorf("reading stdin: %w", err)}
	}
	if len(data) > MaxInputBytes {
		return nil, &ParseError{Err: fmt.Errorf("input exceeds %d bytes", MaxInputBytes)}
	}
	return Decode(stage, data)
}

// Decode parses one hook document for stage. Only a document that is not a
// JSON object is an error; missing or mistyped fields fall back to zero
// values and session_id falls back to UnknownSession.
func Decode(stage Stage, data []byte) (Event, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &ParseError{Err: errors.New("empty input")}
	}
	if trimmed[0] != '{' {
		return nil, &ParseError{Err: errors.New("input is not a JSON object")}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, &ParseError{Err: err}
	}

	raw := json.RawMessage(append([]byte(nil), trimmed...))
	b := base{SessionID: stringField(fields, "session_id"), raw: raw}
	if b.SessionID == "" {
		b.SessionID = UnknownSession
	}

	switch stage {
	case StageSessionStart:
		return &SessionStart{base: b, Source: normalizeSource(stringField(fields, "source"))}, nil
	case StagePromptSubmit:
		return &PromptSubmit{base: b, Prompt: stringField(fields, "prompt")}, nil
	case StagePreToolUse, StagePostToolUse:
		return &ToolUse{
			base:     b,
			stage:    stage,
			ToolName: stringField(fields, "tool_name"),
			Input:    decodeToolInput(fields["tool_input"]),
			Response: decodeToolResponse(fields["tool_response"]),
		}, nil
	case StageStop:
		return &Stop{base: b, Active: boolField(fields, "stop_hook_active")}, nil
	default:
		return nil, fmt.Errorf("unknown stage %q", stage)
	}
}

func decodeToolInput(raw json.RawMessage) ToolInput {
	in := ToolInput{Raw: raw}
	var obj map[string]json.RawMessage
	if json.Unmarshal(raw, &obj) != nil {
		return in
	}
	in.Command = stringField(obj, "command")
	in.FilePath = stringField(obj, "file_path")
	return in
}

func decodeToolResponse(raw json.RawMessage) ToolResponse {
	resp := ToolResponse{Success: true, Raw: raw}
	if len(raw) == 0 {
		return resp
	}

	var text string
	if json.Unmarshal(raw, &text) == nil {
		resp.Text = text
		return resp
	}

	var obj map[string]json.RawMessage
	if json.Unmarshal(raw, &obj) != nil {
		return resp
	}
	resp.FilePath = stringField(obj, "file_path")
	if v, ok := obj["success"]; ok {
		var success bool
		if json.Unmarshal(v, &success) == nil {
			resp.Success = success
		}
	}
	return resp
}

// stringField returns fields[key] as a string, or "" if absent or not a string.
func stringField(fields map[string]json.RawMessage, key string) string {
	v, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if json.Unmarshal(v, &s) != nil {
		return ""
	}
	return s
}

// boolField returns fields[key] as a bool, or false if absent or not a bool.
func boolField(fields map[string]json.RawMessage, key string) bool {
	v, ok := fields[key]
	if !ok {
		return false
	}
	var b bool
	if json.Unmarshal(v, &b) != nil {
		return false
	}
	return b
}
