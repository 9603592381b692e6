package hook

import (
	"encoding/json"
)

// UnknownSession is the session id used when the host omits one.
const UnknownSession = "unknown"

// Session start sources.
const (
	SourceStartup = "startup"
	SourceResume  = "resume"
	SourceClear   = "clear"
	SourceUnknown = "unknown"
)

// Event is one lifecycle event delivered by the host agent. Concrete types
// are *SessionStart, *PromptSubmit, *ToolUse and *Stop.
type Event interface {
	Stage() Stage
	Session() string
	// Raw returns the original stdin document.
	Raw() json.RawMessage
}

type base struct {
	SessionID string
	raw       json.RawMessage
}

func (b *base) Session() string      { return b.SessionID }
func (b *base) Raw() json.RawMessage { return b.raw }

// SessionStart is sent when the agent starts, resumes, or clears a session.
type SessionStart struct {
	base
	Source string
}

func (*SessionStart) Stage() Stage { return StageSessionStart }

// PromptSubmit carries the operator's prompt before the agent sees it.
type PromptSubmit struct {
	base
	Prompt string
}

func (*PromptSubmit) Stage() Stage { return StagePromptSubmit }

// ToolInput holds the fields of tool_input that rules care about.
type ToolInput struct {
	Command  string
	FilePath string
	Raw      json.RawMessage
}

// ToolResponse holds the fields of tool_response that advisories care about.
type ToolResponse struct {
	// Text is set only when the response is a plain JSON string.
	Text string
	// FilePath is set only when the response is an object with a file_path.
	FilePath string
	// Success is the response's "success" flag, true unless the response is
	// an object carrying "success": false.
	Success bool
	Raw     json.RawMessage
}

// ToolUse is sent before (PreToolUse) and after (PostToolUse) a tool runs.
type ToolUse struct {
	base
	stage    Stage
	ToolName string
	Input    ToolInput
	Response ToolResponse
}

func (t *ToolUse) Stage() Stage { return t.stage }

// IsShell reports whether the tool runs a shell command.
func (t *ToolUse) IsShell() bool { return t.ToolName == "Bash" }

// IsFileMutation reports whether the tool writes to Input.FilePath.
func (t *ToolUse) IsFileMutation() bool {
	switch t.ToolName {
	case "Write", "Edit", "MultiEdit":
		return true
	}
	return false
}

// IsFileRead reports whether the tool only reads Input.FilePath.
func (t *ToolUse) IsFileRead() bool { return t.ToolName == "Read" }

// Stop is sent when the agent finishes responding.
type Stop struct {
	base
	// Active is set when the host is already continuing because of a stop
	// hook. Acting on it again would loop.
	Active bool
}

func (*Stop) Stage() Stage { return StageStop }

// NewPromptSubmit builds a PromptSubmit event without a raw document.
func NewPromptSubmit(sessionID, prompt string) *PromptSubmit {
	return &PromptSubmit{base: base{SessionID: sessionID}, Prompt: prompt}
}

// NewToolUse builds a tool event for the given stage without a raw document.
func NewToolUse(stage Stage, sessionID, toolName string, input ToolInput) *ToolUse {
	return &ToolUse{
		base:     base{SessionID: sessionID},
		stage:    stage,
		ToolName: toolName,
		Input:    input,
		Response: ToolResponse{Success: true},
	}
}

func normalizeSource(s string) string {
	switch s {
	case SourceStartup, SourceResume, SourceClear:
		return s
	}
	return SourceUnknown
}
