// Package hook defines the boundary between the host agent and hookguard:
// lifecycle stages, the events delivered on stdin, and the exit codes that
// carry a verdict back.
package hook

import (
	"fmt"
	"strings"
)

// Stage is one lifecycle moment of the host agent.
type Stage string

// Stages use the host protocol's event names.
const (
	StageSessionStart Stage = "SessionStart"
	StagePromptSubmit Stage = "UserPromptSubmit"
	StagePreToolUse   Stage = "PreToolUse"
	StagePostToolUse  Stage = "PostToolUse"
	StageStop         Stage = "Stop"
)

// Exit codes understood by the host agent.
const (
	// ExitAllow lets the action proceed.
	ExitAllow = 0
	// ExitBadInput signals malformed input or an internal fault.
	ExitBadInput = 1
	// ExitBlock vetoes the action. Distinct from ExitBadInput so the host
	// can tell "vetoed" from "crashed".
	ExitBlock = 2
)

// AllStages returns every stage in lifecycle order.
func AllStages() []Stage {
	return []Stage{
		StageSessionStart,
		StagePromptSubmit,
		StagePreToolUse,
		StagePostToolUse,
		StageStop,
	}
}

// CommandName is the CLI subcommand name for the stage (e.g. "pre-tool-use").
func (s Stage) CommandName() string {
	switch s {
	case StageSessionStart:
		return "session-start"
	case StagePromptSubmit:
		return "prompt-submit"
	case StagePreToolUse:
		return "pre-tool-use"
	case StagePostToolUse:
		return "post-tool-use"
	case StageStop:
		return "stop"
	default:
		return strings.ToLower(string(s))
	}
}

// LogName is the base name of the stage's audit log file, without extension.
func (s Stage) LogName() string {
	switch s {
	case StageSessionStart:
		return "session_start"
	case StagePromptSubmit:
		return "user_prompt_submit"
	case StagePreToolUse:
		return "pre_tool_use"
	case StagePostToolUse:
		return "post_tool_use"
	case StageStop:
		return "stop"
	default:
		return strings.ToLower(string(s))
	}
}

// CanBlock reports whether the stage is allowed to return ExitBlock.
func (s Stage) CanBlock() bool {
	return s == StagePreToolUse || s == StagePromptSubmit
}

func (s Stage) String() string {
	return string(s)
}

// ParseStage accepts a wire name ("PreToolUse"), a command name
// ("pre-tool-use") or a log name ("pre_tool_use"), case-insensitively.
func ParseStage(name string) (Stage, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, s := range AllStages() {
		if n == strings.ToLower(string(s)) || n == s.CommandName() || n == s.LogName() {
			return s, nil
		}
	}
	names := make([]string, 0, len(AllStages()))
	for _, s := range AllStages() {
		names = append(names, s.CommandName())
	}
	return "", fmt.Errorf("unknown stage %q (want one of %s)", name, strings.Join(names, ", "))
}
