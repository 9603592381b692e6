package hook

import (
	"errors"
	"strings"
	"testing"
)

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace", "   \n"},
		{"null", "null"},
		{"array", `[{"session_id":"a"}]`},
		{"string", `"hello"`},
		{"number", `42`},
		{"truncated", `{"session_id": "abc"`},
		{"garbage", `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(StagePreToolUse, []byte(tt.input))
			if err == nil {
				t.Fatalf("Decode(%q) succeeded, want error", tt.input)
			}
			if !errors.Is(err, ErrInput) {
				t.Errorf("Decode(%q) error = %v, want ErrInput", tt.input, err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Errorf("Decode(%q) error is %T, want *ParseError", tt.input, err)
			}
		})
	}
}

func TestDecode_DefaultsSessionID(t *testing.T) {
	ev, err := Decode(StageStop, []byte(`{}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.Session() != UnknownSession {
		t.Errorf("Session() = %q, want %q", ev.Session(), UnknownSession)
	}

	ev, err = Decode(StageStop, []byte(`{"session_id": 17}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.Session() != UnknownSession {
		t.Errorf("mistyped session_id: Session() = %q, want %q", ev.Session(), UnknownSession)
	}
}

func TestDecode_ToolUse(t *testing.T) {
	input := `{"session_id":"s1","tool_name":"Bash","tool_input":{"command":"ls -la","description":"list"}}`
	ev, err := Decode(StagePreToolUse, []byte(input))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	tu, ok := ev.(*ToolUse)
	if !ok {
		t.Fatalf("Decode returned %T, want *ToolUse", ev)
	}
	if tu.Stage() != StagePreToolUse {
		t.Errorf("Stage() = %q, want %q", tu.Stage(), StagePreToolUse)
	}
	if tu.Session() != "s1" {
		t.Errorf("Session() = %q, want s1", tu.Session())
	}
	if !tu.IsShell() {
		t.Error("IsShell() = false for Bash")
	}
	if tu.Input.Command != "ls -la" {
		t.Errorf("Command = %q, want %q", tu.Input.Command, "ls -la")
	}
	if string(tu.Raw()) != input {
		t.Errorf("Raw() = %s, want original document", tu.Raw())
	}
	if !tu.Response.Success {
		t.Error("Response.Success should default to true")
	}
}

func TestDecode_ToolInputWrongType(t *testing.T) {
	ev, err := Decode(StagePreToolUse, []byte(`{"tool_name":"Write","tool_input":"oops"}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	tu := ev.(*ToolUse)
	if tu.Input.FilePath != "" || tu.Input.Command != "" {
		t.Errorf("mistyped tool_input should decode to empty fields, got %+v", tu.Input)
	}
}

func TestDecode_ToolResponse(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		wantText    string
		wantPath    string
		wantSuccess bool
	}{
		{"absent", ``, "", "", true},
		{"string", `"error: exit status 1"`, "error: exit status 1", "", true},
		{"object success", `{"success":true,"file_path":"a/migrations/1.sql"}`, "", "a/migrations/1.sql", true},
		{"object failure", `{"success":false}`, "", "", false},
		{"object mistyped success", `{"success":"no"}`, "", "", true},
		{"array", `[1,2]`, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := `{"tool_name":"Bash"`
			if tt.response != "" {
				input += `,"tool_response":` + tt.response
			}
			input += `}`

			ev, err := Decode(StagePostToolUse, []byte(input))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			resp := ev.(*ToolUse).Response
			if resp.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", resp.Text, tt.wantText)
			}
			if resp.FilePath != tt.wantPath {
				t.Errorf("FilePath = %q, want %q", resp.FilePath, tt.wantPath)
			}
			if resp.Success != tt.wantSuccess {
				t.Errorf("Success = %v, want %v", resp.Success, tt.wantSuccess)
			}
		})
	}
}

func TestDecode_SessionStartSource(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`{"source":"startup"}`, SourceStartup},
		{`{"source":"resume"}`, SourceResume},
		{`{"source":"clear"}`, SourceClear},
		{`{"source":"compact"}`, SourceUnknown},
		{`{}`, SourceUnknown},
	}

	for _, tt := range tests {
		ev, err := Decode(StageSessionStart, []byte(tt.input))
		if err != nil {
			t.Fatalf("Decode(%s): %v", tt.input, err)
		}
		if got := ev.(*SessionStart).Source; got != tt.want {
			t.Errorf("Decode(%s).Source = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDecode_Stop(t *testing.T) {
	ev, err := Decode(StageStop, []byte(`{"session_id":"x","stop_hook_active":true}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !ev.(*Stop).Active {
		t.Error("Active = false, want true")
	}

	ev, err = Decode(StageStop, []byte(`{"stop_hook_active":"yes"}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.(*Stop).Active {
		t.Error("mistyped stop_hook_active should decode to false")
	}
}

func TestRead_TooLarge(t *testing.T) {
	big := `{"prompt":"` + strings.Repeat("a", MaxInputBytes) + `"}`
	_, err := Read(StagePromptSubmit, strings.NewReader(big))
	if !errors.Is(err, ErrInput) {
		t.Fatalf("Read oversized input: err = %v, want ErrInput", err)
	}
}

func TestParseStage(t *testing.T) {
	tests := []struct {
		in   string
		want Stage
	}{
		{"PreToolUse", StagePreToolUse},
		{"pre-tool-use", StagePreToolUse},
		{"pre_tool_use", StagePreToolUse},
		{"userpromptsubmit", StagePromptSubmit},
		{"prompt-submit", StagePromptSubmit},
		{"Stop", StageStop},
		{" session-start ", StageSessionStart},
	}

	for _, tt := range tests {
		got, err := ParseStage(tt.in)
		if err != nil {
			t.Errorf("ParseStage(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStage(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := ParseStage("preaction"); err == nil {
		t.Error("ParseStage(preaction) should fail")
	}
}

func TestStage_CanBlock(t *testing.T) {
	for _, s := range AllStages() {
		want := s == StagePreToolUse || s == StagePromptSubmit
		if s.CanBlock() != want {
			t.Errorf("%s.CanBlock() = %v, want %v", s, s.CanBlock(), want)
		}
	}
}
