package claude

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/maklarsystem/hookguard/internal/hook"
)

// settingsFile mirrors the parts of .claude/settings.json the tests inspect.
type settingsFile struct {
	Permissions json.RawMessage        `json:"permissions"`
	Hooks       map[string][]HookGroup `json:"hooks"`
}

func readBack(t *testing.T, dir string) settingsFile {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, SettingsDir, SettingsFile))
	if err != nil {
		t.Fatalf("reading settings: %v", err)
	}
	var s settingsFile
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("parsing settings: %v\n%s", err, data)
	}
	return s
}

func writeSettings(t *testing.T, dir, content string) {
	t.Helper()
	path := filepath.Join(dir, SettingsDir, SettingsFile)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func commandsFor(groups []HookGroup) []string {
	var out []string
	for _, g := range groups {
		for _, h := range g.Hooks {
			out = append(out, h.Command)
		}
	}
	return out
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name  string
		opts  Options
		stage hook.Stage
		want  string
	}{
		{"default binary", Options{}, hook.StagePreToolUse, "hookguard hook pre-tool-use"},
		{"custom binary", Options{Binary: "/usr/local/bin/hg"}, hook.StageSessionStart, "/usr/local/bin/hg hook session-start"},
		{"validate", Options{Validate: true}, hook.StagePromptSubmit, "hookguard hook prompt-submit --validate"},
		{"chat", Options{Chat: true}, hook.StageStop, "hookguard hook stop --chat"},
		{"validate only touches prompts", Options{Validate: true}, hook.StageStop, "hookguard hook stop"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Commands(tt.opts)[tt.stage]; got != tt.want {
				t.Errorf("Commands()[%s] = %q, want %q", tt.stage, got, tt.want)
			}
		})
	}
}

func TestInstall_Fresh(t *testing.T) {
	dir := t.TempDir()
	res, err := Install(dir, Options{})
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if !res.Changed {
		t.Error("fresh install reported no change")
	}

	s := readBack(t, dir)
	for _, stage := range hook.AllStages() {
		groups := s.Hooks[string(stage)]
		if len(groups) != 1 || len(groups[0].Hooks) != 1 {
			t.Fatalf("%s: groups = %+v", stage, groups)
		}
		h := groups[0].Hooks[0]
		if h.Type != "command" || h.Command != "hookguard hook "+stage.CommandName() {
			t.Errorf("%s: hook = %+v", stage, h)
		}
	}
}

func TestInstall_PreservesOtherSettings(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, `{
  "permissions": {"allow": ["Bash(ls:*)"]},
  "hooks": {
    "PreToolUse": [{"matcher": "Bash", "hooks": [{"type": "command", "command": "lint-hook", "timeout": 30}]}],
    "Stop": [{"matcher": "", "description": "mixed", "hooks": [
      {"type": "command", "command": "hookguard hook stop"},
      {"type": "command", "command": "notify-done", "timeout": 5}
    ]}],
    "Notification": [{"matcher": "", "hooks": [{"type": "command", "command": "bell"}]}]
  }
}`)

	if _, err := Install(dir, Options{}); err != nil {
		t.Fatalf("Install: %v", err)
	}
	s := readBack(t, dir)
	if string(s.Permissions) == "" {
		t.Error("permissions dropped")
	}
	got := commandsFor(s.Hooks["PreToolUse"])
	if len(got) != 2 || got[0] != "lint-hook" || got[1] != "hookguard hook pre-tool-use" {
		t.Errorf("PreToolUse commands = %v", got)
	}
	got = commandsFor(s.Hooks["Stop"])
	if len(got) != 2 || got[0] != "notify-done" || got[1] != "hookguard hook stop" {
		t.Errorf("Stop commands = %v", got)
	}
	if got := commandsFor(s.Hooks["Notification"]); len(got) != 1 || got[0] != "bell" {
		t.Errorf("Notification commands = %v", got)
	}

	// Fields hookguard has no type for survive on foreign groups and actions.
	var raw struct {
		Hooks map[string][]struct {
			Description string `json:"description"`
			Hooks       []struct {
				Command string `json:"command"`
				Timeout int    `json:"timeout"`
			} `json:"hooks"`
		} `json:"hooks"`
	}
	data, err := os.ReadFile(filepath.Join(dir, SettingsDir, SettingsFile))
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if pre := raw.Hooks["PreToolUse"]; pre[0].Hooks[0].Timeout != 30 {
		t.Errorf("lint-hook timeout = %d, want 30\n%s", pre[0].Hooks[0].Timeout, data)
	}
	stop := raw.Hooks["Stop"]
	if stop[0].Description != "mixed" || stop[0].Hooks[0].Timeout != 5 {
		t.Errorf("mixed Stop group = %+v, want description and timeout kept\n%s", stop[0], data)
	}
}

func TestInstall_Idempotent(t *testing.T) {
	dir := t.TempDir()
	if _, err := Install(dir, Options{}); err != nil {
		t.Fatal(err)
	}
	res, err := Install(dir, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Changed {
		t.Error("second identical install rewrote the file")
	}

	// Changing a flag replaces the earlier registration instead of adding one.
	if _, err := Install(dir, Options{Chat: true}); err != nil {
		t.Fatal(err)
	}
	got := commandsFor(readBack(t, dir).Hooks["Stop"])
	if len(got) != 1 || got[0] != "hookguard hook stop --chat" {
		t.Errorf("Stop commands = %v", got)
	}
}

func TestInstall_BrokenFile(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, `{"hooks": `)

	if _, err := Install(dir, Options{}); err == nil {
		t.Fatal("expected an error for unparseable settings")
	}
	res, err := Install(dir, Options{Force: true})
	if err != nil {
		t.Fatalf("Install --force: %v", err)
	}
	if !res.Changed {
		t.Error("forced install reported no change")
	}
	if len(readBack(t, dir).Hooks) != len(hook.AllStages()) {
		t.Error("forced install did not register every stage")
	}
}

func TestInstalled(t *testing.T) {
	dir := t.TempDir()
	got, err := Installed(dir, "")
	if err != nil {
		t.Fatalf("Installed on missing file: %v", err)
	}
	for s, ok := range got {
		if ok {
			t.Errorf("%s reported installed before Install", s)
		}
	}

	if _, err := Install(dir, Options{}); err != nil {
		t.Fatal(err)
	}
	got, err = Installed(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range hook.AllStages() {
		if !got[s] {
			t.Errorf("%s not reported installed", s)
		}
	}
}

func TestInstalled_ForeignOnly(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, `{"hooks": {"Stop": [{"matcher": "", "hooks": [{"type": "command", "command": "hookguardian hook stop"}]}]}}`)

	got, err := Installed(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	if got[hook.StageStop] {
		t.Error("a different binary with a shared prefix reported as installed")
	}
}
