package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maklarsystem/hookguard/internal/audit"
	"github.com/maklarsystem/hookguard/internal/dispatch"
	"github.com/maklarsystem/hookguard/internal/hook"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// quietConfig turns off every external command so tests never shell out.
const quietConfig = `
[session]
vcs_command = []
tracker_command = []

[stop]
announce = false
`

type result struct {
	stdout string
	stderr string
	code   int
}

// resetFlags restores every flag to its default between runs of the shared
// command tree. Cobra keeps values and Changed state across Execute calls.
func resetFlags() {
	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		for _, fs := range []*pflag.FlagSet{c.Flags(), c.PersistentFlags()} {
			fs.VisitAll(func(f *pflag.Flag) {
				_ = f.Value.Set(f.DefValue)
				f.Changed = false
			})
		}
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(rootCmd)
	hookOpts = dispatch.Options{}
}

// project creates a working directory with a quiet config and makes it the cwd.
func project(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".hookguard.toml"), []byte(quietConfig), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	for _, k := range []string{"HOOKGUARD_CONFIG", "HOOKGUARD_LOG_DIR", "HOOKGUARD_LOG_LEVEL", "HOOKGUARD_THEME"} {
		t.Setenv(k, "")
	}
	t.Setenv("NO_COLOR", "1")
	return dir
}

func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	resetFlags()

	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)

	code := 0
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if c, ok := IsSilentExit(err); ok {
			code = c
		} else {
			code = 1
			fmt.Fprint(&stderr, err.Error())
		}
	}
	return result{stdout: stdout.String(), stderr: stderr.String(), code: code}
}

func readLog(t *testing.T, dir string, stage hook.Stage) []audit.Entry {
	t.Helper()
	entries, err := audit.NewFileStore(filepath.Join(dir, "logs"), 0, nil).Read(stage)
	if err != nil {
		t.Fatalf("reading %s log: %v", stage, err)
	}
	return entries
}

func TestHook_PreToolUseBlocks(t *testing.T) {
	dir := project(t)

	r := run(t, `{"session_id":"s1","tool_name":"Bash","tool_input":{"command":"rm -rf /"}}`,
		"hook", "pre-tool-use")
	if r.code != hook.ExitBlock {
		t.Fatalf("exit = %d, want 2 (stderr %q)", r.code, r.stderr)
	}
	if !strings.Contains(r.stderr, "🚫 BLOCKED:") {
		t.Errorf("stderr = %q", r.stderr)
	}

	entries := readLog(t, dir, hook.StagePreToolUse)
	if len(entries) != 1 || !entries[0].Blocked || entries[0].SessionID != "s1" {
		t.Errorf("audit = %+v", entries)
	}
}

func TestHook_PreToolUseAllows(t *testing.T) {
	dir := project(t)

	r := run(t, `{"session_id":"s1","tool_name":"Bash","tool_input":{"command":"ls -la"}}`,
		"hook", "pre-tool-use")
	if r.code != hook.ExitAllow {
		t.Fatalf("exit = %d, stderr %q", r.code, r.stderr)
	}
	if entries := readLog(t, dir, hook.StagePreToolUse); len(entries) != 1 || entries[0].Blocked {
		t.Errorf("audit = %+v", entries)
	}
}

func TestHook_MalformedInput(t *testing.T) {
	project(t)
	for _, stage := range hook.AllStages() {
		t.Run(stage.CommandName(), func(t *testing.T) {
			r := run(t, `{not json`, "hook", stage.CommandName())
			if r.code != hook.ExitBadInput {
				t.Errorf("exit = %d, want 1", r.code)
			}
			if !strings.Contains(r.stderr, "Failed to parse input JSON") {
				t.Errorf("stderr = %q", r.stderr)
			}
		})
	}
}

func TestHook_PromptValidationFlag(t *testing.T) {
	project(t)
	const doc = `{"session_id":"s","prompt":"please drop database now"}`

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"off by default", nil, hook.ExitAllow},
		{"validate", []string{"--validate"}, hook.ExitBlock},
		{"log-only wins", []string{"--validate", "--log-only"}, hook.ExitAllow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := run(t, doc, append([]string{"hook", "prompt-submit"}, tt.args...)...)
			if r.code != tt.want {
				t.Errorf("exit = %d, want %d (stderr %q)", r.code, tt.want, r.stderr)
			}
		})
	}
}

func TestHook_StopChat(t *testing.T) {
	dir := project(t)

	r := run(t, `{"session_id":"s","stop_hook_active":false}`, "hook", "stop", "--chat")
	if r.code != hook.ExitAllow {
		t.Fatalf("exit = %d, stderr %q", r.code, r.stderr)
	}
	if !strings.Contains(r.stdout, "📝 Session logged to logs/") {
		t.Errorf("stdout = %q", r.stdout)
	}
	if entries := readLog(t, dir, hook.StageStop); len(entries) != 1 || entries[0].Message == "" {
		t.Errorf("audit = %+v", entries)
	}
}

func TestHook_LogDirFlag(t *testing.T) {
	dir := project(t)
	run(t, `{"session_id":"s"}`, "--log-dir", "elsewhere", "hook", "stop")

	if _, err := os.Stat(filepath.Join(dir, "elsewhere", "stop.json")); err != nil {
		t.Errorf("log not written under --log-dir: %v", err)
	}
}

func TestHook_BadExplicitConfig(t *testing.T) {
	project(t)
	r := run(t, `{"session_id":"s"}`, "--config", "missing.toml", "hook", "stop")
	if r.code != hook.ExitBadInput {
		t.Errorf("exit = %d, want 1", r.code)
	}
}

func TestAudit_Formats(t *testing.T) {
	project(t)
	run(t, `{"session_id":"a","source":"startup"}`, "hook", "session-start")
	run(t, `{"session_id":"a","tool_name":"Bash","tool_input":{"command":"rm -rf /"}}`, "hook", "pre-tool-use")
	run(t, `{"session_id":"b","stop_hook_active":true}`, "hook", "stop")

	t.Run("json", func(t *testing.T) {
		r := run(t, "", "audit", "-o", "json")
		if r.code != 0 {
			t.Fatalf("exit %d: %s", r.code, r.stderr)
		}
		var entries []audit.Entry
		if err := json.Unmarshal([]byte(r.stdout), &entries); err != nil {
			t.Fatalf("decoding: %v\n%s", err, r.stdout)
		}
		if len(entries) != 3 {
			t.Errorf("got %d entries, want 3", len(entries))
		}
	})

	t.Run("filters", func(t *testing.T) {
		r := run(t, "", "audit", "-o", "json", "--blocked")
		var entries []audit.Entry
		if err := json.Unmarshal([]byte(r.stdout), &entries); err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 || entries[0].Stage != hook.StagePreToolUse {
			t.Errorf("blocked = %+v", entries)
		}

		r = run(t, "", "audit", "-o", "json", "--session", "b", "--stage", "stop")
		entries = nil
		if err := json.Unmarshal([]byte(r.stdout), &entries); err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 {
			t.Errorf("session b = %+v", entries)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		r := run(t, "", "audit", "-o", "yaml")
		for _, want := range []string{"stage: PreToolUse", "blocked: true", "tool_name: Bash", "source: startup"} {
			if !strings.Contains(r.stdout, want) {
				t.Errorf("yaml missing %q:\n%s", want, r.stdout)
			}
		}
	})

	t.Run("table", func(t *testing.T) {
		r := run(t, "", "audit")
		for _, want := range []string{"STAGE", "SessionStart", "blocked"} {
			if !strings.Contains(r.stdout, want) {
				t.Errorf("table missing %q:\n%s", want, r.stdout)
			}
		}
	})

	t.Run("bad format", func(t *testing.T) {
		if r := run(t, "", "audit", "-o", "xml"); r.code != 1 {
			t.Errorf("exit = %d, want 1", r.code)
		}
	})

	t.Run("bad stage", func(t *testing.T) {
		if r := run(t, "", "audit", "--stage", "lunch"); r.code != 1 {
			t.Errorf("exit = %d, want 1", r.code)
		}
	})
}

func TestAudit_Empty(t *testing.T) {
	project(t)
	r := run(t, "", "audit")
	if r.code != 0 || !strings.Contains(r.stdout, "No audit entries") {
		t.Errorf("exit %d, stdout %q", r.code, r.stdout)
	}
	r = run(t, "", "audit", "-o", "json")
	if strings.TrimSpace(r.stdout) != "[]" {
		t.Errorf("empty json = %q", r.stdout)
	}
}

func TestRulesCheck(t *testing.T) {
	project(t)
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"dangerous command", []string{"--command", "sudo rm -rf /tmp/x"}, hook.ExitBlock},
		{"safe command", []string{"--command", "go test ./..."}, hook.ExitAllow},
		{"sensitive write", []string{"--tool", "Write", "--path", "config/.env.local"}, hook.ExitBlock},
		{"dangerous prompt", []string{"--prompt", "Delete all the rows"}, hook.ExitBlock},
		{"nothing to check", nil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := run(t, "", append([]string{"rules", "check"}, tt.args...)...)
			if r.code != tt.want {
				t.Errorf("exit = %d, want %d (stdout %q, stderr %q)", r.code, tt.want, r.stdout, r.stderr)
			}
		})
	}
}

func TestRulesList(t *testing.T) {
	project(t)
	r := run(t, "", "rules", "list")
	if r.code != 0 {
		t.Fatalf("exit %d: %s", r.code, r.stderr)
	}
	for _, want := range []string{"dangerous_command", "policy", "sensitive_path", "sensitive_read", "dangerous_prompt", "drop database"} {
		if !strings.Contains(r.stdout, want) {
			t.Errorf("rules list missing %q", want)
		}
	}
}

func TestInstall(t *testing.T) {
	dir := project(t)

	if r := run(t, "", "install", "--check"); r.code != 1 {
		t.Errorf("check before install: exit %d, want 1", r.code)
	}
	r := run(t, "", "install", "--chat")
	if r.code != 0 {
		t.Fatalf("install: exit %d: %s", r.code, r.stderr)
	}
	if !strings.Contains(r.stdout, "hookguard hook stop --chat") {
		t.Errorf("stdout = %q", r.stdout)
	}
	if _, err := os.Stat(filepath.Join(dir, ".claude", "settings.json")); err != nil {
		t.Fatal(err)
	}
	if r := run(t, "", "install", "--chat"); !strings.Contains(r.stdout, "already up to date") {
		t.Errorf("second install: %q", r.stdout)
	}
	if r := run(t, "", "install", "--check"); r.code != 0 {
		t.Errorf("check after install: exit %d", r.code)
	}
}

func TestVersion(t *testing.T) {
	project(t)
	r := run(t, "", "version")
	if !strings.HasPrefix(r.stdout, "hookguard version "+Version) {
		t.Errorf("version = %q", r.stdout)
	}
}

func TestIsSilentExit(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantOK   bool
	}{
		{"nil", nil, 0, false},
		{"plain", errors.New("boom"), 0, false},
		{"silent", NewSilentExit(2), 2, true},
		{"wrapped", fmt.Errorf("hook: %w", NewSilentExit(1)), 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := IsSilentExit(tt.err)
			if code != tt.wantCode || ok != tt.wantOK {
				t.Errorf("IsSilentExit = (%d, %v), want (%d, %v)", code, ok, tt.wantCode, tt.wantOK)
			}
		})
	}
}

func TestColorizeHelpOutput_KeepsText(t *testing.T) {
	in := "Hook Handlers:\n  hook        Handle one lifecycle event\n\nFlags:\n      --config string   Config file (default \"x\")\n"
	out := colorizeHelpOutput(in)
	for _, want := range []string{"Hook Handlers:", "hook", "Handle one lifecycle event", "--config", "(default \"x\")"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lost %q:\n%s", want, out)
		}
	}
}
