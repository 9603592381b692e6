// Package claude registers hookguard with the host agent by editing its
// project settings file (.claude/settings.json).
package claude

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/maklarsystem/hookguard/internal/hook"
	"github.com/maklarsystem/hookguard/internal/util"
)

// Settings location relative to the project directory.
const (
	SettingsDir  = ".claude"
	SettingsFile = "settings.json"
)

// HookAction is one command the host runs for a hook.
type HookAction struct {
	Type    string `json:"type"`
	Command string `json:"command"`
}

// HookGroup binds actions to a tool matcher. An empty matcher matches every tool.
type HookGroup struct {
	Matcher string       `json:"matcher"`
	Hooks   []HookAction `json:"hooks"`
}

// Options controls which flags the installed commands carry.
type Options struct {
	// Binary is the executable the host invokes. Defaults to "hookguard".
	Binary string
	// Validate adds --validate to the prompt-submit hook.
	Validate bool
	// Chat adds --chat to the stop hook.
	Chat bool
	// Force replaces a settings file that cannot be parsed.
	Force bool
}

// Result describes what Install did.
type Result struct {
	Path    string
	Changed bool
}

// Commands returns the hook command for each stage.
func Commands(opts Options) map[hook.Stage]string {
	bin := opts.Binary
	if bin == "" {
		bin = "hookguard"
	}
	cmds := make(map[hook.Stage]string, len(hook.AllStages()))
	for _, s := range hook.AllStages() {
		c := fmt.Sprintf("%s hook %s", bin, s.CommandName())
		switch {
		case s == hook.StagePromptSubmit && opts.Validate:
			c += " --validate"
		case s == hook.StageStop && opts.Chat:
			c += " --chat"
		}
		cmds[s] = c
	}
	return cmds
}

// Install merges hookguard's hook registrations into dir/.claude/settings.json.
//
// Keys, groups and actions that do not belong to hookguard are preserved,
// including fields hookguard does not know about. Earlier hookguard
// registrations are replaced, so running Install twice leaves one
// registration per stage.
func Install(dir string, opts Options) (Result, error) {
	path := filepath.Join(dir, SettingsDir, SettingsFile)
	res := Result{Path: path}

	settings, err := readSettings(path)
	if err != nil {
		if !opts.Force {
			return res, err
		}
		settings = map[string]json.RawMessage{}
	}

	hooks, err := parseHooks(settings)
	if err != nil {
		if !opts.Force {
			return res, fmt.Errorf("parsing hooks in %s: %w", path, err)
		}
		hooks = map[string][]json.RawMessage{}
	}

	bin := binaryName(opts.Binary)
	for stage, command := range Commands(opts) {
		name := string(stage)
		groups, _, err := withoutOwned(hooks[name], bin)
		if err != nil {
			if !opts.Force {
				return res, fmt.Errorf("parsing %s hooks in %s: %w", name, path, err)
			}
			groups = nil
		}
		ours, err := json.Marshal(HookGroup{
			Matcher: "",
			Hooks:   []HookAction{{Type: "command", Command: command}},
		})
		if err != nil {
			return res, fmt.Errorf("encoding %s hook: %w", name, err)
		}
		hooks[name] = append(groups, ours)
	}

	encoded, err := json.Marshal(hooks)
	if err != nil {
		return res, fmt.Errorf("encoding hooks: %w", err)
	}
	if old, ok := settings["hooks"]; ok && jsonEqual(old, encoded) {
		return res, nil
	}
	settings["hooks"] = encoded

	if err := util.AtomicWriteJSON(path, settings); err != nil {
		return res, fmt.Errorf("writing %s: %w", path, err)
	}
	res.Changed = true
	return res, nil
}

// Installed reports, per stage, whether dir's settings register a hookguard command.
func Installed(dir, binary string) (map[hook.Stage]bool, error) {
	path := filepath.Join(dir, SettingsDir, SettingsFile)
	settings, err := readSettings(path)
	if err != nil {
		return nil, err
	}
	hooks, err := parseHooks(settings)
	if err != nil {
		return nil, fmt.Errorf("parsing hooks in %s: %w", path, err)
	}
	bin := binaryName(binary)
	out := make(map[hook.Stage]bool)
	for _, s := range hook.AllStages() {
		_, owned, err := withoutOwned(hooks[string(s)], bin)
		if err != nil {
			return nil, fmt.Errorf("parsing %s hooks in %s: %w", s, path, err)
		}
		out[s] = owned
	}
	return out, nil
}

func binaryName(bin string) string {
	if bin == "" {
		return "hookguard"
	}
	return bin
}

// readSettings returns the top-level settings object. A missing file is an
// empty object.
func readSettings(path string) (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is built from the project dir
	if errors.Is(err, os.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return map[string]json.RawMessage{}, nil
	}
	var settings map[string]json.RawMessage
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if settings == nil {
		settings = map[string]json.RawMessage{}
	}
	return settings, nil
}

// parseHooks splits the "hooks" object into its per-event group lists,
// leaving each group undecoded.
func parseHooks(settings map[string]json.RawMessage) (map[string][]json.RawMessage, error) {
	hooks := map[string][]json.RawMessage{}
	raw, ok := settings["hooks"]
	if !ok {
		return hooks, nil
	}
	if err := json.Unmarshal(raw, &hooks); err != nil {
		return nil, err
	}
	if hooks == nil {
		hooks = map[string][]json.RawMessage{}
	}
	return hooks, nil
}

// withoutOwned drops hookguard's actions from groups, and any group left
// empty. Groups without a hookguard action are returned unchanged; in a
// mixed group only the "hooks" list is rewritten. owned reports whether
// anything was dropped.
func withoutOwned(groups []json.RawMessage, bin string) (out []json.RawMessage, owned bool, err error) {
	prefix := bin + " hook "
	for _, raw := range groups {
		var g map[string]json.RawMessage
		if err := json.Unmarshal(raw, &g); err != nil {
			return nil, false, fmt.Errorf("hook group: %w", err)
		}
		var actions []json.RawMessage
		if h, ok := g["hooks"]; ok {
			if err := json.Unmarshal(h, &actions); err != nil {
				return nil, false, fmt.Errorf("hook list: %w", err)
			}
		}
		kept := make([]json.RawMessage, 0, len(actions))
		for _, a := range actions {
			var action struct {
				Command string `json:"command"`
			}
			if err := json.Unmarshal(a, &action); err != nil {
				return nil, false, fmt.Errorf("hook action: %w", err)
			}
			if !strings.HasPrefix(action.Command, prefix) {
				kept = append(kept, a)
			}
		}
		if len(kept) == len(actions) {
			out = append(out, raw)
			continue
		}
		owned = true
		if len(kept) == 0 {
			continue
		}
		if g["hooks"], err = json.Marshal(kept); err != nil {
			return nil, false, err
		}
		rewritten, err := json.Marshal(g)
		if err != nil {
			return nil, false, err
		}
		out = append(out, rewritten)
	}
	return out, owned, nil
}

func jsonEqual(a, b []byte) bool {
	var x, y any
	if json.Unmarshal(a, &x) != nil || json.Unmarshal(b, &y) != nil {
		return false
	}
	xa, _ := json.Marshal(x)
	ya, _ := json.Marshal(y)
	return string(xa) == string(ya)
}
