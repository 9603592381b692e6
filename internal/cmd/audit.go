package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/maklarsystem/hookguard/internal/audit"
	"github.com/maklarsystem/hookguard/internal/hook"
	"github.com/maklarsystem/hookguard/internal/style"
	"github.com/maklarsystem/hookguard/internal/tui/auditview"
	"github.com/maklarsystem/hookguard/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Audit command flags
var (
	auditStage   string
	auditSession string
	auditBlocked bool
	auditLimit   int
	auditOutput  string
)

var auditCmd = &cobra.Command{
	Use:     "audit",
	GroupID: GroupInspect,
	Short:   "List recorded hook events",
	Long: `List recorded hook events across all stages, oldest first.

Examples:
  hookguard audit                          # Last 50 events
  hookguard audit --blocked                # Only blocked actions
  hookguard audit --stage pre-tool-use -n 0
  hookguard audit --session abc123 -o json
  hookguard audit -o yaml`,
	Args: cobra.NoArgs,
	RunE: runAudit,
}

var auditViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Browse the audit log interactively",
	Long: `Browse the audit log interactively.

Keys: ↑/↓ move, tab switches to the detail panel, s cycles the stage
filter, b toggles blocked-only, r reloads, q quits.`,
	Args: cobra.NoArgs,
	RunE: runAuditView,
}

func init() {
	pf := auditCmd.PersistentFlags()
	pf.StringVar(&auditStage, "stage", "", "Only this stage (e.g. pre-tool-use, Stop)")
	pf.StringVar(&auditSession, "session", "", "Only this session id")
	pf.BoolVar(&auditBlocked, "blocked", false, "Only blocked actions")
	auditCmd.Flags().IntVarP(&auditLimit, "limit", "n", 50, "Maximum number of entries (0 for all)")
	auditCmd.Flags().StringVarP(&auditOutput, "output", "o", "table", "Output format: table, json, yaml")

	auditCmd.AddCommand(auditViewCmd)
	rootCmd.AddCommand(auditCmd)
}

func auditQuery() (audit.Query, error) {
	q := audit.Query{SessionID: auditSession, BlockedOnly: auditBlocked, Limit: auditLimit}
	if auditStage != "" {
		s, err := hook.ParseStage(auditStage)
		if err != nil {
			return q, err
		}
		q.Stage = s
	}
	return q, nil
}

func runAudit(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(auditOutput)
	switch format {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q: want table, json or yaml", auditOutput)
	}

	q, err := auditQuery()
	if err != nil {
		return err
	}
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	entries, err := audit.Collect(e.store(), q)
	if err != nil {
		if len(entries) == 0 {
			return fmt.Errorf("reading audit log: %w", err)
		}
		style.PrintWarning(cmd.ErrOrStderr(), "%v", err)
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		return writeAuditJSON(out, entries)
	case "yaml":
		return writeAuditYAML(out, entries)
	}

	if len(entries) == 0 {
		fmt.Fprintf(out, "%s No audit entries in %s\n", style.Dim.Render("○"), e.logDir())
		return nil
	}
	fmt.Fprint(out, auditTable(entries).Render())
	return nil
}

func writeAuditJSON(w io.Writer, entries []audit.Entry) error {
	if entries == nil {
		entries = []audit.Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// yamlEntry is audit.Entry with the payload decoded, so YAML shows a
// mapping instead of raw bytes.
type yamlEntry struct {
	ID        string    `yaml:"id"`
	Timestamp time.Time `yaml:"timestamp"`
	SessionID string    `yaml:"session_id"`
	Stage     string    `yaml:"stage"`
	Blocked   bool      `yaml:"blocked"`
	Reason    string    `yaml:"reason,omitempty"`
	Success   *bool     `yaml:"success,omitempty"`
	Source    string    `yaml:"source,omitempty"`
	Message   string    `yaml:"message,omitempty"`
	Payload   any       `yaml:"payload"`
}

func writeAuditYAML(w io.Writer, entries []audit.Entry) error {
	docs := make([]yamlEntry, 0, len(entries))
	for _, e := range entries {
		var payload any
		if err := json.Unmarshal(e.Payload, &payload); err != nil {
			payload = string(e.Payload)
		}
		docs = append(docs, yamlEntry{
			ID:        e.ID,
			Timestamp: e.Timestamp,
			SessionID: e.SessionID,
			Stage:     string(e.Stage),
			Blocked:   e.Blocked,
			Reason:    e.Reason,
			Success:   e.Success,
			Source:    e.Source,
			Message:   e.Message,
			Payload:   payload,
		})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(docs); err != nil {
		return err
	}
	return enc.Close()
}

func auditTable(entries []audit.Entry) *style.Table {
	width := ui.TerminalWidth(100)
	detailWidth := max(20, width-2-19-1-18-1-10-1-11-1)

	t := style.NewTable(
		style.Column{Name: "TIME", Width: 19},
		style.Column{Name: "STAGE", Width: 18, Style: &ui.StageStyle},
		style.Column{Name: "SESSION", Width: 10},
		style.Column{Name: "VERDICT", Width: 11},
		style.Column{Name: "DETAIL", Width: detailWidth},
	)
	for _, e := range entries {
		t.AddRow(
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			string(e.Stage),
			e.SessionID,
			ui.RenderVerdict(e.Blocked),
			auditDetail(e),
		)
	}
	return t
}

// auditDetail is the most telling field of an entry.
func auditDetail(e audit.Entry) string {
	switch {
	case e.Reason != "":
		return e.Reason
	case e.Message != "":
		return e.Message
	case e.Source != "":
		return "source: " + e.Source
	case e.Success != nil:
		return "success " + ui.RenderSuccess(e.Success)
	}
	return ""
}

func runAuditView(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("audit view needs a terminal; use 'hookguard audit' instead")
	}

	q, err := auditQuery()
	if err != nil {
		return err
	}
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	store := e.store()
	m := auditview.NewModel(func() ([]audit.Entry, error) {
		return audit.Collect(store, audit.Query{SessionID: q.SessionID})
	})
	m.SetStage(q.Stage)
	m.SetBlockedOnly(q.BlockedOnly)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, err = p.Run()
	return err
}
