package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/codefionn/directguard/internal/audit"
	"github.com/codefionn/directguard/internal/config"
	"github.com/codefionn/directguard/internal/gateway"
	"github.com/codefionn/directguard/internal/logger"
)

var (
	workspace  string
	configPath string
	sessionID  string
)

func main() {
	root := &cobra.Command{
		Use:   "directguard",
		Short: "Guarded command execution for AI agents",
		Long: "directguard validates paths, blocks dangerous operations, redacts secrets " +
			"and keeps an append-only audit trail for commands run against a workspace.",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&workspace, "workspace", "w", ".", "workspace root directory")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: <workspace>/.direct/config.yaml)")
	root.PersistentFlags().StringVarP(&sessionID, "session", "s", "", "session identifier (generated when empty)")

	root.AddCommand(runCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(redactCmd())
	root.AddCommand(validatePathCmd())
	root.AddCommand(auditCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	path := configPath
	if path == "" {
		path = config.GetConfigPath(workspace)
	}
	cfg := config.LoadOrDefault(path)
	if err := logger.Init(logger.ParseLevel(cfg.LogLevel), cfg.LogPath); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	return cfg
}

func newGateway() (*gateway.Gateway, *config.Config, error) {
	cfg := loadConfig()
	gw, err := gateway.New(workspace, cfg)
	return gw, cfg, err
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <command...>",
		Short: "Execute a command in the workspace through the guard",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, _, err := newGateway()
			if err != nil {
				return err
			}
			defer gw.Close()

			result, err := gw.RunCommand(context.Background(), sessionID, strings.Join(args, " "))
			if result != nil && result.Output != "" {
				fmt.Print(result.Output)
			}
			if err != nil {
				if errors.Is(err, gateway.ErrPolicyBlocked) {
					return fmt.Errorf("blocked: %s", result.Reason)
				}
				return err
			}
			return nil
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <command...>",
		Short: "Check command text against the dangerous-operation signatures",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, _, err := newGateway()
			if err != nil {
				return err
			}
			defer gw.Close()

			dangerous, ruleID := gw.Sanitizer().IsDangerous(strings.Join(args, " "))
			if dangerous {
				fmt.Printf("dangerous (rule: %s)\n", ruleID)
				os.Exit(1)
			}
			fmt.Println("ok")
			return nil
		},
	}
}

func redactCmd() *cobra.Command {
	var pii bool

	cmd := &cobra.Command{
		Use:   "redact <text...>",
		Short: "Redact secrets (default) or PII from text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, _, err := newGateway()
			if err != nil {
				return err
			}
			defer gw.Close()

			text := strings.Join(args, " ")
			if pii {
				fmt.Println(gw.Sanitizer().RedactPII(text))
			} else {
				fmt.Println(gw.Sanitizer().RedactSecrets(text))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&pii, "pii", false, "apply PII redaction instead of secret redaction")
	return cmd
}

func validatePathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-path <path>",
		Short: "Check whether a path stays inside the workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, _, err := newGateway()
			if err != nil {
				return err
			}
			defer gw.Close()

			verdict := gw.ValidatePath(args[0])
			if !verdict.OK {
				return fmt.Errorf("unsafe: %s", verdict.Reason)
			}
			fmt.Println(verdict.Resolved)
			return nil
		},
	}
}

func auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit trail",
	}
	cmd.AddCommand(auditListCmd())
	cmd.AddCommand(auditExportCmd())
	cmd.AddCommand(auditStatsCmd())
	return cmd
}

func parseFilter(tool, status, since string, lastN int) (audit.Filter, error) {
	filter := audit.Filter{Tool: tool, Status: status, LastN: lastN}
	if since != "" {
		ts, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return filter, fmt.Errorf("invalid --since (want RFC3339): %w", err)
		}
		filter.Since = ts
	}
	return filter, nil
}

func auditListCmd() *cobra.Command {
	var (
		tool   string
		status string
		since  string
		lastN  int
		full   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audit records",
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, cfg, err := newGateway()
			if err != nil {
				return err
			}
			defer gw.Close()

			filter, err := parseFilter(tool, status, since, lastN)
			if err != nil {
				return err
			}

			records, err := gw.Audit().Query(filter)
			if err != nil {
				return err
			}

			showFull := full && cfg.Audit.DefaultView == config.ViewFull
			for _, rec := range records {
				cmdText := rec.CommandSanitized
				if showFull {
					cmdText = rec.Command
				}
				fmt.Printf("%s  %-10s  %-11s  %s  %s\n",
					rec.Timestamp.Format(time.RFC3339), rec.Tool, rec.Status, rec.SessionID, cmdText)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tool, "tool", "", "filter by tool name")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&since, "since", "", "only records at or after this RFC3339 timestamp")
	cmd.Flags().IntVar(&lastN, "last", 0, "only the most recent N records")
	cmd.Flags().BoolVar(&full, "full", false, "show unredacted commands (requires audit.default_view: full)")
	return cmd
}

func auditExportCmd() *cobra.Command {
	var (
		tool   string
		status string
		since  string
		lastN  int
	)

	cmd := &cobra.Command{
		Use:   "export <file.csv>",
		Short: "Export audit records to CSV (always sanitized)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, _, err := newGateway()
			if err != nil {
				return err
			}
			defer gw.Close()

			filter, err := parseFilter(tool, status, since, lastN)
			if err != nil {
				return err
			}

			if err := gw.Audit().Export(args[0], filter); err != nil {
				return err
			}
			fmt.Printf("exported to %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&tool, "tool", "", "filter by tool name")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&since, "since", "", "only records at or after this RFC3339 timestamp")
	cmd.Flags().IntVar(&lastN, "last", 0, "only the most recent N records")
	return cmd
}

func auditStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Aggregate statistics over the audit trail",
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, _, err := newGateway()
			if err != nil {
				return err
			}
			defer gw.Close()

			stats, err := gw.Audit().Stats()
			if err != nil {
				return err
			}

			fmt.Printf("entries: %d\n", stats.TotalEntries)
			if stats.TotalEntries > 0 {
				fmt.Printf("range:   %s .. %s\n",
					stats.First.Format(time.RFC3339), stats.Last.Format(time.RFC3339))
			}
			printCounts("by tool", stats.ByTool)
			printCounts("by status", stats.ByStatus)
			printCounts("by session", stats.BySession)
			return nil
		},
	}
}

func printCounts(title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Printf("%s:\n", title)
	for _, k := range keys {
		fmt.Printf("  %-16s %d\n", k, counts[k])
	}
}
