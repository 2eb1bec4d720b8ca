package gateway

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"
	shellwords "github.com/mattn/go-shellwords"

	"github.com/codefionn/directguard/internal/audit"
	"github.com/codefionn/directguard/internal/config"
	"github.com/codefionn/directguard/internal/fs"
	"github.com/codefionn/directguard/internal/logger"
	"github.com/codefionn/directguard/internal/pathguard"
	"github.com/codefionn/directguard/internal/policy"
	"github.com/codefionn/directguard/internal/sanitize"
	"github.com/codefionn/directguard/internal/syntax"
)

// Failure categories for privileged operations.
var (
	// ErrRejected means the path check refused the target.
	ErrRejected = errors.New("path rejected")
	// ErrPolicyBlocked means the command matched a dangerous-operation signature.
	ErrPolicyBlocked = errors.New("blocked by policy")
)

// Tool names recorded in the audit trail.
const (
	ToolRunCommand = "run_command"
	ToolWriteFile  = "write_file"
	ToolReadFile   = "read_file"
	ToolListDir    = "list_dir"
)

// Result is the outcome of one privileged operation. Output has already
// passed secret redaction and is safe to hand to the model.
type Result struct {
	Status string
	Output string
	Reason string
}

// Gateway runs privileged operations against one workspace: every call goes
// through path validation and the dangerous-operation check before acting,
// and every call is recorded in the audit trail afterwards. The workspace
// root is fixed for the lifetime of the Gateway.
type Gateway struct {
	cfg       *config.Config
	guard     *pathguard.Guard
	sanitizer *sanitize.Sanitizer
	audit     *audit.Log
	fs        *fs.WorkspaceFS
	inspector *syntax.Inspector
}

// New creates a Gateway rooted at workspace.
func New(workspace string, cfg *config.Config) (*Gateway, error) {
	guard, err := pathguard.New(workspace, cfg.BlockedPaths)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize workspace: %w", err)
	}

	sanitizer := sanitize.New()
	sanitizer.AddPIIRules(userRules(cfg.Audit.PIIPatterns))

	return &Gateway{
		cfg:       cfg,
		guard:     guard,
		sanitizer: sanitizer,
		audit:     audit.New(guard.Root(), sanitizer, cfg.Audit.LogFullCommands),
		fs:        fs.New(guard.Root(), 5*time.Minute, 100),
		inspector: syntax.NewInspector(),
	}, nil
}

func userRules(patterns []config.PIIPattern) []policy.UserRule {
	rules := make([]policy.UserRule, 0, len(patterns))
	for _, p := range patterns {
		rules = append(rules, policy.UserRule{Pattern: p.Pattern, Replacement: p.Replacement})
	}
	return rules
}

// Close releases the filesystem watcher.
func (g *Gateway) Close() error {
	return g.fs.Close()
}

// Workspace returns the canonical workspace root.
func (g *Gateway) Workspace() string {
	return g.guard.Root()
}

// Sanitizer exposes the configured sanitizer (shared rule definitions).
func (g *Gateway) Sanitizer() *sanitize.Sanitizer {
	return g.sanitizer
}

// Audit exposes the audit log for query/export/stats.
func (g *Gateway) Audit() *audit.Log {
	return g.audit
}

// ValidatePath checks a candidate path against the workspace.
func (g *Gateway) ValidatePath(candidate string) pathguard.Verdict {
	return g.guard.Validate(candidate)
}

func (g *Gateway) ensureSession(sessionID string) string {
	if sessionID != "" {
		return sessionID
	}
	return uuid.NewString()
}

// names that warrant a warning when the syntax inspector finds them behind
// indirection the regex signatures cannot see
var suspiciousCalls = map[string]bool{
	"system": true, "system2": true, "exec": true, "popen": true,
	"unlink": true, "remove": true, "rmtree": true, "rm": true,
	"setenv": true, "putenv": true, "chdir": true, "setwd": true, "cd": true,
	"source": true, "eval": true,
}

// inspectCalls runs the advisory AST pass. Failures are ignored: the regex
// layer has already ruled.
func (g *Gateway) inspectCalls(command, language string) {
	calls, err := g.inspector.Calls(command, language)
	if err != nil {
		return
	}
	for _, call := range calls {
		name := call.Name
		if idx := strings.LastIndexAny(name, "./:"); idx >= 0 {
			name = name[idx+1:]
		}
		if suspiciousCalls[name] {
			logger.Warn("gateway: call to %q at line %d looks dangerous but matched no signature", call.Name, call.Line)
		}
	}
}

// RunCommand executes command text in the workspace root and returns its
// combined output with secrets redacted.
func (g *Gateway) RunCommand(ctx context.Context, sessionID, command string) (*Result, error) {
	sessionID = g.ensureSession(sessionID)
	start := time.Now()

	if dangerous, ruleID := g.sanitizer.IsDangerous(command); dangerous {
		g.audit.Record(sessionID, ToolRunCommand, command, audit.StatusBlocked, audit.Extra{BlockReason: ruleID})
		return &Result{Status: audit.StatusBlocked, Reason: ruleID},
			fmt.Errorf("%w: %s", ErrPolicyBlocked, ruleID)
	}

	g.inspectCalls(command, "bash")

	args, err := shellwords.Parse(command)
	if err != nil || len(args) == 0 {
		reason := "cannot parse command"
		if err != nil {
			reason = fmt.Sprintf("cannot parse command: %v", err)
		}
		g.audit.Record(sessionID, ToolRunCommand, command, audit.StatusError, audit.Extra{Error: reason})
		return &Result{Status: audit.StatusError, Reason: reason}, fmt.Errorf("%s", reason)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = g.guard.Root()
	cmd.Env = g.filteredEnv()

	out, runErr := cmd.CombinedOutput()
	output := g.sanitizer.RedactSecrets(string(out))

	if tokens := sanitize.HighEntropyTokens(output, sanitize.DefaultEntropyThreshold); len(tokens) > 0 {
		logger.Warn("gateway: command output contains %d high-entropy token(s) that may be secrets", len(tokens))
	}

	extra := audit.Extra{
		Duration: time.Since(start),
		Bytes:    len(out),
		Lines:    countLines(string(out)),
	}

	if runErr != nil {
		extra.Error = runErr.Error()
		g.audit.Record(sessionID, ToolRunCommand, command, audit.StatusError, extra)
		return &Result{Status: audit.StatusError, Output: output, Reason: runErr.Error()},
			fmt.Errorf("command failed: %w", runErr)
	}

	g.audit.Record(sessionID, ToolRunCommand, command, audit.StatusSuccess, extra)
	return &Result{Status: audit.StatusSuccess, Output: output}, nil
}

// WriteFile writes data to a workspace path after validation.
func (g *Gateway) WriteFile(ctx context.Context, sessionID, path string, data []byte) (*Result, error) {
	sessionID = g.ensureSession(sessionID)
	start := time.Now()

	verdict := g.guard.Validate(path)
	if !verdict.OK {
		g.audit.Record(sessionID, ToolWriteFile, path, audit.StatusBlocked, audit.Extra{BlockReason: verdict.Reason})
		return &Result{Status: audit.StatusBlocked, Reason: verdict.Reason},
			fmt.Errorf("%w: %s", ErrRejected, verdict.Reason)
	}

	extra := audit.Extra{
		Bytes: len(data),
		Lines: countLines(string(data)),
	}

	if err := g.fs.WriteFile(ctx, verdict.Resolved, data); err != nil {
		extra.Error = err.Error()
		extra.Duration = time.Since(start)
		g.audit.Record(sessionID, ToolWriteFile, path, audit.StatusError, extra)
		return &Result{Status: audit.StatusError, Reason: err.Error()},
			fmt.Errorf("write failed: %w", err)
	}

	extra.Duration = time.Since(start)
	g.audit.Record(sessionID, ToolWriteFile, path, audit.StatusSuccess, extra)
	return &Result{Status: audit.StatusSuccess, Output: verdict.Resolved}, nil
}

// ReadFile returns a workspace file's contents with secrets redacted.
func (g *Gateway) ReadFile(ctx context.Context, sessionID, path string) (*Result, error) {
	sessionID = g.ensureSession(sessionID)
	start := time.Now()

	verdict := g.guard.Validate(path)
	if !verdict.OK {
		g.audit.Record(sessionID, ToolReadFile, path, audit.StatusBlocked, audit.Extra{BlockReason: verdict.Reason})
		return &Result{Status: audit.StatusBlocked, Reason: verdict.Reason},
			fmt.Errorf("%w: %s", ErrRejected, verdict.Reason)
	}

	data, err := g.fs.ReadFile(ctx, verdict.Resolved)
	if err != nil {
		g.audit.Record(sessionID, ToolReadFile, path, audit.StatusError,
			audit.Extra{Error: err.Error(), Duration: time.Since(start)})
		return &Result{Status: audit.StatusError, Reason: err.Error()},
			fmt.Errorf("read failed: %w", err)
	}

	output := g.sanitizer.RedactSecrets(string(data))

	g.audit.Record(sessionID, ToolReadFile, path, audit.StatusSuccess, audit.Extra{
		Duration: time.Since(start),
		Bytes:    len(data),
		Lines:    countLines(string(data)),
	})
	return &Result{Status: audit.StatusSuccess, Output: output}, nil
}

// ListDir lists a workspace directory after validation.
func (g *Gateway) ListDir(ctx context.Context, sessionID, path string) (*Result, error) {
	sessionID = g.ensureSession(sessionID)
	start := time.Now()

	verdict := g.guard.Validate(path)
	if !verdict.OK {
		g.audit.Record(sessionID, ToolListDir, path, audit.StatusBlocked, audit.Extra{BlockReason: verdict.Reason})
		return &Result{Status: audit.StatusBlocked, Reason: verdict.Reason},
			fmt.Errorf("%w: %s", ErrRejected, verdict.Reason)
	}

	entries, err := g.fs.ListDir(ctx, verdict.Resolved)
	if err != nil {
		g.audit.Record(sessionID, ToolListDir, path, audit.StatusError,
			audit.Extra{Error: err.Error(), Duration: time.Since(start)})
		return &Result{Status: audit.StatusError, Reason: err.Error()},
			fmt.Errorf("list failed: %w", err)
	}

	var b strings.Builder
	for _, e := range entries {
		if e.IsDir {
			b.WriteString(e.Path + "/\n")
		} else {
			fmt.Fprintf(&b, "%s\t%d\n", e.Path, e.Size)
		}
	}

	g.audit.Record(sessionID, ToolListDir, path, audit.StatusSuccess,
		audit.Extra{Duration: time.Since(start), Lines: len(entries)})
	return &Result{Status: audit.StatusSuccess, Output: b.String()}, nil
}

// filteredEnv builds the child environment from the allowlist only.
func (g *Gateway) filteredEnv() []string {
	env := make([]string, 0, len(g.cfg.AllowedEnvVars))
	for _, name := range g.cfg.AllowedEnvVars {
		if value, ok := os.LookupEnv(name); ok {
			env = append(env, name+"="+value)
		}
	}
	return env
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(strings.TrimSuffix(s, "\n"), "\n") + 1
}
