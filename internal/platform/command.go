package platform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/package-installer/internal/config"
	"github.com/oshokin/package-installer/internal/domain/install"
	"github.com/oshokin/package-installer/internal/logger"
)

const (
	// MessagesFilename is written into the history folder by SaveInstallationMessages.
	MessagesFilename = "messages.yaml"

	// stderrTail limits how much tool output ends up in an error message.
	stderrTail = 2048

	// commNameLength is how many bytes of a process name the kernel keeps
	// (TASK_COMM_LEN minus the terminator). go-ps reports the truncated name.
	commNameLength = 15

	// stopDelay is how long an interrupted tool may take to exit before it is killed.
	stopDelay = 30 * time.Second

	messagesFileMode os.FileMode = 0o644
)

var (
	// ErrToolBusy is returned when another instance of the update tool is running.
	ErrToolBusy = errors.New("platform update tool is already running")
	// ErrNoHistoryPath is returned when messages are saved without a history location.
	ErrNoHistoryPath = errors.New("history path is empty")
	// errNoCommand is returned when the platform command is not configured.
	errNoCommand = errors.New("platform command is not configured")
)

// ToolError describes a failed run of the platform update tool.
type ToolError struct {
	// Subcommand is the first argument passed to the tool.
	Subcommand string
	// Stderr is the tail of the tool's error output.
	Stderr string
	// Err is the underlying execution error.
	Err error
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("platform %s: %v", e.Subcommand, e.Err)
	}

	return fmt.Sprintf("platform %s: %v: %s", e.Subcommand, e.Err, e.Stderr)
}

// Unwrap returns the underlying execution error.
func (e *ToolError) Unwrap() error {
	return e.Err
}

// CommandPlatform drives the platform's own update tool as a child process.
// Every subcommand prints YAML on stdout.
type CommandPlatform struct {
	command     []string
	processName string
	timeout     time.Duration
	stopDelay   time.Duration
	security    *Switcher
	processes   func() ([]ps.Process, error)
}

// Option configures a CommandPlatform.
type Option func(*CommandPlatform)

// WithProcessLister replaces the process listing used to detect a busy tool.
func WithProcessLister(list func() ([]ps.Process, error)) Option {
	return func(p *CommandPlatform) {
		p.processes = list
	}
}

// NewCommandPlatform creates a platform bound to the configured tool.
func NewCommandPlatform(cfg config.PlatformConfig, security *Switcher, opts ...Option) *CommandPlatform {
	if security == nil {
		security = new(Switcher)
	}

	p := &CommandPlatform{
		command:     append([]string(nil), cfg.Command...),
		processName: cfg.ProcessName,
		timeout:     cfg.Timeout,
		stopDelay:   stopDelay,
		security:    security,
		processes:   ps.Processes,
	}

	if p.processName == "" && len(p.command) > 0 {
		p.processName = filepath.Base(p.command[0])
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// LoadMetadata runs "metadata <package>".
func (p *CommandPlatform) LoadMetadata(ctx context.Context, packagePath string) (*install.Metadata, error) {
	out, err := p.run(ctx, nil, "metadata", packagePath)
	if err != nil {
		return nil, err
	}

	var metadata install.Metadata
	if err := yaml.Unmarshal(out, &metadata); err != nil {
		return nil, fmt.Errorf("decode package metadata: %w", err)
	}

	return &metadata, nil
}

// InstallPackage runs "install --mode <mode> --action <action> <package>".
func (p *CommandPlatform) InstallPackage(
	ctx context.Context,
	packagePath string,
	mode install.Mode,
	action install.Action,
) (*InstallResult, error) {
	out, err := p.run(ctx, nil, "install", "--mode", string(mode), "--action", string(action), packagePath)
	if err != nil {
		return nil, err
	}

	var result InstallResult
	if err := yaml.Unmarshal(out, &result); err != nil {
		return nil, fmt.Errorf("decode install result: %w", err)
	}

	return &result, nil
}

// postInstallDocument is passed on stdin to "post-install" and read back from stdout.
type postInstallDocument struct {
	Metadata *install.Metadata          `yaml:"metadata,omitempty"`
	Entries  []install.ContingencyEntry `yaml:"entries"`
}

// ExecutePostInstallationInstructions runs
// "post-install --mode <mode> --history <historyPath> <package>" with the
// metadata and entries on stdin. Entries printed by the tool replace the input;
// when the tool prints nothing, the input entries are kept.
func (p *CommandPlatform) ExecutePostInstallationInstructions(
	ctx context.Context,
	packagePath string,
	historyPath string,
	mode install.Mode,
	metadata *install.Metadata,
	entries []install.ContingencyEntry,
) ([]install.ContingencyEntry, error) {
	input, err := yaml.Marshal(&postInstallDocument{Metadata: metadata, Entries: entries})
	if err != nil {
		return nil, fmt.Errorf("encode post-install input: %w", err)
	}

	out, err := p.run(ctx, input, "post-install", "--mode", string(mode), "--history", historyPath, packagePath)
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(out)) == 0 {
		return entries, nil
	}

	var document postInstallDocument
	if err := yaml.Unmarshal(out, &document); err != nil {
		return nil, fmt.Errorf("decode post-install result: %w", err)
	}

	return document.Entries, nil
}

// SaveInstallationMessages writes entries as YAML into the history folder.
func (p *CommandPlatform) SaveInstallationMessages(
	ctx context.Context,
	entries []install.ContingencyEntry,
	historyPath string,
) error {
	if historyPath == "" {
		return ErrNoHistoryPath
	}

	contents, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode installation messages: %w", err)
	}

	target := filepath.Join(historyPath, MessagesFilename)
	if err := os.WriteFile(target, contents, messagesFileMode); err != nil {
		return fmt.Errorf("save installation messages: %w", err)
	}

	logger.DebugKV(ctx, "Installation messages saved", "path", target, "entries", len(entries))

	return nil
}

// run executes one subcommand of the update tool and returns its stdout.
func (p *CommandPlatform) run(ctx context.Context, stdin []byte, args ...string) ([]byte, error) {
	if len(p.command) == 0 {
		return nil, errNoCommand
	}

	if err := p.ensureNotRunning(); err != nil {
		return nil, err
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	arguments := append(append([]string(nil), p.command[1:]...), args...)

	//nolint:gosec // The tool and its arguments come from host settings.
	cmd := exec.CommandContext(ctx, p.command[0], arguments...)
	cmd.Env = os.Environ()
	// The tool is interrupted first so it can roll back; it is killed after stopDelay.
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = p.stopDelay

	if p.security.Disabled() {
		cmd.Env = append(cmd.Env, SecurityEnv+"=1")
	}

	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.DebugKV(ctx, "Running platform tool", "subcommand", args[0], "security_disabled", p.security.Disabled())

	if err := cmd.Run(); err != nil {
		return nil, &ToolError{
			Subcommand: args[0],
			Stderr:     tail(strings.TrimSpace(stderr.String()), stderrTail),
			Err:        err,
		}
	}

	return stdout.Bytes(), nil
}

// ensureNotRunning refuses to start while another process of the tool runs.
func (p *CommandPlatform) ensureNotRunning() error {
	processes, err := p.processes()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	self := os.Getpid()

	for _, process := range processes {
		if process.Pid() == self {
			continue
		}

		if sameProcessName(process.Executable(), p.processName) {
			return fmt.Errorf("%w: %s (pid %d)", ErrToolBusy, p.processName, process.Pid())
		}
	}

	return nil
}

// sameProcessName reports whether a listed process name belongs to name.
// Listed names may be cut to the kernel's command length, so a listed name of
// that length matches every name it is a prefix of.
func sameProcessName(listed, name string) bool {
	if listed == "" {
		return false
	}

	if listed == name {
		return true
	}

	return len(listed) >= commNameLength && strings.HasPrefix(name, listed)
}

// tail returns at most limit trailing bytes of s.
func tail(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	return s[len(s)-limit:]
}
