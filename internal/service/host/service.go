package host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/package-installer/internal/domain/install"
	"github.com/oshokin/package-installer/internal/fault"
	"github.com/oshokin/package-installer/internal/logger"
	"github.com/oshokin/package-installer/internal/repository/history"
)

const (
	// stderrTail limits how much connector output ends up in a fault message.
	stderrTail = 2048

	// connectorStopDelay is how long an interrupted connector may take to stop
	// its platform tool. It exceeds the connector's own stop delay for the tool.
	connectorStopDelay = 45 * time.Second
)

// errNoOutcome is returned when a connector exits without reporting an outcome.
var errNoOutcome = errors.New("connector reported no outcome")

// service runs staged connectors, one installation at a time.
// It is unexported to keep the transport decoupled from the implementation.
type service struct {
	// webRoot is the folder connectors are staged into.
	webRoot string
	// urlBasePath is stripped from connector paths before they are resolved.
	urlBasePath string
	// configPath is passed to every connector run.
	configPath string
	// constraint is the accepted range of connector versions.
	constraint *semver.Constraints
	// repo records finished installations.
	repo history.Repository
	// now returns the current time.
	now func() time.Time
	// stopDelay bounds how long a cancelled connector may keep running.
	stopDelay time.Duration
	// mu allows a single installation at a time.
	mu sync.Mutex
}

// newService creates a service backed by the provided repository.
func newService(
	webRoot, urlBasePath, configPath string,
	constraint *semver.Constraints,
	repo history.Repository,
) *service {
	return &service{
		webRoot:     webRoot,
		urlBasePath: urlBasePath,
		configPath:  configPath,
		constraint:  constraint,
		repo:        repo,
		now:         time.Now,
		stopDelay:   connectorStopDelay,
	}
}

// Install runs the connector named by the request for its package.
// A failed installation is returned as *install.Fault.
func (s *service) Install(ctx context.Context, req *install.Request) error {
	id := req.ID
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}

	ctx = logger.WithKV(ctx, "request_id", id)

	staged, err := resolveConnector(s.webRoot, stripURLBasePath(req.ConnectorPath, s.urlBasePath), s.constraint)
	if err != nil {
		logger.WarnKV(ctx, "Connector refused", "connector", req.ConnectorPath, "error", err)

		return err
	}

	if !s.mu.TryLock() {
		logger.WarnKV(ctx, "Installation refused while another one runs", "package", req.PackagePath)

		return install.ErrBusy
	}
	defer s.mu.Unlock()

	logger.InfoKV(ctx, "Installation started",
		"package", req.PackagePath,
		"actor", req.Actor,
		"connector_version", staged.descriptor.Version,
	)

	record := &install.Record{
		ID:          id,
		PackagePath: req.PackagePath,
		Actor:       req.Actor.Clone(),
		StartedAt:   s.now(),
	}

	outcome, err := s.runConnector(ctx, staged.libraryPath, req.PackagePath)
	record.FinishedAt = s.now()

	if err == nil && outcome.Status != install.StatusOK {
		err = outcome.Fault
		if outcome.Fault == nil {
			err = fault.Wrap(fmt.Errorf("%w: status %q", errNoOutcome, outcome.Status))
		}
	}

	if err != nil {
		record.Status = install.StatusFault
		record.Fault = err.Error()
	} else {
		record.Status = install.StatusOK
		record.HistoryPath = outcome.HistoryPath
		record.Entries = len(outcome.Entries)
		record.Warnings, record.Errors = install.CountEntries(outcome.Entries)
	}

	if appendErr := s.repo.Append(ctx, record); appendErr != nil {
		logger.ErrorKV(ctx, "Failed to record installation", "error", appendErr)
	}

	if err != nil {
		logger.ErrorKV(ctx, "Installation failed", "package", req.PackagePath, "error", err, "duration", record.Duration())

		return err
	}

	logger.InfoKV(ctx, "Installation finished",
		"package", req.PackagePath,
		"entries", record.Entries,
		"warnings", record.Warnings,
		"errors", record.Errors,
		"duration", record.Duration(),
	)

	return nil
}

// runConnector executes the connector library and decodes the outcome it prints.
func (s *service) runConnector(ctx context.Context, libraryPath, packagePath string) (*install.Outcome, error) {
	//nolint:gosec // The library is verified against its descriptor checksum.
	cmd := exec.CommandContext(ctx, libraryPath, "install", "--config", s.configPath, "--package", packagePath)
	// A cancelled call interrupts the connector so it stops the platform tool
	// before the installation lock is released. It is killed after stopDelay.
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = s.stopDelay

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if stderr.Len() > 0 {
		logger.DebugKV(ctx, "Connector output", "stderr", strings.TrimSpace(stderr.String()))
	}

	var outcome install.Outcome
	if decodeErr := yaml.Unmarshal(stdout.Bytes(), &outcome); decodeErr == nil && outcome.Status != "" {
		return &outcome, nil
	}

	if runErr != nil {
		return nil, fault.Wrap(fmt.Errorf("run connector: %w: %s", runErr, tail(stderr.String())))
	}

	return nil, fault.Wrap(errNoOutcome)
}

// tail returns the trailing part of connector output.
func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= stderrTail {
		return s
	}

	return s[len(s)-stderrTail:]
}
