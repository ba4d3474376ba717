package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver/v3"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"

	api "github.com/oshokin/package-installer/internal/api/grpc/installer"
	"github.com/oshokin/package-installer/internal/config"
	"github.com/oshokin/package-installer/internal/logger"
	pb "github.com/oshokin/package-installer/internal/pb/v1"
	"github.com/oshokin/package-installer/internal/repository/history"
)

const (
	// logFileMaxAge is how long rotated host logs are kept.
	logFileMaxAge = 7 * 24 * time.Hour
	// logFileRotationTime is how often the host log file is rotated.
	logFileRotationTime = 24 * time.Hour
)

// Options controls the installer-host process and configuration.
type Options struct {
	// ConfigPath specifies the path to host settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// Ready, when set, receives the bound listen address once the server accepts calls.
	Ready func(address string)
}

var (
	// ErrNoListenAddress indicates missing listen configuration.
	ErrNoListenAddress = errors.New("no listen address configured")
	// errUnknownLogLevel is returned for unsupported log_level values.
	errUnknownLogLevel = errors.New("unknown log level")
)

// Run starts the gRPC server and blocks until context is canceled or server stops.
func Run(ctx context.Context, opts *Options) error {
	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = config.DefaultHostConfigFilename
	}

	configPath, err := filepath.Abs(configPath)
	if err != nil {
		return fmt.Errorf("resolve settings path: %w", err)
	}

	settings, err := config.LoadHost(configPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	closeLog, err := setupLogger(settings)
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}

	defer closeLog()

	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "installer-host")

	listenAddress, err := resolveListenAddress(settings.ListenAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	webRoot, err := filepath.Abs(settings.WebRoot)
	if err != nil {
		return fmt.Errorf("resolve web root: %w", err)
	}

	constraint, err := semver.NewConstraint(settings.ConnectorConstraint)
	if err != nil {
		return fmt.Errorf("parse connector constraint: %w", err)
	}

	svc := newService(webRoot, settings.URLBasePath, configPath, constraint, history.NewFileRepository(settings.HistoryFile))

	// Setup TCP listener for gRPC server.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	grpcServer := grpc.NewServer()
	pb.RegisterPackageInstallerServer(grpcServer, api.NewServer(svc))

	logger.InfoKV(ctx, "Installer host listening",
		"listen_address", lis.Addr().String(),
		"web_root", webRoot,
		"url_base_path", settings.URLBasePath,
		"connector_constraint", settings.ConnectorConstraint,
		"history_file", settings.HistoryFile,
	)

	if opts.Ready != nil {
		opts.Ready(lis.Addr().String())
	}

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()
		close(done)
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "GRPC server stopped")

	return nil
}

// setupLogger installs the host logger: stderr plus an optional rotating file.
func setupLogger(settings *config.HostConfig) (func(), error) {
	level, ok := logger.ParseLogLevel(settings.LogLevel)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownLogLevel, settings.LogLevel)
	}

	logger.SetLevel(level)

	sinks := []zapcore.WriteSyncer{zapcore.AddSync(os.Stderr)}
	closeLog := func() {}

	if settings.LogFile != "" {
		fileLog, err := rotatelogs.New(
			settings.LogFile,
			rotatelogs.WithMaxAge(logFileMaxAge),
			rotatelogs.WithRotationTime(logFileRotationTime),
		)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}

		sinks = append(sinks, zapcore.AddSync(fileLog))
		closeLog = func() { _ = fileLog.Close() }
	}

	logger.SetLogger(logger.NewWithSinks(nil, sinks))

	return closeLog, nil
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise the configured address is used.
func resolveListenAddress(configAddr, override string) (string, error) {
	// Use override address if provided (e.g., ":9090", "0.0.0.0:8080").
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoListenAddress
	}

	if _, _, err := net.SplitHostPort(configAddr); err != nil {
		return "", fmt.Errorf("invalid listen address format %q: %w", configAddr, err)
	}

	return configAddr, nil
}

// HistoryOptions controls the history listing.
type HistoryOptions struct {
	// ConfigPath specifies the path to host settings YAML file.
	ConfigPath string
	// Limit keeps only the most recent records when positive.
	Limit int
}

// PrintHistory writes the installation history as a table.
func PrintHistory(ctx context.Context, opts *HistoryOptions, w io.Writer) error {
	settings, err := config.LoadHost(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	records, err := history.NewFileRepository(settings.HistoryFile).List(ctx)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}

	if opts.Limit > 0 && len(records) > opts.Limit {
		records = records[len(records)-opts.Limit:]
	}

	renderHistory(w, records)

	return nil
}
