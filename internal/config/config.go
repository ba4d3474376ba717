package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// Config holds the connector settings used by package-installer.
type Config struct {
	// ConnectorFolder is the folder under the web root that hosts the connector descriptor.
	ConnectorFolder string `yaml:"connector_folder"`
	// LibraryName is the file name of the connector library staged into the bin folder.
	LibraryName string `yaml:"library_name"`
	// DescriptorName is the file name of the connector descriptor.
	DescriptorName string `yaml:"descriptor_name"`
	// IncludesFolder is the folder next to the executable holding the descriptor source.
	IncludesFolder string `yaml:"includes_folder"`
	// Timeout bounds the remote installation call.
	Timeout time.Duration `yaml:"timeout"`
}

// HostConfig holds the settings of installer-host and of the connector it runs.
type HostConfig struct {
	// ListenAddress is the gRPC listen address, e.g. ":8080".
	ListenAddress string `yaml:"listen_address"`
	// WebRoot is the folder connectors are staged into.
	WebRoot string `yaml:"web_root"`
	// URLBasePath is the application path the site is served under, e.g. "site"
	// for "http://host/site/". It is stripped from connector paths before they
	// are resolved under WebRoot.
	URLBasePath string `yaml:"url_base_path"`
	// ConnectorConstraint is the semver constraint a staged connector must satisfy.
	ConnectorConstraint string `yaml:"connector_constraint"`
	// HistoryFile is where installation records are appended.
	HistoryFile string `yaml:"history_file"`
	// LogFile is an optional strftime pattern for a rotating log file.
	LogFile string `yaml:"log_file"`
	// LogLevel is the minimum level of host logs.
	LogLevel string `yaml:"log_level"`
	// Platform configures access to the platform's update tool.
	Platform PlatformConfig `yaml:"platform"`
}

// PlatformConfig describes how the connector reaches the platform's update tool.
type PlatformConfig struct {
	// Command is the update tool executable followed by fixed leading arguments.
	Command []string `yaml:"command"`
	// ProcessName is the process name of a running update tool. It defaults to the
	// base name of the executable and is required when Command has leading
	// arguments, since the executable is then an interpreter or launcher.
	ProcessName string `yaml:"process_name"`
	// SaveInstallationMessages persists contingency entries into the history folder
	// after installation. Older platform versions need it.
	SaveInstallationMessages bool `yaml:"save_installation_messages"`
	// Timeout bounds every single platform tool invocation; zero means no extra bound.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for connector settings.
	DefaultConfigFilename = "package-installer-settings.yaml"

	// DefaultHostConfigFilename is the default filename for host settings.
	DefaultHostConfigFilename = "installer-host-settings.yaml"

	// DefaultConnectorFolder is the connector folder used when none is configured.
	DefaultConnectorFolder = "_DEV"

	// DefaultDescriptorName is the connector descriptor file name.
	DefaultDescriptorName = "PackageInstaller.yaml"

	// DefaultIncludesFolder holds the descriptor next to the executable.
	DefaultIncludesFolder = "Includes"

	// DefaultTimeout is the remote installation timeout. Installing a package may be slow.
	DefaultTimeout = 600 * time.Second

	// DefaultConnectorConstraint accepts every connector of the first major version.
	DefaultConnectorConstraint = ">= 1.0.0, < 2.0.0"

	// DefaultHistoryFilename is where the host appends installation records.
	DefaultHistoryFilename = "installer-history.yaml"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// baseLibraryName is the connector library name without platform extension.
	baseLibraryName = "installer-service"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errBadName is returned when a configured name is not a plain file or folder name.
	errBadName = errors.New("must be a plain name without path separators")
	// errListenAddressRequired is returned when the host listen address is missing.
	errListenAddressRequired = errors.New("listen address must be provided")
	// errWebRootRequired is returned when the host web root is missing.
	errWebRootRequired = errors.New("web root must be provided")
	// errPlatformCommandRequired is returned when no platform update tool is configured.
	errPlatformCommandRequired = errors.New("platform command must be provided")
	// errProcessNameRequired is returned when a platform command with leading
	// arguments has no process name to detect a running tool by.
	errProcessNameRequired = errors.New("platform process name must be provided when the command has arguments")
	// errBadURLBasePath is returned when the URL base path leaves the site root.
	errBadURLBasePath = errors.New("url base path must be a relative path inside the site")
)

// DefaultLibraryName returns the connector library name for the current platform.
func DefaultLibraryName() string {
	if runtime.GOOS == "windows" {
		return baseLibraryName + ".exe"
	}

	return baseLibraryName
}

// Default returns connector settings with every field set to its default.
func Default() *Config {
	return &Config{
		ConnectorFolder: DefaultConnectorFolder,
		LibraryName:     DefaultLibraryName(),
		DescriptorName:  DefaultDescriptorName,
		IncludesFolder:  DefaultIncludesFolder,
		Timeout:         DefaultTimeout,
	}
}

// ExecutableDir returns the folder of the running executable.
func ExecutableDir() (string, error) {
	executable, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}

	return filepath.Dir(executable), nil
}

// Load reads connector settings from path. An empty path means the default
// settings file next to the executable; if that file is absent, defaults are used.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		dir, err := ExecutableDir()
		if err != nil {
			return nil, err
		}

		path = filepath.Join(dir, DefaultConfigFilename)
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes connector settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	return writeYAML(path, cfg)
}

// Validate checks connector settings and fills defaults for empty fields.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ConnectorFolder == "" {
		cfg.ConnectorFolder = DefaultConnectorFolder
	}

	if cfg.LibraryName == "" {
		cfg.LibraryName = DefaultLibraryName()
	}

	if cfg.DescriptorName == "" {
		cfg.DescriptorName = DefaultDescriptorName
	}

	if cfg.IncludesFolder == "" {
		cfg.IncludesFolder = DefaultIncludesFolder
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	names := map[string]string{
		"connector folder": cfg.ConnectorFolder,
		"library name":     cfg.LibraryName,
		"descriptor name":  cfg.DescriptorName,
		"includes folder":  cfg.IncludesFolder,
	}
	for field, value := range names {
		if !isPlainName(value) {
			return fmt.Errorf("%s %q: %w", field, value, errBadName)
		}
	}

	return nil
}

// LoadHost reads and validates host settings.
func LoadHost(path string) (*HostConfig, error) {
	if path == "" {
		path = DefaultHostConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read host settings: %w", err)
	}

	var cfg HostConfig
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal host settings: %w", err)
	}

	if err := ValidateHost(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SaveHost writes host settings to the provided path.
func SaveHost(path string, cfg *HostConfig) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultHostConfigFilename
	}

	if err := ValidateHost(cfg); err != nil {
		return err
	}

	return writeYAML(path, cfg)
}

// ValidateHost checks host settings and fills defaults for optional fields.
func ValidateHost(cfg *HostConfig) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ListenAddress == "" {
		return errListenAddressRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.ListenAddress); err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}

	if cfg.WebRoot == "" {
		return errWebRootRequired
	}

	if len(cfg.Platform.Command) == 0 || strings.TrimSpace(cfg.Platform.Command[0]) == "" {
		return errPlatformCommandRequired
	}

	if len(cfg.Platform.Command) > 1 && strings.TrimSpace(cfg.Platform.ProcessName) == "" {
		return errProcessNameRequired
	}

	cfg.URLBasePath = strings.Trim(cfg.URLBasePath, "/")
	if cfg.URLBasePath != "" && !filepath.IsLocal(filepath.FromSlash(cfg.URLBasePath)) {
		return fmt.Errorf("%w: %q", errBadURLBasePath, cfg.URLBasePath)
	}

	if cfg.ConnectorConstraint == "" {
		cfg.ConnectorConstraint = DefaultConnectorConstraint
	}

	if _, err := semver.NewConstraint(cfg.ConnectorConstraint); err != nil {
		return fmt.Errorf("invalid connector constraint: %w", err)
	}

	if cfg.HistoryFile == "" {
		cfg.HistoryFile = DefaultHistoryFilename
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return nil
}

// writeYAML marshals value and writes it with restricted permissions.
func writeYAML(path string, value any) error {
	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// isPlainName reports whether name is a single path element.
func isPlainName(name string) bool {
	if name == "." || name == ".." {
		return false
	}

	return !strings.ContainsAny(name, `/\`)
}
