package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks defaults and name validation for connector settings.
func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := new(Config)
	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultConnectorFolder, cfg.ConnectorFolder)
	require.Equal(t, DefaultLibraryName(), cfg.LibraryName)
	require.Equal(t, DefaultDescriptorName, cfg.DescriptorName)
	require.Equal(t, DefaultTimeout, cfg.Timeout)

	for _, folder := range []string{"a/b", `a\b`, "..", "."} {
		err := Validate(&Config{ConnectorFolder: folder})
		require.ErrorIs(t, err, errBadName, folder)
	}

	require.ErrorIs(t, Validate(nil), errConfigIsNotSet)
}

// TestLoad_ExplicitMissingFile fails when an explicitly requested file is absent.
func TestLoad_ExplicitMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	cfg := &Config{
		ConnectorFolder: "_CONNECTOR",
		Timeout:         90 * time.Second,
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "_CONNECTOR", loaded.ConnectorFolder)
	require.Equal(t, 90*time.Second, loaded.Timeout)
	require.Equal(t, DefaultDescriptorName, loaded.DescriptorName)
}

// TestLoad_PartialFileKeepsDefaults verifies that omitted keys fall back to defaults.
func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("connector_folder: _TDS\n"), DefaultFilePermissions))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "_TDS", loaded.ConnectorFolder)
	require.Equal(t, DefaultIncludesFolder, loaded.IncludesFolder)
	require.Equal(t, DefaultTimeout, loaded.Timeout)
}

// TestValidateHost checks required host fields and defaults.
func TestValidateHost(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, ValidateHost(new(HostConfig)), errListenAddressRequired)

	cfg := &HostConfig{ListenAddress: "bad:address"}
	require.Error(t, ValidateHost(cfg))

	cfg = &HostConfig{ListenAddress: "127.0.0.1:0"}
	require.ErrorIs(t, ValidateHost(cfg), errWebRootRequired)

	cfg.WebRoot = t.TempDir()
	require.ErrorIs(t, ValidateHost(cfg), errPlatformCommandRequired)

	cfg.Platform.Command = []string{"update-tool"}
	require.NoError(t, ValidateHost(cfg))
	require.Equal(t, DefaultConnectorConstraint, cfg.ConnectorConstraint)
	require.Equal(t, DefaultHistoryFilename, cfg.HistoryFile)

	cfg.Platform.Command = []string{"dotnet", "Sitecore.Update.Tool.dll"}
	require.ErrorIs(t, ValidateHost(cfg), errProcessNameRequired)

	cfg.Platform.ProcessName = "Sitecore.Update.Tool"
	require.NoError(t, ValidateHost(cfg))

	cfg.URLBasePath = "/site/"
	require.NoError(t, ValidateHost(cfg))
	require.Equal(t, "site", cfg.URLBasePath)

	cfg.URLBasePath = "../outside"
	require.ErrorIs(t, ValidateHost(cfg), errBadURLBasePath)

	cfg.URLBasePath = ""
	cfg.ConnectorConstraint = "not a constraint"
	require.Error(t, ValidateHost(cfg))
}

// TestSaveLoadHostRoundtrip ensures host settings survive a YAML roundtrip.
func TestSaveLoadHostRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "host.yaml")

	cfg := &HostConfig{
		ListenAddress: "127.0.0.1:50051",
		WebRoot:       dir,
		Platform: PlatformConfig{
			Command:                  []string{"update-tool", "--site", "main"},
			ProcessName:              "update-tool",
			SaveInstallationMessages: true,
			Timeout:                  time.Minute,
		},
	}

	require.NoError(t, SaveHost(path, cfg))

	loaded, err := LoadHost(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Platform, loaded.Platform)
	require.Equal(t, dir, loaded.WebRoot)
}
