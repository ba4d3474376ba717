package connector

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// testLayout mirrors the default settings with short names.
var testLayout = Layout{ //nolint:gochecknoglobals // Shared read-only fixture.
	ConnectorFolder: "_DEV",
	LibraryName:     "installer-service",
	DescriptorName:  "PackageInstaller.yaml",
	IncludesFolder:  "Includes",
}

// writeSources creates a library and descriptor source pair and returns the source folder.
func writeSources(t *testing.T, library string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(testLayout.LibrarySource(dir), []byte(library), FileMode))

	checksum, err := Checksum(testLayout.LibrarySource(dir))
	require.NoError(t, err)

	require.NoError(t, WriteDescriptor(testLayout.DescriptorSource(dir), &Descriptor{
		Service:   ServiceName,
		Library:   testLayout.LibraryName,
		Checksum:  base64.StdEncoding.EncodeToString(checksum),
		Version:   "1.0.0",
		CreatedAt: time.Unix(1700000000, 0).UTC(),
	}))

	return dir
}

// TestNormalize covers trailing separator handling for URLs and folders.
func TestNormalize(t *testing.T) {
	t.Parallel()

	require.Equal(t, "http://host/", NormalizeURL("http://host"))
	require.Equal(t, "http://host/", NormalizeURL("http://host/"))
	require.Equal(t, `C:\site\`, NormalizeFolder(`C:\site`))
	require.Equal(t, `\\server\share\site\`, NormalizeFolder(`\\server\share\site`))
	require.Equal(t, `C:\site\`, NormalizeFolder(`C:\site\`))
	require.Equal(t, "/srv/site/", NormalizeFolder("/srv/site/"))
	require.Equal(t, "/srv/site"+string(filepath.Separator), NormalizeFolder("/srv/site"))
}

// TestAddress verifies the connector endpoint built from a base URL.
func TestAddress(t *testing.T) {
	t.Parallel()

	require.Equal(t, "http://host/_DEV/PackageInstaller.yaml", Address("http://host", testLayout))
	require.Equal(t, "https://cms.local:8443/_DEV/PackageInstaller.yaml", Address("https://cms.local:8443/", testLayout))
}

// TestDeploy_MissingSource leaves the deploy folder untouched when a source is missing.
func TestDeploy_MissingSource(t *testing.T) {
	t.Parallel()

	source := writeSources(t, "library")
	require.NoError(t, os.Remove(testLayout.DescriptorSource(source)))

	deployFolder := t.TempDir()

	staged, err := Deploy(context.Background(), source, deployFolder, testLayout)
	require.ErrorIs(t, err, ErrSourceMissing)
	require.Contains(t, err.Error(), testLayout.DescriptorName)
	require.Nil(t, staged)

	entries, err := os.ReadDir(deployFolder)
	require.NoError(t, err)
	require.Empty(t, entries)
}

// TestDeployAndRemove stages both files and removes them afterwards.
func TestDeployAndRemove(t *testing.T) {
	t.Parallel()

	source := writeSources(t, "library v1")
	deployFolder := t.TempDir()

	staged, err := Deploy(context.Background(), source, deployFolder, testLayout)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(deployFolder, "bin", "installer-service"), staged.LibraryPath)
	require.Equal(t, filepath.Join(deployFolder, "_DEV", "PackageInstaller.yaml"), staged.DescriptorPath)

	library, err := os.ReadFile(staged.LibraryPath)
	require.NoError(t, err)
	require.Equal(t, "library v1", string(library))

	d, err := ReadDescriptor(staged.DescriptorPath)
	require.NoError(t, err)
	require.NoError(t, d.Verify(staged.LibraryPath))

	require.NoError(t, staged.Remove(context.Background()))
	require.NoFileExists(t, staged.LibraryPath)
	require.NoFileExists(t, staged.DescriptorPath)

	// Removing twice is harmless.
	require.NoError(t, staged.Remove(context.Background()))
}

// TestDeploy_OverwritesReadOnlyCopies redeploys over read-only leftovers of a failed run.
func TestDeploy_OverwritesReadOnlyCopies(t *testing.T) {
	t.Parallel()

	deployFolder := t.TempDir()

	staged, err := Deploy(context.Background(), writeSources(t, "old"), deployFolder, testLayout)
	require.NoError(t, err)
	require.NoError(t, os.Chmod(staged.LibraryPath, 0o444))
	require.NoError(t, os.Chmod(staged.DescriptorPath, 0o444))

	staged, err = Deploy(context.Background(), writeSources(t, "new"), deployFolder, testLayout)
	require.NoError(t, err)

	library, err := os.ReadFile(staged.LibraryPath)
	require.NoError(t, err)
	require.Equal(t, "new", string(library))

	require.NoError(t, os.Chmod(staged.LibraryPath, 0o444))
	require.NoError(t, staged.Remove(context.Background()))
	require.NoFileExists(t, staged.LibraryPath)
	require.NoFileExists(t, staged.DescriptorPath)
}

// TestStaged_RemoveNoop covers handles that never staged anything.
func TestStaged_RemoveNoop(t *testing.T) {
	t.Parallel()

	var staged *Staged
	require.NoError(t, staged.Remove(context.Background()))
	require.NoError(t, new(Staged).Remove(context.Background()))
}

// TestDescriptor_Roundtrip writes and reads a descriptor.
func TestDescriptor_Roundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "Includes", "PackageInstaller.yaml")
	want := &Descriptor{
		Service:   ServiceName,
		Library:   "installer-service",
		Checksum:  base64.StdEncoding.EncodeToString([]byte("sum")),
		Version:   "1.2.3",
		CreatedAt: time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC),
	}

	require.NoError(t, WriteDescriptor(path, want))

	got, err := ReadDescriptor(path)
	require.NoError(t, err)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("descriptor mismatch (-want +got):\n%s", diff)
	}
}

// TestDescriptor_VerifyMismatch rejects libraries that changed after packaging.
func TestDescriptor_VerifyMismatch(t *testing.T) {
	t.Parallel()

	source := writeSources(t, "library")

	d, err := ReadDescriptor(testLayout.DescriptorSource(source))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(testLayout.LibrarySource(source), []byte("tampered"), FileMode))
	require.ErrorIs(t, d.Verify(testLayout.LibrarySource(source)), ErrChecksumMismatch)
}

// TestDescriptor_Validate rejects incomplete descriptors.
func TestDescriptor_Validate(t *testing.T) {
	t.Parallel()

	var d *Descriptor
	require.ErrorIs(t, d.Validate(), ErrBadDescriptor)

	d = &Descriptor{Service: ServiceName, Library: "../escape", Checksum: "c3Vt", Version: "1.0.0"}
	require.ErrorIs(t, d.Validate(), ErrBadDescriptor)

	d.Library = "installer-service"
	require.NoError(t, d.Validate())

	d.Checksum = "not base64!"
	require.ErrorIs(t, d.Validate(), ErrBadDescriptor)
}
