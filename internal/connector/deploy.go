package connector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"
	"github.com/otiai10/copy"

	"github.com/oshokin/package-installer/internal/logger"
)

const (
	// FileMode is used for staged connector files.
	FileMode os.FileMode = 0o755
	// DirMode is used for folders created under the web root.
	DirMode os.FileMode = 0o755
	// ownerWrite is the permission bit that clears the read-only attribute.
	ownerWrite os.FileMode = 0o200
)

// ErrSourceMissing is returned when a connector source file is absent.
var ErrSourceMissing = errors.New("cannot find file")

// Staged is a connector copied into a web root. It owns the two staged files
// until Remove is called.
type Staged struct {
	// LibraryPath is the staged library.
	LibraryPath string
	// DescriptorPath is the staged descriptor.
	DescriptorPath string
}

// Deploy copies the connector library and descriptor from sourceDir into deployFolder.
// Existing copies are overwritten even when read-only. Deploy is not atomic:
// once the target paths are known a non-nil Staged is returned even on error,
// so the caller can remove whatever was copied.
func Deploy(ctx context.Context, sourceDir, deployFolder string, layout Layout) (*Staged, error) {
	logger.Debug(ctx, "Initializing Sitecore connector ...")

	librarySource := layout.LibrarySource(sourceDir)
	descriptorSource := layout.DescriptorSource(sourceDir)

	for _, source := range []string{librarySource, descriptorSource} {
		if err := requireFile(source); err != nil {
			return nil, err
		}
	}

	staged := &Staged{
		LibraryPath:    layout.LibraryTarget(deployFolder),
		DescriptorPath: layout.DescriptorTarget(deployFolder),
	}

	for _, path := range staged.paths() {
		if err := os.MkdirAll(filepath.Dir(path), DirMode); err != nil {
			return staged, fmt.Errorf("create connector folder: %w", err)
		}

		if err := clearReadOnly(path); err != nil {
			return staged, err
		}
	}

	if err := stageLibrary(librarySource, staged.LibraryPath); err != nil {
		return staged, fmt.Errorf("stage library: %w", err)
	}

	//nolint:exhaustruct // Defaults are fine for a single file.
	options := copy.Options{
		Sync:              true,
		PermissionControl: copy.AddPermission(ownerWrite),
	}
	if err := copy.Copy(descriptorSource, staged.DescriptorPath, options); err != nil {
		return staged, fmt.Errorf("stage descriptor: %w", err)
	}

	logger.DebugKV(ctx, "Sitecore connector deployed successfully.",
		"library", staged.LibraryPath, "descriptor", staged.DescriptorPath)

	return staged, nil
}

// Remove deletes the staged files. A nil or empty handle is a no-op and files
// that are already gone are ignored.
func (s *Staged) Remove(ctx context.Context) error {
	if s == nil || (s.LibraryPath == "" && s.DescriptorPath == "") {
		return nil
	}

	var errs []error

	for _, path := range s.paths() {
		if err := clearReadOnly(path); err != nil {
			errs = append(errs, err)
		}

		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	logger.Debug(ctx, "Sitecore connector removed successfully.")

	return nil
}

func (s *Staged) paths() []string {
	paths := make([]string, 0, 2)

	for _, path := range []string{s.LibraryPath, s.DescriptorPath} {
		if path != "" {
			paths = append(paths, path)
		}
	}

	return paths
}

// stageLibrary replaces target with source using go-update, which verifies the
// checksum of the written bytes and swaps the file in place.
func stageLibrary(source, target string) error {
	data, err := os.ReadFile(filepath.Clean(source))
	if err != nil {
		return err
	}

	checksum, err := checksumOf(data)
	if err != nil {
		return err
	}

	// go-update renames the current target away first, so it must exist.
	if _, err = os.Stat(target); errors.Is(err, os.ErrNotExist) {
		if err = os.WriteFile(target, nil, FileMode); err != nil {
			return err
		}
	}

	options := goupdate.Options{
		TargetPath: target,
		TargetMode: FileMode,
		Checksum:   checksum,
		Hash:       ChecksumFunction,
	}

	return goupdate.Apply(bytes.NewReader(data), options)
}

// requireFile fails with ErrSourceMissing unless path is a regular file.
func requireFile(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w %s", ErrSourceMissing, path)
	}

	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%w %s", ErrSourceMissing, path)
	}

	return nil
}

// clearReadOnly makes an existing file writable so it can be replaced or deleted.
func clearReadOnly(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if info.Mode().Perm()&ownerWrite != 0 {
		return nil
	}

	if err := os.Chmod(path, info.Mode().Perm()|ownerWrite); err != nil {
		return fmt.Errorf("clear read-only attribute of %s: %w", path, err)
	}

	return nil
}
