package connector

import (
	"bytes"
	"crypto"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	// Ensure SHA512 available for checksum calculation.
	_ "crypto/sha512"
)

// ChecksumFunction is used to fingerprint connector libraries.
const ChecksumFunction crypto.Hash = crypto.SHA512

// ServiceName is the service a descriptor exposes.
const ServiceName = "PackageInstaller"

var (
	errHashUnavailable = errors.New("hash function unavailable")

	// ErrChecksumMismatch is returned when a library does not match its descriptor.
	ErrChecksumMismatch = errors.New("library checksum does not match descriptor")
	// ErrBadDescriptor is returned when a descriptor misses required fields.
	ErrBadDescriptor = errors.New("invalid connector descriptor")
)

// Descriptor tells the host which library serves a staged connector.
type Descriptor struct {
	// Service is the exposed service name.
	Service string `yaml:"service"`
	// Library is the library file name under the bin folder.
	Library string `yaml:"library"`
	// Checksum is the base64-encoded SHA-512 of the library.
	Checksum string `yaml:"checksum"`
	// Version is the semantic version of the connector build.
	Version string `yaml:"version"`
	// CreatedAt is when the descriptor was produced.
	CreatedAt time.Time `yaml:"created_at"`
}

// Checksum returns the SHA-512 of a file.
func Checksum(path string) ([]byte, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	return checksumOf(contents)
}

func checksumOf(contents []byte) ([]byte, error) {
	if !ChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := ChecksumFunction.New()
	if _, err := hasher.Write(contents); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}

// ReadDescriptor loads and validates a descriptor.
func ReadDescriptor(path string) (*Descriptor, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var d Descriptor
	if err := yaml.Unmarshal(contents, &d); err != nil {
		return nil, fmt.Errorf("decode descriptor: %w", err)
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}

	return &d, nil
}

// WriteDescriptor validates and writes a descriptor.
func WriteDescriptor(path string, d *Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}

	contents, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode descriptor: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), DirMode); err != nil {
		return fmt.Errorf("create descriptor folder: %w", err)
	}

	return os.WriteFile(filepath.Clean(path), contents, FileMode)
}

// Validate checks required fields.
func (d *Descriptor) Validate() error {
	switch {
	case d == nil:
		return fmt.Errorf("%w: empty", ErrBadDescriptor)
	case d.Service == "":
		return fmt.Errorf("%w: service is required", ErrBadDescriptor)
	case d.Library == "" || filepath.Base(d.Library) != d.Library:
		return fmt.Errorf("%w: library must be a file name", ErrBadDescriptor)
	case d.Checksum == "":
		return fmt.Errorf("%w: checksum is required", ErrBadDescriptor)
	case d.Version == "":
		return fmt.Errorf("%w: version is required", ErrBadDescriptor)
	}

	if _, err := base64.StdEncoding.DecodeString(d.Checksum); err != nil {
		return fmt.Errorf("%w: checksum: %w", ErrBadDescriptor, err)
	}

	return nil
}

// Verify checks that the library at path matches the descriptor checksum.
func (d *Descriptor) Verify(path string) error {
	want, err := base64.StdEncoding.DecodeString(d.Checksum)
	if err != nil {
		return fmt.Errorf("%w: checksum: %w", ErrBadDescriptor, err)
	}

	got, err := Checksum(path)
	if err != nil {
		return err
	}

	if !bytes.Equal(want, got) {
		return fmt.Errorf("%s: %w", path, ErrChecksumMismatch)
	}

	return nil
}
