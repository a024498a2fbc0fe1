package updater

import (
	"crypto"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/ward-monitor/internal/config"

	// Ensure SHA512 available for checksum calculation.
	_ "crypto/sha512"
)

var (
	errHashUnavailable = errors.New("hash function unavailable")
	errIncomplete      = errors.New("manifest is missing version, url or checksum")
)

const (
	// DefaultFileMode is applied to the replaced binary.
	DefaultFileMode os.FileMode = 0o755

	// DefaultChecksumFunction is used to calculate release checksums.
	DefaultChecksumFunction crypto.Hash = crypto.SHA512
)

// Manifest describes a published release.
type Manifest struct {
	// Version is the semantic version of the release.
	Version string `yaml:"version"`
	// URL locates the binary; relative URLs resolve against the manifest URL.
	URL string `yaml:"url"`
	// Checksum is the base64 SHA-512 of the binary.
	Checksum string `yaml:"checksum"`
}

// NewManifest builds a manifest for the binary at path.
func NewManifest(path, binaryURL, releaseVersion string) (*Manifest, error) {
	sum, err := GetFileChecksum(path)
	if err != nil {
		return nil, err
	}

	return &Manifest{
		Version:  releaseVersion,
		URL:      binaryURL,
		Checksum: base64.StdEncoding.EncodeToString(sum),
	}, nil
}

// Validate checks that every field is set and the checksum decodes.
func (m *Manifest) Validate() error {
	if m.Version == "" || m.URL == "" || m.Checksum == "" {
		return errIncomplete
	}

	if _, err := m.checksum(); err != nil {
		return err
	}

	return nil
}

func (m *Manifest) checksum() ([]byte, error) {
	sum, err := base64.StdEncoding.DecodeString(m.Checksum)
	if err != nil {
		return nil, fmt.Errorf("decode checksum: %w", err)
	}

	return sum, nil
}

// Save writes the manifest as YAML.
func (m *Manifest) Save(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

// GetFileChecksum returns checksum bytes for a file using DefaultChecksumFunction.
func GetFileChecksum(path string) ([]byte, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	if !DefaultChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := DefaultChecksumFunction.New()
	if _, err = hasher.Write(contents); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}
