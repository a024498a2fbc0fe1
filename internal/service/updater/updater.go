package updater

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	goupdate "github.com/doitdistributed/go-update"
	"github.com/go-resty/resty/v2"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/ward-monitor/internal/logger"
	"github.com/oshokin/ward-monitor/internal/version"
)

var (
	errBadHTTPStatus    = errors.New("unexpected http status")
	errManifestRequired = errors.New("manifest url must be provided")
)

const defaultTimeout = 2 * time.Minute

// Options are inputs accepted by the updater entry point.
type Options struct {
	// ManifestURL locates the release manifest.
	ManifestURL string
	// TargetPath is the binary to replace; empty means the running executable.
	TargetPath string
	// CurrentVersion defaults to the version compiled into this binary.
	CurrentVersion string
	// Force applies the release even when the versions match.
	Force bool
	// Timeout bounds the whole download.
	Timeout time.Duration
}

// Result reports what Run did.
type Result struct {
	// Updated is true when the binary was replaced.
	Updated bool
	// Version is the release version from the manifest.
	Version string
}

// Run fetches the manifest and applies the release if it is newer or forced.
func Run(ctx context.Context, opts *Options) (*Result, error) {
	ctx = logger.WithName(ctx, "updater")

	if opts.ManifestURL == "" {
		return nil, errManifestRequired
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	current := opts.CurrentVersion
	if current == "" {
		current = version.Short()
	}

	client := resty.New().SetHeader("User-Agent", version.UserAgent())

	logger.InfoKV(ctx, "Downloading the update manifest", "url", opts.ManifestURL)

	manifest, err := fetchManifest(ctx, client, opts.ManifestURL)
	if err != nil {
		return nil, err
	}

	result := &Result{Version: manifest.Version}

	if manifest.Version == current && !opts.Force {
		logger.InfoKV(ctx, "No update required", "version", current)
		return result, nil
	}

	logger.InfoKV(ctx, "Version update required", "local", current, "remote", manifest.Version)

	binaryURL, err := resolve(opts.ManifestURL, manifest.URL)
	if err != nil {
		return nil, err
	}

	data, err := download(ctx, client, binaryURL)
	if err != nil {
		return nil, fmt.Errorf("download release: %w", err)
	}

	checksum, err := manifest.checksum()
	if err != nil {
		return nil, err
	}

	logger.Debug(ctx, "Applying update")

	err = goupdate.Apply(bytes.NewReader(data), goupdate.Options{
		TargetPath: opts.TargetPath,
		TargetMode: DefaultFileMode,
		Checksum:   checksum,
		Hash:       DefaultChecksumFunction,
	})
	if err != nil {
		return nil, fmt.Errorf("apply release %s: %w", manifest.Version, err)
	}

	logger.InfoKV(ctx, "Update applied", "version", manifest.Version)

	result.Updated = true

	return result, nil
}

func fetchManifest(ctx context.Context, client *resty.Client, manifestURL string) (*Manifest, error) {
	data, err := download(ctx, client, manifestURL)
	if err != nil {
		return nil, fmt.Errorf("download manifest: %w", err)
	}

	var m Manifest
	if err = yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	if err = m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

func download(ctx context.Context, client *resty.Client, target string) ([]byte, error) {
	resp, err := client.R().SetContext(ctx).Get(target)
	if err != nil {
		return nil, err
	}

	if resp.IsError() {
		return nil, fmt.Errorf("%s, %s: %w", target, resp.Status(), errBadHTTPStatus)
	}

	return resp.Body(), nil
}

// resolve makes ref absolute against the manifest URL.
func resolve(base, ref string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse manifest url: %w", err)
	}

	refURL, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse release url: %w", err)
	}

	return baseURL.ResolveReference(refURL).String(), nil
}
