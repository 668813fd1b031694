package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/vcpkg-artifacts/internal/archive"
	"github.com/oshokin/vcpkg-artifacts/internal/config"
	domain "github.com/oshokin/vcpkg-artifacts/internal/domain/artifacts"
	"github.com/oshokin/vcpkg-artifacts/internal/download"
	"github.com/oshokin/vcpkg-artifacts/internal/logger"
	"github.com/oshokin/vcpkg-artifacts/internal/version"
)

var (
	// ErrBootstrapFailed is returned when main.js is missing after provisioning.
	ErrBootstrapFailed = errors.New("vcpkg-artifacts bootstrap failed")
	// ErrReadOnlyRoot is returned when the installation is missing and may not be provisioned.
	ErrReadOnlyRoot = errors.New("vcpkg-artifacts is not installed, and it can't be installed because the vcpkg root is read-only")
	// ErrPinnedWithoutHash is returned when the pinned channel is requested by a build without a bundle hash.
	ErrPinnedWithoutHash = errors.New("the pinned channel requires a build with a bundle sha512")
)

// Request describes one provisioning check.
type Request struct {
	// InstallRoot is the vcpkg-artifacts directory.
	InstallRoot string
	// Downloads receives the bundle archive.
	Downloads string
	// ReadOnlyRoot forbids changing InstallRoot.
	ReadOnlyRoot bool
	// Channel selects pinned or latest provisioning.
	Channel domain.Channel
	// ReleaseBaseURL is the release page of the standalone bundle.
	ReleaseBaseURL string
}

// Provisioner makes sure an installation exists before the delegate runs.
type Provisioner struct {
	fs         Filesystem
	downloader Downloader
	extractor  Extractor
	markers    MarkerFactory
	warnRace   func(ctx context.Context)
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithFilesystem overrides the filesystem.
func WithFilesystem(fs Filesystem) Option {
	return func(p *Provisioner) { p.fs = fs }
}

// WithDownloader overrides the downloader.
func WithDownloader(d Downloader) Option {
	return func(p *Provisioner) { p.downloader = d }
}

// WithExtractor overrides the archive extractor.
func WithExtractor(e Extractor) Option {
	return func(p *Provisioner) { p.extractor = e }
}

// WithMarkers overrides how version markers are opened.
func WithMarkers(m MarkerFactory) Option {
	return func(p *Provisioner) { p.markers = m }
}

// WithRaceWarning overrides the concurrent-instance check run before an install.
func WithRaceWarning(warn func(ctx context.Context)) Option {
	return func(p *Provisioner) { p.warnRace = warn }
}

// New creates a Provisioner backed by the real filesystem and network.
func New(opts ...Option) *Provisioner {
	p := &Provisioner{
		fs:         OSFilesystem{},
		downloader: download.New(),
		extractor:  archive.NewExtractor(0),
		markers:    DefaultMarkers,
		warnRace:   warnConcurrentInstances,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Ensure inspects the installation and provisions it when stale.
// Every returned error is a domain.Error.
func (p *Provisioner) Ensure(ctx context.Context, req Request) (domain.InstallationState, error) {
	ctx = logger.WithKV(ctx, "install_root", req.InstallRoot)

	gate := NewGate(p.fs, p.markers)

	if req.ReadOnlyRoot {
		if !p.fs.Exists(req.InstallRoot) {
			return domain.InstallationState{}, domain.NewError(domain.KindConfiguration, ErrReadOnlyRoot)
		}

		logger.Debug(ctx, "vcpkg root is read-only, using the existing installation")

		return domain.InstallationState{Root: req.InstallRoot, Channel: req.Channel}, nil
	}

	state := gate.Inspect(ctx, req.InstallRoot, req.Channel)

	if gate.Stale(ctx, state) {
		p.warnRace(ctx)

		fetcher := NewFetcher(p.downloader, p.fs, req.ReleaseBaseURL)

		tarball, err := fetcher.Fetch(ctx, req.Downloads, req.Channel)
		if err != nil {
			return state, domain.NewError(domain.KindProvisioning, err)
		}

		installer := NewInstaller(p.fs, p.extractor, p.markers)
		if err = installer.Install(ctx, tarball, state); err != nil {
			return state, domain.NewError(domain.KindProvisioning, err)
		}
	}

	if !p.fs.Exists(state.EntryPoint()) {
		return state, domain.NewError(domain.KindProvisioning, ErrBootstrapFailed)
	}

	return state, nil
}

// ResolveChannel turns a configured channel name into a Channel.
// "auto" is pinned when the build carries a bundle hash and latest otherwise.
func ResolveChannel(name, buildVersion, bundleSHA512 string) (domain.Channel, error) {
	switch name {
	case config.ChannelLatest:
		return domain.Latest{}, nil
	case config.ChannelPinned:
		if bundleSHA512 == "" {
			return nil, domain.NewError(domain.KindConfiguration, ErrPinnedWithoutHash)
		}

		return domain.Pinned{Version: buildVersion, SHA512: bundleSHA512}, nil
	case config.ChannelAuto, "":
		if bundleSHA512 == "" {
			return domain.Latest{}, nil
		}

		return domain.Pinned{Version: buildVersion, SHA512: bundleSHA512}, nil
	default:
		return nil, domain.NewError(domain.KindConfiguration, fmt.Errorf("unknown bundle channel %q", name))
	}
}

// Run provisions the installation described by cfg for the running build.
func Run(ctx context.Context, cfg *config.Config, opts ...Option) (domain.InstallationState, error) {
	ctx = logger.WithName(ctx, "provision")

	channel, err := ResolveChannel(cfg.Channel, version.Version, version.BundleSHA512)
	if err != nil {
		return domain.InstallationState{}, err
	}

	defaults := []Option{
		WithDownloader(download.New(
			download.WithTimeout(cfg.Timeout),
			download.WithAssetCache(cfg.AssetCache.URLTemplate, cfg.AssetCache.BlockOrigin),
		)),
	}

	return New(append(defaults, opts...)...).Ensure(ctx, Request{
		InstallRoot:    cfg.InstallRoot,
		Downloads:      cfg.Downloads,
		ReadOnlyRoot:   cfg.ReadOnlyRoot,
		Channel:        channel,
		ReleaseBaseURL: cfg.ReleaseBaseURL,
	})
}
