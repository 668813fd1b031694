package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/vcpkg-artifacts/internal/config"
	domain "github.com/oshokin/vcpkg-artifacts/internal/domain/artifacts"
	"github.com/oshokin/vcpkg-artifacts/internal/download"
	"github.com/oshokin/vcpkg-artifacts/internal/metrics"
	"github.com/oshokin/vcpkg-artifacts/internal/service/invoke"
	"github.com/oshokin/vcpkg-artifacts/internal/service/provision"
	"github.com/oshokin/vcpkg-artifacts/internal/testutil"
)

// releaseServer serves a standalone bundle under both the pinned and latest asset paths.
type releaseServer struct {
	*httptest.Server

	requests atomic.Int32
}

func newReleaseServer(t *testing.T, version string, bundle []byte) *releaseServer {
	t.Helper()

	rs := &releaseServer{}

	mux := http.NewServeMux()
	serve := func(w http.ResponseWriter, _ *http.Request) {
		rs.requests.Add(1)
		_, _ = w.Write(bundle)
	}

	mux.HandleFunc("/releases/download/"+version+"/vcpkg-standalone-bundle.tar.gz", serve)
	mux.HandleFunc("/releases/latest/download/vcpkg-standalone-bundle.tar.gz", serve)

	rs.Server = httptest.NewServer(mux)
	t.Cleanup(rs.Close)

	return rs
}

// writeSettings stores a settings file for root and loads it back through the config package.
func writeSettings(t *testing.T, root string, settings map[string]any) *config.Config {
	t.Helper()

	settings["vcpkg_root"] = root

	data, err := yaml.Marshal(settings)
	require.NoError(t, err)

	path := filepath.Join(root, config.DefaultConfigFilename)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := config.LoadWithEnv(path, func(string) string { return "" })
	require.NoError(t, err)

	return cfg
}

// recordingLauncher stands in for node: it checks the entry point exists and writes telemetry.
type recordingLauncher struct {
	t     *testing.T
	specs []domain.InvocationSpec
}

func (l *recordingLauncher) Execute(_ context.Context, spec domain.InvocationSpec) (int, error) {
	l.specs = append(l.specs, spec)

	require.FileExists(l.t, spec.Args()[0])

	if spec.TelemetryFile() != "" {
		require.NoError(l.t, os.WriteFile(spec.TelemetryFile(), []byte(`{"activated_artifacts":"cmake"}`), 0o600))
	}

	return 0, nil
}

// TestArtifacts_LatestEndToEnd downloads the latest bundle over HTTP, installs it and runs the delegate.
func TestArtifacts_LatestEndToEnd(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	server := newReleaseServer(t, "2025-09-03", testutil.Bundle(t, "console.log('latest')"))
	cfg := writeSettings(t, root, map[string]any{
		"channel":          config.ChannelLatest,
		"release_base_url": server.URL + "/releases",
	})

	launcher := &recordingLauncher{t: t}
	collector := metrics.NewCollector(true)

	runner := invoke.NewRunner(
		invoke.WithLauncher(launcher),
		invoke.WithLookPath(func(file string) (string, error) { return file, nil }),
		invoke.WithTempDir(filepath.Join(root, "tmp")),
	)

	code, err := runner.Run(context.Background(), &invoke.Options{
		Config:      cfg,
		Args:        []string{"activate"},
		Parsed:      domain.ParsedArguments{Switches: domain.NewSwitchSet("x64")},
		OriginalCWD: root,
		Collector:   collector,
	})
	require.NoError(t, err)
	require.Zero(t, code)
	require.Equal(t, int32(1), server.requests.Load())

	require.Len(t, launcher.specs, 1)
	require.Equal(t, filepath.Join(cfg.InstallRoot, domain.EntryPointFilename), launcher.specs[0].Args()[0])
	require.Equal(t, "cmake", collector.Strings()[metrics.ActivatedArtifacts])

	// Nothing but the installation is left behind.
	require.NoFileExists(t, filepath.Join(cfg.Downloads, "vcpkg-standalone-bundle-latest.tar.gz"))

	matches, err := filepath.Glob(filepath.Join(root, domain.BundleSubtree+".partial-*"))
	require.NoError(t, err)
	require.Empty(t, matches)
}

// TestArtifacts_PinnedProvisionsOnce verifies the hash-checked bundle is only fetched while the marker is stale.
func TestArtifacts_PinnedProvisionsOnce(t *testing.T) {
	t.Parallel()

	const version = "2025-09-03"

	root := t.TempDir()
	bundle := testutil.Bundle(t, "console.log('pinned')")
	server := newReleaseServer(t, version, bundle)
	cfg := writeSettings(t, root, map[string]any{
		"release_base_url": server.URL + "/releases",
	})

	p := provision.New(provision.WithDownloader(download.New()))
	req := provision.Request{
		InstallRoot:    cfg.InstallRoot,
		Downloads:      cfg.Downloads,
		Channel:        domain.Pinned{Version: version, SHA512: testutil.SHA512(bundle)},
		ReleaseBaseURL: cfg.ReleaseBaseURL,
	}

	for i := 0; i < 2; i++ {
		state, err := p.Ensure(context.Background(), req)
		require.NoError(t, err)
		require.FileExists(t, state.EntryPoint())
	}

	require.Equal(t, int32(1), server.requests.Load())

	marker, err := os.ReadFile(filepath.Join(cfg.InstallRoot, domain.VersionMarkerFilename))
	require.NoError(t, err)
	require.Equal(t, version, string(marker))
}

// TestArtifacts_PinnedHashMismatch leaves the previous installation and no archive behind.
func TestArtifacts_PinnedHashMismatch(t *testing.T) {
	t.Parallel()

	const version = "2025-09-03"

	root := t.TempDir()
	server := newReleaseServer(t, version, testutil.Bundle(t, "tampered"))
	cfg := writeSettings(t, root, map[string]any{
		"release_base_url": server.URL + "/releases",
	})

	req := provision.Request{
		InstallRoot:    cfg.InstallRoot,
		Downloads:      cfg.Downloads,
		Channel:        domain.Pinned{Version: version, SHA512: testutil.SHA512([]byte("expected"))},
		ReleaseBaseURL: cfg.ReleaseBaseURL,
	}

	_, err := provision.New().Ensure(context.Background(), req)
	require.ErrorIs(t, err, provision.ErrDownloadFailed)
	require.NoDirExists(t, cfg.InstallRoot)
	require.NoFileExists(t, filepath.Join(cfg.Downloads, "vcpkg-standalone-bundle-"+version+".tar.gz"))
}

// TestArtifacts_ReadOnlyRootWithoutInstallation never downloads or launches.
func TestArtifacts_ReadOnlyRootWithoutInstallation(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	server := newReleaseServer(t, "2025-09-03", testutil.Bundle(t, "unused"))
	cfg := writeSettings(t, root, map[string]any{
		"channel":          config.ChannelLatest,
		"read_only_root":   true,
		"release_base_url": server.URL + "/releases",
	})

	launcher := &recordingLauncher{t: t}

	_, err := invoke.NewRunner(
		invoke.WithLauncher(launcher),
		invoke.WithTempDir(filepath.Join(root, "tmp")),
	).Run(context.Background(), &invoke.Options{Config: cfg, Args: []string{"activate"}})
	require.ErrorIs(t, err, provision.ErrReadOnlyRoot)

	kind, ok := domain.KindOf(err)
	require.True(t, ok)
	require.Equal(t, domain.KindConfiguration, kind)
	require.Empty(t, launcher.specs)
	require.Zero(t, server.requests.Load())
}
