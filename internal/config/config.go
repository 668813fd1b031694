package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the paths and provisioning settings shared by every artifacts command.
type Config struct {
	// VcpkgRoot is the vcpkg root passed to the delegate as --vcpkg-root.
	VcpkgRoot string `yaml:"vcpkg_root"`
	// InstallRoot is where the vcpkg-artifacts bundle lives (contains main.js).
	InstallRoot string `yaml:"install_root"`
	// ArtifactsRoot is the artifacts data directory handed to the delegate.
	ArtifactsRoot string `yaml:"artifacts_root"`
	// Downloads is the downloads directory; bundle archives are fetched here.
	Downloads string `yaml:"downloads"`
	// RegistriesCache is the registries cache directory handed to the delegate.
	RegistriesCache string `yaml:"registries_cache"`
	// GlobalConfig is the global vcpkg configuration file handed to the delegate.
	GlobalConfig string `yaml:"global_config"`
	// NodePath is the node executable (name or path) that runs the bundle.
	NodePath string `yaml:"node_path"`
	// ReleaseBaseURL is the release page the standalone bundle is downloaded from.
	ReleaseBaseURL string `yaml:"release_base_url"`
	// Channel is one of ChannelAuto, ChannelPinned or ChannelLatest.
	Channel string `yaml:"channel"`
	// ReadOnlyRoot disables provisioning: the installation must already exist.
	ReadOnlyRoot bool `yaml:"read_only_root"`
	// DisableMetrics turns off telemetry collection from the delegate.
	DisableMetrics bool `yaml:"disable_metrics"`
	// LanguageFile is an optional localized messages JSON file.
	LanguageFile string `yaml:"language_file"`
	// Timeout bounds a single bundle download attempt.
	Timeout time.Duration `yaml:"timeout"`
	// AssetCache configures an optional download mirror.
	AssetCache AssetCache `yaml:"asset_cache"`
	// LogLevel is the minimum level of log messages (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

// AssetCache describes a mirror keyed by the SHA-512 of the requested file.
type AssetCache struct {
	// URLTemplate contains a {sha512} placeholder, e.g. https://mirror.local/{sha512}.
	URLTemplate string `yaml:"url_template"`
	// BlockOrigin forbids falling back to the original download URI.
	BlockOrigin bool `yaml:"block_origin"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "vcpkg-artifacts.yaml"

	// DefaultReleaseBaseURL hosts the official standalone bundle releases.
	DefaultReleaseBaseURL = "https://github.com/microsoft/vcpkg-tool/releases"

	// DefaultNodePath is resolved through PATH.
	DefaultNodePath = "node"

	// DefaultTimeout is the default duration of one download attempt.
	DefaultTimeout = 5 * time.Minute

	// DefaultLogLevel is used when nothing else is configured.
	DefaultLogLevel = "info"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// SHA512Placeholder is replaced by the expected hash in AssetCache.URLTemplate.
	SHA512Placeholder = "{sha512}"
)

// Channel names accepted by Config.Channel.
const (
	ChannelAuto   = "auto"
	ChannelPinned = "pinned"
	ChannelLatest = "latest"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errVcpkgRootRequired is returned when the vcpkg root cannot be determined.
	errVcpkgRootRequired = errors.New("vcpkg root must be provided")
	// errUnknownChannel is returned for an unsupported channel value.
	errUnknownChannel = errors.New("unknown bundle channel")
	// errUnknownLogLevel is returned for an unsupported log level.
	errUnknownLogLevel = errors.New("unknown log level")
	// errMissingPlaceholder is returned when the asset cache template cannot be keyed.
	errMissingPlaceholder = errors.New("asset cache url template must contain " + SHA512Placeholder)
)

//nolint:gochecknoglobals // Test seams for executable and home lookups.
var (
	osExecutable   = os.Executable
	osUserHomeDir  = os.UserHomeDir
	osUserCacheDir = os.UserCacheDir
)

// Load reads configuration from the provided path, applies environment
// overrides and fills defaults. An empty path means "no file": defaults only.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.Getenv)
}

// LoadWithEnv is Load with an explicit environment lookup.
func LoadWithEnv(path string, getenv func(string) string) (*Config, error) {
	var cfg Config

	if path != "" {
		contents, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("read settings: %w", err)
		}

		if err = yaml.Unmarshal(contents, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	}

	applyEnvironment(&cfg, getenv)

	if cfg.VcpkgRoot == "" {
		root, err := executableDir()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errVcpkgRootRequired, err)
		}

		cfg.VcpkgRoot = root
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
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

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills every unset path with its
// default derived from VcpkgRoot.
//
//nolint:cyclop // A flat list of defaults reads better than helpers.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.VcpkgRoot == "" {
		return errVcpkgRootRequired
	}

	settings.VcpkgRoot = filepath.Clean(settings.VcpkgRoot)

	if settings.InstallRoot == "" {
		settings.InstallRoot = filepath.Join(settings.VcpkgRoot, "vcpkg-artifacts")
	}

	if settings.ArtifactsRoot == "" {
		settings.ArtifactsRoot = filepath.Join(settings.VcpkgRoot, "artifacts")
	}

	if settings.Downloads == "" {
		settings.Downloads = filepath.Join(settings.VcpkgRoot, "downloads")
	}

	if settings.RegistriesCache == "" {
		settings.RegistriesCache = defaultRegistriesCache(settings.VcpkgRoot)
	}

	if settings.GlobalConfig == "" {
		settings.GlobalConfig = defaultGlobalConfig(settings.VcpkgRoot)
	}

	if settings.NodePath == "" {
		settings.NodePath = DefaultNodePath
	}

	if settings.ReleaseBaseURL == "" {
		settings.ReleaseBaseURL = DefaultReleaseBaseURL
	}

	settings.ReleaseBaseURL = strings.TrimRight(settings.ReleaseBaseURL, "/")
	if _, err := url.ParseRequestURI(settings.ReleaseBaseURL); err != nil {
		return fmt.Errorf("invalid release base URL: %w", err)
	}

	if settings.Channel == "" {
		settings.Channel = ChannelAuto
	}

	switch settings.Channel {
	case ChannelAuto, ChannelPinned, ChannelLatest:
	default:
		return fmt.Errorf("%w: %q", errUnknownChannel, settings.Channel)
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.LogLevel == "" {
		settings.LogLevel = DefaultLogLevel
	}

	if !knownLogLevel(settings.LogLevel) {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, settings.LogLevel)
	}

	return validateAssetCache(settings.AssetCache)
}

// MirrorURL renders the asset cache URL for the given hash, or "" if no mirror is configured.
func (a AssetCache) MirrorURL(sha512 string) string {
	if a.URLTemplate == "" || sha512 == "" {
		return ""
	}

	return strings.ReplaceAll(a.URLTemplate, SHA512Placeholder, strings.ToLower(sha512))
}

func validateAssetCache(cache AssetCache) error {
	if cache.URLTemplate == "" {
		return nil
	}

	if !strings.Contains(cache.URLTemplate, SHA512Placeholder) {
		return errMissingPlaceholder
	}

	if _, err := url.ParseRequestURI(cache.MirrorURL("0")); err != nil {
		return fmt.Errorf("invalid asset cache url template: %w", err)
	}

	return nil
}

func knownLogLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// executableDir returns the directory of the running, symlink-resolved executable.
func executableDir() (string, error) {
	exe, err := osExecutable()
	if err != nil {
		return "", err
	}

	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	return filepath.Dir(exe), nil
}

func defaultRegistriesCache(vcpkgRoot string) string {
	if base, err := osUserCacheDir(); err == nil && base != "" {
		return filepath.Join(base, "vcpkg", "registries")
	}

	return filepath.Join(vcpkgRoot, "registries")
}

func defaultGlobalConfig(vcpkgRoot string) string {
	if home, err := osUserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".vcpkg", "vcpkg-configuration.json")
	}

	return filepath.Join(vcpkgRoot, "vcpkg-configuration.json")
}
