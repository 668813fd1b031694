package config

import "strings"

// Environment keys understood on top of the settings file.
const (
	EnvVcpkgRoot       = "VCPKG_ROOT"
	EnvDownloads       = "VCPKG_DOWNLOADS"
	EnvRegistriesCache = "X_VCPKG_REGISTRIES_CACHE"
	EnvDisableMetrics  = "VCPKG_DISABLE_METRICS"
	EnvAssetMirror     = "VCPKG_ARTIFACTS_ASSET_MIRROR"
	EnvNodePath        = "VCPKG_ARTIFACTS_NODE"
)

// applyEnvironment overrides file settings with non-empty environment values.
func applyEnvironment(cfg *Config, getenv func(string) string) {
	if getenv == nil {
		return
	}

	override := func(target *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*target = v
		}
	}

	override(&cfg.VcpkgRoot, EnvVcpkgRoot)
	override(&cfg.Downloads, EnvDownloads)
	override(&cfg.RegistriesCache, EnvRegistriesCache)
	override(&cfg.AssetCache.URLTemplate, EnvAssetMirror)
	override(&cfg.NodePath, EnvNodePath)

	// Any non-empty value disables metrics.
	if getenv(EnvDisableMetrics) != "" {
		cfg.DisableMetrics = true
	}
}
