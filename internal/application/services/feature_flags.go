package services

import (
	"os"
)

// FeatureFlags gates operational behavior that must be reversible without
// a deploy
type FeatureFlags struct {
	backfillEnabled    bool
	cacheWarmingEnabled bool
}

// NewFeatureFlags reads the flags from the environment
func NewFeatureFlags() *FeatureFlags {
	return &FeatureFlags{
		backfillEnabled:    os.Getenv("FEATURE_ADMIN_BACKFILL") == "true",
		cacheWarmingEnabled: os.Getenv("FEATURE_CACHE_WARMING") != "false",
	}
}

// BackfillEnabled reports whether the administrative backfill entry point
// accepts requests
func (f *FeatureFlags) BackfillEnabled() bool {
	return f.backfillEnabled
}

// CacheWarmingEnabled reports whether periodic cache warming runs
func (f *FeatureFlags) CacheWarmingEnabled() bool {
	return f.cacheWarmingEnabled
}
