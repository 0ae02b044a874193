package config

import (
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags switches the optional collaborator features on and off.
// The directory, friends list and settings are always on; only features
// that depend on something outside the device are flagged.
type FeatureFlags struct {
	mu       sync.RWMutex
	features map[string]*Feature
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// NeedsGenerator marks features that call the generative text service.
	NeedsGenerator bool
}

// Predefined feature flag names.
const (
	FeatureCareerInsight = "career_insight" // two job roles from a profile
	FeatureTextRefine    = "text_refine"    // polish aboutMe, experiences, courseList
	FeaturePhotoUpload   = "photo_upload"   // embed an uploaded image as a data: URI
)

// LoadFeatureFlags builds the flags from defaults, then the YAML overrides,
// then FEATURE_<NAME> environment variables. An override naming an unknown
// flag is an error so typos do not pass silently.
func LoadFeatureFlags(overrides map[string]bool) (*FeatureFlags, error) {
	ff := &FeatureFlags{features: make(map[string]*Feature)}
	ff.initializeDefaults()

	for name, enabled := range overrides {
		if err := ff.SetEnabled(name, enabled); err != nil {
			return nil, &FeatureFlagError{Message: "unknown feature " + strconv.Quote(name)}
		}
	}

	ff.loadFromEnvironment()
	return ff, nil
}

func (ff *FeatureFlags) initializeDefaults() {
	ff.features[FeatureCareerInsight] = &Feature{
		Name:           FeatureCareerInsight,
		Description:    "Suggest two job roles for a student profile",
		Enabled:        true,
		NeedsGenerator: true,
	}

	ff.features[FeatureTextRefine] = &Feature{
		Name:           FeatureTextRefine,
		Description:    "Rewrite a profile field in a more professional tone",
		Enabled:        true,
		NeedsGenerator: true,
	}

	ff.features[FeaturePhotoUpload] = &Feature{
		Name:        FeaturePhotoUpload,
		Description: "Store an uploaded photo inside the student record",
		Enabled:     true,
	}
}

// loadFromEnvironment applies FEATURE_<NAME>=true|false overrides.
// Example: FEATURE_CAREER_INSIGHT=false
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		if val := os.Getenv(featureNameToEnvKey(name)); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
			}
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "career_insight" -> "FEATURE_CAREER_INSIGHT"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled reports whether the named feature is on. Unknown names are off.
func (ff *FeatureFlags) IsEnabled(featureName string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, ok := ff.features[featureName]
	return ok && feature.Enabled
}

// SetEnabled switches a feature. Thread-safe for live updates.
func (ff *FeatureFlags) SetEnabled(featureName string, enabled bool) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}
	feature.Enabled = enabled
	return nil
}

// EnableFeature enables a feature.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetEnabled(featureName, true)
}

// DisableFeature disables a feature.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetEnabled(featureName, false)
}

// DisableGeneratorFeatures switches off every feature that needs the
// generative text service and returns their names, sorted.
func (ff *FeatureFlags) DisableGeneratorFeatures() []string {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	var disabled []string
	for name, feature := range ff.features {
		if feature.NeedsGenerator && feature.Enabled {
			feature.Enabled = false
			disabled = append(disabled, name)
		}
	}
	sort.Strings(disabled)
	return disabled
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Errors ---

var (
	ErrFeatureNotFound = &FeatureFlagError{Message: "feature not found"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
