package domain

import "strings"

// Feature enumerates the generation categories offered by the product.
type Feature string

const (
	FeatureHooks       Feature = "hooks"
	FeatureCaptions    Feature = "captions"
	FeatureHashtags    Feature = "hashtags"
	FeatureVideoScript Feature = "video_script"
	FeatureAdCopy      Feature = "ad_copy"
)

var allFeatures = []Feature{
	FeatureHooks,
	FeatureCaptions,
	FeatureHashtags,
	FeatureVideoScript,
	FeatureAdCopy,
}

var premiumFeatures = map[Feature]struct{}{
	FeatureVideoScript: {},
	FeatureAdCopy:      {},
}

// Features returns every known feature in a stable order.
func Features() []Feature {
	out := make([]Feature, len(allFeatures))
	copy(out, allFeatures)
	return out
}

// ParseFeature resolves a wire-level feature name.
func ParseFeature(s string) (Feature, bool) {
	f := Feature(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range allFeatures {
		if f == known {
			return known, true
		}
	}
	return "", false
}

// Premium reports whether the feature is reserved for active subscribers.
func (f Feature) Premium() bool {
	_, ok := premiumFeatures[f]
	return ok
}
