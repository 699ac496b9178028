package classify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aharikum/forensicx/pkg/models"
)

// Policy is the externally overridable classification policy. The built-in
// rules are a default heuristic, not ground truth; deployments tune them
// per category through a YAML policy file.
type Policy struct {
	// DigestAlgorithmPair optionally overrides the configured "fast,strong"
	// digest pair for new baselines.
	DigestAlgorithmPair string `yaml:"digest_algorithm_pair"`
	// SeverityThresholds overrides the default severity per category.
	SeverityThresholds map[models.Category]models.Severity `yaml:"severity_thresholds"`
	// IgnorePaths are glob patterns excluded from scanning and comparison.
	IgnorePaths []string `yaml:"ignore_paths"`
}

// defaultSeverities is the built-in severity table.
var defaultSeverities = map[models.Category]models.Severity{
	models.CategoryContentTamper:        models.SeverityHigh,
	models.CategoryContentChange:        models.SeverityMedium,
	models.CategoryPermissionEscalation: models.SeverityMedium,
	models.CategoryOwnershipChange:      models.SeverityHigh,
	models.CategoryMetadataTamper:       models.SeverityMedium,
	models.CategoryBenignTouch:          models.SeverityInfo,
	models.CategoryAdded:                models.SeverityLow,
	models.CategoryRemoved:              models.SeverityMedium,
	models.CategoryUnreadableAnomaly:    models.SeverityHigh,
}

// DefaultPolicy returns the built-in policy.
func DefaultPolicy() *Policy {
	return &Policy{
		SeverityThresholds: map[models.Category]models.Severity{},
	}
}

// LoadPolicy reads a YAML policy file and validates it. Unknown categories
// or severities are rejected instead of being silently dropped.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	policy := DefaultPolicy()
	if err := yaml.Unmarshal(data, policy); err != nil {
		return nil, fmt.Errorf("failed to parse policy file: %w", err)
	}

	for category, severity := range policy.SeverityThresholds {
		if _, known := defaultSeverities[category]; !known {
			return nil, fmt.Errorf("policy overrides unknown category %q", category)
		}
		if !models.ValidSeverity(severity) {
			return nil, fmt.Errorf("policy sets invalid severity %q for category %q", severity, category)
		}
	}

	return policy, nil
}

// severityFor resolves a category's severity: policy override first, then
// the built-in table.
func (p *Policy) severityFor(category models.Category, fallback models.Severity) models.Severity {
	if s, ok := p.SeverityThresholds[category]; ok {
		return s
	}
	if fallback != "" {
		return fallback
	}
	return defaultSeverities[category]
}
