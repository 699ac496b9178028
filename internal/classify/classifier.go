// Package classify assigns each diffed entry a category and severity from a
// deterministic, policy-overridable rule table. No learned models: every
// classification is reproducible from the recorded evidence alone.
package classify

import (
	"path"
	"sort"

	"go.uber.org/zap"

	"github.com/aharikum/forensicx/pkg/models"
)

// setuid/setgid bits in the recorded permission field.
const (
	permSetuid = 0o4000
	permSetgid = 0o2000
)

// Classifier applies the tamper heuristics to a DiffResult.
type Classifier struct {
	policy *Policy
	logger *zap.Logger
}

// NewClassifier creates a classifier using the given policy.
func NewClassifier(policy *Policy, logger *zap.Logger) *Classifier {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Classifier{policy: policy, logger: logger}
}

// Classify annotates every change in the diff. The diff is read-only here;
// output is ordered by path for reproducible reports.
func (c *Classifier) Classify(res *models.DiffResult) []*models.Classification {
	var out []*models.Classification

	// Directories that contain changes other than additions: an added entry
	// inside one of these is part of a wider activity cluster and rates
	// higher than an isolated addition.
	active := activeParents(res)

	for _, ch := range res.ContentModified {
		out = append(out, c.classifyContent(ch))
	}
	for _, ch := range res.MetadataModified {
		out = append(out, c.classifyMetadata(ch))
	}
	for _, ch := range res.Removed {
		out = append(out, &models.Classification{
			RelPath:  ch.RelPath,
			Category: models.CategoryRemoved,
			Severity: c.policy.severityFor(models.CategoryRemoved, ""),
			Reason:   "entry present in baseline is missing from the current scan",
			Evidence: ch.Fields,
		})
	}
	for _, ch := range res.Added {
		severity := c.policy.severityFor(models.CategoryAdded, "")
		reason := "entry appeared since the baseline scan"
		if active[path.Dir(ch.RelPath)] {
			severity = c.policy.severityFor(models.CategoryAdded, models.SeverityMedium)
			reason = "entry appeared in a directory with other modified entries"
		}
		out = append(out, &models.Classification{
			RelPath:  ch.RelPath,
			Category: models.CategoryAdded,
			Severity: severity,
			Reason:   reason,
			Evidence: ch.Fields,
		})
	}
	for _, ch := range res.Unreadable {
		out = append(out, c.classifyUnreadable(ch))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].RelPath < out[j].RelPath })

	c.logger.Debug("Classified diff", zap.Int("classifications", len(out)))
	return out
}

// classifyContent separates tamper-pattern content changes from ordinary
// edits. A legitimate write updates the modify time as a side effect, so new
// content under an unchanged mtime is a strong tamper signal.
func (c *Classifier) classifyContent(ch *models.Change) *models.Classification {
	mtimeMoved := false
	for _, f := range ch.Fields {
		if f.Field == "mtime" {
			mtimeMoved = true
			break
		}
	}

	if !mtimeMoved {
		return &models.Classification{
			RelPath:  ch.RelPath,
			Category: models.CategoryContentTamper,
			Severity: c.policy.severityFor(models.CategoryContentTamper, ""),
			Reason:   "content changed while the modify time did not",
			Evidence: ch.Fields,
		}
	}

	return &models.Classification{
		RelPath:  ch.RelPath,
		Category: models.CategoryContentChange,
		Severity: c.policy.severityFor(models.CategoryContentChange, ""),
		Reason:   "content changed with a consistent modify time update",
		Evidence: ch.Fields,
	}
}

// classifyMetadata picks the most severe applicable metadata rule. Evidence
// always carries every differing field; the category names the dominant one.
func (c *Classifier) classifyMetadata(ch *models.Change) *models.Classification {
	base, cur := ch.Baseline, ch.Current

	if base.UID != cur.UID || base.GID != cur.GID {
		return &models.Classification{
			RelPath:  ch.RelPath,
			Category: models.CategoryOwnershipChange,
			Severity: c.policy.severityFor(models.CategoryOwnershipChange, ""),
			Reason:   "owning user or group changed",
			Evidence: ch.Fields,
		}
	}

	if widened := cur.Perm &^ base.Perm; widened != 0 {
		severity := c.policy.severityFor(models.CategoryPermissionEscalation, "")
		reason := "permission bits widened access"
		if widened&(permSetuid|permSetgid) != 0 {
			severity = c.policy.severityFor(models.CategoryPermissionEscalation, models.SeverityHigh)
			reason = "setuid or setgid bit appeared"
		}
		return &models.Classification{
			RelPath:  ch.RelPath,
			Category: models.CategoryPermissionEscalation,
			Severity: severity,
			Reason:   reason,
			Evidence: ch.Fields,
		}
	}

	if atimeOnly(ch.Fields) {
		return &models.Classification{
			RelPath:  ch.RelPath,
			Category: models.CategoryBenignTouch,
			Severity: c.policy.severityFor(models.CategoryBenignTouch, ""),
			Reason:   "access time moved and nothing else changed",
			Evidence: ch.Fields,
		}
	}

	return &models.Classification{
		RelPath:  ch.RelPath,
		Category: models.CategoryMetadataTamper,
		Severity: c.policy.severityFor(models.CategoryMetadataTamper, ""),
		Reason:   "metadata drifted without a content change",
		Evidence: ch.Fields,
	}
}

func (c *Classifier) classifyUnreadable(ch *models.Change) *models.Classification {
	severity := c.policy.severityFor(models.CategoryUnreadableAnomaly, "")
	reason := "entry is unreadable; content comparison impossible"
	if ch.Baseline != nil && ch.Baseline.Kind != models.KindUnreadable &&
		ch.Current != nil && ch.Current.Kind == models.KindUnreadable {
		reason = "entry readable at baseline is now unreadable"
	}
	return &models.Classification{
		RelPath:  ch.RelPath,
		Category: models.CategoryUnreadableAnomaly,
		Severity: severity,
		Reason:   reason,
		Evidence: ch.Fields,
	}
}

// atimeOnly reports whether the access time is the only differing field.
func atimeOnly(fields []models.FieldChange) bool {
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if f.Field != "atime" {
			return false
		}
	}
	return true
}

// activeParents collects the parent directories of every non-added change.
func activeParents(res *models.DiffResult) map[string]bool {
	parents := make(map[string]bool)
	for _, list := range [][]*models.Change{
		res.Removed, res.ContentModified, res.MetadataModified, res.Unreadable,
	} {
		for _, ch := range list {
			parents[path.Dir(ch.RelPath)] = true
		}
	}
	return parents
}
