package poller

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"review-reconciler/core/models"
)

// Mergeable reports whether two fetched artifacts may be merged into a snapshot.
// Both must have been reached and neither may still be processing. A malformed
// artifact counts as not processing, so it merges with defaulted fields unless
// requireWellFormed is set.
func Mergeable(review, debt models.Artifact, requireWellFormed bool) bool {
	if !review.Present() || !debt.Present() {
		return false
	}
	if review.Processing() || debt.Processing() {
		return false
	}
	if requireWellFormed && (review.State == models.ArtifactMalformed || debt.State == models.ArtifactMalformed) {
		return false
	}
	return true
}

// Merge builds a snapshot from a review and a debt artifact.
// Callers check Mergeable first; missing fields fall back to their defaults.
func Merge(review, debt models.Artifact, mergedAt time.Time) *models.Snapshot {
	degraded := review.State == models.ArtifactMalformed || debt.State == models.ArtifactMalformed
	return models.NewSnapshot(
		scoreOf(review.Payload["score"]),
		reviewItemsOf(review.Payload["reviews"]),
		debtSeriesOf(debt.Payload["modules"]),
		degraded,
		mergedAt,
	)
}

func scoreOf(v interface{}) int {
	f, ok := numberOf(v)
	if !ok || math.IsNaN(f) {
		return 0
	}
	f = math.Round(f)
	switch {
	case f < 0:
		return 0
	case f > 100:
		return 100
	}
	return int(f)
}

func reviewItemsOf(v interface{}) []models.ReviewItem {
	raw, _ := v.([]interface{})
	items := make([]models.ReviewItem, 0, len(raw))
	for _, entry := range raw {
		fields, _ := entry.(map[string]interface{})

		item := models.ReviewItem{
			Kind:     models.DefaultReviewKind,
			IsSevere: truthy(fields["isDanger"]),
		}
		if kind := textOf(fields["type"]); kind != "" {
			item.Kind = kind
		}
		item.Message = textOf(fields["message"])
		if code, ok := fields["snippet"].(string); ok {
			item.BeforeCode = &code
		}
		if code, ok := fields["improved_code"].(string); ok {
			item.AfterCode = &code
		}
		items = append(items, item)
	}
	return items
}

func debtSeriesOf(v interface{}) []models.DebtPoint {
	raw, _ := v.([]interface{})
	series := make([]models.DebtPoint, 0, len(raw))
	for _, entry := range raw {
		fields, _ := entry.(map[string]interface{})

		point := models.DebtPoint{Label: lastSegment(textOf(fields["name"]))}
		if urgency, ok := numberOf(fields["urgency"]); ok {
			point.Value = &urgency
		}
		series = append(series, point)
	}
	return series
}

// lastSegment returns the part of a module path after the final slash
func lastSegment(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}

func numberOf(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func textOf(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return ""
	}
	return fmt.Sprint(v)
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case string:
		return t != ""
	}
	return true
}
