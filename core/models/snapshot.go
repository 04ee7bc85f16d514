package models

import "time"

// DefaultReviewKind is used when a review entry carries no type
const DefaultReviewKind = "Review Item"

// ReviewItem is one finding from the code review artifact.
// BeforeCode and AfterCode are raw text; escaping is up to whoever renders them.
type ReviewItem struct {
	Kind       string  `json:"kind"`
	Message    string  `json:"message"`
	IsSevere   bool    `json:"isSevere"`
	BeforeCode *string `json:"beforeCode,omitempty"`
	AfterCode  *string `json:"afterCode,omitempty"`
}

// DebtPoint is one module of the technical debt series
type DebtPoint struct {
	Label string   `json:"label"`
	Value *float64 `json:"value"` // nil when the module carried no urgency
}

// Snapshot is the merged view of the review and debt artifacts.
// It is built once by the poller and never mutated afterwards.
type Snapshot struct {
	score       int
	reviewItems []ReviewItem
	debtSeries  []DebtPoint
	degraded    bool
	mergedAt    time.Time
}

// NewSnapshot creates a snapshot, copying the given sequences
func NewSnapshot(score int, reviewItems []ReviewItem, debtSeries []DebtPoint, degraded bool, mergedAt time.Time) *Snapshot {
	return &Snapshot{
		score:       score,
		reviewItems: append([]ReviewItem{}, reviewItems...),
		debtSeries:  append([]DebtPoint{}, debtSeries...),
		degraded:    degraded,
		mergedAt:    mergedAt,
	}
}

// Score returns the overall review score in [0,100]
func (s *Snapshot) Score() int { return s.score }

// ReviewItems returns a copy of the review items in source order
func (s *Snapshot) ReviewItems() []ReviewItem {
	return append([]ReviewItem{}, s.reviewItems...)
}

// DebtSeries returns a copy of the debt series in source order
func (s *Snapshot) DebtSeries() []DebtPoint {
	return append([]DebtPoint{}, s.debtSeries...)
}

// Degraded reports whether a malformed artifact contributed defaulted fields
func (s *Snapshot) Degraded() bool { return s.degraded }

// MergedAt returns when the snapshot was built
func (s *Snapshot) MergedAt() time.Time { return s.mergedAt }

// SnapshotView is the serializable form of a Snapshot
type SnapshotView struct {
	Score       int          `json:"score"`
	ReviewItems []ReviewItem `json:"reviewItems"`
	DebtSeries  []DebtPoint  `json:"debtSeries"`
	Degraded    bool         `json:"degraded"`
	MergedAt    time.Time    `json:"mergedAt"`
}

// View returns the serializable form of the snapshot
func (s *Snapshot) View() SnapshotView {
	return SnapshotView{
		Score:       s.score,
		ReviewItems: s.ReviewItems(),
		DebtSeries:  s.DebtSeries(),
		Degraded:    s.degraded,
		MergedAt:    s.mergedAt,
	}
}

// Snapshot rebuilds an immutable snapshot from its serialized form
func (v SnapshotView) Snapshot() *Snapshot {
	return NewSnapshot(v.Score, v.ReviewItems, v.DebtSeries, v.Degraded, v.MergedAt)
}
