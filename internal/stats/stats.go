// Package stats aggregates facet counts over a set of bookmarks for the
// dashboard sidebar.
package stats

import (
	"time"

	"github.com/MrSnakeDoc/tidymark/internal/domain"
)

const day = 24 * time.Hour

// DomainFacet counts bookmarks of one domain and keeps the newest one.
type DomainFacet struct {
	Count       int       `json:"count"`
	LatestAdded time.Time `json:"latestAdded"`
}

// DateBuckets mixes rolling windows (Week, TwoWeek, ThreeMonth, SixMonth)
// with calendar-aligned ones (Month, Year), so one bookmark usually lands
// in several buckets. Older is the complement of Year.
type DateBuckets struct {
	Week       int `json:"week"`
	TwoWeek    int `json:"twoWeek"`
	Month      int `json:"month"`
	ThreeMonth int `json:"threeMonth"`
	SixMonth   int `json:"sixMonth"`
	Year       int `json:"year"`
	Older      int `json:"older"`
}

// FacetStats is the aggregation result. It is recomputed per call.
type FacetStats struct {
	Total        int                     `json:"total"`
	Domains      map[string]*DomainFacet `json:"domains"`
	Folders      map[string]int          `json:"folders"`
	Topics       map[string]int          `json:"topics"`
	Creators     map[string]int          `json:"creators"`
	ContentTypes map[string]int          `json:"contentTypes"`
	DateBuckets  DateBuckets             `json:"dateBuckets"`
}

// Accumulator builds FacetStats one bookmark at a time, so a caller
// already iterating a result set does not need a second pass.
type Accumulator struct {
	now   time.Time
	stats FacetStats
}

// NewAccumulator starts an empty aggregation relative to now.
func NewAccumulator(now time.Time) *Accumulator {
	return &Accumulator{
		now: now,
		stats: FacetStats{
			Domains:      make(map[string]*DomainFacet),
			Folders:      make(map[string]int),
			Topics:       make(map[string]int),
			Creators:     make(map[string]int),
			ContentTypes: make(map[string]int),
		},
	}
}

// Add counts one bookmark. Nil bookmarks are ignored.
func (a *Accumulator) Add(b *domain.Bookmark) {
	if b == nil {
		return
	}
	s := &a.stats
	s.Total++

	if d := b.HostDomain(); d != "" {
		facet := s.Domains[d]
		if facet == nil {
			facet = &DomainFacet{}
			s.Domains[d] = facet
		}
		facet.Count++
		if b.DateAdded.After(facet.LatestAdded) {
			facet.LatestAdded = b.DateAdded
		}
	}
	if b.FolderPath != "" {
		s.Folders[b.FolderPath]++
	}
	for _, t := range b.Topics {
		if t != "" {
			s.Topics[t]++
		}
	}
	if key := b.CreatorKey(); key != "" {
		s.Creators[key]++
	}
	if b.ContentType != "" {
		s.ContentTypes[b.ContentType]++
	}

	a.bucket(b.DateAdded)
}

func (a *Accumulator) bucket(added time.Time) {
	if added.IsZero() {
		return
	}
	now := a.now
	added = added.In(now.Location())
	age := now.Sub(added)
	buckets := &a.stats.DateBuckets

	if age <= 7*day {
		buckets.Week++
	}
	if age <= 14*day {
		buckets.TwoWeek++
	}
	if added.Year() == now.Year() && added.Month() == now.Month() {
		buckets.Month++
	}
	if age <= 90*day {
		buckets.ThreeMonth++
	}
	if age <= 180*day {
		buckets.SixMonth++
	}
	if added.Year() == now.Year() {
		buckets.Year++
	} else if added.Year() < now.Year() {
		buckets.Older++
	}
}

// Result returns the accumulated stats. The accumulator must not be used
// afterwards.
func (a *Accumulator) Result() *FacetStats {
	return &a.stats
}

// Compute aggregates bookmarks in a single pass.
func Compute(bookmarks []*domain.Bookmark, now time.Time) *FacetStats {
	acc := NewAccumulator(now)
	for _, b := range bookmarks {
		acc.Add(b)
	}
	return acc.Result()
}
