package stats

import (
	"testing"
	"time"

	"github.com/MrSnakeDoc/tidymark/internal/domain"
)

var now = time.Date(2025, time.June, 20, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return now.Add(-time.Duration(n) * 24 * time.Hour)
}

func TestCompute_Facets(t *testing.T) {
	bookmarks := []*domain.Bookmark{
		{ID: "1", URL: "https://www.youtube.com/watch?v=1", Platform: "youtube", Creator: "Fireship", ContentType: "video",
			FolderPath: "Dev/Video", Topics: []string{"programming/rust"}, DateAdded: daysAgo(3)},
		{ID: "2", Domain: "youtube.com", Platform: "youtube", Creator: "Fireship", ContentType: "video",
			FolderPath: "Dev/Video", Topics: []string{"programming/go", "programming"}, DateAdded: daysAgo(40)},
		{ID: "3", Domain: "github.com", Platform: "github", Creator: "Fireship", ContentType: "repository", DateAdded: daysAgo(400)},
		{ID: "4", Title: "no domain at all"},
	}

	s := Compute(bookmarks, now)

	if s.Total != 4 {
		t.Errorf("Total = %d, want 4", s.Total)
	}
	yt := s.Domains["youtube.com"]
	if yt == nil || yt.Count != 2 {
		t.Fatalf("Domains[youtube.com] = %+v, want count 2", yt)
	}
	if !yt.LatestAdded.Equal(daysAgo(3)) {
		t.Errorf("LatestAdded = %v, want %v", yt.LatestAdded, daysAgo(3))
	}
	if s.Folders["Dev/Video"] != 2 {
		t.Errorf("Folders[Dev/Video] = %d, want 2", s.Folders["Dev/Video"])
	}
	if s.Topics["programming"] != 1 || s.Topics["programming/rust"] != 1 {
		t.Errorf("Topics = %v", s.Topics)
	}
	if s.Creators["youtube:Fireship"] != 2 || s.Creators["github:Fireship"] != 1 {
		t.Errorf("Creators = %v, want platform-scoped keys", s.Creators)
	}
	if s.ContentTypes["video"] != 2 || s.ContentTypes["repository"] != 1 {
		t.Errorf("ContentTypes = %v", s.ContentTypes)
	}
}

func TestCompute_DomainTotalInvariant(t *testing.T) {
	bookmarks := []*domain.Bookmark{
		{ID: "1", Domain: "a.com"},
		{ID: "2", URL: "https://b.com/x"},
		{ID: "3", URL: "https://a.com/y"},
		{ID: "4"},
		{ID: "5", URL: "://broken"},
	}

	s := Compute(bookmarks, now)

	sum := 0
	for _, f := range s.Domains {
		sum += f.Count
	}
	withDomain := 0
	for _, b := range bookmarks {
		if b.HostDomain() != "" {
			withDomain++
		}
	}
	if sum != withDomain {
		t.Errorf("sum(domain counts) = %d, want %d", sum, withDomain)
	}
}

func TestCompute_DateBuckets(t *testing.T) {
	tests := []struct {
		name  string
		added time.Time
		want  DateBuckets
	}{
		{"three days", daysAgo(3), DateBuckets{Week: 1, TwoWeek: 1, Month: 1, ThreeMonth: 1, SixMonth: 1, Year: 1}},
		{"ten days", daysAgo(10), DateBuckets{TwoWeek: 1, Month: 1, ThreeMonth: 1, SixMonth: 1, Year: 1}},
		{"last month", daysAgo(25), DateBuckets{ThreeMonth: 1, SixMonth: 1, Year: 1}},
		{"five months", daysAgo(150), DateBuckets{SixMonth: 1, Year: 1}},
		{"last year", daysAgo(200), DateBuckets{Older: 1}},
		{"zero date", time.Time{}, DateBuckets{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Compute([]*domain.Bookmark{{ID: "x", DateAdded: tt.added}}, now)
			if s.DateBuckets != tt.want {
				t.Errorf("DateBuckets = %+v, want %+v", s.DateBuckets, tt.want)
			}
		})
	}
}

func TestAccumulator_IgnoresNil(t *testing.T) {
	acc := NewAccumulator(now)
	acc.Add(nil)
	if acc.Result().Total != 0 {
		t.Errorf("Total = %d, want 0", acc.Result().Total)
	}
}
