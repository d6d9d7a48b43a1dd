package similarity

import (
	"context"
	"math/rand/v2"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"

	"github.com/MrSnakeDoc/tidymark/internal/domain"
	"github.com/MrSnakeDoc/tidymark/internal/textproc"
)

// Weights combine the fuzzy features into one score.
type Weights struct {
	TitleFuzzy float64
	TitleWords float64
	URLPath    float64
	DescWords  float64
	Keywords   float64
	Category   float64
}

var (
	// SameDomainWeights emphasize title, path and content.
	SameDomainWeights = Weights{
		TitleFuzzy: 0.25,
		TitleWords: 0.20,
		URLPath:    0.20,
		DescWords:  0.15,
		Keywords:   0.10,
		Category:   0.10,
	}

	// CrossDomainWeights ignore the path.
	CrossDomainWeights = Weights{
		TitleFuzzy: 0.30,
		TitleWords: 0.25,
		DescWords:  0.20,
		Keywords:   0.15,
		Category:   0.10,
	}
)

const (
	DefaultMinSimilarity = 0.5
	DefaultSampleSize    = 200
	DefaultSeed          = 0x74696479

	// crossDomainMargin is added to MinSimilarity for cross-domain pairs.
	crossDomainMargin = 0.1
)

// feature is one component of the fuzzy score. A feature that cannot be
// computed because both sides lack the data is left out of the weighted
// average entirely.
type feature struct {
	value float64
	ok    bool
}

// Features are the individual fuzzy components of a comparison. Missing
// components are reported as -1.
type Features struct {
	TitleFuzzy float64 `json:"titleFuzzy"`
	TitleWords float64 `json:"titleWords"`
	URLPath    float64 `json:"urlPath"`
	DescWords  float64 `json:"descWords"`
	Keywords   float64 `json:"keywords"`
	Category   float64 `json:"category"`
	Domain     float64 `json:"domain"`
}

// Comparison is the result of Compare.
type Comparison struct {
	Score        float64  `json:"score"`
	SameDomain   bool     `json:"sameDomain"`
	SameCategory bool     `json:"sameCategory"`
	Features     Features `json:"features"`
}

// Compare computes the fuzzy comprehensive similarity of two bookmarks.
// The weight vector depends on whether both live on the same domain.
func Compare(a, b *domain.Bookmark) Comparison {
	same := sameDomain(a, b)

	titleA, titleB := strings.ToLower(a.Title), strings.ToLower(b.Title)
	titleFuzzy := feature{ok: titleA != "" || titleB != ""}
	if titleFuzzy.ok {
		titleFuzzy.value = normalizedLevenshtein(titleA, titleB)
	}
	titleWords := wordJaccard(a.Title, b.Title)
	descWords := wordJaccard(a.Description, b.Description)
	keywords := setJaccard(lowerSet(a.Keywords), lowerSet(b.Keywords))

	category := feature{ok: a.Category != "" || b.Category != ""}
	if sameCategory(a, b) {
		category.value = 1
	}

	var path feature
	weights := CrossDomainWeights
	if same {
		weights = SameDomainWeights
		path = pathSimilarity(a.URL, b.URL)
	}

	parts := []struct {
		f feature
		w float64
	}{
		{titleFuzzy, weights.TitleFuzzy},
		{titleWords, weights.TitleWords},
		{path, weights.URLPath},
		{descWords, weights.DescWords},
		{keywords, weights.Keywords},
		{category, weights.Category},
	}
	var sum, total float64
	for _, p := range parts {
		if !p.f.ok || p.w == 0 {
			continue
		}
		sum += p.w * p.f.value
		total += p.w
	}

	c := Comparison{
		SameDomain:   same,
		SameCategory: category.value == 1,
		Features: Features{
			TitleFuzzy: report(titleFuzzy),
			TitleWords: report(titleWords),
			URLPath:    report(path),
			DescWords:  report(descWords),
			Keywords:   report(keywords),
			Category:   report(category),
		},
	}
	if same {
		c.Features.Domain = 1
	}
	if total > 0 {
		c.Score = sum / total
	}
	return c
}

func report(f feature) float64 {
	if !f.ok {
		return -1
	}
	return f.value
}

// normalizedLevenshtein is 1 - distance/maxLen, counted in runes.
func normalizedLevenshtein(a, b string) float64 {
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(edlib.LevenshteinDistance(a, b))/float64(maxLen)
}

func wordJaccard(a, b string) feature {
	return setJaccard(wordSet(a), wordSet(b))
}

func wordSet(text string) map[string]struct{} {
	words := textproc.Words(text)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func lowerSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

func setJaccard(a, b map[string]struct{}) feature {
	if len(a) == 0 && len(b) == 0 {
		return feature{}
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return feature{value: float64(inter) / float64(union), ok: true}
}

func pathSimilarity(rawA, rawB string) feature {
	pa, okA := urlPath(rawA)
	pb, okB := urlPath(rawB)
	if !okA || !okB {
		return feature{}
	}
	return feature{value: normalizedLevenshtein(pa, pb), ok: true}
}

func urlPath(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	return strings.ToLower(strings.Trim(u.Path, "/")), true
}

func sameDomain(a, b *domain.Bookmark) bool {
	da := a.HostDomain()
	return da != "" && da == b.HostDomain()
}

func sameCategory(a, b *domain.Bookmark) bool {
	return a.Category != "" && strings.EqualFold(a.Category, b.Category)
}

// FuzzyOptions configures FindFuzzyPairs. Use DefaultFuzzyOptions and
// override fields.
type FuzzyOptions struct {
	MinSimilarity      float64
	MaxPairs           int
	IncludeCrossDomain bool
	SampleSize         int
	Seed               uint64
}

// DefaultFuzzyOptions returns the defaults with cross-domain comparison
// enabled.
func DefaultFuzzyOptions() FuzzyOptions {
	return FuzzyOptions{
		MinSimilarity:      DefaultMinSimilarity,
		MaxPairs:           DefaultMaxPairs,
		IncludeCrossDomain: true,
		SampleSize:         DefaultSampleSize,
		Seed:               DefaultSeed,
	}
}

func (o FuzzyOptions) normalized() FuzzyOptions {
	if o.MinSimilarity <= 0 {
		o.MinSimilarity = DefaultMinSimilarity
	}
	if o.MaxPairs <= 0 {
		o.MaxPairs = DefaultMaxPairs
	}
	if o.SampleSize <= 0 {
		o.SampleSize = DefaultSampleSize
	}
	return o
}

// FuzzyPair is a pair found by the fuzzy scan.
type FuzzyPair struct {
	A          *domain.Bookmark `json:"a"`
	B          *domain.Bookmark `json:"b"`
	Comparison Comparison       `json:"comparison"`
}

// FindFuzzyPairs buckets the corpus by domain and compares every pair
// inside a bucket. Only when that yields fewer than MaxPairs results, and
// cross-domain comparison is enabled, a sample of at most SampleSize
// bookmarks is compared across domains against MinSimilarity + 0.1. The
// sample is drawn with a PCG source seeded by Seed, so a given corpus and
// seed always produce the same pairs. Collection stops at 2x MaxPairs.
func FindFuzzyPairs(ctx context.Context, bookmarks []*domain.Bookmark, opts FuzzyOptions) ([]FuzzyPair, error) {
	opts = opts.normalized()
	pairCap := 2 * opts.MaxPairs

	sorted := make([]*domain.Bookmark, 0, len(bookmarks))
	for _, b := range bookmarks {
		if b != nil {
			sorted = append(sorted, b)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	buckets := make(map[string][]*domain.Bookmark)
	for _, b := range sorted {
		if d := b.HostDomain(); d != "" {
			buckets[d] = append(buckets[d], b)
		}
	}
	domains := make([]string, 0, len(buckets))
	for d := range buckets {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	var pairs []FuzzyPair
	full := func() bool { return len(pairs) >= pairCap }

	for _, d := range domains {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		group := buckets[d]
		for i := 0; i < len(group) && !full(); i++ {
			for j := i + 1; j < len(group) && !full(); j++ {
				if p, ok := comparePair(group[i], group[j], opts.MinSimilarity); ok {
					pairs = append(pairs, p)
				}
			}
		}
		if full() {
			break
		}
	}

	if opts.IncludeCrossDomain && len(pairs) < opts.MaxPairs && !full() {
		sample := sampleBookmarks(sorted, opts.SampleSize, opts.Seed)
		threshold := opts.MinSimilarity + crossDomainMargin
		for i := 0; i < len(sample) && !full(); i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			for j := i + 1; j < len(sample) && !full(); j++ {
				if sameDomain(sample[i], sample[j]) {
					continue
				}
				if p, ok := comparePair(sample[i], sample[j], threshold); ok {
					pairs = append(pairs, p)
				}
			}
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		si, sj := pairs[i].Comparison.Score, pairs[j].Comparison.Score
		if si != sj {
			return si > sj
		}
		if pairs[i].A.ID != pairs[j].A.ID {
			return pairs[i].A.ID < pairs[j].A.ID
		}
		return pairs[i].B.ID < pairs[j].B.ID
	})
	if len(pairs) > opts.MaxPairs {
		pairs = pairs[:opts.MaxPairs]
	}
	return pairs, nil
}

func comparePair(a, b *domain.Bookmark, threshold float64) (FuzzyPair, bool) {
	if a.URL != "" && a.URL == b.URL {
		return FuzzyPair{}, false
	}
	c := Compare(a, b)
	if c.Score < threshold {
		return FuzzyPair{}, false
	}
	if a.ID > b.ID {
		a, b = b, a
	}
	return FuzzyPair{A: a, B: b, Comparison: c}, true
}

// sampleBookmarks returns at most n bookmarks drawn by a seeded shuffle.
// The input is not modified.
func sampleBookmarks(bookmarks []*domain.Bookmark, n int, seed uint64) []*domain.Bookmark {
	if len(bookmarks) <= n {
		return bookmarks
	}
	shuffled := make([]*domain.Bookmark, len(bookmarks))
	copy(shuffled, bookmarks)
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:n]
}
