package query

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// SpecialFilters are the key:value filters recognized in a raw query.
// Boolean filters are nil when absent.
type SpecialFilters struct {
	Category    string `json:"category,omitempty"`
	Domain      string `json:"domain,omitempty"`
	Platform    string `json:"platform,omitempty"`
	Creator     string `json:"creator,omitempty"`
	Repo        string `json:"repo,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Playlist    string `json:"playlist,omitempty"`
	Folder      string `json:"folder,omitempty"`

	HasImage *bool `json:"hasImage,omitempty"`
	Accessed *bool `json:"accessed,omitempty"`
	Stale    *bool `json:"stale,omitempty"`
	Enriched *bool `json:"enriched,omitempty"`
	Dead     *bool `json:"dead,omitempty"`
}

// IsEmpty reports whether no special filter was given.
func (f SpecialFilters) IsEmpty() bool {
	return f == SpecialFilters{}
}

// ParsedQuery is the structured form of the free text part of a query.
// All terms are lowercased.
type ParsedQuery struct {
	Positive      []string         `json:"positive"`
	Negative      []string         `json:"negative"`
	Phrases       []string         `json:"phrases"`
	Regular       []string         `json:"regular"`
	RegexPatterns []*regexp.Regexp `json:"-"`

	// Warnings lists the regex segments that failed to compile.
	Warnings []string `json:"warnings,omitempty"`
}

// HasTerms reports whether the query carries any text constraint.
func (q *ParsedQuery) HasTerms() bool {
	return q != nil && (len(q.Positive) > 0 || len(q.Negative) > 0 || len(q.Phrases) > 0 ||
		len(q.Regular) > 0 || len(q.RegexPatterns) > 0)
}

// Patterns returns the source of each compiled regex, for display.
func (q *ParsedQuery) Patterns() []string {
	out := make([]string, 0, len(q.RegexPatterns))
	for _, re := range q.RegexPatterns {
		out = append(out, re.String())
	}
	return out
}

// MarshalJSON renders compiled regexes by their source under "regex".
func (q ParsedQuery) MarshalJSON() ([]byte, error) {
	type plain ParsedQuery
	return json.Marshal(struct {
		plain
		Regex []string `json:"regex"`
	}{plain(q), q.Patterns()})
}

// Matches applies boolean query semantics to a candidate's searchable text:
// every positive term and phrase present, every negative term absent, every
// regex matching, and at least one regular term present when any exist.
func (q *ParsedQuery) Matches(text string) bool {
	if q == nil {
		return true
	}
	lower := strings.ToLower(text)

	for _, term := range q.Positive {
		if !strings.Contains(lower, term) {
			return false
		}
	}
	for _, term := range q.Negative {
		if strings.Contains(lower, term) {
			return false
		}
	}
	for _, phrase := range q.Phrases {
		if !strings.Contains(lower, phrase) {
			return false
		}
	}
	for _, re := range q.RegexPatterns {
		if !re.MatchString(text) {
			return false
		}
	}
	if len(q.Regular) == 0 {
		return true
	}
	for _, term := range q.Regular {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

var (
	// stringFilterRe matches key:value and key:"quoted value" tokens.
	stringFilterRe = regexp.MustCompile(`(?i)(^|\s)(category|domain|platform|channel|author|repo|type|playlist|folder):(?:"([^"]*)"|(\S+))`)

	// boolFilterRe matches the yes/no filters.
	boolFilterRe = regexp.MustCompile(`(?i)(^|\s)(hasimage|accessed|stale|enriched|dead):(yes|no)(\s|$)`)

	// regexSegmentRe matches /pattern/flags standing as its own token.
	regexSegmentRe = regexp.MustCompile(`(^|\s)/((?:\\.|[^/\\])+)/([a-z]*)(\s|$)`)

	// phraseRe matches "quoted phrases" with an optional +/- prefix.
	phraseRe = regexp.MustCompile(`([+-]?)"([^"]+)"`)
)

// Parse splits a raw query into special filters and a ParsedQuery. It never
// fails: invalid regex segments are dropped and reported in Warnings.
//
// Examples:
//   - `+rust -tutorial` -> positive [rust], negative [tutorial]
//   - `dead:yes category:video` -> special filters only
//   - `folder:"read later" /go(lang)?/` -> folder filter + one regex
func Parse(raw string) (SpecialFilters, *ParsedQuery) {
	var filters SpecialFilters
	q := &ParsedQuery{}

	working := extractStringFilters(raw, &filters)
	working = extractBoolFilters(working, &filters)
	working = extractRegexes(working, q)
	working = extractPhrases(working, q)

	for _, tok := range strings.Fields(working) {
		tok = strings.ToLower(tok)
		switch {
		case strings.HasPrefix(tok, "+"):
			if term := tok[1:]; term != "" {
				q.Positive = append(q.Positive, term)
			}
		case strings.HasPrefix(tok, "-"):
			if term := tok[1:]; term != "" {
				q.Negative = append(q.Negative, term)
			}
		default:
			q.Regular = append(q.Regular, tok)
		}
	}

	return filters, q
}

func extractStringFilters(s string, f *SpecialFilters) string {
	return stringFilterRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := stringFilterRe.FindStringSubmatch(m)
		value := sub[3]
		if value == "" {
			value = sub[4]
		}
		value = strings.TrimSpace(value)

		switch strings.ToLower(sub[2]) {
		case "category":
			f.Category = value
		case "domain":
			f.Domain = value
		case "platform":
			f.Platform = value
		case "channel", "author":
			f.Creator = value
		case "repo":
			f.Repo = value
		case "type":
			f.ContentType = value
		case "playlist":
			f.Playlist = value
		case "folder":
			f.Folder = value
		}
		return sub[1]
	})
}

func extractBoolFilters(s string, f *SpecialFilters) string {
	// A single pass can miss adjacent tokens sharing one separator, so
	// repeat until nothing matches.
	for boolFilterRe.MatchString(s) {
		s = boolFilterRe.ReplaceAllStringFunc(s, func(m string) string {
			sub := boolFilterRe.FindStringSubmatch(m)
			v := strings.EqualFold(sub[3], "yes")
			switch strings.ToLower(sub[2]) {
			case "hasimage":
				f.HasImage = &v
			case "accessed":
				f.Accessed = &v
			case "stale":
				f.Stale = &v
			case "enriched":
				f.Enriched = &v
			case "dead":
				f.Dead = &v
			}
			return sub[1] + sub[4]
		})
	}
	return s
}

func extractRegexes(s string, q *ParsedQuery) string {
	for {
		loc := regexSegmentRe.FindStringSubmatchIndex(s)
		if loc == nil {
			return s
		}
		pattern := s[loc[4]:loc[5]]
		flags := s[loc[6]:loc[7]]

		re, err := compilePattern(pattern, flags)
		if err != nil {
			q.Warnings = append(q.Warnings, fmt.Sprintf("invalid regex /%s/%s: %v", pattern, flags, err))
		} else {
			q.RegexPatterns = append(q.RegexPatterns, re)
		}
		s = s[:loc[0]] + s[loc[2]:loc[3]] + s[loc[8]:loc[9]] + s[loc[1]:]
	}
}

// compilePattern maps JavaScript-style flags onto RE2 inline flags.
// Without flags the pattern is case-insensitive.
func compilePattern(pattern, flags string) (*regexp.Regexp, error) {
	if flags == "" {
		flags = "i"
	}
	var inline strings.Builder
	for _, c := range flags {
		switch c {
		case 'i', 'm', 's':
			if !strings.ContainsRune(inline.String(), c) {
				inline.WriteRune(c)
			}
		}
	}
	if inline.Len() > 0 {
		pattern = "(?" + inline.String() + ")" + pattern
	}
	return regexp.Compile(pattern)
}

func extractPhrases(s string, q *ParsedQuery) string {
	for _, m := range phraseRe.FindAllStringSubmatch(s, -1) {
		phrase := strings.ToLower(strings.TrimSpace(m[2]))
		if phrase == "" {
			continue
		}
		switch m[1] {
		case "+":
			q.Positive = append(q.Positive, phrase)
		case "-":
			q.Negative = append(q.Negative, phrase)
		default:
			q.Phrases = append(q.Phrases, phrase)
		}
	}
	return phraseRe.ReplaceAllString(s, " ")
}
