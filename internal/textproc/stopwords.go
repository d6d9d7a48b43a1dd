package textproc

// IsStopword reports whether token is in the fixed English stopword set.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"from": {}, "up": {}, "about": {}, "into": {}, "through": {}, "during": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
	"have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {}, "will": {},
	"would": {}, "could": {}, "should": {}, "may": {}, "might": {}, "can": {},
	"this": {}, "that": {}, "these": {}, "those": {}, "you": {}, "your": {},
	"how": {}, "what": {}, "when": {}, "where": {}, "why": {}, "not": {},
	"all": {}, "any": {}, "its": {}, "our": {}, "www": {}, "com": {},
}
