package handlers

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// params reads typed query parameters, remembering the first failure.
type params struct {
	v   url.Values
	err error
}

func newParams(v url.Values) *params { return &params{v: v} }

func (p *params) str(key string) string {
	return strings.TrimSpace(p.v.Get(key))
}

func (p *params) fail(key, raw, kind string) {
	if p.err == nil {
		p.err = badRequest("%s=%q is not a valid %s", key, raw, kind)
	}
}

func (p *params) integer(key string, def int) int {
	raw := p.str(key)
	if raw == "" {
		return def
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw, "integer")
		return def
	}
	return i
}

func (p *params) optInt(key string) *int {
	if p.str(key) == "" {
		return nil
	}
	i := p.integer(key, 0)
	return &i
}

func (p *params) float(key string, def float64) float64 {
	raw := p.str(key)
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(key, raw, "number")
		return def
	}
	return f
}

func (p *params) optFloat(key string) *float64 {
	if p.str(key) == "" {
		return nil
	}
	f := p.float(key, 0)
	return &f
}

func (p *params) boolean(key string, def bool) bool {
	raw := p.str(key)
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, raw, "boolean")
		return def
	}
	return b
}

func (p *params) optBool(key string) *bool {
	if p.str(key) == "" {
		return nil
	}
	b := p.boolean(key, false)
	return &b
}

// date accepts RFC 3339 timestamps and plain 2006-01-02 dates.
func (p *params) date(key string) time.Time {
	raw := p.str(key)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	p.fail(key, raw, "date")
	return time.Time{}
}
