package gdelt

import (
	"strings"
)

// QuerySpec is the fully-formed document search passed to every
// request. It replaces ambient query state: build it once, hand it to
// the client and the loop.
type QuerySpec struct {
	Keywords      []string
	KeywordFormat string // "AND" or "OR"; only meaningful with multiple keywords
	Language      string
	Country       string
	Domain        string
	Theme         string
	Custom        string
}

// escaper percent-encodes the characters the API is picky about.
var escaper = strings.NewReplacer(`"`, "%22", " ", "%20")

// Encode renders the search as the already-escaped query parameter
// expected by the API. Phrases are quoted so multi-word keywords are
// not treated as separate terms.
func (q QuerySpec) Encode() string {
	var sb strings.Builder

	sb.WriteString(q.keystring())

	// Filters are appended as space-separated operators.
	if q.Language != "" {
		sb.WriteString(" SourceLang:" + q.Language)
	}

	if q.Country != "" {
		sb.WriteString(" SourceCountry:" + q.Country)
	}

	if q.Domain != "" {
		sb.WriteString(" DomainIs:" + q.Domain)
	}

	if q.Theme != "" {
		sb.WriteString(" Theme:" + q.Theme)
	}

	if q.Custom != "" {
		sb.WriteString(" " + q.Custom)
	}

	return escaper.Replace(strings.TrimSpace(sb.String()))
}

// keystring combines the keywords per the configured format:
// a single keyword stands quoted on its own, OR becomes
// ("a" OR "b"), AND becomes "a" "b". An unrecognized format falls
// back to the first keyword alone.
func (q QuerySpec) keystring() string {
	keywords := q.nonEmptyKeywords()
	if len(keywords) == 0 {
		return ""
	}

	if len(keywords) == 1 {
		return `"` + keywords[0] + `"`
	}

	switch q.KeywordFormat {
	case "OR":
		return `("` + strings.Join(keywords, `" OR "`) + `")`
	case "AND":
		return `"` + strings.Join(keywords, `" "`) + `"`
	default:
		return `"` + keywords[0] + `"`
	}
}

// UsesFirstKeywordOnly reports whether Encode will ignore all but the
// first keyword because the combine format is unrecognized. Callers
// use this to warn before querying.
func (q QuerySpec) UsesFirstKeywordOnly() bool {
	if len(q.nonEmptyKeywords()) < 2 {
		return false
	}

	return q.KeywordFormat != "AND" && q.KeywordFormat != "OR"
}

func (q QuerySpec) nonEmptyKeywords() []string {
	var out []string

	for _, kw := range q.Keywords {
		if strings.TrimSpace(kw) != "" {
			out = append(out, strings.TrimSpace(kw))
		}
	}

	return out
}
