package gdelt

import (
	"strings"
	"testing"
)

func TestQuerySpec_SingleKeyword(t *testing.T) {
	q := QuerySpec{Keywords: []string{"wildfire"}}

	got := q.Encode()
	if got != "%22wildfire%22" {
		t.Errorf("Expected %%22wildfire%%22, got %s", got)
	}
}

func TestQuerySpec_SingleKeywordPhraseIsQuoted(t *testing.T) {
	q := QuerySpec{Keywords: []string{"climate change"}}

	got := q.Encode()
	if got != "%22climate%20change%22" {
		t.Errorf("Expected quoted, escaped phrase, got %s", got)
	}
}

func TestQuerySpec_MultipleOR(t *testing.T) {
	q := QuerySpec{
		Keywords:      []string{"dogs", "cats"},
		KeywordFormat: "OR",
	}

	got := q.Encode()
	want := "(%22dogs%22%20OR%20%22cats%22)"

	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestQuerySpec_MultipleAND(t *testing.T) {
	q := QuerySpec{
		Keywords:      []string{"dogs", "cats"},
		KeywordFormat: "AND",
	}

	got := q.Encode()
	want := "%22dogs%22%20%22cats%22"

	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestQuerySpec_InvalidFormatFallsBackToFirstKeyword(t *testing.T) {
	q := QuerySpec{
		Keywords:      []string{"dogs", "cats"},
		KeywordFormat: "XOR",
	}

	if !q.UsesFirstKeywordOnly() {
		t.Error("Expected UsesFirstKeywordOnly to report the fallback")
	}

	got := q.Encode()
	if got != "%22dogs%22" {
		t.Errorf("Expected fallback to first keyword, got %s", got)
	}
}

func TestQuerySpec_Filters(t *testing.T) {
	q := QuerySpec{
		Keywords: []string{"flood"},
		Language: "spanish",
		Country:  "spain",
		Domain:   "elpais.com",
		Theme:    "NATURAL_DISASTER",
		Custom:   `near20:"river bank"`,
	}

	got := q.Encode()

	for _, part := range []string{
		"SourceLang:spanish",
		"SourceCountry:spain",
		"DomainIs:elpais.com",
		"Theme:NATURAL_DISASTER",
		"near20:%22river%20bank%22",
	} {
		if !strings.Contains(got, part) {
			t.Errorf("Expected encoded query to contain %q, got %s", part, got)
		}
	}

	if strings.ContainsAny(got, `" `) {
		t.Errorf("Encoded query must not contain raw quotes or spaces: %s", got)
	}
}

func TestQuerySpec_FilterOnly(t *testing.T) {
	q := QuerySpec{Domain: "bbc.co.uk"}

	got := q.Encode()
	if got != "DomainIs:bbc.co.uk" {
		t.Errorf("Expected bare filter query, got %s", got)
	}
}

func TestQuerySpec_BlankKeywordsIgnored(t *testing.T) {
	q := QuerySpec{
		Keywords:      []string{"", "  ", "storm"},
		KeywordFormat: "OR",
	}

	if q.UsesFirstKeywordOnly() {
		t.Error("A single usable keyword should not trigger the fallback")
	}

	got := q.Encode()
	if got != "%22storm%22" {
		t.Errorf("Expected %%22storm%%22, got %s", got)
	}
}
