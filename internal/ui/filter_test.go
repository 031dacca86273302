package ui

import (
	"reflect"
	"testing"
)

func TestFilterRowsEmptyQuery(t *testing.T) {
	rows := []listRow{{Title: "Alpha"}, {Title: "Beta"}, {Title: "Gamma"}}
	cfg := FilterConfig{MinCoverage: 0.6, MaxSpread: 40, MaxResults: 10}
	want := []int{0, 1, 2}
	if got := filterRows("", rows, cfg); !reflect.DeepEqual(got, want) {
		t.Fatalf("empty query mismatch: want %v got %v", want, got)
	}
}

func TestFilterRowsSubstringShortQuery(t *testing.T) {
	rows := []listRow{
		{Title: "Bolt M6", Subtitle: "A-100"},
		{Title: "Nut M8"},
		{Title: "Washer", Subtitle: "m6 spare"},
	}
	cfg := FilterConfig{MinCoverage: 0.6, MaxSpread: 40, MaxResults: 10}
	want := []int{0, 2}
	if got := filterRows("m6", rows, cfg); !reflect.DeepEqual(got, want) {
		t.Fatalf("substring mismatch: want %v got %v", want, got)
	}
}

func TestFilterBySubstringMaxResults(t *testing.T) {
	base := []string{"hello world", "foo bar", "hello bar"}
	idx := []int{0, 1, 2}
	cfg := FilterConfig{MaxResults: 1}
	want := []int{0}
	if got := filterBySubstring("hello", base, idx, cfg); !reflect.DeepEqual(got, want) {
		t.Fatalf("maxresults mismatch: want %v got %v", want, got)
	}
}

func TestFilterByFuzzyThresholds(t *testing.T) {
	base := []string{"abc", "axc", "ac"}
	idx := []int{0, 1, 2}
	cfg := FilterConfig{MinCoverage: 1, MaxSpread: 1, MaxResults: 10}
	want := []int{2}
	if got := filterByFuzzy("ac", base, idx, cfg); !reflect.DeepEqual(got, want) {
		t.Fatalf("fuzzy filter mismatch: want %v got %v", want, got)
	}
}

func TestFilterByFuzzyFallback(t *testing.T) {
	base := []string{"abcd", "abxd"}
	idx := []int{0, 1}
	cfg := FilterConfig{MinCoverage: 1, MaxSpread: 0, MaxResults: 1}
	got := filterByFuzzy("ad", base, idx, cfg)
	if len(got) != 1 {
		t.Fatalf("fuzzy fallback expected one result, got %v", got)
	}
}
