package classify_test

import (
	"errors"
	"strings"
	"testing"

	"mkvauto/internal/classify"
)

const gib = int64(1024 * 1024 * 1024)

func titlesOf(minutes []int, sizeGiB []float64) []classify.Title {
	titles := make([]classify.Title, len(minutes))
	for i, m := range minutes {
		titles[i] = classify.Title{Index: i, DurationSeconds: m * 60}
		if i < len(sizeGiB) {
			titles[i].SizeBytes = int64(sizeGiB[i] * float64(gib))
		}
	}
	return titles
}

func newClassifier(t *testing.T, forced map[string]string) *classify.Classifier {
	t.Helper()
	overrides, invalid := classify.NewOverrides(forced)
	if len(invalid) != 0 {
		t.Fatalf("unexpected invalid overrides: %v", invalid)
	}
	return classify.New(classify.DefaultThresholds(), overrides, nil, nil)
}

func TestClassifyConsistentSitcomEpisodes(t *testing.T) {
	c := newClassifier(t, nil)
	result, err := c.Classify(classify.Descriptor{
		RawName: "WORKPLACE COMEDY",
		Titles:  titlesOf([]int{22, 23, 24, 25}, []float64{1.1, 1.2, 1.2, 1.3}),
	})
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if result.Class != classify.TV || result.Confidence != classify.High {
		t.Fatalf("expected tv/high, got %s/%s (%s)", result.Class, result.Confidence, result.Reason)
	}
	if !strings.HasPrefix(result.Reason, "TV show detected: ") {
		t.Fatalf("unexpected reason %q", result.Reason)
	}
	if result.Signal != "vote" {
		t.Fatalf("expected vote signal, got %q", result.Signal)
	}
	if len(result.Verdicts) != 5 {
		t.Fatalf("expected five detector verdicts, got %d", len(result.Verdicts))
	}
}

func TestClassifySingleFeatureIsMediumMovie(t *testing.T) {
	c := newClassifier(t, nil)
	result, err := c.Classify(classify.Descriptor{
		RawName: "FEATURE",
		Titles:  titlesOf([]int{150}, []float64{8}),
	})
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if result.Class != classify.Movie || result.Confidence != classify.Medium {
		t.Fatalf("expected movie/medium, got %s/%s (%s)", result.Class, result.Confidence, result.Reason)
	}
	if !strings.HasPrefix(result.Reason, "Movie detected: ") {
		t.Fatalf("unexpected reason %q", result.Reason)
	}
}

func TestClassifyNoMainContent(t *testing.T) {
	c := newClassifier(t, nil)
	result, err := c.Classify(classify.Descriptor{
		RawName: "BONUS_FEATURES",
		Titles: []classify.Title{
			{Index: 0, DurationSeconds: 120, SizeBytes: gib / 4},
			{Index: 1, DurationSeconds: 599, SizeBytes: gib / 2},
		},
	})
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if result.Class != classify.Unknown || result.Confidence != classify.Low {
		t.Fatalf("expected unknown/low, got %s/%s", result.Class, result.Confidence)
	}
	if !strings.Contains(result.Reason, "no main content") {
		t.Fatalf("unexpected reason %q", result.Reason)
	}
	if len(result.Verdicts) != 0 {
		t.Fatalf("expected no detector verdicts, got %d", len(result.Verdicts))
	}
}

func TestClassifyManualOverrideWinsOverStatistics(t *testing.T) {
	c := newClassifier(t, map[string]string{"Planet Earth": "tv_show", "CARS": "movie"})
	feature := titlesOf([]int{150}, []float64{30})

	cases := []struct {
		name string
		want classify.ContentClass
	}{
		{"Planet Earth", classify.TV},
		{"PLANET EARTH", classify.TV},
		{"CARS", classify.Movie},
	}
	for _, tc := range cases {
		result, err := c.Classify(classify.Descriptor{RawName: tc.name, Titles: feature})
		if err != nil {
			t.Fatalf("%s: Classify returned error: %v", tc.name, err)
		}
		if result.Class != tc.want || result.Confidence != classify.High {
			t.Fatalf("%s: expected %s/high, got %s/%s", tc.name, tc.want, result.Class, result.Confidence)
		}
		if result.Signal != "manual_override" {
			t.Fatalf("%s: expected manual_override signal, got %q", tc.name, result.Signal)
		}
	}

	// Overrides apply even when no title survives the filter.
	result, err := c.Classify(classify.Descriptor{RawName: "Planet Earth"})
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if result.Class != classify.TV {
		t.Fatalf("expected override on empty disc, got %s", result.Class)
	}
}

func TestOverrideExactMatchPreferred(t *testing.T) {
	overrides, _ := classify.NewOverrides(map[string]string{"Cars": "movie", "CARS": "tv"})
	if class, ok := overrides.Lookup("CARS"); !ok || class != classify.TV {
		t.Fatalf("expected exact match tv, got %s ok=%v", class, ok)
	}
	if class, ok := overrides.Lookup("Cars"); !ok || class != classify.Movie {
		t.Fatalf("expected exact match movie, got %s ok=%v", class, ok)
	}
}

func TestNewOverridesReportsInvalidClasses(t *testing.T) {
	overrides, invalid := classify.NewOverrides(map[string]string{"A": "documentary", "B": "movie"})
	if len(invalid) != 1 || invalid[0] != "A" {
		t.Fatalf("expected A to be invalid, got %v", invalid)
	}
	if overrides.Len() != 1 {
		t.Fatalf("expected one valid override, got %d", overrides.Len())
	}
}

func TestClassifyKnownSeries(t *testing.T) {
	c := newClassifier(t, nil)
	result, err := c.Classify(classify.Descriptor{
		RawName: "SHERLOCK_SERIES_THREE",
		Titles:  titlesOf([]int{88, 89, 90}, []float64{8, 8, 8}),
	})
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if result.Class != classify.TV || result.Confidence != classify.High || result.Signal != "known_series" {
		t.Fatalf("expected known series tv/high, got %s/%s via %s", result.Class, result.Confidence, result.Signal)
	}
}

func TestRegistryExtension(t *testing.T) {
	registry := classify.NewRegistry(classify.DefaultKnownSeries, []string{"Grantchester", "SHERLOCK"})
	if _, ok := registry.Match("grantchester.s02"); !ok {
		t.Fatal("expected operator entry to match")
	}
	count := 0
	for _, entry := range registry.Entries() {
		if entry == "sherlock" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected deduplicated sherlock entry, got %d", count)
	}
}

func TestClassifyMultiDiscMarker(t *testing.T) {
	c := newClassifier(t, nil)
	for _, name := range []string{"SOME_SHOW_DISC_2", "Nature Documentary Vol 3", "Epic Saga Part 2"} {
		result, err := c.Classify(classify.Descriptor{RawName: name, Titles: titlesOf([]int{150}, []float64{30})})
		if err != nil {
			t.Fatalf("%s: Classify returned error: %v", name, err)
		}
		if result.Class != classify.TV || result.Signal != "multi_disc" {
			t.Fatalf("%s: expected multi_disc tv, got %s via %s", name, result.Class, result.Signal)
		}
	}
	result, err := c.Classify(classify.Descriptor{RawName: "Disco Inferno", Titles: titlesOf([]int{150}, []float64{30})})
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if result.Signal == "multi_disc" {
		t.Fatal("did not expect multi_disc match without a number")
	}
}

func TestClassifyRejectsNegativeValues(t *testing.T) {
	c := newClassifier(t, nil)
	_, err := c.Classify(classify.Descriptor{RawName: "X", Titles: []classify.Title{{DurationSeconds: -1}}})
	if !errors.Is(err, classify.ErrInvalidDescriptor) {
		t.Fatalf("expected ErrInvalidDescriptor, got %v", err)
	}
	_, err = c.Classify(classify.Descriptor{RawName: "X", Titles: []classify.Title{{DurationSeconds: 700, SizeBytes: -5}}})
	if !errors.Is(err, classify.ErrInvalidDescriptor) {
		t.Fatalf("expected ErrInvalidDescriptor for size, got %v", err)
	}
}

func TestClassifySetsSuggestedName(t *testing.T) {
	c := newClassifier(t, nil)
	result, err := c.Classify(classify.Descriptor{RawName: "The Office Season 2 Disc 1", Titles: titlesOf([]int{22, 22, 22}, []float64{1, 1, 1})})
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if result.SuggestedName != "The Office" {
		t.Fatalf("expected suggested name 'The Office', got %q", result.SuggestedName)
	}
}

func TestTitleKind(t *testing.T) {
	th := classify.DefaultThresholds()
	cases := []struct {
		minutes int
		want    classify.Kind
	}{
		{5, classify.KindExtra},
		{22, classify.KindEpisode},
		{70, classify.KindEpisode},
		{72, classify.KindExtra},
		{75, classify.KindMovie},
		{140, classify.KindMovie},
	}
	for _, tc := range cases {
		if got := classify.TitleKind(tc.minutes*60, th); got != tc.want {
			t.Fatalf("TitleKind(%d min) = %s, want %s", tc.minutes, got, tc.want)
		}
	}
}

func TestParseContentClass(t *testing.T) {
	for _, raw := range []string{"tv", "TV_SHOW", "tvshow", "tv show"} {
		if class, ok := classify.ParseContentClass(raw); !ok || class != classify.TV {
			t.Fatalf("ParseContentClass(%q) = %s, %v", raw, class, ok)
		}
	}
	if class, ok := classify.ParseContentClass("Movie"); !ok || class != classify.Movie {
		t.Fatalf("expected movie, got %s", class)
	}
	if _, ok := classify.ParseContentClass("unknown"); ok {
		t.Fatal("unknown must not be accepted as a forced class")
	}
}
