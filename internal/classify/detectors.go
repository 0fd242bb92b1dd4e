package classify

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Detector is one voting signal over the filtered titles.
type Detector func(titles []Title, d Descriptor, th Thresholds) Verdict

// DefaultDetectors returns the voting detectors in evaluation order.
func DefaultDetectors() []Detector {
	return []Detector{
		NameIndicators,
		DurationPattern,
		SizeDistribution,
		TitleCount,
		DurationClusters,
	}
}

const (
	signalName     = "name_indicators"
	signalDuration = "duration_pattern"
	signalSize     = "size_distribution"
	signalCount    = "title_count"
	signalCluster  = "duration_clusters"
)

type indicator struct {
	pattern *regexp.Regexp
	label   string
}

var tvIndicators = []indicator{
	{regexp.MustCompile(`\b(?:season|temporada)\s*(\d+)`), "season"},
	{regexp.MustCompile(`\bs(\d{1,2})(?:e\d+)?\b`), "season"},
	{regexp.MustCompile(`\bdisc\s*\d+`), "disc number"},
	{regexp.MustCompile(`\bvolume\s*\d+`), "volume number"},
	{regexp.MustCompile(`\bpart\s*\d+`), "part number"},
	{regexp.MustCompile(`\bepisodes?\b`), "episode"},
	{regexp.MustCompile(`\bchapters?\b`), "chapters"},
	{regexp.MustCompile(`\bcomplete\s+series\b`), "complete series"},
	{regexp.MustCompile(`\bthe\s+complete\b`), "the complete"},
	{regexp.MustCompile(`\bcollector'?s\s+set\b`), "collector's set"},
	{regexp.MustCompile(`\bbox\s+set\b`), "box set"},
	{regexp.MustCompile(`\btv\s+series\b`), "tv series"},
}

var movieIndicators = []indicator{
	{regexp.MustCompile(`\(\d{4}\)`), "year in parentheses"},
	{regexp.MustCompile(`(?:^|\s)(?:19|20)\d{2}$`), "trailing year"},
	{regexp.MustCompile(`\[remastered\]`), "remastered"},
	{regexp.MustCompile(`\[collector`), "collector's edition"},
	{regexp.MustCompile(`\b4k\s+remaster`), "4k remaster"},
	{regexp.MustCompile(`\bcriterion\b`), "criterion"},
	{regexp.MustCompile(`\bdirector'?s\s+cut\b`), "director's cut"},
	{regexp.MustCompile(`\bextended\s+(?:cut|edition)\b`), "extended cut"},
	{regexp.MustCompile(`\btheatrical\s+cut\b`), "theatrical cut"},
	{regexp.MustCompile(`\bultimate\s+edition\b`), "ultimate edition"},
}

// NameIndicators looks for TV wording first, then movie wording, in the
// disc name.
func NameIndicators(_ []Title, d Descriptor, _ Thresholds) Verdict {
	name := strings.ToLower(separatorReplacer.Replace(strings.TrimSpace(d.RawName)))
	for _, ind := range tvIndicators {
		match := ind.pattern.FindStringSubmatch(name)
		if match == nil {
			continue
		}
		reason := fmt.Sprintf("disc name contains %s indicator", ind.label)
		if ind.label == "season" && len(match) > 1 {
			reason = fmt.Sprintf("disc name contains season indicator (Season %s)", strings.TrimLeft(match[1], "0"))
		}
		return Verdict{Class: TV, Confidence: High, Reason: reason, Signal: signalName}
	}
	for _, ind := range movieIndicators {
		if ind.pattern.MatchString(name) {
			return Verdict{
				Class:      Movie,
				Confidence: High,
				Reason:     fmt.Sprintf("disc name contains %s indicator", ind.label),
				Signal:     signalName,
			}
		}
	}
	return unknown(signalName, "no name indicators")
}

type episodeBand struct {
	label    string
	min, max int
}

var episodeBands = []episodeBand{
	{"sitcom", 18, 26},
	{"drama", 38, 52},
	{"premium drama", 50, 65},
	{"movie-length episode", 60, 130},
}

const lowVarianceLimit = 100

// DurationPattern inspects title lengths for episode-shaped uniformity.
// High-variance discs without a dominant title fall through to TV/MEDIUM;
// anthology film collections are a known false positive of that branch.
func DurationPattern(titles []Title, _ Descriptor, th Thresholds) Verdict {
	if len(titles) == 0 {
		return unknown(signalDuration, "no titles")
	}
	minutes := minutesOf(titles)
	if len(titles) == 1 {
		if int(minutes[0]) >= th.MinMovieMinutes {
			return Verdict{Movie, Medium, fmt.Sprintf("single long title (%d min)", int(minutes[0])), signalDuration}
		}
		return unknown(signalDuration, fmt.Sprintf("single short title (%d min)", int(minutes[0])))
	}
	total := sum(minutes)
	if total == 0 {
		return unknown(signalDuration, "titles have no duration")
	}
	avg := mean(minutes)
	if variance(minutes) < lowVarianceLimit {
		for _, band := range episodeBands {
			if allWithin(minutes, band.min, band.max) {
				return Verdict{
					Class:      TV,
					Confidence: High,
					Reason:     fmt.Sprintf("%d titles of consistent %s length (avg %.0f min)", len(titles), band.label, avg),
					Signal:     signalDuration,
				}
			}
		}
		if avg >= float64(th.MinMovieMinutes) {
			return Verdict{Movie, Medium, fmt.Sprintf("consistent long titles (avg %.0f min)", avg), signalDuration}
		}
		return unknown(signalDuration, fmt.Sprintf("consistent titles outside episode bands (avg %.0f min)", avg))
	}
	ratio := maxOf(minutes) / total
	if ratio > 0.7 {
		return Verdict{Movie, High, fmt.Sprintf("one dominant title (%.0f%% of runtime)", ratio*100), signalDuration}
	}
	return Verdict{TV, Medium, fmt.Sprintf("mixed title lengths without a dominant title (%.0f%% max share, may be an anthology)", ratio*100), signalDuration}
}

func allWithin(values []float64, lo, hi int) bool {
	for _, v := range values {
		if v < float64(lo) || v > float64(hi) {
			return false
		}
	}
	return true
}

const (
	singleMovieGB      = 10.0
	dominantSizeShare  = 0.8
	uniformSizeMaxCV2  = 0.30
	countBandMinTitles = 2
	countBandMaxTitles = 12
)

// SizeDistribution inspects how title sizes are spread.
func SizeDistribution(titles []Title, _ Descriptor, _ Thresholds) Verdict {
	if len(titles) == 0 {
		return unknown(signalSize, "no titles")
	}
	sizes := gigabytesOf(titles)
	if len(titles) == 1 {
		if sizes[0] > singleMovieGB {
			return Verdict{Movie, High, fmt.Sprintf("single large title (%.1f GB)", sizes[0]), signalSize}
		}
		return unknown(signalSize, fmt.Sprintf("single title of %.1f GB", sizes[0]))
	}
	total := sum(sizes)
	if total == 0 {
		return unknown(signalSize, "titles have no size")
	}
	share := maxOf(sizes) / total
	if share > dominantSizeShare {
		return Verdict{Movie, High, fmt.Sprintf("one title holds %.0f%% of disc data", share*100), signalSize}
	}
	avg := mean(sizes)
	if variance(sizes)/(avg*avg) < uniformSizeMaxCV2 {
		return Verdict{TV, High, fmt.Sprintf("%d titles of similar size (avg %.1f GB)", len(titles), avg), signalSize}
	}
	return unknown(signalSize, "title sizes are irregular")
}

// TitleCount looks at how many main titles sit in the episode range.
func TitleCount(titles []Title, _ Descriptor, _ Thresholds) Verdict {
	n := len(titles)
	if n == 0 {
		return unknown(signalCount, "no titles")
	}
	if n >= countBandMinTitles && n <= countBandMaxTitles {
		inRange := 0
		for _, t := range titles {
			if m := t.Minutes(); m >= 40 && m <= 130 {
				inRange++
			}
		}
		if float64(inRange) >= 0.8*float64(n) {
			return Verdict{TV, High, fmt.Sprintf("%d of %d titles in episode range", inRange, n), signalCount}
		}
	}
	if n <= 3 && maxOf(minutesOf(titles)) >= 80 {
		return Verdict{Movie, Medium, fmt.Sprintf("%d title(s) with a feature-length main title", n), signalCount}
	}
	return unknown(signalCount, fmt.Sprintf("%d titles", n))
}

const clusterTolerance = 5.0

// DurationClusters groups sorted title lengths and reports a dominant
// cluster of similar runtimes.
func DurationClusters(titles []Title, _ Descriptor, _ Thresholds) Verdict {
	n := len(titles)
	if n < 3 {
		return unknown(signalCluster, "too few titles to cluster")
	}
	minutes := minutesOf(titles)
	sort.Float64s(minutes)

	var clusters [][]float64
	current := []float64{minutes[0]}
	for _, m := range minutes[1:] {
		if abs(m-mean(current)) <= clusterTolerance {
			current = append(current, m)
			continue
		}
		clusters = append(clusters, current)
		current = []float64{m}
	}
	clusters = append(clusters, current)

	largest := clusters[0]
	for _, c := range clusters[1:] {
		if len(c) > len(largest) {
			largest = c
		}
	}
	if len(largest) >= 2 && float64(len(largest)) >= 0.7*float64(n) {
		return Verdict{TV, High, fmt.Sprintf("%d of %d titles cluster around %.0f min", len(largest), n, mean(largest)), signalCluster}
	}
	return unknown(signalCluster, fmt.Sprintf("no dominant duration cluster across %d titles", n))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
