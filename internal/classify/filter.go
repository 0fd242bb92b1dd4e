package classify

// MainTitles drops titles shorter than minSeconds, keeping input order.
func MainTitles(titles []Title, minSeconds int) []Title {
	kept := make([]Title, 0, len(titles))
	for _, t := range titles {
		if t.DurationSeconds >= minSeconds {
			kept = append(kept, t)
		}
	}
	return kept
}

// Kind labels a single title for display.
type Kind string

const (
	KindEpisode Kind = "episode"
	KindMovie   Kind = "movie"
	KindExtra   Kind = "extra"
)

// TitleKind labels a title of the given length using the episode and movie
// bands of th. Titles inside the episode band win over the movie floor.
func TitleKind(seconds int, th Thresholds) Kind {
	minutes := seconds / 60
	switch {
	case minutes >= th.MinEpisodeMinutes && minutes <= th.MaxEpisodeMinutes:
		return KindEpisode
	case minutes >= th.MinMovieMinutes:
		return KindMovie
	default:
		return KindExtra
	}
}
