package classify

import (
	"fmt"
	"strings"
)

const (
	signalVote       = "vote"
	highTotalCutoff  = 3.0
	maxReasonsJoined = 2
)

// Combine tallies weighted verdicts into a final result. titles are the
// filtered main titles, used only to break ties.
func Combine(verdicts []Verdict, titles []Title, th Thresholds) Result {
	var tvScore, movieScore float64
	for _, v := range verdicts {
		switch v.Class {
		case TV:
			tvScore += v.Confidence.Weight()
		case Movie:
			movieScore += v.Confidence.Weight()
		}
	}

	result := Result{Signal: signalVote, Verdicts: verdicts, MainTitles: titles}
	switch {
	case tvScore > movieScore:
		result.Class = TV
		result.Confidence = scoreConfidence(tvScore)
		result.Reason = joinReasons(TV, verdicts)
	case movieScore > tvScore:
		result.Class = Movie
		result.Confidence = scoreConfidence(movieScore)
		result.Reason = joinReasons(Movie, verdicts)
	default:
		longest := 0
		for _, t := range titles {
			if m := t.Minutes(); m > longest {
				longest = m
			}
		}
		if longest >= th.TieBreakMinutes {
			result.Class = Movie
			result.Confidence = Medium
			result.Reason = fmt.Sprintf("Tied signals; longest title is %d min, treating as movie", longest)
		} else {
			result.Class = Unknown
			result.Confidence = Low
			result.Reason = fmt.Sprintf("Tied signals (tv %.1f, movie %.1f); unable to classify", tvScore, movieScore)
		}
	}
	return result
}

func scoreConfidence(score float64) Confidence {
	if score >= highTotalCutoff {
		return High
	}
	return Medium
}

func joinReasons(class ContentClass, verdicts []Verdict) string {
	reasons := make([]string, 0, maxReasonsJoined)
	for _, v := range verdicts {
		if v.Class != class || v.Confidence == Low || v.Reason == "" {
			continue
		}
		reasons = append(reasons, v.Reason)
		if len(reasons) == maxReasonsJoined {
			break
		}
	}
	return fmt.Sprintf("%s detected: %s", class.Label(), strings.Join(reasons, "; "))
}
