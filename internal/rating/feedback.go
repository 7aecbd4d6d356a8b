package rating

import (
	"fmt"
	"math"
	"strconv"
)

// Feedback bands a score into the qualitative message shown beside it.
func Feedback(score float64) string {
	switch {
	case score >= 90:
		return "Excellent!"
	case score >= 80:
		return "Very nice!"
	case score >= 75:
		return "Good!"
	default:
		return "Good try!"
	}
}

// FormatScore renders integral scores without a fractional part.
func FormatScore(score float64) string {
	if score == math.Trunc(score) {
		return strconv.FormatInt(int64(score), 10)
	}
	return strconv.FormatFloat(score, 'f', -1, 64)
}

// Hint summarizes dimension deltas, e.g. "front/back +0.42, height -1.10".
func Hint(d *Dimensions) string {
	if d == nil {
		return ""
	}
	return fmt.Sprintf("front/back %+.2f, height %+.2f", d.FrontBackDelta(), d.HeightDelta())
}
