package domain

import "math"

// RatingChange records one player's rating movement after a match.
type RatingChange struct {
	Old   int `json:"old"`
	New   int `json:"new"`
	Delta int `json:"delta"`
}

const KFactor = 32.0

// CalculateElo returns the new rating for player A.
// score is 1.0 for a win, 0.5 for a draw, and 0.0 for a loss.
func CalculateElo(ratingA, ratingB int, score float64) int {
	expectedScoreA := 1.0 / (1.0 + math.Pow(10.0, float64(ratingB-ratingA)/400.0))
	newRating := float64(ratingA) + KFactor*(score-expectedScoreA)

	if newRating < 0 {
		return 0
	}
	return int(newRating)
}

// EloChange computes the full change record for player A against B.
func EloChange(ratingA, ratingB int, score float64) RatingChange {
	newRating := CalculateElo(ratingA, ratingB, score)
	return RatingChange{Old: ratingA, New: newRating, Delta: newRating - ratingA}
}
