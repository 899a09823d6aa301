package domain

import "testing"

func TestCalculateElo(t *testing.T) {
	cases := []struct {
		name    string
		ratingA int
		ratingB int
		score   float64
		want    int
	}{
		{"even match win", 1000, 1000, 1.0, 1016},
		{"even match loss", 1000, 1000, 0.0, 984},
		{"even match draw", 1000, 1000, 0.5, 1000},
		{"underdog win gains more", 1000, 1200, 1.0, 1024},
		{"favorite win gains less", 1200, 1000, 1.0, 1207},
		{"floor at zero", 5, 1000, 0.0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateElo(tc.ratingA, tc.ratingB, tc.score)
			if got != tc.want {
				t.Errorf("CalculateElo(%d, %d, %v) = %d, want %d",
					tc.ratingA, tc.ratingB, tc.score, got, tc.want)
			}
		})
	}
}

func TestEloChangeIsZeroSumForEvenRatings(t *testing.T) {
	winner := EloChange(1000, 1000, 1.0)
	loser := EloChange(1000, 1000, 0.0)
	if winner.Delta+loser.Delta != 0 {
		t.Errorf("deltas %d and %d do not cancel", winner.Delta, loser.Delta)
	}
	if winner.New != winner.Old+winner.Delta {
		t.Errorf("inconsistent change record: %+v", winner)
	}
}
