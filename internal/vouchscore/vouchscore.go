// Package vouchscore holds the server-side rule for vouch point awards.
// Clients never predict these values; they display what the server
// returns. The repository applies this table when recording a vouch.
package vouchscore

// awards is the decay table indexed by the count of prior vouches from
// the same rater for the same skill.
var awards = []int{10, 8, 6, 4, 2}

// Award returns the points for a vouch given how many vouches this
// rater has already submitted for this skill. The 6th and every later
// vouch awards zero; it is recorded but worthless.
func Award(priorCount int) int {
	if priorCount < 0 || priorCount >= len(awards) {
		return 0
	}
	return awards[priorCount]
}
