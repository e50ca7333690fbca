package vouchscore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAward_DecayTable(t *testing.T) {
	expected := []int{10, 8, 6, 4, 2, 0, 0, 0}
	for prior, points := range expected {
		assert.Equal(t, points, Award(prior), "prior count %d", prior)
	}
}

func TestAward_NegativeCount(t *testing.T) {
	assert.Equal(t, 0, Award(-1))
}
