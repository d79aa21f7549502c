package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidNodeCount(t *testing.T) {
	allowed := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true, 8: true, 10: true}
	for n := -1; n <= 12; n++ {
		assert.Equal(t, allowed[n], ValidNodeCount(n), "nodes=%d", n)
	}
}

func TestDefaultNodeCount_IsPopularTier(t *testing.T) {
	tier, ok := TierFor(DefaultNodeCount)
	assert.True(t, ok)
	assert.Equal(t, 3, tier.Nodes)
	assert.True(t, tier.Popular)
	assert.Equal(t, "Standard", tier.Title)
}

func TestNodeTier_Speed(t *testing.T) {
	tier, _ := TierFor(10)
	assert.Equal(t, "500 profiles/min", tier.Speed())
}

func TestNodeTiers_ReturnsCopy(t *testing.T) {
	tiers := NodeTiers()
	tiers[0].Title = "changed"
	assert.Equal(t, "Starter", NodeTiers()[0].Title)
}

func TestNodeCountChoices(t *testing.T) {
	assert.Equal(t, "1, 2, 3, 4, 5, 6, 8, 10", NodeCountChoices())
}
