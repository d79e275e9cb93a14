package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiawesome/wes-io-live/spawn-service/internal/domain"
	"github.com/weiawesome/wes-io-live/spawn-service/internal/selector"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	require.NotNil(t, c)

	assert.Len(t, c.Monsters(), 11)
	assert.Len(t, c.Bosses(), 6)
	assert.Len(t, c.ItemTiers(), 4)

	m, ok := c.GiftMonster("Rose")
	assert.True(t, ok)
	assert.Equal(t, "Beetle", m)

	tier, ok := c.GiftItem("Hand Heart")
	assert.True(t, ok)
	assert.Equal(t, "Tier4", tier)

	_, ok = c.GiftMonster("Finger heart")
	assert.False(t, ok, "item gifts are not monster gifts")
	_, ok = c.GiftItem("Unknown Gift")
	assert.False(t, ok)
}

func TestNewRejectsEmptyCatalogs(t *testing.T) {
	tiers := []selector.Weighted[string]{{Value: "Tier1", Weight: 1}}

	_, err := New(nil, []string{"Titan"}, tiers, nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidDistribution)

	_, err = New([]string{"Wisp"}, nil, tiers, nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidDistribution)

	_, err = New([]string{"Wisp"}, []string{"Titan"}, nil, nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidDistribution)

	_, err = New([]string{"Wisp"}, []string{"Titan"}, []selector.Weighted[string]{{Value: "Tier1", Weight: 0}}, nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidDistribution)
}

func TestNewCopiesMappings(t *testing.T) {
	gifts := map[string]string{"Rose": "Beetle"}
	c, err := New([]string{"Wisp"}, []string{"Titan"}, []selector.Weighted[string]{{Value: "Tier1", Weight: 1}}, gifts, nil)
	require.NoError(t, err)

	gifts["Rose"] = "Golem"
	m, _ := c.GiftMonster("Rose")
	assert.Equal(t, "Beetle", m)
}
