package catalog

import (
	"fmt"

	"github.com/weiawesome/wes-io-live/spawn-service/internal/domain"
	"github.com/weiawesome/wes-io-live/spawn-service/internal/selector"
)

// Catalog holds every name the renderer knows how to spawn and the gift
// mappings that trigger them. It is read-only once built.
type Catalog struct {
	monsters     []string
	bosses       []string
	itemTiers    []selector.Weighted[string]
	giftMonsters map[string]string
	giftItems    map[string]string
}

// Default returns the stock catalog.
func Default() *Catalog {
	c, _ := New(
		[]string{
			"AcidLarva", "BeetleGuard", "Beetle", "Bell", "Bison", "FlyingVermin",
			"Golem", "Jelly", "Lemurian", "Vermin", "Wisp",
		},
		[]string{
			"BeetleQueen", "ClayBoss", "ImpBoss", "MagmaWorm", "Titan", "Vagrant",
		},
		[]selector.Weighted[string]{
			{Value: "Tier1", Weight: 0.5},
			{Value: "Tier2", Weight: 0.25},
			{Value: "Tier3", Weight: 0.125},
			{Value: "Tier4", Weight: 0.125},
		},
		map[string]string{
			"Rose":          "Beetle",
			"Gamepad":       "BeetleGuard",
			"Cap":           "BeetleQueen",
			"Butterfly":     "Titan",
			"Goggles":       "TitanGold",
			"Boxing Gloves": "MagmaWorm",
			"Money Gun":     "ElectricWorm",
			"Galaxy":        "MiniVoidRaidCrabMasterPhase1",
		},
		map[string]string{
			"Finger heart":    "Tier1",
			"Doughnut":        "Tier2",
			"Game Controller": "Tier3",
			"Hand Heart":      "Tier4",
		},
	)
	return c
}

// New builds a catalog, copying its inputs. Monster, boss and item lists
// must be non-empty and item weights positive.
func New(monsters, bosses []string, itemTiers []selector.Weighted[string], giftMonsters, giftItems map[string]string) (*Catalog, error) {
	if len(monsters) == 0 {
		return nil, fmt.Errorf("%w: empty monster catalog", domain.ErrInvalidDistribution)
	}
	if len(bosses) == 0 {
		return nil, fmt.Errorf("%w: empty boss catalog", domain.ErrInvalidDistribution)
	}
	if len(itemTiers) == 0 {
		return nil, fmt.Errorf("%w: empty item catalog", domain.ErrInvalidDistribution)
	}
	for _, t := range itemTiers {
		if !(t.Weight > 0) {
			return nil, fmt.Errorf("%w: item %q has weight %v", domain.ErrInvalidDistribution, t.Value, t.Weight)
		}
	}

	return &Catalog{
		monsters:     append([]string(nil), monsters...),
		bosses:       append([]string(nil), bosses...),
		itemTiers:    append([]selector.Weighted[string](nil), itemTiers...),
		giftMonsters: copyMap(giftMonsters),
		giftItems:    copyMap(giftItems),
	}, nil
}

func (c *Catalog) Monsters() []string { return c.monsters }
func (c *Catalog) Bosses() []string   { return c.bosses }

// ItemTiers returns the weighted item distribution used for like-driven drops.
func (c *Catalog) ItemTiers() []selector.Weighted[string] { return c.itemTiers }

// GiftMonster returns the monster a gift spawns, if any.
func (c *Catalog) GiftMonster(gift string) (string, bool) {
	m, ok := c.giftMonsters[gift]
	return m, ok
}

// GiftItem returns the item tier a gift drops, if any.
func (c *Catalog) GiftItem(gift string) (string, bool) {
	t, ok := c.giftItems[gift]
	return t, ok
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
