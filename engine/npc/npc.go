// Package npc builds the faction-flavoured parts of a stalker encounter:
// barter offers, rumours and the stats of a stalker who is attacked.
package npc

import (
	"fmt"

	"github.com/nathoo/zonecore/types"
)

// Stat ranges for a stalker turned hostile.
const (
	StrangerMinHealth = 30
	StrangerMaxHealth = 70
	StrangerMinDamage = 6
	StrangerMaxDamage = 14
)

const strangerDescription = "A wary but capable human opponent."

// Source is the randomness this package needs.
type Source interface {
	Between(lo, hi int) int
	Intn(n int) int
}

// Stranger is the combat profile of an attacked stalker.
type Stranger struct {
	Name        string
	Health      int
	Damage      int
	Description string
}

// Offers returns the barter list for a faction: its extra offers first,
// then the base offers with the faction's markup added to every ask.
func Offers(base []types.OfferDef, f types.FactionDef) []types.OfferDef {
	out := make([]types.OfferDef, 0, len(f.ExtraOffers)+len(base))
	out = append(out, f.ExtraOffers...)
	for _, o := range base {
		o.AskQty += f.AskMarkup
		if o.AskQty < 1 {
			o.AskQty = 1
		}
		out = append(out, o)
	}
	return out
}

// Tip picks a rumour. Returns "" when there are none.
func Tip(tips []string, rng Source) string {
	if len(tips) == 0 {
		return ""
	}
	return tips[rng.Intn(len(tips))]
}

// Name returns how a stalker of a faction is addressed.
func Name(faction string) string {
	return fmt.Sprintf("%s Stalker", faction)
}

// RollStranger rolls health and damage for an attacked stalker.
func RollStranger(faction string, rng Source) Stranger {
	return Stranger{
		Name:        Name(faction),
		Health:      rng.Between(StrangerMinHealth, StrangerMaxHealth),
		Damage:      rng.Between(StrangerMinDamage, StrangerMaxDamage),
		Description: strangerDescription,
	}
}
