package engine

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nathoo/zonecore/engine/inventory"
	"github.com/nathoo/zonecore/engine/npc"
	"github.com/nathoo/zonecore/engine/state"
	"github.com/nathoo/zonecore/types"
)

// Reputation changes from encounter actions.
const (
	TradeReputation  = 2
	AttackReputation = -15
)

const giftChance = 0.25

// EncounterView describes the stalker the player is talking to.
type EncounterView struct {
	Faction    string
	Name       string
	Slogan     string
	Attitude   string
	Reputation int
	Offers     []types.OfferDef
}

// TradeResult is a completed barter.
type TradeResult struct {
	Offer      types.OfferDef
	Reputation int
}

// InfoResult is a rumour and possibly a small gift.
type InfoResult struct {
	Tip      string
	Gift     string
	GiftLost bool
}

// Encounter returns the active stalker encounter.
func (e *Engine) Encounter() (EncounterView, error) {
	if e.mode != ModeNPC || e.npc == nil {
		return EncounterView{}, ErrNoEncounter
	}
	f := e.npc.faction
	return EncounterView{
		Faction:    f.ID,
		Name:       npc.Name(f.ID),
		Slogan:     f.Slogan,
		Attitude:   f.Attitude,
		Reputation: e.State.Reputation[f.ID],
		Offers:     e.npc.offers,
	}, nil
}

// NPCTrade performs the offer at index. The trade either completes or
// leaves the inventory exactly as it was.
func (e *Engine) NPCTrade(index int) (TradeResult, error) {
	if e.mode != ModeNPC || e.npc == nil {
		return TradeResult{}, ErrNoEncounter
	}
	if index < 0 || index >= len(e.npc.offers) {
		return TradeResult{}, fmt.Errorf("%w: offer %d", ErrInvalidChoice, index+1)
	}
	offer := e.npc.offers[index]
	if have := e.Inventory.Count(offer.Ask); have < offer.AskQty {
		return TradeResult{}, fmt.Errorf("%w: need %d %s, have %d",
			inventory.ErrInsufficientQuantity, offer.AskQty, e.Defs.ItemName(offer.Ask), have)
	}

	backup := e.Inventory.Clone()
	if err := e.takeAcrossStacks(offer.Ask, offer.AskQty); err != nil {
		e.Inventory.CopyFrom(backup)
		return TradeResult{}, err
	}
	if _, _, err := e.Inventory.Add(offer.Give, offer.GiveQty); err != nil {
		e.Inventory.CopyFrom(backup)
		return TradeResult{}, err
	}

	rep := state.AdjustReputation(e.State, e.npc.faction.ID, TradeReputation)
	e.logger("npc").WithFields(logrus.Fields{
		"faction": e.npc.faction.ID,
		"give":    offer.Give,
		"ask":     offer.Ask,
	}).Info("trade completed")
	return TradeResult{Offer: offer, Reputation: rep}, nil
}

// takeAcrossStacks removes qty of itemID, draining stacks in row-major order.
func (e *Engine) takeAcrossStacks(itemID string, qty int) error {
	for qty > 0 {
		p, ok := e.Inventory.FindFirst(func(st inventory.Stack) bool { return st.ItemID == itemID })
		if !ok {
			return fmt.Errorf("%w: %s", inventory.ErrInsufficientQuantity, itemID)
		}
		n := min(qty, p.Stack.Quantity)
		if err := e.Inventory.DecrementAt(p.Origin, n); err != nil {
			return err
		}
		qty -= n
	}
	return nil
}

// NPCInfo asks for a rumour. Sometimes the stalker hands over a gift.
func (e *Engine) NPCInfo() (InfoResult, error) {
	if e.mode != ModeNPC || e.npc == nil {
		return InfoResult{}, ErrNoEncounter
	}
	res := InfoResult{Tip: npc.Tip(e.Defs.Tips, e.RNG)}
	if gift := e.Defs.Game.GiftItem; gift != "" && e.RNG.Chance(giftChance) {
		res.Gift = gift
		if _, _, err := e.Inventory.Add(gift, 1); err != nil {
			if !errors.Is(err, inventory.ErrInventoryFull) {
				return res, err
			}
			res.GiftLost = true
		}
	}
	return res, nil
}

// NPCAttack turns the encounter into a fight and costs reputation with the
// stalker's faction.
func (e *Engine) NPCAttack() (CombatView, error) {
	if e.mode != ModeNPC || e.npc == nil {
		return CombatView{}, ErrNoEncounter
	}
	f := e.npc.faction
	s := npc.RollStranger(f.ID, e.RNG)
	rep := state.AdjustReputation(e.State, f.ID, AttackReputation)
	e.logger("npc").WithFields(logrus.Fields{
		"faction":    f.ID,
		"reputation": rep,
	}).Info("stalker attacked")
	return e.startCombat(&combatSession{
		Name:        s.Name,
		Health:      s.Health,
		Damage:      s.Damage,
		LootTable:   e.Defs.Game.StrangerLoot,
		Description: s.Description,
	}), nil
}

// NPCLeave ends the encounter.
func (e *Engine) NPCLeave() error {
	if e.mode != ModeNPC || e.npc == nil {
		return ErrNoEncounter
	}
	e.npc = nil
	e.mode = ModeRest
	return nil
}
