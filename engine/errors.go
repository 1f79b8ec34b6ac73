package engine

import (
	"errors"

	"github.com/nathoo/zonecore/engine/inventory"
	"github.com/nathoo/zonecore/engine/loot"
	"github.com/nathoo/zonecore/engine/save"
)

// Validation errors: the request was malformed, nothing changed.
var (
	ErrInvalidDirection = errors.New("invalid direction")
	ErrInvalidChoice    = errors.New("invalid choice")
	ErrBusy             = errors.New("not possible right now")
	ErrNotInCombat      = errors.New("not in combat")
	ErrNotInStructure   = errors.New("not exploring a structure")
	ErrNoEncounter      = errors.New("nobody to talk to")
	ErrUnknownMarker    = errors.New("unknown marker")
	ErrNotHere          = errors.New("that structure is not here")
	ErrNoParent         = errors.New("no previous area to go back to")
	ErrNotUsable        = errors.New("item cannot be used")
)

// Resource errors not owned by the inventory package.
var ErrNoHealingItems = errors.New("no healing items")

// Structural errors: generated content is broken.
var ErrCorruptStructure = errors.New("structure data corrupted")

// ErrorKind groups errors by how callers should react to them.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindResource
	KindStructural
	KindPersistence
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindResource:
		return "resource"
	case KindStructural:
		return "structural"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Classify reports the kind of err. Validation and resource errors leave
// state untouched; structural errors have already ended the structure
// session; persistence errors leave the current session running.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrCorruptStructure),
		errors.Is(err, loot.ErrUnknownTable),
		errors.Is(err, loot.ErrEmptyTable):
		return KindStructural
	case errors.Is(err, inventory.ErrInventoryFull),
		errors.Is(err, inventory.ErrInsufficientQuantity),
		errors.Is(err, inventory.ErrDestinationBlocked),
		errors.Is(err, ErrNoHealingItems):
		return KindResource
	case errors.Is(err, save.ErrNoSave),
		errors.Is(err, save.ErrCorrupt),
		errors.Is(err, save.ErrWrite):
		return KindPersistence
	default:
		return KindValidation
	}
}
