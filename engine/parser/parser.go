// Package parser converts command strings into Intent structs.
// Intentionally dumb: no NLP, just pattern matching.
package parser

import (
	"strings"

	"github.com/nathoo/zonecore/types"
)

var directionExpansions = map[string]string{
	"n":     "north",
	"s":     "south",
	"e":     "east",
	"w":     "west",
	"north": "north",
	"south": "south",
	"east":  "east",
	"west":  "west",
}

var verbAliases = map[string]string{
	// Look / Examine
	"l":        "look",
	"x":        "examine",
	"inspect":  "examine",
	"check":    "examine",
	"describe": "examine",

	// Movement
	"walk":   "go",
	"move":   "go",
	"head":   "go",
	"travel": "go",

	// Structures
	"enter":   "interact",
	"explore": "interact",
	"visit":   "interact",
	"select":  "choose",
	"pick":    "choose",
	"b":       "back",
	"return":  "back",
	"exit":    "leave",
	"bye":     "leave",
	"goodbye": "leave",

	// Combat
	"a":       "attack",
	"hit":     "attack",
	"fight":   "attack",
	"shoot":   "attack",
	"fire":    "attack",
	"strike":  "attack",
	"h":       "heal",
	"bandage": "heal",
	"f":       "flee",
	"run":     "flee",
	"retreat": "flee",
	"escape":  "flee",

	// NPC
	"barter": "trade",
	"buy":    "trade",
	"ask":    "info",
	"talk":   "info",
	"rumor":  "info",
	"rumour": "info",

	// Inventory
	"inv":      "inventory",
	"i":        "inventory",
	"backpack": "inventory",
	"bag":      "inventory",
	"consume":  "use",
	"eat":      "use",
	"drink":    "use",
	"apply":    "use",
	"discard":  "drop",
	"toss":     "drop",
	"shift":    "arrange",
	"place":    "arrange",

	// Miscellaneous
	"rep":      "reputation",
	"factions": "reputation",
	"stats":    "status",
	"?":        "help",
}

// Words dropped from arguments.
var fillers = map[string]bool{
	"the": true, "a": true, "an": true,
	"to": true, "at": true, "on": true, "with": true, "from": true,
}

// Parse converts a raw command string into an Intent.
func Parse(input string) types.Intent {
	input = strings.TrimSpace(input)
	if input == "" {
		return types.Intent{}
	}

	words := strings.Fields(strings.ToLower(input))

	// Direction shortcut: bare "n", "south", etc. → go <direction>
	if len(words) == 1 {
		if dir, ok := directionExpansions[words[0]]; ok {
			return types.Intent{Verb: "go", Args: []string{dir}}
		}
		if isNumber(words[0]) {
			return types.Intent{Verb: "choose", Args: []string{words[0]}}
		}
	}

	// Handle multi-word verb phrases before general parsing.
	words = expandMultiWordVerbs(words)

	// Apply verb aliases.
	if alias, ok := verbAliases[words[0]]; ok {
		words[0] = alias
	}

	verb := words[0]
	args := stripFillers(words[1:])

	if verb == "go" && len(args) > 0 {
		if dir, ok := directionExpansions[args[0]]; ok {
			args[0] = dir
		}
	}

	return types.Intent{Verb: verb, Args: args}
}

// expandMultiWordVerbs handles "look at", "go back", "use item" etc.
func expandMultiWordVerbs(words []string) []string {
	if len(words) < 2 {
		return words
	}

	switch words[0] {
	case "look":
		if words[1] == "at" {
			return append([]string{"examine"}, words[2:]...)
		}
	case "go", "step":
		if words[1] == "back" {
			return append([]string{"back"}, words[2:]...)
		}
	case "walk":
		if words[1] == "away" {
			return append([]string{"leave"}, words[2:]...)
		}
	case "ask":
		if words[1] == "for" || words[1] == "about" {
			return append([]string{"info"}, words[2:]...)
		}
	case "move":
		// "move 0 2 3 4" rearranges the backpack; "move north" walks.
		if isNumber(words[1]) {
			return append([]string{"arrange"}, words[1:]...)
		}
	}

	return words
}

// stripFillers removes articles and linking prepositions.
func stripFillers(words []string) []string {
	result := make([]string, 0, len(words))
	for _, w := range words {
		if !fillers[w] {
			result = append(result, w)
		}
	}
	return result
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
