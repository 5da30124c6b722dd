package importer

import "strings"

// NameToID converts a display name to a stable snake_case identifier.
//
// Postcondition: result is lowercase, contains only [a-z0-9_], and is
// idempotent (NameToID(NameToID(s)) == NameToID(s)).
func NameToID(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	var b strings.Builder
	for _, r := range s {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// typeAliases maps misspellings and synonyms found in hand-written catalogs
// to their canonical type names.
var typeAliases = map[string]string{
	"defuff":      "debuff",
	"de-buff":     "debuff",
	"spell":       "magic",
	"magical":     "magic",
	"physical":    "attack",
	"healing":     "heal",
	"dmg":         "damage",
	"potion":      "consumable",
	"consumables": "consumable",
	"weapons":     "weapon",
}

// NormalizeType lowercases and trims a type or kind tag and resolves known aliases.
//
// Postcondition: NormalizeType(NormalizeType(s)) == NormalizeType(s).
func NormalizeType(s string) string {
	t := strings.ToLower(strings.TrimSpace(s))
	if canon, ok := typeAliases[t]; ok {
		return canon
	}
	return t
}

// NormalizeItemType is NormalizeType for item types, where "magical" is canonical.
func NormalizeItemType(s string) string {
	t := NormalizeType(s)
	if t == "magic" {
		return "magical"
	}
	return t
}
