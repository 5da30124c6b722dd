package importer

import (
	"github.com/cory-johannsen/adventure/internal/game/inventory"
	"github.com/cory-johannsen/adventure/internal/game/npc"
	"github.com/cory-johannsen/adventure/internal/game/skill"
)

// Bundle is the common intermediate form produced by every Source. Its
// definitions carry the catalog YAML tags, so each slice can be marshalled
// directly and re-validated by the catalog loaders.
type Bundle struct {
	// Name identifies the content pack; output files are named after it.
	Name    string
	Skills  []*skill.Def
	Items   []*inventory.ItemDef
	Enemies []*npc.Template
	// Warnings lists recoverable problems met while loading.
	Warnings []string
}

// Source loads content from a format-specific source directory.
//
// Precondition: sourceDir must exist and contain the expected layout for the format.
// Postcondition: returns a non-nil Bundle, or a non-nil error.
type Source interface {
	Load(sourceDir string) (*Bundle, error)
}
