// Package legacy reads the JSON catalogs of the earlier prototype: skill.json,
// item.json and enemies.json, each a list of definitions sharing the current
// field names. enemies.json may also hold a single object.
package legacy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/adventure/internal/game/effect"
	"github.com/cory-johannsen/adventure/internal/game/inventory"
	"github.com/cory-johannsen/adventure/internal/game/npc"
	"github.com/cory-johannsen/adventure/internal/game/skill"
	"github.com/cory-johannsen/adventure/internal/importer"
)

// Catalog file names.
const (
	SkillFile = "skill.json"
	ItemFile  = "item.json"
	EnemyFile = "enemies.json"
)

// Source implements importer.Source for the legacy JSON layout.
type Source struct{}

// NewSource constructs a legacy Source.
func NewSource() *Source {
	return &Source{}
}

// Load reads the three catalogs from sourceDir. A missing catalog becomes a
// warning; a malformed one is an error.
//
// Precondition: sourceDir is a readable directory.
// Postcondition: returned definitions have normalised type tags.
func (s *Source) Load(sourceDir string) (*importer.Bundle, error) {
	info, err := os.Stat(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("reading source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", sourceDir)
	}

	b := &importer.Bundle{Name: filepath.Base(filepath.Clean(sourceDir))}

	if err := decodeFile(sourceDir, SkillFile, &b.Skills, b); err != nil {
		return nil, err
	}
	if err := decodeFile(sourceDir, ItemFile, &b.Items, b); err != nil {
		return nil, err
	}
	if err := decodeFile(sourceDir, EnemyFile, &b.Enemies, b); err != nil {
		return nil, err
	}

	for _, d := range b.Skills {
		NormalizeSkill(d)
	}
	for _, d := range b.Items {
		NormalizeItem(d)
	}
	for _, t := range b.Enemies {
		b.Warnings = append(b.Warnings, NormalizeEnemy(t)...)
	}
	return b, nil
}

// decodeFile decodes name into out, accepting a lone object where a list is expected.
func decodeFile(dir, name string, out any, b *importer.Bundle) error {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		b.Warnings = append(b.Warnings, fmt.Sprintf("%s not found; section skipped", name))
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := DecodeList(data, out); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// DecodeList decodes a JSON document holding either a list or a single
// object into out, which must point to a slice of catalog definitions. The
// document is re-encoded as YAML so the catalog types' YAML hooks apply.
//
// Postcondition: an empty document leaves out untouched.
func DecodeList(data []byte, out any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("parsing: %w", err)
	}
	switch v.(type) {
	case []any:
	case map[string]any:
		v = []any{v}
	case nil:
		return nil
	default:
		return fmt.Errorf("expected a list or an object, got %T", v)
	}
	y, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("re-encoding: %w", err)
	}
	return yaml.Unmarshal(y, out)
}

// NormalizeSkill canonicalises the type tags of d.
func NormalizeSkill(d *skill.Def) {
	d.Name = strings.TrimSpace(d.Name)
	d.Type = skill.Type(importer.NormalizeType(string(d.Type)))
	normalizeEffects(d.Effects)
}

// NormalizeItem canonicalises the type tags of d.
func NormalizeItem(d *inventory.ItemDef) {
	d.Name = strings.TrimSpace(d.Name)
	d.ItemType = inventory.ItemType(importer.NormalizeItemType(string(d.ItemType)))
	d.SubType = inventory.SubType(strings.ToLower(strings.TrimSpace(string(d.SubType))))
	normalizeEffects(d.Effects)
}

// NormalizeEnemy canonicalises t and fills fields the prototype left implicit.
//
// Postcondition: returns one warning per defaulted field.
func NormalizeEnemy(t *npc.Template) []string {
	var warnings []string
	t.Name = strings.TrimSpace(t.Name)
	if t.Level < 1 {
		warnings = append(warnings, fmt.Sprintf("enemy %q has no level; defaulting to 1", t.Name))
		t.Level = 1
	}
	for i := range t.Attacks {
		a := &t.Attacks[i]
		a.SubType = inventory.SubType(strings.ToLower(strings.TrimSpace(string(a.SubType))))
		normalizeEffects(a.Effects)
	}
	return warnings
}

func normalizeEffects(effects []effect.Effect) {
	for i := range effects {
		effects[i].Kind = effect.Kind(importer.NormalizeType(string(effects[i].Kind)))
	}
}
