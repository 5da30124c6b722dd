package importer

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/adventure/internal/game/inventory"
	"github.com/cory-johannsen/adventure/internal/game/npc"
	"github.com/cory-johannsen/adventure/internal/game/skill"
)

// DefaultPackName names the output files when a Source leaves Bundle.Name empty.
const DefaultPackName = "imported"

// Result reports what Run wrote.
type Result struct {
	Files    []string
	Skills   int
	Items    int
	Enemies  int
	Warnings []string
}

// Importer orchestrates content import from a Source to a content directory.
type Importer struct {
	source Source
	logger *zap.Logger
}

// New constructs an Importer backed by the given Source.
//
// Precondition: source and logger must be non-nil.
// Postcondition: returns a non-nil Importer.
func New(source Source, logger *zap.Logger) *Importer {
	return &Importer{source: source, logger: logger}
}

// Run loads a bundle from sourceDir, validates it, and writes one catalog file
// per non-empty section under outputDir: skills/<pack>.yaml, items/<pack>.yaml
// and enemies/<pack>.yaml.
//
// Precondition: sourceDir must satisfy the source's layout requirements;
// outputDir must exist or be creatable.
// Postcondition: nothing is written unless every section validates.
func (imp *Importer) Run(sourceDir, outputDir string) (*Result, error) {
	overall := time.Now()

	b, err := imp.source.Load(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("loading source: %w", err)
	}
	imp.logger.Info("loaded content bundle",
		zap.String("source", sourceDir),
		zap.Int("skills", len(b.Skills)),
		zap.Int("items", len(b.Items)),
		zap.Int("enemies", len(b.Enemies)),
		zap.Duration("elapsed", time.Since(overall)),
	)

	files, err := Render(b)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Skills:   len(b.Skills),
		Items:    len(b.Items),
		Enemies:  len(b.Enemies),
		Warnings: append(append([]string(nil), b.Warnings...), CrossCheck(b.Skills, b.Items, b.Enemies)...),
	}
	for _, w := range res.Warnings {
		imp.logger.Warn("import warning", zap.String("detail", w))
	}

	for _, rel := range slices.Sorted(maps.Keys(files)) {
		data := files[rel]
		path := filepath.Join(outputDir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating directory for %s: %w", path, err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}
		res.Files = append(res.Files, path)
		imp.logger.Info("wrote catalog", zap.String("path", path), zap.Int("bytes", len(data)))
	}

	imp.logger.Info("import complete", zap.Duration("elapsed", time.Since(overall)))
	return res, nil
}

// Render serialises each non-empty section of b and re-validates it through
// the catalog loader that will read it back. Keys are paths relative to the
// content root.
//
// Postcondition: on success every returned document loads without error.
func Render(b *Bundle) (map[string][]byte, error) {
	pack := NameToID(b.Name)
	if pack == "" {
		pack = DefaultPackName
	}
	file := pack + ".yaml"
	out := make(map[string][]byte, 3)

	if len(b.Skills) > 0 {
		if _, err := skill.NewRegistryFrom(b.Skills); err != nil {
			return nil, fmt.Errorf("skills: %w", err)
		}
		data, err := yaml.Marshal(b.Skills)
		if err != nil {
			return nil, fmt.Errorf("serialising skills: %w", err)
		}
		if _, err := skill.LoadSkillsFromBytes(data); err != nil {
			return nil, fmt.Errorf("skills failed validation: %w", err)
		}
		out[filepath.Join("skills", file)] = data
	}

	if len(b.Items) > 0 {
		if _, err := inventory.NewRegistryFrom(b.Items); err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		data, err := yaml.Marshal(b.Items)
		if err != nil {
			return nil, fmt.Errorf("serialising items: %w", err)
		}
		if _, err := inventory.LoadItemsFromBytes(data); err != nil {
			return nil, fmt.Errorf("items failed validation: %w", err)
		}
		out[filepath.Join("items", file)] = data
	}

	if len(b.Enemies) > 0 {
		data, err := yaml.Marshal(b.Enemies)
		if err != nil {
			return nil, fmt.Errorf("serialising enemies: %w", err)
		}
		if _, err := npc.LoadTemplatesFromBytes(data); err != nil {
			return nil, fmt.Errorf("enemies failed validation: %w", err)
		}
		out[filepath.Join("enemies", file)] = data
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("bundle %q has no content", b.Name)
	}
	return out, nil
}

// CrossCheck reports references between catalogs that do not resolve: loot
// drops naming unknown items and duplicate enemy names.
//
// Postcondition: returns one human-readable line per problem; nil when clean.
func CrossCheck(skills []*skill.Def, items []*inventory.ItemDef, enemies []*npc.Template) []string {
	var problems []string

	known := make(map[string]bool, len(items))
	for _, it := range items {
		known[key(it.Name)] = true
	}
	seenSkill := make(map[string]bool, len(skills))
	for _, s := range skills {
		if seenSkill[key(s.Name)] {
			problems = append(problems, fmt.Sprintf("skill %q is defined more than once", s.Name))
		}
		seenSkill[key(s.Name)] = true
	}

	seenEnemy := make(map[string]bool, len(enemies))
	for _, e := range enemies {
		if seenEnemy[key(e.Name)] {
			problems = append(problems, fmt.Sprintf("enemy %q is defined more than once", e.Name))
		}
		seenEnemy[key(e.Name)] = true
		if e.Loot == nil {
			continue
		}
		for _, drop := range e.Loot.Items {
			if !known[key(drop.Item)] {
				problems = append(problems, fmt.Sprintf("enemy %q drops unknown item %q", e.Name, drop.Item))
			}
		}
	}
	return problems
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
