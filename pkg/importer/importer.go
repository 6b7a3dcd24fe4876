package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/catalog"
)

// DefaultSkillLevels are created by Seed
var DefaultSkillLevels = []string{"low", "medium", "high"}

// Target is where imported recipes are written
type Target interface {
	CreateRecipe(ctx context.Context, in *catalog.CreateRecipeInput) (*catalog.RecipeDetail, error)
	EnsureSkillLevel(ctx context.Context, level string) (*catalog.SkillLevel, error)
}

// Report summarises an import run
type Report struct {
	Files   int
	Created int
	Skipped int
	Failed  int
}

func (r *Report) add(o Report) {
	r.Files += o.Files
	r.Created += o.Created
	r.Skipped += o.Skipped
	r.Failed += o.Failed
}

// Importer creates recipes from YAML files
type Importer struct {
	target Target
	log    *logrus.Logger

	mu       sync.Mutex
	imported map[string]map[string]bool // file -> recipe fingerprints
}

// New creates an Importer
func New(target Target, log *logrus.Logger) *Importer {
	if log == nil {
		log = logrus.New()
	}
	return &Importer{
		target:   target,
		log:      log,
		imported: make(map[string]map[string]bool),
	}
}

// Seed creates the default skill levels
func Seed(ctx context.Context, target Target) ([]catalog.SkillLevel, error) {
	levels := make([]catalog.SkillLevel, 0, len(DefaultSkillLevels))
	for _, name := range DefaultSkillLevels {
		level, err := target.EnsureSkillLevel(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to seed skill level %q: %w", name, err)
		}
		levels = append(levels, *level)
	}
	return levels, nil
}

// ImportDir imports every recipe file directly inside dir, in name order
func (im *Importer) ImportDir(ctx context.Context, dir string) (*Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !IsRecipeFile(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)

	report := &Report{}
	for _, path := range files {
		fileReport, err := im.ImportFile(ctx, path)
		if err != nil {
			im.log.Warnf("Failed to import %s: %v", path, err)
			report.Files++
			report.Failed++
			continue
		}
		report.add(*fileReport)
	}
	return report, nil
}

// ImportFile imports the recipes in one file. Invalid recipes are logged
// and counted; they do not stop the rest of the file.
func (im *Importer) ImportFile(ctx context.Context, path string) (*Report, error) {
	doc, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	report := &Report{Files: 1}
	for i, recipe := range doc.Recipes {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		fingerprint := recipe.Fingerprint()
		if im.seen(path, fingerprint) {
			report.Skipped++
			continue
		}

		detail, err := im.importRecipe(ctx, recipe)
		if err != nil {
			im.log.WithFields(logrus.Fields{
				"file":  path,
				"index": i,
				"title": recipe.Title,
			}).Warnf("Skipping recipe: %v", err)
			report.Failed++
			continue
		}

		im.markSeen(path, fingerprint)
		report.Created++
		im.log.Debugf("Imported recipe %d: %s", detail.ID, detail.Title)
	}

	im.log.Infof("Imported %s: %d created, %d unchanged, %d failed", path, report.Created, report.Skipped, report.Failed)
	return report, nil
}

func (im *Importer) importRecipe(ctx context.Context, recipe Recipe) (*catalog.RecipeDetail, error) {
	var skillLevelID *int64
	if recipe.SkillLevel != "" {
		label, err := catalog.ValidateSkillLevel(recipe.SkillLevel)
		if err != nil {
			return nil, err
		}
		level, err := im.target.EnsureSkillLevel(ctx, label)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve skill level: %w", err)
		}
		skillLevelID = &level.ID
	}

	in := recipe.Input(skillLevelID)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return im.target.CreateRecipe(ctx, in)
}

func (im *Importer) seen(path, fingerprint string) bool {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.imported[path][fingerprint]
}

func (im *Importer) markSeen(path, fingerprint string) {
	im.mu.Lock()
	defer im.mu.Unlock()
	if im.imported[path] == nil {
		im.imported[path] = make(map[string]bool)
	}
	im.imported[path][fingerprint] = true
}

