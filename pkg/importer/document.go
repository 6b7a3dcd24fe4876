package importer

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/catalog"
)

// Document is the top level of a recipe file
type Document struct {
	Recipes []Recipe `yaml:"recipes"`
}

// Recipe is one recipe in a file
type Recipe struct {
	Title               string       `yaml:"title"`
	Description         string       `yaml:"description"`
	PreparationDuration int          `yaml:"preparation_duration"`
	Servings            *int         `yaml:"servings,omitempty"`
	SkillLevel          string       `yaml:"skill_level,omitempty"`
	Category            string       `yaml:"category,omitempty"`
	Ingredients         []Ingredient `yaml:"ingredients"`
	Instructions        []string     `yaml:"instructions"`
}

// Ingredient is one ingredient line
type Ingredient struct {
	Name     string `yaml:"name"`
	Quantity string `yaml:"quantity"`
}

// Parse decodes a recipe file. Unknown fields are rejected.
func Parse(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &doc, nil
		}
		return nil, fmt.Errorf("failed to parse recipe file: %w", err)
	}
	return &doc, nil
}

// LoadFile reads and parses the recipe file at path
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// IsRecipeFile reports whether path has a YAML extension
func IsRecipeFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Fingerprint identifies a recipe's content
func (r Recipe) Fingerprint() string {
	data, err := yaml.Marshal(r)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Input converts the recipe to a normalised create input. skillLevelID
// may be nil.
func (r Recipe) Input(skillLevelID *int64) *catalog.CreateRecipeInput {
	description := r.Description
	duration := r.PreparationDuration

	in := &catalog.CreateRecipeInput{
		Title:               r.Title,
		Description:         &description,
		PreparationDuration: &duration,
		Servings:            r.Servings,
		SkillLevelID:        skillLevelID,
	}
	if r.Category != "" {
		category := r.Category
		in.Category = &category
	}
	for _, ing := range r.Ingredients {
		in.Ingredients = append(in.Ingredients, catalog.IngredientInput{Name: ing.Name, Quantity: ing.Quantity})
	}
	for _, step := range r.Instructions {
		in.Instructions = append(in.Instructions, catalog.InstructionInput{Content: step})
	}
	in.Normalize()
	return in
}
