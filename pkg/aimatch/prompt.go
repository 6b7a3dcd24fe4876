package aimatch

import (
	"fmt"
	"strings"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/catalog"
)

// BuildPrompt lists the catalogue and asks the model for a single JSON answer
func BuildPrompt(ingredients string, candidates []catalog.MatchCandidate) string {
	var b strings.Builder

	b.WriteString("You are a helpful cooking assistant. Choose the single recipe from the list below ")
	b.WriteString("that best matches the ingredients the user has available.\n\n")
	b.WriteString("Recipes:\n")
	for _, c := range candidates {
		category := c.Category
		if category == "" {
			category = "Uncategorised"
		}
		fmt.Fprintf(&b, "ID: %d | Title: %s | Category: %s | Ingredients: %s\n",
			c.ID, c.Title, category, strings.Join(c.Ingredients, ", "))
	}

	b.WriteString("\nUser ingredients: ")
	b.WriteString(strings.TrimSpace(ingredients))
	b.WriteString("\n\n")
	b.WriteString("Respond ONLY with JSON in exactly this format and nothing else:\n")
	b.WriteString(`{"recipe_id": <id or null>, "justification": "<one or two sentences>"}`)
	b.WriteString("\nUse null for recipe_id when no recipe is a reasonable match.\n")

	return b.String()
}
