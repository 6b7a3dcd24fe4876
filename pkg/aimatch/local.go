package aimatch

import (
	"fmt"
	"strings"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/catalog"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/validation"
)

// ParseIngredients splits free text into normalised ingredient terms
func ParseIngredients(text string) []string {
	return validation.SplitTerms(text)
}

// LocalMatch is a recipe that covers every requested ingredient
type LocalMatch struct {
	Candidate catalog.MatchCandidate
	// Exact counts terms equal to an ingredient name
	Exact int
}

// termMatch reports whether term names ingredient, and whether it does so exactly
func termMatch(term, ingredient string) (matched, exact bool) {
	if ingredient == "" {
		return false, false
	}
	if term == ingredient {
		return true, true
	}
	return strings.Contains(ingredient, term) || strings.Contains(term, ingredient), false
}

// covers returns the number of exact hits when every term matches one of
// the ingredients
func covers(terms, ingredients []string) (exact int, ok bool) {
	for _, term := range terms {
		found, foundExact := false, false
		for _, ing := range ingredients {
			matched, isExact := termMatch(term, ing)
			if !matched {
				continue
			}
			found = true
			if isExact {
				foundExact = true
				break
			}
		}
		if !found {
			return 0, false
		}
		if foundExact {
			exact++
		}
	}
	return exact, true
}

// MatchLocally finds the recipe whose ingredients cover every term. Ties
// go to the most exact hits, then the newest recipe.
func MatchLocally(terms []string, candidates []catalog.MatchCandidate) (*LocalMatch, bool) {
	if len(terms) == 0 {
		return nil, false
	}

	var best *LocalMatch
	for _, c := range candidates {
		if len(c.Ingredients) == 0 {
			continue
		}
		names := make([]string, len(c.Ingredients))
		for i, ing := range c.Ingredients {
			names[i] = validation.NameKey(ing)
		}

		exact, ok := covers(terms, names)
		if !ok {
			continue
		}
		if best == nil || better(exact, c, best) {
			best = &LocalMatch{Candidate: c, Exact: exact}
		}
	}
	return best, best != nil
}

func better(exact int, c catalog.MatchCandidate, than *LocalMatch) bool {
	if exact != than.Exact {
		return exact > than.Exact
	}
	if !c.CreatedAt.Equal(than.Candidate.CreatedAt) {
		return c.CreatedAt.After(than.Candidate.CreatedAt)
	}
	return c.ID > than.Candidate.ID
}

// Justification explains a local match to the user
func (m *LocalMatch) Justification(terms []string) string {
	return fmt.Sprintf("%s uses all of your ingredients (%s).", m.Candidate.Title, strings.Join(terms, ", "))
}
