package aimatch

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Answer is the model's choice. RecipeID is 0 when no recipe was chosen.
type Answer struct {
	RecipeID      int64
	Justification string
}

// ParseAnswer extracts {"recipe_id", "justification"} from model output
// that may be wrapped in markdown fences or prose
func ParseAnswer(text string) (*Answer, error) {
	obj, err := extractObject(stripFences(text))
	if err != nil {
		return nil, err
	}

	id, err := parseRecipeID(gjson.Get(obj, "recipe_id"))
	if err != nil {
		return nil, err
	}

	answer := &Answer{RecipeID: id}
	if j := gjson.Get(obj, "justification"); j.Type == gjson.String {
		answer.Justification = strings.TrimSpace(j.String())
	}
	return answer, nil
}

func stripFences(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// extractObject returns the outermost {...} span of text
func extractObject(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", errors.New("no JSON object in model response")
	}
	obj := text[start : end+1]
	if !gjson.Valid(obj) {
		return "", errors.New("malformed JSON in model response")
	}
	return obj, nil
}

func parseRecipeID(v gjson.Result) (int64, error) {
	if !v.Exists() {
		return 0, errors.New("recipe_id missing from model response")
	}
	switch v.Type {
	case gjson.Null:
		return 0, nil
	case gjson.Number:
		if v.Num != math.Trunc(v.Num) || v.Num < 0 {
			return 0, fmt.Errorf("invalid recipe_id %s", v.Raw)
		}
		return int64(v.Num), nil
	case gjson.String:
		s := strings.TrimSpace(v.Str)
		if s == "" || strings.EqualFold(s, "null") {
			return 0, nil
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id < 0 {
			return 0, fmt.Errorf("invalid recipe_id %q", v.Str)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("invalid recipe_id %s", v.Raw)
	}
}
