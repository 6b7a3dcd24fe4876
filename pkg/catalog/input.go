package catalog

import (
	"fmt"
	"strings"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/validation"
)

// Column limits
const (
	MaxTitleLen      = 500
	MaxCategoryLen   = 255
	MaxIngredientLen = 200
	MaxQuantityLen   = 200
	MaxSkillLevelLen = 50
)

// IngredientInput is one ingredient line of a new recipe
type IngredientInput struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

// InstructionInput is one step of a new recipe. StepNumber defaults to the
// 1-based position in the list.
type InstructionInput struct {
	StepNumber *int   `json:"step_number,omitempty"`
	Content    string `json:"content"`
}

// CreateRecipeInput is the body of a recipe create request
type CreateRecipeInput struct {
	Title               string             `json:"title"`
	Description         *string            `json:"description"`
	PreparationDuration *int               `json:"preparation_duration"`
	Servings            *int               `json:"servings"`
	SkillLevelID        *int64             `json:"skill_level_id"`
	Category            *string            `json:"category"`
	Ingredients         []IngredientInput  `json:"ingredients"`
	Instructions        []InstructionInput `json:"instructions"`
}

// Normalize trims text fields, drops an empty category and fills in
// missing step numbers
func (in *CreateRecipeInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		in.Description = &d
	}
	if in.Category != nil {
		c := validation.CollapseSpace(*in.Category)
		if c == "" {
			in.Category = nil
		} else {
			in.Category = &c
		}
	}
	for i := range in.Ingredients {
		in.Ingredients[i].Name = validation.CollapseSpace(in.Ingredients[i].Name)
		in.Ingredients[i].Quantity = strings.TrimSpace(in.Ingredients[i].Quantity)
	}
	for i := range in.Instructions {
		in.Instructions[i].Content = strings.TrimSpace(in.Instructions[i].Content)
		if in.Instructions[i].StepNumber == nil {
			step := i + 1
			in.Instructions[i].StepNumber = &step
		}
	}
}

// Validate checks the input after Normalize. Skill level existence is
// checked by the store.
func (in *CreateRecipeInput) Validate() error {
	errs := &validation.FieldErrors{}

	errs.RequireString("title", in.Title, MaxTitleLen)

	if in.Description == nil {
		errs.Add("description", validation.MsgRequired)
	} else {
		errs.NonBlankString("description", *in.Description, 0)
	}

	if in.PreparationDuration == nil {
		errs.Add("preparation_duration", validation.MsgRequired)
	} else {
		errs.MinInt("preparation_duration", *in.PreparationDuration, 0)
	}

	if in.Servings != nil {
		errs.MinInt("servings", *in.Servings, 1)
	}
	if in.SkillLevelID != nil && *in.SkillLevelID < 1 {
		errs.Add("skill_level_id", InvalidPKMessage(*in.SkillLevelID))
	}
	if in.Category != nil {
		errs.OptionalString("category", *in.Category, MaxCategoryLen)
	}

	for i, ing := range in.Ingredients {
		prefix := fmt.Sprintf("ingredients[%d].", i)
		errs.NonBlankString(prefix+"name", ing.Name, MaxIngredientLen)
		errs.NonBlankString(prefix+"quantity", ing.Quantity, MaxQuantityLen)
	}

	for i, step := range in.Instructions {
		prefix := fmt.Sprintf("instructions[%d].", i)
		errs.NonBlankString(prefix+"content", step.Content, 0)
		if step.StepNumber != nil {
			errs.MinInt(prefix+"step_number", *step.StepNumber, 1)
		}
	}

	return errs.Err()
}

// ValidateSkillLevel checks a skill level label and returns it trimmed
func ValidateSkillLevel(level string) (string, error) {
	level = validation.CollapseSpace(level)
	errs := &validation.FieldErrors{}
	errs.NonBlankString("level", level, MaxSkillLevelLen)
	if err := errs.Err(); err != nil {
		return "", err
	}
	return level, nil
}

// InvalidPKMessage is the field message for a reference to a missing row
func InvalidPKMessage(id int64) string {
	return fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id)
}
