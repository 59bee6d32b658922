package recipe

import "strings"

const (
	DefaultTitle       = "Generated Recipe"
	DefaultDescription = "A delicious recipe created just for you"
	DefaultPrepTime    = 15
	DefaultCookTime    = 30
	DefaultServings    = 4
	DefaultDifficulty  = "medium"
	DefaultCuisine     = "fusion"
)

// DefaultTags are attached when the model supplies no tag list.
func DefaultTags() []string {
	return []string{"ai-generated", "creative"}
}

// GeneratedRecipe is a recipe produced by the model. It lives only in chat
// metadata until the user saves it.
type GeneratedRecipe struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	PrepTime     int      `json:"prepTime"`
	CookTime     int      `json:"cookTime"`
	Servings     int      `json:"servings"`
	Difficulty   string   `json:"difficulty"`
	Cuisine      string   `json:"cuisine"`
	Tags         []string `json:"tags"`
	Tips         []string `json:"tips,omitempty"`
	Story        string   `json:"story,omitempty"`
}

// Text renders the recipe as plain text, e.g. as context for follow-up prompts.
func (r GeneratedRecipe) Text() string {
	var sb strings.Builder
	sb.WriteString(r.Title)
	if r.Description != "" {
		sb.WriteString(": " + r.Description)
	}
	if len(r.Ingredients) > 0 {
		sb.WriteString(". Ingredients: " + strings.Join(r.Ingredients, ", "))
	}
	if len(r.Instructions) > 0 {
		sb.WriteString(". Steps: " + strings.Join(r.Instructions, " "))
	}
	return sb.String()
}

// Confidence tells how a GeneratedRecipe was recovered from the model reply.
type Confidence string

const (
	// Structured means the reply contained a parseable JSON object.
	Structured Confidence = "structured"
	// Heuristic means the recipe was guessed line by line from free text.
	Heuristic Confidence = "heuristic"
)

// Interpretation is the result of reading a model reply.
type Interpretation struct {
	Recipe     GeneratedRecipe `json:"recipe"`
	Confidence Confidence      `json:"confidence"`
}

// Request describes what the user wants cooked.
type Request struct {
	Ingredients         []string `json:"ingredients"`
	Preferences         []string `json:"preferences,omitempty"`
	DietaryRestrictions []string `json:"dietary_restrictions,omitempty"`
	CookingTime         int      `json:"cooking_time,omitempty"`
	Difficulty          string   `json:"difficulty,omitempty"`
	Cuisine             string   `json:"cuisine,omitempty"`
	Mood                string   `json:"mood,omitempty"`
}
