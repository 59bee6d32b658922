package recipe

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed recipe_prompt.md
var recipePrompt string

var recipeTemplate = template.Must(
	template.New("recipe").Funcs(template.FuncMap{"join": strings.Join}).Parse(recipePrompt),
)

// BuildRecipePrompt renders the recipe generation prompt for req.
func BuildRecipePrompt(req Request) (string, error) {
	if req.Difficulty == "" {
		req.Difficulty = DefaultDifficulty
	}

	var buf bytes.Buffer
	if err := recipeTemplate.Execute(&buf, req); err != nil {
		return "", fmt.Errorf("failed to render recipe prompt: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func buildTipsPrompt(recipeText string) string {
	return fmt.Sprintf(`Give me 3-5 professional cooking tips for making this recipe better: %s.
Return only the tips as a JSON array of strings.`, recipeText)
}

func buildSubstitutionsPrompt(ingredient string) string {
	return fmt.Sprintf(`What are 3-5 good substitutions for %q in cooking?
Return only the substitutions as a JSON array of strings.`, ingredient)
}

func buildQuestionPrompt(question, context string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "As a professional chef, answer this cooking question: %q\n", question)
	if context != "" {
		fmt.Fprintf(&sb, "Context: %s\n", context)
	}
	sb.WriteString("\nProvide a helpful, practical answer in 2-3 sentences.")
	return sb.String()
}

// ExtractPreferences finds dietary and style keywords in a free-text request.
func ExtractPreferences(text string) []string {
	lower := strings.ToLower(text)
	var prefs []string
	for _, kw := range []struct {
		tag   string
		words []string
	}{
		{"vegetarian", []string{"vegetarian"}},
		{"vegan", []string{"vegan"}},
		{"gluten-free", []string{"gluten-free"}},
		{"healthy", []string{"healthy"}},
		{"quick", []string{"quick", "fast"}},
		{"easy", []string{"easy"}},
	} {
		for _, w := range kw.words {
			if strings.Contains(lower, w) {
				prefs = append(prefs, kw.tag)
				break
			}
		}
	}
	return prefs
}
