package recipe

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"kitchen-assistant/internal/llm"
	"kitchen-assistant/internal/shared"
)

const maxListItems = 5

// ErrNoIngredients is returned when a recipe is requested without ingredients.
var ErrNoIngredients = errors.New("at least one ingredient is required")

// Chef talks to the generative endpoint on behalf of the kitchen.
type Chef struct {
	textGen   llm.TextGenerator
	helperGen llm.TextGenerator
}

// NewChef creates a Chef. helperGen serves tips, substitutions and answers
// and may be a cached generator; nil means textGen is used for everything.
func NewChef(textGen, helperGen llm.TextGenerator) *Chef {
	if helperGen == nil {
		helperGen = textGen
	}
	return &Chef{textGen: textGen, helperGen: helperGen}
}

// GenerateRecipe asks the model for a recipe and interprets the reply.
func (c *Chef) GenerateRecipe(ctx context.Context, req Request) (Interpretation, shared.AgentMeta, error) {
	if len(req.Ingredients) == 0 {
		return Interpretation{}, shared.AgentMeta{}, ErrNoIngredients
	}

	start := time.Now()
	prompt, err := BuildRecipePrompt(req)
	if err != nil {
		return Interpretation{}, shared.AgentMeta{}, err
	}

	resp, err := c.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return Interpretation{}, shared.AgentMeta{}, fmt.Errorf("failed to generate recipe: %w", err)
	}

	result := Interpret(resp.Content)
	if result.Confidence == Heuristic {
		log.Printf("Warning: recipe reply had no usable JSON, recovered '%s' heuristically", result.Recipe.Title)
	}
	return result, shared.NewAgentMeta("Chef", resp.Usage, start), nil
}

// CookingTips returns up to five tips for improving a recipe.
func (c *Chef) CookingTips(ctx context.Context, recipeText string) ([]string, shared.AgentMeta, error) {
	return c.list(ctx, "Tips", buildTipsPrompt(recipeText))
}

// Substitutions returns replacements for an ingredient.
func (c *Chef) Substitutions(ctx context.Context, ingredient string) ([]string, shared.AgentMeta, error) {
	return c.list(ctx, "Substitutions", buildSubstitutionsPrompt(ingredient))
}

func (c *Chef) list(ctx context.Context, agent, prompt string) ([]string, shared.AgentMeta, error) {
	start := time.Now()
	resp, err := c.helperGen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, shared.AgentMeta{}, fmt.Errorf("failed to get %s: %w", strings.ToLower(agent), err)
	}
	return ParseList(resp.Content, maxListItems), shared.NewAgentMeta(agent, resp.Usage, start), nil
}

// AnswerQuestion answers a general cooking question in a few sentences.
func (c *Chef) AnswerQuestion(ctx context.Context, question, contextText string) (string, shared.AgentMeta, error) {
	start := time.Now()
	resp, err := c.helperGen.GenerateContent(ctx, buildQuestionPrompt(question, contextText))
	if err != nil {
		return "", shared.AgentMeta{}, fmt.Errorf("failed to answer question: %w", err)
	}
	return strings.TrimSpace(resp.Content), shared.NewAgentMeta("Answer", resp.Usage, start), nil
}

// Ping checks that the generative endpoint is reachable and answering.
func (c *Chef) Ping(ctx context.Context) error {
	resp, err := c.textGen.GenerateContent(ctx, "Say hello in one word.")
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return fmt.Errorf("connection test failed: %w", llm.ErrEmptyResponse)
	}
	return nil
}
