package kitchen

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"kitchen-assistant/internal/llm"
	"kitchen-assistant/internal/recipe"
	"kitchen-assistant/internal/shared"
)

const (
	// DefaultInventoryLimit caps how many inventory items go into a recipe
	// request when the user selected none.
	DefaultInventoryLimit = 8

	recipeReplyText   = "I've created a delicious recipe for you using your ingredients!"
	recipeFailureText = "I'm sorry, I couldn't generate a recipe right now. Please try again with different ingredients or preferences."
)

// ErrEmptyMessage is returned for blank chat input.
var ErrEmptyMessage = errors.New("message is empty")

// UsageRecorder persists token usage of assistant calls.
type UsageRecorder interface {
	RecordMeta(ctx context.Context, meta shared.AgentMeta) error
}

// Reply is the assistant's stored answer to one message.
type Reply struct {
	Message    ChatMessage             `json:"message"`
	Recipe     *recipe.GeneratedRecipe `json:"recipe,omitempty"`
	Confidence recipe.Confidence       `json:"confidence,omitempty"`
}

// Assistant runs the chat flow: it stores the user's message, decides
// between generating a recipe and answering a question, and stores the
// reply in the same conversation.
type Assistant struct {
	store          *Store
	chef           *recipe.Chef
	usage          UsageRecorder
	inventoryLimit int
}

// NewAssistant creates an Assistant. usage may be nil.
func NewAssistant(store *Store, chef *recipe.Chef, usage UsageRecorder, inventoryLimit int) *Assistant {
	if inventoryLimit <= 0 {
		inventoryLimit = DefaultInventoryLimit
	}
	return &Assistant{store: store, chef: chef, usage: usage, inventoryLimit: inventoryLimit}
}

// Send handles one chat message. selected are ingredient names the user
// picked explicitly. Generative failures are stored as an error message in
// the conversation and also returned.
func (a *Assistant) Send(ctx context.Context, text string, selected []string) (Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}, ErrEmptyMessage
	}

	// Replies are tied to the conversation the question was written to.
	_, epoch, err := a.store.addChatMessage(ctx, NewChatMessage{
		Type:     RoleUser,
		Content:  text,
		Metadata: Metadata{"selected_ingredients": nonNil(selected)},
	}, nil)
	if err != nil {
		return Reply{}, err
	}

	if a.isRecipeRequest(text, selected) {
		return a.generateRecipe(ctx, text, selected, epoch)
	}
	return a.answerQuestion(ctx, text, epoch)
}

func (a *Assistant) isRecipeRequest(text string, selected []string) bool {
	lower := strings.ToLower(text)
	asked := strings.Contains(lower, "recipe") ||
		strings.Contains(lower, "cook") ||
		strings.Contains(lower, "make") ||
		len(selected) > 0
	return asked && (len(selected) > 0 || len(a.store.Ingredients()) > 0)
}

func (a *Assistant) generateRecipe(ctx context.Context, text string, selected []string, epoch uint64) (Reply, error) {
	ingredients := selected
	if len(ingredients) == 0 {
		ingredients = IngredientNames(a.store.Ingredients(), a.inventoryLimit)
	}

	result, meta, err := a.chef.GenerateRecipe(ctx, recipe.Request{
		Ingredients: ingredients,
		Preferences: recipe.ExtractPreferences(text),
		Mood:        text,
	})
	if err != nil {
		return a.fail(ctx, epoch, recipeFailureText, err)
	}
	a.record(ctx, meta)

	rec := result.Recipe
	msg, _, err := a.store.addChatMessage(ctx, NewChatMessage{
		Type:    RoleRecipe,
		Content: recipeReplyText,
		Metadata: Metadata{
			"recipe":     rec,
			"confidence": string(result.Confidence),
		},
		TokensUsed:     meta.Usage.Total(),
		ResponseTimeMS: meta.Latency.Milliseconds(),
	}, &epoch)
	if err != nil {
		return Reply{}, err
	}

	a.store.SetCurrentRecipe(&rec)
	return Reply{Message: msg, Recipe: &rec, Confidence: result.Confidence}, nil
}

func (a *Assistant) answerQuestion(ctx context.Context, text string, epoch uint64) (Reply, error) {
	answer, meta, err := a.chef.AnswerQuestion(ctx, text, "")
	if err != nil {
		content := fmt.Sprintf("Sorry, I encountered an error: %s. Please try again or contact support if the problem persists.",
			strings.TrimSuffix(llm.UserMessage(err), "."))
		return a.fail(ctx, epoch, content, err)
	}
	a.record(ctx, meta)

	msg, _, err := a.store.addChatMessage(ctx, NewChatMessage{
		Type:           RoleAI,
		Content:        answer,
		TokensUsed:     meta.Usage.Total(),
		ResponseTimeMS: meta.Latency.Milliseconds(),
	}, &epoch)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Message: msg}, nil
}

func (a *Assistant) fail(ctx context.Context, epoch uint64, content string, cause error) (Reply, error) {
	log.Printf("Assistant error: %v", cause)

	msg, _, err := a.store.addChatMessage(ctx, NewChatMessage{
		Type:     RoleAI,
		Content:  content,
		Metadata: Metadata{"error": true},
	}, &epoch)
	if errors.Is(err, ErrSessionChanged) {
		return Reply{}, err
	}
	if err != nil {
		log.Printf("Failed to save error message: %v", err)
		return Reply{}, cause
	}
	return Reply{Message: msg}, cause
}

func (a *Assistant) record(ctx context.Context, meta shared.AgentMeta) {
	if a.usage == nil {
		return
	}
	if err := a.usage.RecordMeta(ctx, meta); err != nil {
		log.Printf("Warning: failed to record usage for %s: %v", meta.AgentName, err)
	}
}
