package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"kitchen-assistant/internal/kitchen"
	"kitchen-assistant/internal/metrics"
	"kitchen-assistant/internal/recipe"
	"kitchen-assistant/internal/shared"
	"kitchen-assistant/internal/storage"
)

// Ping checks that the configured model answers.
func (a *App) Ping(ctx context.Context) error {
	if err := a.Chef.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Connected to %s.\n", a.cfg.LLMProvider)
	return nil
}

// GenerateRecipe prints a recipe for req. Without ingredients the user's
// inventory is used. With save the recipe is added to the user's recipes.
func (a *App) GenerateRecipe(ctx context.Context, userID string, req recipe.Request, save bool) error {
	store := a.Store(userID)
	if len(req.Ingredients) == 0 {
		if err := store.FetchIngredients(ctx); err != nil {
			return err
		}
		req.Ingredients = kitchen.IngredientNames(store.Ingredients(), a.cfg.InventoryPromptLimit)
	}

	fmt.Fprintf(a.out, "Generating a recipe with: %v...\n", req.Ingredients)
	result, meta, err := a.Chef.GenerateRecipe(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to generate recipe: %w", err)
	}
	a.record(ctx, meta)

	printRecipe(a, result.Recipe)
	if result.Confidence == recipe.Heuristic {
		fmt.Fprintln(a.out, "\n(The reply was not valid JSON; details were recovered line by line.)")
	}
	if !save {
		return nil
	}

	saved, err := store.SaveGeneratedRecipe(ctx, result.Recipe)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "\nSaved as %s.\n", saved.ID)
	return nil
}

// Tips prints cooking tips for a recipe description.
func (a *App) Tips(ctx context.Context, recipeText string) error {
	tips, meta, err := a.Chef.CookingTips(ctx, recipeText)
	if err != nil {
		return err
	}
	a.record(ctx, meta)
	printList(a, "=== TIPS ===", tips)
	return nil
}

// Substitutions prints replacements for an ingredient.
func (a *App) Substitutions(ctx context.Context, ingredient string) error {
	subs, meta, err := a.Chef.Substitutions(ctx, ingredient)
	if err != nil {
		return err
	}
	a.record(ctx, meta)
	printList(a, "=== SUBSTITUTIONS FOR "+ingredient+" ===", subs)
	return nil
}

// Ask prints the chef's answer to a cooking question.
func (a *App) Ask(ctx context.Context, question string) error {
	answer, meta, err := a.Chef.AnswerQuestion(ctx, question, "")
	if err != nil {
		return err
	}
	a.record(ctx, meta)
	fmt.Fprintln(a.out, answer)
	return nil
}

// Clip imports a recipe from a web page and optionally saves it.
func (a *App) Clip(ctx context.Context, userID, url string, save bool) error {
	clip, err := a.Clipper.ClipURL(ctx, url)
	if err != nil {
		return err
	}
	a.record(ctx, clip.Meta)

	printRecipe(a, clip.Recipe)
	if !save {
		return nil
	}
	saved, err := a.Store(userID).SaveGeneratedRecipe(ctx, clip.Recipe)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "\nSaved as %s.\n", saved.ID)
	return nil
}

// ExportRecipes writes the user's saved recipes as JSON files into dir,
// one file per recipe version.
func (a *App) ExportRecipes(ctx context.Context, userID, dir string) error {
	files, err := storage.NewRecipeStore(dir)
	if err != nil {
		return err
	}

	store := a.Store(userID)
	if err := store.FetchRecipes(ctx); err != nil {
		return err
	}
	written, err := files.Export(store.Recipes())
	if err != nil {
		return fmt.Errorf("failed to export recipes: %w", err)
	}
	fmt.Fprintf(a.out, "Exported %d of %d recipes to %s.\n", written, len(store.Recipes()), dir)
	return nil
}

// PrintUsage prints health and token usage for the last days.
func (a *App) PrintUsage(ctx context.Context, days int) error {
	usage, err := a.Metrics.GetDailyUsage(ctx, days)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, metrics.Report(metrics.GetSysHealth(a.DataDir()), usage))
	return nil
}

// CleanupMetrics removes metric records older than days.
func (a *App) CleanupMetrics(ctx context.Context, days int) error {
	affected, err := a.Metrics.Cleanup(ctx, days)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Successfully removed %d old metric records.\n", affected)
	return nil
}

// IssueToken prints a signed access token for local development.
func (a *App) IssueToken(userID, email string, ttl time.Duration) error {
	if a.Verifier == nil {
		return fmt.Errorf("AUTH_JWT_SECRET environment variable not set")
	}
	token, err := a.Verifier.Issue(kitchen.User{ID: userID, Email: email}, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, token)
	return nil
}

func (a *App) record(ctx context.Context, meta shared.AgentMeta) {
	if meta.AgentName == "" {
		return
	}
	if err := a.Metrics.RecordMeta(ctx, meta); err != nil {
		log.Printf("Warning: failed to record metrics for %s: %v", meta.AgentName, err)
	}
}

func printRecipe(a *App, r recipe.GeneratedRecipe) {
	fmt.Fprintf(a.out, "\n=== %s ===\n", r.Title)
	if r.Description != "" {
		fmt.Fprintln(a.out, r.Description)
	}
	fmt.Fprintf(a.out, "Prep %d min | Cook %d min | Serves %d | %s | %s\n", r.PrepTime, r.CookTime, r.Servings, r.Difficulty, r.Cuisine)

	fmt.Fprintln(a.out, "\nIngredients:")
	for _, ing := range r.Ingredients {
		fmt.Fprintf(a.out, "- %s\n", ing)
	}
	fmt.Fprintln(a.out, "\nInstructions:")
	for i, step := range r.Instructions {
		fmt.Fprintf(a.out, "%d. %s\n", i+1, step)
	}
	if len(r.Tips) > 0 {
		fmt.Fprintln(a.out, "\nTips:")
		for _, tip := range r.Tips {
			fmt.Fprintf(a.out, "- %s\n", tip)
		}
	}
}

func printList(a *App, title string, items []string) {
	fmt.Fprintln(a.out, title)
	for _, item := range items {
		fmt.Fprintf(a.out, "- %s\n", item)
	}
}
