package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"kitchen-assistant/internal/kitchen"
	"kitchen-assistant/internal/recipe"
	"kitchen-assistant/internal/shopping"
)

const helpText = `👋 I'm your kitchen assistant.

Ask me anything about cooking, or ask for a recipe and I'll use what's in your pantry.
Send a recipe link and I'll import it.

/pantry - list your ingredients
/add <qty> <unit> <name> - add an ingredient
/week - this week's meal plan
/shop - shopping list for this week
/save - save the last recipe
/tips - tips for the last recipe
/sub <ingredient> - substitutions
/new - start a new conversation
/clear - delete the chat history`

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func formatRecipeMarkdown(r recipe.GeneratedRecipe, confidence recipe.Confidence) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🍳 *%s*\n", escape(r.Title))
	if r.Description != "" {
		fmt.Fprintf(&sb, "_%s_\n", escape(r.Description))
	}

	fmt.Fprintf(&sb, "\n⏱ Prep %d min · Cook %d min · Serves %d", r.PrepTime, r.CookTime, r.Servings)
	if r.Difficulty != "" {
		sb.WriteString(" · " + escape(r.Difficulty))
	}
	if r.Cuisine != "" {
		sb.WriteString(" · " + escape(r.Cuisine))
	}
	sb.WriteString("\n")

	if len(r.Ingredients) > 0 {
		sb.WriteString("\n*Ingredients*\n")
		for _, ing := range r.Ingredients {
			sb.WriteString("• " + escape(ing) + "\n")
		}
	}
	if len(r.Instructions) > 0 {
		sb.WriteString("\n*Instructions*\n")
		for i, step := range r.Instructions {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, escape(step))
		}
	}
	if len(r.Tips) > 0 {
		sb.WriteString("\n*Tips*\n")
		for _, tip := range r.Tips {
			sb.WriteString("• " + escape(tip) + "\n")
		}
	}
	if r.Story != "" {
		sb.WriteString("\n_" + escape(r.Story) + "_\n")
	}
	if confidence == recipe.Heuristic {
		sb.WriteString("\n⚠️ I had trouble reading this recipe, please double-check the details.\n")
	}

	sb.WriteString("\nSend /save to keep it or /tips for advice.")
	return sb.String()
}

var expiryMarks = map[kitchen.ExpiryStatus]string{
	kitchen.ExpiryExpired:  "❌ ",
	kitchen.ExpiryExpiring: "⚠️ ",
	kitchen.ExpiryWarning:  "⏳ ",
}

func formatPantry(list []kitchen.Ingredient, now time.Time) string {
	if len(list) == 0 {
		return "🧺 Your pantry is empty. Add something with /add 2 kg potatoes"
	}

	var sb strings.Builder
	sb.WriteString("🧺 *Your pantry*\n\n")
	for _, ing := range kitchen.FilterIngredients(list, kitchen.IngredientFilter{SortBy: kitchen.SortByExpiry}) {
		sb.WriteString(expiryMarks[kitchen.ExpiryStatusOf(ing.ExpiryDate, now)])
		fmt.Fprintf(&sb, "%s: %s %s", escape(ing.Name), formatQuantity(ing.Quantity), escape(ing.Unit))
		if ing.ExpiryDate != nil {
			fmt.Fprintf(&sb, " (expires %s)", ing.ExpiryDate)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatWeek(week kitchen.Week) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 *Week of %s* (%d%% planned)\n", week.Start, week.Completion)
	for _, day := range week.Days {
		meals := kitchen.MealsOn(week.Meals, day, "")
		if len(meals) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n*%s %s*\n", day.Weekday(), day)
		for _, m := range meals {
			label := m.Notes
			if label == "" {
				label = "planned"
			}
			fmt.Fprintf(&sb, "• %s: %s\n", m.MealType, escape(label))
		}
	}
	if len(week.Meals) == 0 {
		sb.WriteString("\nNothing planned yet.")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatShopping(list shopping.List) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🛒 *Shopping list for the week of %s*\n", list.WeekStart)
	if len(list.Items) == 0 {
		sb.WriteString("\nNothing to buy for your planned recipes.")
	}
	for _, item := range list.Items {
		fmt.Fprintf(&sb, "\n• %s (%s)", escape(item.Name), escape(strings.Join(item.Recipes, ", ")))
	}
	if len(list.InPantry) > 0 {
		fmt.Fprintf(&sb, "\n\nAlready in your pantry: %s", escape(strings.Join(list.InPantry, ", ")))
	}
	return sb.String()
}

func formatList(title string, items []string) string {
	if len(items) == 0 {
		return title + "\n\nNothing to suggest right now."
	}
	var sb strings.Builder
	sb.WriteString(title + "\n\n")
	for _, item := range items {
		sb.WriteString("• " + escape(item) + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
