package shopping

import (
	"strings"

	"kitchen-assistant/internal/kitchen"
)

// Item is one ingredient line to buy and the planned recipes that need it.
type Item struct {
	Name    string   `json:"name"`
	Recipes []string `json:"recipes"`
}

// List is the shopping list for a week of planned meals.
type List struct {
	WeekStart kitchen.Date `json:"week_start"`
	Items     []Item       `json:"items"`
	// InPantry holds the lines already covered by the inventory.
	InPantry []string `json:"in_pantry"`
}

// ForWeek collects the ingredient lines of every recipe planned in week.
// Lines are deduplicated case-insensitively and keep their first spelling.
// A line is covered by the pantry when it mentions an inventory item by
// name. Entries without a recipe, or whose recipe was deleted, are skipped.
func ForWeek(week kitchen.Week, recipes []kitchen.Recipe, pantry []kitchen.Ingredient) List {
	byID := make(map[string]kitchen.Recipe, len(recipes))
	for _, r := range recipes {
		byID[r.ID] = r
	}

	var stocked []string
	for _, ing := range pantry {
		if name := strings.ToLower(strings.TrimSpace(ing.Name)); name != "" {
			stocked = append(stocked, name)
		}
	}

	list := List{WeekStart: week.Start, Items: []Item{}, InPantry: []string{}}
	index := map[string]int{}
	covered := map[string]bool{}

	for _, meal := range week.Meals {
		r, ok := byID[meal.RecipeID]
		if meal.RecipeID == "" || !ok {
			continue
		}
		for _, line := range r.Ingredients {
			line = strings.TrimSpace(line)
			key := strings.ToLower(line)
			if key == "" {
				continue
			}
			if inPantry(key, stocked) {
				if !covered[key] {
					covered[key] = true
					list.InPantry = append(list.InPantry, line)
				}
				continue
			}
			if i, seen := index[key]; seen {
				list.Items[i].Recipes = appendUnique(list.Items[i].Recipes, r.Title)
				continue
			}
			index[key] = len(list.Items)
			list.Items = append(list.Items, Item{Name: line, Recipes: []string{r.Title}})
		}
	}
	return list
}

func inPantry(line string, stocked []string) bool {
	for _, name := range stocked {
		if strings.Contains(line, name) {
			return true
		}
	}
	return false
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
