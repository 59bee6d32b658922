package recipe

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	maxHeuristicIngredients  = 10
	maxHeuristicInstructions = 8
)

var (
	jsonFenceRe    = regexp.MustCompile("```json\\n?")
	fenceRe        = regexp.MustCompile("```\\n?")
	leadingHashRe  = regexp.MustCompile(`^#+\s*`)
	numberedStepRe = regexp.MustCompile(`^\d+\.`)
)

// Interpret turns a raw model reply into a complete GeneratedRecipe.
// It never fails: replies without a usable JSON object are read line by
// line and flagged Heuristic.
func Interpret(raw string) Interpretation {
	if rec, ok := parseStructured(raw); ok {
		return Interpretation{Recipe: rec, Confidence: Structured}
	}
	return Interpretation{Recipe: parseHeuristic(raw), Confidence: Heuristic}
}

// StripCodeFences removes markdown code fence markers and surrounding space.
func StripCodeFences(s string) string {
	s = jsonFenceRe.ReplaceAllString(s, "")
	s = fenceRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ParseList reads a JSON array of strings, or failing that up to limit
// non-blank lines.
func ParseList(raw string, limit int) []string {
	cleaned := StripCodeFences(raw)

	var items []string
	if err := json.Unmarshal([]byte(cleaned), &items); err == nil {
		if items == nil {
			items = []string{}
		}
		return items
	}

	lines := nonBlankLines(cleaned)
	if len(lines) > limit {
		lines = lines[:limit]
	}
	return lines
}

func defaultRecipe() GeneratedRecipe {
	return GeneratedRecipe{
		Title:        DefaultTitle,
		Description:  DefaultDescription,
		Ingredients:  []string{},
		Instructions: []string{},
		PrepTime:     DefaultPrepTime,
		CookTime:     DefaultCookTime,
		Servings:     DefaultServings,
		Difficulty:   DefaultDifficulty,
		Cuisine:      DefaultCuisine,
		Tags:         DefaultTags(),
		Tips:         []string{},
	}
}

func parseStructured(raw string) (GeneratedRecipe, bool) {
	cleaned := StripCodeFences(raw)
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end < start {
		return GeneratedRecipe{}, false
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &fields); err != nil {
		return GeneratedRecipe{}, false
	}

	rec := defaultRecipe()
	rec.Title = stringField(fields["title"], rec.Title)
	rec.Description = stringField(fields["description"], rec.Description)
	if list, ok := stringList(fields["ingredients"]); ok {
		rec.Ingredients = list
	}
	if list, ok := stringList(fields["instructions"]); ok {
		rec.Instructions = list
	}
	rec.PrepTime = intField(fields["prepTime"], rec.PrepTime, 0)
	rec.CookTime = intField(fields["cookTime"], rec.CookTime, 0)
	rec.Servings = intField(fields["servings"], rec.Servings, 1)
	rec.Difficulty = stringField(fields["difficulty"], rec.Difficulty)
	rec.Cuisine = stringField(fields["cuisine"], rec.Cuisine)
	if list, ok := stringList(fields["tags"]); ok {
		rec.Tags = list
	}
	if list, ok := stringList(fields["tips"]); ok {
		rec.Tips = list
	}
	rec.Story = stringField(fields["story"], "")
	return rec, true
}

func parseHeuristic(raw string) GeneratedRecipe {
	rec := defaultRecipe()
	lines := nonBlankLines(raw)

	if len(lines) > 0 {
		if title := strings.TrimSpace(leadingHashRe.ReplaceAllString(lines[0], "")); title != "" {
			rec.Title = title
		}
	}

	for _, line := range lines {
		if len(rec.Ingredients) < maxHeuristicIngredients &&
			(strings.Contains(line, "cup") || strings.Contains(line, "tbsp") || strings.Contains(line, "tsp")) {
			rec.Ingredients = append(rec.Ingredients, line)
		}
		if len(rec.Instructions) < maxHeuristicInstructions &&
			(numberedStepRe.MatchString(line) || strings.Contains(strings.ToLower(line), "step")) {
			rec.Instructions = append(rec.Instructions, line)
		}
	}
	return rec
}

func nonBlankLines(s string) []string {
	lines := []string{}
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func stringField(v any, fallback string) string {
	switch val := v.(type) {
	case string:
		if strings.TrimSpace(val) != "" {
			return val
		}
	case float64:
		if val != 0 {
			return strconv.FormatFloat(val, 'f', -1, 64)
		}
	}
	return fallback
}

// stringList accepts only JSON arrays. Scalars are stringified, nested
// objects and nulls dropped.
func stringList(v any) ([]string, bool) {
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		switch val := item.(type) {
		case string:
			out = append(out, val)
		case float64:
			out = append(out, strconv.FormatFloat(val, 'f', -1, 64))
		case bool:
			out = append(out, strconv.FormatBool(val))
		}
	}
	return out, true
}

// intField coerces numbers, numeric strings and booleans. Missing, zero,
// negative or non-numeric values, and values below minimum after rounding,
// yield fallback.
func intField(v any, fallback, minimum int) int {
	var n float64
	switch val := v.(type) {
	case float64:
		n = val
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return fallback
		}
		n = parsed
	case bool:
		if val {
			n = 1
		}
	default:
		return fallback
	}

	if math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 || n > math.MaxInt32 {
		return fallback
	}
	rounded := int(math.Round(n))
	if rounded < minimum {
		return fallback
	}
	return rounded
}
