package clipper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"kitchen-assistant/internal/llm"
	"kitchen-assistant/internal/recipe"
	"kitchen-assistant/internal/shared"
)

// maxPageText bounds the page text sent to the model.
const maxPageText = 20000

// ErrNoRecipe is returned when a page holds neither recipe markup nor text.
var ErrNoRecipe = errors.New("no recipe found on page")

// Clipper imports recipes from web pages.
type Clipper struct {
	httpClient *http.Client
	textGen    llm.TextGenerator
}

// Clip is an imported recipe. Meta is empty when no model call was needed.
type Clip struct {
	recipe.Interpretation
	SourceURL  string           `json:"source_url"`
	FromMarkup bool             `json:"from_markup"`
	Meta       shared.AgentMeta `json:"-"`
}

// NewClipper creates a Clipper. textGen reads pages without recipe markup.
func NewClipper(textGen llm.TextGenerator) *Clipper {
	return &Clipper{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		textGen:    textGen,
	}
}

// ClipURL fetches a page and turns it into a recipe. schema.org Recipe
// markup is used when present; otherwise the cleaned page text is sent to
// the model and its reply interpreted.
func (c *Clipper) ClipURL(ctx context.Context, url string) (Clip, error) {
	doc, err := c.fetch(ctx, url)
	if err != nil {
		return Clip{}, fmt.Errorf("failed to fetch content: %w", err)
	}

	if fields, ok := findRecipeMarkup(doc); ok {
		data, err := json.Marshal(fields)
		if err == nil {
			return Clip{Interpretation: recipe.Interpret(string(data)), SourceURL: url, FromMarkup: true}, nil
		}
	}

	text := cleanText(doc)
	if text == "" {
		return Clip{}, ErrNoRecipe
	}

	start := time.Now()
	resp, err := c.textGen.GenerateContent(ctx, buildExtractionPrompt(text))
	if err != nil {
		return Clip{}, fmt.Errorf("ai extraction failed: %w", err)
	}

	result := recipe.Interpret(resp.Content)
	if result.Confidence == recipe.Heuristic {
		log.Printf("Warning: extraction reply for %s had no usable JSON", url)
	}
	return Clip{
		Interpretation: result,
		SourceURL:      url,
		Meta:           shared.NewAgentMeta("Clipper", resp.Usage, start),
	}, nil
}

func (c *Clipper) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "kitchen-assistant/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	return goquery.NewDocumentFromReader(resp.Body)
}

// cleanText removes noise to save tokens and returns the body text with
// whitespace collapsed.
func cleanText(doc *goquery.Document) string {
	doc.Find("script, style, nav, footer, iframe, noscript, ads, .ads, #ads").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if len(text) > maxPageText {
		text = text[:maxPageText]
	}
	return text
}

func buildExtractionPrompt(content string) string {
	return fmt.Sprintf(`You are a recipe extraction expert. Extract the recipe from the following web page text.
Return the result strictly as a JSON object with this structure:
{
  "title": "Recipe Title",
  "description": "One sentence description",
  "ingredients": ["item 1", "item 2"],
  "instructions": ["Step 1 description", "Step 2 description"],
  "prepTime": 15,
  "cookTime": 30,
  "servings": 4,
  "difficulty": "easy|medium|hard",
  "cuisine": "Cuisine type",
  "tags": ["tag1", "tag2"]
}

Page text:
%s`, content)
}

// findRecipeMarkup looks for a schema.org Recipe in the page's JSON-LD
// blocks and maps it onto the generated recipe field names.
func findRecipeMarkup(doc *goquery.Document) (map[string]any, bool) {
	var found map[string]any
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(i int, s *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true
		}
		if node, ok := findRecipeNode(data); ok {
			found = node
			return false
		}
		return true
	})
	if found == nil {
		return nil, false
	}

	fields := map[string]any{
		"title":        found["name"],
		"description":  found["description"],
		"ingredients":  found["recipeIngredient"],
		"instructions": instructionList(found["recipeInstructions"]),
		"cuisine":      firstString(found["recipeCuisine"]),
		"tags":         keywordList(found["keywords"]),
	}
	if m, ok := durationMinutes(found["prepTime"]); ok {
		fields["prepTime"] = m
	}
	if m, ok := durationMinutes(found["cookTime"]); ok {
		fields["cookTime"] = m
	}
	if n, ok := yieldServings(found["recipeYield"]); ok {
		fields["servings"] = n
	}
	return fields, true
}

// findRecipeNode walks arrays and @graph containers for a node typed Recipe.
func findRecipeNode(v any) (map[string]any, bool) {
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			if node, ok := findRecipeNode(item); ok {
				return node, true
			}
		}
	case map[string]any:
		if isRecipeType(val["@type"]) {
			return val, true
		}
		if graph, ok := val["@graph"]; ok {
			return findRecipeNode(graph)
		}
	}
	return nil, false
}

func isRecipeType(v any) bool {
	switch val := v.(type) {
	case string:
		return val == "Recipe"
	case []any:
		for _, t := range val {
			if s, ok := t.(string); ok && s == "Recipe" {
				return true
			}
		}
	}
	return false
}

// instructionList flattens plain strings, HowToStep and HowToSection nodes.
func instructionList(v any) []any {
	out := []any{}
	switch val := v.(type) {
	case string:
		for _, line := range strings.Split(val, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
	case []any:
		for _, item := range val {
			out = append(out, instructionList(item)...)
		}
	case map[string]any:
		if elems, ok := val["itemListElement"]; ok {
			return instructionList(elems)
		}
		if text, ok := val["text"].(string); ok && strings.TrimSpace(text) != "" {
			out = append(out, strings.TrimSpace(text))
		}
	}
	return out
}

func keywordList(v any) any {
	if s, ok := v.(string); ok {
		tags := []any{}
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				tags = append(tags, part)
			}
		}
		return tags
	}
	return v
}

func firstString(v any) any {
	if list, ok := v.([]any); ok && len(list) > 0 {
		return list[0]
	}
	return v
}

var durationRe = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// durationMinutes reads ISO 8601 durations such as PT1H30M.
func durationMinutes(v any) (int, bool) {
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	m := durationRe.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(s)))
	if m == nil {
		return 0, false
	}
	atoi := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}
	minutes := atoi(m[1])*24*60 + atoi(m[2])*60 + atoi(m[3])
	if atoi(m[4]) >= 30 {
		minutes++
	}
	return minutes, minutes > 0
}

var leadingNumberRe = regexp.MustCompile(`\d+`)

// yieldServings reads recipeYield values like 4, "4", "4 servings" or a list.
func yieldServings(v any) (int, bool) {
	switch val := v.(type) {
	case float64:
		return int(val), val >= 1
	case string:
		n, err := strconv.Atoi(leadingNumberRe.FindString(val))
		return n, err == nil && n >= 1
	case []any:
		for _, item := range val {
			if n, ok := yieldServings(item); ok {
				return n, true
			}
		}
	}
	return 0, false
}
