package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"kitchen-assistant/internal/app"
	"kitchen-assistant/internal/config"
	"kitchen-assistant/internal/recipe"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer application.Close()

	if err := run(ctx, application, os.Args[1], os.Args[2:]); err != nil {
		application.Close()
		log.Fatalf("%s failed: %v", os.Args[1], err)
	}
}

func run(ctx context.Context, a *app.App, command string, args []string) error {
	switch command {
	case "ping":
		return a.Ping(ctx)
	case "generate":
		cmd := flag.NewFlagSet("generate", flag.ExitOnError)
		user := cmd.String("user", "cli", "User whose inventory and recipes are used")
		ingredients := cmd.String("ingredients", "", "Comma separated ingredients; defaults to the inventory")
		cuisine := cmd.String("cuisine", "", "Preferred cuisine")
		difficulty := cmd.String("difficulty", "", "easy, medium or hard")
		minutes := cmd.Int("time", 0, "Maximum cooking time in minutes")
		save := cmd.Bool("save", false, "Save the recipe")
		cmd.Parse(args)

		req := recipe.Request{
			Ingredients: splitList(*ingredients),
			Cuisine:     *cuisine,
			Difficulty:  *difficulty,
			CookingTime: *minutes,
			Preferences: recipe.ExtractPreferences(strings.Join(cmd.Args(), " ")),
		}
		return a.GenerateRecipe(ctx, *user, req, *save)
	case "tips":
		return a.Tips(ctx, requireText(args, "tips <recipe description>"))
	case "sub":
		return a.Substitutions(ctx, requireText(args, "sub <ingredient>"))
	case "ask":
		return a.Ask(ctx, requireText(args, "ask <question>"))
	case "clip":
		cmd := flag.NewFlagSet("clip", flag.ExitOnError)
		user := cmd.String("user", "cli", "User to save the recipe for")
		save := cmd.Bool("save", false, "Save the recipe")
		cmd.Parse(args)
		return a.Clip(ctx, *user, requireText(cmd.Args(), "clip [-save] <url>"), *save)
	case "import":
		cmd := flag.NewFlagSet("import", flag.ExitOnError)
		user := cmd.String("user", "cli", "User to save the recipes for")
		file := cmd.String("file", "", "File with one URL per line; defaults to stdin")
		cmd.Parse(args)

		in := os.Stdin
		if *file != "" {
			f, err := os.Open(*file)
			if err != nil {
				return fmt.Errorf("failed to open url list: %w", err)
			}
			defer f.Close()
			in = f
		}
		urls, err := app.ReadURLs(in)
		if err != nil {
			return err
		}
		_, err = a.ImportURLs(ctx, *user, urls)
		return err
	case "export":
		cmd := flag.NewFlagSet("export", flag.ExitOnError)
		user := cmd.String("user", "cli", "User whose recipes are exported")
		dir := cmd.String("dir", "data/recipes", "Directory for the recipe files")
		cmd.Parse(args)
		return a.ExportRecipes(ctx, *user, *dir)
	case "metrics":
		cmd := flag.NewFlagSet("metrics", flag.ExitOnError)
		days := cmd.Int("days", 7, "Show usage for the last N days")
		cmd.Parse(args)
		return a.PrintUsage(ctx, *days)
	case "metrics-cleanup":
		cmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cmd.Int("days", 30, "Keep records for the last N days")
		cmd.Parse(args)
		return a.CleanupMetrics(ctx, *days)
	case "token":
		cmd := flag.NewFlagSet("token", flag.ExitOnError)
		user := cmd.String("user", "cli", "Subject of the token")
		email := cmd.String("email", "", "Email claim")
		ttl := cmd.Duration("ttl", 24*time.Hour, "Token lifetime")
		cmd.Parse(args)
		return a.IssueToken(*user, *email, *ttl)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	return nil
}

func requireText(args []string, usage string) string {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		fmt.Printf("Usage: kitchen-assistant %s\n", usage)
		os.Exit(1)
	}
	return text
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printUsage() {
	fmt.Println("Usage: kitchen-assistant <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  ping               Check the connection to the model provider")
	fmt.Println("  generate           Generate a recipe from ingredients or the inventory")
	fmt.Println("  tips               Get cooking tips for a recipe")
	fmt.Println("  sub                Find substitutes for an ingredient")
	fmt.Println("  ask                Ask a cooking question")
	fmt.Println("  clip               Import a recipe from a web page")
	fmt.Println("  import             Import recipes from a list of URLs")
	fmt.Println("  export             Write saved recipes to JSON files")
	fmt.Println("  metrics            Show system health and token usage")
	fmt.Println("  metrics-cleanup    Remove old metric records")
	fmt.Println("  token              Issue an API access token for local development")
}
