package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"
)

// ImportSummary counts the outcome of a bulk import.
type ImportSummary struct {
	Imported int
	Failed   int
}

// ReadURLs returns the non-blank, non-comment lines of r.
func ReadURLs(r io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read url list: %w", err)
	}
	return urls, nil
}

// ImportURLs clips each page and saves it to the user's recipes. Pages that
// fail are logged and skipped. Model calls are spaced out to stay under the
// provider's free tier rate limit.
func (a *App) ImportURLs(ctx context.Context, userID string, urls []string) (ImportSummary, error) {
	var summary ImportSummary
	store := a.Store(userID)

	fmt.Fprintf(a.out, "Importing %d recipe pages...\n", len(urls))
	for i, url := range urls {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		clip, err := a.Clipper.ClipURL(ctx, url)
		if err != nil {
			log.Printf("Failed to clip '%s': %v", url, err)
			summary.Failed++
			continue
		}
		a.record(ctx, clip.Meta)

		saved, err := store.SaveGeneratedRecipe(ctx, clip.Recipe)
		if err != nil {
			log.Printf("Failed to save recipe '%s': %v", clip.Recipe.Title, err)
			summary.Failed++
			continue
		}
		summary.Imported++
		log.Printf("Successfully imported '%s' (%s).", saved.Title, saved.ID)

		if !clip.FromMarkup && i < len(urls)-1 && a.importPause > 0 {
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			case <-time.After(a.importPause):
			}
		}
	}

	fmt.Fprintf(a.out, "Import complete: %d imported, %d failed.\n", summary.Imported, summary.Failed)
	return summary, nil
}
