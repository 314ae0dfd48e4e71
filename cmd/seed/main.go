package main

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/paletteml/artstyle-api/internal/catalog"
	"github.com/paletteml/artstyle-api/internal/logger"
)

var (
	manifestPath     string
	databaseURL      string
	ensureSchemaOnly bool
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the artworks catalog from a JSON manifest",
	Long: `Seed creates the artworks table when missing and loads rows from a JSON
manifest. Rows whose id already exists are skipped, so reruns are safe.

Manifest format: a JSON array of objects with style and image_url (required)
plus optional id, title and artist. A missing id is derived from the style
and the image URL, so the same manifest always produces the same ids.`,
	RunE: runSeed,
}

func init() {
	rootCmd.Flags().StringVar(&manifestPath, "manifest", "", "path to the JSON manifest of artworks")
	rootCmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres connection string (defaults to DATABASE_URL)")
	rootCmd.Flags().BoolVar(&ensureSchemaOnly, "ensure-schema-only", false, "create the schema and exit without inserting rows")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runSeed(cmd *cobra.Command, _ []string) error {
	logLevel := os.Getenv("APP_LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}
	logger.Init("artstyle-seed", logLevel)

	url := databaseURL
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		return fmt.Errorf("no database configured: pass --database-url or set DATABASE_URL")
	}

	ctx := cmd.Context()
	store, err := catalog.Open(ctx, url)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	log.Info().Msg("Artworks schema ready")

	if ensureSchemaOnly {
		return nil
	}
	if manifestPath == "" {
		return fmt.Errorf("no manifest: pass --manifest or use --ensure-schema-only")
	}

	artworks, err := readManifest(manifestPath)
	if err != nil {
		return err
	}

	inserted, err := store.InsertArtworks(ctx, artworks)
	if err != nil {
		return err
	}

	perStyle := make(map[string]int)
	for _, a := range artworks {
		perStyle[a.Style]++
	}
	log.Info().Int("rows", len(artworks)).Int64("inserted", inserted).
		Int("styles", len(perStyle)).Msg("Seeding done")
	return nil
}

func readManifest(path string) ([]catalog.Artwork, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var entries []catalog.Artwork
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	for i := range entries {
		e := &entries[i]
		e.Title = strings.TrimSpace(e.Title)
		e.Artist = strings.TrimSpace(e.Artist)
		if e.Style == "" || e.ImageURL == "" {
			return nil, fmt.Errorf("manifest entry %d: style and image_url are required", i)
		}
		if e.ID == "" {
			e.ID = artworkID(e.Style, e.ImageURL)
		}
	}
	return entries, nil
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	return strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "_"), "_")
}

// artworkID derives a stable id from the style and image URL, so reseeding
// the same manifest never creates duplicate rows.
func artworkID(style, imageURL string) string {
	sum := sha1.Sum([]byte(imageURL))
	return slugify(style) + "_" + hex.EncodeToString(sum[:])[:16]
}
