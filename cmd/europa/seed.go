package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/europa/pkg/cli"
	"mercator-hq/europa/pkg/config"
	"mercator-hq/europa/pkg/dataset"
	"mercator-hq/europa/pkg/search/docstore"
)

const seedBatchSize = 500

var seedFlags struct {
	file  string
	count int
	scope string
	user  string
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load documents into the document store",
	Long: `Load documents into the SQLite document store.

Documents come from a JSON file (an array of document records), or are
generated synthetically for local development and load testing.

Examples:
  # Load documents from a file
  europa seed --file documents.json

  # Generate 10000 synthetic public documents
  europa seed --count 10000 --scope public`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVar(&seedFlags.file, "file", "", "JSON file with an array of documents")
	seedCmd.Flags().IntVar(&seedFlags.count, "count", 0, "number of synthetic documents to generate")
	seedCmd.Flags().StringVar(&seedFlags.scope, "scope", docstore.ScopePublic, "storage scope for synthetic documents")
	seedCmd.Flags().StringVar(&seedFlags.user, "user", "", "owner user for synthetic documents")
}

func runSeed(cmd *cobra.Command, args []string) error {
	if seedFlags.file == "" && seedFlags.count <= 0 {
		return fmt.Errorf("either --file or --count is required")
	}

	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()
	setupCLILogging()

	if cfg.Search.Backend != "" && cfg.Search.Backend != "sqlite" {
		return cli.NewConfigError("search.backend",
			fmt.Sprintf("seeding requires the sqlite backend, configured backend is %q", cfg.Search.Backend))
	}

	store, err := docstore.OpenSQLite(docstore.SQLiteOptions{
		Path:        cfg.Search.SQLite.Path,
		BusyTimeout: cfg.Search.SQLite.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to open document store: %w", err)
	}
	defer store.Close()

	var docs []*docstore.Document
	if seedFlags.file != "" {
		docs, err = loadSeedFile(seedFlags.file)
		if err != nil {
			return err
		}
	} else {
		docs = generateDocuments(seedFlags.count, seedFlags.scope, seedFlags.user)
	}

	progress := cli.NewProgressReporter(os.Stdout)
	progress.Start(int64(len(docs)))

	for start := 0; start < len(docs); start += seedBatchSize {
		end := min(start+seedBatchSize, len(docs))
		if err := store.PutBatch(cmd.Context(), docs[start:end]); err != nil {
			progress.Error(err)
			return cli.NewCommandError("seed", err)
		}
		progress.Update(int64(end))
	}
	progress.Finish()

	fmt.Printf("✓ Loaded %d documents into %s\n", len(docs), cfg.Search.SQLite.Path)
	return nil
}

func loadSeedFile(path string) ([]*docstore.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var docs []*docstore.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %q: %w", path, err)
	}
	return docs, nil
}

// generateDocuments produces synthetic measurement entries of the shape
// the export pipeline typically drains: an element, a temperature, and a
// sampling site per document.
func generateDocuments(count int, scope, user string) []*docstore.Document {
	elements := []string{"Si", "Fe", "Al", "Ca", "Mg", "Na", "K", "Ti"}
	sites := []string{"north-ridge", "south-basin", "east-shelf", "west-flats"}

	docs := make([]*docstore.Document, 0, count)
	for i := 0; i < count; i++ {
		docs = append(docs, &docstore.Document{
			OwnerScope: scope,
			OwnerUser:  user,
			Fields: dataset.Entry{
				"element":     elements[rand.Intn(len(elements))],
				"temperature": 200 + rand.Float64()*1200,
				"pressure":    0.5 + rand.Float64()*9.5,
				"site":        sites[rand.Intn(len(sites))],
				"sequence":    i,
			},
		})
	}
	return docs
}
