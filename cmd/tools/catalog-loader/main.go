// cmd/tools/catalog-loader/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"yojana-workers/internal/common/config"
	"yojana-workers/internal/common/database"
	"yojana-workers/internal/common/logger"
	"yojana-workers/internal/models"
	"yojana-workers/internal/stores/schemestore"
)

// catalogDocument mirrors the catalog file layout validated by
// schemestore.ValidateCatalog.
type catalogDocument struct {
	Schemes []models.Scheme `json:"schemes"`
}

func main() {
	filePath := flag.String("file", "", "Path to catalog JSON file")
	validateOnly := flag.Bool("validate-only", false, "Validate the catalog without loading it")
	skipIndex := flag.Bool("skip-index", false, "Skip Elasticsearch indexing")
	flag.Parse()

	if *filePath == "" {
		fmt.Println("Error: -file is required.")
		flag.Usage()
		os.Exit(1)
	}

	doc, err := os.ReadFile(*filePath)
	if err != nil {
		fmt.Printf("Error reading catalog file: %v\n", err)
		os.Exit(1)
	}

	if err := schemestore.ValidateCatalog(doc); err != nil {
		fmt.Printf("Catalog validation failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Catalog is valid.")

	if *validateOnly {
		return
	}

	var catalog catalogDocument
	if err := json.Unmarshal(doc, &catalog); err != nil {
		fmt.Printf("Error parsing catalog: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		fmt.Printf("Error connecting to PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pg.Close()

	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		fmt.Printf("Error connecting to Redis: %v\n", err)
		os.Exit(1)
	}
	defer rdb.Close()

	schemes := schemestore.New(pg.DB, rdb.Client,
		time.Duration(cfg.Catalog.SnapshotTTLSeconds)*time.Second, log)

	var searchIndex *schemestore.SearchIndex
	if !*skipIndex {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			fmt.Printf("Error connecting to Elasticsearch: %v\n", err)
			os.Exit(1)
		}
		searchIndex = schemestore.NewSearchIndex(es.Client, cfg.Catalog.IndexName)
	}

	loaded := 0
	for i := range catalog.Schemes {
		scheme := &catalog.Schemes[i]
		if err := schemes.UpsertScheme(ctx, scheme); err != nil {
			fmt.Printf("Error upserting scheme %s: %v\n", scheme.ID, err)
			os.Exit(1)
		}
		if searchIndex != nil {
			if err := searchIndex.IndexScheme(ctx, scheme); err != nil {
				fmt.Printf("Error indexing scheme %s: %v\n", scheme.ID, err)
				os.Exit(1)
			}
		}
		loaded++
	}

	fmt.Printf("Loaded %d schemes.\n", loaded)
}
