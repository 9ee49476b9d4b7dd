package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/joho/godotenv"

	"github.com/weiwei-tsao/campus-assets-report/internal/platform/config"
	"github.com/weiwei-tsao/campus-assets-report/internal/platform/logging"
	"github.com/weiwei-tsao/campus-assets-report/internal/repository"
	"github.com/weiwei-tsao/campus-assets-report/pkg/model"
	"github.com/weiwei-tsao/campus-assets-report/pkg/util"
)

const samples = 5

func main() {
	dryRun := flag.Bool("dry-run", false, "Preview changes without writing to the asset store")
	flag.Parse()

	ctx := context.Background()

	_ = godotenv.Load(".env.local", ".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	backend, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open %s backend: %v", cfg.AssetSource, err)
	}
	defer backend.Close()

	mode := "LIVE"
	if *dryRun {
		mode = "DRY-RUN"
	}

	fmt.Printf("\n=== Asset Text Cleanup [%s] ===\n", mode)
	fmt.Printf("Source: %s\n", backend.Source)
	fmt.Println("==========================================")

	if err := cleanAssets(ctx, os.Stdout, backend.Assets, *dryRun); err != nil {
		log.Fatalf("Failed to clean assets: %v", err)
	}

	fmt.Println("==========================================")
	fmt.Println("Migration completed!")
}

// cleaner finds the assets whose text fields need cleanup and writes them back.
type cleaner interface {
	// scan returns the number of stored assets and the ones needing cleanup.
	scan(ctx context.Context) (int, []model.Asset, error)
	apply(ctx context.Context) error
}

// firestoreCleaner updates only the text fields of the matched documents.
type firestoreCleaner struct {
	repo    *repository.AssetRepository
	updates []repository.AssetTextUpdate
}

func (c *firestoreCleaner) scan(ctx context.Context) (int, []model.Asset, error) {
	total := 0
	var dirty []model.Asset
	err := c.repo.StreamAll(ctx, func(ref *firestore.DocumentRef, a model.Asset) error {
		total++
		if util.NeedsCleanup(a) {
			dirty = append(dirty, a)
			c.updates = append(c.updates, repository.AssetTextUpdate{Ref: ref, Asset: util.CleanAsset(a)})
		}
		return nil
	})
	return total, dirty, err
}

func (c *firestoreCleaner) apply(ctx context.Context) error {
	return c.repo.UpdateText(ctx, c.updates)
}

// upsertCleaner rewrites whole records through the store's upsert.
type upsertCleaner struct {
	store   repository.AssetStore
	cleaned []model.Asset
}

func (c *upsertCleaner) scan(ctx context.Context) (int, []model.Asset, error) {
	assets, err := c.store.FetchAll(ctx)
	if err != nil {
		return 0, nil, err
	}
	var dirty []model.Asset
	for _, a := range assets {
		if util.NeedsCleanup(a) {
			dirty = append(dirty, a)
			c.cleaned = append(c.cleaned, util.CleanAsset(a))
		}
	}
	return len(assets), dirty, nil
}

func (c *upsertCleaner) apply(ctx context.Context) error {
	return c.store.BatchUpsert(ctx, c.cleaned)
}

// cleanAssets reports what needs cleanup and, unless dryRun, writes the cleaned records back.
func cleanAssets(ctx context.Context, out io.Writer, store repository.AssetStore, dryRun bool) error {
	var c cleaner = &upsertCleaner{store: store}
	if fs, ok := store.(*repository.AssetRepository); ok {
		c = &firestoreCleaner{repo: fs}
	}

	fmt.Fprintln(out, "\nScanning assets...")
	total, dirty, err := c.scan(ctx)
	if err != nil {
		return fmt.Errorf("scan assets: %w", err)
	}

	if dryRun {
		for i, a := range dirty {
			if i == samples {
				break
			}
			cleaned := util.CleanAsset(a)
			fmt.Fprintf(out, "\n--- Sample %d: %s ---\n", i+1, a.ID)
			fmt.Fprintf(out, "BEFORE:\n")
			fmt.Fprintf(out, "  Description: %q\n", a.Description)
			fmt.Fprintf(out, "  Department:  %q\n", a.Department)
			fmt.Fprintf(out, "  Location:    %q\n", a.Location)
			fmt.Fprintf(out, "AFTER:\n")
			fmt.Fprintf(out, "  Description: %q\n", cleaned.Description)
			fmt.Fprintf(out, "  Department:  %q\n", cleaned.Department)
			fmt.Fprintf(out, "  Location:    %q\n", cleaned.Location)
		}
	}

	fmt.Fprintf(out, "\n=== Analysis Summary ===\n")
	fmt.Fprintf(out, "Total assets:       %d\n", total)
	fmt.Fprintf(out, "Need cleanup:       %d\n", len(dirty))
	fmt.Fprintf(out, "Already clean:      %d\n", total-len(dirty))

	if len(dirty) == 0 {
		fmt.Fprintln(out, "\nNo assets need cleanup!")
		return nil
	}
	if dryRun {
		fmt.Fprintf(out, "\n[DRY-RUN] Would update %d assets. Run without --dry-run to apply changes.\n", len(dirty))
		return nil
	}

	fmt.Fprintf(out, "\nApplying cleanup to %d assets...\n", len(dirty))
	if err := c.apply(ctx); err != nil {
		return fmt.Errorf("apply cleanup: %w", err)
	}
	fmt.Fprintf(out, "\nSuccessfully cleaned %d assets\n", len(dirty))
	return nil
}
