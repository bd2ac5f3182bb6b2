// inventory-rebuild recomputes total_stock caches from the movement ledger.
// Run it after manual data surgery or when a cache-vs-ledger drift alert
// fires; it is safe to run while movement writers are active.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/tawazk381-create/VM-Inventory-Optimization-App/config"
	"github.com/tawazk381-create/VM-Inventory-Optimization-App/workflow"
)

func main() {
	itemId := flag.Int("item-id", 0, "Optional: rebuild a single item instead of all items")
	continueOnError := flag.Bool("continue-on-error", false, "Skip failing items and continue rebuilding others")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	logger := config.GetLogger()
	ctx := context.Background()

	if *itemId > 0 {
		changed, err := workflow.RebuildTotalStock(ctx, db, *itemId)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rebuild failed for item %d: %v\n", *itemId, err)
			os.Exit(1)
		}
		if changed {
			logger.WithField("item_id", *itemId).Info("total_stock cache corrected")
		} else {
			logger.WithField("item_id", *itemId).Info("total_stock cache already consistent")
		}
		return
	}

	corrected, err := workflow.RebuildAllTotalStock(ctx, db, logger, *continueOnError)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rebuild failed: %v\n", err)
		os.Exit(1)
	}
	logger.WithField("corrected", corrected).Info("inventory rebuild complete")
}
