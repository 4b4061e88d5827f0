// Package main replays an invocation journal against a fresh factory state
// and prints the reconstructed summary. Replay is deterministic: the same
// journal and genesis parameters always produce the same state.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"token-factory/internal/domain"
	"token-factory/internal/ledger"
)

func main() {
	// Parse flags
	journalPath := flag.String("journal", "", "Invocation journal path (required)")
	admin := flag.String("admin", os.Getenv("FACTORY_ADMIN"), "Factory administrator identity")
	treasury := flag.String("treasury", os.Getenv("FACTORY_TREASURY"), "Treasury account identity")
	factoryID := flag.String("factory-id", os.Getenv("FACTORY_ID"), "Namespace for derived token addresses (defaults to admin)")
	baseFee := flag.Uint64("base-fee", 70_000_000, "Genesis fee for create_token and mint_tokens")
	metadataFee := flag.Uint64("metadata-fee", 30_000_000, "Genesis fee for set_metadata")
	outputJSON := flag.Bool("json", false, "Output as JSON")
	listTokens := flag.Bool("tokens", false, "Print the reconstructed registry")

	flag.Parse()

	logger := log.New(os.Stderr, "[replay] ", log.LstdFlags)

	// Validate required flags
	if *journalPath == "" {
		logger.Fatal("--journal is required")
	}
	if *admin == "" {
		logger.Fatal("--admin is required")
	}
	if *treasury == "" {
		logger.Fatal("--treasury is required")
	}

	entries, err := ledger.ReadJournal(*journalPath)
	if err != nil {
		logger.Fatalf("read journal: %v", err)
	}

	// Genesis parameters must match the run that produced the journal;
	// fee checks re-execute against the reconstructed schedule.
	led := ledger.New(ledger.Options{
		Administrator: *admin,
		Treasury:      *treasury,
		Fees: domain.FeeSchedule{
			BaseFee:     *baseFee,
			MetadataFee: *metadataFee,
		},
		FactoryID: *factoryID,
	})

	start := time.Now()
	n, err := led.Replay(entries)
	if err != nil {
		logger.Fatalf("replay failed after %d entries: %v", n, err)
	}

	summary := led.Summarize()
	records := led.Records()

	if *outputJSON {
		out := struct {
			Entries  int                      `json:"entries"`
			Summary  ledger.Summary           `json:"summary"`
			Registry []*domain.CreationRecord `json:"registry,omitempty"`
		}{Entries: n, Summary: summary}
		if *listTokens {
			out.Registry = records
		}
		output, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(output))
		return
	}

	fmt.Printf("\n=== Replay Summary ===\n")
	fmt.Printf("Journal Entries:   %d\n", n)
	fmt.Printf("Replay Duration:   %v\n", time.Since(start))
	fmt.Printf("State Version:     %d\n", summary.Version)
	fmt.Printf("Tokens Created:    %d\n", summary.RegistrySize)
	fmt.Printf("Treasury Balance:  %d\n", summary.TreasuryBalance)
	fmt.Printf("Base Fee:          %d\n", summary.Fees.BaseFee)
	fmt.Printf("Metadata Fee:      %d\n", summary.Fees.MetadataFee)

	if *listTokens {
		fmt.Printf("\n=== Registry ===\n")
		for _, r := range records {
			uri := "-"
			if u, present := r.Metadata.URI(); present {
				uri = u
			}
			fmt.Printf("%s  %s (%s)  decimals=%d  supply=%d  created=%s  metadata=%s\n",
				r.TokenAddress, r.Name, r.Symbol, r.Decimals, r.InitialSupply,
				time.UnixMilli(r.CreatedAt).Format(time.RFC3339), uri)
		}
	}
}
