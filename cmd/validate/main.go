package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/byroncevallos1986/repo-xtwitter/internal/bigquery"
)

// validate checks that the CI secrets this job depends on are present and
// usable: both bearer tokens, the service-account JSON, and read access to
// the destination table. It exits non-zero when any check fails so the
// workflow run is marked failed.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ok := true

	for _, name := range []string{"BEARER_TOKEN_1", "BEARER_TOKEN_2"} {
		token := strings.TrimSpace(os.Getenv(name))
		if token == "" {
			fmt.Printf("FAIL %s: not set or empty\n", name)
			ok = false
			continue
		}
		fmt.Printf("ok   %s: set (%d characters)\n", name, len(token))
	}

	if !checkServiceAccount() {
		ok = false
		fmt.Println("skip BigQuery check: service account credentials invalid")
	} else if !checkBigQuery() {
		ok = false
	}

	if !ok {
		return fmt.Errorf("one or more secret checks failed")
	}
	fmt.Println("all checks passed")
	return nil
}

func checkServiceAccount() bool {
	raw := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")
	if strings.TrimSpace(raw) == "" {
		fmt.Println("FAIL GOOGLE_APPLICATION_CREDENTIALS_JSON: not set or empty")
		return false
	}

	var sa struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(raw), &sa); err != nil {
		fmt.Printf("FAIL GOOGLE_APPLICATION_CREDENTIALS_JSON: invalid JSON: %v\n", err)
		return false
	}
	if sa.Type != "service_account" {
		fmt.Printf("FAIL GOOGLE_APPLICATION_CREDENTIALS_JSON: type is %q, want service_account\n", sa.Type)
		return false
	}

	fmt.Println("ok   GOOGLE_APPLICATION_CREDENTIALS_JSON: valid service account")
	return true
}

// checkBigQuery runs a COUNT(*) against the destination table, the cheapest
// read that exercises both credentials and table permissions. The workflow
// writes the credentials JSON to a file and sets
// GOOGLE_APPLICATION_CREDENTIALS before this runs.
func checkBigQuery() bool {
	tableID := os.Getenv("BQ_TABLE_ID")
	if tableID == "" {
		tableID = "xpry-472917.xds.xtable"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := bigquery.NewStore(ctx, tableID)
	if err != nil {
		fmt.Printf("FAIL BigQuery: %v\n", err)
		return false
	}
	defer store.Close()

	count, err := store.Count(ctx)
	if err != nil {
		fmt.Printf("FAIL BigQuery: count rows in %s: %v\n", tableID, err)
		return false
	}

	fmt.Printf("ok   BigQuery: %s has %d rows\n", tableID, count)
	return true
}
