package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/outlierlabs/digest-curator/internal/config"
	"github.com/outlierlabs/digest-curator/internal/curation"
	"github.com/outlierlabs/digest-curator/internal/history"
	"github.com/outlierlabs/digest-curator/internal/models"
	"github.com/sirupsen/logrus"
)

// DirStorage implements file-based storage under a local directory
type DirStorage struct {
	dir string
}

func (d *DirStorage) Store(filename string, data []byte) error {
	path := filepath.Join(d.dir, filepath.FromSlash(filename))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (d *DirStorage) Retrieve(filename string) ([]byte, error) {
	return os.ReadFile(filepath.Join(d.dir, filepath.FromSlash(filename)))
}

func (d *DirStorage) List(prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(d.dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return fs.SkipAll
			}
			return err
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(d.dir, path)
		if err != nil {
			return err
		}
		if name := filepath.ToSlash(rel); strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	sort.Strings(names)
	return names, err
}

func (d *DirStorage) Delete(filename string) error {
	return os.Remove(filepath.Join(d.dir, filepath.FromSlash(filename)))
}

// ConsoleNotifier prints digests to the terminal
type ConsoleNotifier struct {
	asJSON bool
}

func (c *ConsoleNotifier) SendDigest(digest *models.Digest) error {
	if c.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(digest)
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	if digest.IssueNumber > 0 {
		fmt.Printf("📰 OUTLIER DIGEST - ISSUE #%d\n", digest.IssueNumber)
	} else {
		fmt.Println("📰 OUTLIER DIGEST")
	}
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("🕒 Generated: %s\n", digest.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Printf("📈 Candidates: %d\n", digest.PoolSize)
	fmt.Printf("📍 Sources used: %s\n", strings.Join(digest.Selection.SourcesUsed, ", "))

	printSlot("🪝 Hook", digest.Selection.Quote)
	printSlot("🛠️  Tactical", digest.Selection.Tactical)
	printSlot("📖 Narrative", digest.Selection.Narrative)

	fmt.Println("\n" + strings.Repeat("=", 70))
	return nil
}

func (c *ConsoleNotifier) SendAlert(title, message string) error {
	fmt.Printf("🚨 %s: %s\n", title, message)
	return nil
}

func printSlot(label string, item *models.ContentItem) {
	fmt.Printf("\n%s\n", label)
	if item == nil {
		fmt.Println("   (empty)")
		return
	}
	fmt.Printf("   [%s] %s\n", item.Source, item.Title)
	fmt.Printf("   ⭐ Outlier score: %.2f\n", item.OutlierScore)
	if item.URL != "" {
		fmt.Printf("   🔗 URL: %s\n", item.URL)
	}
	if item.Virality != nil {
		fmt.Printf("   💡 %s (%s)\n", item.Virality.ReplicationNotes, item.Virality.Confidence)
	}
	if item.DifferentAngleNeeded {
		fmt.Println("   ⚠️  Needs a different angle")
	}
}

func main() {
	poolPath := flag.String("pool", "", "JSON file holding an array of content items")
	dir := flag.String("dir", "preview_output", "directory for content snapshots")
	historyPath := flag.String("history", ":memory:", "SQLite topic history database")
	at := flag.String("now", "", "reference time (RFC3339); defaults to the current time")
	record := flag.Bool("record", false, "store snapshots and record the issue in topic history")
	asJSON := flag.Bool("json", false, "print the digest as JSON")
	flag.Parse()

	if *poolPath == "" {
		log.Fatal("-pool is required")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	logrus.SetLevel(logrus.WarnLevel)

	tables, err := config.LoadTables(os.Getenv("TABLES_FILE"))
	if err != nil {
		log.Fatalf("Failed to load tables: %v", err)
	}

	data, err := os.ReadFile(*poolPath)
	if err != nil {
		log.Fatalf("Failed to read pool: %v", err)
	}
	var pool []models.ContentItem
	if err := json.Unmarshal(data, &pool); err != nil {
		log.Fatalf("Failed to parse pool: %v", err)
	}

	now := time.Now().UTC()
	if *at != "" {
		if now, err = time.Parse(time.RFC3339, *at); err != nil {
			log.Fatalf("Invalid -now: %v", err)
		}
	}

	// Offline configuration: no sources, no delivery channels
	cfg := &config.Config{
		HistoryRetentionWeeks: 26,
		RecordHistory:         *record,
		Scoring:               tables.Scoring,
		Dedup:                 tables.Dedup,
		Selection:             tables.Selection,
		Virality:              tables.Virality,
	}

	historyStore, err := history.OpenSQLite(*historyPath)
	if err != nil {
		log.Fatalf("Failed to open history: %v", err)
	}
	defer historyStore.Close()

	store := &DirStorage{dir: *dir}
	notifier := &ConsoleNotifier{asJSON: *asJSON}

	service := curation.NewService(cfg, store, historyStore, notifier, nil)
	service.SetSources(nil)
	service.SetClock(func() time.Time { return now })

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	digest, stats, err := service.Process(ctx, pool)
	if err != nil {
		log.Fatalf("Preview failed: %v", err)
	}

	if !*asJSON {
		fmt.Printf("📊 %d items: %d scored, %d skipped, %d seen, %d topic covered\n",
			stats.ItemsFetched, stats.ItemsScored, stats.ScoringSkipped, stats.DuplicatesDropped, stats.TopicCoveredDropped)
	}

	if err := notifier.SendDigest(digest); err != nil {
		log.Fatalf("Failed to print digest: %v", err)
	}

	if *record {
		if err := service.StoreSnapshots(pool, now); err != nil {
			log.Fatalf("Failed to store snapshots: %v", err)
		}
		if err := service.RecordIssue(ctx, digest); err != nil {
			log.Fatalf("Failed to record issue: %v", err)
		}
		fmt.Printf("✅ Recorded issue #%d\n", digest.IssueNumber)
	}
}
