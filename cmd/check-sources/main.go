package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/outlierlabs/digest-curator/internal/config"
	"github.com/outlierlabs/digest-curator/internal/sources"
)

func main() {
	fmt.Println("🔍 Digest Curator - Source Connectivity Check")
	fmt.Println("=============================================")

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Printf("\n📡 Checking sources for topics: %s\n", strings.Join(cfg.Topics, ", "))
	fmt.Println(strings.Repeat("-", 45))

	checkSource(ctx, "Reddit", sources.NewRedditSource(cfg.RedditClientID, cfg.RedditClientSecret, cfg.Subreddits), cfg.Topics)
	checkSource(ctx, "Twitter/X", sources.NewTwitterSource(cfg.TwitterBearerToken), cfg.Topics)
	checkSource(ctx, "YouTube", sources.NewYouTubeSource(cfg.YouTubeAPIKey), cfg.Topics)
	checkSource(ctx, "TikTok feed", sources.NewFeedSource("tiktok", cfg.TikTokFeedURL), cfg.Topics)
	checkSource(ctx, "Amazon feed", sources.NewFeedSource("amazon", cfg.AmazonFeedURL), cfg.Topics)
	checkSource(ctx, "Search feed", sources.NewFeedSource("search", cfg.SearchFeedURL), cfg.Topics)

	fmt.Println("\n✅ Source check completed!")
	fmt.Println("\n💡 Next steps:")
	fmt.Println("   • Configure missing credentials and feed URLs in .env")
	fmt.Println("   • Preview a selection offline with: go run ./cmd/preview -pool pool.json")
}

func checkSource(ctx context.Context, name string, source sources.Source, topics []string) {
	fmt.Printf("🔸 Checking %s... ", name)

	if !source.IsEnabled() {
		fmt.Printf("⚠️  DISABLED (missing credentials or feed URL)\n")
		return
	}

	items, err := source.FetchContent(ctx, topics, 24*time.Hour)
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return
	}

	fmt.Printf("✅ SUCCESS (%d items found)\n", len(items))

	// Show a sample item
	if len(items) > 0 {
		fmt.Printf("   📝 Sample: \"%s\"\n", items[0].Title)
	}
}
