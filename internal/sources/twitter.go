package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/outlierlabs/digest-curator/internal/models"
	"github.com/sirupsen/logrus"
)

// TwitterSource implements Twitter/X API source
type TwitterSource struct {
	bearerToken string
	client      *resty.Client

	apiURL string
	// Pause between topic searches to stay under the recent-search rate limit
	topicDelay time.Duration
}

type twitterSearchResponse struct {
	Data     []twitterTweet `json:"data"`
	Includes struct {
		Users []twitterUser `json:"users"`
	} `json:"includes"`
	Meta struct {
		ResultCount int    `json:"result_count"`
		NextToken   string `json:"next_token"`
	} `json:"meta"`
}

type twitterUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type twitterTweet struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	AuthorID      string `json:"author_id"`
	CreatedAt     string `json:"created_at"`
	PublicMetrics struct {
		RetweetCount int64 `json:"retweet_count"`
		LikeCount    int64 `json:"like_count"`
		ReplyCount   int64 `json:"reply_count"`
		QuoteCount   int64 `json:"quote_count"`
	} `json:"public_metrics"`
	ReferencedTweets []struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	} `json:"referenced_tweets"`
}

// NewTwitterSource creates a new Twitter source
func NewTwitterSource(bearerToken string) *TwitterSource {
	return &TwitterSource{
		bearerToken: bearerToken,
		client: resty.New().
			SetTimeout(30*time.Second).
			SetHeader("User-Agent", userAgent),
		apiURL:     "https://api.twitter.com/2",
		topicDelay: 3 * time.Second,
	}
}

func (t *TwitterSource) GetName() string {
	return models.SourceTwitter
}

func (t *TwitterSource) IsEnabled() bool {
	return t.bearerToken != ""
}

func (t *TwitterSource) FetchContent(ctx context.Context, topics []string, since time.Duration) ([]models.ContentItem, error) {
	if !t.IsEnabled() {
		logrus.Debug("Twitter source disabled - missing bearer token")
		return nil, nil
	}

	var allItems []models.ContentItem

	for i, topic := range topics {
		if i > 0 && t.topicDelay > 0 {
			select {
			case <-ctx.Done():
				return allItems, ctx.Err()
			case <-time.After(t.topicDelay):
			}
		}

		logrus.Infof("Searching Twitter for topic: %s", topic)
		items, err := t.searchTopic(ctx, topic, since)
		if err != nil {
			logrus.Errorf("Failed to search Twitter for topic '%s': %v", topic, err)
			continue
		}

		logrus.Infof("Found %d tweets for topic '%s'", len(items), topic)
		allItems = append(allItems, items...)
	}

	return deduplicate(allItems), nil
}

func (t *TwitterSource) searchTopic(ctx context.Context, topic string, since time.Duration) ([]models.ContentItem, error) {
	// The recent search endpoint only reaches back seven days
	if since > 7*24*time.Hour {
		since = 7 * 24 * time.Hour
	}
	startTime := time.Now().Add(-since).UTC().Format(time.RFC3339)

	searchURL := fmt.Sprintf("%s/tweets/search/recent?query=%s&start_time=%s&max_results=100&tweet.fields=created_at,author_id,public_metrics,referenced_tweets&expansions=author_id&user.fields=username",
		t.apiURL, url.QueryEscape(t.buildSearchQuery(topic)), startTime)

	resp, err := t.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+t.bearerToken).
		Get(searchURL)

	if err != nil {
		return nil, err
	}

	// Fail fast on rate limiting so other sources are not held up
	if resp.StatusCode() == 429 {
		logrus.Warnf("Twitter API rate limit hit for topic '%s' (reset %s) - skipping", topic, resp.Header().Get("x-rate-limit-reset"))
		return []models.ContentItem{}, nil
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("twitter API returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	var searchResp twitterSearchResponse
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse Twitter response: %w", err)
	}

	usernames := make(map[string]string, len(searchResp.Includes.Users))
	for _, u := range searchResp.Includes.Users {
		usernames[u.ID] = u.Username
	}

	var items []models.ContentItem
	for _, tweet := range searchResp.Data {
		if t.isRetweet(tweet) {
			continue
		}

		createdAt, err := time.Parse(time.RFC3339, tweet.CreatedAt)
		if err != nil {
			logrus.Errorf("Failed to parse Twitter timestamp: %v", err)
			continue
		}

		author := usernames[tweet.AuthorID]
		if author == "" {
			author = tweet.AuthorID
		}

		items = append(items, models.ContentItem{
			Source:      models.SourceTwitter,
			ID:          tweet.ID,
			Community:   topic,
			Title:       headline(tweet.Text),
			Summary:     tweet.Text,
			Author:      author,
			URL:         fmt.Sprintf("https://x.com/i/status/%s", tweet.ID),
			PublishedAt: createdAt,
			Metrics: models.EngagementMetrics{
				Likes:    tweet.PublicMetrics.LikeCount,
				Retweets: tweet.PublicMetrics.RetweetCount,
				Quotes:   tweet.PublicMetrics.QuoteCount,
				Replies:  tweet.PublicMetrics.ReplyCount,
			},
		})
	}

	return items, nil
}

func (t *TwitterSource) buildSearchQuery(topic string) string {
	return fmt.Sprintf(`"%s" -is:retweet -is:reply lang:en`, strings.TrimSpace(topic))
}

func (t *TwitterSource) isRetweet(tweet twitterTweet) bool {
	for _, ref := range tweet.ReferencedTweets {
		if ref.Type == "retweeted" {
			return true
		}
	}
	return false
}

// headline uses a tweet's first line as its title
func headline(text string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	return truncate(line, 120)
}
