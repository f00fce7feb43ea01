package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/outlierlabs/digest-curator/internal/models"
	"github.com/sirupsen/logrus"
)

// RedditSource pulls the week's top posts from a fixed list of subreddits.
// Subreddits already scope the niche, so topics are not used to filter posts.
type RedditSource struct {
	clientID     string
	clientSecret string
	subreddits   []string
	client       *resty.Client
	accessToken  string

	authURL string
	apiURL  string
}

type redditAuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type redditListingResponse struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Author      string  `json:"author"`
	Subreddit   string  `json:"subreddit"`
	Permalink   string  `json:"permalink"`
	Created     float64 `json:"created_utc"`
	Score       int64   `json:"score"`
	NumComments int64   `json:"num_comments"`
	Stickied    bool    `json:"stickied"`
}

// NewRedditSource creates a new Reddit source
func NewRedditSource(clientID, clientSecret string, subreddits []string) *RedditSource {
	return &RedditSource{
		clientID:     clientID,
		clientSecret: clientSecret,
		subreddits:   subreddits,
		client:       resty.New().SetTimeout(30 * time.Second),
		authURL:      "https://www.reddit.com/api/v1/access_token",
		apiURL:       "https://oauth.reddit.com",
	}
}

func (r *RedditSource) GetName() string {
	return models.SourceReddit
}

func (r *RedditSource) IsEnabled() bool {
	return r.clientID != "" && r.clientSecret != "" && len(r.subreddits) > 0
}

func (r *RedditSource) FetchContent(ctx context.Context, topics []string, since time.Duration) ([]models.ContentItem, error) {
	if !r.IsEnabled() {
		logrus.Debug("Reddit source disabled - missing credentials or subreddits")
		return nil, nil
	}

	if err := r.authenticate(ctx); err != nil {
		return nil, fmt.Errorf("reddit authentication failed: %w", err)
	}

	var allItems []models.ContentItem
	for _, subreddit := range r.subreddits {
		items, err := r.topPosts(ctx, subreddit, since)
		if err != nil {
			logrus.Errorf("Failed to fetch top posts for r/%s: %v", subreddit, err)
			continue
		}
		logrus.Infof("Found %d posts in r/%s", len(items), subreddit)
		allItems = append(allItems, items...)
	}

	return deduplicate(allItems), nil
}

func (r *RedditSource) authenticate(ctx context.Context) error {
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", userAgent).
		SetBasicAuth(r.clientID, r.clientSecret).
		SetFormData(map[string]string{
			"grant_type": "client_credentials",
		}).
		Post(r.authURL)

	if err != nil {
		return err
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("token endpoint returned status %d", resp.StatusCode())
	}

	var authResp redditAuthResponse
	if err := json.Unmarshal(resp.Body(), &authResp); err != nil {
		return err
	}

	r.accessToken = authResp.AccessToken
	return nil
}

func (r *RedditSource) topPosts(ctx context.Context, subreddit string, since time.Duration) ([]models.ContentItem, error) {
	listingURL := fmt.Sprintf("%s/r/%s/top.json?t=%s&limit=100", r.apiURL, subreddit, timeframe(since))

	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+r.accessToken).
		SetHeader("User-Agent", userAgent).
		Get(listingURL)

	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("reddit API returned status %d", resp.StatusCode())
	}

	var listing redditListingResponse
	if err := json.Unmarshal(resp.Body(), &listing); err != nil {
		return nil, err
	}

	var items []models.ContentItem
	cutoff := time.Now().Add(-since)

	for _, child := range listing.Data.Children {
		post := child.Data
		if post.Stickied {
			continue
		}

		createdAt := time.Unix(int64(post.Created), 0).UTC()
		if createdAt.Before(cutoff) {
			continue
		}

		items = append(items, models.ContentItem{
			Source:      models.SourceReddit,
			ID:          post.ID,
			Community:   post.Subreddit,
			Title:       post.Title,
			Summary:     truncate(post.Selftext, 500),
			Author:      post.Author,
			URL:         fmt.Sprintf("https://reddit.com%s", post.Permalink),
			PublishedAt: createdAt,
			Metrics: models.EngagementMetrics{
				Upvotes:  post.Score,
				Comments: post.NumComments,
			},
		})
	}

	return items, nil
}

// timeframe maps a lookback window onto Reddit's top-listing periods
func timeframe(since time.Duration) string {
	switch {
	case since <= 24*time.Hour:
		return "day"
	case since <= 7*24*time.Hour:
		return "week"
	case since <= 31*24*time.Hour:
		return "month"
	default:
		return "year"
	}
}
