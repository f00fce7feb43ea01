package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/outlierlabs/digest-curator/internal/models"
	"github.com/sirupsen/logrus"
)

// YouTubeSource implements YouTube Data API source
type YouTubeSource struct {
	apiKey string
	client *resty.Client
	apiURL string
}

type youTubeSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

type youTubeVideosResponse struct {
	Items []youTubeVideo `json:"items"`
}

type youTubeVideo struct {
	ID      string `json:"id"`
	Snippet struct {
		Title        string `json:"title"`
		Description  string `json:"description"`
		ChannelTitle string `json:"channelTitle"`
		PublishedAt  string `json:"publishedAt"`
	} `json:"snippet"`
	// The Data API encodes counters as strings
	Statistics struct {
		ViewCount    string `json:"viewCount"`
		LikeCount    string `json:"likeCount"`
		CommentCount string `json:"commentCount"`
	} `json:"statistics"`
}

// NewYouTubeSource creates a new YouTube source
func NewYouTubeSource(apiKey string) *YouTubeSource {
	return &YouTubeSource{
		apiKey: apiKey,
		client: resty.New().
			SetTimeout(30*time.Second).
			SetHeader("User-Agent", userAgent),
		apiURL: "https://www.googleapis.com/youtube/v3",
	}
}

func (y *YouTubeSource) GetName() string {
	return models.SourceYouTube
}

func (y *YouTubeSource) IsEnabled() bool {
	return y.apiKey != ""
}

func (y *YouTubeSource) FetchContent(ctx context.Context, topics []string, since time.Duration) ([]models.ContentItem, error) {
	if !y.IsEnabled() {
		logrus.Debug("YouTube source disabled - missing API key")
		return nil, nil
	}

	var allItems []models.ContentItem

	for _, topic := range topics {
		ids, err := y.searchVideos(ctx, topic, since)
		if err != nil {
			logrus.Errorf("Failed to search YouTube videos for topic '%s': %v", topic, err)
			continue
		}
		if len(ids) == 0 {
			continue
		}

		items, err := y.videoDetails(ctx, topic, ids)
		if err != nil {
			logrus.Errorf("Failed to load YouTube statistics for topic '%s': %v", topic, err)
			continue
		}
		allItems = append(allItems, items...)
	}

	return deduplicate(allItems), nil
}

func (y *YouTubeSource) searchVideos(ctx context.Context, topic string, since time.Duration) ([]string, error) {
	publishedAfter := time.Now().Add(-since).UTC().Format(time.RFC3339)

	searchURL := fmt.Sprintf("%s/search?part=id&q=%s&type=video&order=viewCount&publishedAfter=%s&maxResults=50&key=%s",
		y.apiURL, url.QueryEscape(topic), publishedAfter, y.apiKey)

	resp, err := y.client.R().
		SetContext(ctx).
		Get(searchURL)

	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("youtube API returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	var searchResp youTubeSearchResponse
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse YouTube response: %w", err)
	}

	var ids []string
	for _, item := range searchResp.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}
	return ids, nil
}

// videoDetails groups videos under the search topic so baselines compare like with like
func (y *YouTubeSource) videoDetails(ctx context.Context, topic string, ids []string) ([]models.ContentItem, error) {
	videosURL := fmt.Sprintf("%s/videos?part=snippet,statistics&id=%s&key=%s",
		y.apiURL, url.QueryEscape(strings.Join(ids, ",")), y.apiKey)

	resp, err := y.client.R().
		SetContext(ctx).
		Get(videosURL)

	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("youtube videos API returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	var videosResp youTubeVideosResponse
	if err := json.Unmarshal(resp.Body(), &videosResp); err != nil {
		return nil, fmt.Errorf("failed to parse YouTube videos response: %w", err)
	}

	var items []models.ContentItem
	for _, video := range videosResp.Items {
		publishedAt, err := time.Parse(time.RFC3339, video.Snippet.PublishedAt)
		if err != nil {
			logrus.Errorf("Failed to parse YouTube timestamp: %v", err)
			continue
		}

		items = append(items, models.ContentItem{
			Source:      models.SourceYouTube,
			ID:          video.ID,
			VideoID:     video.ID,
			Community:   topic,
			Title:       video.Snippet.Title,
			Summary:     truncate(video.Snippet.Description, 500),
			Author:      video.Snippet.ChannelTitle,
			URL:         fmt.Sprintf("https://www.youtube.com/watch?v=%s", video.ID),
			PublishedAt: publishedAt,
			Metrics: models.EngagementMetrics{
				Views:    counter(video.Statistics.ViewCount),
				Likes:    counter(video.Statistics.LikeCount),
				Comments: counter(video.Statistics.CommentCount),
			},
		})
	}

	return items, nil
}

func counter(value string) int64 {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
