package curation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/outlierlabs/digest-curator/internal/config"
	"github.com/outlierlabs/digest-curator/internal/dedup"
	"github.com/outlierlabs/digest-curator/internal/generation"
	"github.com/outlierlabs/digest-curator/internal/history"
	"github.com/outlierlabs/digest-curator/internal/models"
	"github.com/outlierlabs/digest-curator/internal/notifications"
	"github.com/outlierlabs/digest-curator/internal/scoring"
	"github.com/outlierlabs/digest-curator/internal/selection"
	"github.com/outlierlabs/digest-curator/internal/sources"
	"github.com/outlierlabs/digest-curator/internal/storage"
	"github.com/outlierlabs/digest-curator/internal/virality"
	"github.com/sirupsen/logrus"
)

// ErrRunInProgress is returned when a curation run is requested while another is still running
var ErrRunInProgress = errors.New("curation run already in progress")

// Service runs the curation pipeline: fetch, score, deduplicate, annotate, select, deliver
type Service struct {
	config              *config.Config
	storage             storage.StorageInterface
	history             history.Store
	notificationService notifications.NotificationInterface
	generator           generation.Generator
	sources             []sources.Source

	scorer   *scoring.Scorer
	topics   *dedup.TopicMatcher
	selector *selection.Selector
	analyzer *virality.Analyzer

	metrics    *Metrics
	lastDigest *models.Digest
	mu         sync.RWMutex
	now        func() time.Time

	// held for the whole run so two runs never read the same latest issue
	runMu sync.Mutex
}

// Metrics holds curation metrics
type Metrics struct {
	LastRun         time.Time      `json:"last_run"`
	LastRunDuration string         `json:"last_run_duration"`
	LastIssue       int            `json:"last_issue"`
	LastRunStats    RunStats       `json:"last_run_stats"`
	SourceMetrics   map[string]int `json:"source_metrics"`
	ErrorCount      int            `json:"error_count"`
	TotalRuns       int            `json:"total_runs"`
}

// RunStats counts what happened to the pool during one run
type RunStats struct {
	ItemsFetched        int `json:"items_fetched"`
	ItemsScored         int `json:"items_scored"`
	ScoringSkipped      int `json:"scoring_skipped"`
	DuplicatesDropped   int `json:"duplicates_dropped"`
	TopicCoveredDropped int `json:"topic_covered_dropped"`
	CandidatePool       int `json:"candidate_pool"`
	SlotsFilled         int `json:"slots_filled"`
	FetchErrors         int `json:"fetch_errors"`
}

// NewService creates a new curation service. generator may be nil, in which case digests are not drafted.
func NewService(cfg *config.Config, store storage.StorageInterface, hist history.Store, notificationService notifications.NotificationInterface, generator generation.Generator) *Service {
	service := &Service{
		config:              cfg,
		storage:             store,
		history:             hist,
		notificationService: notificationService,
		generator:           generator,
		scorer:              scoring.NewScorer(cfg.Scoring),
		topics:              dedup.NewTopicMatcher(cfg.Dedup),
		selector:            selection.NewSelector(cfg.Selection),
		analyzer:            virality.NewAnalyzer(cfg.Virality),
		metrics: &Metrics{
			SourceMetrics: make(map[string]int),
		},
		now: time.Now,
	}

	// Initialize content sources
	service.initializeSources()

	return service
}

func (s *Service) initializeSources() {
	s.sources = []sources.Source{
		sources.NewRedditSource(s.config.RedditClientID, s.config.RedditClientSecret, s.config.Subreddits),
		sources.NewTwitterSource(s.config.TwitterBearerToken),
		sources.NewYouTubeSource(s.config.YouTubeAPIKey),
		// TikTok, Amazon movers & shakers and web search arrive pre-scraped as JSON feeds
		sources.NewFeedSource(models.SourceTikTok, s.config.TikTokFeedURL),
		sources.NewFeedSource(models.SourceAmazon, s.config.AmazonFeedURL),
		sources.NewFeedSource(models.SourceSearch, s.config.SearchFeedURL),
	}
}

// Sources returns the configured content sources
func (s *Service) Sources() []sources.Source {
	return s.sources
}

// SetSources replaces the content sources
func (s *Service) SetSources(srcs []sources.Source) {
	s.sources = srcs
}

// SetClock replaces the time source used for recency, windows and snapshot names
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// RunCuration performs one full curation run and delivers the digest.
// It returns ErrRunInProgress without running when another run holds the service.
func (s *Service) RunCuration() error {
	if !s.runMu.TryLock() {
		logrus.Warn("Curation run requested while another run is in progress")
		return ErrRunInProgress
	}
	defer s.runMu.Unlock()

	return s.runWithAlert()
}

// TriggerCuration starts a run in the background. The in-progress check happens before it returns,
// so callers can reject the request with ErrRunInProgress.
func (s *Service) TriggerCuration() error {
	if !s.runMu.TryLock() {
		return ErrRunInProgress
	}

	go func() {
		defer s.runMu.Unlock()
		if err := s.runWithAlert(); err != nil {
			logrus.Errorf("Triggered curation run failed: %v", err)
		}
	}()
	return nil
}

func (s *Service) runWithAlert() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if err := s.run(ctx); err != nil {
		s.recordFailure()
		if alertErr := s.notificationService.SendAlert("Digest curation failed", err.Error()); alertErr != nil {
			logrus.Errorf("Failed to send failure alert: %v", alertErr)
		}
		return err
	}
	return nil
}

func (s *Service) run(ctx context.Context) error {
	start := time.Now()
	logrus.Info("Starting curation run")

	pool, fetchErrors := s.fetchAll(ctx)

	digest, stats, err := s.Process(ctx, pool)
	if err != nil {
		return err
	}
	stats.FetchErrors = fetchErrors

	if err := s.StoreSnapshots(pool, digest.GeneratedAt); err != nil {
		logrus.Errorf("Failed to store content snapshots: %v", err)
		return err
	}

	s.updateMetrics(digest, stats, time.Since(start))

	if err := s.notificationService.SendDigest(digest); err != nil {
		logrus.Errorf("Failed to send digest: %v", err)
		return err
	}

	if s.config.RecordHistory {
		if err := s.RecordIssue(ctx, digest); err != nil {
			logrus.Errorf("Failed to record topic history: %v", err)
			return err
		}
	}

	logrus.Infof("Curation run completed in %v", time.Since(start))
	return nil
}

func (s *Service) fetchAll(ctx context.Context) ([]models.ContentItem, int) {
	var allItems []models.ContentItem
	var wg sync.WaitGroup
	itemsChan := make(chan []models.ContentItem, len(s.sources))
	errorsChan := make(chan error, len(s.sources))

	window := s.config.FetchWindow
	logrus.Infof("Fetching %d sources for content in the last %v", len(s.sources), window)

	// Fetch content from all sources concurrently
	for _, source := range s.sources {
		wg.Add(1)
		go func(src sources.Source) {
			defer wg.Done()

			if !src.IsEnabled() {
				logrus.Debugf("Skipping disabled source %s", src.GetName())
				return
			}

			logrus.Infof("Fetching content from %s (window: %v)", src.GetName(), window)
			items, err := src.FetchContent(ctx, s.config.Topics, window)
			if err != nil {
				logrus.Errorf("Error fetching from %s: %v", src.GetName(), err)
				errorsChan <- err
				return
			}

			logrus.Infof("Found %d items from %s", len(items), src.GetName())
			itemsChan <- items
		}(source)
	}

	// Close channels when all goroutines complete
	go func() {
		wg.Wait()
		close(itemsChan)
		close(errorsChan)
	}()

	for items := range itemsChan {
		allItems = append(allItems, items...)
	}

	errorCount := 0
	for range errorsChan {
		errorCount++
	}

	logrus.Infof("Collected %d total items from all sources", len(allItems))
	return allItems, errorCount
}

// Process turns a fetched pool into a digest: score, drop seen and covered content, annotate,
// select and draft. It reads stored snapshots and history but writes nothing.
func (s *Service) Process(ctx context.Context, pool []models.ContentItem) (*models.Digest, RunStats, error) {
	now := s.now()
	stats := RunStats{ItemsFetched: len(pool)}

	seen, err := dedup.LoadSeenHashes(ctx, s.storage, s.sourceNames(pool), s.config.Dedup, now)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to load seen content: %w", err)
	}

	baselines := scoring.ComputeBaselines(pool)
	scored, skipped := s.scorer.ScoreAll(pool, baselines, now)
	stats.ItemsScored = len(scored)
	stats.ScoringSkipped = skipped

	candidates, duplicates := dedup.FilterDuplicates(scored, seen)
	stats.DuplicatesDropped = len(duplicates)

	since := now.AddDate(0, 0, -7*s.config.Dedup.LookbackWeeks)
	covered, err := s.history.Recent(ctx, since)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to load topic history: %w", err)
	}

	candidates, coveredItems := s.topics.FilterCovered(candidates, covered, now)
	stats.TopicCoveredDropped = len(coveredItems)
	for _, item := range coveredItems {
		logrus.Debugf("Dropped %s item %q: %s", item.Source, item.Title, item.FilteredReason)
	}

	candidates = s.analyzer.AnnotateAll(candidates)
	stats.CandidatePool = len(candidates)

	selected := s.selector.Select(candidates)
	stats.SlotsFilled = len(selected.Slots())

	logrus.Infof("Selected %d slots from %d candidates (%d scored, %d seen, %d topic covered)",
		stats.SlotsFilled, len(candidates), len(scored), len(duplicates), len(coveredItems))

	digest := &models.Digest{
		GeneratedAt: now,
		PoolSize:    len(candidates),
		Selection:   selected,
		Summary:     make(map[string]int),
	}
	for _, item := range candidates {
		digest.Summary[item.Source]++
	}

	if stats.SlotsFilled > 0 {
		latest, err := s.history.LatestIssue(ctx)
		if err != nil {
			return nil, stats, fmt.Errorf("failed to read latest issue: %w", err)
		}
		digest.IssueNumber = latest + 1
		digest.Sections = s.draft(ctx, selected)
	}

	return digest, stats, nil
}

// draft degrades to an undrafted digest when generation is unavailable or fails
func (s *Service) draft(ctx context.Context, selected models.ContentSelection) map[string]string {
	if s.generator == nil {
		return nil
	}

	sections, err := s.generator.DraftSections(ctx, selected)
	if err != nil {
		logrus.Warnf("Drafting failed, sending undrafted digest: %v", err)
		return nil
	}

	logrus.Infof("Drafted %d sections", len(sections))
	return sections
}

// RecordIssue appends one history entry per distinct selected item and compacts old history
func (s *Service) RecordIssue(ctx context.Context, digest *models.Digest) error {
	if digest.IssueNumber == 0 {
		logrus.Info("Nothing selected, no topic history recorded")
		return nil
	}

	recorded := make(dedup.HashSet)
	var entries []models.TopicHistoryEntry
	for _, item := range digest.Selection.Slots() {
		hash := dedup.IdentityHash(*item)
		if recorded.Has(hash) {
			continue
		}
		recorded.Add(hash)
		entries = append(entries, s.topics.NewItemEntry(*item, digest.IssueNumber, digest.GeneratedAt))
	}

	if err := s.history.Append(ctx, entries...); err != nil {
		return fmt.Errorf("failed to append history for issue %d: %w", digest.IssueNumber, err)
	}

	cutoff := digest.GeneratedAt.AddDate(0, 0, -7*s.config.HistoryRetentionWeeks)
	removed, err := s.history.Compact(ctx, cutoff)
	if err != nil {
		logrus.Warnf("Failed to compact topic history: %v", err)
	} else if removed > 0 {
		logrus.Infof("Compacted %d topic history entries older than %s", removed, cutoff.Format("2006-01-02"))
	}

	return nil
}

// StoreSnapshots merges the fetched pool into each source's snapshot for the day
func (s *Service) StoreSnapshots(pool []models.ContentItem, day time.Time) error {
	bySource := make(map[string][]models.ContentItem)
	for _, item := range pool {
		bySource[item.Source] = append(bySource[item.Source], item)
	}

	for _, source := range sortedSources(bySource) {
		name := dedup.SnapshotName(source, day)

		var existing []models.ContentItem
		if data, err := s.storage.Retrieve(name); err == nil {
			if err := json.Unmarshal(data, &existing); err != nil {
				logrus.Warnf("Overwriting malformed content snapshot %s: %v", name, err)
				existing = nil
			}
		}

		known := make(dedup.HashSet, len(existing))
		for _, item := range existing {
			known.Add(dedup.IdentityHash(item))
		}

		merged := existing
		for _, item := range bySource[source] {
			hash := dedup.IdentityHash(item)
			if known.Has(hash) {
				continue
			}
			known.Add(hash)
			merged = append(merged, item)
		}

		if len(merged) == len(existing) {
			continue
		}

		data, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("failed to marshal %s snapshot: %w", source, err)
		}
		if err := s.storage.Store(name, data); err != nil {
			return fmt.Errorf("failed to store %s snapshot: %w", source, err)
		}
	}

	return nil
}

func (s *Service) sourceNames(pool []models.ContentItem) []string {
	set := make(map[string]bool)
	for _, src := range s.sources {
		set[src.GetName()] = true
	}
	for _, item := range pool {
		set[item.Source] = true
	}

	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedSources(bySource map[string][]models.ContentItem) []string {
	keys := make([]string, 0, len(bySource))
	for k := range bySource {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *Service) updateMetrics(digest *models.Digest, stats RunStats, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.LastRun = digest.GeneratedAt
	s.metrics.LastRunDuration = duration.String()
	s.metrics.LastRunStats = stats
	s.metrics.ErrorCount = stats.FetchErrors
	s.metrics.TotalRuns++
	if digest.IssueNumber > 0 {
		s.metrics.LastIssue = digest.IssueNumber
	}

	// Reset counters
	s.metrics.SourceMetrics = make(map[string]int)
	for source, count := range digest.Summary {
		s.metrics.SourceMetrics[source] = count
	}

	s.lastDigest = digest
}

func (s *Service) recordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.ErrorCount++
}

// GetMetrics returns current metrics as JSON
func (s *Service) GetMetrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, _ := json.MarshalIndent(s.metrics, "", "  ")
	return string(data)
}

// LastDigest returns the most recent digest, or nil before the first run
func (s *Service) LastDigest() *models.Digest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastDigest
}
