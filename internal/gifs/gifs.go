// Package gifs finds demonstration GIFs for exercises through the Tenor
// search API. Lookups never fail: any problem yields an empty URL.
package gifs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/claude/cirqulofit/internal/config"
	"github.com/claude/cirqulofit/internal/models"
)

const (
	defaultCacheSize = 128
	preloadWorkers   = 4
)

// searchTerms lists English queries for the catalog's exercise names, most
// specific first.
var searchTerms = map[string][]string{
	"Agachamento":               {"squat exercise", "squat workout", "leg squat", "barbell squat"},
	"Supino Reto":               {"bench press", "chest press", "barbell bench press", "gym bench press"},
	"Remada Baixa":              {"seated row", "cable row", "rowing exercise", "back row"},
	"Desenvolvimento de Ombros": {"shoulder press", "overhead press", "dumbbell press", "shoulder workout"},
	"Puxada na Polia Alta":      {"lat pulldown", "pull down", "back pulldown", "lat exercise"},
	"Mesa Flexora":              {"leg curl", "hamstring curl", "leg exercise", "hamstring workout"},
	"Prancha":                   {"plank exercise", "plank workout", "core plank", "abdominal plank"},
	"Crunch":                    {"abdominal crunch", "abs crunch", "sit up", "ab workout"},
	"Cardio Leve":               {"cardio workout", "running", "treadmill", "cardio exercise"},
}

// SearchTerms returns the queries tried for an exercise name. Unknown names
// are searched as their lower-cased selves.
func SearchTerms(exerciseName string) []string {
	if terms, ok := searchTerms[exerciseName]; ok {
		return append([]string(nil), terms...)
	}
	return []string{strings.ToLower(exerciseName)}
}

type searchResponse struct {
	Results []struct {
		MediaFormats struct {
			GIF struct {
				URL string `json:"url"`
			} `json:"gif"`
		} `json:"media_formats"`
	} `json:"results"`
}

// Finder resolves exercise names to GIF URLs, remembering hits in a bounded
// LRU keyed by exercise name. Misses are not cached.
type Finder struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      *lru.Cache[string, string]
	log        *slog.Logger
}

// NewFinder creates a finder from config.
func NewFinder(cfg config.GifsConfig, logger *slog.Logger) (*Finder, error) {
	size := cfg.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("creating gif cache: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Finder{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache,
		log:        logger,
	}, nil
}

// Lookup returns a GIF URL for the exercise, or "" when none was found or
// the search failed. A failing request ends the lookup without trying the
// remaining terms.
func (f *Finder) Lookup(ctx context.Context, exerciseName string) string {
	if u, ok := f.cache.Get(exerciseName); ok {
		f.log.Debug("gif cache hit", "exercise", exerciseName)
		return u
	}

	for _, term := range SearchTerms(exerciseName) {
		u, err := f.search(ctx, term)
		if err != nil {
			f.log.Warn("gif search failed", "exercise", exerciseName, "term", term, "error", err)
			return ""
		}
		if u != "" {
			f.cache.Add(exerciseName, u)
			f.log.Debug("gif found", "exercise", exerciseName, "term", term)
			return u
		}
	}
	f.log.Info("no gif found", "exercise", exerciseName)
	return ""
}

// Preload looks up every exercise concurrently and returns exercise ID to
// URL for the ones that resolved.
func (f *Finder) Preload(ctx context.Context, exercises []models.Exercise) map[string]string {
	var (
		mu  sync.Mutex
		out = make(map[string]string, len(exercises))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(preloadWorkers)
	for _, ex := range exercises {
		g.Go(func() error {
			if u := f.Lookup(gctx, ex.Name); u != "" {
				mu.Lock()
				out[ex.ID] = u
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// CacheLen reports how many names are cached.
func (f *Finder) CacheLen() int {
	return f.cache.Len()
}

func (f *Finder) search(ctx context.Context, term string) (string, error) {
	params := url.Values{}
	params.Set("key", f.apiKey)
	params.Set("q", term)
	params.Set("limit", "1")
	params.Set("media_filter", "gif")
	params.Set("contentfilter", "medium")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("search returned %d: %s", resp.StatusCode, body)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(sr.Results) == 0 {
		return "", nil
	}
	return sr.Results[0].MediaFormats.GIF.URL, nil
}
