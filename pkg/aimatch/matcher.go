package aimatch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/catalog"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/observability"
)

// Answer sources
const (
	SourceLocal = "local"
	SourceAI    = "ai"
)

// Result is the outcome of a match request
type Result struct {
	Count         int                   `json:"count"`
	Recipe        *catalog.RecipeDetail `json:"recipe"`
	Justification string                `json:"justification"`
	Source        string                `json:"source"`
	Model         string                `json:"model,omitempty"`
}

// Catalogue is the read access a Matcher needs
type Catalogue interface {
	MatchCandidates(ctx context.Context) ([]catalog.MatchCandidate, error)
	GetRecipe(ctx context.Context, id int64) (*catalog.RecipeDetail, error)
}

// Options configures a Matcher
type Options struct {
	// Models are tried in order until one answers
	Models       []string
	CacheEntries int
	CacheTTL     time.Duration
}

// Matcher answers ingredient match requests
type Matcher struct {
	catalogue Catalogue
	generator Generator
	models    []string

	cache      *lru.LRU[string, *Result]
	generation atomic.Uint64
	group      singleflight.Group

	metrics *observability.Metrics
	logger  *observability.Logger
}

// NewMatcher creates a Matcher. A nil generator disables model calls;
// requests that need one fail with ErrNotConfigured.
func NewMatcher(catalogue Catalogue, generator Generator, opts Options, metrics *observability.Metrics, logger *observability.Logger) *Matcher {
	if opts.CacheEntries <= 0 {
		opts.CacheEntries = 256
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Matcher{
		catalogue: catalogue,
		generator: generator,
		models:    opts.Models,
		cache:     lru.NewLRU[string, *Result](opts.CacheEntries, nil, opts.CacheTTL),
		metrics:   metrics,
		logger:    logger,
	}
}

// Purge drops every cached result. Results computed concurrently with the
// purge are not cached.
func (m *Matcher) Purge() {
	m.generation.Add(1)
	m.cache.Purge()
}

func cacheKey(terms []string) string {
	sorted := append([]string(nil), terms...)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x1f")
}

// Match selects the recipe that best fits the free-text ingredient list
func (m *Matcher) Match(ctx context.Context, ingredients string) (*Result, error) {
	terms := ParseIngredients(ingredients)
	if len(terms) == 0 {
		return nil, ErrNoIngredients
	}

	key := cacheKey(terms)
	if cached, ok := m.cache.Get(key); ok {
		m.metrics.AIMatch(cached.Source, "cached")
		return cached, nil
	}

	// Shared work must outlive the first caller's cancellation
	shared := context.WithoutCancel(ctx)
	v, err, _ := m.group.Do(key, func() (interface{}, error) {
		gen := m.generation.Load()
		result, err := m.match(shared, terms)
		if err != nil {
			return nil, err
		}
		if m.generation.Load() == gen {
			m.cache.Add(key, result)
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

func (m *Matcher) match(ctx context.Context, terms []string) (*Result, error) {
	candidates, err := m.catalogue.MatchCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}
	if len(candidates) == 0 {
		return nil, ErrNoRecipes
	}

	if local, ok := MatchLocally(terms, candidates); ok {
		recipe, err := m.catalogue.GetRecipe(ctx, local.Candidate.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load recipe %d: %w", local.Candidate.ID, err)
		}
		m.metrics.AIMatch(SourceLocal, "matched")
		return &Result{
			Count:         1,
			Recipe:        recipe,
			Justification: local.Justification(terms),
			Source:        SourceLocal,
		}, nil
	}

	if m.generator == nil {
		return nil, ErrNotConfigured
	}

	result, err := m.askModel(ctx, terms, candidates)
	if err != nil {
		m.metrics.AIMatch(SourceAI, "error")
		return nil, err
	}
	if result.Count == 0 {
		m.metrics.AIMatch(SourceAI, "no_match")
	} else {
		m.metrics.AIMatch(SourceAI, "matched")
	}
	return result, nil
}

func (m *Matcher) askModel(ctx context.Context, terms []string, candidates []catalog.MatchCandidate) (*Result, error) {
	prompt := BuildPrompt(strings.Join(terms, ", "), candidates)

	reply, model, err := m.generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	answer, err := ParseAnswer(reply)
	if err != nil {
		m.logger.WithTraceContext(ctx).WithFields(map[string]interface{}{
			"model": model,
			"reply": truncate(reply, 200),
		}).Warn("unparsable model reply")
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	result := &Result{Justification: answer.Justification, Source: SourceAI, Model: model}
	if answer.RecipeID == 0 {
		return result, nil
	}

	known := false
	for _, c := range candidates {
		if c.ID == answer.RecipeID {
			known = true
			break
		}
	}
	if !known {
		return nil, ErrUnknownRecipe
	}

	recipe, err := m.catalogue.GetRecipe(ctx, answer.RecipeID)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, ErrUnknownRecipe
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe %d: %w", answer.RecipeID, err)
	}

	result.Count = 1
	result.Recipe = recipe
	return result, nil
}

// generate tries each model once, in order, returning the first answer
func (m *Matcher) generate(ctx context.Context, prompt string) (text, model string, err error) {
	if len(m.models) == 0 {
		return "", "", errors.New("no models configured")
	}

	logger := m.logger.WithTraceContext(ctx)
	for _, model := range m.models {
		start := time.Now()
		text, err = m.generator.Generate(ctx, model, prompt)
		m.metrics.ObserveModelCall(model, start, err)
		if err == nil {
			return text, model, nil
		}
		logger.WithError(err).WithField("model", model).Warn("model call failed")
		if ctx.Err() != nil {
			break
		}
	}
	return "", "", err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
