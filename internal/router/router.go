// Package router routes translation requests across machine translation
// backends. Selection weighs configured priority against per-character
// cost and observed success rate; a failing backend can fall back to the
// next best. Provider clients are simulated and return a labeled echo of
// their input.
package router

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gamestringer/gamestringer/internal/debug"
	gserrors "github.com/gamestringer/gamestringer/internal/errors"
)

// Request describes one text to translate.
type Request struct {
	Text       string  `json:"text"`
	SourceLang string  `json:"source_language,omitempty"` // empty means auto-detect
	TargetLang string  `json:"target_language"`
	Preferred  Backend `json:"preferred_backend,omitempty"`
}

// Result is a completed translation with its routing metadata.
type Result struct {
	TranslatedText   string    `json:"translated_text"`
	SourceLang       string    `json:"source_language,omitempty"`
	TargetLang       string    `json:"target_language"`
	Backend          Backend   `json:"backend"`
	Confidence       float64   `json:"confidence"`
	ProcessingTimeMS int64     `json:"processing_time_ms"`
	CostEstimate     float64   `json:"cost_estimate"`
	CharacterCount   int       `json:"character_count"`
	Timestamp        time.Time `json:"timestamp"`
}

// Router picks a backend per request, enforces per-backend rate limits,
// and remembers results so repeated strings cost nothing. Each instance
// carries its own limiters, cache, and metrics; servers and tests can run
// several side by side.
type Router struct {
	cfgMu    sync.RWMutex
	cfg      Config
	limiters map[Backend]*rateLimiter

	cacheMu sync.Mutex
	cache   map[string]Result

	metricsMu    sync.Mutex
	stats        map[Backend]*BackendStats
	cacheHitRate float64
}

// NewRouter builds a router from cfg.
func NewRouter(cfg Config) *Router {
	r := &Router{
		cache: make(map[string]Result),
		stats: make(map[Backend]*BackendStats),
	}
	r.UpdateConfig(cfg)
	return r
}

// Translate routes one request. A preferred backend bypasses selection,
// parallel mode fans out to every enabled backend, and otherwise the
// best-ranked backend answers, cascading down the ranking when fallback
// is enabled.
func (r *Router) Translate(ctx context.Context, req Request) (*Result, error) {
	cfg := r.config()

	if strings.TrimSpace(req.TargetLang) == "" {
		return nil, gserrors.NewValidationError("target_language", "must not be blank")
	}
	if !cfg.supportsLanguage(req.TargetLang) {
		return nil, gserrors.NewValidationError("target_language", fmt.Sprintf("%q is not a supported language", req.TargetLang))
	}
	if req.SourceLang != "" && !cfg.supportsLanguage(req.SourceLang) {
		return nil, gserrors.NewValidationError("source_language", fmt.Sprintf("%q is not a supported language", req.SourceLang))
	}
	if req.SourceLang == "" && !cfg.AutoDetectLanguage {
		return nil, gserrors.NewValidationError("source_language", "required when language auto-detection is off")
	}

	key := cacheKey(req.SourceLang, req.TargetLang, req.Text)
	if cfg.CacheEnabled {
		if cached, ok := r.cachedResult(key); ok {
			r.noteCacheLookup(true)
			return &cached, nil
		}
	}
	r.noteCacheLookup(false)

	var result *Result
	switch {
	case req.Preferred != "":
		res, err := r.translateWith(ctx, req.Preferred, req.Text, req.SourceLang, req.TargetLang)
		if err != nil {
			return nil, err
		}
		result = res
	case cfg.ParallelTranslation:
		res, err := r.translateParallel(ctx, req.Text, req.SourceLang, req.TargetLang)
		if err != nil {
			return nil, err
		}
		result = res
	default:
		ranked := r.rankBackends(len(req.Text))
		if len(ranked) == 0 {
			return nil, gserrors.NewBackendError("router", "select", fmt.Errorf("no backend enabled"))
		}
		var errs []error
		for _, backend := range ranked {
			res, err := r.translateWith(ctx, backend, req.Text, req.SourceLang, req.TargetLang)
			if err == nil {
				result = res
				break
			}
			errs = append(errs, err)
			if !cfg.FallbackEnabled {
				break
			}
			debug.LogRouter("%s failed, falling back: %v\n", backend, err)
		}
		if result == nil {
			if len(errs) == 1 {
				return nil, errs[0]
			}
			return nil, gserrors.NewMultiError(errs).ErrOrNil()
		}
	}

	if cfg.CacheEnabled {
		r.cacheResult(key, *result)
	}
	if result.Confidence < cfg.QualityThreshold {
		debug.LogRouter("confidence %.2f from %s is below the %.2f threshold\n", result.Confidence, result.Backend, cfg.QualityThreshold)
	}
	debug.LogRouter("translated %d chars to %s via %s (confidence %.2f)\n", len(req.Text), req.TargetLang, result.Backend, result.Confidence)
	return result, nil
}

// TranslateBatch translates each text independently, skipping failures
// and reporting them together once the batch is done. Results keep the
// input order of the texts that succeeded.
func (r *Router) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]Result, error) {
	results := make([]Result, 0, len(texts))
	var errs []error
	for i, text := range texts {
		res, err := r.Translate(ctx, Request{Text: text, SourceLang: sourceLang, TargetLang: targetLang})
		if err != nil {
			errs = append(errs, fmt.Errorf("text %d: %w", i, err))
			continue
		}
		results = append(results, *res)
	}
	return results, gserrors.NewMultiError(errs).ErrOrNil()
}

// translateWith runs one call against a single backend, enforcing its
// rate limit and request size. Client failures count against the backend;
// rate-limited calls do not, since no request was attempted.
func (r *Router) translateWith(ctx context.Context, backend Backend, text, sourceLang, targetLang string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if backend == BackendCombined {
		return nil, gserrors.NewBackendError(string(backend), "translate", fmt.Errorf("combined labels parallel results and cannot be called directly"))
	}
	bc, ok := r.backendConfig(backend)
	if !ok {
		return nil, gserrors.NewBackendError(string(backend), "translate", fmt.Errorf("backend is not configured"))
	}

	start := time.Now()
	limiter := r.limiterFor(backend)
	if limiter == nil || !limiter.allow(start) {
		return nil, gserrors.NewBackendError(string(backend), "translate", fmt.Errorf("rate limit of %d/min reached", bc.RateLimitPerMinute))
	}
	r.noteRequest(backend)

	if bc.MaxCharsPerRequest > 0 && len(text) > bc.MaxCharsPerRequest {
		r.noteFailure(backend)
		return nil, gserrors.NewBackendError(string(backend), "translate", fmt.Errorf("text of %d chars exceeds the %d char request limit", len(text), bc.MaxCharsPerRequest))
	}

	translated, confidence, err := simulate(backend, bc, text)
	if err != nil {
		r.noteFailure(backend)
		return nil, err
	}

	elapsed := time.Since(start).Milliseconds()
	cost := float64(len(text)) * bc.CostPerChar
	result := &Result{
		TranslatedText:   translated,
		SourceLang:       sourceLang,
		TargetLang:       targetLang,
		Backend:          backend,
		Confidence:       confidence,
		ProcessingTimeMS: elapsed,
		CostEstimate:     cost,
		CharacterCount:   len(text),
		Timestamp:        time.Now().UTC(),
	}
	r.noteSuccess(backend, elapsed, len(text), cost)
	return result, nil
}

// translateParallel fans the text out to every enabled backend at once
// and keeps the strongest answer, relabeled as combined.
func (r *Router) translateParallel(ctx context.Context, text, sourceLang, targetLang string) (*Result, error) {
	cfg := r.config()
	backends := make([]Backend, 0, len(cfg.Backends))
	for backend, bc := range cfg.Backends {
		if bc.Enabled {
			backends = append(backends, backend)
		}
	}
	sort.Slice(backends, func(i, j int) bool { return backends[i] < backends[j] })

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []Result
	)
	for _, backend := range backends {
		wg.Add(1)
		go func(b Backend) {
			defer wg.Done()
			res, err := r.translateWith(ctx, b, text, sourceLang, targetLang)
			if err != nil {
				debug.LogRouter("parallel call to %s failed: %v\n", b, err)
				return
			}
			mu.Lock()
			results = append(results, *res)
			mu.Unlock()
		}(backend)
	}
	wg.Wait()

	if len(results) == 0 {
		return nil, gserrors.NewBackendError("router", "translate_parallel", fmt.Errorf("every enabled backend failed"))
	}
	best := pickBestResult(results)
	best.Backend = BackendCombined
	return &best, nil
}

// pickBestResult orders parallel candidates by confidence plus a small
// reputation bonus, docking answers whose length ballooned or collapsed
// relative to the input.
func pickBestResult(results []Result) Result {
	bonus := map[Backend]float64{
		BackendDeepL:  0.05,
		BackendGoogle: 0.03,
		BackendYandex: 0.02,
		BackendPapago: 0.01,
	}
	best := results[0]
	bestScore := math.Inf(-1)
	for _, res := range results {
		score := res.Confidence + bonus[res.Backend]
		if res.CharacterCount > 0 {
			ratio := float64(len(res.TranslatedText)) / float64(res.CharacterCount)
			if ratio < 0.5 || ratio > 2.0 {
				score -= 0.1
			}
		}
		if score > bestScore {
			best = res
			bestScore = score
		}
	}
	return best
}

type scoredBackend struct {
	backend Backend
	score   float64
}

// rankBackends scores every enabled backend and returns them best first.
// Higher priority wins, expensive backends lose ground on long texts when
// cost optimization is on, and a proven success rate earns a bonus. Ties
// break on name so the ranking is stable.
func (r *Router) rankBackends(textLen int) []Backend {
	cfg := r.config()
	snapshot := r.Metrics()

	scored := make([]scoredBackend, 0, len(cfg.Backends))
	for backend, bc := range cfg.Backends {
		if !bc.Enabled {
			continue
		}
		score := 10.0 - float64(bc.Priority)
		if cfg.CostOptimization {
			score -= float64(textLen) * bc.CostPerChar * 1000.0
		}
		if st, ok := snapshot.Backends[backend]; ok && st.TotalRequests > 0 {
			score += float64(st.SuccessfulRequests) / float64(st.TotalRequests) * 2.0
		}
		scored = append(scored, scoredBackend{backend: backend, score: score})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].backend < scored[j].backend
	})
	ranked := make([]Backend, len(scored))
	for i, sb := range scored {
		ranked[i] = sb.backend
	}
	return ranked
}

func (r *Router) cachedResult(key string) (Result, bool) {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	res, ok := r.cache[key]
	return res, ok
}

func (r *Router) cacheResult(key string, res Result) {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	r.cache[key] = res
}

// ClearCache drops every remembered translation.
func (r *Router) ClearCache() {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	r.cache = make(map[string]Result)
}

// Config returns the active routing configuration.
func (r *Router) Config() Config {
	return r.config()
}

// UpdateConfig swaps the routing configuration and rebuilds every rate
// limiter with a fresh window.
func (r *Router) UpdateConfig(cfg Config) {
	r.cfgMu.Lock()
	defer r.cfgMu.Unlock()
	r.cfg = cfg
	r.limiters = make(map[Backend]*rateLimiter, len(cfg.Backends))
	for backend, bc := range cfg.Backends {
		r.limiters[backend] = newRateLimiter(bc.RateLimitPerMinute)
	}
}

// RateLimitRemaining reports how many requests the backend's window can
// still admit right now.
func (r *Router) RateLimitRemaining(backend Backend) int {
	limiter := r.limiterFor(backend)
	if limiter == nil {
		return 0
	}
	return limiter.remaining(time.Now())
}

func (r *Router) config() Config {
	r.cfgMu.RLock()
	defer r.cfgMu.RUnlock()
	return r.cfg
}

func (r *Router) backendConfig(backend Backend) (BackendConfig, bool) {
	r.cfgMu.RLock()
	defer r.cfgMu.RUnlock()
	bc, ok := r.cfg.Backends[backend]
	return bc, ok
}

func (r *Router) limiterFor(backend Backend) *rateLimiter {
	r.cfgMu.RLock()
	defer r.cfgMu.RUnlock()
	return r.limiters[backend]
}

// cacheKey joins source (auto when empty), target, and the text itself.
func cacheKey(sourceLang, targetLang, text string) string {
	source := sourceLang
	if source == "" {
		source = "auto"
	}
	return source + ":" + targetLang + ":" + text
}
