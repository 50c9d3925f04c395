package router

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gserrors "github.com/gamestringer/gamestringer/internal/errors"
)

// keyedConfig returns the default config with only the given backends
// enabled, each holding a test key.
func keyedConfig(backends ...Backend) Config {
	cfg := DefaultConfig()
	for name, bc := range cfg.Backends {
		bc.Enabled = false
		cfg.Backends[name] = bc
	}
	for _, name := range backends {
		bc := cfg.Backends[name]
		bc.Enabled = true
		bc.APIKey = "test-key"
		cfg.Backends[name] = bc
	}
	return cfg
}

func setBackend(cfg Config, name Backend, mutate func(*BackendConfig)) Config {
	bc := cfg.Backends[name]
	mutate(&bc)
	cfg.Backends[name] = bc
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Len(t, cfg.Backends, 4)
	for name, bc := range cfg.Backends {
		assert.True(t, bc.Enabled, "backend %s should start enabled", name)
		assert.Empty(t, bc.APIKey, "backend %s should start without a key", name)
		assert.NotEmpty(t, bc.APIURL, "backend %s should have its endpoint preset", name)
	}
	assert.Equal(t, 1, cfg.Backends[BackendDeepL].Priority)
	assert.Equal(t, 4, cfg.Backends[BackendGoogle].Priority)
	assert.Equal(t, 500, cfg.Backends[BackendDeepL].RateLimitPerMinute)
	assert.InEpsilon(t, 0.00001, cfg.Backends[BackendPapago].CostPerChar, 1e-12)

	assert.True(t, cfg.FallbackEnabled)
	assert.True(t, cfg.CostOptimization)
	assert.True(t, cfg.CacheEnabled)
	assert.False(t, cfg.ParallelTranslation)
	assert.Len(t, cfg.SupportedLanguages, 12)
}

func TestSupportsLanguageRegionSubtags(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.supportsLanguage("zh-CN"))
	assert.True(t, cfg.supportsLanguage("pt_BR"))
	assert.True(t, cfg.supportsLanguage("EN"))
	assert.False(t, cfg.supportsLanguage("xx"))
	assert.True(t, Config{}.supportsLanguage("anything"))
}

func TestRateLimiterWindow(t *testing.T) {
	l := newRateLimiter(2)
	t0 := time.Now()

	assert.Equal(t, 2, l.remaining(t0))
	assert.True(t, l.allow(t0))
	assert.True(t, l.allow(t0.Add(time.Second)))
	assert.False(t, l.allow(t0.Add(2*time.Second)))
	assert.Equal(t, 0, l.remaining(t0.Add(2*time.Second)))

	// Both stamps fall out of the window after a minute.
	assert.True(t, l.allow(t0.Add(62*time.Second)))
}

func TestRateLimiterZeroLimit(t *testing.T) {
	l := newRateLimiter(0)
	assert.False(t, l.allow(time.Now()))
	assert.Equal(t, 0, l.remaining(time.Now()))
}

func TestTranslateValidation(t *testing.T) {
	r := NewRouter(keyedConfig(BackendDeepL))
	ctx := context.Background()

	_, err := r.Translate(ctx, Request{Text: "Hello", TargetLang: "  "})
	assert.True(t, gserrors.IsValidation(err))

	_, err = r.Translate(ctx, Request{Text: "Hello", TargetLang: "xx"})
	assert.True(t, gserrors.IsValidation(err))
	assert.Contains(t, err.Error(), "supported")

	_, err = r.Translate(ctx, Request{Text: "Hello", SourceLang: "qq", TargetLang: "it"})
	assert.True(t, gserrors.IsValidation(err))

	cfg := keyedConfig(BackendDeepL)
	cfg.AutoDetectLanguage = false
	_, err = NewRouter(cfg).Translate(ctx, Request{Text: "Hello", TargetLang: "it"})
	assert.True(t, gserrors.IsValidation(err))
	assert.Contains(t, err.Error(), "source_language")
}

func TestTranslateRoutesToBestBackend(t *testing.T) {
	r := NewRouter(keyedConfig(BackendDeepL, BackendYandex, BackendPapago, BackendGoogle))

	res, err := r.Translate(context.Background(), Request{Text: "Hello", SourceLang: "en", TargetLang: "it"})
	require.NoError(t, err)

	assert.Equal(t, BackendDeepL, res.Backend)
	assert.Equal(t, "[DeepL] Hello", res.TranslatedText)
	assert.Equal(t, "en", res.SourceLang)
	assert.Equal(t, "it", res.TargetLang)
	assert.Equal(t, 5, res.CharacterCount)
	assert.InEpsilon(t, 5*0.00002, res.CostEstimate, 1e-9)
	assert.GreaterOrEqual(t, res.Confidence, 0.92)
	assert.LessOrEqual(t, res.Confidence, 0.99)
	assert.False(t, res.Timestamp.IsZero())
}

func TestCostOptimizationPrefersCheaperOnLongText(t *testing.T) {
	cfg := keyedConfig(BackendDeepL, BackendYandex)
	long := strings.Repeat("a", 250)

	res, err := NewRouter(cfg).Translate(context.Background(), Request{Text: long, SourceLang: "en", TargetLang: "it"})
	require.NoError(t, err)
	assert.Equal(t, BackendYandex, res.Backend)

	// With cost optimization off the same text goes to the higher priority.
	cfg.CostOptimization = false
	res, err = NewRouter(cfg).Translate(context.Background(), Request{Text: long, SourceLang: "en", TargetLang: "it"})
	require.NoError(t, err)
	assert.Equal(t, BackendDeepL, res.Backend)
}

func TestRankBackendsSuccessBonus(t *testing.T) {
	cfg := keyedConfig(BackendDeepL, BackendYandex)
	cfg.CostOptimization = false
	r := NewRouter(cfg)

	// A clean record lifts yandex (8+2) over untouched deepl (9).
	r.noteRequest(BackendYandex)
	r.noteSuccess(BackendYandex, 5, 10, 0.0001)

	ranked := r.rankBackends(10)
	require.NotEmpty(t, ranked)
	assert.Equal(t, BackendYandex, ranked[0])
}

func TestRankBackendsSkipsDisabled(t *testing.T) {
	r := NewRouter(keyedConfig(BackendDeepL))
	assert.Equal(t, []Backend{BackendDeepL}, r.rankBackends(5))
}

func TestPreferredBackendBypassesSelection(t *testing.T) {
	r := NewRouter(keyedConfig(BackendDeepL, BackendGoogle))

	res, err := r.Translate(context.Background(), Request{
		Text: "Hello", SourceLang: "en", TargetLang: "it", Preferred: BackendGoogle,
	})
	require.NoError(t, err)
	assert.Equal(t, BackendGoogle, res.Backend)
	assert.Equal(t, "[Google] Hello", res.TranslatedText)
}

func TestPreferredBackendWorksWhileDisabled(t *testing.T) {
	cfg := setBackend(keyedConfig(BackendDeepL), BackendGoogle, func(bc *BackendConfig) {
		bc.APIKey = "test-key" // keyed but left disabled
	})
	r := NewRouter(cfg)

	res, err := r.Translate(context.Background(), Request{
		Text: "Ciao", SourceLang: "en", TargetLang: "it", Preferred: BackendGoogle,
	})
	require.NoError(t, err)
	assert.Equal(t, BackendGoogle, res.Backend)
}

func TestPreferredCombinedRejected(t *testing.T) {
	r := NewRouter(keyedConfig(BackendDeepL))
	_, err := r.Translate(context.Background(), Request{Text: "Hello", TargetLang: "it", Preferred: BackendCombined})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "combined")
}

func TestTranslateNoBackendEnabled(t *testing.T) {
	r := NewRouter(keyedConfig())
	_, err := r.Translate(context.Background(), Request{Text: "Hello", TargetLang: "it"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no backend enabled")
}

func TestMissingKeyCountsFailure(t *testing.T) {
	cfg := setBackend(keyedConfig(BackendDeepL), BackendDeepL, func(bc *BackendConfig) {
		bc.APIKey = ""
	})
	r := NewRouter(cfg)

	_, err := r.Translate(context.Background(), Request{Text: "Hello", TargetLang: "it"})
	require.Error(t, err)

	var be *gserrors.BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "deepl", be.Backend)
	assert.Contains(t, err.Error(), "api key not configured")

	st := r.Metrics().Backends[BackendDeepL]
	assert.Equal(t, uint64(1), st.TotalRequests)
	assert.Equal(t, uint64(1), st.FailedRequests)
	assert.Equal(t, uint64(0), st.SuccessfulRequests)
}

func TestFallbackCascades(t *testing.T) {
	cfg := keyedConfig(BackendDeepL, BackendYandex)
	cfg.CostOptimization = false
	cfg = setBackend(cfg, BackendDeepL, func(bc *BackendConfig) { bc.APIKey = "" })
	r := NewRouter(cfg)

	res, err := r.Translate(context.Background(), Request{Text: "Hello", SourceLang: "en", TargetLang: "it"})
	require.NoError(t, err)
	assert.Equal(t, BackendYandex, res.Backend)

	m := r.Metrics()
	assert.Equal(t, uint64(1), m.Backends[BackendDeepL].FailedRequests)
	assert.Equal(t, uint64(1), m.Backends[BackendYandex].SuccessfulRequests)
}

func TestFallbackDisabledStopsAtFirst(t *testing.T) {
	cfg := keyedConfig(BackendDeepL, BackendYandex)
	cfg.CostOptimization = false
	cfg.FallbackEnabled = false
	cfg = setBackend(cfg, BackendDeepL, func(bc *BackendConfig) { bc.APIKey = "" })
	r := NewRouter(cfg)

	_, err := r.Translate(context.Background(), Request{Text: "Hello", SourceLang: "en", TargetLang: "it"})
	require.Error(t, err)

	_, touched := r.Metrics().Backends[BackendYandex]
	assert.False(t, touched)
}

func TestRateLimitExhaustion(t *testing.T) {
	cfg := setBackend(keyedConfig(BackendDeepL), BackendDeepL, func(bc *BackendConfig) {
		bc.RateLimitPerMinute = 1
	})
	r := NewRouter(cfg)
	ctx := context.Background()

	_, err := r.Translate(ctx, Request{Text: "one", SourceLang: "en", TargetLang: "it"})
	require.NoError(t, err)

	_, err = r.Translate(ctx, Request{Text: "two", SourceLang: "en", TargetLang: "it"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")

	// Denied calls never reach the provider, so they are not requests.
	assert.Equal(t, uint64(1), r.Metrics().Backends[BackendDeepL].TotalRequests)
}

func TestOversizedTextFailsBackend(t *testing.T) {
	cfg := setBackend(keyedConfig(BackendDeepL), BackendDeepL, func(bc *BackendConfig) {
		bc.MaxCharsPerRequest = 10
	})
	r := NewRouter(cfg)

	_, err := r.Translate(context.Background(), Request{
		Text: strings.Repeat("a", 11), SourceLang: "en", TargetLang: "it",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request limit")
	assert.Equal(t, uint64(1), r.Metrics().Backends[BackendDeepL].FailedRequests)
}

func TestTranslateCacheHit(t *testing.T) {
	r := NewRouter(keyedConfig(BackendDeepL))
	ctx := context.Background()
	req := Request{Text: "Hello", SourceLang: "en", TargetLang: "it"}

	first, err := r.Translate(ctx, req)
	require.NoError(t, err)
	second, err := r.Translate(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first.TranslatedText, second.TranslatedText)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.True(t, first.Timestamp.Equal(second.Timestamp))

	m := r.Metrics()
	assert.Equal(t, uint64(1), m.Backends[BackendDeepL].TotalRequests)
	assert.InDelta(t, 0.1, m.CacheHitRate, 1e-9)
}

func TestCacheDisabledAlwaysTranslates(t *testing.T) {
	cfg := keyedConfig(BackendDeepL)
	cfg.CacheEnabled = false
	r := NewRouter(cfg)
	ctx := context.Background()
	req := Request{Text: "Hello", SourceLang: "en", TargetLang: "it"}

	_, err := r.Translate(ctx, req)
	require.NoError(t, err)
	_, err = r.Translate(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, uint64(2), r.Metrics().Backends[BackendDeepL].TotalRequests)
}

func TestClearCache(t *testing.T) {
	r := NewRouter(keyedConfig(BackendDeepL))
	ctx := context.Background()
	req := Request{Text: "Hello", SourceLang: "en", TargetLang: "it"}

	_, err := r.Translate(ctx, req)
	require.NoError(t, err)
	r.ClearCache()
	_, err = r.Translate(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, uint64(2), r.Metrics().Backends[BackendDeepL].TotalRequests)
}

func TestTranslateBatchSkipsFailures(t *testing.T) {
	cfg := setBackend(keyedConfig(BackendDeepL), BackendDeepL, func(bc *BackendConfig) {
		bc.RateLimitPerMinute = 2
	})
	r := NewRouter(cfg)

	results, err := r.TranslateBatch(context.Background(), []string{"one", "two", "three"}, "en", "it")
	require.Error(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "[DeepL] one", results[0].TranslatedText)
	assert.Equal(t, "[DeepL] two", results[1].TranslatedText)

	var me *gserrors.MultiError
	require.True(t, errors.As(err, &me))
	require.Len(t, me.Errors, 1)
	assert.Contains(t, me.Errors[0].Error(), "text 2")
}

func TestTranslateBatchAllSucceed(t *testing.T) {
	r := NewRouter(keyedConfig(BackendDeepL))
	results, err := r.TranslateBatch(context.Background(), []string{"one", "two"}, "en", "it")
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestParallelTranslationCombined(t *testing.T) {
	cfg := keyedConfig(BackendDeepL)
	cfg.ParallelTranslation = true
	r := NewRouter(cfg)

	res, err := r.Translate(context.Background(), Request{Text: "Hello", SourceLang: "en", TargetLang: "it"})
	require.NoError(t, err)
	assert.Equal(t, BackendCombined, res.Backend)
	assert.Equal(t, "[DeepL] Hello", res.TranslatedText)
	assert.Equal(t, uint64(1), r.Metrics().Backends[BackendDeepL].SuccessfulRequests)
}

func TestParallelTranslationFansOut(t *testing.T) {
	cfg := keyedConfig(BackendDeepL, BackendYandex)
	cfg.ParallelTranslation = true
	r := NewRouter(cfg)

	res, err := r.Translate(context.Background(), Request{Text: "Hello friend", SourceLang: "en", TargetLang: "it"})
	require.NoError(t, err)
	assert.Equal(t, BackendCombined, res.Backend)
	assert.True(t,
		strings.HasPrefix(res.TranslatedText, "[DeepL] ") || strings.HasPrefix(res.TranslatedText, "[Yandex] "),
		"unexpected winner text %q", res.TranslatedText)

	m := r.Metrics()
	assert.Equal(t, uint64(1), m.Backends[BackendDeepL].TotalRequests)
	assert.Equal(t, uint64(1), m.Backends[BackendYandex].TotalRequests)
}

func TestParallelTranslationAllFail(t *testing.T) {
	cfg := keyedConfig(BackendDeepL)
	cfg.ParallelTranslation = true
	cfg = setBackend(cfg, BackendDeepL, func(bc *BackendConfig) { bc.APIKey = "" })
	r := NewRouter(cfg)

	_, err := r.Translate(context.Background(), Request{Text: "Hello", TargetLang: "it"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "every enabled backend failed")
}

func TestPickBestResult(t *testing.T) {
	winner := pickBestResult([]Result{
		{Backend: BackendYandex, Confidence: 0.95, TranslatedText: strings.Repeat("y", 10), CharacterCount: 10},
		{Backend: BackendDeepL, Confidence: 0.93, TranslatedText: strings.Repeat("d", 10), CharacterCount: 10},
	})
	// 0.93+0.05 beats 0.95+0.02.
	assert.Equal(t, BackendDeepL, winner.Backend)

	winner = pickBestResult([]Result{
		{Backend: BackendGoogle, Confidence: 0.98, TranslatedText: strings.Repeat("g", 50), CharacterCount: 10},
		{Backend: BackendPapago, Confidence: 0.93, TranslatedText: strings.Repeat("p", 10), CharacterCount: 10},
	})
	// The ballooned answer is docked 0.1: 0.98+0.03-0.1 < 0.93+0.01.
	assert.Equal(t, BackendPapago, winner.Backend)
}

func TestUpdateConfigRebuildsLimiters(t *testing.T) {
	cfg := setBackend(keyedConfig(BackendDeepL), BackendDeepL, func(bc *BackendConfig) {
		bc.RateLimitPerMinute = 1
	})
	r := NewRouter(cfg)
	ctx := context.Background()

	_, err := r.Translate(ctx, Request{Text: "one", SourceLang: "en", TargetLang: "it"})
	require.NoError(t, err)
	_, err = r.Translate(ctx, Request{Text: "two", SourceLang: "en", TargetLang: "it"})
	require.Error(t, err)

	r.UpdateConfig(cfg)
	_, err = r.Translate(ctx, Request{Text: "three", SourceLang: "en", TargetLang: "it"})
	require.NoError(t, err)
}

func TestMetricsDeepCopy(t *testing.T) {
	r := NewRouter(keyedConfig(BackendDeepL))
	_, err := r.Translate(context.Background(), Request{Text: "Hello", SourceLang: "en", TargetLang: "it"})
	require.NoError(t, err)

	m := r.Metrics()
	st := m.Backends[BackendDeepL]
	st.TotalRequests = 99
	m.Backends[BackendDeepL] = st

	assert.Equal(t, uint64(1), r.Metrics().Backends[BackendDeepL].TotalRequests)
}

func TestRateLimitRemaining(t *testing.T) {
	cfg := setBackend(keyedConfig(BackendDeepL), BackendDeepL, func(bc *BackendConfig) {
		bc.RateLimitPerMinute = 5
	})
	r := NewRouter(cfg)

	assert.Equal(t, 5, r.RateLimitRemaining(BackendDeepL))
	_, err := r.Translate(context.Background(), Request{Text: "Hello", SourceLang: "en", TargetLang: "it"})
	require.NoError(t, err)
	assert.Equal(t, 4, r.RateLimitRemaining(BackendDeepL))
	assert.Equal(t, 0, r.RateLimitRemaining(Backend("unknown")))
}

func TestTranslateHonorsContext(t *testing.T) {
	r := NewRouter(keyedConfig(BackendDeepL))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Translate(ctx, Request{Text: "Hello", SourceLang: "en", TargetLang: "it"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
