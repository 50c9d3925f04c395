package router

import "strings"

// Backend identifies a machine translation provider.
type Backend string

const (
	BackendDeepL  Backend = "deepl"
	BackendYandex Backend = "yandex"
	BackendPapago Backend = "papago"
	BackendGoogle Backend = "google"

	// BackendCombined labels results picked out of a parallel fan-out.
	// It cannot be called directly.
	BackendCombined Backend = "combined"
)

// BackendConfig describes one provider: whether it may be used, its
// credentials, and the inputs the router weighs when choosing it.
type BackendConfig struct {
	Enabled            bool    `json:"enabled"`
	APIKey             string  `json:"api_key,omitempty"`
	APIURL             string  `json:"api_url,omitempty"`
	RateLimitPerMinute int     `json:"rate_limit_per_minute"`
	MaxCharsPerRequest int     `json:"max_characters_per_request"`
	TimeoutSeconds     int     `json:"timeout_seconds"`
	Priority           int     `json:"priority"` // 1 is highest
	CostPerChar        float64 `json:"cost_per_character"`
}

// Config drives routing decisions for a Router instance. The Backends map
// must not be mutated after the config is handed to a router; build a new
// map and call UpdateConfig instead.
type Config struct {
	Backends            map[Backend]BackendConfig `json:"backends"`
	FallbackEnabled     bool                      `json:"fallback_enabled"`
	QualityThreshold    float64                   `json:"quality_threshold"`
	CostOptimization    bool                      `json:"cost_optimization"`
	ParallelTranslation bool                      `json:"parallel_translation"`
	CacheEnabled        bool                      `json:"cache_enabled"`
	AutoDetectLanguage  bool                      `json:"auto_language_detection"`
	SupportedLanguages  []string                  `json:"supported_languages"`
}

// DefaultConfig returns the stock routing configuration. Every provider
// starts enabled with its public endpoint preset and no key, so nothing
// translates until a key arrives from config or the environment.
func DefaultConfig() Config {
	return Config{
		Backends: map[Backend]BackendConfig{
			BackendDeepL: {
				Enabled:            true,
				APIURL:             "https://api-free.deepl.com/v2/translate",
				RateLimitPerMinute: 500,
				MaxCharsPerRequest: 5000,
				TimeoutSeconds:     30,
				Priority:           1,
				CostPerChar:        0.00002,
			},
			BackendYandex: {
				Enabled:            true,
				APIURL:             "https://translate.api.cloud.yandex.net/translate/v2/translate",
				RateLimitPerMinute: 1000,
				MaxCharsPerRequest: 10000,
				TimeoutSeconds:     25,
				Priority:           2,
				CostPerChar:        0.000015,
			},
			BackendPapago: {
				Enabled:            true,
				APIURL:             "https://openapi.naver.com/v1/papago/n2mt",
				RateLimitPerMinute: 10000,
				MaxCharsPerRequest: 5000,
				TimeoutSeconds:     20,
				Priority:           3,
				CostPerChar:        0.00001,
			},
			BackendGoogle: {
				Enabled:            true,
				APIURL:             "https://translation.googleapis.com/language/translate/v2",
				RateLimitPerMinute: 100,
				MaxCharsPerRequest: 5000,
				TimeoutSeconds:     30,
				Priority:           4,
				CostPerChar:        0.00002,
			},
		},
		FallbackEnabled:     true,
		QualityThreshold:    0.8,
		CostOptimization:    true,
		ParallelTranslation: false,
		CacheEnabled:        true,
		AutoDetectLanguage:  true,
		SupportedLanguages: []string{
			"en", "it", "fr", "de", "es", "ja",
			"ko", "zh", "ru", "ar", "pt", "nl",
		},
	}
}

// supportsLanguage reports whether code is on the supported list. Region
// subtags are ignored, so zh-CN matches zh. An empty list allows anything.
func (c Config) supportsLanguage(code string) bool {
	if len(c.SupportedLanguages) == 0 {
		return true
	}
	base := code
	if i := strings.IndexAny(base, "-_"); i >= 0 {
		base = base[:i]
	}
	for _, lang := range c.SupportedLanguages {
		if strings.EqualFold(lang, base) {
			return true
		}
	}
	return false
}
