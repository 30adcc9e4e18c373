package services

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/vdb/internal/core/domain"
	"github.com/custodia-labs/vdb/internal/core/ports/driven"
	"github.com/custodia-labs/vdb/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyDataDir          = "data.dir"
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyEmbedBatchSize   = "embedding.batch_size"
	keyEmbedRPS         = "embedding.requests_per_second"
	keyEmbedTimeout     = "embedding.timeout"
	keyChunkStrategy    = "chunking.strategy"
	keyChunkSize        = "chunking.chunk_size"
	keyChunkOverlap     = "chunking.overlap"
	keyChunkMaxSent     = "chunking.max_sentences"
	keyChunkOverlapSent = "chunking.overlap_sentences"
	keyChunkPreprocess  = "chunking.preprocess"
	keyChunkStopwords   = "chunking.remove_stopwords"
	keyQueryNResults    = "query.n_results"
)

// SettingKeys returns every key accepted by Set, in display order.
func SettingKeys() []string {
	return []string{
		keyDataDir,
		keyEmbedProvider, keyEmbedModel, keyEmbedBaseURL, keyEmbedAPIKey,
		keyEmbedBatchSize, keyEmbedRPS, keyEmbedTimeout,
		keyChunkStrategy, keyChunkSize, keyChunkOverlap, keyChunkMaxSent,
		keyChunkOverlapSent, keyChunkPreprocess, keyChunkStopwords,
		keyQueryNResults,
	}
}

type settingValue struct {
	key   string
	value any
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	validator   driven.EmbeddingValidator
}

// NewSettingsService creates a new settings service.
// validator may be nil, in which case ValidateEmbeddingConfig is a no-op.
func NewSettingsService(configStore driven.ConfigStore, validator driven.EmbeddingValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		validator:   validator,
	}
}

// Get retrieves current application settings, filling gaps with defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()
	provider := s.getProvider(defaults.Embedding.Provider)

	modelDefault := defaults.Embedding.Model
	if m, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		modelDefault = m
	}

	settings := &domain.AppSettings{
		DataDir: s.configStore.GetString(keyDataDir),
		Embedding: domain.EmbeddingSettings{
			Provider:          provider,
			Model:             s.getString(keyEmbedModel, modelDefault),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL), // empty uses the provider default
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			BatchSize:         s.getInt(keyEmbedBatchSize, defaults.Embedding.BatchSize),
			RequestsPerSecond: s.configStore.GetFloat(keyEmbedRPS),
			Timeout:           s.getDuration(keyEmbedTimeout, defaults.Embedding.Timeout),
		},
		Chunking: domain.ChunkingSettings{
			Strategy:         s.getStrategy(defaults.Chunking.Strategy),
			ChunkSize:        s.getInt(keyChunkSize, defaults.Chunking.ChunkSize),
			Overlap:          s.getIntAllowZero(keyChunkOverlap, defaults.Chunking.Overlap),
			MaxSentences:     s.getInt(keyChunkMaxSent, defaults.Chunking.MaxSentences),
			OverlapSentences: s.getIntAllowZero(keyChunkOverlapSent, defaults.Chunking.OverlapSentences),
			Preprocess:       s.getBool(keyChunkPreprocess, defaults.Chunking.Preprocess),
			RemoveStopwords:  s.getBool(keyChunkStopwords, defaults.Chunking.RemoveStopwords),
		},
		Query: domain.QuerySettings{
			NResults: s.getInt(keyQueryNResults, defaults.Query.NResults),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []settingValue{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedBatchSize, settings.Embedding.BatchSize},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{keyEmbedTimeout, settings.Embedding.Timeout.String()},
		{keyChunkStrategy, settings.Chunking.Strategy.String()},
		{keyChunkSize, settings.Chunking.ChunkSize},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyChunkMaxSent, settings.Chunking.MaxSentences},
		{keyChunkOverlapSent, settings.Chunking.OverlapSentences},
		{keyChunkPreprocess, settings.Chunking.Preprocess},
		{keyChunkStopwords, settings.Chunking.RemoveStopwords},
		{keyQueryNResults, settings.Query.NResults},
	}
	if settings.DataDir != "" {
		values = append(values, settingValue{keyDataDir, settings.DataDir})
	}
	if settings.Embedding.APIKey != "" {
		values = append(values, settingValue{keyEmbedAPIKey, settings.Embedding.APIKey})
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Set parses value for key and stores it.
//
//nolint:gocyclo // One case per setting key
func (s *SettingsService) Set(key, value string) error {
	value = strings.TrimSpace(value)

	var stored any
	switch key {
	case keyDataDir, keyEmbedModel, keyEmbedBaseURL, keyEmbedAPIKey:
		stored = value
	case keyEmbedProvider:
		p := domain.EmbeddingProvider(value)
		if !p.IsValid() {
			return fmt.Errorf("%w: embedding provider %q", domain.ErrInvalidInput, value)
		}
		stored = value
	case keyChunkStrategy:
		st := domain.ChunkingStrategy(value)
		if !st.IsValid() {
			return fmt.Errorf("%w: chunking strategy %q", domain.ErrInvalidInput, value)
		}
		stored = value
	case keyEmbedBatchSize, keyChunkSize, keyChunkMaxSent, keyQueryNResults:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidInput, key)
		}
		stored = n
	case keyChunkOverlap, keyChunkOverlapSent:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		stored = n
	case keyEmbedRPS:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		stored = f
	case keyEmbedTimeout:
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: %s must be a positive duration", domain.ErrInvalidInput, key)
		}
		stored = d.String()
	case keyChunkPreprocess, keyChunkStopwords:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		stored = b
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	if err := s.configStore.Set(key, stored); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.EmbeddingProvider, model, apiKey string) error {
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("%w: embedding provider %q", domain.ErrInvalidInput, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	if model != "" {
		settings.Embedding.Model = model
	} else if m, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		settings.Embedding.Model = m
	}
	// A base URL set for one provider is meaningless for another.
	settings.Embedding.BaseURL = ""
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetChunkingStrategy selects the chunker variant.
func (s *SettingsService) SetChunkingStrategy(strategy domain.ChunkingStrategy) error {
	if !strategy.IsValid() {
		return fmt.Errorf("%w: chunking strategy %q", domain.ErrInvalidInput, strategy)
	}
	return s.Set(keyChunkStrategy, strategy.String())
}

// Validate checks that the current settings can run ingestion.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Embedding.IsConfigured() {
		if settings.Embedding.Provider.RequiresAPIKey() {
			return fmt.Errorf("%w: %s requires an API key (set embedding.api_key or OPENAI_API_KEY)",
				domain.ErrEmbeddingUnavailable, settings.Embedding.Provider)
		}
		return fmt.Errorf("%w: provider %q", domain.ErrEmbeddingUnavailable, settings.Embedding.Provider)
	}

	c := settings.Chunking
	if !c.Strategy.IsValid() {
		return fmt.Errorf("%w: chunking strategy %q", domain.ErrInvalidInput, c.Strategy)
	}
	if c.Strategy == domain.ChunkingTokenWindow && c.Overlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunking overlap %d must be smaller than chunk size %d",
			domain.ErrInvalidInput, c.Overlap, c.ChunkSize)
	}
	if c.Strategy == domain.ChunkingSentenceGroup && c.OverlapSentences >= c.MaxSentences {
		return fmt.Errorf("%w: sentence overlap %d must be smaller than group size %d",
			domain.ErrInvalidInput, c.OverlapSentences, c.MaxSentences)
	}

	return nil
}

// ValidateEmbeddingConfig pings the configured provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.validator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.validator.ValidateEmbedding(&settings.Embedding)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	if val := s.configStore.GetInt(key); val >= 0 {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(defaultVal domain.EmbeddingProvider) domain.EmbeddingProvider {
	provider := domain.EmbeddingProvider(s.configStore.GetString(keyEmbedProvider))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getStrategy(defaultVal domain.ChunkingStrategy) domain.ChunkingStrategy {
	strategy := domain.ChunkingStrategy(s.configStore.GetString(keyChunkStrategy))
	if !strategy.IsValid() {
		return defaultVal
	}
	return strategy
}
