package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/vdb/internal/core/domain"
)

var settingsOutput string

var (
	embeddingProvider string
	embeddingModel    string
	embeddingAPIKey   string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the data directory, embedding provider, chunking
strategy and query defaults.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Change one setting",
	Long: `Change one setting by key.

Keys:
  data.dir                         root for databases, uploads and ledgers
  embedding.provider               openai, goopenai or ollama
  embedding.model                  default embedding model
  embedding.base_url               provider endpoint override
  embedding.api_key                provider API key
  embedding.batch_size             texts per embedding request
  embedding.requests_per_second    request throttle (0 = unlimited)
  embedding.timeout                per-request timeout, e.g. 60s
  chunking.strategy                sentence_accumulate, token_window or sentence_group
  chunking.chunk_size              words per chunk
  chunking.overlap                 shared words between token windows
  chunking.max_sentences           sentences per group
  chunking.overlap_sentences       shared sentences between groups
  chunking.preprocess              lowercase and strip punctuation (true/false)
  chunking.remove_stopwords        drop English stopwords when preprocessing
  query.n_results                  default number of query results`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long: `Configure the embedding provider. Missing values are prompted for
interactively, and the provider is contacted to check the configuration.`,
	Args: cobra.NoArgs,
	RunE: runSettingsEmbedding,
}

var settingsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check settings and contact the embedding provider",
	Args:  cobra.NoArgs,
	RunE:  runSettingsValidate,
}

func init() {
	addOutputFlag(settingsShowCmd, &settingsOutput)
	settingsEmbeddingCmd.Flags().StringVar(&embeddingProvider, "provider", "", "openai, goopenai or ollama")
	settingsEmbeddingCmd.Flags().StringVar(&embeddingModel, "model", "", "model name (default per provider)")
	settingsEmbeddingCmd.Flags().StringVar(&embeddingAPIKey, "api-key", "", "API key for OpenAI providers")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsValidateCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	masked := *settings
	if masked.Embedding.APIKey != "" {
		masked.Embedding.APIKey = maskAPIKey(masked.Embedding.APIKey)
	}

	return render(cmd, settingsOutput, masked, func() {
		printSettings(cmd, &masked)
	})
}

func printSettings(cmd *cobra.Command, settings *domain.AppSettings) {
	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Data]")
	cmd.Printf("  Directory: %s\n", settings.DataDir)
	cmd.Println()

	e := settings.Embedding
	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", e.Provider.Description())
	cmd.Printf("  Model: %s\n", e.Model)
	if e.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", e.BaseURL)
	}
	if e.Provider.RequiresAPIKey() {
		if e.APIKey != "" {
			cmd.Printf("  API Key: %s\n", e.APIKey)
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	cmd.Printf("  Batch size: %d\n", e.BatchSize)
	if e.RequestsPerSecond > 0 {
		cmd.Printf("  Rate limit: %g req/s\n", e.RequestsPerSecond)
	}
	cmd.Printf("  Timeout: %s\n", e.Timeout)
	cmd.Println()

	c := settings.Chunking
	cmd.Println("[Chunking]")
	cmd.Printf("  Strategy: %s\n", c.Strategy)
	switch c.Strategy {
	case domain.ChunkingTokenWindow:
		cmd.Printf("  Chunk size: %d words, overlap %d\n", c.ChunkSize, c.Overlap)
	case domain.ChunkingSentenceGroup:
		cmd.Printf("  Sentences: %d per chunk, overlap %d\n", c.MaxSentences, c.OverlapSentences)
	default:
		cmd.Printf("  Chunk size: %d words\n", c.ChunkSize)
	}
	if c.Preprocess {
		cmd.Printf("  Preprocess: yes (stopwords removed: %t)\n", c.RemoveStopwords)
	}
	cmd.Println()

	cmd.Println("[Query]")
	cmd.Printf("  Results: %d\n", settings.Query.NResults)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'vdb settings embedding' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	value := args[1]
	if strings.HasSuffix(args[0], "api_key") {
		value = maskAPIKey(value)
	}
	cmd.Printf("%s = %s\n", args[0], value)
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return configureEmbeddingProvider(cmd, bufio.NewReader(cmd.InOrStdin()))
}

func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	provider := domain.EmbeddingProvider(embeddingProvider)
	if provider == "" {
		cmd.Println("Select Embedding Provider")
		providers := domain.AllEmbeddingProviders()
		for i, p := range providers {
			cmd.Printf("  %d. %s\n", i+1, p.Description())
		}
		cmd.Print("\nEnter choice [1]: ")
		idx := parseChoice(readLine(reader), len(providers), 1)
		provider = providers[idx-1]
	}
	if !provider.IsValid() {
		return fmt.Errorf("unknown embedding provider %q", provider)
	}

	model := embeddingModel
	if model == "" && embeddingProvider == "" {
		defaultModel := domain.DefaultEmbeddingModels()[provider]
		cmd.Printf("Model [%s]: ", defaultModel)
		model = readLine(reader)
	}

	apiKey := embeddingAPIKey
	if provider.RequiresAPIKey() && apiKey == "" {
		cmd.Print("API key: ")
		apiKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
	}

	if err := settingsService.SetEmbeddingProvider(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	cmd.Print("Validating embedding configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s\n", provider.Description())
	return nil
}

func runSettingsValidate(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	cmd.Print("Contacting embedding provider... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Println("FAILED")
		return fmt.Errorf("embedding provider unreachable: %w", err)
	}
	cmd.Println("OK")
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when in is a terminal.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
