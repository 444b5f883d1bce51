package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Splitting
	StartDepth      int
	EndDepth        int
	OutputDir       string
	MarginRatio     float64
	DistanceRatio   float64
	MaxBasename     int
	IndexPadding    int
	Boundary        string
	Align           string
	NameFromHeading bool

	// Conversion
	Converter            string
	ConverterCmd         string
	ConverterFormat      string
	PDFFallbackPdftotext bool

	// Enrichment
	Enrich            bool
	PromptFile        string
	Provider          string
	Model             string
	OllamaHost        string
	OllamaTemperature float64
	AnthropicAPIKey   string
	AnthropicModel    string
	GeminiAPIKey      string
	GeminiModel       string
	RefWindowBand     float64
	RefDistanceRatio  float64

	// Server
	Port           string
	APIKey         string
	WorkerCount    int
	MaxQueueSize   int
	MaxUploadBytes int64
	JobTTL         time.Duration
}

// Load reads an optional .env file and then the environment.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		StartDepth:      1,
		OutputDir:       envOr("FRACTURE_OUTPUT_DIR", "."),
		MarginRatio:     envFloat("FRACTURE_MARGIN_RATIO", 0.08),
		DistanceRatio:   envFloat("FRACTURE_DISTANCE_RATIO", 0.4),
		MaxBasename:     envInt("FRACTURE_MAX_BASENAME", 200),
		IndexPadding:    envInt("FRACTURE_INDEX_PADDING", 6),
		Boundary:        envOr("FRACTURE_BOUNDARY", "successor"),
		Align:           envOr("FRACTURE_ALIGN", "bracket"),
		NameFromHeading: envBool("FRACTURE_NAME_FROM_HEADING", false),

		Converter:            envOr("FRACTURE_CONVERTER", "builtin"),
		ConverterCmd:         os.Getenv("FRACTURE_CONVERTER_CMD"),
		ConverterFormat:      envOr("FRACTURE_CONVERTER_FORMAT", "markdown"),
		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		Enrich:            envBool("FRACTURE_ENRICH", false),
		PromptFile:        os.Getenv("FRACTURE_PROMPT_FILE"),
		Provider:          envOr("FRACTURE_PROVIDER", "ollama"),
		Model:             os.Getenv("FRACTURE_MODEL"),
		OllamaHost:        envOr("OLLAMA_HOST", "http://localhost:11434"),
		OllamaTemperature: envFloat("OLLAMA_TEMPERATURE", 0),
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:    envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       envOr("GEMINI_MODEL", "gemini-2.5-flash"),
		RefWindowBand:     envFloat("FRACTURE_REF_WINDOW_BAND", 0.25),
		RefDistanceRatio:  envFloat("FRACTURE_REF_DISTANCE_RATIO", 0.2),

		Port:   envOr("PORT", "8090"),
		APIKey: os.Getenv("FRACTURE_API_KEY"),

		WorkerCount:    envInt("WORKER_COUNT", 1),
		MaxQueueSize:   envInt("MAX_QUEUE_SIZE", 100),
		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB
		JobTTL:         envDuration("JOB_TTL", 1*time.Hour),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// ModelFor returns the model name for the configured provider. An explicit
// FRACTURE_MODEL wins over the provider specific default.
func (c Config) ModelFor() string {
	if c.Model != "" {
		return c.Model
	}
	switch c.Provider {
	case "claude":
		return c.AnthropicModel
	case "gemini":
		return c.GeminiModel
	}
	return "llama3.1"
}

// Validate checks settings shared by every command.
func (c Config) Validate() error {
	if c.MarginRatio < 0 || c.MarginRatio >= 0.5 {
		return fmt.Errorf("margin ratio must be in [0, 0.5), got %g", c.MarginRatio)
	}
	if c.DistanceRatio < 0 || c.DistanceRatio > 1 {
		return fmt.Errorf("distance ratio must be in [0, 1], got %g", c.DistanceRatio)
	}
	if c.RefWindowBand < 0 || c.RefWindowBand > 1 {
		return fmt.Errorf("FRACTURE_REF_WINDOW_BAND must be in [0, 1], got %g", c.RefWindowBand)
	}
	if c.RefDistanceRatio < 0 || c.RefDistanceRatio > 1 {
		return fmt.Errorf("FRACTURE_REF_DISTANCE_RATIO must be in [0, 1], got %g", c.RefDistanceRatio)
	}
	if c.MaxBasename < 8 {
		return fmt.Errorf("max basename must be at least 8, got %d", c.MaxBasename)
	}
	if c.IndexPadding < 1 {
		return fmt.Errorf("index padding must be at least 1, got %d", c.IndexPadding)
	}
	if !oneOf(c.Boundary, "successor", "sibling") {
		return fmt.Errorf("unknown boundary %q (want successor or sibling)", c.Boundary)
	}
	if !oneOf(c.Align, "bracket", "level") {
		return fmt.Errorf("unknown align mode %q (want bracket or level)", c.Align)
	}
	if !oneOf(c.Converter, "builtin", "command") {
		return fmt.Errorf("unknown converter %q (want builtin or command)", c.Converter)
	}
	if c.Converter == "command" && c.ConverterCmd == "" {
		return fmt.Errorf("FRACTURE_CONVERTER_CMD is required for the command converter")
	}
	if !oneOf(c.ConverterFormat, "markdown", "md", "html") {
		return fmt.Errorf("unknown converter format %q (want markdown or html)", c.ConverterFormat)
	}
	if c.Enrich {
		if !oneOf(c.Provider, "ollama", "claude", "gemini") {
			return fmt.Errorf("unknown provider %q (want ollama, claude or gemini)", c.Provider)
		}
		if c.Provider == "claude" && c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required")
		}
		if c.Provider == "gemini" && c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required")
		}
	}
	return nil
}

// ValidateServe adds the checks needed by the HTTP server.
func (c Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("FRACTURE_API_KEY is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("FRACTURE_OUTPUT_DIR is required")
	}
	return nil
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
