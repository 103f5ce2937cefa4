package config

import (
	"encoding/json"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	// Bind is the listen address for the HTTP API.
	Bind string `json:"bind,omitempty"`
	Port int    `json:"port,omitempty"`

	// SecretKey signs session tokens. Required for serve.
	SecretKey string `json:"secret_key,omitempty"`

	// TokenTTLHours is the lifetime of issued tokens.
	TokenTTLHours int `json:"token_ttl_hours,omitempty"`

	// MaxUploadMB limits a single upload.
	MaxUploadMB int `json:"max_upload_mb,omitempty"`

	LogLevel string `json:"log_level,omitempty"`

	// PosterDir holds video_poster.png and audio_poster.png used on export.
	PosterDir string `json:"poster_dir,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	Storage   StorageConfig   `json:"storage"`
	Chat      ChatConfig      `json:"chat"`
	Images    ImagesConfig    `json:"images"`
	Converter ConverterConfig `json:"converter"`
	MCP       MCPConfig       `json:"mcp"`
}

// StorageConfig selects where uploaded media lives.
type StorageConfig struct {
	// Backend is "local" (default) or "s3".
	Backend string `json:"backend,omitempty"`

	// Dir is the local upload directory; relative paths resolve against the data dir.
	Dir string `json:"dir,omitempty"`

	S3Bucket    string `json:"s3_bucket,omitempty"`
	S3Region    string `json:"s3_region,omitempty"`
	S3Endpoint  string `json:"s3_endpoint,omitempty"`
	S3AccessKey string `json:"s3_access_key,omitempty"`
	S3SecretKey string `json:"s3_secret_key,omitempty"`
	S3Prefix    string `json:"s3_prefix,omitempty"`
}

// ChatConfig configures the OpenAI-compatible chat model.
type ChatConfig struct {
	APIKey         string `json:"api_key,omitempty"`
	BaseURL        string `json:"base_url,omitempty"`
	Model          string `json:"model,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// ImagesConfig selects and configures the image generation provider.
type ImagesConfig struct {
	// Provider is "hosted", "pipeline" or "none".
	Provider string `json:"provider,omitempty"`

	// Materializer turns pipeline image bytes into a durable URL:
	// "storage" (default) or "relay". Relay URLs embed the bot token and are
	// stored in decks as-is, so every deck owner can read the token.
	Materializer string `json:"materializer,omitempty"`

	Hosted   HostedConfig   `json:"hosted"`
	Pipeline PipelineConfig `json:"pipeline"`
	Relay    RelayConfig    `json:"relay"`
}

// HostedConfig configures the hosted image API.
type HostedConfig struct {
	APIKey              string `json:"api_key,omitempty"`
	BaseURL             string `json:"base_url,omitempty"`
	PollAttempts        int    `json:"poll_attempts,omitempty"`
	PollIntervalSeconds int    `json:"poll_interval_seconds,omitempty"`
}

// PipelineConfig configures the pipeline diffusion API.
type PipelineConfig struct {
	APIKey              string `json:"api_key,omitempty"`
	SecretKey           string `json:"secret_key,omitempty"`
	BaseURL             string `json:"base_url,omitempty"`
	Width               int    `json:"width,omitempty"`
	Height              int    `json:"height,omitempty"`
	PollAttempts        int    `json:"poll_attempts,omitempty"`
	PollIntervalSeconds int    `json:"poll_interval_seconds,omitempty"`
}

// RelayConfig configures the messaging relay used to host generated images.
type RelayConfig struct {
	BotToken string `json:"bot_token,omitempty"`
	ChatID   string `json:"chat_id,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
}

// ConverterConfig configures PDF conversion.
type ConverterConfig struct {
	// Kind is "soffice" (default), "http" or "none".
	Kind           string `json:"kind,omitempty"`
	Binary         string `json:"binary,omitempty"`
	URL            string `json:"url,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// MCPConfig configures the stdio tool server.
type MCPConfig struct {
	// UserEmail is the account MCP tools act as.
	UserEmail string `json:"user_email,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Bind:          "127.0.0.1",
		Port:          5000,
		TokenTTLHours: 24,
		MaxUploadMB:   100,
		LogLevel:      "info",
		PosterDir:     "posters",
		Storage: StorageConfig{
			Backend:  "local",
			Dir:      "uploads",
			S3Region: "us-east-1",
		},
		Chat: ChatConfig{
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 120,
		},
		Images: ImagesConfig{
			Provider:     "hosted",
			Materializer: "storage",
			Hosted: HostedConfig{
				BaseURL:             "https://api.kie.ai",
				PollAttempts:        45,
				PollIntervalSeconds: 2,
			},
			Pipeline: PipelineConfig{
				BaseURL:             "https://api-key.fusionbrain.ai",
				Width:               1024,
				Height:              576,
				PollAttempts:        20,
				PollIntervalSeconds: 5,
			},
			Relay: RelayConfig{
				BaseURL: "https://api.telegram.org",
			},
		},
		Converter: ConverterConfig{
			Kind:           "soffice",
			Binary:         "soffice",
			TimeoutSeconds: 120,
		},
	}
}

// TokenTTL returns the token lifetime as a duration.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

// ResolvePath resolves p against baseDir unless it is already absolute.
func ResolvePath(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.slidecraft.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars when non-zero; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		Bind:           str(base.Bind, overlay.Bind),
		Port:           num(base.Port, overlay.Port),
		SecretKey:      str(base.SecretKey, overlay.SecretKey),
		TokenTTLHours:  num(base.TokenTTLHours, overlay.TokenTTLHours),
		MaxUploadMB:    num(base.MaxUploadMB, overlay.MaxUploadMB),
		LogLevel:       str(base.LogLevel, overlay.LogLevel),
		PosterDir:      str(base.PosterDir, overlay.PosterDir),
		DBMaxOpenConns: num(base.DBMaxOpenConns, overlay.DBMaxOpenConns),
		DBMaxIdleConns: num(base.DBMaxIdleConns, overlay.DBMaxIdleConns),
	}

	result.Storage = StorageConfig{
		Backend:     str(base.Storage.Backend, overlay.Storage.Backend),
		Dir:         str(base.Storage.Dir, overlay.Storage.Dir),
		S3Bucket:    str(base.Storage.S3Bucket, overlay.Storage.S3Bucket),
		S3Region:    str(base.Storage.S3Region, overlay.Storage.S3Region),
		S3Endpoint:  str(base.Storage.S3Endpoint, overlay.Storage.S3Endpoint),
		S3AccessKey: str(base.Storage.S3AccessKey, overlay.Storage.S3AccessKey),
		S3SecretKey: str(base.Storage.S3SecretKey, overlay.Storage.S3SecretKey),
		S3Prefix:    str(base.Storage.S3Prefix, overlay.Storage.S3Prefix),
	}

	result.Chat = ChatConfig{
		APIKey:         str(base.Chat.APIKey, overlay.Chat.APIKey),
		BaseURL:        str(base.Chat.BaseURL, overlay.Chat.BaseURL),
		Model:          str(base.Chat.Model, overlay.Chat.Model),
		TimeoutSeconds: num(base.Chat.TimeoutSeconds, overlay.Chat.TimeoutSeconds),
	}

	bi, oi := base.Images, overlay.Images
	result.Images = ImagesConfig{
		Provider:     str(bi.Provider, oi.Provider),
		Materializer: str(bi.Materializer, oi.Materializer),
		Hosted: HostedConfig{
			APIKey:              str(bi.Hosted.APIKey, oi.Hosted.APIKey),
			BaseURL:             str(bi.Hosted.BaseURL, oi.Hosted.BaseURL),
			PollAttempts:        num(bi.Hosted.PollAttempts, oi.Hosted.PollAttempts),
			PollIntervalSeconds: num(bi.Hosted.PollIntervalSeconds, oi.Hosted.PollIntervalSeconds),
		},
		Pipeline: PipelineConfig{
			APIKey:              str(bi.Pipeline.APIKey, oi.Pipeline.APIKey),
			SecretKey:           str(bi.Pipeline.SecretKey, oi.Pipeline.SecretKey),
			BaseURL:             str(bi.Pipeline.BaseURL, oi.Pipeline.BaseURL),
			Width:               num(bi.Pipeline.Width, oi.Pipeline.Width),
			Height:              num(bi.Pipeline.Height, oi.Pipeline.Height),
			PollAttempts:        num(bi.Pipeline.PollAttempts, oi.Pipeline.PollAttempts),
			PollIntervalSeconds: num(bi.Pipeline.PollIntervalSeconds, oi.Pipeline.PollIntervalSeconds),
		},
		Relay: RelayConfig{
			BotToken: str(bi.Relay.BotToken, oi.Relay.BotToken),
			ChatID:   str(bi.Relay.ChatID, oi.Relay.ChatID),
			BaseURL:  str(bi.Relay.BaseURL, oi.Relay.BaseURL),
		},
	}

	result.Converter = ConverterConfig{
		Kind:           str(base.Converter.Kind, overlay.Converter.Kind),
		Binary:         str(base.Converter.Binary, overlay.Converter.Binary),
		URL:            str(base.Converter.URL, overlay.Converter.URL),
		TimeoutSeconds: num(base.Converter.TimeoutSeconds, overlay.Converter.TimeoutSeconds),
	}

	result.MCP = MCPConfig{
		UserEmail:     str(base.MCP.UserEmail, overlay.MCP.UserEmail),
		DisabledTools: mergeStringSlice(base.MCP.DisabledTools, overlay.MCP.DisabledTools),
	}

	return result
}

// str returns overlay if non-empty, else base.
func str(base, overlay string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

// num returns overlay if non-zero, else base.
func num(base, overlay int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
