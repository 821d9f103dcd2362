package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	speechmodel "github.com/eventdesk/backend/internal/model/speech"
)

// Config aggregates every runtime setting of the service.
type Config struct {
	Server ServerConfig
	Auth   AuthConfig
	AI     AIConfig
	Speech SpeechConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	addr, err := normalizeAddr(cfg.Server.Port)
	if err != nil {
		return nil, err
	}
	cfg.Server.Addr = addr

	return cfg, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Port string `env:"PORT" envDefault:"8080"`
	Addr string `env:"-"`
}

// normalizeAddr accepts "8080", ":8080" or "127.0.0.1:8080".
func normalizeAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8080"
	}
	if strings.Contains(port, ":") {
		return port, nil
	}
	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}
	return ":" + port, nil
}

// AuthConfig describes bearer-token validation. Token issuance lives in
// the account service; this side only verifies.
type AuthConfig struct {
	JWTSecret string `env:"AUTH_JWT_SECRET"`
}

// Enabled reports whether bearer tokens can be verified at all.
func (c AuthConfig) Enabled() bool {
	return strings.TrimSpace(c.JWTSecret) != ""
}

// AIConfig describes the Ark chat model behind the automated responder.
type AIConfig struct {
	APIKey      string   `env:"ARK_API_KEY"`
	AccessKey   string   `env:"ARK_ACCESS_KEY"`
	SecretKey   string   `env:"ARK_SECRET_KEY"`
	Model       string   `env:"ARK_MODEL"`
	BaseURL     string   `env:"ARK_BASE_URL" envDefault:"https://ark.cn-beijing.volces.com/api/v3"`
	Region      string   `env:"ARK_REGION" envDefault:"cn-beijing"`
	Temperature *float64 `env:"ARK_TEMPERATURE"`
	TopP        *float64 `env:"ARK_TOP_P"`
	MaxTokens   *int     `env:"ARK_MAX_TOKENS"`
}

// Enabled reports whether the required model credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds a model instance from this configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark credentials missing: provide ARK_API_KEY+ARK_MODEL or the AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

// SpeechConfig describes the upstream ASR/TTS provider.
type SpeechConfig struct {
	AppID       string  `env:"SPEECH_APP_ID"`
	AccessToken string  `env:"SPEECH_ACCESS_TOKEN"`
	BaseURL     string  `env:"SPEECH_BASE_URL" envDefault:"wss://openspeech.bytedance.com/api/v3"`
	ASRModel    string  `env:"SPEECH_ASR_MODEL" envDefault:"bigmodel"`
	ASRLanguage string  `env:"SPEECH_ASR_LANGUAGE" envDefault:"hu-HU"`
	TTSVoice    string  `env:"SPEECH_TTS_VOICE"`
	TTSSpeed    float32 `env:"SPEECH_TTS_SPEED" envDefault:"1.0"`
	TTSVolume   float32 `env:"SPEECH_TTS_VOLUME" envDefault:"1.0"`
	TTSLanguage string  `env:"SPEECH_TTS_LANGUAGE" envDefault:"hu-HU"`
	Timeout     int     `env:"SPEECH_TIMEOUT" envDefault:"30"`
}

// Enabled reports whether provider credentials are present.
func (c SpeechConfig) Enabled() bool {
	return strings.TrimSpace(c.AppID) != "" && strings.TrimSpace(c.AccessToken) != ""
}

// ProviderConfig maps the env settings onto the speech client config.
func (c SpeechConfig) ProviderConfig() *speechmodel.Config {
	return &speechmodel.Config{
		AppID:       c.AppID,
		AccessToken: c.AccessToken,
		BaseURL:     c.BaseURL,
		ASRModel:    c.ASRModel,
		ASRLanguage: c.ASRLanguage,
		TTSVoice:    c.TTSVoice,
		TTSSpeed:    c.TTSSpeed,
		TTSVolume:   c.TTSVolume,
		TTSLanguage: c.TTSLanguage,
		Timeout:     c.Timeout,
	}
}
