package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino/components/model"
)

// 支持的模型提供方。
const (
	ProviderOllama = "ollama"
	ProviderArk    = "ark"
)

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider          string `yaml:"provider"`
	Model             string `yaml:"model"`
	ModelFamily       string `yaml:"model_family"`
	OllamaHost        string `yaml:"ollama_host"`
	TimeoutSeconds    int    `yaml:"timeout_seconds"`
	EmotionLLMEnabled bool   `yaml:"emotion_llm_enabled"`

	// Ark 托管模型
	APIKey    string `yaml:"-"`
	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
	BaseURL   string `yaml:"ark_base_url"`
	Region    string `yaml:"ark_region"`
}

func defaultAIConfig() AIConfig {
	return AIConfig{
		Provider:          ProviderOllama,
		Model:             "gemma3n:e4b",
		ModelFamily:       "gemma",
		OllamaHost:        "http://localhost:11434",
		TimeoutSeconds:    120,
		EmotionLLMEnabled: true,
		BaseURL:           "https://ark.cn-beijing.volces.com/api/v3",
		Region:            "cn-beijing",
	}
}

// Timeout 单次模型调用超时。
func (c AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c AIConfig) validate() error {
	switch c.Provider {
	case ProviderOllama:
		if c.OllamaHost == "" {
			return fmt.Errorf("ollama host is required")
		}
	case ProviderArk:
		if c.APIKey == "" && (c.AccessKey == "" || c.SecretKey == "") {
			return fmt.Errorf("Ark 凭证缺失，至少提供 ARK_API_KEY 或 AK/SK 组合")
		}
	default:
		return fmt.Errorf("unknown AI provider %q", c.Provider)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("AI model name is required")
	}
	return nil
}

// NewChatModel 使用配置创建一个模型实例。modelName 为空时使用配置中的模型。
func (c AIConfig) NewChatModel(ctx context.Context, modelName string) (model.BaseChatModel, error) {
	if modelName == "" {
		modelName = c.Model
	}

	switch c.Provider {
	case ProviderArk:
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:   c.BaseURL,
			Region:    c.Region,
			APIKey:    c.APIKey,
			AccessKey: c.AccessKey,
			SecretKey: c.SecretKey,
			Model:     modelName,
		})
	case ProviderOllama:
		return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: c.OllamaHost,
			Model:   modelName,
			Timeout: c.Timeout(),
		})
	default:
		return nil, fmt.Errorf("unknown AI provider %q", c.Provider)
	}
}

func applyAIEnv(ai *AIConfig) error {
	ai.Provider = strings.ToLower(getEnvOrDefault("AI_PROVIDER", ai.Provider))
	ai.Model = getEnvOrDefault("GEMMA_MODEL", ai.Model)
	ai.ModelFamily = getEnvOrDefault("AI_MODEL_FAMILY", ai.ModelFamily)
	ai.OllamaHost = getEnvOrDefault("OLLAMA_HOST", ai.OllamaHost)

	timeout, err := parseOptionalIntEnv("AI_TIMEOUT")
	if err != nil {
		return err
	}
	if timeout != nil {
		ai.TimeoutSeconds = *timeout
	}

	emotionEnabled, err := parseBoolEnv("AI_EMOTION_LLM_ENABLED", ai.EmotionLLMEnabled)
	if err != nil {
		return err
	}
	ai.EmotionLLMEnabled = emotionEnabled

	ai.APIKey = strings.TrimSpace(os.Getenv("ARK_API_KEY"))
	ai.AccessKey = strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY"))
	ai.SecretKey = strings.TrimSpace(os.Getenv("ARK_SECRET_KEY"))
	ai.BaseURL = getEnvOrDefault("ARK_BASE_URL", ai.BaseURL)
	ai.Region = getEnvOrDefault("ARK_REGION", ai.Region)
	if ai.Provider == ProviderArk {
		ai.Model = getEnvOrDefault("ARK_MODEL", ai.Model)
	}
	return nil
}
