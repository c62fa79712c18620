package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath 默认配置文件路径。
const DefaultPath = "config.yaml"

// Config 聚合整个服务的配置项。
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Log          LogConfig          `yaml:"log"`
	AI           AIConfig           `yaml:"ai"`
	Conversation ConversationConfig `yaml:"conversation"`
	Crisis       CrisisConfig       `yaml:"crisis"`
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig 日志配置。
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ConversationConfig 会话管理配置。
type ConversationConfig struct {
	MaxHistory             int `yaml:"max_history"`
	TimeoutSeconds         int `yaml:"timeout_seconds"`
	CleanupIntervalSeconds int `yaml:"cleanup_interval_seconds"`
}

// Timeout returns the idle timeout after which a session expires.
func (c ConversationConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CleanupInterval returns how often expired sessions are swept.
func (c ConversationConfig) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalSeconds) * time.Second
}

// CrisisConfig 危机检测配置。
type CrisisConfig struct {
	ScoreThreshold float64 `yaml:"score_threshold"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8000"},
		Log:    LogConfig{Level: "info", Format: "text"},
		AI:     defaultAIConfig(),
		Conversation: ConversationConfig{
			MaxHistory:             20,
			TimeoutSeconds:         3600,
			CleanupIntervalSeconds: 300,
		},
		Crisis: CrisisConfig{ScoreThreshold: 0.3},
	}
}

// Load 依次应用默认值、YAML 配置文件与环境变量。path 为空或文件不存在时跳过文件。
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := applyServerEnv(&cfg.Server); err != nil {
		return nil, err
	}
	applyLogEnv(&cfg.Log)
	if err := applyAIEnv(&cfg.AI); err != nil {
		return nil, err
	}
	if err := applyConversationEnv(&cfg.Conversation); err != nil {
		return nil, err
	}
	if err := applyCrisisEnv(&cfg.Crisis); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.Conversation.MaxHistory < 1 {
		return fmt.Errorf("conversation max_history must be positive, got %d", c.Conversation.MaxHistory)
	}
	if c.Conversation.TimeoutSeconds < 1 {
		return fmt.Errorf("conversation timeout must be positive, got %d", c.Conversation.TimeoutSeconds)
	}
	if c.Crisis.ScoreThreshold <= 0 || c.Crisis.ScoreThreshold >= 1 {
		return fmt.Errorf("crisis score threshold must be in (0,1), got %v", c.Crisis.ScoreThreshold)
	}
	return c.AI.validate()
}

// applyServerEnv 解析服务器监听地址。
func applyServerEnv(server *ServerConfig) error {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		return nil
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		server.Addr = port
		return nil
	}

	if strings.Contains(port, " ") {
		return fmt.Errorf("invalid PORT value: %q", port)
	}

	server.Addr = ":" + port
	return nil
}

func applyLogEnv(log *LogConfig) {
	log.Level = getEnvOrDefault("LOG_LEVEL", log.Level)
	log.Format = getEnvOrDefault("LOG_FORMAT", log.Format)
}

func applyConversationEnv(conv *ConversationConfig) error {
	maxHistory, err := parseOptionalIntEnv("CONVERSATION_MAX_HISTORY")
	if err != nil {
		return err
	}
	if maxHistory != nil {
		conv.MaxHistory = *maxHistory
	}

	timeout, err := parseOptionalIntEnv("CONVERSATION_TIMEOUT")
	if err != nil {
		return err
	}
	if timeout != nil {
		conv.TimeoutSeconds = *timeout
	}

	interval, err := parseOptionalIntEnv("CONVERSATION_CLEANUP_INTERVAL")
	if err != nil {
		return err
	}
	if interval != nil {
		conv.CleanupIntervalSeconds = *interval
	}
	return nil
}

func applyCrisisEnv(c *CrisisConfig) error {
	threshold, err := parseOptionalFloatEnv("CRISIS_SCORE_THRESHOLD")
	if err != nil {
		return err
	}
	if threshold != nil {
		c.ScoreThreshold = *threshold
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
