package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 统一配置结构
type Config struct {
	Server  ServerConfig
	Log     LogConfig
	Session SessionConfig
	Audit   AuditConfig
	AI      AIConfig
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Env                string // dev, staging, production
	Port               string
	CORSAllowedOrigins []string
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // console, json
}

// SessionConfig 会话生命周期配置
type SessionConfig struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
}

// AuditConfig 分类审计日志配置
type AuditConfig struct {
	LogPath string
}

// AIConfig 来自 YAML 文件的 AI 端点配置
type AIConfig struct {
	Endpoint    EndpointConfig    `yaml:"endpoint"`
	Translation TranslationConfig `yaml:"translation"`
	Speech      SpeechConfig      `yaml:"speech"`
	Health      HealthConfig      `yaml:"health"`
}

// EndpointConfig chat-completions 端点配置。BaseURL 为空时服务以降级
// 模式启动（mock 分类器，无描述/翻译能力）。
type EndpointConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
	Timeout   string `yaml:"timeout"`
}

// TranslationConfig 翻译请求队列配置
type TranslationConfig struct {
	MaxConcurrent  int64  `yaml:"max_concurrent"`
	MaxAttempts    int    `yaml:"max_attempts"`
	InitialBackoff string `yaml:"initial_backoff"`
}

// SpeechConfig 语音合成端点配置，Endpoint 为空时朗读功能不可用
type SpeechConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// HealthConfig AI 端点健康检查配置
type HealthConfig struct {
	CheckInterval string `yaml:"check_interval"`
	FailThreshold int    `yaml:"fail_threshold"`
}

// GlobalConfig 全局配置实例
var GlobalConfig *Config

// LoadConfig 从环境变量加载服务配置；AI_CONFIG_PATH 指向的 YAML 文件
// （如存在）提供 AI 端点配置
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Env:                getEnv("ENV", "dev"),
			Port:               getEnv("PORT", "8000"),
			CORSAllowedOrigins: parseStringList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:9002")),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		Session: SessionConfig{
			IdleTTL:       getEnvDuration("SESSION_IDLE_TTL", 30*time.Minute),
			SweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", time.Minute),
		},
		Audit: AuditConfig{
			LogPath: getEnv("AUDIT_LOG_PATH", "./audit_logs/classifications.log"),
		},
	}

	aiPath := getEnv("AI_CONFIG_PATH", "")
	if aiPath != "" {
		ai, err := LoadAIConfig(aiPath)
		if err != nil {
			return nil, err
		}
		cfg.AI = *ai
	}

	GlobalConfig = cfg
	return cfg, nil
}

// LoadAIConfig 读取并解析 AI 端点 YAML 配置
func LoadAIConfig(path string) (*AIConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read AI config file: %w", err)
	}

	var ai AIConfig
	if err := yaml.Unmarshal(data, &ai); err != nil {
		return nil, fmt.Errorf("failed to parse AI config: %w", err)
	}
	return &ai, nil
}

// ValidateConfig 验证配置的有效性，汇总所有问题后一次性返回
func ValidateConfig(cfg *Config) error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid PORT value: %s (must be 1-65535)", cfg.Server.Port))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Log.Level] {
		errors = append(errors, fmt.Sprintf("invalid LOG_LEVEL: %s (must be: debug, info, warn, error)", cfg.Log.Level))
	}

	validLogFormats := map[string]bool{"console": true, "json": true}
	if !validLogFormats[cfg.Log.Format] {
		errors = append(errors, fmt.Sprintf("invalid LOG_FORMAT: %s (must be: console, json)", cfg.Log.Format))
	}

	validEnvs := map[string]bool{"dev": true, "development": true, "staging": true, "production": true}
	if !validEnvs[cfg.Server.Env] {
		errors = append(errors, fmt.Sprintf("invalid ENV: %s (must be: dev, development, staging, production)", cfg.Server.Env))
	}

	if cfg.Session.IdleTTL <= 0 {
		errors = append(errors, "SESSION_IDLE_TTL must be positive")
	}

	if cfg.AI.Endpoint.BaseURL != "" {
		if cfg.AI.Endpoint.Model == "" {
			errors = append(errors, "ai endpoint.model is required when endpoint.base_url is set")
		}
		if cfg.AI.Endpoint.Timeout != "" {
			if _, err := time.ParseDuration(cfg.AI.Endpoint.Timeout); err != nil {
				errors = append(errors, fmt.Sprintf("invalid ai endpoint.timeout: %s", cfg.AI.Endpoint.Timeout))
			}
		}
		if cfg.AI.Translation.InitialBackoff != "" {
			if _, err := time.ParseDuration(cfg.AI.Translation.InitialBackoff); err != nil {
				errors = append(errors, fmt.Sprintf("invalid ai translation.initial_backoff: %s", cfg.AI.Translation.InitialBackoff))
			}
		}
		if cfg.AI.Health.CheckInterval != "" {
			if _, err := time.ParseDuration(cfg.AI.Health.CheckInterval); err != nil {
				errors = append(errors, fmt.Sprintf("invalid ai health.check_interval: %s", cfg.AI.Health.CheckInterval))
			}
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// APIKey 解析 API key 环境变量引用
func (e EndpointConfig) APIKey() string {
	if e.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(e.APIKeyEnv)
}

// TimeoutDuration 端点超时，未配置时返回默认值
func (e EndpointConfig) TimeoutDuration() time.Duration {
	return parseDurationOr(e.Timeout, 60*time.Second)
}

// InitialBackoffDuration 首次重试延迟，未配置时返回默认值
func (t TranslationConfig) InitialBackoffDuration() time.Duration {
	return parseDurationOr(t.InitialBackoff, 500*time.Millisecond)
}

// CheckIntervalDuration 健康检查间隔，未配置时返回默认值
func (h HealthConfig) CheckIntervalDuration() time.Duration {
	return parseDurationOr(h.CheckInterval, 30*time.Second)
}

// IsProduction 判断是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// IsDevelopment 判断是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "dev" || c.Server.Env == "development"
}

// GetServerAddr 获取服务器监听地址
func (c *Config) GetServerAddr() string {
	return ":" + c.Server.Port
}

// PrintConfig 打印配置（脱敏）
func (c *Config) PrintConfig() string {
	endpoint := c.AI.Endpoint.BaseURL
	if endpoint == "" {
		endpoint = "<not set, degraded mode>"
	}
	speech := c.AI.Speech.Endpoint
	if speech == "" {
		speech = "<not set, read-aloud disabled>"
	}
	return fmt.Sprintf(`Configuration Loaded:
  Environment: %s
  Server Port: %s
  Logging:
    - Level: %s
    - Format: %s
  Session:
    - Idle TTL: %s
    - Sweep Interval: %s
  Audit Log: %s
  AI:
    - Endpoint: %s
    - Model: %s
    - API Key: %s
    - Speech Endpoint: %s
  CORS Origins: %v`,
		c.Server.Env,
		c.Server.Port,
		c.Log.Level,
		c.Log.Format,
		c.Session.IdleTTL,
		c.Session.SweepInterval,
		c.Audit.LogPath,
		endpoint,
		c.AI.Endpoint.Model,
		maskSecret(c.AI.Endpoint.APIKey()),
		speech,
		c.Server.CORSAllowedOrigins,
	)
}

// 辅助函数

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration 获取 duration 类型环境变量，解析失败时返回默认值
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// parseDurationOr 解析 duration 字符串，为空或非法时返回默认值
func parseDurationOr(value string, defaultValue time.Duration) time.Duration {
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

// parseStringList 解析逗号分隔的字符串列表
func parseStringList(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// maskSecret 对敏感信息进行脱敏
func maskSecret(secret string) string {
	if secret == "" {
		return "<not set>"
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "***" + secret[len(secret)-4:]
}
