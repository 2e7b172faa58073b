package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Mail      MailConfig
	Corpus    CorpusConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
}

// Load 从环境变量加载配置。缺失的凭证不是错误，非法的取值才是。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	mail, err := loadMailConfig()
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	rateLimit, err := loadRateLimitConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		AI:        ai,
		Mail:      mail,
		Corpus:    loadCorpusConfig(),
		Session:   session,
		RateLimit: rateLimit,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	Env            string
	LogLevel       string
	StaticDir      string
	AllowedOrigins []string
}

// Production 表示是否运行在生产模式，生产模式下不向客户端暴露错误细节。
func (c ServerConfig) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "5001"
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	addr := port
	if !strings.Contains(port, ":") {
		addr = ":" + port
	}

	env := getEnvOrDefault("APP_ENV", os.Getenv("NODE_ENV"))
	if env == "" {
		env = "development"
	}

	return ServerConfig{
		Addr:           addr,
		Env:            env,
		LogLevel:       strings.TrimSpace(os.Getenv("LOG_LEVEL")),
		StaticDir:      strings.TrimSpace(os.Getenv("STATIC_DIR")),
		AllowedOrigins: parseListEnv("CORS_ALLOWED_ORIGINS"),
	}, nil
}

// Provider names a generative-language backend.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderArk    Provider = "ark"
	ProviderOpenAI Provider = "openai"
)

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider Provider
	// Owner is the person the portfolio assistants speak about.
	Owner    string

	GeminiAPIKey string
	GeminiModel  string

	ArkAPIKey    string
	ArkAccessKey string
	ArkSecretKey string
	ArkModel     string
	ArkBaseURL   string
	ArkRegion    string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	Temperature    *float64
	TopP           *float64
	MaxTokens      *int
	StreamResponse bool
}

// Enabled 表示当前 provider 是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderArk:
		return c.ArkModel != "" && (c.ArkAPIKey != "" || (c.ArkAccessKey != "" && c.ArkSecretKey != ""))
	case ProviderOpenAI:
		return c.OpenAIAPIKey != "" && c.OpenAIModel != ""
	default:
		return c.GeminiAPIKey != "" && c.GeminiModel != ""
	}
}

// Model 返回当前 provider 使用的模型名。
func (c AIConfig) Model() string {
	switch c.Provider {
	case ProviderArk:
		return c.ArkModel
	case ProviderOpenAI:
		return c.OpenAIModel
	default:
		return c.GeminiModel
	}
}

// MissingCredentials 返回凭证缺失时给客户端的提示。
func (c AIConfig) MissingCredentials() string {
	switch c.Provider {
	case ProviderArk:
		return "Ark credentials or model not configured"
	case ProviderOpenAI:
		return "OpenAI API Key not configured"
	default:
		return "Gemini API Key not configured"
	}
}

func loadAIConfig() (AIConfig, error) {
	provider := Provider(strings.ToLower(getEnvOrDefault("AI_PROVIDER", string(ProviderGemini))))
	switch provider {
	case ProviderGemini, ProviderArk, ProviderOpenAI:
	default:
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q", provider)
	}

	temperature, err := parseOptionalFloatEnv("AI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("AI_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("AI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	stream, err := parseBoolEnv("AI_STREAM", true)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		Provider:       provider,
		Owner:          getEnvOrDefault("PORTFOLIO_OWNER", "Akash Shanmuganathan"),
		GeminiAPIKey:   strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:    getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash-lite"),
		ArkAPIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		ArkAccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		ArkSecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		ArkModel:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		ArkBaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		ArkRegion:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		OpenAIAPIKey:   strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:    getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:  strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		Temperature:    temperature,
		TopP:           topP,
		MaxTokens:      maxTokens,
		StreamResponse: stream,
	}, nil
}

// MailConfig 描述联系表单的 SMTP 发信配置。
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	To       string
}

// Enabled 表示是否配置了发信账号。
func (c MailConfig) Enabled() bool {
	return c.Username != "" && c.Password != ""
}

func loadMailConfig() (MailConfig, error) {
	port := 587
	if override, err := parseOptionalIntEnv("SMTP_PORT"); err != nil {
		return MailConfig{}, err
	} else if override != nil {
		port = *override
	}

	user := strings.TrimSpace(os.Getenv("EMAIL_USER"))
	return MailConfig{
		Host:     getEnvOrDefault("SMTP_HOST", "smtp.gmail.com"),
		Port:     port,
		Username: user,
		Password: strings.TrimSpace(os.Getenv("EMAIL_PASS")),
		To:       getEnvOrDefault("EMAIL_TO", user),
	}, nil
}

// CorpusConfig 描述简历与项目文档的位置。
type CorpusConfig struct {
	ResumePath  string
	ProjectsDir string
}

func loadCorpusConfig() CorpusConfig {
	return CorpusConfig{
		ResumePath:  getEnvOrDefault("RESUME_PATH", "Resume/resume.docx"),
		ProjectsDir: getEnvOrDefault("PROJECTS_DIR", "projects"),
	}
}

// SessionConfig 描述会话记忆的容量与过期策略。
type SessionConfig struct {
	MaxHistory    int
	TTL           time.Duration
	SweepInterval time.Duration
	MaxSessions   int
}

func loadSessionConfig() (SessionConfig, error) {
	maxHistory, err := parseIntEnvOrDefault("SESSION_MAX_HISTORY", 20)
	if err != nil {
		return SessionConfig{}, err
	}

	ttl, err := parseDurationEnv("SESSION_TTL", 30*time.Minute)
	if err != nil {
		return SessionConfig{}, err
	}

	interval, err := parseDurationEnv("SESSION_SWEEP_INTERVAL", 5*time.Minute)
	if err != nil {
		return SessionConfig{}, err
	}
	// the sweep schedule runs on whole seconds
	if interval < time.Second || interval%time.Second != 0 {
		return SessionConfig{}, fmt.Errorf("invalid SESSION_SWEEP_INTERVAL value %q: must be a whole number of seconds, at least 1s", interval)
	}

	maxSessions, err := parseIntEnvOrDefault("SESSION_MAX", 10000)
	if err != nil {
		return SessionConfig{}, err
	}

	return SessionConfig{
		MaxHistory:    maxHistory,
		TTL:           ttl,
		SweepInterval: interval,
		MaxSessions:   maxSessions,
	}, nil
}

// RateLimitConfig 描述每个客户端每分钟允许的请求数，0 表示不限流。
type RateLimitConfig struct {
	ContactPerMinute int
	ChatPerMinute    int
}

func loadRateLimitConfig() (RateLimitConfig, error) {
	contact, err := parseIntEnvOrDefault("CONTACT_RATE_PER_MIN", 5)
	if err != nil {
		return RateLimitConfig{}, err
	}

	chat, err := parseIntEnvOrDefault("CHAT_RATE_PER_MIN", 30)
	if err != nil {
		return RateLimitConfig{}, err
	}

	return RateLimitConfig{ContactPerMinute: contact, ChatPerMinute: chat}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseListEnv(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}

	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
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

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
	}
	return val, nil
}

func parseIntEnvOrDefault(key string, defaultValue int) (int, error) {
	val, err := parseOptionalIntEnv(key)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return defaultValue, nil
	}
	if *val < 0 {
		return 0, fmt.Errorf("invalid %s value %d: must not be negative", key, *val)
	}
	return *val, nil
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
