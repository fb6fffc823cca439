package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrMissingCredential = errors.New("missing credential")

const (
	ProviderDoubao = "doubao"
	ProviderOpenAI = "openai"
	ProviderQwen   = "qwen"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Model   ModelConfig   `mapstructure:"model"`
	Doubao  DoubaoConfig  `mapstructure:"doubao"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Qwen    QwenConfig    `mapstructure:"qwen"`
	Agent   AgentConfig   `mapstructure:"agent"`
	Output  OutputConfig  `mapstructure:"output"`
	History HistoryConfig `mapstructure:"history"`
	Image   ImageConfig   `mapstructure:"image"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Crawl   CrawlConfig   `mapstructure:"crawl"`
	MCP     MCPConfig     `mapstructure:"mcp"`
	Publish PublishConfig `mapstructure:"publish"`
	CORS    CORSConfig    `mapstructure:"cors"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
	GenerateTimeout time.Duration `mapstructure:"generate_timeout"`
	Mode            string        `mapstructure:"mode"`
}

type ModelConfig struct {
	Provider string `mapstructure:"provider"`
}

type DoubaoConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type QwenConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	Model        string        `mapstructure:"model"`
	MaxTokens    int           `mapstructure:"max_tokens"`
	Temperature  float32       `mapstructure:"temperature"`
	TopP         float32       `mapstructure:"top_p"`
	Timeout      time.Duration `mapstructure:"timeout"`
	DebugRequest bool          `mapstructure:"debug_request"`
}

type AgentConfig struct {
	// 为空时使用内置的网站生成指令模板
	InstructionPrompt string `mapstructure:"instruction_prompt"`
	SystemPrompt      string `mapstructure:"system_prompt"`
	MaxSteps          int    `mapstructure:"max_steps"`
	EnableTools       bool   `mapstructure:"enable_tools"`
	LogDetail         bool   `mapstructure:"log_detail"`
}

type OutputConfig struct {
	Dir         string `mapstructure:"dir"`
	ArchiveName string `mapstructure:"archive_name"`
}

type HistoryConfig struct {
	Type string `mapstructure:"type"`
	Path string `mapstructure:"path"`
}

type ImageConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	FallbackURL  string        `mapstructure:"fallback_url"`
	DefaultQuery string        `mapstructure:"default_query"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
	Prefix   string        `mapstructure:"prefix"`
}

type CrawlConfig struct {
	Enabled         bool                `mapstructure:"enabled"`
	Timeout         time.Duration       `mapstructure:"timeout"`
	RandomUserAgent bool                `mapstructure:"random_user_agent"`
	MaxHeadings     int                 `mapstructure:"max_headings"`
	Sites           map[string][]string `mapstructure:"sites"`
}

type MCPConfig struct {
	Servers []MCPServerConfig `mapstructure:"servers"`
	Timeout time.Duration     `mapstructure:"timeout"`
}

type MCPServerConfig struct {
	Name    string `mapstructure:"name"`
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

type PublishConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "10m")
	v.SetDefault("server.max_header_bytes", 1<<20)
	v.SetDefault("server.generate_timeout", "5m")
	v.SetDefault("server.mode", "release")

	v.SetDefault("model.provider", "doubao")
	v.SetDefault("doubao.model", "doubao-seed-1-6-250615")
	v.SetDefault("doubao.timeout", "3m")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.timeout", "3m")
	v.SetDefault("qwen.base_url", "https://dashscope.aliyuncs.com/compatible-mode/v1")
	v.SetDefault("qwen.model", "qwen-plus")
	v.SetDefault("qwen.max_tokens", 8192)
	v.SetDefault("qwen.temperature", 0.7)
	v.SetDefault("qwen.top_p", 0.9)
	v.SetDefault("qwen.timeout", "3m")
	v.SetDefault("qwen.debug_request", false)

	v.SetDefault("agent.instruction_prompt", "")
	v.SetDefault("agent.system_prompt", "")
	v.SetDefault("agent.max_steps", 12)
	v.SetDefault("agent.enable_tools", true)
	v.SetDefault("agent.log_detail", false)

	v.SetDefault("output.dir", "./outputs")
	v.SetDefault("output.archive_name", "website_package.zip")
	v.SetDefault("history.type", "disk")
	v.SetDefault("history.path", "./history/chat_history.json")

	v.SetDefault("image.api_key", "")
	v.SetDefault("image.base_url", "https://api.pexels.com")
	v.SetDefault("image.fallback_url", "https://picsum.photos/800/400")
	v.SetDefault("image.default_query", "modern website")
	v.SetDefault("image.timeout", "10s")

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.prefix", "webweaver:image:")

	v.SetDefault("crawl.enabled", true)
	v.SetDefault("crawl.timeout", "15s")
	v.SetDefault("crawl.random_user_agent", true)
	v.SetDefault("crawl.max_headings", 8)

	v.SetDefault("mcp.timeout", "30s")

	v.SetDefault("publish.enabled", false)
	v.SetDefault("publish.bucket", "")
	v.SetDefault("publish.prefix", "sites")
	v.SetDefault("publish.region", "us-east-1")
	v.SetDefault("publish.endpoint", "")

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept"})
	v.SetDefault("cors.max_age", 600)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load 读取 .env、配置文件和环境变量；配置文件不存在时只用默认值
func Load(configPath string) (*Config, error) {
	// .env 可选，缺失时忽略
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("WEBWEAVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", configPath, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat config %s: %w", configPath, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	applyEnvFallbacks(cfg)
	return cfg, nil
}

// 配置文件优先，如果配置文件中没有设置，则使用常见的环境变量名
func applyEnvFallbacks(cfg *Config) {
	fill := func(dst *string, names ...string) {
		if *dst != "" {
			return
		}
		for _, name := range names {
			if val := os.Getenv(name); val != "" {
				*dst = val
				return
			}
		}
	}

	fill(&cfg.Doubao.APIKey, "ARK_API_KEY", "DOUBAO_API_KEY")
	fill(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	fill(&cfg.Qwen.APIKey, "DASHSCOPE_API_KEY", "QWEN_API_KEY")
	fill(&cfg.Image.APIKey, "PEXELS_KEY", "PEXELS_API_KEY")
}

// Validate 生成模型的密钥缺失视为致命错误；图片搜索密钥缺失只会降级
func (c *Config) Validate() error {
	var key string
	switch c.Model.Provider {
	case ProviderDoubao:
		key = c.Doubao.APIKey
	case ProviderOpenAI:
		key = c.OpenAI.APIKey
	case ProviderQwen:
		key = c.Qwen.APIKey
	default:
		return fmt.Errorf("unsupported model provider: %q", c.Model.Provider)
	}
	if key == "" {
		return fmt.Errorf("%w: api key for model provider %q", ErrMissingCredential, c.Model.Provider)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Agent.MaxSteps <= 0 {
		return fmt.Errorf("agent.max_steps must be positive, got %d", c.Agent.MaxSteps)
	}
	if c.Output.Dir == "" || c.Output.ArchiveName == "" {
		return errors.New("output.dir and output.archive_name are required")
	}
	if c.Publish.Enabled && c.Publish.Bucket == "" {
		return errors.New("publish.bucket is required when publish is enabled")
	}
	return nil
}
