package cmd

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app       = "reasm"
	envPrefix = "REASM"
)

type Config struct {
	Matching  MatchingConfig  `mapstructure:"matching"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Index     IndexConfig     `mapstructure:"index"`
	Server    ServerConfig    `mapstructure:"server"`
	Extractor string          `mapstructure:"extractor" validate:"oneof=lexicon llm"`
}

type MatchingConfig struct {
	Strategy        string        `mapstructure:"strategy" validate:"oneof=llm embedding hybrid"`
	Threshold       float64       `mapstructure:"threshold" validate:"gt=0,lte=1"`
	StrongThreshold float64       `mapstructure:"strong-threshold" validate:"gt=0,lte=1,gtefield=Threshold"`
	TopK            int           `mapstructure:"top-k" validate:"gte=1,lte=100"`
	Concurrency     int           `mapstructure:"concurrency" validate:"gte=1,lte=64"`
	CleanupTimeout  time.Duration `mapstructure:"cleanup-timeout" validate:"gte=0"`
}

type PipelineConfig struct {
	Timeout         time.Duration `mapstructure:"timeout" validate:"gte=0"`
	MinResumeLength int           `mapstructure:"min-resume-length" validate:"gte=1"`
	MinJDLength     int           `mapstructure:"min-jd-length" validate:"gte=1"`
	MaxPages        int           `mapstructure:"max-pages" validate:"gte=0"`
}

type GeminiConfig struct {
	APIKey         string  `mapstructure:"api-key" json:"-"`
	APIKeyFile     string  `mapstructure:"api-key-file"`
	Model          string  `mapstructure:"model"`
	EmbeddingModel string  `mapstructure:"embedding-model"`
	MaxRetries     int     `mapstructure:"max-retries" validate:"gte=0,lte=10"`
	MaxLogLength   int     `mapstructure:"max-log-length" validate:"gte=0"`
	Temperature    float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
}

type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider" validate:"oneof=gemini hashing"`
	Dimensions int    `mapstructure:"dimensions" validate:"required_if=Provider hashing,gte=0"`
}

type IndexConfig struct {
	Provider string         `mapstructure:"provider" validate:"oneof=memory pinecone pgvector"`
	Pinecone PineconeConfig `mapstructure:"pinecone"`
	PGVector PGVectorConfig `mapstructure:"pgvector"`
}

type PineconeConfig struct {
	Host       string        `mapstructure:"host"`
	APIKey     string        `mapstructure:"api-key" json:"-"`
	APIKeyFile string        `mapstructure:"api-key-file"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type PGVectorConfig struct {
	URL     string `mapstructure:"url" json:"-"`
	URLFile string `mapstructure:"url-file"`
	Migrate bool   `mapstructure:"migrate"`
}

type ServerConfig struct {
	Addr           string `mapstructure:"addr" validate:"required"`
	MaxUploadBytes int64  `mapstructure:"max-upload-bytes" validate:"gte=1024"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "reasm compares a resume with a job description and explains the skill fit",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is reasm.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("extractor", "lexicon")

	v.SetDefault("matching.strategy", "hybrid")
	v.SetDefault("matching.threshold", 0.75)
	v.SetDefault("matching.strong-threshold", 0.85)
	v.SetDefault("matching.top-k", 3)
	v.SetDefault("matching.concurrency", 4)
	v.SetDefault("matching.cleanup-timeout", 10*time.Second)

	v.SetDefault("pipeline.timeout", 2*time.Minute)
	v.SetDefault("pipeline.min-resume-length", 50)
	v.SetDefault("pipeline.min-jd-length", 20)
	v.SetDefault("pipeline.max-pages", 20)

	v.SetDefault("gemini.api-key", "")
	v.SetDefault("gemini.api-key-file", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.embedding-model", "text-embedding-004")
	v.SetDefault("gemini.max-retries", 3)
	v.SetDefault("gemini.max-log-length", 2000)
	v.SetDefault("gemini.temperature", 0.2)

	v.SetDefault("embedding.provider", "gemini")
	v.SetDefault("embedding.dimensions", 256)

	v.SetDefault("index.provider", "memory")
	v.SetDefault("index.pinecone.host", "")
	v.SetDefault("index.pinecone.api-key", "")
	v.SetDefault("index.pinecone.api-key-file", "")
	v.SetDefault("index.pinecone.timeout", 15*time.Second)
	v.SetDefault("index.pgvector.url", "")
	v.SetDefault("index.pgvector.url-file", "")
	v.SetDefault("index.pgvector.migrate", true)

	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.max-upload-bytes", 10<<20)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// A missing default config is fine: defaults and REASM_* env vars still apply.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	config.Matching.Strategy = strings.ToLower(strings.TrimSpace(config.Matching.Strategy))
	config.Embedding.Provider = strings.ToLower(strings.TrimSpace(config.Embedding.Provider))
	config.Index.Provider = strings.ToLower(strings.TrimSpace(config.Index.Provider))
	config.Extractor = strings.ToLower(strings.TrimSpace(config.Extractor))

	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}
