package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	StoreTypeJSON  = "json"
	StoreTypeRedis = "redis"

	envRedisURL = "REDIS_URL"

	defaultListen         = ":8080"
	defaultDBPath         = "jobs.json"
	defaultStatsFileName  = "stats.yml"
	defaultHeaderFileName = "report.md"
	defaultReportFileName = "report.html"

	// The shipped default only copies, real transformations are supplied by
	// the operator (ffmpeg and friends).
	defaultProcessorCommand = "cp {{.Input}} {{.Output}}"
)

var defaultExtensions = []string{".mp4", ".mp3", ".wav"}

type OrchestratorConfig struct {
	InputPath  string   `yaml:"input_path"`
	OutputDir  string   `yaml:"output_dir"`
	Extensions []string `yaml:"extensions"`
	Force      bool     `yaml:"force"`
}

type StoreConfig struct {
	Type     string `yaml:"type"`
	DBPath   string `yaml:"db_path"`
	RedisURL string `yaml:"redis_url"`
}

type ReportConfig struct {
	HeaderFileName string `yaml:"header_filename"`
	ReportFileName string `yaml:"report_filename"`
}

type ProcessorConfig struct {
	Command string `yaml:"command"`
}

type Config struct {
	Listen        string             `yaml:"listen"`
	LogLevel      string             `yaml:"log_level"`
	StatsFileName string             `yaml:"stats_filename"`
	Orchestrator  OrchestratorConfig `yaml:"orchestrator"`
	Store         StoreConfig        `yaml:"store"`
	Report        ReportConfig       `yaml:"report"`
	Processor     ProcessorConfig    `yaml:"processor"`
}

func Load(path string) (*Config, error) {
	// A local .env may override the environment, missing is fine.
	_ = godotenv.Load()

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file: %w", err)
	}

	cfg.applyDefaults()

	if url := os.Getenv(envRedisURL); url != "" {
		cfg.Store.RedisURL = url
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}

	if c.LogLevel == "" {
		c.LogLevel = LogLevelInfo
	}

	if c.StatsFileName == "" {
		c.StatsFileName = defaultStatsFileName
	}

	if len(c.Orchestrator.Extensions) == 0 {
		c.Orchestrator.Extensions = defaultExtensions
	}

	if c.Store.Type == "" {
		c.Store.Type = StoreTypeJSON
	}

	if c.Store.DBPath == "" {
		c.Store.DBPath = defaultDBPath
	}

	if c.Report.HeaderFileName == "" {
		c.Report.HeaderFileName = filepath.Join(c.Orchestrator.OutputDir, defaultHeaderFileName)
	}

	if c.Report.ReportFileName == "" {
		c.Report.ReportFileName = filepath.Join(c.Orchestrator.OutputDir, defaultReportFileName)
	}

	if c.Processor.Command == "" {
		c.Processor.Command = defaultProcessorCommand
	}
}

func (c *Config) validate() error {
	switch c.Store.Type {
	case StoreTypeJSON:
	case StoreTypeRedis:
		if c.Store.RedisURL == "" {
			return fmt.Errorf("store type is redis but redis_url is empty")
		}
	default:
		return fmt.Errorf("unknown store type: %s", c.Store.Type)
	}

	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return fmt.Errorf("unknown log level: %s", c.LogLevel)
	}

	if c.Orchestrator.InputPath == "" {
		return fmt.Errorf("orchestrator input_path is required")
	}

	if c.Orchestrator.OutputDir == "" {
		return fmt.Errorf("orchestrator output_dir is required")
	}

	return nil
}
