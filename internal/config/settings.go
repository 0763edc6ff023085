package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"proxycheck/internal/domain"
	"proxycheck/internal/support"
)

// TargetURL is the page every proxy is asked to fetch.
const TargetURL = "https://httpbin.org/ip"

const (
	DefaultScheme         = "http"
	DefaultTimeoutSeconds = 10
	DefaultThreads        = 5
	DefaultOutputFile     = "proxy_output.txt"
	DefaultRedisKey       = "proxycheck:proxies"
)

const (
	SourceFile     = "file"
	SourceRedis    = "redis"
	SourceDatabase = "database"
)

var (
	ErrMissingProxyFile  = errors.New("config: --proxy-file is required")
	ErrProxyFileNotFound = errors.New("config: proxy file does not exist")
	ErrInvalidScheme     = errors.New("config: --type must be one of http, socks4, socks5")
	ErrInvalidTimeout    = errors.New("config: --timeout must be an integer >= 1")
	ErrInvalidThreads    = errors.New("config: --threads must be an integer >= 1")
	ErrInvalidRate       = errors.New("config: --rate must be >= 0")
	ErrMissingOutputFile = errors.New("config: --output-file must not be empty")
	ErrInvalidSource     = errors.New("config: --source must be one of file, redis, database")
	ErrMissingRedisKey   = errors.New("config: --redis-key must not be empty")
)

type Config struct {
	ProxyFile  string         `yaml:"proxy_file"`
	Type       string         `yaml:"type"`
	Timeout    int            `yaml:"timeout"`
	Threads    int            `yaml:"threads"`
	OutputFile string         `yaml:"output_file"`
	Source     string         `yaml:"source"`
	RedisURL   string         `yaml:"redis_url"`
	RedisKey   string         `yaml:"redis_key"`
	Database   DatabaseConfig `yaml:"database"`
	Rate       float64        `yaml:"rate"`
	GeoLiteDB  string         `yaml:"geolite_db"`
	Verbose    bool           `yaml:"verbose"`

	ConfigFile  string `yaml:"-"`
	ShowVersion bool   `yaml:"-"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Name     string `yaml:"name"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

func Default() Config {
	return Config{
		Type:       DefaultScheme,
		Timeout:    DefaultTimeoutSeconds,
		Threads:    DefaultThreads,
		OutputFile: DefaultOutputFile,
		Source:     SourceFile,
		RedisKey:   DefaultRedisKey,
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5434",
			Name:     "proxycheck",
			Username: "admin",
			Password: "admin",
		},
	}
}

// Load resolves the configuration from defaults, an optional YAML file, the
// environment and finally the command line, then validates it.
func Load(args []string, output io.Writer) (Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("proxycheck", flag.ContinueOnError)
	if output != nil {
		fs.SetOutput(output)
	}

	var flags Config
	fs.StringVar(&flags.ProxyFile, "proxy-file", "", "File containing proxy list (ip:port per line)")
	fs.StringVar(&flags.Type, "type", DefaultScheme, "Proxy type: "+strings.Join(domain.SchemeNames(), ", "))
	fs.IntVar(&flags.Timeout, "timeout", DefaultTimeoutSeconds, "Timeout for each proxy check in seconds")
	fs.IntVar(&flags.Threads, "threads", DefaultThreads, "Number of concurrent proxy checks")
	fs.StringVar(&flags.OutputFile, "output-file", DefaultOutputFile, "File to save working proxies")
	fs.StringVar(&flags.Source, "source", SourceFile, "Where to read proxies from: file, redis, database")
	fs.StringVar(&flags.RedisKey, "redis-key", DefaultRedisKey, "Redis list holding proxies when --source=redis")
	fs.Float64Var(&flags.Rate, "rate", 0, "Maximum proxy checks started per second (0 = unlimited)")
	fs.StringVar(&flags.GeoLiteDB, "geolite-db", "", "Optional GeoLite2-Country.mmdb used to annotate working proxies")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Log every failed proxy")
	fs.StringVar(&flags.ConfigFile, "config", "", "Optional YAML configuration file")
	fs.BoolVar(&flags.ShowVersion, "version", false, "Print version information and exit")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if flags.ShowVersion {
		cfg.ShowVersion = true
		return cfg, nil
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})

	cfg.ConfigFile = support.GetEnv("PROXYCHECK_CONFIG", "")
	if set["config"] {
		cfg.ConfigFile = flags.ConfigFile
	}
	if cfg.ConfigFile != "" {
		if err := cfg.readFile(cfg.ConfigFile); err != nil {
			return cfg, err
		}
	}

	cfg.applyEnv()
	cfg.applyFlags(flags, set)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	log.Debug("Configuration loaded", "source", cfg.Source, "type", cfg.Type, "threads", cfg.Threads, "timeout", cfg.Timeout)
	return cfg, nil
}

func (cfg *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	return nil
}

func (cfg *Config) applyEnv() {
	cfg.ProxyFile = support.GetEnv("PROXYCHECK_PROXY_FILE", cfg.ProxyFile)
	cfg.Type = support.GetEnv("PROXYCHECK_TYPE", cfg.Type)
	cfg.Timeout = support.GetEnvInt("PROXYCHECK_TIMEOUT", cfg.Timeout)
	cfg.Threads = support.GetEnvInt("PROXYCHECK_THREADS", cfg.Threads)
	cfg.OutputFile = support.GetEnv("PROXYCHECK_OUTPUT_FILE", cfg.OutputFile)
	cfg.Source = support.GetEnv("PROXYCHECK_SOURCE", cfg.Source)
	cfg.RedisURL = support.GetEnv("redisUrl", cfg.RedisURL)
	cfg.RedisKey = support.GetEnv("PROXYCHECK_REDIS_KEY", cfg.RedisKey)
	cfg.Rate = support.GetEnvFloat("PROXYCHECK_RATE", cfg.Rate)
	cfg.GeoLiteDB = support.GetEnv("PROXYCHECK_GEOLITE_DB", cfg.GeoLiteDB)
	cfg.Verbose = support.GetEnvBool("PROXYCHECK_VERBOSE", cfg.Verbose)

	cfg.Database.Host = support.GetEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = support.GetEnv("DB_PORT", cfg.Database.Port)
	cfg.Database.Name = support.GetEnv("DB_NAME", cfg.Database.Name)
	cfg.Database.Username = support.GetEnv("DB_USERNAME", cfg.Database.Username)
	cfg.Database.Password = support.GetEnv("DB_PASSWORD", cfg.Database.Password)
}

func (cfg *Config) applyFlags(flags Config, set map[string]bool) {
	if set["proxy-file"] {
		cfg.ProxyFile = flags.ProxyFile
	}
	if set["type"] {
		cfg.Type = flags.Type
	}
	if set["timeout"] {
		cfg.Timeout = flags.Timeout
	}
	if set["threads"] {
		cfg.Threads = flags.Threads
	}
	if set["output-file"] {
		cfg.OutputFile = flags.OutputFile
	}
	if set["source"] {
		cfg.Source = flags.Source
	}
	if set["redis-key"] {
		cfg.RedisKey = flags.RedisKey
	}
	if set["rate"] {
		cfg.Rate = flags.Rate
	}
	if set["geolite-db"] {
		cfg.GeoLiteDB = flags.GeoLiteDB
	}
	if set["verbose"] {
		cfg.Verbose = flags.Verbose
	}
}

// Validate reports every problem at once so the operator can fix them in a
// single pass.
func (cfg Config) Validate() error {
	var errs []error

	if _, err := domain.ParseScheme(cfg.Type); err != nil {
		errs = append(errs, fmt.Errorf("%w, got %q", ErrInvalidScheme, cfg.Type))
	}
	if cfg.Timeout < 1 {
		errs = append(errs, fmt.Errorf("%w, got %d", ErrInvalidTimeout, cfg.Timeout))
	}
	if cfg.Threads < 1 {
		errs = append(errs, fmt.Errorf("%w, got %d", ErrInvalidThreads, cfg.Threads))
	}
	if cfg.Rate < 0 {
		errs = append(errs, fmt.Errorf("%w, got %v", ErrInvalidRate, cfg.Rate))
	}
	if strings.TrimSpace(cfg.OutputFile) == "" {
		errs = append(errs, ErrMissingOutputFile)
	}

	switch cfg.Source {
	case SourceFile:
		if strings.TrimSpace(cfg.ProxyFile) == "" {
			errs = append(errs, ErrMissingProxyFile)
		} else if !support.FileExists(cfg.ProxyFile) {
			errs = append(errs, fmt.Errorf("%w: %s", ErrProxyFileNotFound, cfg.ProxyFile))
		}
	case SourceRedis:
		if strings.TrimSpace(cfg.RedisKey) == "" {
			errs = append(errs, ErrMissingRedisKey)
		}
	case SourceDatabase:
	default:
		errs = append(errs, fmt.Errorf("%w, got %q", ErrInvalidSource, cfg.Source))
	}

	return errors.Join(errs...)
}

// RunConfig projects the settings the checker needs. It assumes Validate
// has passed.
func (cfg Config) RunConfig() domain.RunConfiguration {
	scheme, _ := domain.ParseScheme(cfg.Type)
	return domain.RunConfiguration{
		TargetURL:     TargetURL,
		Scheme:        scheme,
		Timeout:       SecondsToDuration(cfg.Timeout),
		MaxConcurrent: cfg.Threads,
		StartRate:     cfg.Rate,
	}
}

// DSN builds the postgres connection string for the database source.
func (cfg Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Name,
	)
}
