package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Sink backends selectable with SINK_BACKEND.
const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendKafka    = "kafka"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	SinkBackend string

	MongoURI                string
	MongoDatabase           string
	MongoCollection         string
	MongoMetadataCollection string

	PostgresDSN string
	SQLitePath  string

	KafkaBrokers   []string
	KafkaSinkTopic string

	// Object storage for s3:// inputs.
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3UseSSL    bool

	// SourceMarker and SourceURLPrefix rewrite local paths into the archive URL
	// stored as source_file.
	SourceMarker    string
	SourceURLPrefix string

	// LabelDimensions extends the default set of text label dimensions.
	LabelDimensions    []string
	AttributeCacheSize int

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is read first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cacheSize, err := parsePositiveInt("ATTRIBUTE_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}

	useSSL, err := parseBool("S3_USE_SSL", true)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		SinkBackend: strings.ToLower(sharedcfg.EnvOrDefault("SINK_BACKEND", BackendMongo)),

		MongoURI:                sharedcfg.EnvOrDefault("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:           sharedcfg.EnvOrDefault("MONGODB_DATABASE", "argo"),
		MongoCollection:         sharedcfg.EnvOrDefault("MONGODB_COLLECTION", "argo"),
		MongoMetadataCollection: sharedcfg.EnvOrDefault("MONGODB_METADATA_COLLECTION", "argo_metadata"),

		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		SQLitePath:  sharedcfg.EnvOrDefault("SQLITE_PATH", "argo.db"),

		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "argo-profiles"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    os.Getenv("S3_REGION"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3UseSSL:    useSSL,

		SourceMarker:    sharedcfg.EnvOrDefault("SOURCE_MARKER", "ifremer/"),
		SourceURLPrefix: sharedcfg.EnvOrDefault("SOURCE_URL_PREFIX", "ftp://ftp.ifremer.fr/ifremer/argo/dac/"),

		LabelDimensions:    splitList(os.Getenv("LABEL_DIMENSIONS")),
		AttributeCacheSize: cacheSize,

		// HTTP_ADDR set to an empty string disables the server.
		HTTPAddr:        envOrDefaultAllowEmpty("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.SinkBackend {
	case BackendMongo:
		if c.MongoURI == "" {
			return errors.New("MONGODB_URI is required for the mongo backend")
		}
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required for the postgres backend")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite backend")
		}
	case BackendKafka:
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required for the kafka backend")
		}
		if c.KafkaSinkTopic == "" {
			return errors.New("KAFKA_SINK_TOPIC is required for the kafka backend")
		}
	default:
		return fmt.Errorf("invalid SINK_BACKEND %q", c.SinkBackend)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q", c.LogFormat)
	}
	return nil
}

// S3Enabled reports whether object storage credentials are configured.
func (c *Config) S3Enabled() bool {
	return c.S3Endpoint != ""
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return n, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", key, s)
	}
	return b, nil
}

func envOrDefaultAllowEmpty(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
