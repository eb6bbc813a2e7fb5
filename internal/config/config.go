package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	DB       DBConfig
	S3       S3Config
	Log      LogConfig
	OCR      OCRConfig
	Extract  ExtractConfig
	Validate ValidateConfig
	Enrich   EnrichConfig
	Queue    QueueConfig
	CORS     CORSConfig
	Email    EmailConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds object storage settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OCRProviderConfig holds settings for one recognition backend.
type OCRProviderConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	APIKey      string  `mapstructure:"api_key"`
	Endpoint    string  `mapstructure:"endpoint"`
	Reliability float64 `mapstructure:"reliability"` // historical success rate in [0,1]
}

// OCRConfig holds OCR fusion settings.
type OCRConfig struct {
	Timeout   time.Duration     `mapstructure:"timeout"`
	Tesseract OCRProviderConfig `mapstructure:"tesseract"`
	GVision   OCRProviderConfig `mapstructure:"gvision"`
	AzureRead OCRProviderConfig `mapstructure:"azureread"`
}

// TierConfig describes one extraction model tier.
type TierConfig struct {
	Provider         string        `mapstructure:"provider"`
	Model            string        `mapstructure:"model"`
	APIKey           string        `mapstructure:"api_key"`
	Endpoint         string        `mapstructure:"endpoint"`
	CostPerCall      float64       `mapstructure:"cost_per_call"`      // USD estimate used by the router
	ExpectedAccuracy float64       `mapstructure:"expected_accuracy"`  // per-complexity baseline accuracy
	ExpectedLatency  time.Duration `mapstructure:"expected_latency"`
	TimeoutSecs      int           `mapstructure:"timeout_secs"`
	InputTokenPrice  float64       `mapstructure:"input_token_price"`  // USD per 1M tokens
	OutputTokenPrice float64       `mapstructure:"output_token_price"` // USD per 1M tokens
}

// ExtractConfig holds the extraction tier table.
type ExtractConfig struct {
	Fast     TierConfig `mapstructure:"fast"`
	Balanced TierConfig `mapstructure:"balanced"`
	Premium  TierConfig `mapstructure:"premium"`
}

// ValidateConfig holds validator/scorer tuning. The ceiling and weights were
// chosen empirically against Czech invoices; they are configuration rather
// than constants so they can be recalibrated against a labeled dataset.
type ValidateConfig struct {
	// AccuracyCeiling caps the overall score: no automated extraction may
	// claim near-certain correctness.
	AccuracyCeiling float64 `mapstructure:"accuracy_ceiling"`
	WeightAmount    float64 `mapstructure:"weight_amount"`
	WeightVendor    float64 `mapstructure:"weight_vendor"`
	WeightDate      float64 `mapstructure:"weight_date"`
	WeightInvoiceNo float64 `mapstructure:"weight_invoice_no"`
	WeightCurrency  float64 `mapstructure:"weight_currency"`
	WeightDocType   float64 `mapstructure:"weight_doc_type"`
	// SumTolerance is the absolute tolerance for cross-field arithmetic.
	SumTolerance float64 `mapstructure:"sum_tolerance"`
}

// EnrichConfig holds business-registry enrichment settings.
type EnrichConfig struct {
	Endpoint       string        `mapstructure:"endpoint"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	CacheSize      int           `mapstructure:"cache_size"`
}

// QueueConfig holds process queue worker settings.
type QueueConfig struct {
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`
	MaxRetries       int `mapstructure:"max_retries"`
	Concurrency      int `mapstructure:"concurrency"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// EmailConfig holds email delivery settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
}

// Load reads configuration from environment variables with the DOKLADO_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOKLADO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "doklado")
	v.SetDefault("db.password", "doklado_secret")
	v.SetDefault("db.name", "doklado_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "eu-central-1")
	v.SetDefault("s3.bucket", "doklado-uploads")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 25)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// OCR defaults
	v.SetDefault("ocr.timeout", "30s")
	v.SetDefault("ocr.tesseract.enabled", true)
	v.SetDefault("ocr.tesseract.reliability", 0.72)
	v.SetDefault("ocr.gvision.enabled", false)
	v.SetDefault("ocr.gvision.endpoint", "https://vision.googleapis.com/v1/images:annotate")
	v.SetDefault("ocr.gvision.reliability", 0.90)
	v.SetDefault("ocr.azureread.enabled", false)
	v.SetDefault("ocr.azureread.endpoint", "")
	v.SetDefault("ocr.azureread.reliability", 0.86)

	// Extraction tier defaults
	v.SetDefault("extract.fast.provider", "claude")
	v.SetDefault("extract.fast.model", "claude-haiku-4-5")
	v.SetDefault("extract.fast.cost_per_call", 0.004)
	v.SetDefault("extract.fast.expected_accuracy", 0.72)
	v.SetDefault("extract.fast.expected_latency", "4s")
	v.SetDefault("extract.fast.timeout_secs", 60)
	v.SetDefault("extract.fast.input_token_price", 1.0)
	v.SetDefault("extract.fast.output_token_price", 5.0)
	v.SetDefault("extract.balanced.provider", "openai")
	v.SetDefault("extract.balanced.model", "gpt-4o")
	v.SetDefault("extract.balanced.cost_per_call", 0.02)
	v.SetDefault("extract.balanced.expected_accuracy", 0.83)
	v.SetDefault("extract.balanced.expected_latency", "9s")
	v.SetDefault("extract.balanced.timeout_secs", 90)
	v.SetDefault("extract.balanced.input_token_price", 2.5)
	v.SetDefault("extract.balanced.output_token_price", 10.0)
	v.SetDefault("extract.premium.provider", "claude")
	v.SetDefault("extract.premium.model", "claude-sonnet-4-20250514")
	v.SetDefault("extract.premium.cost_per_call", 0.09)
	v.SetDefault("extract.premium.expected_accuracy", 0.91)
	v.SetDefault("extract.premium.expected_latency", "20s")
	v.SetDefault("extract.premium.timeout_secs", 120)
	v.SetDefault("extract.premium.input_token_price", 3.0)
	v.SetDefault("extract.premium.output_token_price", 15.0)

	// Validator defaults (empirical, Czech invoice corpus)
	v.SetDefault("validate.accuracy_ceiling", 0.85)
	v.SetDefault("validate.weight_amount", 0.25)
	v.SetDefault("validate.weight_vendor", 0.20)
	v.SetDefault("validate.weight_date", 0.20)
	v.SetDefault("validate.weight_invoice_no", 0.15)
	v.SetDefault("validate.weight_currency", 0.10)
	v.SetDefault("validate.weight_doc_type", 0.10)
	v.SetDefault("validate.sum_tolerance", 1.00)

	// Enrichment defaults (ARES)
	v.SetDefault("enrich.endpoint", "https://ares.gov.cz/ekonomicke-subjekty-v-be/rest/ekonomicke-subjekty")
	v.SetDefault("enrich.request_timeout", "5s")
	v.SetDefault("enrich.max_attempts", 3)
	v.SetDefault("enrich.cache_size", 2048)

	// Queue defaults
	v.SetDefault("queue.poll_interval_secs", 5)
	v.SetDefault("queue.max_retries", 3)
	v.SetDefault("queue.concurrency", 4)

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "eu-central-1")
	v.SetDefault("email.from_address", "noreply@doklado.cz")
	v.SetDefault("email.from_name", "Doklado")

	// Bind environment variables explicitly for nested keys
	envKeys := []string{
		"server.port", "server.read_timeout", "server.write_timeout", "server.environment",
		"db.host", "db.port", "db.user", "db.password", "db.name", "db.sslmode", "db.max_open", "db.max_idle",
		"s3.region", "s3.bucket", "s3.endpoint", "s3.access_key", "s3.secret_key", "s3.max_file_size_mb",
		"log.level", "log.format",
		"ocr.timeout",
		"ocr.tesseract.enabled", "ocr.tesseract.reliability",
		"ocr.gvision.enabled", "ocr.gvision.api_key", "ocr.gvision.endpoint", "ocr.gvision.reliability",
		"ocr.azureread.enabled", "ocr.azureread.api_key", "ocr.azureread.endpoint", "ocr.azureread.reliability",
		"extract.fast.provider", "extract.fast.model", "extract.fast.api_key", "extract.fast.endpoint",
		"extract.fast.cost_per_call", "extract.fast.expected_accuracy", "extract.fast.expected_latency",
		"extract.fast.timeout_secs", "extract.fast.input_token_price", "extract.fast.output_token_price",
		"extract.balanced.provider", "extract.balanced.model", "extract.balanced.api_key", "extract.balanced.endpoint",
		"extract.balanced.cost_per_call", "extract.balanced.expected_accuracy", "extract.balanced.expected_latency",
		"extract.balanced.timeout_secs", "extract.balanced.input_token_price", "extract.balanced.output_token_price",
		"extract.premium.provider", "extract.premium.model", "extract.premium.api_key", "extract.premium.endpoint",
		"extract.premium.cost_per_call", "extract.premium.expected_accuracy", "extract.premium.expected_latency",
		"extract.premium.timeout_secs", "extract.premium.input_token_price", "extract.premium.output_token_price",
		"validate.accuracy_ceiling", "validate.weight_amount", "validate.weight_vendor", "validate.weight_date",
		"validate.weight_invoice_no", "validate.weight_currency", "validate.weight_doc_type", "validate.sum_tolerance",
		"enrich.endpoint", "enrich.request_timeout", "enrich.max_attempts", "enrich.cache_size",
		"queue.poll_interval_secs", "queue.max_retries", "queue.concurrency",
		"cors.allowed_origins",
		"email.provider", "email.region", "email.from_address", "email.from_name",
	}
	for _, key := range envKeys {
		env := "DOKLADO_" + strings.ToUpper(strings.NewReplacer(".", "_").Replace(key))
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if DOKLADO_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("DOKLADO_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.OCR = OCRConfig{
		Timeout:   v.GetDuration("ocr.timeout"),
		Tesseract: loadOCRProvider(v, "ocr.tesseract"),
		GVision:   loadOCRProvider(v, "ocr.gvision"),
		AzureRead: loadOCRProvider(v, "ocr.azureread"),
	}
	cfg.Extract = ExtractConfig{
		Fast:     loadTier(v, "extract.fast"),
		Balanced: loadTier(v, "extract.balanced"),
		Premium:  loadTier(v, "extract.premium"),
	}
	cfg.Validate = ValidateConfig{
		AccuracyCeiling: v.GetFloat64("validate.accuracy_ceiling"),
		WeightAmount:    v.GetFloat64("validate.weight_amount"),
		WeightVendor:    v.GetFloat64("validate.weight_vendor"),
		WeightDate:      v.GetFloat64("validate.weight_date"),
		WeightInvoiceNo: v.GetFloat64("validate.weight_invoice_no"),
		WeightCurrency:  v.GetFloat64("validate.weight_currency"),
		WeightDocType:   v.GetFloat64("validate.weight_doc_type"),
		SumTolerance:    v.GetFloat64("validate.sum_tolerance"),
	}
	cfg.Enrich = EnrichConfig{
		Endpoint:       v.GetString("enrich.endpoint"),
		RequestTimeout: v.GetDuration("enrich.request_timeout"),
		MaxAttempts:    v.GetInt("enrich.max_attempts"),
		CacheSize:      v.GetInt("enrich.cache_size"),
	}
	cfg.Queue = QueueConfig{
		PollIntervalSecs: v.GetInt("queue.poll_interval_secs"),
		MaxRetries:       v.GetInt("queue.max_retries"),
		Concurrency:      v.GetInt("queue.concurrency"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
	}

	return cfg, nil
}

func loadOCRProvider(v *viper.Viper, prefix string) OCRProviderConfig {
	return OCRProviderConfig{
		Enabled:     v.GetBool(prefix + ".enabled"),
		APIKey:      v.GetString(prefix + ".api_key"),
		Endpoint:    v.GetString(prefix + ".endpoint"),
		Reliability: v.GetFloat64(prefix + ".reliability"),
	}
}

func loadTier(v *viper.Viper, prefix string) TierConfig {
	return TierConfig{
		Provider:         v.GetString(prefix + ".provider"),
		Model:            v.GetString(prefix + ".model"),
		APIKey:           v.GetString(prefix + ".api_key"),
		Endpoint:         v.GetString(prefix + ".endpoint"),
		CostPerCall:      v.GetFloat64(prefix + ".cost_per_call"),
		ExpectedAccuracy: v.GetFloat64(prefix + ".expected_accuracy"),
		ExpectedLatency:  v.GetDuration(prefix + ".expected_latency"),
		TimeoutSecs:      v.GetInt(prefix + ".timeout_secs"),
		InputTokenPrice:  v.GetFloat64(prefix + ".input_token_price"),
		OutputTokenPrice: v.GetFloat64(prefix + ".output_token_price"),
	}
}
