package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"billing/internal/domain"
	"billing/internal/invoicing"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	DBMaxConns  int
	JWTSecret   string
	StoragePath string
	GeoIPDBPath string

	// Tax is the home VAT rate in percent; nil disables tax.
	Tax              *decimal.Decimal
	TaxCountry       string
	Currency         string
	TaxationPolicy   string
	PlanChangePolicy string

	InvoiceNumberFormat string
	InvoiceCounterReset invoicing.ResetPolicy
	NumberFormatter     *invoicing.Formatter
	Issuer              domain.IssuerData
	PaymentTermDays     int

	DefaultPlanID        int64
	ExpirationRemindDays []int

	VIESURL       string
	VIESTimeout   time.Duration
	VIESCacheSize int
	VIESCacheTTL  time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	WorkerSchedule string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	CORSOrigins      []string

	// TrustedProxies lists the CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBMaxConns:  getEnvInt("DB_MAX_CONNS", 10),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		StoragePath: getEnv("STORAGE_PATH", "./storage"),
		GeoIPDBPath: os.Getenv("GEOIP_DB_PATH"),

		TaxCountry:       strings.ToUpper(strings.TrimSpace(os.Getenv("TAX_COUNTRY"))),
		Currency:         strings.ToUpper(getEnv("CURRENCY", "EUR")),
		TaxationPolicy:   strings.ToLower(os.Getenv("TAXATION_POLICY")),
		PlanChangePolicy: strings.ToLower(getEnv("PLAN_CHANGE_POLICY", "standard")),

		InvoiceNumberFormat: getEnv("INVOICE_NUMBER_FORMAT", invoicing.DefaultNumberFormat),
		Issuer: domain.IssuerData{
			Name:      os.Getenv("ISSUER_NAME"),
			Street:    os.Getenv("ISSUER_STREET"),
			Zipcode:   os.Getenv("ISSUER_ZIPCODE"),
			City:      os.Getenv("ISSUER_CITY"),
			Country:   os.Getenv("ISSUER_COUNTRY"),
			TaxNumber: os.Getenv("ISSUER_TAX_NUMBER"),
		},
		PaymentTermDays: getEnvInt("PAYMENT_TERM_DAYS", 14),

		DefaultPlanID: int64(getEnvInt("DEFAULT_PLAN_ID", 0)),

		VIESURL:       os.Getenv("VIES_URL"),
		VIESTimeout:   time.Second * time.Duration(getEnvInt("VIES_TIMEOUT_SECONDS", 10)),
		VIESCacheSize: getEnvInt("VIES_CACHE_SIZE", 1024),
		VIESCacheTTL:  time.Minute * time.Duration(getEnvInt("VIES_CACHE_TTL_MINUTES", 24*60)),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     os.Getenv("MAIL_FROM"),

		WorkerSchedule: getEnv("WORKER_SCHEDULE", "15 0 * * *"),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		CORSOrigins:      getEnvList("CORS_ORIGINS"),
		TrustedProxies:   getEnvList("TRUSTED_PROXIES"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if raw := strings.TrimSpace(os.Getenv("TAX")); raw != "" {
		rate, err := decimal.NewFromString(raw)
		if err != nil || rate.IsNegative() {
			return nil, fmt.Errorf("%w: TAX must be a non-negative percentage, got %q", domain.ErrImproperlyConfigured, raw)
		}
		cfg.Tax = &rate
	}

	if cfg.TaxationPolicy == "" {
		cfg.TaxationPolicy = "flat"
		if cfg.TaxCountry != "" {
			cfg.TaxationPolicy = "eu"
		}
	}

	reset, err := invoicing.ParseResetPolicy(os.Getenv("INVOICE_COUNTER_RESET"))
	if err != nil {
		return nil, err
	}
	cfg.InvoiceCounterReset = reset

	formatter, err := invoicing.NewFormatter(cfg.InvoiceNumberFormat)
	if err != nil {
		return nil, err
	}
	cfg.NumberFormatter = formatter

	days, err := parseDays(getEnv("EXPIRATION_REMIND_DAYS", "3,2,1"))
	if err != nil {
		return nil, err
	}
	cfg.ExpirationRemindDays = days

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseDays(raw string) ([]int, error) {
	var days []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%w: EXPIRATION_REMIND_DAYS entry %q", domain.ErrImproperlyConfigured, part)
		}
		days = append(days, d)
	}
	return days, nil
}
