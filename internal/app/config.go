package app

import (
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/erp-pos/internal/domain/pos"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (POS_ prefix), flags, or YAML config files.
type Config struct {
	Addr           string   `default:"0.0.0.0:8080" usage:"API server listen address"`
	Tables         int      `default:"12" usage:"Number of tables on the floor, numbered from 1"`
	TaxRate        string   `default:"0.10" usage:"Tax rate applied to bills" flag:"tax-rate"`
	PaymentMethods []string `default:"Cash,Card,Wallet" usage:"Accepted payment methods" flag:"payment-methods"`
	DatabaseURL    string   `usage:"PostgreSQL URL of the sale archive; empty disables archiving" flag:"database-url"`
	ImageBaseURL   string   `default:"" usage:"Base URL for relative menu image paths" flag:"image-base-url"`
	Kitchen        KitchenConfig
	ERP            ERPConfig
	CORS           CORSConfig
	Graceful       GracefulConfig

	taxRate decimal.Decimal
}

// KitchenConfig controls where kitchen order tickets go.
type KitchenConfig struct {
	TicketDir string `default:"kots" usage:"Directory for kitchen order ticket files" flag:"kitchen-ticket-dir"`
	AMQPURL   string `env:"AMQP_URL" usage:"RabbitMQ URL for kitchen displays; empty disables them" flag:"kitchen-amqp-url"`
	Exchange  string `default:"kitchen_topic" usage:"Topic exchange for kitchen displays" flag:"kitchen-exchange"`
}

// ERPConfig controls the ERPNext invoicing integration.
type ERPConfig struct {
	URL       string        `usage:"ERPNext site URL (ERPNEXT_URL)" flag:"erp-url"`
	APIKey    string        `env:"API_KEY" usage:"ERPNext API key (ERPNEXT_API_KEY)" flag:"erp-api-key"`
	APISecret string        `env:"API_SECRET" usage:"ERPNext API secret (ERPNEXT_API_SECRET)" flag:"erp-api-secret"`
	Timeout   time.Duration `default:"10s" usage:"ERPNext request timeout" flag:"erp-timeout"`
	Simulate  bool          `default:"true" usage:"Simulate invoices when ERPNext is not configured" flag:"erp-simulate"`
	Customer  string        `default:"Walk-in Customer" usage:"Customer of POS invoices" flag:"erp-customer"`
	Currency  string        `default:"USD" usage:"Invoice currency" flag:"erp-currency"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, flags and YAML
// config files, then applies platform defaults and validates it.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		EnvPrefix: "POS",
		Files:     []string{"config.yaml", "/etc/pos/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps conventional environment variables (PORT,
// DATABASE_URL and the ERPNEXT_* credentials) onto unset fields.
func (c *Config) applyPlatformDefaults() {
	fallback := func(dst *string, env string) {
		if *dst == "" {
			*dst = os.Getenv(env)
		}
	}
	fallback(&c.DatabaseURL, "DATABASE_URL")
	fallback(&c.ERP.URL, "ERPNEXT_URL")
	fallback(&c.ERP.APIKey, "ERPNEXT_API_KEY")
	fallback(&c.ERP.APISecret, "ERPNEXT_API_SECRET")

	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

func (c *Config) validate() error {
	if c.Tables <= 0 {
		return errors.Errorf("tables must be positive, got %d", c.Tables)
	}
	rate, err := decimal.NewFromString(c.TaxRate)
	if err != nil {
		return errors.Wrapf(err, "parse tax rate %q", c.TaxRate)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return errors.Errorf("tax rate must be in [0, 1), got %s", rate)
	}
	c.taxRate = rate

	if len(c.PaymentMethods) == 0 {
		return errors.New("at least one payment method is required")
	}
	if c.ERP.Timeout <= 0 {
		return errors.Errorf("erp timeout must be positive, got %s", c.ERP.Timeout)
	}
	if c.Kitchen.TicketDir == "" {
		return errors.New("kitchen ticket directory is required")
	}
	return nil
}

// TableIDs returns "1".."N".
func (c *Config) TableIDs() []string {
	ids := make([]string, c.Tables)
	for i := range ids {
		ids[i] = strconv.Itoa(i + 1)
	}
	return ids
}

// Rate returns the validated tax rate.
func (c *Config) Rate() decimal.Decimal {
	return c.taxRate
}

// POSConfig returns the service configuration. The validated tax rate is
// always passed explicitly, so a zero rate means no tax.
func (c *Config) POSConfig() pos.Config {
	rate := c.Rate()
	return pos.Config{
		Tables:         c.TableIDs(),
		TaxRate:        &rate,
		PaymentMethods: slices.Clone(c.PaymentMethods),
	}
}
