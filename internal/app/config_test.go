package app

import (
	"os"
	"testing"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/erp-pos/internal/domain/menu"
	"github.com/xenking/erp-pos/internal/domain/pos"
)

// --- Helpers ---

// clearPlatformEnv isolates tests from the host environment.
func clearPlatformEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "DATABASE_URL", "ERPNEXT_URL", "ERPNEXT_API_KEY", "ERPNEXT_API_SECRET",
		"POS_TABLES", "POS_TAX_RATE", "POS_ADDR",
	} {
		t.Setenv(k, "") // restores the host value after the test
		require.NoError(t, os.Unsetenv(k))
	}
}

func load(t *testing.T) (*Config, error) {
	t.Helper()
	return loadConfig(aconfig.Config{
		EnvPrefix: "POS",
		SkipFiles: true,
		SkipFlags: true,
	})
}

// --- Tests ---

func TestLoadConfig_Defaults(t *testing.T) {
	clearPlatformEnv(t)

	cfg, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, defaultAddr, cfg.Addr)
	assert.Equal(t, 12, cfg.Tables)
	assert.True(t, decimal.RequireFromString("0.10").Equal(cfg.Rate()))
	assert.Equal(t, []string{"Cash", "Card", "Wallet"}, cfg.PaymentMethods)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, "kots", cfg.Kitchen.TicketDir)
	assert.Equal(t, "kitchen_topic", cfg.Kitchen.Exchange)
	assert.Equal(t, 10*time.Second, cfg.ERP.Timeout)
	assert.True(t, cfg.ERP.Simulate)
	assert.Equal(t, "Walk-in Customer", cfg.ERP.Customer)
	assert.Equal(t, "USD", cfg.ERP.Currency)
	assert.Equal(t, 15*time.Second, cfg.Graceful.ShutdownTimeout)
}

func TestLoadConfig_Env(t *testing.T) {
	clearPlatformEnv(t)
	t.Setenv("POS_TABLES", "4")
	t.Setenv("POS_TAX_RATE", "0.08")

	cfg, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Tables)
	assert.Equal(t, []string{"1", "2", "3", "4"}, cfg.TableIDs())
	assert.Equal(t, "0.08", cfg.Rate().String())
}

func TestLoadConfig_PlatformDefaults(t *testing.T) {
	clearPlatformEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://pos@db/pos")
	t.Setenv("ERPNEXT_URL", "https://erp.example.com")
	t.Setenv("ERPNEXT_API_KEY", "key")
	t.Setenv("ERPNEXT_API_SECRET", "secret")

	cfg, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.Addr)
	assert.Equal(t, "postgres://pos@db/pos", cfg.DatabaseURL)
	assert.Equal(t, "https://erp.example.com", cfg.ERP.URL)
	assert.Equal(t, "key", cfg.ERP.APIKey)
	assert.Equal(t, "secret", cfg.ERP.APISecret)
}

func TestLoadConfig_ExplicitAddrWins(t *testing.T) {
	clearPlatformEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("POS_ADDR", "127.0.0.1:7000")

	cfg, err := load(t)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.Addr)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Tables:         3,
			TaxRate:        "0.10",
			PaymentMethods: []string{"Cash"},
			Kitchen:        KitchenConfig{TicketDir: "kots"},
			ERP:            ERPConfig{Timeout: time.Second},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"zero tables", func(c *Config) { c.Tables = 0 }, "tables must be positive"},
		{"bad tax rate", func(c *Config) { c.TaxRate = "ten" }, "parse tax rate"},
		{"negative tax rate", func(c *Config) { c.TaxRate = "-0.1" }, "tax rate must be"},
		{"tax rate of one", func(c *Config) { c.TaxRate = "1" }, "tax rate must be"},
		{"no payment methods", func(c *Config) { c.PaymentMethods = nil }, "payment method"},
		{"zero timeout", func(c *Config) { c.ERP.Timeout = 0 }, "erp timeout"},
		{"no ticket dir", func(c *Config) { c.Kitchen.TicketDir = "" }, "ticket directory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	t.Run("valid", func(t *testing.T) {
		cfg := valid()
		require.NoError(t, cfg.validate())
		assert.Equal(t, "0.1", cfg.Rate().String())
	})
}

func TestPOSConfig_ZeroTaxRate(t *testing.T) {
	clearPlatformEnv(t)
	t.Setenv("POS_TAX_RATE", "0")

	cfg, err := load(t)
	require.NoError(t, err)

	svc, err := pos.NewService(cfg.POSConfig(), menu.Default(), nil, nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, svc.TaxRate().IsZero(), "tax-exempt venue must not be taxed, got %s", svc.TaxRate())
	assert.Equal(t, []string{"Cash", "Card", "Wallet"}, svc.PaymentMethods())
}
