package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BillingConfig holds operator-tunable billing settings. It is loaded from
// billing.yml and hot-reloaded on change.
type BillingConfig struct {
	InvoicePrefix  string   `mapstructure:"invoicePrefix"`
	ReceiptPrefix  string   `mapstructure:"receiptPrefix"`
	SerialPadWidth int      `mapstructure:"serialPadWidth"`
	PaymentModes   []string `mapstructure:"paymentModes"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		InvoicePrefix:  "INV",
		ReceiptPrefix:  "RCP",
		SerialPadWidth: 4,
		PaymentModes:   []string{"cash", "mpesa", "bank_transfer", "cheque"},
	}
}

type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

func NewBillingConfigHolder() (*BillingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/shulepay/config") // Volume-mounted config
	v.AddConfigPath("/etc/shulepay")            // System config
	v.AddConfigPath(".")                        // Current directory (dev mode)

	v.SetEnvPrefix("SHULEPAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// if config file not found, use defaults
		defaults := DefaultBillingConfig()
		v.SetDefault("billing.invoicePrefix", defaults.InvoicePrefix)
		v.SetDefault("billing.receiptPrefix", defaults.ReceiptPrefix)
		v.SetDefault("billing.serialPadWidth", defaults.SerialPadWidth)
		v.SetDefault("billing.paymentModes", defaults.PaymentModes)
	}

	var cfg BillingConfig
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return nil, err
	}
	if err := validateBillingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated BillingConfig
		if err := v.UnmarshalKey("billing", &updated); err != nil {
			log.Printf("[billing-config] reload failed: %v", err)
			return
		}
		if err := validateBillingConfig(updated); err != nil {
			log.Printf("[billing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[billing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *BillingConfigHolder) Get() BillingConfig {
	return h.current.Load().(BillingConfig)
}

// NewStaticBillingConfigHolder wraps a fixed config, bypassing file discovery.
// Intended for tests.
func NewStaticBillingConfigHolder(cfg BillingConfig) *BillingConfigHolder {
	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func validateBillingConfig(cfg BillingConfig) error {
	if strings.TrimSpace(cfg.InvoicePrefix) == "" {
		return errors.New("billing.invoicePrefix cannot be empty")
	}
	if strings.TrimSpace(cfg.ReceiptPrefix) == "" {
		return errors.New("billing.receiptPrefix cannot be empty")
	}
	if cfg.SerialPadWidth <= 0 {
		return errors.New("billing.serialPadWidth must be positive")
	}
	if len(cfg.PaymentModes) == 0 {
		return errors.New("billing.paymentModes cannot be empty")
	}
	return nil
}
