package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ExtractionConfig holds tunable extraction and validation thresholds. The
// amount band and the daily-count/payment limits are heuristic filters; the
// defaults mirror observed document behaviour and should not be changed
// without re-checking extraction output against real runsheets and invoices.
type ExtractionConfig struct {
	// Invoice entry amounts outside this band are treated as false positives.
	InvoiceMinAmountPence int64 `mapstructure:"invoiceMinAmountPence"`
	InvoiceMaxAmountPence int64 `mapstructure:"invoiceMaxAmountPence"`

	// Token windows used by the parsers.
	EntryAmountWindow    int `mapstructure:"entryAmountWindow"`
	ConsignmentLookahead int `mapstructure:"consignmentLookahead"`

	// Validation thresholds.
	MaxDailyConsignments int   `mapstructure:"maxDailyConsignments"`
	MaxDailyPaymentPence int64 `mapstructure:"maxDailyPaymentPence"`
	DifferenceWarnPence  int64 `mapstructure:"differenceWarnPence"`
	BalanceTolerance     int64 `mapstructure:"balanceTolerancePence"`

	// Fingerprinting and batch validation.
	ContentPreviewChars int   `mapstructure:"contentPreviewChars"`
	MaxFileSizeBytes    int64 `mapstructure:"maxFileSizeBytes"`
}

// DefaultExtractionConfig returns the shipped thresholds.
func DefaultExtractionConfig() ExtractionConfig {
	return ExtractionConfig{
		InvoiceMinAmountPence: 300,
		InvoiceMaxAmountPence: 50_000,
		EntryAmountWindow:     30,
		ConsignmentLookahead:  10,
		MaxDailyConsignments:  200,
		MaxDailyPaymentPence:  100_000,
		DifferenceWarnPence:   5_000,
		BalanceTolerance:      1,
		ContentPreviewChars:   1000,
		MaxFileSizeBytes:      50 << 20,
	}
}

// ExtractionConfigHolder serves the current extraction config and hot-reloads
// it when the config file changes.
type ExtractionConfigHolder struct {
	current atomic.Value // holds ExtractionConfig
}

// NewExtractionConfigHolder reads extraction.yml if present, otherwise uses
// defaults, and watches the file for changes.
func NewExtractionConfigHolder() (*ExtractionConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("extraction")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/courierpay/config")
	v.AddConfigPath("/etc/courierpay")
	v.AddConfigPath(".")

	v.SetEnvPrefix("COURIERPAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		setExtractionDefaults(v)
	}

	holder := &ExtractionConfigHolder{}
	cfg, err := unmarshalExtraction(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(cfg)

	v.OnConfigChange(func(_ fsnotify.Event) {
		next, err := unmarshalExtraction(v)
		if err != nil {
			log.Printf("extraction config reload rejected: %v", err)
			return
		}
		holder.current.Store(next)
	})
	v.WatchConfig()

	return holder, nil
}

// NewStaticExtractionConfigHolder wraps a fixed config; used by tests.
func NewStaticExtractionConfigHolder(cfg ExtractionConfig) *ExtractionConfigHolder {
	holder := &ExtractionConfigHolder{}
	holder.current.Store(cfg.withDefaults())
	return holder
}

// Current returns the active extraction config.
func (h *ExtractionConfigHolder) Current() ExtractionConfig {
	if h == nil {
		return DefaultExtractionConfig()
	}
	if cfg, ok := h.current.Load().(ExtractionConfig); ok {
		return cfg
	}
	return DefaultExtractionConfig()
}

func setExtractionDefaults(v *viper.Viper) {
	defaults := DefaultExtractionConfig()
	v.SetDefault("extraction.invoiceMinAmountPence", defaults.InvoiceMinAmountPence)
	v.SetDefault("extraction.invoiceMaxAmountPence", defaults.InvoiceMaxAmountPence)
	v.SetDefault("extraction.entryAmountWindow", defaults.EntryAmountWindow)
	v.SetDefault("extraction.consignmentLookahead", defaults.ConsignmentLookahead)
	v.SetDefault("extraction.maxDailyConsignments", defaults.MaxDailyConsignments)
	v.SetDefault("extraction.maxDailyPaymentPence", defaults.MaxDailyPaymentPence)
	v.SetDefault("extraction.differenceWarnPence", defaults.DifferenceWarnPence)
	v.SetDefault("extraction.balanceTolerancePence", defaults.BalanceTolerance)
	v.SetDefault("extraction.contentPreviewChars", defaults.ContentPreviewChars)
	v.SetDefault("extraction.maxFileSizeBytes", defaults.MaxFileSizeBytes)
}

func unmarshalExtraction(v *viper.Viper) (ExtractionConfig, error) {
	var cfg ExtractionConfig
	if err := v.UnmarshalKey("extraction", &cfg); err != nil {
		return ExtractionConfig{}, err
	}
	return cfg.withDefaults(), nil
}

func (c ExtractionConfig) withDefaults() ExtractionConfig {
	defaults := DefaultExtractionConfig()
	if c.InvoiceMinAmountPence <= 0 {
		c.InvoiceMinAmountPence = defaults.InvoiceMinAmountPence
	}
	if c.InvoiceMaxAmountPence <= 0 {
		c.InvoiceMaxAmountPence = defaults.InvoiceMaxAmountPence
	}
	if c.EntryAmountWindow <= 0 {
		c.EntryAmountWindow = defaults.EntryAmountWindow
	}
	if c.ConsignmentLookahead <= 0 {
		c.ConsignmentLookahead = defaults.ConsignmentLookahead
	}
	if c.MaxDailyConsignments <= 0 {
		c.MaxDailyConsignments = defaults.MaxDailyConsignments
	}
	if c.MaxDailyPaymentPence <= 0 {
		c.MaxDailyPaymentPence = defaults.MaxDailyPaymentPence
	}
	if c.DifferenceWarnPence <= 0 {
		c.DifferenceWarnPence = defaults.DifferenceWarnPence
	}
	if c.BalanceTolerance <= 0 {
		c.BalanceTolerance = defaults.BalanceTolerance
	}
	if c.ContentPreviewChars <= 0 {
		c.ContentPreviewChars = defaults.ContentPreviewChars
	}
	if c.MaxFileSizeBytes <= 0 {
		c.MaxFileSizeBytes = defaults.MaxFileSizeBytes
	}
	return c
}
