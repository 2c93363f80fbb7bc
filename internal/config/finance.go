package config

import (
	"GymFinance/internal/entity"
	"GymFinance/pkg/retry"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type FinanceSettings struct {
	RefreshInterval time.Duration
	CacheTTL        time.Duration
	Retry           retry.Options
	DefaultPeriod   entity.Period
}

// LoadFinanceSettings reads the FINANCE_* tunables from the environment.
func LoadFinanceSettings() (FinanceSettings, error) {
	v := viper.New()
	v.SetEnvPrefix("FINANCE")
	v.AutomaticEnv()

	defaults := retry.DefaultOptions()
	v.SetDefault("REFRESH_INTERVAL", 5*time.Minute)
	v.SetDefault("CACHE_TTL", 30*time.Second)
	v.SetDefault("RETRY_MAX", defaults.MaxRetries)
	v.SetDefault("RETRY_BASE_DELAY", defaults.BaseDelay)
	v.SetDefault("RETRY_MAX_DELAY", defaults.MaxDelay)
	v.SetDefault("RETRY_JITTER", defaults.Jitter)
	v.SetDefault("DEFAULT_PERIOD", string(entity.PeriodMonth))

	settings := FinanceSettings{
		RefreshInterval: v.GetDuration("REFRESH_INTERVAL"),
		CacheTTL:        v.GetDuration("CACHE_TTL"),
		Retry: retry.Options{
			MaxRetries: v.GetInt("RETRY_MAX"),
			BaseDelay:  v.GetDuration("RETRY_BASE_DELAY"),
			MaxDelay:   v.GetDuration("RETRY_MAX_DELAY"),
			Jitter:     v.GetFloat64("RETRY_JITTER"),
		},
		DefaultPeriod: entity.Period(v.GetString("DEFAULT_PERIOD")),
	}

	if settings.RefreshInterval <= 0 {
		return settings, fmt.Errorf("FINANCE_REFRESH_INTERVAL must be positive, got %s", settings.RefreshInterval)
	}
	if settings.Retry.MaxRetries < 0 {
		return settings, fmt.Errorf("FINANCE_RETRY_MAX must not be negative, got %d", settings.Retry.MaxRetries)
	}
	if !settings.DefaultPeriod.IsValid() {
		return settings, fmt.Errorf("FINANCE_DEFAULT_PERIOD %q is not a valid period", settings.DefaultPeriod)
	}

	return settings, nil
}
