package config

import (
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/smallbiznis/greenpack/internal/impact"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ImpactFactorsHolder serves the estimator factors from impact.yml and
// swaps them in place when the file changes.
type ImpactFactorsHolder struct {
	current atomic.Value // holds impact.Factors
}

func NewImpactFactorsHolder(log *zap.Logger) (*ImpactFactorsHolder, error) {
	log = log.Named("config.impact")
	v := viper.New()

	v.SetConfigName("impact")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/greenpack")
	v.AddConfigPath(".")

	v.SetEnvPrefix("GREENPACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := impact.DefaultFactors()
	v.SetDefault("impact.gramsPerKilogram", defaults.GramsPerKilogram)
	v.SetDefault("impact.monthsPerYear", defaults.MonthsPerYear)
	v.SetDefault("impact.carbonKgPerPlasticKg", defaults.CarbonKgPerPlasticKg)
	v.SetDefault("impact.carbonKgPerTreeYear", defaults.CarbonKgPerTreeYear)
	v.SetDefault("impact.waterLitersPerPlasticKg", defaults.WaterLitersPerPlasticKg)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	factors := defaults
	if err := v.UnmarshalKey("impact", &factors); err != nil {
		return nil, err
	}
	if err := factors.Validate(); err != nil {
		return nil, err
	}

	holder := &ImpactFactorsHolder{}
	holder.current.Store(factors)

	if !fileFound {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated := impact.DefaultFactors()
		if err := v.UnmarshalKey("impact", &updated); err != nil {
			log.Warn("reload failed", zap.Error(err))
			return
		}
		if err := updated.Validate(); err != nil {
			log.Warn("invalid impact factors ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("impact factors reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// NewStaticImpactFactors returns a holder that never reloads.
func NewStaticImpactFactors(f impact.Factors) *ImpactFactorsHolder {
	holder := &ImpactFactorsHolder{}
	holder.current.Store(f)
	return holder
}

func (h *ImpactFactorsHolder) Get() impact.Factors {
	if h == nil {
		return impact.DefaultFactors()
	}
	return h.current.Load().(impact.Factors)
}
