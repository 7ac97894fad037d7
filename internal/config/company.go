package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// CompanyProfile is the issuer identity printed on every document.
type CompanyProfile struct {
	CompanyName   string `mapstructure:"companyName"`
	Address       string `mapstructure:"address"`
	Phone         string `mapstructure:"phone"`
	Email         string `mapstructure:"email"`
	Disclaimer    string `mapstructure:"disclaimer"`
	StatementLogo string `mapstructure:"statementLogo"`
	// DefaultTermsDays sets a due date on new unpaid sales when the request carries none.
	// Zero leaves the due date empty.
	DefaultTermsDays int `mapstructure:"defaultTermsDays"`
}

func DefaultCompanyProfile() CompanyProfile {
	return CompanyProfile{
		CompanyName:      "Fresh Harvest Trading",
		Address:          "Stall 14, Central Produce Market",
		Phone:            "",
		Email:            "",
		DefaultTermsDays: 7,
	}
}

type CompanyProfileHolder struct {
	current atomic.Value // holds CompanyProfile
}

// NewStaticCompanyProfileHolder returns a holder that never reloads.
func NewStaticCompanyProfileHolder(profile CompanyProfile) *CompanyProfileHolder {
	holder := &CompanyProfileHolder{}
	holder.current.Store(profile)
	return holder
}

func NewCompanyProfileHolder(log *zap.Logger) (*CompanyProfileHolder, error) {
	v := viper.New()

	v.SetConfigName("company")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/tradebook")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TRADEBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultCompanyProfile()
	v.SetDefault("company.companyName", defaults.CompanyName)
	v.SetDefault("company.address", defaults.Address)
	v.SetDefault("company.phone", defaults.Phone)
	v.SetDefault("company.email", defaults.Email)
	v.SetDefault("company.disclaimer", defaults.Disclaimer)
	v.SetDefault("company.statementLogo", defaults.StatementLogo)
	v.SetDefault("company.defaultTermsDays", defaults.DefaultTermsDays)

	configFound := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		configFound = false
	}

	var profile CompanyProfile
	if err := v.UnmarshalKey("company", &profile); err != nil {
		return nil, err
	}
	if err := validateCompanyProfile(profile); err != nil {
		return nil, err
	}

	holder := NewStaticCompanyProfileHolder(profile)
	if !configFound {
		return holder, nil
	}

	log = log.Named("company.config")
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated CompanyProfile
		if err := v.UnmarshalKey("company", &updated); err != nil {
			log.Warn("company profile reload failed", zap.Error(err))
			return
		}
		if err := validateCompanyProfile(updated); err != nil {
			log.Warn("invalid company profile ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("company profile reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *CompanyProfileHolder) Get() CompanyProfile {
	return h.current.Load().(CompanyProfile)
}

func validateCompanyProfile(profile CompanyProfile) error {
	if strings.TrimSpace(profile.CompanyName) == "" {
		return errors.New("company.companyName cannot be empty")
	}
	if profile.DefaultTermsDays < 0 {
		return errors.New("company.defaultTermsDays cannot be negative")
	}
	return nil
}
