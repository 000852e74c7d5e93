package utils

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Key                string        `mapstructure:"key"`
	APIURL             string        `mapstructure:"api-url"`
	TTL                int           `mapstructure:"ttl"`
	CacheDir           string        `mapstructure:"cache-dir"`
	NameServers        []string      `mapstructure:"nameservers"`
	PropagationTimeout time.Duration `mapstructure:"propagation-timeout"`
	PollInterval       time.Duration `mapstructure:"poll-interval"`
	LogFile            string        `mapstructure:"log-file"`
	LogLevel           string        `mapstructure:"log-level"`

	// set by certbot when running as a manual hook
	Domain              string `mapstructure:"certbot-domain"`
	Validation          string `mapstructure:"certbot-validation"`
	RemainingChallenges string `mapstructure:"certbot-remaining-challenges"`
	AllDomains          string `mapstructure:"certbot-all-domains"`
	AuthOutput          string `mapstructure:"certbot-auth-output"`

	// obtain command
	Email           string   `mapstructure:"email"`
	Domains         []string `mapstructure:"domains"`
	Staging         bool     `mapstructure:"staging"`
	LegoDir         string   `mapstructure:"lego-dir"`
	CADirURL        string
	AccountFilePath string
	KeyFilePath     string
}

var conf = &Config{}

func InitConfig() (*Config, error) {
	if err := viper.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}
	return conf, nil
}

func GetConfig() *Config {
	return conf
}
