package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/velora/messaging-services/msggateway/internal/sink"
	"github.com/velora/messaging-services/msggateway/pkg/cache"
	"github.com/velora/messaging-services/msggateway/pkg/mysql"
)

type Config struct {
	API       API          `mapstructure:"api"`
	Database  mysql.Config `mapstructure:"database"`
	Redis     cache.Config `mapstructure:"redis"`
	Providers Providers    `mapstructure:"providers"`
	Sinks     Sinks        `mapstructure:"sinks"`
	Directory Directory    `mapstructure:"directory"`
}

type API struct {
	Port string `mapstructure:"port"`
}

type Providers struct {
	Timeout   time.Duration    `mapstructure:"timeout"`
	MaxRetry  int              `mapstructure:"max_retry"`
	MetaCloud ProviderSettings `mapstructure:"meta_cloud"`
	D360      ProviderSettings `mapstructure:"d360"`
}

type ProviderSettings struct {
	BaseURL string `mapstructure:"base_url"`
}

type Sinks struct {
	MessageLog  sink.Config `mapstructure:"message_log"`
	CampaignLog sink.Config `mapstructure:"campaign_log"`
}

type Directory struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

func Load() (cfg *Config, err error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath("./config")

	err = viper.ReadInConfig()
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}

	err = viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
