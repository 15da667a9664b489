package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string `yaml:"env" env:"ENV" env-default:"local"`
	Telegram struct {
		ApiKey      string `yaml:"api_key" env:"TELEGRAM_API_KEY" env-default:""`
		BotName     string `yaml:"bot_name" env-default:"HelpDeskBot"`
		GroupChatId int64  `yaml:"group_chat_id" env:"TELEGRAM_GROUP_CHAT_ID" env-default:"0"`
	} `yaml:"telegram"`
	Mongo struct {
		Host                 string `yaml:"host" env:"MONGO_HOST" env-default:"127.0.0.1"`
		Port                 string `yaml:"port" env:"MONGO_PORT" env-default:"27017"`
		User                 string `yaml:"user" env:"MONGO_USER" env-default:""`
		Password             string `yaml:"password" env:"MONGO_PASSWORD" env-default:""`
		Database             string `yaml:"database" env:"MONGO_DATABASE" env-default:"helpdesk"`
		RegistrationTTLHours int    `yaml:"registration_ttl_hours" env-default:"24"`
	} `yaml:"mongo"`
	Account struct {
		BaseURL string `yaml:"base_url" env:"ACCOUNT_API_URL" env-default:"http://127.0.0.1:3000"`
		ApiKey  string `yaml:"api_key" env:"ACCOUNT_API_KEY" env-default:""`
	} `yaml:"account-api"`
	SLA struct {
		CheckIntervalMinutes int       `yaml:"check_interval_minutes" env-default:"10"`
		WarningThresholds    []float64 `yaml:"warning_thresholds_hours" env-default:"4,1"`
	} `yaml:"sla"`
	Listen struct {
		BindIP string `yaml:"bind_ip" env-default:"127.0.0.1"`
		Port   string `yaml:"port" env:"LISTEN_PORT" env-default:"9200"`
		ApiKey string `yaml:"key" env:"LISTEN_API_KEY" env-default:""`
	} `yaml:"listen"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("%s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}
