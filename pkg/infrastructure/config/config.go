package config

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

type Config struct {
	ServeAddress string `envconfig:"serve_address" default:":8080"`
	// DatabaseDSN must include parseTime=true, e.g.
	// store:store@tcp(localhost:3306)/store?parseTime=true
	DatabaseDSN  string   `envconfig:"database_dsn" required:"true"`
	KafkaBrokers []string `envconfig:"kafka_brokers"`
	KafkaTopic   string   `envconfig:"kafka_topic" default:"store-events"`
	LogLevel     string   `envconfig:"log_level" default:"info"`
}

func Load(prefix string) (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process(prefix, cfg); err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	return cfg, nil
}
