package internal

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ServerPort    string `envconfig:"SERVER_PORT" default:"8080"`
	MongoURI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"foodapp"`

	// AMQPURI empty disables event publishing and the fulfilment consumer.
	AMQPURI      string `envconfig:"AMQP_URI"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"order_exchange"`

	JWTSigningKey string        `envconfig:"JWT_SIGNING_KEY"`
	JWTTTL        time.Duration `envconfig:"JWT_TTL" default:"8h"`

	OrderNoPrefix string `envconfig:"ORDER_NO_PREFIX" default:"FOODAPP-"`
	CORSOrigin    string `envconfig:"CORS_ORIGIN" default:"*"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	GinMode   string `envconfig:"GIN_MODE" default:"release"`

	DefaultAdminName     string `envconfig:"DEFAULT_ADMIN_NAME" default:"Admin"`
	DefaultAdminEmail    string `envconfig:"DEFAULT_ADMIN_EMAIL"`
	DefaultAdminPassword string `envconfig:"DEFAULT_ADMIN_PASSWORD"`
	DefaultAdminCountry  string `envconfig:"DEFAULT_ADMIN_COUNTRY" default:"America"`
}

func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.JWTSigningKey == "" {
		return nil, errors.New("JWT_SIGNING_KEY must be set")
	}
	if cfg.JWTTTL <= 0 {
		return nil, errors.New("JWT_TTL must be positive")
	}
	if cfg.DefaultAdminEmail != "" && !Country(cfg.DefaultAdminCountry).IsValid() {
		return nil, errors.New("DEFAULT_ADMIN_COUNTRY must be one of India, America")
	}
	return &cfg, nil
}
