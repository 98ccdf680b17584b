package config

import "time"

type Config struct {
	DatabaseURI  string `envconfig:"DATABASE_URI" required:"true"`
	SentryDSN    string `envconfig:"SENTRY_DSN"`
	ServerPort   string `envconfig:"AUTH_SERVICE_SERVER_PORT" required:"true"`
	OTLPEndpoint string `envconfig:"OTLP_ENDPOINT"`
	JWT          JWT    `envconfig:"JWT" required:"true"`
	Reset        Reset  `envconfig:"RESET"`
	SMTP         SMTP   `envconfig:"SMTP" required:"true"`
}

type JWT struct {
	Secret string        `envconfig:"SECRET" required:"true"`
	TTL    time.Duration `envconfig:"TTL" default:"2h"`
}

type Reset struct {
	CodeTTL time.Duration `envconfig:"CODE_TTL" default:"15m"`
}

type SMTP struct {
	Host        string `envconfig:"HOST" required:"true"`
	Port        string `envconfig:"PORT" required:"true"`
	Username    string `envconfig:"USERNAME"`
	Password    string `envconfig:"PASSWORD"`
	FromAddress string `envconfig:"FROM_ADDRESS" required:"true"`
	FromName    string `envconfig:"FROM_NAME" required:"true"`
}
