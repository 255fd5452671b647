package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort           string        `env:"HTTP_PORT" envDefault:"8080"`
	ThinkingDelay      time.Duration `env:"THINKING_DELAY" envDefault:"1500ms"`
	CalendarDelay      time.Duration `env:"CALENDAR_DELAY" envDefault:"2s"`
	SlotAckDelay       time.Duration `env:"SLOT_ACK_DELAY" envDefault:"500ms"`
	BookingDelay       time.Duration `env:"BOOKING_DELAY" envDefault:"1500ms"`
	DeliveryPolicy     string        `env:"DELIVERY_POLICY" envDefault:"serialize"`
	ConversationTTL    time.Duration `env:"CONVERSATION_TTL" envDefault:"30m"`
	RedisAddr          string        `env:"REDIS_ADDR"`
	RedisPassword      string        `env:"REDIS_PASSWORD"`
	RedisDB            int           `env:"REDIS_DB" envDefault:"0"`
	RateLimitWindow    time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
	RateLimitMax       int           `env:"RATE_LIMIT_MAX" envDefault:"60"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	LogFile            string        `env:"TAILORTALK_LOG_FILE"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
