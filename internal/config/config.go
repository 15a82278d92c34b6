package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	DBDSN   string
	LogFile string

	GatewayURL      string
	GatewaySecret   string
	GatewayCallback string
	Currency        string
	PaymentWindow   time.Duration

	ShippingCents int64
	TaxBasisPts   int64

	RedisAddr string
}

func Load() Config {
	// Best-effort; env vars win over .env values.
	_ = godotenv.Load()

	cfg := Config{
		Port:            getenv("PORT", "8080"),
		DBDSN:           getenv("DB_DSN", "maplecart.db"),
		LogFile:         getenv("LOG_FILE", "./maplecart.log"),
		GatewayURL:      getenv("GATEWAY_URL", "https://api.gateway.test"),
		GatewaySecret:   getenv("GATEWAY_SECRET", ""),
		GatewayCallback: getenv("GATEWAY_CALLBACK_URL", "http://localhost:8080/payments/callback"),
		Currency:        getenv("CURRENCY", "USD"),
		PaymentWindow:   time.Duration(getint("PAYMENT_WINDOW_MIN", 10)) * time.Minute,
		ShippingCents:   getint("SHIPPING_CENTS", 500),
		TaxBasisPts:     getint("TAX_BASIS_PTS", 600), // 6%
		RedisAddr:       os.Getenv("REDIS_ADDR"),      // empty disables the cache
	}
	if cfg.GatewaySecret == "" {
		log.Printf("[config] GATEWAY_SECRET is empty; webhook verification will reject everything")
	}
	log.Printf("[config] PORT=%s DB_DSN=%s CURRENCY=%s WINDOW=%s REDIS=%q",
		cfg.Port, cfg.DBDSN, cfg.Currency, cfg.PaymentWindow, cfg.RedisAddr)
	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int64) int64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}
