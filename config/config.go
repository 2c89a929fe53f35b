package config

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPPort string

	DBDriver          string
	DBUser            string
	DBPassword        string
	DBHost            string
	DBPort            string
	DBName            string
	DBDSN             string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBIsolation       string
	DBTxTimeout       time.Duration
	DBLogSQL          bool

	JWTSecret       string
	TrustUserHeader bool

	RabbitMQURL     string
	OrderExchange   string
	OrderQueue      string
	AlertExchange   string
	AlertQueue      string
	DeadLetterQueue string
	MaxPriority     int

	AlertScanInterval time.Duration
	AlertCooldown     time.Duration
}

// LoadConfig reads application.yml from "." or "./config" when present and lets
// environment variables override every key.
func LoadConfig() *Config {
	v := viper.New()
	v.SetConfigName("application")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Printf("Failed to read application.yml, using environment only: %v", err)
		}
	}

	return &Config{
		HTTPPort: v.GetString("HTTP_PORT"),

		DBDriver:          v.GetString("DB_DRIVER"),
		DBUser:            v.GetString("DB_USER"),
		DBPassword:        getFromFile(v, "DB_PASSWORD_FILE", "DB_PASSWORD"),
		DBHost:            v.GetString("DB_HOST"),
		DBPort:            v.GetString("DB_PORT"),
		DBName:            v.GetString("DB_NAME"),
		DBDSN:             v.GetString("DB_DSN"),
		DBMaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
		DBMaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
		DBConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		DBIsolation:       v.GetString("DB_ISOLATION"),
		DBTxTimeout:       v.GetDuration("DB_TX_TIMEOUT"),
		DBLogSQL:          v.GetBool("DB_LOG_SQL"),

		JWTSecret:       getFromFile(v, "JWT_SECRET_FILE", "JWT_SECRET"),
		TrustUserHeader: v.GetBool("TRUST_USER_HEADER"),

		RabbitMQURL:     v.GetString("RABBITMQ_URL"),
		OrderExchange:   v.GetString("ORDER_EXCHANGE"),
		OrderQueue:      v.GetString("ORDER_QUEUE"),
		AlertExchange:   v.GetString("ALERT_EXCHANGE"),
		AlertQueue:      v.GetString("ALERT_QUEUE"),
		DeadLetterQueue: v.GetString("DEAD_LETTER_QUEUE"),
		MaxPriority:     v.GetInt("MAX_PRIORITY"),

		AlertScanInterval: v.GetDuration("ALERT_SCAN_INTERVAL"),
		AlertCooldown:     v.GetDuration("ALERT_COOLDOWN"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_PORT", "8080")

	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_USER", "root")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_NAME", "inventory")
	v.SetDefault("DB_DSN", "")
	v.SetDefault("DB_MAX_OPEN_CONNS", 3)
	v.SetDefault("DB_MAX_IDLE_CONNS", 3)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	v.SetDefault("DB_ISOLATION", "read_committed")
	v.SetDefault("DB_TX_TIMEOUT", 5*time.Second)
	v.SetDefault("DB_LOG_SQL", false)

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TRUST_USER_HEADER", false)

	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("ORDER_EXCHANGE", "inventory_orders")
	v.SetDefault("ORDER_QUEUE", "inventory_orders_queue")
	v.SetDefault("ALERT_EXCHANGE", "inventory_alerts")
	v.SetDefault("ALERT_QUEUE", "inventory_alerts_queue")
	v.SetDefault("DEAD_LETTER_QUEUE", "inventory_dead_letter_queue")
	v.SetDefault("MAX_PRIORITY", 10)

	v.SetDefault("ALERT_SCAN_INTERVAL", time.Minute)
	v.SetDefault("ALERT_COOLDOWN", 24*time.Hour)
}

// getFromFile prefers the contents of the file named by fileKey (docker secrets)
// over the plain value of key.
func getFromFile(v *viper.Viper, fileKey, key string) string {
	if filePath := v.GetString(fileKey); filePath != "" {
		if content, err := os.ReadFile(filePath); err == nil {
			return strings.TrimSpace(string(content))
		}
		log.Printf("Failed to read %s from %s, falling back to %s", fileKey, filePath, key)
	}
	return v.GetString(key)
}
