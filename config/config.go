package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	SourceSTOMP = "stomp"
	SourceKafka = "kafka"
)

type Config struct {
	Source string
	Topic  string

	StompURL       string
	StompHost      string
	StompLogin     string
	StompPasscode  string
	StompHeartBeat time.Duration
	ConnectTimeout time.Duration

	RetryPolicy  string
	RetryInitial time.Duration
	RetryMax     time.Duration

	HTTPAddr     string
	AdminBaseURL string
	AllowOrigins []string

	KafkaBrokers      []string
	KafkaGroupID      string
	KafkaSourceTopic  string
	KafkaForwardTopic string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	AdminEmail   string
	TMPLDir      string
}

func Load(log *zap.Logger) *Config {
	c := &Config{
		Source: strings.ToLower(getEnvDefault("SOURCE", SourceSTOMP)),
		Topic:  getEnvDefault("TOPIC", "/topic/admin/new-orders"),

		StompHost:      getEnvDefault("STOMP_HOST", "/"),
		StompLogin:     os.Getenv("STOMP_LOGIN"),
		StompPasscode:  os.Getenv("STOMP_PASSCODE"),
		StompHeartBeat: getEnvDuration("STOMP_HEARTBEAT", 10*time.Second, log),
		ConnectTimeout: getEnvDuration("CONNECT_TIMEOUT", 0, log),

		RetryPolicy:  getEnvDefault("RETRY_POLICY", "exponential"),
		RetryInitial: getEnvDuration("RETRY_INITIAL", 5*time.Second, log),
		RetryMax:     getEnvDuration("RETRY_MAX", time.Minute, log),

		HTTPAddr:     getEnvDefault("HTTP_ADDR", ":8090"),
		AdminBaseURL: os.Getenv("ADMIN_BASE_URL"),
		AllowOrigins: splitAndTrim(os.Getenv("CORS_ALLOW_ORIGINS")),

		KafkaBrokers:      splitAndTrim(os.Getenv("KAFKA_BROKERS")),
		KafkaGroupID:      getEnvDefault("KAFKA_GROUP_ID", "admin-notifier"),
		KafkaForwardTopic: os.Getenv("KAFKA_FORWARD_TOPIC"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),
		AdminEmail:   os.Getenv("ADMIN_EMAIL"),
		TMPLDir:      os.Getenv("TMPL_DIR"),
	}

	switch c.Source {
	case SourceSTOMP:
		c.StompURL = getEnv("STOMP_URL", log)
	case SourceKafka:
		c.KafkaSourceTopic = getEnv("KAFKA_SOURCE_TOPIC", log)
		if len(c.KafkaBrokers) == 0 {
			log.Error("Для SOURCE=kafka нужен KAFKA_BROKERS")
			panic("missing required environment variable: KAFKA_BROKERS")
		}
	default:
		log.Error("Неизвестный источник уведомлений", zap.String("source", c.Source))
		panic("invalid SOURCE: " + c.Source)
	}

	if c.SMTPHost != "" {
		c.SMTPPort = getEnvInt("SMTP_PORT", log)
		c.SMTPFrom = getEnv("SMTP_FROM", log)
		c.AdminEmail = getEnv("ADMIN_EMAIL", log)
	}
	return c
}

// EmailEnabled: письмо-фолбэк включается только при заданном SMTP_HOST.
func (c *Config) EmailEnabled() bool { return c.SMTPHost != "" }

func (c *Config) ForwardEnabled() bool {
	return c.KafkaForwardTopic != "" && len(c.KafkaBrokers) > 0
}

// CartConfig: настройки CLI корзины.
type CartConfig struct {
	BaseURL string
	Timeout time.Duration
}

func LoadCart(log *zap.Logger) *CartConfig {
	return &CartConfig{
		BaseURL: getEnvDefault("CART_BASE_URL", "http://localhost:8080"),
		Timeout: getEnvDuration("CART_TIMEOUT", 10*time.Second, log),
	}
}

func getEnv(key string, log *zap.Logger) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	log.Error("Обязательная переменная окружения не установлена", zap.String("key", key))
	panic("missing required environment variable: " + key)
}

func getEnvDefault(key, def string) string {
	if val, exists := os.LookupEnv(key); exists && val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, log *zap.Logger) int {
	valStr := getEnv(key, log)
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Error("Ошибка преобразования переменной окружения в int", zap.String("key", key), zap.Error(err))
		panic("invalid int value for environment variable: " + key)
	}
	return val
}

func getEnvDuration(key string, def time.Duration, log *zap.Logger) time.Duration {
	valStr, exists := os.LookupEnv(key)
	if !exists || valStr == "" {
		return def
	}
	val, err := time.ParseDuration(valStr)
	if err != nil {
		log.Error("Ошибка преобразования переменной окружения в duration", zap.String("key", key), zap.Error(err))
		panic("invalid duration value for environment variable: " + key)
	}
	return val
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := []string{}
	for _, p := range strings.Split(s, ",") {
		pt := strings.TrimSpace(p)
		if pt != "" {
			parts = append(parts, pt)
		}
	}
	return parts
}
