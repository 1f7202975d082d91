package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/momentouslyfe-web/DigitalCart/internal/app"
)

const (
	envMetricsAddr         = "DC_METRICS_ADDR"
	envStorageDriver       = "DC_STORAGE_DRIVER"
	envDocumentStore       = "DC_DOCUMENT_STORE"
	envPostgresDSN         = "DC_POSTGRES_DSN"
	envPostgresAutoMigrate = "DC_POSTGRES_AUTO_MIGRATE"
	envRedisAddr           = "DC_REDIS_ADDR"
	envRedisPassword       = "DC_REDIS_PASSWORD"
	envRedisDB             = "DC_REDIS_DB"
	envRedisTLS            = "DC_REDIS_TLS"
	envRedisPrefix         = "DC_REDIS_PREFIX"
	envKafkaBrokers        = "DC_KAFKA_BROKERS"
	envPixelTopic          = "DC_PIXEL_TOPIC"
	envPixelPollInterval   = "DC_PIXEL_POLL_INTERVAL"
	envPixelBatchSize      = "DC_PIXEL_BATCH_SIZE"
	envPixelMaxAttempts    = "DC_PIXEL_MAX_ATTEMPTS"
	envPixelRetryDelay     = "DC_PIXEL_RETRY_DELAY"
	envShutdownTimeout     = "DC_SHUTDOWN_TIMEOUT"
	envLogLevel            = "DC_LOG_LEVEL"
	envLogFormat           = "DC_LOG_FORMAT"
)

// envLookup совместим с os.LookupEnv.
type envLookup func(key string) (string, bool)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger(lookup envLookup) {
	if format, ok := lookupTrimmed(lookup, envLogFormat); ok && strings.EqualFold(format, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level := log.InfoLevel
	if raw, ok := lookupTrimmed(lookup, envLogLevel); ok {
		parsed, err := log.ParseLevel(raw)
		if err != nil {
			log.WithError(err).Warnf("invalid %s, using %s", envLogLevel, level)
		} else {
			level = parsed
		}
	}
	log.SetLevel(level)
}

// readConfigFromEnv формирует конфигурацию из окружения. Некорректные значения
// заменяются значениями по умолчанию, по каждому возвращается предупреждение.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string
	warn := func(key, raw string, err error) {
		warnings = append(warnings, fmt.Sprintf("invalid %s=%q, using default: %v", key, raw, err))
	}

	if v, ok := lookupTrimmed(lookup, envMetricsAddr); ok {
		cfg.MetricsAddr = v
	}
	if v, ok := lookupTrimmed(lookup, envStorageDriver); ok {
		cfg.StorageDriver = strings.ToLower(v)
	}
	if v, ok := lookupTrimmed(lookup, envDocumentStore); ok {
		cfg.DocumentStore = strings.ToLower(v)
	}
	if v, ok := lookupTrimmed(lookup, envPostgresDSN); ok {
		cfg.PostgresDSN = v
	}
	if v, ok := lookupTrimmed(lookup, envPostgresAutoMigrate); ok {
		if parsed, err := parseBool(v); err != nil {
			warn(envPostgresAutoMigrate, v, err)
		} else {
			cfg.PostgresAutoMigrate = parsed
		}
	}

	if v, ok := lookupTrimmed(lookup, envRedisAddr); ok {
		cfg.RedisAddr = v
	}
	if v, ok := lookup(envRedisPassword); ok {
		cfg.RedisPassword = v
	}
	if v, ok := lookupTrimmed(lookup, envRedisDB); ok {
		if parsed, err := parseInt(v, func(n int) bool { return n >= 0 }, "must be >= 0"); err != nil {
			warn(envRedisDB, v, err)
		} else {
			cfg.RedisDB = parsed
		}
	}
	if v, ok := lookupTrimmed(lookup, envRedisTLS); ok {
		if parsed, err := parseBool(v); err != nil {
			warn(envRedisTLS, v, err)
		} else {
			cfg.RedisTLS = parsed
		}
	}
	if v, ok := lookupTrimmed(lookup, envRedisPrefix); ok {
		cfg.RedisPrefix = v
	}

	if v, ok := lookupTrimmed(lookup, envKafkaBrokers); ok {
		cfg.KafkaBrokers = v
	}
	if v, ok := lookupTrimmed(lookup, envPixelTopic); ok {
		cfg.PixelTopic = v
	}
	if v, ok := lookupTrimmed(lookup, envPixelPollInterval); ok {
		if parsed, err := parseDuration(v, func(d time.Duration) bool { return d > 0 }, "must be > 0"); err != nil {
			warn(envPixelPollInterval, v, err)
		} else {
			cfg.PixelPollInterval = parsed
		}
	}
	if v, ok := lookupTrimmed(lookup, envPixelBatchSize); ok {
		if parsed, err := parseInt(v, func(n int) bool { return n > 0 }, "must be > 0"); err != nil {
			warn(envPixelBatchSize, v, err)
		} else {
			cfg.PixelBatchSize = parsed
		}
	}
	if v, ok := lookupTrimmed(lookup, envPixelMaxAttempts); ok {
		if parsed, err := parseInt(v, func(n int) bool { return n > 0 }, "must be > 0"); err != nil {
			warn(envPixelMaxAttempts, v, err)
		} else {
			cfg.PixelMaxAttempts = parsed
		}
	}
	if v, ok := lookupTrimmed(lookup, envPixelRetryDelay); ok {
		if parsed, err := parseDuration(v, func(d time.Duration) bool { return d >= 0 }, "must be >= 0"); err != nil {
			warn(envPixelRetryDelay, v, err)
		} else {
			cfg.PixelRetryDelay = parsed
		}
	}
	if v, ok := lookupTrimmed(lookup, envShutdownTimeout); ok {
		if parsed, err := parseDuration(v, func(d time.Duration) bool { return d > 0 }, "must be > 0"); err != nil {
			warn(envShutdownTimeout, v, err)
		} else {
			cfg.ShutdownTimeout = parsed
		}
	}

	return cfg, warnings
}

// lookupTrimmed возвращает значение без пробелов; пустое значение считается незаданным.
func lookupTrimmed(lookup envLookup, key string) (string, bool) {
	raw, ok := lookup(key)
	if !ok {
		return "", false
	}
	value := strings.TrimSpace(raw)
	return value, value != ""
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("unsupported bool value %q", raw)
	}
}

func parseInt(raw string, valid func(int) bool, rule string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if !valid(value) {
		return 0, fmt.Errorf("value %d %s", value, rule)
	}
	return value, nil
}

func parseDuration(raw string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if !valid(value) {
		return 0, fmt.Errorf("value %s %s", value, rule)
	}
	return value, nil
}
