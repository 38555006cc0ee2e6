package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/simplegameutils/sgu/internal/flagx"
)

// duration accepts both "1m30s" strings and integer nanoseconds.
type duration time.Duration

func (d *duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case float64:
		*d = duration(time.Duration(val))
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return err
		}
		*d = duration(parsed)
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
	return nil
}

// jsonConfig mirrors Config for JSON files. Pointer fields distinguish "absent"
// from zero so a partial file only overrides what it names.
type jsonConfig struct {
	ListenAddr       *string   `json:"listen_addr"`
	DatabaseDSN      *string   `json:"database_dsn"`
	SecretKey        *string   `json:"secret_key"`
	IdentityURL      *string   `json:"identity_url"`
	IdentityTimeout  *duration `json:"identity_timeout"`
	IdentityCacheTTL *duration `json:"identity_cache_ttl"`
	RedisAddr        *string   `json:"redis_addr"`
	RedisDB          *int      `json:"redis_db"`
	IdleTimeout      *duration `json:"idle_timeout"`
	RequestTimeout   *duration `json:"request_timeout"`
	MessageRate      *float64  `json:"message_rate"`
	MessageBurst     *int      `json:"message_burst"`
	LogLevel         *string   `json:"log_level"`
}

// parseJSON overlays the file named by -c/-config, if any. Unreadable files
// and invalid JSON panic.
func parseJSON(cfg *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(raw, &jc); err != nil {
		panic(err)
	}

	setIf(&cfg.ListenAddr, jc.ListenAddr)
	setIf(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setIf(&cfg.SecretKey, jc.SecretKey)
	setIf(&cfg.IdentityURL, jc.IdentityURL)
	setDurationIf(&cfg.IdentityTimeout, jc.IdentityTimeout)
	setDurationIf(&cfg.IdentityCacheTTL, jc.IdentityCacheTTL)
	setIf(&cfg.RedisAddr, jc.RedisAddr)
	setIf(&cfg.RedisDB, jc.RedisDB)
	setDurationIf(&cfg.IdleTimeout, jc.IdleTimeout)
	setDurationIf(&cfg.RequestTimeout, jc.RequestTimeout)
	setIf(&cfg.MessageRate, jc.MessageRate)
	setIf(&cfg.MessageBurst, jc.MessageBurst)
	setIf(&cfg.LogLevel, jc.LogLevel)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setDurationIf(dst *time.Duration, src *duration) {
	if src != nil {
		*dst = time.Duration(*src)
	}
}
