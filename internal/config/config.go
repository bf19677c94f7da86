// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads configuration from config.yaml and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bcem/resultsbridge/internal/resultsdb"
)

// Config holds all configuration for the bridge service.
type Config struct {
	// Results API
	ResultsDB resultsdb.Config

	// Redis
	RedisURL     string
	MessageQueue string

	// Server (intake + health check)
	Port int
}

// rawConfig mirrors the YAML structure for unmarshalling.
type rawConfig struct {
	ResultsDB struct {
		APIURL       string `yaml:"api_url"`
		User         string `yaml:"user"`
		Password     string `yaml:"password"`
		TokenURL     string `yaml:"token_url"`
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
		TrustedCA    string `yaml:"trusted_ca"`
		Timeout      string `yaml:"timeout"`
	} `yaml:"resultsdb"`
	Redis struct {
		URL    string `yaml:"url"`
		Queues struct {
			Messages string `yaml:"messages"`
		} `yaml:"queues"`
	} `yaml:"redis"`
}

// Load reads configuration from config.yaml (with env var expansion) and
// environment variables for non-YAML settings.
func Load() (*Config, error) {
	configPath := envOrDefault("CONFIG_PATH", "/app/config/config.yaml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	}

	// Expand ${VAR} references in the YAML
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}

	cfg := &Config{
		ResultsDB: resultsdb.Config{
			APIURL:       firstNonEmpty(raw.ResultsDB.APIURL, os.Getenv("RESULTSDB_API_URL")),
			User:         firstNonEmpty(raw.ResultsDB.User, os.Getenv("RESULTSDB_USER")),
			Password:     firstNonEmpty(raw.ResultsDB.Password, os.Getenv("RESULTSDB_PASSWORD")),
			TokenURL:     firstNonEmpty(raw.ResultsDB.TokenURL, os.Getenv("OIDC_TOKEN_URL")),
			ClientID:     firstNonEmpty(raw.ResultsDB.ClientID, os.Getenv("OIDC_CLIENT_ID")),
			ClientSecret: firstNonEmpty(raw.ResultsDB.ClientSecret, os.Getenv("OIDC_CLIENT_SECRET")),
			TrustedCA:    raw.ResultsDB.TrustedCA,
			Timeout:      envOrDefaultDuration("RESULTSDB_TIMEOUT", 15*time.Second),
		},
		RedisURL:     firstNonEmpty(raw.Redis.URL, envOrDefault("REDIS_URL", "redis://localhost:6379/0")),
		MessageQueue: firstNonEmpty(raw.Redis.Queues.Messages, envOrDefault("MESSAGE_QUEUE", "ci-messages")),
		Port:         envOrDefaultInt("PORT", 8080),
	}

	if raw.ResultsDB.Timeout != "" {
		d, err := time.ParseDuration(raw.ResultsDB.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse resultsdb.timeout %q: %w", raw.ResultsDB.Timeout, err)
		}
		cfg.ResultsDB.Timeout = d
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate enforces the credential rules before the service touches the bus:
// a misconfigured API client must fail at startup, not per message.
func validate(cfg *Config) error {
	db := cfg.ResultsDB

	if db.APIURL == "" {
		return fmt.Errorf("resultsdb.api_url is required")
	}

	hasUser := db.User != ""
	hasPassword := db.Password != ""
	if hasUser != hasPassword {
		return fmt.Errorf("resultsdb user and password must be set together")
	}

	basicAuth := hasUser && hasPassword
	oidc := db.TokenURL != ""

	if basicAuth && oidc {
		return fmt.Errorf("basic auth and OIDC client credentials are mutually exclusive")
	}
	if basicAuth && !strings.HasPrefix(db.APIURL, "https://") {
		return fmt.Errorf("basic auth requires an https resultsdb URL, got %s", db.APIURL)
	}
	if oidc && (db.ClientID == "" || db.ClientSecret == "") {
		return fmt.Errorf("OIDC token_url requires client_id and client_secret")
	}

	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
