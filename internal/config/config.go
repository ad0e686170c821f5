// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
//
// Package config loads the environment-bound configuration options of
// spec.md §6. Grounded in the teacher's internal/drone.LoadConfig: a
// godotenv pass for local .env support, an optional viper YAML overlay,
// then environment variables taking final precedence.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every environment-bound option named in spec.md §6.
type Config struct {
	UploadDir            string `mapstructure:"upload_dir"`
	DatabaseURL          string `mapstructure:"database_url"`
	EmbeddingsServiceURL string `mapstructure:"embeddings_service_url"`
	Port                 int    `mapstructure:"port"`
	WorkerCount          int    `mapstructure:"worker_count"`
	ChunkSizeChars       int    `mapstructure:"chunk_size_chars"`
	MinChunkChars        int    `mapstructure:"min_chunk_chars"`
	EmbedBatch           int    `mapstructure:"embed_batch"`
	PagingLimitMaxFiles  int    `mapstructure:"paging_limit_max_files"`
	PagingLimitMaxChunks int    `mapstructure:"paging_limit_max_chunks"`

	// RedisAddr, when set, selects the Redis-backed job queue over the
	// default in-process one (internal/queue.RedisQueue).
	RedisAddr string `mapstructure:"redis_addr"`

	// QdrantAddr, when set, selects the Qdrant-backed similarity search
	// (internal/vectordb) over the default SQLite brute-force scan.
	QdrantAddr string `mapstructure:"qdrant_addr"`

	LogFile string `mapstructure:"log_file"`
}

// Defaults mirrors the defaults tabled in spec.md §6.
func Defaults() Config {
	return Config{
		UploadDir:            "./uploads",
		DatabaseURL:          "./knowledgehive.db",
		EmbeddingsServiceURL: "http://localhost:9100",
		Port:                 8080,
		WorkerCount:          3,
		ChunkSizeChars:       2000,
		MinChunkChars:        10,
		EmbedBatch:           10,
		PagingLimitMaxFiles:  1000,
		PagingLimitMaxChunks: 100,
		LogFile:              "knowledgehive.log",
	}
}

// Load builds a Config by layering, in increasing precedence: built-in
// defaults, an optional YAML file (viper), a local .env file (godotenv),
// then actual process environment variables. configFile may be empty, in
// which case only env vars and defaults apply.
func Load(configFile string) (Config, error) {
	cfg := Defaults()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setViperDefaults(v, cfg)
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", configFile, err)
		}
		if err := v.Unmarshal(&cfg); err != nil {
			return Config{}, fmt.Errorf("config: decoding %s: %w", configFile, err)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func setViperDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("upload_dir", cfg.UploadDir)
	v.SetDefault("database_url", cfg.DatabaseURL)
	v.SetDefault("embeddings_service_url", cfg.EmbeddingsServiceURL)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("worker_count", cfg.WorkerCount)
	v.SetDefault("chunk_size_chars", cfg.ChunkSizeChars)
	v.SetDefault("min_chunk_chars", cfg.MinChunkChars)
	v.SetDefault("embed_batch", cfg.EmbedBatch)
	v.SetDefault("paging_limit_max_files", cfg.PagingLimitMaxFiles)
	v.SetDefault("paging_limit_max_chunks", cfg.PagingLimitMaxChunks)
	v.SetDefault("log_file", cfg.LogFile)
}

func applyEnvOverrides(cfg *Config) {
	strVar(&cfg.UploadDir, "UPLOAD_DIR")
	strVar(&cfg.DatabaseURL, "DATABASE_URL")
	strVar(&cfg.EmbeddingsServiceURL, "EMBEDDINGS_SERVICE_URL")
	strVar(&cfg.RedisAddr, "REDIS_ADDR")
	strVar(&cfg.QdrantAddr, "QDRANT_ADDR")
	strVar(&cfg.LogFile, "LOG_FILE")
	intVar(&cfg.Port, "PORT")
	intVar(&cfg.WorkerCount, "WORKER_COUNT")
	intVar(&cfg.ChunkSizeChars, "CHUNK_SIZE_CHARS")
	intVar(&cfg.MinChunkChars, "MIN_CHUNK_CHARS")
	intVar(&cfg.EmbedBatch, "EMBED_BATCH")
	intVar(&cfg.PagingLimitMaxFiles, "PAGING_LIMIT_MAX_FILES")
	intVar(&cfg.PagingLimitMaxChunks, "PAGING_LIMIT_MAX_CHUNKS")

	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
}

func strVar(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func intVar(dst *int, name string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: %s=%q is not an integer, keeping default %d", name, v, *dst)
		return
	}
	*dst = n
}
