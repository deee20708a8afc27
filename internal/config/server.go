package config

import (
	"fmt"
	"time"
)

// ServerConfig configures the HTTP surface started by `qrprompt serve`.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxUploadMB    int      `yaml:"max_upload_mb"`
	MaxConnections int      `yaml:"max_connections"` // 0 = unlimited
	ReadTimeout    string   `yaml:"read_timeout"`
	WriteTimeout   string   `yaml:"write_timeout"`
}

// GetReadTimeout returns the read timeout as a duration.
func (c ServerConfig) GetReadTimeout() time.Duration {
	d, err := time.ParseDuration(c.ReadTimeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// GetWriteTimeout returns the write timeout as a duration.
func (c ServerConfig) GetWriteTimeout() time.Duration {
	d, err := time.ParseDuration(c.WriteTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// MaxUploadBytes is the multipart limit for photo uploads.
func (c ServerConfig) MaxUploadBytes() int64 {
	if c.MaxUploadMB <= 0 {
		return 10 << 20
	}
	return int64(c.MaxUploadMB) << 20
}

func (c ServerConfig) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.MaxUploadMB < 0 {
		return fmt.Errorf("server.max_upload_mb must be >= 0")
	}
	if c.MaxConnections < 0 {
		return fmt.Errorf("server.max_connections must be >= 0")
	}
	return nil
}
