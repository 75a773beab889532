// Package config loads the optional jgrab client configuration from
// <JGRAB_HOME>/client.yaml.  Every field has a default, so a missing file is
// not an error.
//
//	host: 127.0.0.1
//	port: 5002
//	max_retries: 5
//	probe_timeout: 1s
//	settle_delay: 1s
//	buffer_size: 4096
//	auth_token: true
//	daemon:
//	  java: java
//	  jvm_args: ["-Xmx256m"]
//	  bundled_jar: /opt/jgrab/jgrab.jar
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ianremillard/jgrab/internal/proto"
)

// DaemonConfig controls how the daemon process is launched.
type DaemonConfig struct {
	Java       string   `yaml:"java"`        // java launcher; default "java"
	JVMArgs    []string `yaml:"jvm_args"`    // placed before -jar
	BundledJar string   `yaml:"bundled_jar"` // copy source when the home jar is missing
}

// Config holds the client settings.
type Config struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	MaxRetries   int           `yaml:"max_retries"`
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
	SettleDelay  time.Duration `yaml:"settle_delay"`
	BufferSize   int           `yaml:"buffer_size"`
	AuthToken    bool          `yaml:"auth_token"`

	Daemon DaemonConfig `yaml:"daemon"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Host:         proto.DefaultHost,
		Port:         proto.DefaultPort,
		MaxRetries:   5,
		ProbeTimeout: time.Second,
		SettleDelay:  time.Second,
		BufferSize:   4096,
		AuthToken:    true,
		Daemon: DaemonConfig{
			Java: "java",
		},
	}
}

// Address returns the daemon's dialable TCP address.
func (c Config) Address() string {
	return proto.Address(c.Host, c.Port)
}

// Load reads path over the defaults.  Fields absent from the file keep their
// default value.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Host = strings.TrimSpace(c.Host)
	if c.Host == "" {
		c.Host = proto.DefaultHost
	}
	c.Daemon.Java = strings.TrimSpace(c.Daemon.Java)
	if c.Daemon.Java == "" {
		c.Daemon.Java = "java"
	}
	c.Daemon.BundledJar = strings.TrimSpace(c.Daemon.BundledJar)
}

// Validate rejects settings the client cannot run with.
func (c Config) Validate() error {
	var problems []string
	if c.Port <= 0 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("port %d out of range", c.Port))
	}
	if c.MaxRetries <= 0 {
		problems = append(problems, "max_retries must be positive")
	}
	if c.BufferSize <= 0 {
		problems = append(problems, "buffer_size must be positive")
	}
	if c.ProbeTimeout < 0 {
		problems = append(problems, "probe_timeout must not be negative")
	}
	if c.SettleDelay < 0 {
		problems = append(problems, "settle_delay must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
