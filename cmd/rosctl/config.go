package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	routeros "github.com/ShafiqSadat/RouterOSClient"
)

type fileConfig struct {
	Address     string `toml:"address"`
	Username    string `toml:"username"`
	Password    string `toml:"password"`
	Timeout     string `toml:"timeout"`
	Verbose     bool   `toml:"verbose"`
	Listen      string `toml:"listen"`
	ListenToken string `toml:"listen_token"`
	TLS         struct {
		Enabled            bool   `toml:"enabled"`
		ServerName         string `toml:"server_name"`
		CAFile             string `toml:"ca_file"`
		InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
		Mutual             bool   `toml:"mutual"`
		CertFile           string `toml:"cert_file"`
		KeyFile            string `toml:"key_file"`
	} `toml:"tls"`
}

// applyFileConfig layers a TOML file over cfg and opts. Only keys the
// file actually defines are applied, and keys also given as flags are
// skipped so flags keep the last word.
func applyFileConfig(path string, cfg *routeros.Config, opts *options, set map[string]bool) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("address") {
		cfg.Address = strings.TrimSpace(raw.Address)
	}
	if meta.IsDefined("username") {
		cfg.Username = strings.TrimSpace(raw.Username)
	}
	if meta.IsDefined("password") {
		cfg.Password = raw.Password
	}
	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return fmt.Errorf("parse timeout: %w", err)
		}
		applyTimeout(cfg, d)
	}
	if meta.IsDefined("verbose") && !set["verbose"] {
		opts.verbose = raw.Verbose
	}
	if meta.IsDefined("listen") && !set["listen"] {
		opts.listenAddr = strings.TrimSpace(raw.Listen)
	}
	if meta.IsDefined("listen_token") && !set["listen-token"] {
		opts.listenToken = raw.ListenToken
	}

	if meta.IsDefined("tls", "enabled") {
		cfg.TLS.Enabled = raw.TLS.Enabled
	}
	if meta.IsDefined("tls", "server_name") {
		cfg.TLS.ServerName = strings.TrimSpace(raw.TLS.ServerName)
	}
	if meta.IsDefined("tls", "ca_file") {
		cfg.TLS.CAFile = strings.TrimSpace(raw.TLS.CAFile)
	}
	if meta.IsDefined("tls", "insecure_skip_verify") {
		cfg.TLS.InsecureSkipVerify = raw.TLS.InsecureSkipVerify
	}
	if meta.IsDefined("tls", "mutual") {
		cfg.TLS.Mutual = raw.TLS.Mutual
	}
	if meta.IsDefined("tls", "cert_file") {
		cfg.TLS.CertFile = strings.TrimSpace(raw.TLS.CertFile)
	}
	if meta.IsDefined("tls", "key_file") {
		cfg.TLS.KeyFile = strings.TrimSpace(raw.TLS.KeyFile)
	}
	return nil
}

// applyTimeout maps the single user-facing timeout onto every phase of
// the session.
func applyTimeout(cfg *routeros.Config, d time.Duration) {
	cfg.ConnectTimeout = d
	cfg.LoginTimeout = d
	cfg.ReadTimeout = d
	cfg.WriteTimeout = d
}
