// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for oswc.
//
// Configuration is a single TOML file with sensible defaults, environment
// variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure
//   - ServiceConfig: Driver selection, default port, client tag, gateway tuning
//   - UIConfig: History file and colors
//   - LogConfig: Log level and file
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (OSWC_*)
//   - --config FILE, or ~/.oswc/config.toml
//   - Built-in defaults
//
// When ~/.oswc/config.toml does not exist, Load writes the defaults there
// (mode 0600) so every key can be found and edited.
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	port := cfg.Service.DefaultPort
//	history := cfg.HistoryPath()
package config
