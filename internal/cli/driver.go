// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jeranaias/oswc/internal/config"
	"github.com/jeranaias/oswc/internal/service"
	"github.com/jeranaias/oswc/internal/service/gateway"
	"github.com/jeranaias/oswc/internal/service/local"
)

// NewService builds the service driver selected by cfg.
func NewService(cfg *config.Config, logger *zap.Logger) (service.Service, error) {
	switch cfg.Service.Driver {
	case config.DriverLocal:
		return local.New(cfg.DataDir(), local.WithLogger(logger.Named("local"))), nil
	case config.DriverGateway:
		burst := max(int(2*cfg.Service.RateLimit), 1)
		return gateway.New(
			gateway.WithLogger(logger.Named("gateway")),
			gateway.WithPath(cfg.Service.GatewayPath),
			gateway.WithRateLimit(cfg.Service.RateLimit, burst),
		), nil
	default:
		return nil, &ConfigError{Err: fmt.Errorf("unknown service driver %q", cfg.Service.Driver)}
	}
}

// connectOptions maps the transport settings of cfg.
func connectOptions(cfg *config.Config) service.ConnectOptions {
	return service.ConnectOptions{
		Compression: cfg.Service.Compression,
		Reconnect:   cfg.Service.Reconnect,
	}
}
