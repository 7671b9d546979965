// Package qr provides the QR bounded context.
// This file defines the module that wires the backend client and token source.
package qr

import (
	"context"
	"fmt"

	"qr_generator_client/internal/qr/client"
	"qr_generator_client/platform/config"
	"qr_generator_client/platform/csrf"
	"qr_generator_client/platform/logger"
)

// Config is what the module needs from the application configuration.
type Config interface {
	config.QRAPIConfig
	config.CSRFConfig
}

// Module is the QR bounded context module.
type Module struct {
	client *client.Client
	tokens csrf.TokenSource
	log    *logger.Logger
}

// NewModule creates the backend client and its token source. A configured
// static token wins over the cookie the backend sets.
func NewModule(cfg Config, log *logger.Logger) (*Module, error) {
	apiClient, err := client.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("create qr client: %w", err)
	}

	tokens := csrf.Chain{
		csrf.Static(cfg.GetCSRFToken()),
		csrf.NewJarSource(apiClient.Jar(), apiClient.BaseURL(), cfg.GetCSRFCookieName()),
	}

	log.Debug("qr module initialized", "baseUrl", apiClient.BaseURL().String())

	return &Module{
		client: apiClient,
		tokens: tokens,
		log:    log,
	}, nil
}

// API returns the backend client.
func (m *Module) API() API {
	return m.client
}

// Tokens returns the anti-forgery token source.
func (m *Module) Tokens() csrf.TokenSource {
	return m.tokens
}

// PrimeCSRF fetches the generator page so the token cookie is available.
// Failure is logged, not fatal: requests then go out with an empty token.
func (m *Module) PrimeCSRF(ctx context.Context) {
	if err := m.client.PrimeCSRF(ctx); err != nil {
		m.log.Warn("could not obtain csrf cookie", "error", err)
	}
}
