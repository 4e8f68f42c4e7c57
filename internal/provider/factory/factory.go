package factory

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"modelfan/internal/config"
	"modelfan/internal/provider"
	anthropicProvider "modelfan/internal/provider/anthropic"
	geminiProvider "modelfan/internal/provider/gemini"
	openaiProvider "modelfan/internal/provider/openai"
	openrouterProvider "modelfan/internal/provider/openrouter"
	"modelfan/internal/router"
)

const (
	defaultHTTPTimeout     = 60 * time.Second
	defaultDialTimeout     = 10 * time.Second
	defaultKeepAlive       = 30 * time.Second
	defaultIdleConnTimeout = 90 * time.Second
)

// BuildBindings constructs a provider binding per configured credential.
// Providers without a credential are skipped, so their models resolve as
// unavailable instead of failing startup.
func BuildBindings(cfg config.Config) (map[router.Kind]provider.Provider, error) {
	bindings := make(map[router.Kind]provider.Provider)

	if cfg.Providers.OpenAI.Configured() {
		p, err := openaiProvider.New("openai", cfg.Providers.OpenAI, newHTTPClient(defaultHTTPTimeout))
		if err != nil {
			return nil, fmt.Errorf("initialise openai provider: %w", err)
		}
		bindings[router.KindOpenAI] = p
	}

	if cfg.Providers.Anthropic.Configured() {
		p, err := anthropicProvider.New("anthropic", cfg.Providers.Anthropic, newHTTPClient(defaultHTTPTimeout))
		if err != nil {
			return nil, fmt.Errorf("initialise anthropic provider: %w", err)
		}
		bindings[router.KindAnthropic] = p
	}

	if cfg.Providers.OpenRouter.Configured() {
		p, err := openrouterProvider.New("openrouter", cfg.Providers.OpenRouter, newHTTPClient(defaultHTTPTimeout))
		if err != nil {
			return nil, fmt.Errorf("initialise openrouter provider: %w", err)
		}
		bindings[router.KindOpenRouter] = p
	}

	if cfg.Providers.Gemini.Configured() {
		p, err := geminiProvider.New("gemini", cfg.Providers.Gemini, newHTTPClient(defaultHTTPTimeout))
		if err != nil {
			return nil, fmt.Errorf("initialise gemini provider: %w", err)
		}
		bindings[router.KindGemini] = p
	}

	if len(bindings) == 0 {
		slog.Warn("no provider credentials configured; all models will resolve as unavailable")
	}

	return bindings, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAlive}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          50,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
