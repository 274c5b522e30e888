package ai

import (
	"net/http"
	"strings"
	"time"
)

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultOpenRouterTimeout = 45 * time.Second
)

type openrouterConfig struct {
	APIKey      string `json:"api_key"`
	BaseURL     string `json:"base_url"`
	HTTPReferer string `json:"http_referer"`
	XTitle      string `json:"x_title"`
	Timeout     int    `json:"timeout"`
}

// headerTransport adds the attribution headers OpenRouter uses for app
// rankings to every request.
type headerTransport struct {
	next    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	for k, v := range t.headers {
		clone.Header.Set(k, v)
	}
	return t.next.RoundTrip(clone)
}

func createOpenRouterProvider(args interface{}) (*openAIProvider, error) {
	cfg := &openrouterConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	p := &openAIProvider{name: "openrouter"}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return p, nil
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	headers := map[string]string{}
	if v := strings.TrimSpace(cfg.HTTPReferer); v != "" {
		headers["HTTP-Referer"] = v
	}
	if v := strings.TrimSpace(cfg.XTitle); v != "" {
		headers["X-Title"] = v
	}
	timeout := defaultOpenRouterTimeout
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}
	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: &headerTransport{next: http.DefaultTransport, headers: headers},
	}
	p.client = newOpenAIClient(apiKey, baseURL, httpClient)
	return p, nil
}

func init() {
	Register("openrouter", func(args interface{}) (IAIProvider, error) {
		return createOpenRouterProvider(args)
	})
}
