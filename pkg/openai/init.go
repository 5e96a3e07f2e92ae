package openai

import (
	"net/http"
	"net/url"

	"github.com/sashabaranov/go-openai"
)

type Client struct {
	client *openai.Client
}

func NewClient(baseUrl, apiKey, proxyAddr string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseUrl != "" {
		cfg.BaseURL = baseUrl
	}

	transport := &http.Transport{}
	if proxyAddr != "" {
		if proxyUrl, err := url.Parse(proxyAddr); err == nil {
			transport.Proxy = http.ProxyURL(proxyUrl)
		}
	}

	// No client-level timeout; per-call deadlines come from the context.
	cfg.HTTPClient = &http.Client{
		Transport: transport,
	}

	client := openai.NewClientWithConfig(cfg)
	return &Client{client: client}
}
