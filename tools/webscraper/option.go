package webscraper

import "net/http"

type Option func(*Config)

func WithUserAgent(userAgent string) Option {
	return func(c *Config) {
		c.userAgent = userAgent
	}
}

func WithHttpClient(clt *http.Client) Option {
	return func(c *Config) {
		c.httpClient = clt
	}
}
