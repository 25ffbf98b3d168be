package partner

import (
	"errors"
	"net/url"
)

// Config holds the partner API connection settings
type Config struct {
	// BaseURL is the partner API root, e.g. https://api.partner.example/v1
	BaseURL string
	// Username is the integration user sent to the authentication endpoint
	Username string
	// Password is the integration user's password
	Password string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// defaultTimeoutSeconds is used when TimeoutSeconds is not set
const defaultTimeoutSeconds = 30

// Errors for partner configuration
var (
	ErrConfigMissingBaseURL  = errors.New("partner: base URL is required")
	ErrConfigInvalidBaseURL  = errors.New("partner: base URL must be an absolute http(s) URL")
	ErrConfigMissingUsername = errors.New("partner: username is required")
	ErrConfigMissingPassword = errors.New("partner: password is required")
)

// NewConfig creates a partner configuration with defaults
func NewConfig(baseURL, username, password string) *Config {
	return &Config{
		BaseURL:        baseURL,
		Username:       username,
		Password:       password,
		TimeoutSeconds: defaultTimeoutSeconds,
	}
}

// Validate validates the configuration and fills in defaults
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrConfigInvalidBaseURL
	}
	if c.Username == "" {
		return ErrConfigMissingUsername
	}
	if c.Password == "" {
		return ErrConfigMissingPassword
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = defaultTimeoutSeconds
	}
	return nil
}
