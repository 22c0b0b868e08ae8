package openf1

import "f1-pitwall/internal/core/config"

// TokenSourceFromConfig builds the token source for the configured credentials.
func TokenSourceFromConfig(cfg config.Config) *TokenSource {
	return NewTokenSource(Credentials{
		AuthURL:  cfg.OpenF1AuthURL,
		Username: cfg.OpenF1Username,
		Password: cfg.OpenF1Password,
		APIKey:   cfg.OpenF1APIKey,
	}, nil)
}

// NewFromConfig builds the rate-limited client and its token source.
func NewFromConfig(cfg config.Config) (*Client, *TokenSource) {
	tokens := TokenSourceFromConfig(cfg)
	client := New(cfg.OpenF1BaseURL,
		WithAuthorizer(tokens),
		WithInterval(cfg.OpenF1RateInterval),
		WithRetries(cfg.OpenF1MaxRetries),
		WithThrottleBudget(cfg.OpenF1MaxThrottleRetries),
	)
	return client, tokens
}
