package twocaptcha

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultPollAttempts = 30
)

// PollOption configures polling behavior.
type PollOption func(*pollConfig)

type pollConfig struct {
	interval time.Duration
	attempts int
}

func defaultPollConfig() pollConfig {
	return pollConfig{
		interval: defaultPollInterval,
		attempts: defaultPollAttempts,
	}
}

// WithPollInterval overrides the fixed poll interval.
func WithPollInterval(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.interval = d
	}
}

// WithPollAttempts overrides the maximum number of result checks.
func WithPollAttempts(n int) PollOption {
	return func(c *pollConfig) {
		c.attempts = n
	}
}

// Poll checks the job's result at a fixed interval until the service
// returns a solution, a terminal error, the attempt budget runs out, or
// the context expires. The service keeps a fixed solve cadence, so unlike
// a crawl poll there is no backoff here.
func Poll(ctx context.Context, client Client, id string, opts ...PollOption) (string, error) {
	cfg := defaultPollConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	for attempt := 0; attempt < cfg.attempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", eris.Wrapf(ctx.Err(), "twocaptcha: poll job %s cancelled", id)
		case <-time.After(cfg.interval):
		}

		answer, err := client.Result(ctx, id)
		if err == nil {
			return answer, nil
		}
		if !errors.Is(err, ErrNotReady) {
			return "", eris.Wrapf(err, "twocaptcha: poll job %s", id)
		}
	}

	return "", eris.Errorf("twocaptcha: job %s not solved after %d checks", id, cfg.attempts)
}
