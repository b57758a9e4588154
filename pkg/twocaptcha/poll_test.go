package twocaptcha

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedClient struct {
	answers []func() (string, error)
	calls   int
}

func (c *scriptedClient) Submit(context.Context, []byte) (string, error) {
	return "", errors.New("not used")
}

func (c *scriptedClient) Result(context.Context, string) (string, error) {
	step := c.answers[c.calls]
	if c.calls < len(c.answers)-1 {
		c.calls++
	}
	return step()
}

func notReady() (string, error) { return "", ErrNotReady }

func solved(s string) func() (string, error) {
	return func() (string, error) { return s, nil }
}

func TestPoll_ReturnsSolution(t *testing.T) {
	client := &scriptedClient{answers: []func() (string, error){
		notReady,
		notReady,
		solved("vxkms"),
	}}

	answer, err := Poll(context.Background(), client, "job-1",
		WithPollInterval(time.Millisecond),
	)
	require.NoError(t, err)
	assert.Equal(t, "vxkms", answer)
}

func TestPoll_TerminalErrorStopsPolling(t *testing.T) {
	client := &scriptedClient{answers: []func() (string, error){
		notReady,
		func() (string, error) { return "", &APIError{Code: "ERROR_CAPTCHA_UNSOLVABLE"} },
		solved("never-reached"),
	}}

	_, err := Poll(context.Background(), client, "job-1",
		WithPollInterval(time.Millisecond),
	)
	require.Error(t, err)

	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestPoll_AttemptBudgetExhausted(t *testing.T) {
	client := &scriptedClient{answers: []func() (string, error){notReady}}

	_, err := Poll(context.Background(), client, "job-1",
		WithPollInterval(time.Millisecond),
		WithPollAttempts(3),
	)
	require.Error(t, err)
	assert.ErrorContains(t, err, "not solved after 3 checks")
}

func TestPoll_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &scriptedClient{answers: []func() (string, error){notReady}}
	_, err := Poll(ctx, client, "job-1", WithPollInterval(time.Minute))
	require.ErrorIs(t, err, context.Canceled)
}
