package captcha

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/latam-scholars/status-cli/pkg/twocaptcha"
)

// RemoteSolver submits challenges to the 2Captcha service and polls for the
// operator-farm answer. A "not ready" response is retried by the poll loop;
// any other service error is terminal for this strategy only.
type RemoteSolver struct {
	client   twocaptcha.Client
	pollOpts []twocaptcha.PollOption
}

// NewRemoteSolver creates a RemoteSolver around an API client.
func NewRemoteSolver(client twocaptcha.Client, pollOpts ...twocaptcha.PollOption) *RemoteSolver {
	return &RemoteSolver{client: client, pollOpts: pollOpts}
}

func (s *RemoteSolver) Name() string { return "2captcha" }

func (s *RemoteSolver) Solve(ctx context.Context, image []byte) (string, error) {
	id, err := s.client.Submit(ctx, image)
	if err != nil {
		return "", eris.Wrap(err, "captcha: submit to solving service")
	}
	zap.L().Debug("captcha: challenge submitted to service", zap.String("job_id", id))

	answer, err := twocaptcha.Poll(ctx, s.client, id, s.pollOpts...)
	if err != nil {
		return "", eris.Wrap(err, "captcha: await service answer")
	}
	return answer, nil
}
