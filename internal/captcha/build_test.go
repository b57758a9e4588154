package captcha

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latam-scholars/status-cli/internal/config"
)

type nopPrompter struct{}

func (nopPrompter) Prompt(context.Context, []byte) (string, error) { return "", nil }

func cascadeNames(t *testing.T, r Resolver) []string {
	t.Helper()
	cache, ok := r.(*Cache)
	require.True(t, ok, "cascade must be wrapped in the answer cache")
	engine, ok := cache.inner.(*Engine)
	require.True(t, ok)

	var names []string
	for _, s := range engine.solvers {
		names = append(names, s.Name())
	}
	return names
}

func TestNewFromConfig_FullCascade(t *testing.T) {
	r := NewFromConfig(config.CaptchaConfig{
		TwoCaptchaKey: "key",
		ManualEnabled: true,
	}, nopPrompter{})

	assert.Equal(t, []string{"2captcha", "ocr-ensemble", "manual"}, cascadeNames(t, r))
}

func TestNewFromConfig_NoServiceCredential(t *testing.T) {
	r := NewFromConfig(config.CaptchaConfig{ManualEnabled: true}, nopPrompter{})
	assert.Equal(t, []string{"ocr-ensemble", "manual"}, cascadeNames(t, r))
}

func TestNewFromConfig_ManualDisabled(t *testing.T) {
	r := NewFromConfig(config.CaptchaConfig{TwoCaptchaKey: "key"}, nil)
	assert.Equal(t, []string{"2captcha", "ocr-ensemble"}, cascadeNames(t, r))
}

func TestNewFromConfig_ManualOnly(t *testing.T) {
	r := NewFromConfig(config.CaptchaConfig{
		TwoCaptchaKey: "key",
		ManualEnabled: true,
		ManualOnly:    true,
	}, nopPrompter{})

	assert.Equal(t, []string{"manual"}, cascadeNames(t, r))
}
