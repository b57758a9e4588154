package twocaptcha

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmit_ReturnsJobID(t *testing.T) {
	image := []byte("png-bytes")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "test-key", r.FormValue("key"))
		assert.Equal(t, "base64", r.FormValue("method"))
		assert.Equal(t, "1", r.FormValue("json"))

		decoded, err := base64.StdEncoding.DecodeString(r.FormValue("body"))
		require.NoError(t, err)
		assert.Equal(t, image, decoded)

		w.Write([]byte(`{"status":1,"request":"987654"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("test-key", WithSubmitURL(srv.URL))
	id, err := client.Submit(context.Background(), image)
	require.NoError(t, err)
	assert.Equal(t, "987654", id)
}

func TestSubmit_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":0,"request":"ERROR_ZERO_BALANCE"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("test-key", WithSubmitURL(srv.URL))
	_, err := client.Submit(context.Background(), []byte("png"))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "ERROR_ZERO_BALANCE", apiErr.Code)
}

func TestResult_NotReadyThenSolved(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "get", r.FormValue("action"))
		assert.Equal(t, "987654", r.FormValue("id"))

		calls++
		if calls == 1 {
			w.Write([]byte(`{"status":0,"request":"CAPCHA_NOT_READY"}`)) //nolint:errcheck
			return
		}
		w.Write([]byte(`{"status":1,"request":"vxkms"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("test-key", WithResultURL(srv.URL))

	_, err := client.Result(context.Background(), "987654")
	require.ErrorIs(t, err, ErrNotReady)

	answer, err := client.Result(context.Background(), "987654")
	require.NoError(t, err)
	assert.Equal(t, "vxkms", answer)
}

func TestResult_TerminalError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":0,"request":"ERROR_CAPTCHA_UNSOLVABLE"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("test-key", WithResultURL(srv.URL))
	_, err := client.Result(context.Background(), "987654")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "ERROR_CAPTCHA_UNSOLVABLE", apiErr.Code)
}

func TestClient_HTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithSubmitURL(srv.URL))
	_, err := client.Submit(context.Background(), []byte("png"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "HTTP 502")
}
