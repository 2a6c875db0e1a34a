package controller

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	v1 "github.com/erikmagkekse/craftui/craft/api/v1"
	"github.com/erikmagkekse/craftui/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lastBody(t *testing.T, e *testEnv) string {
	t.Helper()
	e.dev.mu.Lock()
	defer e.dev.mu.Unlock()
	require.NotEmpty(t, e.dev.configured)
	b, err := json.Marshal(e.dev.configured[len(e.dev.configured)-1])
	require.NoError(t, err)
	return string(b)
}

func TestSubmitSet(t *testing.T) {
	e := newTestEnv(t, Config{})
	require.NoError(t, e.page.SetValue("hostname", "router1"))

	var during string
	e.dev.ConfigureFn = func(context.Context, v1.ConfigRequest) (*v1.ConfigResponse, error) {
		during = e.page.Text("hostname_result")
		return &v1.ConfigResponse{Error: 0}, nil
	}

	res, err := e.c.Submit(context.Background(), "hostname", model.ModeSet)
	require.NoError(t, err)

	assert.Equal(t, InProgressText, during)
	assert.Equal(t, `{"config":[{"hostname":"router1"}]}`, lastBody(t, e))
	assert.Equal(t, "Configured successfully.", e.page.Text("hostname_result"))
	assert.True(t, res.Success)
	assert.True(t, res.Refreshed)
	assert.Eventually(t, func() bool { return e.dev.statusCalls() == 1 }, time.Second, 5*time.Millisecond)
}

func TestSubmitActivateRejected(t *testing.T) {
	e := newTestEnv(t, Config{})
	e.dev.ConfigureFn = func(context.Context, v1.ConfigRequest) (*v1.ConfigResponse, error) {
		return &v1.ConfigResponse{Error: 1, ErrorString: "busy"}, nil
	}

	res, err := e.c.Submit(context.Background(), "reboot", model.ModeActivate)
	require.NoError(t, err)

	assert.Equal(t, `{"config":[{"reboot_activate":"true"}]}`, lastBody(t, e))
	assert.Equal(t, "Error: busy", e.page.Text("reboot_result"))
	assert.False(t, res.Success)
	assert.True(t, res.Refreshed, "application errors still refresh")
	assert.Eventually(t, func() bool { return e.dev.statusCalls() == 1 }, time.Second, 5*time.Millisecond)
}

func TestSubmitActivateSuccess(t *testing.T) {
	e := newTestEnv(t, Config{})
	_, err := e.c.Submit(context.Background(), "reboot", model.ModeActivate)
	require.NoError(t, err)
	assert.Equal(t, "Applied successfully.", e.page.Text("reboot_result"))
}

func TestSubmitPassword(t *testing.T) {
	e := newTestEnv(t, Config{})
	require.NoError(t, e.page.SetValue("password_admin_admin", "old"))
	require.NoError(t, e.page.SetValue("password_admin_new", "n3w:pass"))
	require.NoError(t, e.page.SetValue("password_admin_confirm", "different"))

	_, err := e.c.Submit(context.Background(), "password_admin", model.ModeChangePassword)
	require.NoError(t, err)

	enc := base64.StdEncoding.EncodeToString
	want := fmt.Sprintf(`{"config":[{"password_admin":{"admin":%q,"new":%q,"confirm":%q}}]}`,
		enc([]byte("old")), enc([]byte("n3w:pass")), enc([]byte("different")))
	assert.Equal(t, want, lastBody(t, e), "new and confirm are sent as is, even when they differ")
	assert.Equal(t, "Password changed successfully.", e.page.Text("password_admin_result"))
}

func TestSubmitTransportFailure(t *testing.T) {
	cases := map[string]struct {
		err  error
		want string
	}{
		"http error": {
			err:  &v1.HTTPError{StatusCode: 500, Status: "Internal Server Error", Body: "oops"},
			want: "Internal Server Error oops",
		},
		"no response": {
			err:  fmt.Errorf("request POST /content.json: %w", context.DeadlineExceeded),
			want: "request POST /content.json: context deadline exceeded",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			e := newTestEnv(t, Config{})
			require.NoError(t, e.page.SetValue("hostname", "router1"))
			e.dev.ConfigureFn = func(context.Context, v1.ConfigRequest) (*v1.ConfigResponse, error) {
				return nil, tc.err
			}

			res, err := e.c.Submit(context.Background(), "hostname", model.ModeSet)
			require.NoError(t, err)
			assert.Equal(t, tc.want, e.page.Text("hostname_result"))
			assert.False(t, res.Refreshed)
			assert.Never(t, func() bool { return e.dev.statusCalls() > 0 }, 50*time.Millisecond, 5*time.Millisecond)
		})
	}
}

func TestSubmitInvalidResponse(t *testing.T) {
	e := newTestEnv(t, Config{})
	require.NoError(t, e.page.SetValue("hostname", "router1"))
	e.dev.ConfigureFn = func(context.Context, v1.ConfigRequest) (*v1.ConfigResponse, error) {
		return nil, fmt.Errorf("%w: unexpected character", v1.ErrInvalidResponse)
	}

	res, err := e.c.Submit(context.Background(), "hostname", model.ModeSet)
	require.NoError(t, err)
	assert.Equal(t, "Error: invalid response", e.page.Text("hostname_result"))
	assert.True(t, res.Refreshed)
}

func TestSubmitInvalid(t *testing.T) {
	e := newTestEnv(t, Config{})

	_, err := e.c.Submit(context.Background(), "nosuchfield", model.ModeSet)
	assert.ErrorIs(t, err, ErrMissingInput)

	// a password control without its three inputs
	_, err = e.c.Submit(context.Background(), "hostname", model.ModeChangePassword)
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = e.c.Submit(context.Background(), "hostname", model.SubmitMode("toggle"))
	assert.Error(t, err)

	_, err = e.c.Submit(context.Background(), "", model.ModeActivate)
	assert.Error(t, err)

	assert.Empty(t, e.dev.configured)
}
