package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/erikmagkekse/craftui/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/term"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

type device struct {
	mu     sync.Mutex
	posts  []string
	status int
}

func (d *device) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.status != 0 {
		w.WriteHeader(d.status)
		return
	}
	if r.Method == http.MethodPost {
		b, _ := io.ReadAll(r.Body)
		d.posts = append(d.posts, string(b))
		_, _ = w.Write([]byte(`{"error":0}`))
		return
	}
	_, _ = w.Write([]byte(`{"platform":{"serialno":"SN1","switch":{"p1":"up"}},"radio":{"rx":{"rsl":-42}},"leds":{"Radio":"green.gif"},"bogus":1}`))
}

func testApp(t *testing.T, d *device) (*app, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(d)
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	a, err := newApp(model.ConsoleConfig{
		BaseURL:        srv.URL,
		PeerSuffix:     "",
		PollInterval:   time.Second,
		RequestTimeout: time.Second,
		SubmitTimeout:  time.Second,
		HistorySize:    10,
		StaticRoot:     "/static",
	}, &out)
	require.NoError(t, err)
	return a, &out
}

func TestStatusCommand(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		a, out := testApp(t, &device{})
		require.NoError(t, a.status(context.Background(), false))

		s := out.String()
		assert.Contains(t, s, "platform/serialno = SN1\n")
		assert.Contains(t, s, "platform/switch = [p1: up]\n")
		assert.Contains(t, s, "radio/rx/rsl = -42\n")
		assert.Contains(t, s, "leds/Radio = /static/green.gif\n")
		assert.Contains(t, s, "connected = /static/green.gif\n")
		assert.Contains(t, s, "unhandled: bogus=1\n")
	})

	t.Run("json", func(t *testing.T) {
		a, out := testApp(t, &device{})
		require.NoError(t, a.status(context.Background(), true))
		var doc struct {
			Status struct {
				Connected bool `json:"connected"`
			} `json:"status"`
		}
		require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
		assert.True(t, doc.Status.Connected)
	})

	t.Run("unreachable", func(t *testing.T) {
		a, out := testApp(t, &device{status: http.StatusInternalServerError})
		assert.Error(t, a.status(context.Background(), false))
		assert.Contains(t, out.String(), "leds/Radio = /static/grey.gif\n")
		assert.Contains(t, out.String(), "connected = /static/red.gif\n")
	})
}

func TestSubmitCommands(t *testing.T) {
	d := &device{}
	a, out := testApp(t, d)

	a.ensureControl("hostname", model.ModeSet)
	require.NoError(t, a.page.SetValue("hostname", "router1"))
	require.NoError(t, a.submit(context.Background(), "hostname", model.ModeSet))
	assert.Equal(t, "Configured successfully.\n", out.String())

	a.ensureControl("apply", model.ModeActivate)
	require.NoError(t, a.submit(context.Background(), "apply", model.ModeActivate))

	d.mu.Lock()
	defer d.mu.Unlock()
	assert.Equal(t, []string{
		`{"config":[{"hostname":"router1"}]}`,
		`{"config":[{"apply_activate":"true"}]}`,
	}, d.posts)
}

func TestEnsureControlKeepsLayoutElements(t *testing.T) {
	a, _ := testApp(t, &device{})
	before := len(a.page.State())

	// declared by the built-in layout
	a.ensureControl("craft_ipaddr", model.ModeSet)
	assert.Len(t, a.page.State(), before)

	a.ensureControl("newkey", model.ModeChangePassword)
	assert.Len(t, a.page.State(), before+4)
}

func TestReadSecretFromPipe(t *testing.T) {
	isTerminal = func(int) bool { return false }
	defer func() { isTerminal = term.IsTerminal }()

	r := bufio.NewReader(strings.NewReader("first\nsecond"))

	v, err := readSecret(r, "")
	require.NoError(t, err)
	assert.Equal(t, "first", v)

	v, err = readSecret(r, "")
	require.NoError(t, err)
	assert.Equal(t, "second", v)

	_, err = readSecret(r, "")
	assert.Error(t, err)
}
