package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLayout(t *testing.T) {
	l, err := LoadLayout("")
	require.NoError(t, err)

	assert.Equal(t, "/", l.Separator)
	assert.Equal(t, "unhandled", l.Unhandled)
	assert.Equal(t, []string{"leds/ACS", "leds/Switch", "leds/Modem", "leds/Radio", "leds/RSSI", "leds/MSE", "leds/Peer"}, l.IndicatorSlots())
	assert.NotEmpty(t, l.Tracked)

	kinds := map[string]ElementKind{}
	for _, e := range l.AllElements() {
		_, dup := kinds[e.ID]
		require.False(t, dup, "duplicate element %s", e.ID)
		kinds[e.ID] = e.Kind
	}
	assert.Equal(t, KindInput, kinds["craft_ipaddr"])
	assert.Equal(t, KindTrigger, kinds["craft_ipaddr_activate"])
	assert.Equal(t, KindText, kinds["craft_ipaddr_result"])
	assert.Equal(t, KindInput, kinds["password_admin_confirm"])
	assert.Equal(t, KindImage, kinds["leds/Modem"])
	assert.Equal(t, KindImage, kinds["connected"])
	assert.Equal(t, KindList, kinds["platform/switch"])
	assert.Equal(t, KindInput, kinds["peer_arg"])
}

func TestParseLayout(t *testing.T) {
	l, err := ParseLayout([]byte(`
elements:
  - id: hostname_result
    kind: list
  - id: uptime
controls:
  - key: hostname
connection:
  slot: conn
`))
	require.NoError(t, err)
	require.NoError(t, ValidateLayout(l))

	assert.Equal(t, KindText, l.Elements[1].Kind)
	assert.Equal(t, ModeSet, l.Controls[0].Mode)
	assert.Equal(t, "green.gif", l.Connection.Connected)
	assert.Equal(t, "red.gif", l.Connection.Disconnected)
	assert.Equal(t, "grey.gif", l.Indicators.Disconnected)

	// explicit declaration wins over the implied result slot
	all := l.AllElements()
	assert.Equal(t, ElementDecl{ID: "hostname_result", Kind: KindList}, all[0])
	assert.Contains(t, all, ElementDecl{ID: "hostname", Kind: KindInput})
	assert.Contains(t, all, ElementDecl{ID: "conn", Kind: KindImage})
}

func TestValidateLayout(t *testing.T) {
	cases := map[string]string{
		"duplicate element": "elements: [{id: a}, {id: a}]",
		"empty id":          "elements: [{kind: text}]",
		"bad kind":          "elements: [{id: a, kind: canvas}]",
		"bad mode":          "controls: [{key: a, mode: toggle}]",
		"empty key":         "controls: [{mode: set}]",
		"tracked twice":     "tracked: [{path: a}, {path: a}]",
		"negative max":      "tracked: [{path: a, max: -1}]",
		"empty indicator":   "indicators: {names: ['']}",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			l, err := ParseLayout([]byte(doc))
			require.NoError(t, err)
			assert.Error(t, ValidateLayout(l))
		})
	}
}

func TestLoadLayoutFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("ok", func(t *testing.T) {
		p := filepath.Join(dir, "ok.yaml")
		require.NoError(t, os.WriteFile(p, []byte("tracked: [{path: radio/rx/rsl, max: 10}]\n"), 0644))
		l, err := LoadLayout(p)
		require.NoError(t, err)
		assert.Equal(t, 10, l.Tracked[0].Max)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := LoadLayout(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		p := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(p, []byte("elements: {id: [\n"), 0644))
		_, err := LoadLayout(p)
		assert.Error(t, err)
	})
}

func TestParseSubmitMode(t *testing.T) {
	m, err := ParseSubmitMode("Activate")
	require.NoError(t, err)
	assert.Equal(t, ModeActivate, m)

	m, err = ParseSubmitMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeSet, m)

	_, err = ParseSubmitMode("reboot")
	assert.Error(t, err)
}
