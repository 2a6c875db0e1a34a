package model

import "time"

const AppName = "craftui"

const (
	ContentPath    = "/content.json"
	ResultSuffix   = "_result"
	ActivateSuffix = "_activate"
	AdminSuffix    = "_admin"
	NewSuffix      = "_new"
	ConfirmSuffix  = "_confirm"
)

type ConsoleConfig struct {
	BaseURL        string        `env:"CRAFT_BASE_URL" envDefault:"http://localhost"`
	Username       string        `env:"CRAFT_USERNAME"`
	Password       string        `env:"CRAFT_PASSWORD"`
	PeerSuffix     string        `env:"CRAFT_PEER_SUFFIX"`
	PollInterval   time.Duration `env:"CRAFT_POLL_INTERVAL" envDefault:"5s"`
	RequestTimeout time.Duration `env:"CRAFT_REQUEST_TIMEOUT" envDefault:"2s"`
	SubmitTimeout  time.Duration `env:"CRAFT_SUBMIT_TIMEOUT" envDefault:"10s"`
	HistorySize    int           `env:"CRAFT_HISTORY_SIZE" envDefault:"100"`
	StaticRoot     string        `env:"CRAFT_STATIC_ROOT" envDefault:"/static"`
	StaticDir      string        `env:"CRAFT_STATIC_DIR"`
	LayoutFile     string        `env:"CRAFT_LAYOUT"`
	ListenAddr     string        `env:"CRAFT_LISTEN_ADDR" envDefault:"127.0.0.1:8090"`
	ConsoleToken   string        `env:"CRAFT_CONSOLE_TOKEN"`
	MetricsEnabled bool          `env:"CRAFT_METRICS_ENABLED" envDefault:"true"`
}
