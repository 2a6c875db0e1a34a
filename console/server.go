package console

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/erikmagkekse/craftui/controller"
	"github.com/erikmagkekse/craftui/dom"
	"github.com/erikmagkekse/craftui/model"

	"github.com/labstack/echo/v5"
	"github.com/rs/zerolog/log"
)

// Server is the local web console: a view of the rendered document plus
// endpoints to submit configuration changes.
type Server struct {
	cfg     *model.ConsoleConfig
	version string
	commit  string
	hub     *Hub
	handler *Handler
	echo    *echo.Echo
}

func New(cfg *model.ConsoleConfig, ctrl *controller.Controller, page *dom.Page, layout *model.Layout, hub *Hub, version, commit string) *Server {
	s := &Server{
		cfg:     cfg,
		version: version,
		commit:  commit,
		hub:     hub,
		handler: &Handler{Ctrl: ctrl, Page: page, Layout: layout},
	}
	s.echo = s.routes(ctrl)
	return s
}

func (s *Server) routes(ctrl *controller.Controller) *echo.Echo {
	e := echo.New()
	e.Use(MetricsMiddleware())

	e.GET("/healthz", Healthz(s.version, s.commit, s.cfg.BaseURL, ctrl))
	if s.cfg.MetricsEnabled {
		e.GET("/metrics", MetricsHandler())
	}
	if s.cfg.StaticDir != "" {
		e.StaticFS(strings.TrimRight(s.cfg.StaticRoot, "/")+"/", os.DirFS(s.cfg.StaticDir))
	}

	var mw []echo.MiddlewareFunc
	if s.cfg.ConsoleToken != "" {
		mw = append(mw, AuthMiddleware(s.cfg.ConsoleToken))
	}
	h := s.handler
	g := e.Group("", mw...)
	g.GET("/", ServeDashboard(s.cfg.BaseURL, s.cfg.PollInterval.Milliseconds()))
	g.GET("/ws", s.hub.Handler(func() any { return h.state() }))
	g.GET("/state", h.State)
	g.GET("/graph", h.Graph)
	g.POST("/submit", h.Submit)
	g.PUT("/input", h.SetInput)
	g.POST("/refresh", h.Refresh)
	return e
}

func (s *Server) Handler() http.Handler { return s.echo }

// Notify pushes the current state to every viewer.
func (s *Server) Notify() {
	s.hub.Broadcast("state", s.handler.state())
}

// Start runs the hub and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run(ctx)

	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("console shutdown")
		}
	}()

	if s.cfg.ConsoleToken == "" {
		log.Warn().Str("addr", s.cfg.ListenAddr).Msg("CRAFT_CONSOLE_TOKEN not set, anyone reaching the console can change the device configuration")
	}
	log.Info().Str("addr", s.cfg.ListenAddr).Bool("auth", s.cfg.ConsoleToken != "").Msg("starting console")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
