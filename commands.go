package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	v1 "github.com/erikmagkekse/craftui/craft/api/v1"
	"github.com/erikmagkekse/craftui/console"
	"github.com/erikmagkekse/craftui/controller"
	"github.com/erikmagkekse/craftui/dom"
	"github.com/erikmagkekse/craftui/graph"
	"github.com/erikmagkekse/craftui/history"
	"github.com/erikmagkekse/craftui/model"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// app is everything a command needs to talk to one device.
type app struct {
	cfg    model.ConsoleConfig
	layout *model.Layout
	page   *dom.Page
	hist   *history.Set
	client *v1.Client
	out    io.Writer
}

func setup(cmd *cli.Command) (*app, error) {
	cfg, err := env.ParseAs[model.ConsoleConfig]()
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cmd.IsSet("url") {
		cfg.BaseURL = cmd.String("url")
	}
	if cmd.IsSet("peer") {
		cfg.PeerSuffix = cmd.String("peer")
	}
	if cmd.IsSet("layout") {
		cfg.LayoutFile = cmd.String("layout")
	}
	return newApp(cfg, os.Stdout)
}

func newApp(cfg model.ConsoleConfig, out io.Writer) (*app, error) {
	layout, err := model.LoadLayout(cfg.LayoutFile)
	if err != nil {
		return nil, err
	}
	page, err := dom.FromLayout(layout)
	if err != nil {
		return nil, err
	}
	if layout.PeerInput != "" {
		if err := page.SetValue(layout.PeerInput, cfg.PeerSuffix); err != nil {
			return nil, err
		}
	}

	decls := make([]history.Decl, 0, len(layout.Tracked))
	for _, t := range layout.Tracked {
		decls = append(decls, history.Decl{Path: t.Path, Title: t.Title, Max: t.Max})
	}

	return &app{
		cfg:    cfg,
		layout: layout,
		page:   page,
		hist:   history.NewSet(decls, cfg.HistorySize),
		client: v1.NewClient(cfg.BaseURL, cfg.Username, cfg.Password),
		out:    out,
	}, nil
}

func (a *app) controller(opts ...controller.Option) *controller.Controller {
	return controller.New(a.client, a.page, a.layout, a.hist, graph.NewUpdater(0, 0), controller.Config{
		StaticRoot:     a.cfg.StaticRoot,
		PeerSuffix:     a.cfg.PeerSuffix,
		PollInterval:   a.cfg.PollInterval,
		RequestTimeout: a.cfg.RequestTimeout,
		SubmitTimeout:  a.cfg.SubmitTimeout,
	}, opts...)
}

// ensureControl adds the elements a control needs when the layout does not
// declare them, so any key can be submitted from the command line.
func (a *app) ensureControl(key string, mode model.SubmitMode) {
	for _, e := range model.ControlElements(model.ControlDecl{Key: key, Mode: mode}) {
		if _, ok := a.page.Element(e.ID); ok {
			continue
		}
		if _, err := a.page.Add(e.ID, e.Kind); err != nil {
			log.Debug().Err(err).Str("id", e.ID).Msg("failed to add control element")
		}
	}
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	log.Info().Str("version", version).Str("commit", commit).Str("device", a.cfg.BaseURL).Msg("starting craftui console")

	var srv *console.Server
	ctrl := a.controller(controller.WithNotify(func() { srv.Notify() }))
	srv = console.New(&a.cfg, ctrl, a.page, a.layout, console.NewHub(), version, commit)

	go ctrl.Run(ctx)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("console: %w", err)
	}
	log.Info().Msg("shutting down")
	return nil
}

func runStatus(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	return a.status(ctx, cmd.Bool("json"))
}

func (a *app) status(ctx context.Context, asJSON bool) error {
	ctrl := a.controller()
	done, ok := ctrl.Refresh(ctx)
	if !ok {
		return errors.New("poll already in flight")
	}
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	st := ctrl.Status()
	if asJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			Status   controller.Status  `json:"status"`
			Elements []dom.ElementState `json:"elements"`
		}{st, a.page.State()}); err != nil {
			return err
		}
	} else {
		for _, e := range a.page.State() {
			if line, ok := describe(e); ok {
				_, _ = fmt.Fprintf(a.out, "%s = %s\n", e.ID, line)
			}
		}
		for _, u := range st.Unhandled {
			_, _ = fmt.Fprintf(a.out, "unhandled: %s\n", u)
		}
	}

	if !st.Connected {
		return fmt.Errorf("device not reachable: %s", st.LastError)
	}
	return nil
}

func describe(e dom.ElementState) (string, bool) {
	switch {
	case e.Src != "":
		return e.Src, true
	case len(e.Items) > 0:
		parts := make([]string, 0, len(e.Items))
		for _, it := range e.Items {
			parts = append(parts, it.Key+": "+it.Value)
		}
		return "[" + strings.Join(parts, ", ") + "]", true
	case e.Text != "":
		return e.Text, true
	}
	return "", false
}

func runSet(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return errors.New("usage: set <key> <value>")
	}
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	key := cmd.Args().Get(0)
	a.ensureControl(key, model.ModeSet)
	if err := a.page.SetValue(key, cmd.Args().Get(1)); err != nil {
		return err
	}
	return a.submit(ctx, key, model.ModeSet)
}

func runActivate(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return errors.New("usage: activate <key>")
	}
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	key := cmd.Args().Get(0)
	a.ensureControl(key, model.ModeActivate)
	return a.submit(ctx, key, model.ModeActivate)
}

func runPasswd(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return errors.New("usage: passwd <key>")
	}
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	key := cmd.Args().Get(0)
	a.ensureControl(key, model.ModeChangePassword)

	in := bufio.NewReader(os.Stdin)
	prompts := []struct{ suffix, label string }{
		{model.AdminSuffix, "Admin password: "},
		{model.NewSuffix, "New password: "},
		{model.ConfirmSuffix, "Confirm new password: "},
	}
	for _, p := range prompts {
		v, err := readSecret(in, p.label)
		if err != nil {
			return err
		}
		if err := a.page.SetValue(key+p.suffix, v); err != nil {
			return err
		}
	}
	return a.submit(ctx, key, model.ModeChangePassword)
}

var isTerminal = term.IsTerminal

// readSecret prompts without echo on a terminal and reads a plain line
// otherwise.
func readSecret(in *bufio.Reader, prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if isTerminal(fd) {
		_, _ = fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(fd)
		_, _ = fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *app) submit(ctx context.Context, key string, mode model.SubmitMode) error {
	res, err := a.controller().Submit(ctx, key, mode)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(a.out, res.Message)
	if !res.Success {
		return fmt.Errorf("%s %s failed", mode, key)
	}
	return nil
}
