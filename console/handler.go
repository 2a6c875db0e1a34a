package console

import (
	"context"
	"errors"
	"net/http"

	"github.com/erikmagkekse/craftui/controller"
	"github.com/erikmagkekse/craftui/dom"
	"github.com/erikmagkekse/craftui/graph"
	"github.com/erikmagkekse/craftui/model"

	"github.com/labstack/echo/v5"
)

type Handler struct {
	Ctrl   *controller.Controller
	Page   *dom.Page
	Layout *model.Layout
}

func (h *Handler) state() StateResponse {
	series := h.Ctrl.History().All()
	tracked := make([]TrackedResponse, 0, len(series))
	for _, s := range series {
		tracked = append(tracked, TrackedResponse{Path: s.Path(), Title: s.Title(), Points: s.Len()})
	}
	controls := h.Layout.Controls
	if controls == nil {
		controls = []model.ControlDecl{}
	}
	return StateResponse{
		Status:   h.Ctrl.Status(),
		Elements: h.Page.State(),
		Controls: controls,
		Tracked:  tracked,
	}
}

func (h *Handler) State(c *echo.Context) error {
	return c.JSON(http.StatusOK, h.state())
}

func (h *Handler) Graph(c *echo.Context) error {
	path := c.QueryParam("path")
	s, ok := h.Ctrl.History().Get(path)
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "metric not tracked: " + path, Code: "NOT_FOUND"})
	}
	p, ok := graph.PlotOf(s)
	if !ok || p.PNG() == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "no data yet for " + path, Code: "NO_DATA"})
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Blob(http.StatusOK, "image/png", p.PNG())
}

func (h *Handler) Submit(c *echo.Context) error {
	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "BAD_REQUEST"})
	}
	if req.Key == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "key required", Code: "BAD_REQUEST"})
	}
	mode, err := model.ParseSubmitMode(req.Mode)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "BAD_REQUEST"})
	}

	inputs := map[string]*string{}
	switch mode {
	case model.ModeSet:
		inputs[req.Key] = req.Value
	case model.ModeChangePassword:
		inputs[req.Key+model.AdminSuffix] = req.Admin
		inputs[req.Key+model.NewSuffix] = req.New
		inputs[req.Key+model.ConfirmSuffix] = req.Confirm
	}
	for id, v := range inputs {
		if v == nil {
			continue
		}
		if err := h.Page.SetValue(id, *v); err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "UNKNOWN_INPUT"})
		}
	}

	res, err := h.Ctrl.Submit(c.Request().Context(), req.Key, mode)
	if err != nil {
		code := "BAD_REQUEST"
		if errors.Is(err, controller.ErrMissingInput) {
			code = "MISSING_INPUT"
		}
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: code})
	}
	return c.JSON(http.StatusOK, res)
}

// SetInput changes one input control, e.g. the peer suffix.
func (h *Handler) SetInput(c *echo.Context) error {
	var req InputRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "BAD_REQUEST"})
	}
	id := c.QueryParam("id")
	if err := h.Page.SetValue(id, req.Value); err != nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "NOT_FOUND"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Refresh triggers an out-of-band poll. With ?wait=true it returns once
// the poll has been rendered.
func (h *Handler) Refresh(c *echo.Context) error {
	done, ok := h.Ctrl.Refresh(context.WithoutCancel(c.Request().Context()))
	if ok && c.QueryParam("wait") == "true" {
		select {
		case <-done:
		case <-c.Request().Context().Done():
		}
		return c.JSON(http.StatusOK, RefreshResponse{Started: true})
	}
	return c.JSON(http.StatusAccepted, RefreshResponse{Started: ok})
}
