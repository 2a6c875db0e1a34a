package console

import (
	"github.com/erikmagkekse/craftui/controller"
	"github.com/erikmagkekse/craftui/dom"
	"github.com/erikmagkekse/craftui/model"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Commit        string `json:"commit"`
	UptimeSeconds int    `json:"uptime_seconds"`
	Device        string `json:"device"`
	Connected     bool   `json:"connected"`
}

type TrackedResponse struct {
	Path   string `json:"path"`
	Title  string `json:"title"`
	Points int    `json:"points"`
}

// StateResponse is what the dashboard renders; it is also the payload of
// every websocket "state" message.
type StateResponse struct {
	Status   controller.Status   `json:"status"`
	Elements []dom.ElementState  `json:"elements"`
	Controls []model.ControlDecl `json:"controls"`
	Tracked  []TrackedResponse   `json:"tracked"`
}

// SubmitRequest fills the inputs a control reads and submits it. Inputs
// left nil keep their current value.
type SubmitRequest struct {
	Key     string  `json:"key"`
	Mode    string  `json:"mode"`
	Value   *string `json:"value,omitempty"`
	Admin   *string `json:"admin,omitempty"`
	New     *string `json:"new,omitempty"`
	Confirm *string `json:"confirm,omitempty"`
}

type InputRequest struct {
	Value string `json:"value"`
}

type RefreshResponse struct {
	Started bool `json:"started"`
}
