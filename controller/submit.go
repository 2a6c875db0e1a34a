package controller

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	v1 "github.com/erikmagkekse/craftui/craft/api/v1"
	"github.com/erikmagkekse/craftui/model"

	"github.com/rs/zerolog/log"
)

const (
	InProgressText = "Working..."

	msgConfigured      = "Configured successfully."
	msgApplied         = "Applied successfully."
	msgPasswordChanged = "Password changed successfully."
	msgInvalidResponse = "Error: invalid response"
)

var ErrMissingInput = errors.New("missing input control")

// SubmitResult is what ended up in the result slot.
type SubmitResult struct {
	Key       string `json:"key"`
	Mode      string `json:"mode"`
	Message   string `json:"message"`
	Success   bool   `json:"success"`
	Refreshed bool   `json:"refreshed"`
}

// Submit pushes one configuration change and reports the outcome in the
// key's result slot. Unless the request never got a usable HTTP response,
// a refresh is triggered afterwards. The returned error covers only
// submissions that could not be built.
func (c *Controller) Submit(ctx context.Context, key string, mode model.SubmitMode) (SubmitResult, error) {
	res := SubmitResult{Key: key, Mode: string(mode)}

	req, err := c.buildRequest(key, mode)
	if err != nil {
		submitsTotal.WithLabelValues(string(mode), "invalid").Inc()
		return res, err
	}

	resultID := key + model.ResultSuffix
	c.setText(resultID, InProgressText)
	c.notify()

	subCtx, cancel := context.WithTimeout(ctx, c.cfg.SubmitTimeout)
	defer cancel()
	resp, err := c.client.Configure(subCtx, c.peer(), req)

	transport := false
	switch {
	case err == nil && resp.Error == 0:
		res.Success = true
		res.Message = successMessage(mode)
		submitsTotal.WithLabelValues(string(mode), "success").Inc()
	case err == nil:
		res.Message = "Error: " + resp.ErrorString
		submitsTotal.WithLabelValues(string(mode), "rejected").Inc()
	case errors.Is(err, v1.ErrInvalidResponse):
		res.Message = msgInvalidResponse
		submitsTotal.WithLabelValues(string(mode), "invalid_response").Inc()
	default:
		transport = true
		res.Message = transportMessage(err)
		submitsTotal.WithLabelValues(string(mode), "transport_error").Inc()
	}

	c.setText(resultID, res.Message)
	log.Info().Str("key", key).Str("mode", string(mode)).Bool("success", res.Success).Str("message", res.Message).Msg("config submitted")

	if !transport {
		// the poll outlives the caller's context
		_, res.Refreshed = c.Refresh(context.WithoutCancel(ctx))
	}
	c.notify()
	return res, nil
}

func (c *Controller) buildRequest(key string, mode model.SubmitMode) (v1.ConfigRequest, error) {
	if key == "" {
		return v1.ConfigRequest{}, fmt.Errorf("empty key")
	}
	switch mode {
	case model.ModeSet:
		v, err := c.input(key)
		if err != nil {
			return v1.ConfigRequest{}, err
		}
		return v1.SetRequest(key, v), nil

	case model.ModeActivate:
		return v1.SetRequest(key+model.ActivateSuffix, "true"), nil

	case model.ModeChangePassword:
		var vals [3]string
		for i, suffix := range []string{model.AdminSuffix, model.NewSuffix, model.ConfirmSuffix} {
			v, err := c.input(key + suffix)
			if err != nil {
				return v1.ConfigRequest{}, err
			}
			vals[i] = base64.StdEncoding.EncodeToString([]byte(v))
		}
		return v1.PasswordRequest(key, v1.PasswordChange{Admin: vals[0], New: vals[1], Confirm: vals[2]}), nil

	default:
		return v1.ConfigRequest{}, fmt.Errorf("unknown submit mode %q", mode)
	}
}

func (c *Controller) input(id string) (string, error) {
	v, ok := c.doc.Value(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingInput, id)
	}
	return v, nil
}

func (c *Controller) setText(id, text string) {
	if el, ok := c.doc.Element(id); ok {
		el.SetText(text)
	}
}

func successMessage(mode model.SubmitMode) string {
	switch mode {
	case model.ModeActivate:
		return msgApplied
	case model.ModeChangePassword:
		return msgPasswordChanged
	default:
		return msgConfigured
	}
}

// transportMessage is the status text followed by whatever body arrived.
// A request that never got a response shows the transport error.
func transportMessage(err error) string {
	var he *v1.HTTPError
	if errors.As(err, &he) {
		return strings.TrimSpace(he.Status + " " + he.Body)
	}
	return err.Error()
}
