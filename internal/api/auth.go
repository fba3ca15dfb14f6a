package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evensia-dev/evensia/internal/common"
)

// BeginAuth opens a new authorization flow: it registers a waiter for the
// popup race and hands the frontend the consent URL plus the flow id the
// opener should wait on.
func (h *Handler) BeginAuth(c *gin.Context) {
	flowID := h.Flows.Begin()
	state, err := h.Auth.SignState(flowID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"authUrl": h.Auth.AuthorizeURL(state),
		"flow":    flowID,
	})
}

// Callback terminates the provider redirect. It exchanges the single-use code,
// stores the resulting tokens in cookies, settles the flow waiter, and renders
// a page that notifies the opener window and closes itself.
func (h *Handler) Callback(c *gin.Context) {
	flowID, stateErr := h.Auth.VerifyState(c.Query("state"))

	if provErr := c.Query("error"); provErr != "" {
		h.settleError(flowID, "authorization denied: "+provErr)
		h.renderError(c, "Authorization was denied.")
		return
	}
	if stateErr != nil {
		h.renderError(c, "Invalid authorization state. Please try again.")
		return
	}

	code := c.Query("code")
	if code == "" {
		h.settleError(flowID, "missing authorization code")
		h.renderError(c, "Missing authorization code.")
		return
	}

	tokens, err := h.Auth.Exchange(c.Request.Context(), code)
	if err != nil {
		h.Log.Error().Err(err).Msg("code exchange failed")
		h.settleError(flowID, "token exchange failed")
		h.renderError(c, "Could not complete sign-in. Please try again.")
		return
	}

	if err := h.Jar.Set(c, tokens); err != nil {
		h.Log.Error().Err(err).Msg("storing tokens failed")
		h.settleError(flowID, "storing tokens failed")
		h.renderError(c, "Could not complete sign-in. Please try again.")
		return
	}

	profile := "null"
	if user, err := h.Auth.FetchUser(c.Request.Context(), tokens.AccessToken); err == nil {
		if raw, err := json.Marshal(user); err == nil {
			profile = string(raw)
		}
	} else {
		h.Log.Warn().Err(err).Msg("profile fetch failed")
	}

	h.Flows.Complete(flowID, true, "")

	expiresAt := h.Now().UnixMilli() + int64(tokens.ExpiresIn)*1000
	h.renderSuccess(c, successPageData{
		AccessToken: tokens.AccessToken,
		ExpiresAtMs: expiresAt,
		ProfileJSON: profile,
		AppURL:      h.AppURL,
	})
}

func (h *Handler) settleError(flowID, detail string) {
	if flowID != "" {
		h.Flows.Complete(flowID, false, detail)
	}
}

// WaitFlow blocks the opener until its flow settles, the broker timeout
// fires, or the client goes away. The reported state is advisory; the
// authenticated bit is re-checked from the cookies.
func (h *Handler) WaitFlow(c *gin.Context) {
	flowID := c.Query("flow")
	if flowID == "" {
		h.fail(c, fmt.Errorf("%w: flow id required", common.ErrBadInput))
		return
	}
	state, detail, err := h.Flows.Wait(c.Request.Context(), flowID)
	if err != nil {
		// Client went away mid-wait; nothing useful to say.
		c.JSON(http.StatusOK, gin.H{"success": false, "state": state.String()})
		return
	}
	resp := gin.H{
		"success":       true,
		"state":         state.String(),
		"authenticated": h.Jar.Authenticated(c.Request),
	}
	if detail != "" {
		resp["detail"] = detail
	}
	c.JSON(http.StatusOK, resp)
}

// PopupClosed reports that the consent window disappeared. The callback may
// still have landed first; whichever settles the flow first wins, and the
// caller should trust the authenticated bit over the flow state.
func (h *Handler) PopupClosed(c *gin.Context) {
	var body struct {
		Flow string `json:"flow"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Flow == "" {
		h.fail(c, fmt.Errorf("%w: flow id required", common.ErrBadInput))
		return
	}
	h.Flows.MarkClosed(body.Flow)
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"authenticated": h.Jar.Authenticated(c.Request),
	})
}

// Status reports whether the request carries a usable access token.
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"authenticated": h.Jar.Authenticated(c.Request),
	})
}

// Logout clears both token cookies. Calling it signed-out is a no-op.
func (h *Handler) Logout(c *gin.Context) {
	h.Jar.Clear(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// TestToken probes the storage API with the caller's token and reports
// whether it is still accepted.
func (h *Handler) TestToken(c *gin.Context) {
	var body struct {
		AccessToken string `json:"accessToken"`
	}
	_ = c.ShouldBindJSON(&body)

	token := body.AccessToken
	if token == "" {
		token = h.Jar.AccessToken(c.Request)
	}
	if token == "" {
		h.fail(c, fmt.Errorf("%w: no access token", common.ErrUnauthorized))
		return
	}

	count, err := h.Auth.Probe(c.Request.Context(), token)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "token accepted",
		"filesCount": count,
	})
}
