package api

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

// The callback pages run inside the consent popup. They hand the result to
// the opener window via postMessage and close themselves; when the page was
// opened as a full navigation instead, they fall back to a redirect.

type successPageData struct {
	AccessToken string
	ExpiresAtMs int64
	ProfileJSON string
	AppURL      string
}

type errorPageData struct {
	Message string
	AppURL  string
}

var successPage = template.Must(template.New("success").Parse(`<!DOCTYPE html>
<html>
<head><title>Signing in…</title></head>
<body>
<p>Signing you in…</p>
<script>
(function () {
  var payload = {
    type: "AUTH_SUCCESS",
    accessToken: {{.AccessToken}},
    expiresAt: {{.ExpiresAtMs}},
    profile: {{.ProfileJSON}}
  };
  try {
    localStorage.setItem("google_access_token", payload.accessToken);
    localStorage.setItem("google_token_expiry", String(payload.expiresAt));
    localStorage.setItem("google_user", payload.profile || "");
  } catch (e) {}
  if (window.opener) {
    window.opener.postMessage(payload, "*");
    window.close();
  } else {
    window.location.href = {{.AppURL}} + "/?auth=success";
  }
})();
</script>
</body>
</html>
`))

var errorPage = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<head><title>Sign-in failed</title></head>
<body>
<p>{{.Message}}</p>
<script>
(function () {
  if (window.opener) {
    window.opener.postMessage({ type: "AUTH_ERROR", error: {{.Message}} }, "*");
    window.close();
  } else {
    window.location.href = {{.AppURL}} + "/?error=auth_failed";
  }
})();
</script>
</body>
</html>
`))

func (h *Handler) renderSuccess(c *gin.Context, data successPageData) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := successPage.Execute(c.Writer, data); err != nil {
		h.Log.Error().Err(err).Msg("callback page render failed")
	}
}

func (h *Handler) renderError(c *gin.Context, message string) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := errorPage.Execute(c.Writer, errorPageData{Message: message, AppURL: h.AppURL}); err != nil {
		h.Log.Error().Err(err).Msg("callback page render failed")
	}
}
