package sdk

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/evensia-dev/evensia/internal/api"
	"github.com/evensia-dev/evensia/internal/auth"
	"github.com/evensia-dev/evensia/internal/drive"
	"github.com/evensia-dev/evensia/internal/sheetdb"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// startSite runs the full API against an embedded record store and a fake
// storage provider, and returns an SDK client pointed at it.
func startSite(t *testing.T) *Client {
	t.Helper()

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && strings.Contains(r.URL.Path, "/permissions"):
			io.WriteString(w, `{"id":"perm1"}`)
		case r.Method == http.MethodPatch:
			io.WriteString(w, `{"id":"obj1","name":"patched"}`)
		default:
			io.WriteString(w, `{"id":"obj1"}`)
		}
	}))
	t.Cleanup(provider.Close)

	h := &api.Handler{
		Jar:     auth.NewCookieJar("test-secret", false, time.Hour, time.Hour),
		Drive:   drive.NewService(provider.URL, provider.URL+"/upload", provider.Client(), zerolog.Nop()),
		Records: sheetdb.NewStore(nil, nil),
		Log:     zerolog.Nop(),
	}
	r := gin.New()
	h.Mount(r.Group("/api"))

	site := httptest.NewServer(r)
	t.Cleanup(site.Close)

	return Connect(site.URL).WithHTTPClient(site.Client())
}

func TestGuestbookRoundTrip(t *testing.T) {
	c := startSite(t)
	ctx := context.Background()

	created, err := c.SubmitRSVP(ctx, "Ada", true, "see you there")
	if err != nil {
		t.Fatal(err)
	}
	if created["fullname"] != "Ada" {
		t.Errorf("fullname = %v", created["fullname"])
	}

	msgs, err := c.Messages(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0]["fullname"] != "Ada" || msgs[0]["is_present"] != "true" {
		t.Errorf("unexpected record: %v", msgs[0])
	}
}

func TestSubmitRSVPValidation(t *testing.T) {
	c := startSite(t)

	_, err := c.SubmitRSVP(context.Background(), "", false, "anonymous")
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", apiErr.Status)
	}
}

func TestAlbumRoundTrip(t *testing.T) {
	c := startSite(t)
	ctx := context.Background()

	if _, err := c.SubmitPhoto(ctx, "Ada", "https://drive.google.com/uc?id=abc", "cake"); err != nil {
		t.Fatal(err)
	}

	photos, err := c.Photos(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(photos) != 1 {
		t.Fatalf("expected 1 photo, got %d", len(photos))
	}
	if photos[0]["caption"] != "cake" {
		t.Errorf("caption = %v", photos[0]["caption"])
	}
}

func TestUploadThroughRelay(t *testing.T) {
	c := startSite(t)

	res, err := c.Upload(context.Background(), UploadRequest{
		Filename:    "pic.png",
		ContentType: "image/png",
		Caption:     "party",
		AccessToken: "tok",
		Data:        []byte("png bytes"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.ID != "obj1" {
		t.Errorf("id = %q", res.ID)
	}
	if !strings.Contains(res.URL, "obj1") {
		t.Errorf("url = %q", res.URL)
	}
}

func TestUploadRejectedWithoutToken(t *testing.T) {
	c := startSite(t)

	_, err := c.Upload(context.Background(), UploadRequest{
		Filename:    "pic.png",
		ContentType: "image/png",
		Data:        []byte("png bytes"),
	})
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", apiErr.Status)
	}
}

func TestHealthEndpoints(t *testing.T) {
	c := startSite(t)
	ctx := context.Background()

	authed, err := c.AuthStatus(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if authed {
		t.Error("fresh client should not be authenticated")
	}

	st, err := c.SheetsStatus(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Status != "embedded" {
		t.Errorf("status = %q, want embedded", st.Status)
	}
}

func TestAsTypedRecord(t *testing.T) {
	rec := Record{"id": "1", "fullname": "Ada", "message": "hi"}

	type guest struct {
		ID       string `json:"id"`
		Fullname string `json:"fullname"`
		Message  string `json:"message"`
	}
	g, err := As[guest](rec)
	if err != nil {
		t.Fatal(err)
	}
	if g.Fullname != "Ada" {
		t.Errorf("fullname = %q", g.Fullname)
	}
}
