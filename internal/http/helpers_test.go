package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"shopdesk/internal/catalog"
	"shopdesk/internal/config"
	"shopdesk/internal/events"
	"shopdesk/internal/http/handlers"
	applog "shopdesk/internal/log"
	"shopdesk/internal/repos"
	"shopdesk/web"
)

type testApp struct {
	app  *fiber.App
	db   *sqlx.DB
	deps *handlers.Deps
}

type appOpts struct {
	csrf   bool
	limits handlers.Limits
}

func roomyLimits() handlers.Limits {
	return handlers.Limits{Login: 100, LoginWindow: time.Minute, Availability: 100, AvailabilityWindow: time.Minute}
}

// newApp wires the real routes over a seeded in-memory database.
func newApp(t *testing.T, o appOpts) *testApp {
	t.Helper()
	cfg := config.Load()
	cfg.DBDSN = ":memory:"
	db, err := repos.OpenDB(cfg.DBDSN, true)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cat := catalog.New(repos.NewProductRepo(db), catalog.NewMemoryCache(time.Minute))
	deps := handlers.NewDeps(db, cfg, cat, events.Nop{})

	app := fiber.New(fiber.Config{Views: web.Views(), ErrorHandler: handlers.ErrorHandler})
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB
	app.Use(requestid.New())
	if o.csrf {
		app.Use(handlers.CSRF())
	}
	if o.limits == (handlers.Limits{}) {
		o.limits = roomyLimits()
	}
	handlers.Routes(app, deps, o.limits)
	return &testApp{app: app, db: db, deps: deps}
}

// observe routes the app logger into an in-memory sink for the test.
func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	applog.SetLogger(zap.New(core))
	t.Cleanup(func() { applog.SetLogger(nil) })
	return logs
}

// client carries cookies between requests like a browser would.
type client struct {
	t       *testing.T
	ta      *testApp
	cookies map[string]string
}

func (ta *testApp) client(t *testing.T) *client {
	return &client{t: t, ta: ta, cookies: map[string]string{}}
}

func (cl *client) send(req *http.Request) *http.Response {
	cl.t.Helper()
	for k, v := range cl.cookies {
		req.AddCookie(&http.Cookie{Name: k, Value: v})
	}
	if tok := cl.cookies["csrf_"]; tok != "" {
		req.Header.Set("X-Csrf-Token", tok)
	}
	resp, err := cl.ta.app.Test(req, -1)
	if err != nil {
		cl.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	for _, c := range resp.Cookies() {
		if c.Value == "" || (!c.Expires.IsZero() && c.Expires.Before(time.Now())) {
			delete(cl.cookies, c.Name)
			continue
		}
		cl.cookies[c.Name] = c.Value
	}
	return resp
}

func (cl *client) get(path string) *http.Response {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "application/json")
	return cl.send(req)
}

func (cl *client) json(method, path string, body any) *http.Response {
	cl.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			cl.t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return cl.send(req)
}

func (cl *client) form(path string, vals url.Values, accept string) *http.Response {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	return cl.send(req)
}

// login signs in with the seeded password and expects success.
func (cl *client) login(email string) {
	cl.t.Helper()
	resp := cl.form("/login", url.Values{"email": {email}, "password": {repos.DemoPassword}}, "application/json")
	if resp.StatusCode != http.StatusOK {
		cl.t.Fatalf("login %s: status %d body=%s", email, resp.StatusCode, readBody(resp))
	}
}

func readBody(resp *http.Response) string {
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("%s %s: expected %d, got %d body=%s", resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode, readBody(resp))
	}
}

func newGet(path string) *http.Request {
	return httptest.NewRequest(http.MethodGet, path, nil)
}
