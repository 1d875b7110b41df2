package main

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/wadjakorntonsri/funnel-gateway/pkg/app"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/config"
	"go.uber.org/zap/zaptest"
)

var slugRe = regexp.MustCompile(`/go/([A-Z0-9]{6})`)

func TestIntegration(t *testing.T) {
	cfg := &config.Config{
		DatabaseURL:         "file:e2edb?mode=memory&cache=shared",
		AppEnv:              "test",
		HomeURL:             "/",
		AdminPassword:       "e2e-password",
		JWTSecret:           "e2e-secret",
		SlugLength:          6,
		SlugMaxAttempts:     256,
		InterstitialSeconds: 20,
	}

	// BASE_URL must point at the test server, which does not exist yet.
	var handler http.Handler
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	defer server.Close()
	cfg.BaseURL = server.URL

	a, err := app.New(context.Background(), cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	defer a.Close()
	handler = a.Handler

	jar, _ := cookiejar.New(nil)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	// TEST 1: Admin operations without a credential
	resp, err := client.PostForm(server.URL+"/admin/create", url.Values{"target": {"https://example.com/offer"}})
	if err != nil {
		t.Fatalf("create without credential: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403 without credential, got %d", resp.StatusCode)
	}

	// TEST 2: Wrong password
	resp, err = client.PostForm(server.URL+"/admin/login", url.Values{"password": {"wrong"}})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403 for wrong password, got %d", resp.StatusCode)
	}
	if len(resp.Cookies()) != 0 {
		t.Error("Wrong password must not issue a credential")
	}

	// TEST 3: Login
	resp, err = client.PostForm(server.URL+"/admin/login", url.Values{"password": {"e2e-password"}})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/admin/panel" {
		t.Fatalf("Expected 302 to /admin/panel, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	// TEST 4: Create
	resp, err = client.PostForm(server.URL+"/admin/create", url.Values{"target": {"https://example.com/offer"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", resp.StatusCode, body)
	}
	m := slugRe.FindStringSubmatch(string(body))
	if m == nil {
		t.Fatalf("No short URL in result page:\n%s", body)
	}
	slug := m[1]

	// TEST 5: Visit
	resp, err = client.Get(server.URL + "/go/" + slug)
	if err != nil {
		t.Fatalf("visit: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 interstitial, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), server.URL+"/redirect/"+slug) {
		t.Errorf("Interstitial lacks continue link")
	}
	assertCounters(t, a, slug, 1, 0)

	// TEST 6: Complete
	resp, err = client.Get(server.URL + "/redirect/" + slug)
	if err != nil {
		t.Fatalf("redirect: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Errorf("Expected 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "https://example.com/offer" {
		t.Errorf("Expected Location https://example.com/offer, got %q", loc)
	}
	assertCounters(t, a, slug, 1, 1)

	// TEST 7: Panel shows the counters
	resp, err = client.Get(server.URL + "/admin/panel")
	if err != nil {
		t.Fatalf("panel: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 panel, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "<td>"+slug+"</td><td>https://example.com/offer</td><td>1</td><td>1</td>") {
		t.Errorf("Panel row missing:\n%s", body)
	}
}

func assertCounters(t *testing.T, a *app.App, slug string, clicks, completed int64) {
	t.Helper()
	link, err := a.Store.FindBySlug(context.Background(), slug)
	if err != nil {
		t.Fatalf("FindBySlug: %v", err)
	}
	if link.Clicks != clicks || link.Completed != completed {
		t.Errorf("counters = %d/%d, want %d/%d", link.Clicks, link.Completed, clicks, completed)
	}
}
