package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/claude/cirqulofit/internal/models"
	"github.com/claude/cirqulofit/internal/store"
)

const goodToken = "good-token"

// newMaestroServer fakes the identity API. Tokens other than goodToken are
// rejected; hasAccess controls the app grant.
func newMaestroServer(t *testing.T, hasAccess bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	authorized := func(r *http.Request) bool {
		return r.Header.Get("Authorization") == "Bearer "+goodToken
	}
	mux.HandleFunc("GET /api/v1/auth/verify-token", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /api/v1/auth/check-app-access", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding access request: %v", err)
		}
		if req["app_name"] != "cirqulo_fit" {
			t.Errorf("app_name = %q, want cirqulo_fit", req["app_name"])
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("content type = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"has_access": hasAccess})
	})
	mux.HandleFunc("GET /api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(models.Account{ID: 7, Email: "ana@example.com", Username: "ana", Name: "Ana", Level: 2})
	})
	return httptest.NewServer(mux)
}

func newTestMaestro(url string) *Maestro {
	return NewMaestro("http://maestro.local/", url+"/api/v1", "cirqulo_fit", nil)
}

// TestCheckSessionValid verifies the verify, access, me sequence returns the account.
func TestCheckSessionValid(t *testing.T) {
	ts := newMaestroServer(t, true)
	defer ts.Close()

	acct, err := newTestMaestro(ts.URL).CheckSession(context.Background(), goodToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acct.ID != 7 || acct.Username != "ana" {
		t.Errorf("account = %+v", acct)
	}
}

// TestCheckSessionRejected verifies bad and empty tokens are unauthenticated.
func TestCheckSessionRejected(t *testing.T) {
	ts := newMaestroServer(t, true)
	defer ts.Close()
	g := newTestMaestro(ts.URL)

	for _, token := range []string{"", "bad"} {
		if _, err := g.CheckSession(context.Background(), token); !errors.Is(err, ErrUnauthenticated) {
			t.Errorf("token %q: err = %v, want ErrUnauthenticated", token, err)
		}
	}
}

// TestCheckSessionNoAccess verifies a valid token without the app grant.
func TestCheckSessionNoAccess(t *testing.T) {
	ts := newMaestroServer(t, false)
	defer ts.Close()

	_, err := newTestMaestro(ts.URL).CheckSession(context.Background(), goodToken)
	if !errors.Is(err, ErrNoAccess) {
		t.Errorf("err = %v, want ErrNoAccess", err)
	}
}

// TestCheckSessionProviderDown verifies transport failures degrade to unauthenticated.
func TestCheckSessionProviderDown(t *testing.T) {
	ts := newMaestroServer(t, true)
	url := ts.URL
	ts.Close()

	_, err := newTestMaestro(url).CheckSession(context.Background(), goodToken)
	if !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("err = %v, want ErrUnauthenticated", err)
	}
}

// TestRedirectURLs verifies the login, register and logout destinations.
func TestRedirectURLs(t *testing.T) {
	g := NewMaestro("http://maestro.local/", "http://api.local", "cirqulo_fit", nil)

	if got, want := g.LoginURL("http://app.local/home?x=1"), "http://maestro.local/login?redirect=http%3A%2F%2Fapp.local%2Fhome%3Fx%3D1"; got != want {
		t.Errorf("LoginURL = %q, want %q", got, want)
	}
	if got, want := g.RegisterURL("http://app.local/"), "http://maestro.local/register?redirect=http%3A%2F%2Fapp.local%2F"; got != want {
		t.Errorf("RegisterURL = %q, want %q", got, want)
	}
	if got, want := g.LoginURL(""), "http://maestro.local/login"; got != want {
		t.Errorf("LoginURL without redirect = %q, want %q", got, want)
	}
	if got, want := g.LogoutURL(), "http://maestro.local/login"; got != want {
		t.Errorf("LogoutURL = %q, want %q", got, want)
	}
}

// TestSessionInitializeRestores verifies a stored valid token signs the session in.
func TestSessionInitializeRestores(t *testing.T) {
	ts := newMaestroServer(t, true)
	defer ts.Close()
	ctx := context.Background()

	records := store.NewRecords(store.NewMemory())
	if err := records.SaveToken(ctx, goodToken); err != nil {
		t.Fatal(err)
	}

	s := NewSession(newTestMaestro(ts.URL), records, nil)
	st := s.Initialize(ctx)
	if !st.IsAuthenticated || st.User == nil || st.User.Name != "Ana" {
		t.Errorf("state = %+v, want authenticated as Ana", st)
	}
	if s.Token() != goodToken {
		t.Errorf("token = %q", s.Token())
	}
}

// TestSessionInitializeClearsRejected verifies a rejected stored token is removed.
func TestSessionInitializeClearsRejected(t *testing.T) {
	ts := newMaestroServer(t, true)
	defer ts.Close()
	ctx := context.Background()

	records := store.NewRecords(store.NewMemory())
	if err := records.SaveToken(ctx, "stale"); err != nil {
		t.Fatal(err)
	}

	st := NewSession(newTestMaestro(ts.URL), records, nil).Initialize(ctx)
	if st.IsAuthenticated {
		t.Error("stale token should not authenticate")
	}
	if tok, _ := records.LoadToken(ctx); tok != "" {
		t.Errorf("stored token = %q, want cleared", tok)
	}
}

// TestSessionInitializeNoToken verifies an empty store leaves the session signed out.
func TestSessionInitializeNoToken(t *testing.T) {
	s := NewSession(NewMaestro("http://unused", "http://unused", "cirqulo_fit", nil), store.NewRecords(store.NewMemory()), nil)
	if st := s.Initialize(context.Background()); st.IsAuthenticated || st.User != nil {
		t.Errorf("state = %+v, want signed out", st)
	}
}

// TestSessionSignInAndLogout verifies the token lifecycle through the store.
func TestSessionSignInAndLogout(t *testing.T) {
	ts := newMaestroServer(t, true)
	defer ts.Close()
	ctx := context.Background()
	records := store.NewRecords(store.NewMemory())
	s := NewSession(newTestMaestro(ts.URL), records, nil)

	if _, err := s.SignIn(ctx, "bad"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("bad sign in err = %v", err)
	}
	if tok, _ := records.LoadToken(ctx); tok != "" {
		t.Error("rejected token must not be stored")
	}

	acct, err := s.SignIn(ctx, goodToken)
	if err != nil {
		t.Fatal(err)
	}
	if acct.Email != "ana@example.com" {
		t.Errorf("account = %+v", acct)
	}
	if tok, _ := records.LoadToken(ctx); tok != goodToken {
		t.Errorf("stored token = %q, want %q", tok, goodToken)
	}

	acct.Name = "Ana Maria"
	s.UpdateUser(acct)
	if got := s.State().User.Name; got != "Ana Maria" {
		t.Errorf("updated name = %q", got)
	}

	next, err := s.Logout(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if next != "http://maestro.local/login" {
		t.Errorf("logout redirect = %q", next)
	}
	if s.State().IsAuthenticated || s.Token() != "" {
		t.Error("session should be signed out")
	}
	if tok, _ := records.LoadToken(ctx); tok != "" {
		t.Errorf("stored token = %q after logout", tok)
	}
}
