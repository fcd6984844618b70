// internal/app/session/webstore_test.go
package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/villagehq/village/internal/app/session"
	"github.com/villagehq/village/internal/testutil"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newWebStore(t *testing.T) *session.WebStore {
	t.Helper()
	db := testutil.SetupTestStore(t)
	cache, err := session.NewCache(db, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to build session cache: %v", err)
	}
	t.Cleanup(cache.Close)
	return session.NewWebStore(cache, testKey)
}

// cookieRequest returns a request carrying the cookies a previous response
// set, as a browser would on its next visit.
func cookieRequest(t *testing.T, rec *httptest.ResponseRecorder) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestSessionRoundTrip(t *testing.T) {
	store := newWebStore(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := store.Get(req, "village-session")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !sess.IsNew {
		t.Error("session without cookie is not new")
	}

	sess.Values["user"] = "alice"
	rec := httptest.NewRecorder()
	if err := sess.Save(req, rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Fatal("Save did not set a cookie")
	}

	again, err := store.Get(cookieRequest(t, rec), "village-session")
	if err != nil {
		t.Fatalf("second Get failed: %v", err)
	}
	if again.IsNew {
		t.Error("returning session reported as new")
	}
	if again.Values["user"] != "alice" {
		t.Errorf("user = %v, want alice", again.Values["user"])
	}
}

func TestTamperedCookieYieldsFreshSession(t *testing.T) {
	store := newWebStore(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "village-session", Value: "forged"})

	sess, err := store.Get(req, "village-session")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !sess.IsNew {
		t.Error("forged cookie produced an existing session")
	}
}

func TestNegativeMaxAgeDestroysSession(t *testing.T) {
	store := newWebStore(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := store.Get(req, "village-session")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	sess.Values["user"] = "alice"
	rec := httptest.NewRecorder()
	if err := sess.Save(req, rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Log out: MaxAge < 0 removes the stored session and expires the
	// cookie.
	second := cookieRequest(t, rec)
	sess2, err := store.Get(second, "village-session")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	sess2.Options.MaxAge = -1
	rec2 := httptest.NewRecorder()
	if err := sess2.Save(second, rec2); err != nil {
		t.Fatalf("destroy Save failed: %v", err)
	}

	cookies := rec2.Result().Cookies()
	if len(cookies) == 0 || cookies[0].MaxAge >= 0 {
		t.Error("destroy did not expire the cookie")
	}

	third, err := store.Get(cookieRequest(t, rec), "village-session")
	if err != nil {
		t.Fatalf("Get after destroy failed: %v", err)
	}
	if !third.IsNew {
		t.Error("destroyed session still loads")
	}
}
