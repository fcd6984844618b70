// internal/app/session/webstore.go
package session

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

// WebStore adapts the Cache to gorilla's sessions.Store so the HTTP layer
// can use it as drop-in session middleware. The cookie carries only the
// signed session ID; the payload lives in the document store behind the
// cache.
type WebStore struct {
	Codecs  []securecookie.Codec
	Options *sessions.Options

	cache *Cache
}

// NewWebStore builds a WebStore signing cookies with the given key pairs
// (see securecookie.CodecsFromPairs).
func NewWebStore(cache *Cache, keyPairs ...[]byte) *WebStore {
	return &WebStore{
		Codecs: securecookie.CodecsFromPairs(keyPairs...),
		Options: &sessions.Options{
			Path:     "/",
			MaxAge:   86400 * 30,
			HttpOnly: true,
		},
		cache: cache,
	}
}

// Get returns the named session, using the request registry so repeated
// calls within one request share a session instance.
func (s *WebStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the named session from the cookie's session ID, or returns a
// fresh one. An unreadable cookie is treated as no session rather than an
// error.
func (s *WebStore) New(r *http.Request, name string) (*sessions.Session, error) {
	sess := sessions.NewSession(s, name)
	opts := *s.Options
	sess.Options = &opts
	sess.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return sess, nil
	}
	var sid string
	if err := securecookie.DecodeMulti(name, c.Value, &sid, s.Codecs...); err != nil {
		return sess, nil
	}
	sess.ID = sid

	fields, found, err := s.cache.Get(r.Context(), sid)
	if err != nil {
		return sess, err
	}
	if !found {
		return sess, nil
	}
	for k, v := range fields {
		sess.Values[k] = v
	}
	sess.IsNew = false
	return sess, nil
}

// Save persists the session through the cache. MaxAge < 0 destroys it and
// expires the cookie.
func (s *WebStore) Save(r *http.Request, w http.ResponseWriter, sess *sessions.Session) error {
	if sess.Options.MaxAge < 0 {
		if sess.ID != "" {
			if err := s.cache.Destroy(r.Context(), sess.ID); err != nil {
				return err
			}
		}
		http.SetCookie(w, sessions.NewCookie(sess.Name(), "", sess.Options))
		return nil
	}

	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}

	// Session payloads are JSON documents, so only string keys persist.
	fields := make(map[string]any, len(sess.Values))
	for k, v := range sess.Values {
		if key, ok := k.(string); ok {
			fields[key] = v
		}
	}
	if err := s.cache.Set(r.Context(), sess.ID, fields); err != nil {
		return err
	}

	encoded, err := securecookie.EncodeMulti(sess.Name(), sess.ID, s.Codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w, sessions.NewCookie(sess.Name(), encoded, sess.Options))
	return nil
}
