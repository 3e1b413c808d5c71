package session

import (
	"errors"
	"net/http"
	"time"
)

const cookieName = "guest_session_id"

// CookieStore persists the guest session id in a browser cookie. One store is
// built per request; Load reads from the request, Save writes to the response.
type CookieStore struct {
	r *http.Request
	w http.ResponseWriter
}

func NewCookieStore(w http.ResponseWriter, r *http.Request) *CookieStore {
	return &CookieStore{r: r, w: w}
}

func (s *CookieStore) Load() (string, error) {
	c, err := s.r.Cookie(cookieName)
	if errors.Is(err, http.ErrNoCookie) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return c.Value, nil
}

func (s *CookieStore) Save(id string) error {
	http.SetCookie(s.w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		Expires:  time.Now().Add(365 * 24 * time.Hour),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
