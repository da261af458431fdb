package demo

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CookieName matches the cookie the original web client used.
const CookieName = "langgol-demoUser"

// CookieStore persists the usage record in a browser cookie, scoped to a
// single request/response pair. The JSON payload is base64-encoded since
// cookie values cannot carry quotes.
type CookieStore struct {
	c    *gin.Context
	days int
}

func NewCookieStore(c *gin.Context, days int) *CookieStore {
	if days <= 0 {
		days = 30
	}
	return &CookieStore{c: c, days: days}
}

func (s *CookieStore) Load() (*Usage, error) {
	raw, err := s.c.Cookie(CookieName)
	if errors.Is(err, http.ErrNoCookie) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	blob, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		// unreadable cookie counts as no record
		return nil, nil
	}
	u := &Usage{}
	if err := json.Unmarshal(blob, u); err != nil {
		return nil, nil
	}
	return u, nil
}

func (s *CookieStore) Save(u Usage) error {
	blob, err := json.Marshal(u)
	if err != nil {
		return err
	}
	value := base64.RawURLEncoding.EncodeToString(blob)
	s.c.SetCookie(CookieName, value, s.days*24*60*60, "/", "", false, true)
	return nil
}

// ClearCookie erases the demo cookie. Only a real sign-in does this; the
// meter itself keeps exhausted records so the quota survives restarts.
func ClearCookie(c *gin.Context) {
	c.SetCookie(CookieName, "", -1, "/", "", false, true)
}
