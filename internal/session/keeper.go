package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"addonshub-go/internal/constants"
	"addonshub-go/internal/secrets"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Credentials is the marketplace login artifact persisted between requests.
type Credentials struct {
	Username      string
	Password      string
	IsContributor bool
}

// Keeper persists marketplace credentials either as three long-lived
// cookies (remember-me) or as three fields of a server-side session.
// Username and password are sealed before leaving the process; the
// contributor flag is stored plain as "0"/"1". The two modes are mutually
// exclusive per login: persisting one clears the other.
type Keeper struct {
	box            *secrets.Box
	store          Store
	cookieLifetime time.Duration
}

// NewKeeper builds a keeper. store may be nil when no redis is configured;
// session-mode persistence then degrades to an error the handler reports.
func NewKeeper(box *secrets.Box, store Store, cookieLifetime time.Duration) *Keeper {
	if cookieLifetime <= 0 {
		cookieLifetime = 30 * 24 * time.Hour
	}
	return &Keeper{box: box, store: store, cookieLifetime: cookieLifetime}
}

func isSecureRequest(c *gin.Context) bool {
	return c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https")
}

func contributorValue(isContributor bool) string {
	if isContributor {
		return "1"
	}
	return "0"
}

func (k *Keeper) setCookie(c *gin.Context, name, value string, maxAge time.Duration) {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecureRequest(c),
		SameSite: http.SameSiteLaxMode,
	}
	switch {
	case maxAge > 0:
		ck.Expires = time.Now().Add(maxAge)
		ck.MaxAge = int(maxAge.Seconds())
	case maxAge < 0:
		ck.Expires = time.Unix(0, 0)
		ck.MaxAge = -1
	}
	// maxAge == 0 leaves a browser-session cookie
	http.SetCookie(c.Writer, ck)
}

// PersistCookies stores the credentials as three cookies with the
// configured lifetime, and drops any session-side copy.
func (k *Keeper) PersistCookies(ctx context.Context, c *gin.Context, creds Credentials) error {
	sealedUser, err := k.box.Seal(creds.Username)
	if err != nil {
		return err
	}
	sealedPass, err := k.box.Seal(creds.Password)
	if err != nil {
		return err
	}
	k.setCookie(c, constants.KeyUsername, sealedUser, k.cookieLifetime)
	k.setCookie(c, constants.KeyPassword, sealedPass, k.cookieLifetime)
	k.setCookie(c, constants.KeyIsContributor, contributorValue(creds.IsContributor), k.cookieLifetime)

	// cookie mode replaces any previous session artifact
	if sid := k.sessionID(c, false); sid != "" && k.store != nil {
		_ = k.store.Delete(ctx, sid, constants.KeyUsername, constants.KeyPassword, constants.KeyIsContributor)
	}
	return nil
}

// PersistSession stores the credentials server-side under the session-ID
// cookie (created if absent), and expires any cookie-side copy.
func (k *Keeper) PersistSession(ctx context.Context, c *gin.Context, creds Credentials) error {
	if k.store == nil {
		return errors.New("session store not configured")
	}
	sid := k.sessionID(c, true)

	sealedUser, err := k.box.Seal(creds.Username)
	if err != nil {
		return err
	}
	sealedPass, err := k.box.Seal(creds.Password)
	if err != nil {
		return err
	}
	if err := k.store.Set(ctx, sid, constants.KeyUsername, sealedUser); err != nil {
		return err
	}
	if err := k.store.Set(ctx, sid, constants.KeyPassword, sealedPass); err != nil {
		return err
	}
	if err := k.store.Set(ctx, sid, constants.KeyIsContributor, contributorValue(creds.IsContributor)); err != nil {
		return err
	}

	// session mode replaces any previous cookie artifact
	k.expireCredentialCookies(c)
	return nil
}

// Clear removes both the cookie and session artifacts. Store errors are
// returned but the cookies are always expired.
func (k *Keeper) Clear(ctx context.Context, c *gin.Context) error {
	k.expireCredentialCookies(c)
	sid := k.sessionID(c, false)
	if sid == "" || k.store == nil {
		return nil
	}
	return k.store.Delete(ctx, sid, constants.KeyUsername, constants.KeyPassword, constants.KeyIsContributor)
}

// Load resolves the persisted credentials, preferring cookies. The second
// return reports whether a complete artifact was found. Undecipherable
// values behave exactly like absent ones.
func (k *Keeper) Load(ctx context.Context, c *gin.Context) (*Credentials, bool) {
	if creds, ok := k.loadFromCookies(c); ok {
		return creds, true
	}
	return k.loadFromSession(ctx, c)
}

func (k *Keeper) loadFromCookies(c *gin.Context) (*Credentials, bool) {
	sealedUser, err := c.Cookie(constants.KeyUsername)
	if err != nil {
		return nil, false
	}
	sealedPass, err := c.Cookie(constants.KeyPassword)
	if err != nil {
		return nil, false
	}
	flag, _ := c.Cookie(constants.KeyIsContributor)
	user, err := k.box.Open(sealedUser)
	if err != nil {
		return nil, false
	}
	pass, err := k.box.Open(sealedPass)
	if err != nil {
		return nil, false
	}
	return &Credentials{Username: user, Password: pass, IsContributor: flag == "1"}, true
}

func (k *Keeper) loadFromSession(ctx context.Context, c *gin.Context) (*Credentials, bool) {
	if k.store == nil {
		return nil, false
	}
	sid := k.sessionID(c, false)
	if sid == "" {
		return nil, false
	}
	sealedUser, err := k.store.Get(ctx, sid, constants.KeyUsername)
	if err != nil {
		return nil, false
	}
	sealedPass, err := k.store.Get(ctx, sid, constants.KeyPassword)
	if err != nil {
		return nil, false
	}
	flag, _ := k.store.Get(ctx, sid, constants.KeyIsContributor)
	user, err := k.box.Open(sealedUser)
	if err != nil {
		return nil, false
	}
	pass, err := k.box.Open(sealedPass)
	if err != nil {
		return nil, false
	}
	return &Credentials{Username: user, Password: pass, IsContributor: flag == "1"}, true
}

func (k *Keeper) expireCredentialCookies(c *gin.Context) {
	k.setCookie(c, constants.KeyUsername, "", -1)
	k.setCookie(c, constants.KeyPassword, "", -1)
	k.setCookie(c, constants.KeyIsContributor, "", -1)
}

// sessionID returns the request's session ID, minting a new UUID cookie
// when create is set and none exists yet.
func (k *Keeper) sessionID(c *gin.Context, create bool) string {
	if v, err := c.Cookie(constants.SessionCookieName); err == nil && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if !create {
		return ""
	}
	sid := uuid.New().String()
	k.setCookie(c, constants.SessionCookieName, sid, 0)
	return sid
}
