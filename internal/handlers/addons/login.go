package addons

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"addonshub-go/internal/logging"
	"addonshub-go/internal/monitoring"
	"addonshub-go/internal/session"
)

type loginRequest struct {
	Username string `form:"username_addons" json:"username_addons"`
	Password string `form:"password_addons" json:"password_addons"`
	Remember bool   `form:"addons_remember_me" json:"addons_remember_me"`
}

// Login verifies the merchant's marketplace account and persists the
// credentials. Every failure path returns the same generic message so the
// response never leaks whether the account exists.
func (h *Handler) Login(c *gin.Context) {
	start := time.Now()
	locale := h.locale(c)
	failed := h.msgs.T(locale, "addons.login_failed")

	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		monitoring.RecordLoginAttempt("bad_request")
		respondFailure(c, http.StatusOK, failed)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		monitoring.RecordLoginAttempt("missing_fields")
		respondFailure(c, http.StatusOK, failed)
		return
	}

	result, err := h.market.CheckCustomer(c.Request.Context(), req.Username, req.Password)
	if err != nil || result == nil || !result.OK() {
		if err != nil {
			logging.WithReq(c, log.Fields{"duration_ms": logging.DurationMS(time.Since(start))}).
				WithError(err).Warn("Marketplace authentication unreachable")
			monitoring.RecordLoginAttempt("marketplace_error")
		} else {
			monitoring.RecordLoginAttempt("rejected")
		}
		respondFailure(c, http.StatusOK, failed)
		return
	}

	creds := session.Credentials{
		Username:      req.Username,
		Password:      req.Password,
		IsContributor: result.IsContributor,
	}
	if req.Remember {
		err = h.keeper.PersistCookies(c.Request.Context(), c, creds)
	} else {
		err = h.keeper.PersistSession(c.Request.Context(), c, creds)
	}
	if err != nil {
		logging.WithReq(c, nil).WithError(err).Error("Persisting marketplace credentials failed")
		monitoring.RecordLoginAttempt("persist_error")
		respondFailure(c, http.StatusOK, failed)
		return
	}

	// the module list is account-specific
	h.list.Clear(c.Request.Context())

	monitoring.RecordLoginAttempt("success")
	logging.WithReq(c, log.Fields{
		"remember":    req.Remember,
		"duration_ms": logging.DurationMS(time.Since(start)),
	}).Info("Marketplace login succeeded")

	c.JSON(http.StatusOK, gin.H{
		"success": 1,
		"message": h.msgs.T(locale, "addons.login_success"),
	})
}
