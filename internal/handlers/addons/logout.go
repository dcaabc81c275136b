package addons

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"addonshub-go/internal/logging"
)

// Logout drops the persisted marketplace credentials from both cookies and
// the server-side session. The teardown runs unconditionally: a logout with
// nothing to clear still succeeds.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.keeper.Clear(c.Request.Context(), c); err != nil {
		// cookies are already expired at this point; the stale session
		// entry falls out with its TTL
		logging.WithReq(c, nil).WithError(err).Warn("Session-side credential cleanup failed")
	}

	if isAjax(c) {
		c.JSON(http.StatusOK, gin.H{
			"success": 1,
			"message": h.msgs.T(h.locale(c), "addons.logout_success"),
		})
		return
	}
	c.Redirect(http.StatusFound, h.redirectTarget(c))
}
