package addons

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"addonshub-go/internal/logging"
	"addonshub-go/internal/modules"
)

type upgradeRequest struct {
	ModuleName string `form:"moduleName" json:"moduleName"`
}

// Upgrade brings one module to the marketplace version. An installation
// already on the latest version is reported as a success. Any other failure
// disables the module so a half-upgraded module never stays active.
func (h *Handler) Upgrade(c *gin.Context) {
	start := time.Now()
	locale := h.locale(c)

	var req upgradeRequest
	_ = c.ShouldBind(&req)
	name := strings.TrimSpace(req.ModuleName)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  false,
			"msg":     h.msgs.T(locale, "module.name_required"),
		})
		return
	}
	c.Set("module_name", name)

	upgraded, err := h.manager.Upgrade(c.Request.Context(), name)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"status":          true,
			"msg":             h.msgs.T(locale, "module.upgrade_success", upgraded.Name),
			"module_name":     name,
			"is_configurable": h.isConfigurable(c, name),
		})

	case errors.Is(err, modules.ErrUpgradeNotNeeded):
		c.JSON(http.StatusOK, gin.H{
			"status":          true,
			"msg":             h.msgs.T(locale, "module.upgrade_no_change", name),
			"module_name":     name,
			"is_configurable": h.isConfigurable(c, name),
		})

	default:
		var notFound *modules.ErrModuleNotFound
		if !errors.As(err, &notFound) {
			// leave the module off rather than half-upgraded; the
			// disable outcome itself is not worth failing over
			_ = h.manager.Disable(c.Request.Context(), name, err.Error())
		}
		logging.WithReq(c, log.Fields{
			"duration_ms": logging.DurationMS(time.Since(start)),
		}).WithError(err).Warn("Module upgrade failed")
		c.JSON(http.StatusOK, gin.H{
			"status":      false,
			"msg":         h.msgs.T(locale, "module.upgrade_failed", name),
			"module_name": name,
		})
	}
}

// isConfigurable consults the catalog entry; an unreadable entry reports
// not configurable rather than failing the upgrade response.
func (h *Handler) isConfigurable(c *gin.Context, name string) bool {
	m, err := h.catalog.Get(c.Request.Context(), name)
	if err != nil {
		return false
	}
	return m.IsConfigurable
}
