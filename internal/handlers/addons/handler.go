package addons

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	marketplace "addonshub-go/internal/addons"
	"addonshub-go/internal/config"
	"addonshub-go/internal/i18n"
	"addonshub-go/internal/modules"
	"addonshub-go/internal/session"
)

// authChecker is the slice of the marketplace client the login flow needs.
type authChecker interface {
	CheckCustomer(ctx context.Context, username, password string) (*marketplace.AuthResult, error)
}

// Handler serves the marketplace account and module lifecycle endpoints of
// the admin backend.
type Handler struct {
	cfg     *config.Manager
	market  authChecker
	keeper  *session.Keeper
	manager *modules.Manager
	list    *modules.ListCache
	catalog modules.Catalog
	msgs    *i18n.Catalog
}

func NewHandler(cfg *config.Manager, market authChecker, keeper *session.Keeper, manager *modules.Manager, list *modules.ListCache, catalog modules.Catalog, msgs *i18n.Catalog) *Handler {
	return &Handler{
		cfg:     cfg,
		market:  market,
		keeper:  keeper,
		manager: manager,
		list:    list,
		catalog: catalog,
		msgs:    msgs,
	}
}

// locale resolves the response language from the Accept-Language header.
func (h *Handler) locale(c *gin.Context) string {
	return h.msgs.MatchLocale(c.GetHeader("Accept-Language"))
}

func isAjax(c *gin.Context) bool {
	return strings.EqualFold(c.GetHeader("X-Requested-With"), "XMLHttpRequest")
}

// redirectTarget prefers the referrer so the merchant lands back on the
// page the action came from.
func (h *Handler) redirectTarget(c *gin.Context) string {
	if ref := strings.TrimSpace(c.GetHeader("Referer")); ref != "" {
		return ref
	}
	return h.cfg.Get().AdminHomeURL
}

func respondFailure(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": 0, "message": message})
}
