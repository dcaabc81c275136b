package addons

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	marketplace "addonshub-go/internal/addons"
	"addonshub-go/internal/config"
	"addonshub-go/internal/constants"
	"addonshub-go/internal/i18n"
	"addonshub-go/internal/modules"
	"addonshub-go/internal/secrets"
	"addonshub-go/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuth struct {
	result *marketplace.AuthResult
	err    error
	calls  int
}

func (f *fakeAuth) CheckCustomer(_ context.Context, _, _ string) (*marketplace.AuthResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeMarket struct {
	modules []marketplace.ModuleInfo
	archive []byte
	dlErr   error
}

func (f *fakeMarket) ListModules(_ context.Context) ([]marketplace.ModuleInfo, error) {
	return f.modules, nil
}

func (f *fakeMarket) DownloadModule(_ context.Context, _ string) ([]byte, error) {
	return f.archive, f.dlErr
}

type testEnv struct {
	handler *Handler
	engine  *gin.Engine
	catalog modules.Catalog
	store   *session.RedisStore
	auth    *fakeAuth
	market  *fakeMarket
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Skipf("miniredis unavailable: %v", err)
	}
	t.Cleanup(mr.Close)

	box, err := secrets.NewBox("handler-test-key")
	require.NoError(t, err)
	store := session.NewRedisStore(mr.Addr(), "", 0, "addonshub:", time.Hour)
	t.Cleanup(func() { _ = store.Close() })
	keeper := session.NewKeeper(box, store, 30*24*time.Hour)

	catalog, err := modules.NewFileCatalog(t.TempDir())
	require.NoError(t, err)

	auth := &fakeAuth{result: &marketplace.AuthResult{IsContributor: false}}
	market := &fakeMarket{archive: []byte("zip")}
	list := modules.NewListCache(nil, "", time.Minute, market)
	manager := modules.NewManager(catalog, list, market, t.TempDir())

	cfg := config.NewManager("")
	h := NewHandler(cfg, auth, keeper, manager, list, catalog, i18n.NewCatalog("en"))

	engine := gin.New()
	engine.POST("/api/addons/login", h.Login)
	engine.POST("/api/addons/logout", h.Logout)
	engine.POST("/api/addons/module/upgrade", h.Upgrade)

	return &testEnv{handler: h, engine: engine, catalog: catalog, store: store, auth: auth, market: market}
}

func postForm(engine *gin.Engine, path string, form url.Values, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestLoginSuccessSessionMode(t *testing.T) {
	env := newTestEnv(t)
	env.auth.result = &marketplace.AuthResult{IsContributor: true}

	w := postForm(env.engine, "/api/addons/login", url.Values{
		"username_addons": {"merchant@example.com"},
		"password_addons": {"hunter2"},
	}, nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, int64(1), gjson.Get(body, "success").Int())

	var sid string
	for _, ck := range w.Result().Cookies() {
		if ck.Name == constants.SessionCookieName {
			sid = ck.Value
		}
	}
	require.NotEmpty(t, sid, "session cookie minted")

	flag, err := env.store.Get(context.Background(), sid, constants.KeyIsContributor)
	require.NoError(t, err)
	assert.Equal(t, "1", flag)
}

func TestLoginRememberMeSetsCookies(t *testing.T) {
	env := newTestEnv(t)

	w := postForm(env.engine, "/api/addons/login", url.Values{
		"username_addons": {"merchant@example.com"},
		"password_addons": {"hunter2"},
		"addons_remember_me": {"true"},
	}, nil)

	require.Equal(t, http.StatusOK, w.Code)
	names := map[string]bool{}
	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge > 0 {
			names[ck.Name] = true
		}
	}
	assert.True(t, names[constants.KeyUsername])
	assert.True(t, names[constants.KeyPassword])
	assert.True(t, names[constants.KeyIsContributor])
}

func TestLoginRejectedIsGeneric(t *testing.T) {
	env := newTestEnv(t)
	env.auth.result = &marketplace.AuthResult{
		Errors: []marketplace.APIError{{Code: 401, Label: "account suspended for fraud"}},
	}

	w := postForm(env.engine, "/api/addons/login", url.Values{
		"username_addons": {"merchant@example.com"},
		"password_addons": {"wrong"},
	}, nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, int64(0), gjson.Get(body, "success").Int())
	// marketplace error details never reach the merchant
	assert.NotContains(t, body, "suspended")
	assert.Empty(t, w.Result().Cookies())
}

func TestLoginMarketplaceDownIsGeneric(t *testing.T) {
	env := newTestEnv(t)
	env.auth.err = errors.New("dial tcp: connection refused")
	env.auth.result = nil

	w := postForm(env.engine, "/api/addons/login", url.Values{
		"username_addons": {"merchant@example.com"},
		"password_addons": {"hunter2"},
	}, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(0), gjson.Get(w.Body.String(), "success").Int())
	assert.NotContains(t, w.Body.String(), "refused")
}

func TestLoginMissingFields(t *testing.T) {
	env := newTestEnv(t)

	w := postForm(env.engine, "/api/addons/login", url.Values{
		"username_addons": {""},
		"password_addons": {""},
	}, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(0), gjson.Get(w.Body.String(), "success").Int())
	assert.Zero(t, env.auth.calls, "no marketplace call without credentials")
}

func TestLogoutAjaxReturnsJSON(t *testing.T) {
	env := newTestEnv(t)

	w := postForm(env.engine, "/api/addons/logout", url.Values{}, map[string]string{
		"X-Requested-With": "XMLHttpRequest",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), gjson.Get(w.Body.String(), "success").Int())

	expired := 0
	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 {
			expired++
		}
	}
	assert.Equal(t, 3, expired, "all three credential cookies expired")
}

func TestLogoutRedirectsToReferrer(t *testing.T) {
	env := newTestEnv(t)

	w := postForm(env.engine, "/api/addons/logout", url.Values{}, map[string]string{
		"Referer": "http://shop.example/admin/modules",
	})

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "http://shop.example/admin/modules", w.Header().Get("Location"))
}

func TestLogoutRedirectsToAdminHomeWithoutReferrer(t *testing.T) {
	env := newTestEnv(t)

	w := postForm(env.engine, "/api/addons/logout", url.Values{}, nil)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin", w.Header().Get("Location"))
}

func TestLogoutWipesSessionCredentials(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.store.Set(context.Background(), "sid-1", constants.KeyUsername, "sealed"))

	req := httptest.NewRequest(http.MethodPost, "/api/addons/logout", nil)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: "sid-1"})
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	_, err := env.store.Get(context.Background(), "sid-1", constants.KeyUsername)
	var nf *session.ErrNotFound
	assert.ErrorAs(t, err, &nf)
}

func TestUpgradeMissingName(t *testing.T) {
	env := newTestEnv(t)

	w := postForm(env.engine, "/api/addons/module/upgrade", url.Values{}, nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, gjson.Get(w.Body.String(), "status").Bool())
}

func TestUpgradeSuccessReportsConfigurability(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.catalog.Upsert(ctx, &modules.Module{
		Name: "gamification", Version: "2.1.0", IsConfigurable: true, Enabled: true,
	}))
	env.market.modules = []marketplace.ModuleInfo{{Name: "gamification", Version: "2.2.0"}}

	w := postForm(env.engine, "/api/addons/module/upgrade", url.Values{
		"moduleName": {"gamification"},
	}, nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, gjson.Get(body, "status").Bool())
	assert.True(t, gjson.Get(body, "is_configurable").Bool())
	assert.Equal(t, "gamification", gjson.Get(body, "module_name").String())
}

func TestUpgradeAlreadyCurrentIsSuccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.catalog.Upsert(ctx, &modules.Module{
		Name: "mailalerts", Version: "1.0.0", Enabled: true,
	}))
	env.market.modules = []marketplace.ModuleInfo{{Name: "mailalerts", Version: "1.0.0"}}

	w := postForm(env.engine, "/api/addons/module/upgrade", url.Values{
		"moduleName": {"mailalerts"},
	}, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gjson.Get(w.Body.String(), "status").Bool())

	m, err := env.catalog.Get(ctx, "mailalerts")
	require.NoError(t, err)
	assert.True(t, m.Enabled, "module stays enabled when already current")
}

func TestUpgradeFailureDisablesModule(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.catalog.Upsert(ctx, &modules.Module{
		Name: "gamification", Version: "2.1.0", Enabled: true,
	}))
	env.market.modules = []marketplace.ModuleInfo{{Name: "gamification", Version: "2.2.0"}}
	env.market.dlErr = errors.New("archive corrupt")

	w := postForm(env.engine, "/api/addons/module/upgrade", url.Values{
		"moduleName": {"gamification"},
	}, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, gjson.Get(w.Body.String(), "status").Bool())

	m, err := env.catalog.Get(ctx, "gamification")
	require.NoError(t, err)
	assert.False(t, m.Enabled, "failed upgrade leaves the module disabled")
}
