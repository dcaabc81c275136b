package constants

const (
	BaseMaxIdleConns        = 100
	BaseMaxIdleConnsPerHost = 10
)

const (
	// DefaultRetryMax bounds marketplace request retries per call.
	DefaultRetryMax = 3
)

// Cookie and session key names shared between the login, logout and
// credential-keeper paths. The names mirror the request field names so a
// persisted artifact is self-describing.
const (
	KeyUsername      = "username_addons"
	KeyPassword      = "password_addons"
	KeyIsContributor = "is_contributor"

	SessionCookieName = "addons_session"
)
