package version

// Version is the service version, overridable at build time via
// -ldflags "-X addonshub-go/internal/version.Version=...".
var Version = "dev"
