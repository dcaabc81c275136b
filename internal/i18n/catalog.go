package i18n

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Catalog resolves user-facing messages by locale and key. Lookup order:
// requested locale, default locale, built-in English, then the key itself
// so a missing translation never produces an empty response.
type Catalog struct {
	mu            sync.RWMutex
	defaultLocale string
	messages      map[string]map[string]string // locale -> key -> template
}

// NewCatalog builds a catalog seeded with the built-in English messages.
func NewCatalog(defaultLocale string) *Catalog {
	if defaultLocale == "" {
		defaultLocale = "en"
	}
	c := &Catalog{
		defaultLocale: defaultLocale,
		messages:      map[string]map[string]string{"en": builtinEN()},
	}
	return c
}

func builtinEN() map[string]string {
	return map[string]string{
		"addons.login_failed":      "Cannot connect to Addons marketplace. Please check your credentials.",
		"addons.login_success":     "You are now logged in to the Addons marketplace.",
		"addons.logout_success":    "You have been logged out of the Addons marketplace.",
		"module.name_required":     "Module name is required.",
		"module.upgrade_success":   "Module %s has been upgraded successfully.",
		"module.upgrade_no_change": "Module %s is already up to date.",
		"module.upgrade_failed":    "Upgrade of module %s failed.",
	}
}

// LoadDir merges locale files (<locale>.yaml / <locale>.yml) into the
// catalog. Files layer over built-ins per key, so a partial catalog is fine.
func (c *Catalog) LoadDir(dir string) error {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read locales dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		locale := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return fmt.Errorf("read locale %s: %w", locale, err)
		}
		var msgs map[string]string
		if err := yaml.Unmarshal(data, &msgs); err != nil {
			return fmt.Errorf("parse locale %s: %w", locale, err)
		}
		c.mu.Lock()
		existing := c.messages[locale]
		if existing == nil {
			existing = make(map[string]string, len(msgs))
			c.messages[locale] = existing
		}
		for k, v := range msgs {
			existing[k] = v
		}
		c.mu.Unlock()
		log.WithFields(log.Fields{"locale": locale, "keys": len(msgs)}).Debug("locale catalog loaded")
	}
	return nil
}

// T resolves key in the given locale, applying fmt args when present.
func (c *Catalog) T(locale, key string, args ...interface{}) string {
	tmpl := c.lookup(locale, key)
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

func (c *Catalog) lookup(locale, key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, loc := range []string{normalize(locale), c.defaultLocale, "en"} {
		if loc == "" {
			continue
		}
		if msgs, ok := c.messages[loc]; ok {
			if msg, ok := msgs[key]; ok {
				return msg
			}
		}
	}
	return key
}

// MatchLocale reduces an Accept-Language header to a supported locale,
// falling back to the catalog default.
func (c *Catalog) MatchLocale(acceptLanguage string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, part := range strings.Split(acceptLanguage, ",") {
		lang := normalize(strings.SplitN(strings.TrimSpace(part), ";", 2)[0])
		if lang == "" {
			continue
		}
		if _, ok := c.messages[lang]; ok {
			return lang
		}
		// region tags fall back to the base language
		if base := strings.SplitN(lang, "-", 2)[0]; base != lang {
			if _, ok := c.messages[base]; ok {
				return base
			}
		}
	}
	return c.defaultLocale
}

func normalize(locale string) string {
	return strings.ToLower(strings.TrimSpace(locale))
}
