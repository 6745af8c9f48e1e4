package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/magiconair/properties"
	"go.uber.org/zap"

	"mcpatlas-go/internal/apperrors"
)

const (
	ConfigDirName      = "user-config"
	BaseConfigFile     = "mcp-config.properties"
	LocalConfigFile    = "mcp-config.local.properties"
	ServersDirName     = "servers"
	localSuffix        = ".local.properties"
	envPrefixCore      = "MCP_"
	envPrefixAtlassian = "ATLASSIAN_"
)

// coreKeys is the closed set of canonical dotted keys that the MCP_* prefix
// maps onto (dots become underscores, uppercased: apiKeys.github maps to
// MCP_APIKEYS_GITHUB).
var coreKeys = []string{
	"instance.name",
	"deployment.variant",
	"auth.email",
	"auth.token",
	"auth.type",
	"http.connectTimeoutMs",
	"http.readTimeoutMs",
	"preferences.theme",
	"preferences.logLevel",
	"preferences.maxRetries",
	"preferences.timeoutSeconds",
	"preferences.toolResponseLimit",
	"profile.active",
	"location",
	"browser",
	"jira.url",
	"jira.enabled",
	"jira.type",
	"jira.command",
	"confluence.url",
	"confluence.enabled",
	"confluence.type",
	"confluence.command",
	"bitbucket.url",
	"bitbucket.enabled",
	"bitbucket.type",
	"bitbucket.command",
	"bitbucket.workspace",
}

// atlassianEnvKeys is the explicit ATLASSIAN_* mapping table.
var atlassianEnvKeys = map[string]string{
	"ATLASSIAN_EMAIL":               "auth.email",
	"ATLASSIAN_API_TOKEN":           "auth.token",
	"ATLASSIAN_AUTH_TYPE":           "auth.type",
	"ATLASSIAN_DEPLOYMENT":          "deployment.variant",
	"ATLASSIAN_JIRA_URL":            "jira.url",
	"ATLASSIAN_JIRA_ENABLED":        "jira.enabled",
	"ATLASSIAN_CONFLUENCE_URL":      "confluence.url",
	"ATLASSIAN_CONFLUENCE_ENABLED":  "confluence.enabled",
	"ATLASSIAN_BITBUCKET_URL":       "bitbucket.url",
	"ATLASSIAN_BITBUCKET_ENABLED":   "bitbucket.enabled",
	"ATLASSIAN_BITBUCKET_WORKSPACE": "bitbucket.workspace",
}

// EnvVarForKey returns the MCP_* environment variable name for a canonical key.
func EnvVarForKey(key string) string {
	return envPrefixCore + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Resolver merges layered sources into a RuntimeConfig.
type Resolver struct {
	baseDir string // directory containing user-config/
	lookup  func(string) (string, bool)
	logger  *zap.Logger

	// ListToolsOnly relaxes the at-least-one-live-product invariant.
	ListToolsOnly bool
}

// NewResolver creates a resolver rooted at baseDir, reading the real
// process environment.
func NewResolver(baseDir string, logger *zap.Logger) *Resolver {
	return &Resolver{baseDir: baseDir, lookup: os.LookupEnv, logger: logger}
}

// WithEnvLookup substitutes the environment source, for tests.
func (r *Resolver) WithEnvLookup(lookup func(string) (string, bool)) *Resolver {
	r.lookup = lookup
	return r
}

// Load reads all layers, applies the active profile overlay and validates.
func (r *Resolver) Load() (*RuntimeConfig, error) {
	merged, err := r.mergeLayers()
	if err != nil {
		return nil, err
	}

	cfg := r.build(merged)
	cfg.ListToolsOnly = r.ListToolsOnly

	profiles := parseProfiles(merged)
	if active := strings.TrimSpace(merged["profile.active"]); active != "" {
		prof, ok := profiles[active]
		if !ok {
			return nil, &ValidationError{Problems: []string{
				fmt.Sprintf("active profile %q is not defined", active),
			}}
		}
		if err := applyProfile(cfg, prof); err != nil {
			return nil, err
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeLayers folds the file layers and environment into one flat map.
// Later layers win; environment values win only when non-blank after trim.
func (r *Resolver) mergeLayers() (map[string]string, error) {
	merged := make(map[string]string)

	dir := filepath.Join(r.baseDir, ConfigDirName)
	files := []struct {
		path   string
		prefix string
	}{
		{filepath.Join(dir, BaseConfigFile), ""},
		{filepath.Join(dir, LocalConfigFile), ""},
	}
	for _, p := range Products {
		name := string(p)
		base := filepath.Join(dir, ServersDirName, name, name+"-config.properties")
		local := filepath.Join(dir, ServersDirName, name, name+"-config"+localSuffix)
		files = append(files,
			struct {
				path   string
				prefix string
			}{base, name + "."},
			struct {
				path   string
				prefix string
			}{local, name + "."},
		)
	}

	for _, f := range files {
		entries, err := loadPropertiesFile(f.path)
		if err != nil {
			return nil, err
		}
		for k, v := range entries {
			key := k
			// Keys in per-product files are relative unless already scoped.
			if f.prefix != "" && !strings.Contains(k, ".") {
				key = f.prefix + k
			}
			merged[key] = v
		}
	}

	overlayEnv := func(envName, key string) {
		if val, ok := r.lookup(envName); ok {
			if trimmed := strings.TrimSpace(val); trimmed != "" {
				merged[key] = trimmed
			}
		}
	}
	for _, key := range coreKeys {
		overlayEnv(EnvVarForKey(key), key)
	}
	for envName, key := range atlassianEnvKeys {
		overlayEnv(envName, key)
	}

	return merged, nil
}

// loadPropertiesFile reads one flat key=value file. A missing file is not an
// error; an unreadable or unparseable one is a config load error.
func loadPropertiesFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.KindConfigLoad, err, "cannot read %s", path)
	}

	p := properties.NewProperties()
	p.DisableExpansion = true
	if err := p.Load(data, properties.UTF8); err != nil {
		return nil, apperrors.Wrap(apperrors.KindConfigLoad, err, "cannot parse %s", path)
	}

	entries := make(map[string]string, p.Len())
	for _, key := range p.Keys() {
		k := strings.TrimSpace(key)
		if k == "" {
			continue
		}
		v, _ := p.Get(key)
		entries[k] = strings.TrimSpace(v)
	}
	return entries, nil
}

// build turns the merged key map into the typed runtime profile.
func (r *Resolver) build(m map[string]string) *RuntimeConfig {
	cfg := &RuntimeConfig{
		InstanceName: m["instance.name"],
		Variant:      ParseVariant(m["deployment.variant"]),
		Location:     m["location"],
		Browser:      m["browser"],
		products:     make(map[Product]ProductConfig, len(Products)),
	}
	if cfg.InstanceName == "" {
		// Placeholder keeps list-tools mode reachable without any config.
		cfg.InstanceName = DefaultInstanceName
	}

	cfg.Credentials = Credentials{
		Email:  m["auth.email"],
		Secret: m["auth.token"],
	}
	if at, ok := ParseAuthType(m["auth.type"]); ok {
		cfg.Credentials.AuthType = at
	}

	cfg.Timeouts = HTTPTimeouts{
		ConnectMs: r.intOr(m, "http.connectTimeoutMs", DefaultConnectTimeoutMs),
		ReadMs:    r.intOr(m, "http.readTimeoutMs", DefaultReadTimeoutMs),
	}
	cfg.Preferences = Preferences{
		Theme:             m["preferences.theme"],
		LogLevel:          m["preferences.logLevel"],
		MaxRetries:        r.intOr(m, "preferences.maxRetries", DefaultMaxRetries),
		TimeoutSeconds:    r.intOr(m, "preferences.timeoutSeconds", DefaultTimeoutSeconds),
		ToolResponseLimit: r.intOr(m, "preferences.toolResponseLimit", 0),
	}

	for _, p := range Products {
		name := string(p)
		kind := ServerKindHTTP
		if m[name+".type"] == string(ServerKindStdio) {
			kind = ServerKindStdio
		}
		cfg.products[p] = ProductConfig{
			Product:   p,
			Kind:      kind,
			URL:       NormalizeURL(m[name+".url"]),
			Command:   m[name+".command"],
			Enabled:   ParseBool(m[name+".enabled"]),
			Workspace: m[name+".workspace"],
		}
	}

	return cfg
}

// intOr parses m[key] as an integer, logging a warning and returning the
// compile-time default on failure.
func (r *Resolver) intOr(m map[string]string, key string, def int) int {
	raw, ok := m[key]
	if !ok || raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("numeric config value is not a number, using default",
				zap.String("key", key),
				zap.String("value", raw),
				zap.Int("default", def))
		}
		return def
	}
	return n
}
