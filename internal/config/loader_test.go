package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"
)

func writeConfigFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, ConfigDirName, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func envMap(m map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, BaseConfigFile, `
# base layer
instance.name = base-instance
auth.email = base@example.com
auth.token = base-token
jira.url = https://base.atlassian.net/
jira.enabled = true
`)
	writeConfigFile(t, dir, LocalConfigFile, `
instance.name = local-instance
auth.token = local-token
`)

	r := NewResolver(dir, zap.NewNop()).WithEnvLookup(envMap(map[string]string{
		"MCP_AUTH_TOKEN": "env-token",
		// Blank env values must not override file values.
		"MCP_AUTH_EMAIL": "   ",
	}))
	cfg, err := r.Load()
	require.NoError(t, err)

	assert.Equal(t, "local-instance", cfg.InstanceName)
	assert.Equal(t, "env-token", cfg.Credentials.Secret)
	assert.Equal(t, "base@example.com", cfg.Credentials.Email)
	assert.Equal(t, "https://base.atlassian.net", cfg.ProductConfig(ProductJira).URL)
	assert.True(t, cfg.ProductConfig(ProductJira).Live())
}

func TestLoadPerProductFiles(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, BaseConfigFile, `
auth.email = ops@example.com
auth.token = tok
`)
	writeConfigFile(t, dir, filepath.Join(ServersDirName, "bitbucket", "bitbucket-config.properties"), `
url = https://api.bitbucket.org/2.0/
enabled = 1
workspace = acme
`)

	cfg, err := NewResolver(dir, zap.NewNop()).WithEnvLookup(envMap(nil)).Load()
	require.NoError(t, err)

	bb := cfg.ProductConfig(ProductBitbucket)
	assert.Equal(t, "https://api.bitbucket.org/2.0", bb.URL)
	assert.True(t, bb.Enabled)
	assert.Equal(t, "acme", bb.Workspace)
	assert.Equal(t, []Product{ProductBitbucket}, cfg.LiveProducts())
}

func TestLoadNumericFallback(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, BaseConfigFile, `
auth.token = tok
auth.email = a@b.c
jira.url = https://x.atlassian.net
jira.enabled = true
http.connectTimeoutMs = not-a-number
preferences.maxRetries = 5
`)

	cfg, err := NewResolver(dir, zap.NewNop()).WithEnvLookup(envMap(nil)).Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultConnectTimeoutMs, cfg.Timeouts.ConnectMs)
	assert.Equal(t, DefaultReadTimeoutMs, cfg.Timeouts.ReadMs)
	assert.Equal(t, 5, cfg.Preferences.MaxRetries)
}

func TestLoadMissingFilesIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(dir, zap.NewNop()).WithEnvLookup(envMap(nil))
	r.ListToolsOnly = true

	cfg, err := r.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultInstanceName, cfg.InstanceName)
	assert.False(t, cfg.AnyLive())
}

func TestLoadNoLiveProductFailsValidation(t *testing.T) {
	dir := t.TempDir()
	_, err := NewResolver(dir, zap.NewNop()).WithEnvLookup(envMap(nil)).Load()
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Problems)
}

func TestLoadActiveProfileMustExist(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, BaseConfigFile, `
auth.token = tok
auth.email = a@b.c
jira.url = https://x.atlassian.net
jira.enabled = true
profile.active = nope
`)
	_, err := NewResolver(dir, zap.NewNop()).WithEnvLookup(envMap(nil)).Load()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Problems[0], "nope")
}

func TestLoadProfileOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, BaseConfigFile, `
auth.token = tok
auth.email = a@b.c
jira.url = https://x.atlassian.net
jira.enabled = true
confluence.url = https://x.atlassian.net/wiki
confluence.enabled = true
preferences.maxRetries = 3
profile.active = travel
profile.travel.maxRetries = 7
profile.travel.logLevel = debug
profile.travel.server.confluence.enabled = false
`)
	cfg, err := NewResolver(dir, zap.NewNop()).WithEnvLookup(envMap(nil)).Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Preferences.MaxRetries)
	assert.Equal(t, "debug", cfg.Preferences.LogLevel)
	assert.False(t, cfg.ProductConfig(ProductConfluence).Enabled)
	assert.True(t, cfg.ProductConfig(ProductJira).Live())
}

func TestLoadProfileCannotAddServers(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, BaseConfigFile, `
auth.token = tok
auth.email = a@b.c
jira.url = https://x.atlassian.net
jira.enabled = true
profile.active = extra
profile.extra.server.gitlab.url = https://gitlab.example.com
`)
	_, err := NewResolver(dir, zap.NewNop()).WithEnvLookup(envMap(nil)).Load()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Problems[0], "undeclared server")
}

func TestAtlassianEnvMapping(t *testing.T) {
	dir := t.TempDir()
	cfg, err := NewResolver(dir, zap.NewNop()).WithEnvLookup(envMap(map[string]string{
		"ATLASSIAN_JIRA_URL":     "https://env.atlassian.net/",
		"ATLASSIAN_JIRA_ENABLED": "true",
		"ATLASSIAN_EMAIL":        "env@example.com",
		"ATLASSIAN_API_TOKEN":    "env-secret",
	})).Load()
	require.NoError(t, err)

	assert.Equal(t, "https://env.atlassian.net", cfg.ProductConfig(ProductJira).URL)
	assert.Equal(t, "env@example.com", cfg.Credentials.Email)
	assert.Equal(t, "env-secret", cfg.Credentials.Secret)
}

func TestEnvVarForKey(t *testing.T) {
	assert.Equal(t, "MCP_APIKEYS_GITHUB", EnvVarForKey("apiKeys.github"))
	assert.Equal(t, "MCP_INSTANCE_NAME", EnvVarForKey("instance.name"))
}

// Precedence holds for every key in the core mapping table: env beats local
// beats base, with blank env values ignored.
func TestPrecedenceProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		key := rapid.SampledFrom([]string{
			"instance.name", "auth.email", "auth.token", "location", "browser",
			"preferences.theme", "preferences.logLevel",
		}).Draw(rt, "key")
		inBase := rapid.Bool().Draw(rt, "inBase")
		inLocal := rapid.Bool().Draw(rt, "inLocal")
		inEnv := rapid.Bool().Draw(rt, "inEnv")

		dir := t.TempDir()
		want := ""
		if inBase {
			writeConfigFile(t, dir, BaseConfigFile, key+"=from-base\n")
			want = "from-base"
		}
		if inLocal {
			writeConfigFile(t, dir, LocalConfigFile, key+"=from-local\n")
			want = "from-local"
		}
		env := map[string]string{}
		if inEnv {
			env[EnvVarForKey(key)] = "from-env"
			want = "from-env"
		}

		r := NewResolver(dir, zap.NewNop()).WithEnvLookup(envMap(env))
		merged, err := r.mergeLayers()
		if err != nil {
			rt.Fatalf("mergeLayers: %v", err)
		}
		if merged[key] != want {
			rt.Fatalf("key %s: got %q, want %q", key, merged[key], want)
		}
	})
}

func TestNormalizeURLIdempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		raw := rapid.StringMatching(`https?://[a-z0-9./-]{0,30}`).Draw(rt, "url")
		once := NormalizeURL(raw)
		assert.Equal(t, once, NormalizeURL(once))
	})
}

func TestParseBool(t *testing.T) {
	assert.True(t, ParseBool("true"))
	assert.True(t, ParseBool("TRUE"))
	assert.True(t, ParseBool("1"))
	assert.False(t, ParseBool("yes"))
	assert.False(t, ParseBool(""))
	assert.False(t, ParseBool("0"))
}

func TestEffectiveAuthType(t *testing.T) {
	cases := []struct {
		name     string
		variant  DeploymentVariant
		explicit AuthType
		want     AuthType
	}{
		{"cloud infers api token", VariantCloud, "", AuthAPIToken},
		{"data center infers pat", VariantDataCenter, "", AuthPersonalAccessToken},
		{"server infers pat", VariantServer, "", AuthPersonalAccessToken},
		{"explicit wins", VariantDataCenter, AuthAPIToken, AuthAPIToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &RuntimeConfig{Variant: tc.variant}
			cfg.Credentials.AuthType = tc.explicit
			assert.Equal(t, tc.want, cfg.EffectiveAuthType())
		})
	}
}
