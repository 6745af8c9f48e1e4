// Package config implements the layered configuration resolver: committed
// properties file, optional developer-local overrides, then environment
// variables, merged into one immutable RuntimeConfig shared by every
// subsystem for the life of the process.
package config

import (
	"strings"
)

// DeploymentVariant is the flavor of the remote Atlassian deployment.
type DeploymentVariant string

const (
	VariantCloud      DeploymentVariant = "CLOUD"
	VariantDataCenter DeploymentVariant = "DATA_CENTER"
	VariantServer     DeploymentVariant = "SERVER"
	VariantCustom     DeploymentVariant = "CUSTOM"
)

// ParseVariant matches case-insensitively and falls back to CUSTOM.
func ParseVariant(s string) DeploymentVariant {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CLOUD":
		return VariantCloud
	case "DATA_CENTER", "DATACENTER", "DATA-CENTER":
		return VariantDataCenter
	case "SERVER":
		return VariantServer
	default:
		return VariantCustom
	}
}

// SelfManaged reports whether the variant is operated on-premises.
func (v DeploymentVariant) SelfManaged() bool {
	return v == VariantDataCenter || v == VariantServer
}

// AuthType selects the authentication header scheme.
type AuthType string

const (
	AuthAPIToken            AuthType = "API_TOKEN"
	AuthPersonalAccessToken AuthType = "PERSONAL_ACCESS_TOKEN"
)

// ParseAuthType matches case-insensitively; unknown values return ok=false.
func ParseAuthType(s string) (AuthType, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "API_TOKEN", "APITOKEN":
		return AuthAPIToken, true
	case "PERSONAL_ACCESS_TOKEN", "PAT":
		return AuthPersonalAccessToken, true
	default:
		return "", false
	}
}

// ServerKind distinguishes HTTP-backed products from stdio-spawned ones.
type ServerKind string

const (
	ServerKindHTTP  ServerKind = "http"
	ServerKindStdio ServerKind = "stdio"
)

// Product identifies one of the surfaces the gateway routes to.
type Product string

const (
	ProductJira       Product = "jira"
	ProductConfluence Product = "confluence"
	ProductBitbucket  Product = "bitbucket"
	ProductLearning   Product = "learning"
	ProductSystem     Product = "system"
)

// Products lists the remote products in registration order.
var Products = []Product{ProductJira, ProductConfluence, ProductBitbucket}

// Credentials authenticate against all live products.
type Credentials struct {
	Email    string
	Secret   string
	AuthType AuthType
}

// ProductConfig is the per-product block of the runtime profile.
type ProductConfig struct {
	Product   Product
	Kind      ServerKind
	URL       string // normalized, no trailing slash
	Command   string // stdio kind only
	Enabled   bool
	Workspace string // bitbucket default workspace
}

// Live reports whether the product takes traffic: enabled with a usable URL.
func (p ProductConfig) Live() bool {
	return p.Enabled && p.Kind == ServerKindHTTP && p.URL != ""
}

// Preferences hold tunables a profile may overlay.
type Preferences struct {
	Theme             string
	LogLevel          string
	MaxRetries        int
	TimeoutSeconds    int
	ToolResponseLimit int
}

// HTTPTimeouts in milliseconds, applied by the HTTP engine.
type HTTPTimeouts struct {
	ConnectMs int
	ReadMs    int
}

// LogConfig configures the zap logger setup.
type LogConfig struct {
	Level         string
	EnableFile    bool
	EnableConsole bool
	Filename      string
	LogDir        string
	MaxSize       int // megabytes
	MaxBackups    int
	MaxAge        int // days
	Compress      bool
	JSONFormat    bool
}

// Profile is a named bundle of additive overrides. Pointer fields
// distinguish "unset" from explicit values; unset fields overlay nothing.
type Profile struct {
	Name            string
	Theme           *string
	LogLevel        *string
	MaxRetries      *int
	TimeoutSeconds  *int
	Location        *string
	Browser         *string
	ServerOverrides map[Product]ServerOverride
}

// ServerOverride patches fields on an already-declared product block.
// Overrides never introduce new products.
type ServerOverride struct {
	URL     *string
	Enabled *bool
	Command *string
}

// RuntimeConfig is the immutable validated profile built once at startup.
type RuntimeConfig struct {
	InstanceName string
	Variant      DeploymentVariant
	Credentials  Credentials
	Timeouts     HTTPTimeouts
	Preferences  Preferences
	Location     string
	Browser      string
	DataDir      string
	Logging      LogConfig

	products map[Product]ProductConfig

	// ListToolsOnly permits startup with no live product.
	ListToolsOnly bool
}

// Defaults used by the resolver when a key is absent or unparseable.
const (
	DefaultConnectTimeoutMs = 10000
	DefaultReadTimeoutMs    = 30000
	DefaultMaxRetries       = 3
	DefaultTimeoutSeconds   = 60
	DefaultInstanceName     = "unconfigured"
)

// NewRuntimeConfig builds a config programmatically with library defaults,
// for callers that bypass the file resolver.
func NewRuntimeConfig(products ...ProductConfig) *RuntimeConfig {
	cfg := &RuntimeConfig{
		InstanceName: DefaultInstanceName,
		Timeouts:     HTTPTimeouts{ConnectMs: DefaultConnectTimeoutMs, ReadMs: DefaultReadTimeoutMs},
		Preferences:  Preferences{MaxRetries: DefaultMaxRetries, TimeoutSeconds: DefaultTimeoutSeconds},
		products:     make(map[Product]ProductConfig, len(products)),
	}
	for _, pc := range products {
		cfg.products[pc.Product] = pc
	}
	return cfg
}

// ProductConfig returns the block for p; absent products are inactive.
func (c *RuntimeConfig) ProductConfig(p Product) ProductConfig {
	if pc, ok := c.products[p]; ok {
		return pc
	}
	return ProductConfig{Product: p, Kind: ServerKindHTTP}
}

// LiveProducts returns the products that are enabled with a non-blank URL,
// in stable registration order.
func (c *RuntimeConfig) LiveProducts() []Product {
	var live []Product
	for _, p := range Products {
		if c.ProductConfig(p).Live() {
			live = append(live, p)
		}
	}
	return live
}

// AnyLive reports whether at least one product takes traffic.
func (c *RuntimeConfig) AnyLive() bool {
	return len(c.LiveProducts()) > 0
}

// EffectiveAuthType returns the explicit auth type when set, otherwise the
// variant-inferred one: self-managed deployments use PATs, cloud API tokens.
func (c *RuntimeConfig) EffectiveAuthType() AuthType {
	if c.Credentials.AuthType != "" {
		return c.Credentials.AuthType
	}
	if c.Variant.SelfManaged() {
		return AuthPersonalAccessToken
	}
	return AuthAPIToken
}

// NormalizeURL trims whitespace and trailing slashes. Trimming the whole
// run of slashes keeps the function idempotent.
func NormalizeURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// ParseBool accepts "true" and "1" (case-insensitive) as true, all else false.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		return true
	default:
		return false
	}
}
