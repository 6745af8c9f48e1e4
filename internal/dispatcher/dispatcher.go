// Package dispatcher is the single entry point for tool invocations: it
// routes a tool name plus string arguments to the right client or engine,
// formats the result, and folds every failure into a ToolResponse envelope.
// No error crosses the stdio boundary.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"mcpatlas-go/internal/apperrors"
	"mcpatlas-go/internal/config"
	"mcpatlas-go/internal/discovery"
	"mcpatlas-go/internal/export"
	"mcpatlas-go/internal/format"
	"mcpatlas-go/internal/httpengine"
	"mcpatlas-go/internal/products/bitbucket"
	"mcpatlas-go/internal/products/confluence"
	"mcpatlas-go/internal/products/jira"
	"mcpatlas-go/internal/scrape"
	"mcpatlas-go/internal/vault"
)

// Response is the wire envelope for one tool invocation.
type Response struct {
	Product string  `json:"product"`
	Tool    string  `json:"tool"`
	Success bool    `json:"success"`
	Content string  `json:"content"`
	Error   *string `json:"error"`
}

// toolSpec declares one tool: its owning product, the arguments that must
// be present and non-blank, the arguments that must parse as positive
// integers, and the handler.
type toolSpec struct {
	product  config.Product
	required []string
	numeric  []string
	handler  func(ctx context.Context, args map[string]string) (string, error)
}

// Dispatcher owns the flat tool table. Safe for concurrent use; the only
// mutable state is the last discovery result kept for exports.
type Dispatcher struct {
	cfg        *config.RuntimeConfig
	jira       *jira.Client
	confluence *confluence.Client
	bitbucket  *bitbucket.Client
	store      *vault.Store
	discover   *discovery.Engine
	scraper    *scrape.Scraper
	exporter   *export.Exporter
	logger     *zap.Logger

	tools map[string]toolSpec

	mu   sync.Mutex
	last *discovery.Result
}

// New wires the dispatcher. Clients are built only for live products;
// calls against a dead product fail with a config kind, not a panic.
func New(cfg *config.RuntimeConfig, engine *httpengine.Engine, store *vault.Store,
	scraper *scrape.Scraper, exporter *export.Exporter, logger *zap.Logger) *Dispatcher {

	d := &Dispatcher{
		cfg:      cfg,
		store:    store,
		discover: discovery.New(store, logger),
		scraper:  scraper,
		exporter: exporter,
		logger:   logger,
	}
	if pc := cfg.ProductConfig(config.ProductJira); pc.Live() {
		d.jira = jira.New(pc, engine, logger)
	}
	if pc := cfg.ProductConfig(config.ProductConfluence); pc.Live() {
		d.confluence = confluence.New(pc, engine, logger)
	}
	if pc := cfg.ProductConfig(config.ProductBitbucket); pc.Live() {
		d.bitbucket = bitbucket.New(pc, engine, logger)
	}
	d.tools = d.buildTable()
	return d
}

// ToolInfo describes one registered tool for external registration
// surfaces.
type ToolInfo struct {
	Name     string
	Product  string
	Required []string
	Numeric  []string
}

// ToolInfos returns the registered tools sorted by name.
func (d *Dispatcher) ToolInfos() []ToolInfo {
	infos := make([]ToolInfo, 0, len(d.tools))
	for name, spec := range d.tools {
		infos = append(infos, ToolInfo{
			Name:     name,
			Product:  string(spec.product),
			Required: append([]string(nil), spec.required...),
			Numeric:  append([]string(nil), spec.numeric...),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// ListTools returns the registered tool names sorted.
func (d *Dispatcher) ListTools() []string {
	names := make([]string, 0, len(d.tools))
	for name := range d.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs one tool call under the shared per-call deadline.
func (d *Dispatcher) Dispatch(ctx context.Context, tool string, args map[string]string) Response {
	name := strings.ToLower(strings.TrimSpace(tool))
	spec, ok := d.tools[name]
	if !ok {
		return fail(config.ProductSystem, name,
			fmt.Sprintf("Unknown tool: '%s'. Run with --list-tools to see the registered tools.", name))
	}
	if args == nil {
		args = map[string]string{}
	}

	for _, key := range spec.required {
		if strings.TrimSpace(args[key]) == "" {
			return fail(spec.product, name, fmt.Sprintf("Missing required argument: '%s'", key))
		}
	}
	for _, key := range spec.numeric {
		raw := strings.TrimSpace(args[key])
		if raw == "" {
			continue
		}
		if n, err := strconv.Atoi(raw); err != nil || n <= 0 {
			return fail(spec.product, name,
				fmt.Sprintf("Argument '%s' must be a positive integer, got '%s'", key, raw))
		}
	}

	timeout := time.Duration(d.cfg.Preferences.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(config.DefaultTimeoutSeconds) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	content, err := spec.handler(ctx, args)
	if err != nil {
		msg := errorMessage(spec.product, err)
		d.logger.Warn("tool failed",
			zap.String("tool", name),
			zap.String("error", msg),
			zap.Duration("took", time.Since(start)))
		return fail(spec.product, name, msg)
	}

	if limit := d.cfg.Preferences.ToolResponseLimit; limit > 0 {
		content = format.Truncate(content, limit)
	}
	d.logger.Debug("tool ok", zap.String("tool", name), zap.Duration("took", time.Since(start)))
	return Response{Product: string(spec.product), Tool: name, Success: true, Content: content}
}

// errorMessage renders "<product>: <kind>: <detail>". Foreign errors get no
// kind segment.
func errorMessage(product config.Product, err error) string {
	var ae *apperrors.Error
	if errors.As(err, &ae) {
		return fmt.Sprintf("%s: %s", product, ae.Error())
	}
	return fmt.Sprintf("%s: %s", product, err.Error())
}

func fail(product config.Product, tool, message string) Response {
	return Response{Product: string(product), Tool: tool, Success: false, Error: &message}
}

// notConfigured is returned when a tool's product has no live backend.
func notConfigured(p config.Product) error {
	return apperrors.New(apperrors.KindConfigValidation,
		"product %s is not configured; set its URL and enable it", p)
}

// argInt returns the already-validated numeric argument, or def when blank.
func argInt(args map[string]string, key string, def int) int {
	raw := strings.TrimSpace(args[key])
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func (d *Dispatcher) setLastResult(res discovery.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = &res
}

func (d *Dispatcher) lastResult() (discovery.Result, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.last == nil {
		return discovery.Result{}, false
	}
	return *d.last, true
}
