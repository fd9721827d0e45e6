// Package integration provides a reusable test harness for end-to-end
// testing of the slate layout server. It starts a full HTTP server with an
// in-memory layout store and the builtin component catalog.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/slatehq/slate/internal/component"
	"github.com/slatehq/slate/internal/config"
	"github.com/slatehq/slate/internal/layout"
	"github.com/slatehq/slate/internal/observability"
	"github.com/slatehq/slate/internal/provider"
	"github.com/slatehq/slate/internal/render"
	"github.com/slatehq/slate/internal/schema"
	"github.com/slatehq/slate/internal/transport"
	"github.com/slatehq/slate/model"
)

// TestHarness encapsulates a fully wired slate instance for integration
// testing.
type TestHarness struct {
	t      *testing.T
	server *httptest.Server

	// Internal components exposed for advanced test scenarios.
	Layouts    *layout.Registry
	Components *component.Registry
	Validator  *schema.Validator
	Renderer   *render.Renderer
	Providers  *provider.Manager
	Store      provider.Store

	layoutDir string
}

// HarnessOption configures the test harness.
type HarnessOption func(*harnessConfig)

type harnessConfig struct {
	layoutFiles    map[string]string
	store          provider.Store
	failOnInvalid  bool
	handlerTimeout time.Duration
}

// WithLayoutYAML adds a layout file to the harness's layout directory in
// place of the default fixtures.
func WithLayoutYAML(name, content string) HarnessOption {
	return func(c *harnessConfig) {
		c.layoutFiles[name] = content
	}
}

// WithStore replaces the default in-memory layout-choice store.
func WithStore(store provider.Store) HarnessOption {
	return func(c *harnessConfig) {
		c.store = store
	}
}

// WithFailOnInvalid makes harness startup fail when any layout file is
// invalid, mirroring layouts.fail_on_invalid.
func WithFailOnInvalid() HarnessOption {
	return func(c *harnessConfig) {
		c.failOnInvalid = true
	}
}

// WithHandlerTimeout sets the per-request handler timeout.
func WithHandlerTimeout(d time.Duration) HarnessOption {
	return func(c *harnessConfig) {
		c.handlerTimeout = d
	}
}

// NewTestHarness creates and starts a full slate test instance. The server
// is automatically cleaned up when the test completes.
func NewTestHarness(t *testing.T, opts ...HarnessOption) *TestHarness {
	t.Helper()

	hc := &harnessConfig{
		layoutFiles:    map[string]string{},
		handlerTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(hc)
	}
	if len(hc.layoutFiles) == 0 {
		hc.layoutFiles = defaultFixtures()
	}
	if hc.store == nil {
		hc.store = provider.NewMemStore()
	}

	h := &TestHarness{t: t, Store: hc.store}

	// Step 1: Write layout fixtures to a temp directory.
	h.layoutDir = t.TempDir()
	for name, content := range hc.layoutFiles {
		if err := os.WriteFile(filepath.Join(h.layoutDir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write layout fixture %s: %v", name, err)
		}
	}

	// Step 2: Components and validator.
	h.Components = component.NewRegistry()
	if err := component.RegisterBuiltins(h.Components); err != nil {
		t.Fatalf("register builtins: %v", err)
	}
	h.Validator = schema.NewValidator(h.Components, schema.DefaultOptions())

	// Step 3: Load and validate layouts, keeping only valid ones.
	docs, err := layout.NewLoader().LoadAll([]string{h.layoutDir})
	if err != nil {
		t.Fatalf("load layouts: %v", err)
	}
	report := h.Validator.ValidateAll(docs)
	var configs []model.LayoutConfiguration
	for i, result := range report.Results {
		if !result.Valid || docs[i].Config == nil {
			if hc.failOnInvalid {
				t.Fatalf("invalid layout fixture %s: %v", docs[i].SourceFile, result.Errors)
			}
			continue
		}
		configs = append(configs, *docs[i].Config)
	}
	h.Layouts = layout.NewRegistry(configs)

	// Step 4: Renderer and providers.
	h.Renderer = render.NewRenderer(h.Components, render.Options{
		CacheTTL:  time.Minute,
		Validator: h.Validator,
	}, zap.NewNop())
	h.Providers = provider.NewManager(h.Layouts, h.Store, zap.NewNop())

	// Step 5: Router and server.
	cfg := config.Defaults()
	cfg.Server.HandlerTimeout = hc.handlerTimeout
	cfg.Observability.Metrics.Enabled = false
	health := observability.NewHealth()
	health.SetReady(true)

	router := transport.NewRouter(transport.Dependencies{
		Config:     cfg,
		Logger:     zap.NewNop(),
		Layouts:    h.Layouts,
		Components: h.Components,
		Validator:  h.Validator,
		Renderer:   h.Renderer,
		Providers:  h.Providers,
		Health:     health,
		Metrics:    observability.InitMetrics(prometheus.NewRegistry()),
	})

	h.server = httptest.NewServer(router)
	t.Cleanup(h.server.Close)

	return h
}

// BaseURL returns the test server's base URL.
func (h *TestHarness) BaseURL() string {
	return h.server.URL
}

// LayoutDir returns the directory holding the layout fixtures.
func (h *TestHarness) LayoutDir() string {
	return h.layoutDir
}

// GET performs a GET request against the test server.
func (h *TestHarness) GET(path string) *http.Response {
	return h.doRequest(http.MethodGet, path, nil)
}

// POST performs a POST request with a JSON body.
func (h *TestHarness) POST(path string, body any) *http.Response {
	return h.doRequest(http.MethodPost, path, body)
}

// PUT performs a PUT request with a JSON body.
func (h *TestHarness) PUT(path string, body any) *http.Response {
	return h.doRequest(http.MethodPut, path, body)
}

func (h *TestHarness) doRequest(method, path string, body any) *http.Response {
	h.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			h.t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, h.server.URL+path, reader)
	if err != nil {
		h.t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.server.Client().Do(req)
	if err != nil {
		h.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// ParseJSON decodes the response body into target and closes it.
func (h *TestHarness) ParseJSON(resp *http.Response, target any) {
	h.t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		h.t.Fatalf("decode response: %v", err)
	}
}

// ReadBody reads and closes the response body.
func (h *TestHarness) ReadBody(resp *http.Response) []byte {
	h.t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		h.t.Fatalf("read response body: %v", err)
	}
	return data
}

// AssertStatus fails the test if the response status differs from expected.
func (h *TestHarness) AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body := h.ReadBody(resp)
		t.Fatalf("status = %d, want %d; body: %s", resp.StatusCode, expected, body)
	}
}

// defaultFixtures returns the standard layout set: two organization layouts
// (org-list tagged default) and one contact layout.
func defaultFixtures() map[string]string {
	return map[string]string{
		"org-list.yaml":     orgLayoutYAML("org-list", "default"),
		"org-kanban.yaml":   orgLayoutYAML("org-kanban"),
		"contact-list.yaml": contactLayoutYAML,
	}
}

func orgLayoutYAML(id string, extraTags ...string) string {
	tags := `[test`
	for _, tag := range extraTags {
		tags += ", " + tag
	}
	tags += `]`
	return fmt.Sprintf(`
id: %s
name: %s
version: 1.0.0
type: slots
entityType: organizations
metadata:
  displayName: %s
  description: Organization layout fixture
  category: list
  tags: %s
  createdAt: "2025-01-01T00:00:00Z"
structure:
  slots:
    - id: header
      type: header
      name: Header
      required: false
      multiple: false
      defaultComponent: page-header
    - id: main
      type: content
      name: Main
      required: true
      multiple: false
      defaultComponent: data-table
      props:
        itemsPath: "$.rows"
  composition:
    requiredSlots: [main]
    slotOrder: [header, main]
persistChanges: true
`, id, id, id, tags)
}

const contactLayoutYAML = `
id: contact-list
name: Contact List
version: 1.0.0
type: slots
entityType: contacts
metadata:
  displayName: Contacts
  description: Contact layout fixture
  category: list
  tags: [test, default]
  createdAt: "2025-01-01T00:00:00Z"
structure:
  slots:
    - id: main
      type: content
      name: Main
      required: true
      multiple: false
      defaultComponent: entity-card
persistChanges: true
`
