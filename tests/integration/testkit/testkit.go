package testkit

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/sha1n/mcp-guide-search/internal/app"
	"github.com/sha1n/mcp-guide-search/internal/config"
)

// Service represents a test service that can be started and stopped
type Service interface {
	Start() (map[string]any, error)
	Stop() error
	GetName() string
}

// TestEnvContext provides access to properties collected during environment startup
type TestEnvContext interface {
	GetProperties() map[string]any
	GetProperty(name string) (any, bool)
}

// TestEnv manages the lifecycle of test services
type TestEnv interface {
	Start() (map[string]any, error)
	Stop() error
	GetContext() TestEnvContext
}

type testEnvContextImpl struct {
	properties map[string]any
}

func (c *testEnvContextImpl) GetProperties() map[string]any {
	return c.properties
}

func (c *testEnvContextImpl) GetProperty(name string) (any, bool) {
	val, ok := c.properties[name]
	return val, ok
}

type testEnvImpl struct {
	services []Service
	context  *testEnvContextImpl
}

// NewTestEnv creates a new test environment with the given services
func NewTestEnv(services ...Service) TestEnv {
	return &testEnvImpl{
		services: services,
		context:  &testEnvContextImpl{properties: make(map[string]any)},
	}
}

func (e *testEnvImpl) Start() (map[string]any, error) {
	for _, s := range e.services {
		props, err := s.Start()
		if err != nil {
			return nil, err
		}
		for k, v := range props {
			e.context.properties[k] = v
		}
	}
	return e.context.properties, nil
}

func (e *testEnvImpl) Stop() error {
	var lastErr error
	// Stop in reverse order
	for i := len(e.services) - 1; i >= 0; i-- {
		if err := e.services[i].Stop(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (e *testEnvImpl) GetContext() TestEnvContext {
	return e.context
}

// GetFreePort returns a free port from the kernel
func GetFreePort() (int, error) {
	return getFreePortWithAddr("localhost:0")
}

// MustGetFreePort returns a free port or fails the test
func MustGetFreePort(t testing.TB) int {
	t.Helper()
	port, err := GetFreePort()
	if err != nil {
		t.Fatalf("Failed to get free port: %v", err)
	}
	return port
}

func getFreePortWithAddr(addrStr string) (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", addrStr)
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer func() { _ = l.Close() }()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// FlagOptions configures NewTestFlags
type FlagOptions struct {
	Port      int    // Uses free port if 0
	Transport string // Defaults to "sse"
	Guide     string // Defaults to "guide.html"
	Host      string // Defaults to "localhost"
	Watch     bool
	AuthType  string // Left unset if empty
}

// NewTestFlags creates a configured pflag.FlagSet for testing
func NewTestFlags(t testing.TB, opts *FlagOptions) *pflag.FlagSet {
	t.Helper()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	app.RegisterFlags(flags)

	port := 0
	transport := "sse"
	guide := "guide.html"
	host := "localhost"
	watch := false

	if opts != nil {
		if opts.Port != 0 {
			port = opts.Port
		}
		if opts.Transport != "" {
			transport = opts.Transport
		}
		if opts.Guide != "" {
			guide = opts.Guide
		}
		if opts.Host != "" {
			host = opts.Host
		}
		watch = opts.Watch
	}

	if port == 0 {
		port = MustGetFreePort(t)
	}

	_ = flags.Set("port", fmt.Sprintf("%d", port))
	_ = flags.Set("transport", transport)
	_ = flags.Set("guide", guide)
	_ = flags.Set("host", host)
	if watch {
		_ = flags.Set("watch", "true")
	}
	if opts != nil && opts.AuthType != "" {
		_ = flags.Set("auth-type", opts.AuthType)
	}

	return flags
}

// GuideFile is a Service writing a study guide document to a temporary
// directory. Its path is published as the "guide_path" property.
type GuideFile struct {
	Content string

	dir  string
	path string
}

// Start writes the guide.
func (g *GuideFile) Start() (map[string]any, error) {
	dir, err := os.MkdirTemp("", "guide-search-*")
	if err != nil {
		return nil, err
	}
	g.dir = dir
	g.path = filepath.Join(dir, "guide.html")
	if err := g.Write(g.Content); err != nil {
		return nil, err
	}
	return map[string]any{"guide_path": g.path}, nil
}

// Write replaces the guide content.
func (g *GuideFile) Write(content string) error {
	if g.path == "" {
		return errors.New("guide file not started")
	}
	return os.WriteFile(g.path, []byte(content), 0644)
}

// Path returns the guide path, empty before Start.
func (g *GuideFile) Path() string {
	return g.path
}

// Stop removes the guide directory.
func (g *GuideFile) Stop() error {
	if g.dir == "" {
		return nil
	}
	return os.RemoveAll(g.dir)
}

// GetName returns the service name.
func (g *GuideFile) GetName() string {
	return "guide-file"
}

// SSEServer is a Service running the MCP server over SSE on a free port.
// The guide is taken from Guide, which must be started first. The SSE
// endpoint is published as the "sse_url" property.
type SSEServer struct {
	Guide  *GuideFile
	Search config.SearchSettings
	Watch  bool
	Auth   config.AuthSettings

	srv     *http.Server
	cleanup func()
}

// Start creates the server and waits for its health endpoint.
func (s *SSEServer) Start() (map[string]any, error) {
	port, err := GetFreePort()
	if err != nil {
		return nil, err
	}

	search := s.Search
	if search.SnippetLength == 0 {
		search.SnippetLength = 100
	}
	settings := &config.Settings{
		Transport: config.TransportSSE,
		Host:      "localhost",
		Port:      port,
		Auth:      s.Auth,
		Guide:     config.GuideSettings{Path: s.Guide.Path(), Watch: s.Watch},
		Search:    search,
	}
	if err := config.ValidateSettings(settings); err != nil {
		return nil, err
	}

	server, cleanup, err := app.CreateMCPServer(settings)
	if err != nil {
		return nil, err
	}
	s.srv, err = app.NewSSEServer(server, settings)
	if err != nil {
		cleanup()
		return nil, err
	}
	s.cleanup = cleanup

	l, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		_ = s.Stop()
		return nil, err
	}
	go func() { _ = s.srv.Serve(l) }()

	baseURL := fmt.Sprintf("http://%s", s.srv.Addr)
	if err := waitHealthy(baseURL+"/health", 5*time.Second); err != nil {
		_ = s.Stop()
		return nil, err
	}
	return map[string]any{"sse_url": baseURL + "/sse"}, nil
}

// Stop shuts the server down and closes the guide service.
func (s *SSEServer) Stop() error {
	var err error
	if s.srv != nil {
		err = s.srv.Close()
		s.srv = nil
	}
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
	return err
}

// GetName returns the service name.
func (s *SSEServer) GetName() string {
	return "sse-server"
}

func waitHealthy(url string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	return fmt.Errorf("server not healthy after %v: %s", timeout, url)
}
