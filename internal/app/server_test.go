package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sha1n/mcp-guide-search/internal/config"
)

func newTestMCPServer() *mcp.Server {
	impl := &mcp.Implementation{Name: "test", Version: "1.0"}
	return mcp.NewServer(impl, nil)
}

func TestNewSSEServer(t *testing.T) {
	tests := []struct {
		name    string
		auth    config.AuthSettings
		wantErr bool
	}{
		{"no auth", config.AuthSettings{Type: config.AuthTypeNone}, false},
		{"basic auth", config.AuthSettings{
			Type:  config.AuthTypeBasic,
			Basic: config.BasicAuthSettings{Username: "admin", Password: "secret"},
		}, false},
		{"api key auth", config.AuthSettings{Type: config.AuthTypeAPIKey, APIKeys: []string{"key1"}}, false},
		{"basic auth without password", config.AuthSettings{
			Type:  config.AuthTypeBasic,
			Basic: config.BasicAuthSettings{Username: "admin"},
		}, true},
		{"unknown auth", config.AuthSettings{Type: "oauth"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := &config.Settings{Host: "localhost", Port: 8080, Auth: tt.auth}

			srv, err := NewSSEServer(newTestMCPServer(), settings)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error for invalid auth settings")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if srv.Addr != "localhost:8080" {
				t.Errorf("Expected addr 'localhost:8080', got '%s'", srv.Addr)
			}
		})
	}
}

func TestStartSSEServer_InvalidAuth(t *testing.T) {
	settings := &config.Settings{Host: "localhost", Port: 8080, Auth: config.AuthSettings{Type: "oauth"}}
	if err := StartSSEServer(newTestMCPServer(), settings); err == nil {
		t.Error("Expected error for unknown auth type")
	}
}

func TestNewSSEServer_HealthEndpoint(t *testing.T) {
	srv, err := NewSSEServer(newTestMCPServer(), &config.Settings{Host: "localhost", Port: 8080})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("Expected body 'ok', got '%s'", rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != "text/plain; charset=utf-8" {
		t.Errorf("Expected Content-Type 'text/plain; charset=utf-8', got '%s'", rec.Header().Get("Content-Type"))
	}
}

func TestNewSSEServer_UnknownPath(t *testing.T) {
	srv, err := NewSSEServer(newTestMCPServer(), &config.Settings{Host: "localhost", Port: 8080})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	req := httptest.NewRequest("GET", "/search", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestNewSSEServer_AuthenticatedRoutes(t *testing.T) {
	basic := config.AuthSettings{
		Type:  config.AuthTypeBasic,
		Basic: config.BasicAuthSettings{Username: "admin", Password: "secret"},
	}
	apiKey := config.AuthSettings{Type: config.AuthTypeAPIKey, APIKeys: []string{"key1"}}

	tests := []struct {
		name       string
		auth       config.AuthSettings
		path       string
		wantStatus int
	}{
		{"health bypasses basic auth", basic, "/health", http.StatusOK},
		{"health bypasses api key auth", apiKey, "/health", http.StatusOK},
		{"sse requires basic auth", basic, "/sse", http.StatusUnauthorized},
		{"sse requires api key", apiKey, "/sse", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, err := NewSSEServer(newTestMCPServer(), &config.Settings{Host: "localhost", Port: 8080, Auth: tt.auth})
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			req := httptest.NewRequest("GET", tt.path, nil)
			rec := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}
