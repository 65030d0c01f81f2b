package cli

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/themizzi/scenariorunner/internal/config"
)

// mockHandler creates a simple test handler
func mockHandler(response string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(response))
	})
}

// createTestDeps creates ServerDependencies with mock handlers for every route
func createTestDeps(port string) ServerDependencies {
	return ServerDependencies{
		ServerConfig:      config.ServerConfig{Port: port},
		Logger:            zap.NewNop(),
		HomeHandler:       mockHandler("home"),
		RegisterHandler:   mockHandler("register"),
		LoginHandler:      mockHandler("login"),
		LogoutHandler:     mockHandler("logout"),
		DashboardHandler:  mockHandler("dashboard"),
		RetosHandler:      mockHandler("retos"),
		AnaliticasHandler: mockHandler("analiticas"),
		ModulosHandler:    mockHandler("modulos"),
	}
}

// startTestServer starts a server with the given dependencies and returns listener, server, and port
func startTestServer(t *testing.T, deps ServerDependencies) (net.Listener, *http.Server, int) {
	t.Helper()
	listener, server, err := StartServer(deps)
	if err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	return listener, server, port
}

// httpGet makes an HTTP GET request and returns response body and status
func httpGet(t *testing.T, url string) (string, int) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("Failed to make request to %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return string(body), resp.StatusCode
}

func TestStartServer_SuccessfulStartup(t *testing.T) {
	// GIVEN
	deps := createTestDeps("0")

	// WHEN
	listener, server, port := startTestServer(t, deps)
	defer listener.Close()
	defer server.Close()

	// THEN
	if port == 0 {
		t.Error("Expected non-zero port")
	}

	body, status := httpGet(t, fmt.Sprintf("http://localhost:%d/", port))
	if status != http.StatusOK {
		t.Errorf("Expected status 200, got %d", status)
	}
	if body != "home" {
		t.Errorf("Expected 'home', got '%s'", body)
	}
}

func TestStartServer_InvalidPort(t *testing.T) {
	// GIVEN
	deps := createTestDeps("99999") // Invalid port

	// WHEN
	listener, server, err := StartServer(deps)

	// THEN
	if err == nil {
		listener.Close()
		server.Close()
		t.Error("Expected error for invalid port, got nil")
	}
}

func TestStartServer_PortAlreadyInUse(t *testing.T) {
	// GIVEN
	existingListener, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("Failed to create test listener: %v", err)
	}
	defer existingListener.Close()

	port := existingListener.Addr().(*net.TCPAddr).Port
	deps := createTestDeps(fmt.Sprintf("%d", port))

	// WHEN
	listener, server, err := StartServer(deps)

	// THEN
	if err == nil {
		listener.Close()
		server.Close()
		t.Error("Expected error for port already in use, got nil")
	}
}

func TestStartServer_AllRoutesWork(t *testing.T) {
	// GIVEN
	deps := createTestDeps("0")

	// WHEN
	listener, server, port := startTestServer(t, deps)
	defer listener.Close()
	defer server.Close()

	baseURL := fmt.Sprintf("http://localhost:%d", port)

	// THEN
	testCases := []struct {
		path     string
		expected string
	}{
		{"/", "home"},
		{"/register", "register"},
		{"/login", "login"},
		{"/logout", "logout"},
		{"/panel-de-control", "dashboard"},
		{"/retos", "retos"},
		{"/analiticas", "analiticas"},
		{"/modulos", "modulos"},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			body, status := httpGet(t, baseURL+tc.path)
			if status != http.StatusOK {
				t.Errorf("Expected status 200, got %d", status)
			}
			if body != tc.expected {
				t.Errorf("Expected '%s', got '%s'", tc.expected, body)
			}
		})
	}
}

func TestStartServer_GracefulShutdown(t *testing.T) {
	// GIVEN
	deps := createTestDeps("0")
	listener, server, port := startTestServer(t, deps)
	defer listener.Close()

	_, status := httpGet(t, fmt.Sprintf("http://localhost:%d/", port))
	if status != http.StatusOK {
		t.Fatal("Server not responding")
	}

	// WHEN
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		t.Errorf("Failed to shutdown server gracefully: %v", err)
	}

	// THEN
	time.Sleep(100 * time.Millisecond)
	if _, err := http.Get(fmt.Sprintf("http://localhost:%d/", port)); err == nil {
		t.Error("Expected error after shutdown, server still responding")
	}
}

func TestWaitForShutdown_Signals(t *testing.T) {
	tests := []struct {
		name   string
		signal os.Signal
	}{
		{name: "SIGTERM", signal: syscall.SIGTERM},
		{name: "SIGINT", signal: syscall.SIGINT},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN
			listener, server, _ := startTestServer(t, createTestDeps("0"))
			defer listener.Close()

			shutdown := make(chan os.Signal, 1)

			// WHEN
			errCh := make(chan error, 1)
			go func() {
				errCh <- WaitForShutdown(server, shutdown, zap.NewNop())
			}()
			shutdown <- tt.signal

			// THEN
			select {
			case err := <-errCh:
				if err != nil {
					t.Errorf("Expected nil error, got: %v", err)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("WaitForShutdown did not complete")
			}
		})
	}
}

func TestWaitForShutdown_WithActiveRequests(t *testing.T) {
	// GIVEN
	deps := createTestDeps("0")
	deps.HomeHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte("done"))
	})

	listener, server, port := startTestServer(t, deps)
	defer listener.Close()

	requestComplete := make(chan error, 1)
	go func() {
		resp, err := http.Get(fmt.Sprintf("http://localhost:%d/", port))
		if err == nil {
			resp.Body.Close()
		}
		requestComplete <- err
	}()
	time.Sleep(50 * time.Millisecond)

	shutdown := make(chan os.Signal, 1)

	// WHEN
	errCh := make(chan error, 1)
	go func() {
		errCh <- WaitForShutdownWithTimeout(server, shutdown, 5*time.Second, nil)
	}()
	shutdown <- syscall.SIGTERM

	// THEN the in-flight request completes before the server stops
	select {
	case err := <-requestComplete:
		if err != nil {
			t.Errorf("Request failed during shutdown: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Request did not complete in time")
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Expected nil error, got: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("WaitForShutdown did not complete")
	}
}

func TestRunServe_StartupFailure(t *testing.T) {
	// GIVEN
	deps := createTestDeps("99999") // Invalid port

	// WHEN
	err := RunServe(deps)

	// THEN
	if err == nil {
		t.Error("Expected error for invalid port, got nil")
	}
}

func TestBuildServerDependencies_LoginFlow(t *testing.T) {
	// GIVEN the real stub target on a random port
	deps, err := BuildServerDependencies(config.ServerConfig{
		Port:         "0",
		DemoEmail:    config.DefaultDemoEmail,
		DemoPassword: config.DefaultDemoPassword,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to build dependencies: %v", err)
	}
	listener, server, port := startTestServer(t, deps)
	defer listener.Close()
	defer server.Close()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("Failed to create cookie jar: %v", err)
	}
	client := &http.Client{Jar: jar}
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	// WHEN signing in with the demo account
	resp, err := client.PostForm(baseURL+"/login", url.Values{
		"email":    {config.DefaultDemoEmail},
		"password": {config.DefaultDemoPassword},
	})
	if err != nil {
		t.Fatalf("Login request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	// THEN the client follows the redirect to the dashboard
	if resp.Request.URL.Path != "/panel-de-control" {
		t.Errorf("Expected to land on /panel-de-control, got %s", resp.Request.URL.Path)
	}
	if !strings.Contains(string(body), "Cerrar Sesión") {
		t.Error("Expected the dashboard to offer logout")
	}

	// WHEN logging out
	resp, err = client.PostForm(baseURL+"/logout", nil)
	if err != nil {
		t.Fatalf("Logout request failed: %v", err)
	}
	resp.Body.Close()

	// THEN the client is back on the login page and the dashboard is closed
	if resp.Request.URL.Path != "/login" {
		t.Errorf("Expected to land on /login, got %s", resp.Request.URL.Path)
	}
	resp, err = client.Get(baseURL + "/panel-de-control")
	if err != nil {
		t.Fatalf("Dashboard request failed: %v", err)
	}
	resp.Body.Close()
	if resp.Request.URL.Path != "/login" {
		t.Errorf("Expected anonymous dashboard visit to redirect to /login, got %s", resp.Request.URL.Path)
	}
}

// BenchmarkStartServer benchmarks server startup
func BenchmarkStartServer(b *testing.B) {
	deps := createTestDeps("0")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		listener, server, err := StartServer(deps)
		if err != nil {
			b.Fatalf("Failed to start server: %v", err)
		}
		server.Close()
		listener.Close()
	}
}
