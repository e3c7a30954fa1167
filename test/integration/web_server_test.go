//go:build integration

package integration

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBinary compiles cmd/tripcarbon into a temp dir.
func buildBinary(t *testing.T) string {
	t.Helper()
	binaryPath := filepath.Join(t.TempDir(), "tripcarbon")
	rootDir, err := filepath.Abs("../..")
	require.NoError(t, err)

	cmdBuild := exec.Command("go", "build", "-o", binaryPath, "./cmd/tripcarbon")
	cmdBuild.Dir = rootDir
	output, err := cmdBuild.CombinedOutput()
	require.NoError(t, err, "Build failed: %s", string(output))
	return binaryPath
}

// waitForAddr reads JSON log lines until the HTTP server reports its address.
func waitForAddr(t *testing.T, r io.Reader) string {
	t.Helper()
	found := make(chan string, 1)

	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			var entry struct {
				Message string `json:"message"`
				Addr    string `json:"addr"`
			}
			if json.Unmarshal(scanner.Bytes(), &entry) != nil {
				continue
			}
			if entry.Message == "starting HTTP server" {
				found <- entry.Addr
				// Keep draining so the child never blocks on a full pipe.
				_, _ = io.Copy(io.Discard, r)
				return
			}
		}
	}()

	select {
	case addr := <-found:
		return addr
	case <-time.After(10 * time.Second):
		return ""
	}
}

// startServer runs "tripcarbon serve" with env and returns its base URL.
func startServer(t *testing.T, binaryPath string, env ...string) string {
	t.Helper()
	cmd := exec.Command(binaryPath, "serve", "--http-addr", "127.0.0.1:0", "--grpc-addr", "")
	cmd.Env = append(os.Environ(), env...)

	stderr, err := cmd.StderrPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	})

	addr := waitForAddr(t, stderr)
	require.NotEmpty(t, addr, "failed to get listen address")
	t.Logf("Server listening on %s", addr)
	return "http://" + addr
}

func TestWebServer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	binaryPath := buildBinary(t)
	baseURL := startServer(t, binaryPath,
		"TRIPCARBON_STORE=sqlite",
		"TRIPCARBON_STORE_PATH="+filepath.Join(t.TempDir(), "wizard.db"),
	)

	client := &http.Client{Timeout: 5 * time.Second}
	post := func(path, body string) (int, map[string]any) {
		resp, err := client.Post(baseURL+path, "application/json", bytes.NewBufferString(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		var out map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return resp.StatusCode, out
	}

	t.Run("Calculate", func(t *testing.T) {
		status, body := post("/api/v1/calculate", `{
			"origin": {"state": "SP", "city": "São Paulo"},
			"transport": {"vehicle": "Carro", "fuel": "Flex"}
		}`)
		assert.Equal(t, http.StatusOK, status)
		formatted, ok := body["formatted"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "R$ 9,84", formatted["compensationValue"])
		assert.Equal(t, true, body["minimumApplied"])
	})

	t.Run("Session Flow", func(t *testing.T) {
		status, sess := post("/api/v1/sessions", "")
		require.Equal(t, http.StatusCreated, status)
		id, ok := sess["id"].(string)
		require.True(t, ok)

		steps := []struct {
			path string
			body string
			want string
		}{
			{"login", `{"cpf": "123.456.789-00", "phone": "(11) 98765-4321"}`, "origin"},
			{"origin", `{"state": "SP", "city": "São Paulo"}`, "transport"},
			{"transport", `{"vehicle": "Ônibus", "fuel": "Diesel"}`, "calculation"},
			{"distance", `{"distance": 2000}`, "calculation"},
			{"result", "", "result"},
			{"payment", "", "payment"},
			{"payment/confirm", "", "success"},
		}
		for _, step := range steps {
			status, sess = post(fmt.Sprintf("/api/v1/sessions/%s/%s", id, step.path), step.body)
			require.Equal(t, http.StatusOK, status, "step %s: %v", step.path, sess)
			assert.Equal(t, step.want, sess["stepName"], "step %s", step.path)
		}

		formatted, ok := sess["formatted"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "R$ 20,00", formatted["compensationValue"])
	})

	t.Run("Health Endpoint", func(t *testing.T) {
		resp, err := client.Get(baseURL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("Metrics Endpoint", func(t *testing.T) {
		resp, err := client.Get(baseURL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(raw), "tripcarbon_calculations_total"))
	})
}

func TestCORS(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	binaryPath := buildBinary(t)

	tests := []struct {
		name         string
		env          []string
		origin       string
		expectCors   bool
		expectOrigin string
	}{
		{
			name:         "Basic CORS Success",
			env:          []string{"TRIPCARBON_CORS_ALLOWED_ORIGINS=http://localhost:3000"},
			origin:       "http://localhost:3000",
			expectCors:   true,
			expectOrigin: "http://localhost:3000",
		},
		{
			name:       "CORS No Match",
			env:        []string{"TRIPCARBON_CORS_ALLOWED_ORIGINS=http://localhost:3000"},
			origin:     "http://evil.com",
			expectCors: false,
		},
		{
			name:         "Wildcard",
			env:          []string{"TRIPCARBON_CORS_ALLOWED_ORIGINS=*"},
			origin:       "http://kiosk.local",
			expectCors:   true,
			expectOrigin: "*",
		},
		{
			name:       "Disabled",
			origin:     "http://localhost:3000",
			expectCors: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			baseURL := startServer(t, binaryPath, tt.env...)

			// Preflight
			req, err := http.NewRequest(http.MethodOptions, baseURL+"/api/v1/calculate", nil)
			require.NoError(t, err)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", "POST")

			client := &http.Client{Timeout: 2 * time.Second}
			resp, err := client.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			if tt.expectCors {
				assert.Equal(t, tt.expectOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
				assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "X-Trace-ID")
			} else {
				assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
			}
		})
	}

	t.Run("Invalid Configuration", func(t *testing.T) {
		cmd := exec.Command(binaryPath, "serve", "--store", "redis")
		output, err := cmd.CombinedOutput()
		assert.Error(t, err, "process should have failed")
		assert.Contains(t, string(output), "invalid configuration")
	})
}
