package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/jukebox/internal/server"
	"github.com/desertthunder/jukebox/internal/shared"
	tu "github.com/desertthunder/jukebox/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Client.TokenPath = "/tmp/jukebox-test/token.json"
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			client := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/tmp/config.toml",
				HTTPClient: client,
				Logger:     logger,
				Output:     output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/tmp/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.httpClient != client {
				t.Error("expected httpClient to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.engine == nil {
				t.Error("expected export engine to be created")
			}
			if runner.tokens.Path() != "/tmp/jukebox-test/token.json" {
				t.Errorf("expected token path to be used, got %s", runner.tokens.Path())
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.config == nil {
				t.Fatal("expected default config")
			}
			if runner.config.Client.ItemsPerPage != 20 {
				t.Errorf("expected default items per page, got %d", runner.config.Client.ItemsPerPage)
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.logger == nil {
				t.Error("expected default logger")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.output != os.Stdout {
				t.Error("expected stdout")
			}
		})

		t.Run("with nil httpClient uses config timeout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.httpClient == nil {
				t.Fatal("expected default http client")
			}
			if runner.httpClient.Timeout != runner.config.Client.Timeout {
				t.Errorf("expected timeout %v, got %v", runner.config.Client.Timeout, runner.httpClient.Timeout)
			}
		})

		t.Run("expands token path", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if strings.HasPrefix(runner.tokens.Path(), "~") {
				t.Errorf("expected expanded token path, got %s", runner.tokens.Path())
			}
			if !strings.HasSuffix(runner.tokens.Path(), filepath.Join(".jukebox", "token.json")) {
				t.Errorf("unexpected token path %s", runner.tokens.Path())
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(output.String(), "\n  \"key\": \"value\"\n") {
				t.Errorf("expected indented JSON, got %q", output.String())
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]int{"id": 1}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "{\"id\":1}\n" {
				t.Errorf("expected compact JSON, got %q", output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: tu.NewLimitedWriter(1, &bytes.Buffer{})})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes formatted text", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("%s has %d songs\n", "Album", 12); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "Album has 12 songs\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			if err := runner.writePlain("text"); err == nil {
				t.Error("expected write error")
			}
			if err := runner.writePlainln("text"); err == nil {
				t.Error("expected write error")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		var names []string
		for _, c := range commands {
			names = append(names, c.Name)
		}
		for _, want := range []string{"setup", "serve", "auth", "albums", "singers", "songs", "export", "tui"} {
			if !strings.Contains(strings.Join(names, " "), want) {
				t.Errorf("expected %s command to be registered, got %v", want, names)
			}
		}

		var walk func([]*cli.Command)
		walk = func(cmds []*cli.Command) {
			for _, c := range cmds {
				if !c.DisableSliceFlagSeparator {
					t.Errorf("expected %s to keep comma separated slice values", c.Name)
				}
				walk(c.Commands)
			}
		}
		walk(commands)
	})
}

const testSecret = "0123456789abcdef0123456789abcdef0123456789abcdef"

// testEnv is a runner wired to a backend served from a temp database.
type testEnv struct {
	t      *testing.T
	runner *Runner
	output *bytes.Buffer
	config *shared.Config
	dir    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(dir, "jukebox.db")
	config.Client.TokenPath = filepath.Join(dir, "token.json")
	config.Server.JWTSecret = testSecret

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: shared.NewLogger(io.Discard),
		Output: output,
	})
	return &testEnv{t: t, runner: runner, output: output, config: config, dir: dir}
}

// startBackend serves the backend over the env's database and points the client config at it.
func (e *testEnv) startBackend() {
	e.t.Helper()

	db, err := e.runner.openDatabase()
	require.NoError(e.t, err)
	e.t.Cleanup(func() { db.Close() })

	srv, err := server.New(db, server.Options{Config: e.config.Server, Logger: shared.NewLogger(io.Discard)})
	require.NoError(e.t, err)

	ts := httptest.NewServer(srv.Handler())
	e.t.Cleanup(ts.Close)
	e.config.Client.BaseURL = ts.URL
}

// run executes args against a fresh command tree and returns what was written.
func (e *testEnv) run(args ...string) (string, error) {
	e.t.Helper()
	e.output.Reset()

	app := &cli.Command{
		Name:      "jukebox",
		Writer:    io.Discard,
		ErrWriter: io.Discard,
		Commands:  e.runner.register(),
	}
	err := app.Run(context.Background(), append([]string{"jukebox"}, args...))
	return e.output.String(), err
}

func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	require.NoError(e.t, err, "jukebox %s", strings.Join(args, " "))
	return out
}

func TestCommands(t *testing.T) {
	t.Run("setup config refuses to overwrite", func(t *testing.T) {
		env := newTestEnv(t)
		path := filepath.Join(env.dir, "config.toml")

		out := env.mustRun("setup", "config", "--config", path)
		assert.Contains(t, out, "Wrote "+path)
		tu.AssertFileExists(t, path)

		_, err := env.run("setup", "config", "--config", path)
		assert.Error(t, err)
	})

	t.Run("setup database and status", func(t *testing.T) {
		env := newTestEnv(t)

		env.mustRun("setup", "database")
		tu.AssertFileExists(t, env.config.Database.Path)

		out := env.mustRun("setup", "status")
		assert.Contains(t, out, "Migrations")
		assert.NotContains(t, out, "pending")
	})

	t.Run("entity commands require login", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.run("albums", "list")
		assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
	})

	t.Run("login failure", func(t *testing.T) {
		env := newTestEnv(t)
		resp := &http.Response{StatusCode: http.StatusUnauthorized, Body: io.NopCloser(strings.NewReader("{}")), Header: http.Header{}}
		env.runner.httpClient = &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}

		_, err := env.run("auth", "login", "--username", "admin", "--password", "wrong")
		assert.ErrorIs(t, err, shared.ErrAuthFailed)
		_, statErr := os.Stat(env.config.Client.TokenPath)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("bad arguments", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.run("songs", "get", "abc")
		assert.ErrorIs(t, err, shared.ErrInvalidID)

		_, err = env.run("songs", "list", "--page", "0")
		assert.ErrorIs(t, err, shared.ErrInvalidPage)

		_, err = env.run("songs", "list", "--sort", "nope,asc")
		assert.ErrorIs(t, err, shared.ErrInvalidSortField)

		_, err = env.run("songs", "list", "--sort", "title,desc", "--sort", "id")
		assert.ErrorIs(t, err, shared.ErrNotAuthenticated, "sort keys keep their direction")

		_, err = env.run("export", "--format", "xml")
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)
	})
}

func TestCatalogueWorkflow(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("setup", "user", "--login", "Admin", "--password", "secret",
		"--authority", "ROLE_ADMIN", "--authority", "ROLE_USER")
	assert.Contains(t, out, "Created user admin")

	env.startBackend()

	out = env.mustRun("auth", "login", "--username", "admin", "--password", "secret")
	assert.Contains(t, out, "Logged in as admin")
	tu.AssertFileExists(t, env.config.Client.TokenPath)

	out = env.mustRun("auth", "status", "--ping")
	assert.Contains(t, out, "User:        admin")
	assert.Contains(t, out, "ROLE_ADMIN")
	assert.Contains(t, out, "up")

	out = env.mustRun("singers", "create", "--data", `{"name":"Nina Simone"}`)
	assert.Contains(t, out, `"name": "Nina Simone"`)

	_, err := env.run("singers", "create", "--data", `{"id":4,"name":"Etta James"}`)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	env.mustRun("singers", "create", "--data", `{"name":"Billie Holiday"}`)

	out = env.mustRun("singers", "list", "--size", "1", "--sort", "name,asc")
	assert.Contains(t, out, "Billie Holiday")
	assert.NotContains(t, out, "Nina Simone")
	assert.Contains(t, out, "page 1/2 (2 total)")

	out = env.mustRun("singers", "list", "--json", "--sort", "id,desc")
	assert.True(t, strings.HasPrefix(out, `[{"id":2,"name":"Billie Holiday"}`), out)

	out = env.mustRun("singers", "get", "1", "--pretty=false")
	assert.Equal(t, "{\"id\":1,\"name\":\"Nina Simone\"}\n", out)

	out = env.mustRun("singers", "patch", "1", "--data", `{"name":"Nina"}`)
	assert.Contains(t, out, `"name": "Nina"`)

	_, err = env.run("singers", "update", "1", "--data", `{"id":2,"name":"Nina"}`)
	assert.ErrorIs(t, err, shared.ErrInvalidID)

	out = env.mustRun("singers", "update", "1", "--data", `{"name":"Eunice Waymon"}`)
	assert.Contains(t, out, `"name": "Eunice Waymon"`)

	exportDir := filepath.Join(env.dir, "export")
	out = env.mustRun("export", "--format", "csv", "--output", exportDir)
	assert.Contains(t, out, "Collections: 3/3 exported")
	tu.AssertFileExists(t, filepath.Join(exportDir, "singers.csv"))
	tu.AssertFileExists(t, filepath.Join(exportDir, "albums.csv"))
	tu.AssertFileExists(t, filepath.Join(exportDir, "export_manifest.json"))
	assert.Contains(t, tu.MustReadFile(t, filepath.Join(exportDir, "singers.csv")), "Eunice Waymon")

	out = env.mustRun("singers", "delete", "2")
	assert.Contains(t, out, "Singer 2 deleted")

	_, err = env.run("singers", "get", "2")
	assert.ErrorIs(t, err, shared.ErrAPIRequest)

	out = env.mustRun("songs", "list")
	assert.Contains(t, out, "No songs found")

	env.mustRun("auth", "logout")
	_, err = env.run("singers", "list")
	assert.ErrorIs(t, err, shared.ErrNotAuthenticated)

	out = env.mustRun("auth", "status")
	assert.Contains(t, out, "Not logged in")
}

func TestServe(t *testing.T) {
	env := newTestEnv(t)

	db, err := env.runner.openDatabase()
	require.NoError(t, err)
	defer db.Close()

	srv, err := server.New(db, server.Options{Config: env.config.Server, Logger: shared.NewLogger(io.Discard)})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.runner.serve(ctx, srv, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + healthPath)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancellation")
	}

	_, err = http.Get("http://" + ln.Addr().String() + healthPath)
	assert.Error(t, err)
}
