package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"blogledger/app/middleware"
	"blogledger/app/models"
	"blogledger/app/pda"
	"blogledger/app/repositories"
	"blogledger/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command with an isolated environment and
// returns what it wrote to stdout.
func runCLI(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BLOGLEDGER_DATABASE_PATH", dbPath)

	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func field(t *testing.T, out, name string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if v, ok := strings.CutPrefix(line, name+": "); ok {
			return v
		}
	}
	t.Fatalf("no %q in output %q", name, out)
	return ""
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Equal(t, "blogledger version "+version+"\n", out)
}

func TestDeriveCommand(t *testing.T) {
	programID, err := models.ParsePubkey(config.DefaultProgramID)
	require.NoError(t, err)
	deriver := pda.NewDeriver(programID)
	author := models.Pubkey{7, 7, 7}

	blog, err := deriver.Blog(author)
	require.NoError(t, err)
	comment, err := deriver.Comment(author, 4, 9)
	require.NoError(t, err)

	out, err := runCLI(t, t.TempDir(), "derive", "blog", author.String())
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("address: %s\nbump: %d\n", blog.Address, blog.Bump), out)

	out, err = runCLI(t, t.TempDir(), "derive", "comment", author.String(), "4", "9")
	require.NoError(t, err)
	assert.Equal(t, comment.Address.String(), field(t, out, "address"))

	t.Run("program id from environment", func(t *testing.T) {
		t.Setenv("BLOGLEDGER_PROGRAM_ID", models.Pubkey{9}.String())
		other, err := pda.NewDeriver(models.Pubkey{9}).Blog(author)
		require.NoError(t, err)
		var stdout bytes.Buffer
		cmd := newRootCommand()
		cmd.SetArgs([]string{"derive", "blog", author.String()})
		cmd.SetOut(&stdout)
		require.NoError(t, cmd.Execute())
		assert.Equal(t, other.Address.String(), field(t, stdout.String(), "address"))
	})

	for _, args := range [][]string{
		{"derive", "wiki", author.String()},
		{"derive", "blog", "not-a-key"},
		{"derive", "post", author.String()},
		{"derive", "post", author.String(), "-1"},
		{"derive", "blog", author.String(), "1"},
	} {
		_, err := runCLI(t, t.TempDir(), args...)
		assert.Error(t, err, args)
	}
}

func TestKeygenAndSign(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "id.json")

	out, err := runCLI(t, dir, "keygen", "--out", keyPath, "--workers", "1")
	require.NoError(t, err)
	identity := field(t, out, "identity")
	_, err = models.ParsePubkey(identity)
	require.NoError(t, err)

	body := `{"title":"t","content":"c"}`
	out, err = runCLI(t, dir, "sign", "--key", keyPath, "-X", "post", "--data", body, "/api/posts?x=1")
	require.NoError(t, err)
	assert.Equal(t, identity, field(t, out, middleware.IdentityHeader))

	// the printed headers must satisfy the server
	var seen models.Pubkey
	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = middleware.Identity(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest("POST", "/api/posts?x=1", strings.NewReader(body))
	req.Header.Set(middleware.IdentityHeader, field(t, out, middleware.IdentityHeader))
	req.Header.Set(middleware.SignatureHeader, field(t, out, middleware.SignatureHeader))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, identity, seen.String())

	_, err = runCLI(t, dir, "sign", "--key", filepath.Join(dir, "missing.json"), "/api/blogs")
	assert.Error(t, err)
	_, err = runCLI(t, dir, "keygen", "--prefix", "0", "--out", keyPath)
	assert.Error(t, err)
}

func TestBackupRestore(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	backupFile := filepath.Join(dir, "out", "backup.db")
	addr := models.Pubkey{42}

	store, err := repositories.NewRepository(src, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.NoError(t, store.Update(context.Background(), func(txn repositories.AccountTxn) error {
		return txn.Create(addr, 16, []byte("hello"))
	}))
	require.NoError(t, store.Close())

	out, err := runCLI(t, src, "backup", "--out", backupFile)
	require.NoError(t, err)
	assert.Contains(t, out, backupFile)

	out, err = runCLI(t, dst, "restore", backupFile)
	require.NoError(t, err)
	assert.Contains(t, out, "restored")

	// a second restore must be forced
	_, err = runCLI(t, dst, "restore", backupFile)
	assert.ErrorContains(t, err, "--force")
	_, err = runCLI(t, dst, "restore", "--force", backupFile)
	require.NoError(t, err)

	restored, err := repositories.NewRepository(dst, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer restored.Close()
	require.NoError(t, restored.View(context.Background(), func(r repositories.AccountReader) error {
		acct, err := r.Get(addr)
		if err != nil {
			return err
		}
		assert.Equal(t, 16, acct.Space())
		assert.Equal(t, "hello", string(acct.Data[:5]))
		return nil
	}))

	t.Run("missing database", func(t *testing.T) {
		_, err := runCLI(t, filepath.Join(dir, "nothing"), "backup")
		assert.Error(t, err)
	})

	t.Run("in-memory store", func(t *testing.T) {
		t.Setenv("BLOGLEDGER_IN_MEMORY", "true")
		var stdout bytes.Buffer
		cmd := newRootCommand()
		cmd.SetArgs([]string{"backup"})
		cmd.SetOut(&stdout)
		assert.ErrorIs(t, cmd.Execute(), errInMemoryStore)
	})
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	cfg := config.Default()
	cfg.BindAddr = "127.0.0.1"
	cfg.Port = uint(port)
	cfg.InMemory = true
	cfg.ShutdownTimeout = "2s"
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestServer(t *testing.T) {
	cfg := testConfig(t)
	srv, err := newServer(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	base := "http://" + cfg.ListenAddr()
	author := models.Pubkey{3}
	require.Eventually(t, func() bool {
		res, err := http.Get(base + "/api/derive/blog/" + author.String())
		if err != nil {
			return false
		}
		res.Body.Close()
		return res.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	res, err := http.Get(base + "/metrics")
	require.NoError(t, err)
	metrics, err := io.ReadAll(res.Body)
	res.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "go_goroutines")
	assert.Contains(t, string(metrics), "blogledger_http_requests_total")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServerListenError(t *testing.T) {
	cfg := testConfig(t)
	l, err := net.Listen("tcp", cfg.ListenAddr())
	require.NoError(t, err)
	defer l.Close()

	srv, err := newServer(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer srv.Close()
	assert.Error(t, srv.Run(context.Background()))
}
