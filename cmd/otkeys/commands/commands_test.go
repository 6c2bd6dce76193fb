package commands

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"otkeys/internal/relay"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute(), out.String())
	return out.String()
}

func TestCLI_GeneratePublishClaim(t *testing.T) {
	srv := httptest.NewServer(relay.NewServer(nil, nil, nil).Handler())
	t.Cleanup(srv.Close)

	home := t.TempDir()
	common := []string{"--home", home, "-p", "pw", "--relay", srv.URL, "--username", "alice", "--log-level", "error"}
	with := func(args ...string) []string { return append(args, common...) }

	assert.Contains(t, run(t, with("init")...), "Account created")
	assert.Contains(t, run(t, with("init")...), "already exists")
	assert.Contains(t, run(t, with("generate", "3")...), "Generated 3 one-time keys")

	keys := run(t, with("keys")...)
	assert.Equal(t, 4, strings.Count(keys, "\n"), keys)

	assert.Contains(t, run(t, with("publish")...), "Published 3 one-time keys for alice")
	assert.Contains(t, run(t, with("publish")...), "Nothing to publish.")

	status := run(t, with("status")...)
	assert.Contains(t, status, "Stored:      3 / 5000")
	assert.Contains(t, status, "Unpublished: 0")
	assert.Contains(t, status, "Directory:   3")

	claimed := run(t, with("claim", "alice")...)
	assert.Contains(t, claimed, "Fingerprint:")
}

func TestCLI_RequiresPassphrase(t *testing.T) {
	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"status", "--home", t.TempDir()})
	assert.ErrorContains(t, root.Execute(), "passphrase required")
}

func TestCLI_GenerateRejectsBadCount(t *testing.T) {
	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"generate", "many", "--home", t.TempDir(), "-p", "pw"})
	assert.ErrorContains(t, root.Execute(), "invalid count")
}

func TestCLI_PushesMetrics(t *testing.T) {
	pushes := 0
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pushes++
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(gw.Close)

	home := t.TempDir()
	run(t, "init", "--home", home, "-p", "pw", "--pushgateway", gw.URL)
	run(t, "generate", "2", "--home", home, "-p", "pw", "--pushgateway", gw.URL)
	assert.Equal(t, 2, pushes)
}
