package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DaDevFox/task-systems/social-core/internal/service"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SOCIAL_FEED_STORE", "memory")

	a := &app{}
	cmd := newRootCommand(a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))

	err := cmd.Execute()
	require.NoError(t, a.close())
	return out.String(), err
}

func TestTreeCommand(t *testing.T) {
	out, err := run(t, "--demo", "tree")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "Root/", lines[0])
	assert.Contains(t, lines, "  Frank")
	assert.Contains(t, lines, "  Huber/")
	assert.Contains(t, lines, "    Liam")
	assert.Len(t, lines, 13)
}

func TestStatsJSON(t *testing.T) {
	out, err := run(t, "--demo", "stats", "--format", "json")
	require.NoError(t, err)

	var s service.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, 10, s.Users)
	assert.Equal(t, 3, s.Groups)
	assert.True(t, s.NamesValid)
	assert.Equal(t, "none", s.MostRecentPoster)
}

func TestStatsPrometheus(t *testing.T) {
	out, err := run(t, "--demo", "stats", "-f", "prometheus")
	require.NoError(t, err)
	assert.Contains(t, out, "social_users 10")
	assert.Contains(t, out, `social_activity_events_total{type="user.created"} 10`)
}

func TestStatsUnknownFormat(t *testing.T) {
	_, err := run(t, "stats", "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")
}

func TestSeedFileCommands(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(`
users:
  - name: alice
  - name: bob
follows:
  - user: bob
    target: alice
posts:
  - user: alice
    text: good morning
`), 0o600))

	out, err := run(t, "--seed", seed, "feed", "bob")
	require.NoError(t, err)
	assert.Contains(t, out, "alice: good morning")

	out, err = run(t, "--seed", seed, "following", "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob\nalice\n", out)

	out, err = run(t, "--seed", seed, "info", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Followers:   2")
}

func TestPostAndFollowCommands(t *testing.T) {
	out, err := run(t, "--demo", "post", "Frank", "great", "day")
	require.NoError(t, err)
	assert.Equal(t, "Frank posted \"great day\"\n", out)

	_, err = run(t, "--demo", "follow", "Frank", "Huber")
	assert.Error(t, err)

	out, err = run(t, "--demo", "follow", "Frank", "Liam")
	require.NoError(t, err)
	assert.Equal(t, "Frank now follows Liam\n", out)
}

func TestValidateCommand(t *testing.T) {
	out, err := run(t, "--demo", "validate")
	require.NoError(t, err)
	assert.Equal(t, "all names valid\n", out)

	seed := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte("users:\n  - name: two words\n"), 0o600))
	_, err = run(t, "--seed", seed, "validate")
	assert.Error(t, err)
}
