package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DaDevFox/task-systems/social-core/internal/domain"
	"github.com/DaDevFox/task-systems/social-core/internal/hierarchy"
	"github.com/DaDevFox/task-systems/social-core/internal/logging"
	"github.com/DaDevFox/task-systems/social-core/internal/service"
)

func newDirectory(t *testing.T) *service.DirectoryService {
	t.Helper()
	svc := service.NewDirectoryService(hierarchy.New(nil), nil, nil, logging.Discard())
	_, err := svc.CreateRoot(context.Background(), "Root")
	require.NoError(t, err)
	return svc
}

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSeedDemo(t *testing.T) {
	svc := newDirectory(t)
	require.NoError(t, SeedDemo(context.Background(), svc, logging.Discard()))

	assert.Equal(t, 10, svc.UserCount())
	assert.Equal(t, 3, svc.GroupCount())
	assert.True(t, svc.ValidateNames())

	info, err := svc.UserInfo("Alita")
	require.NoError(t, err)
	assert.Equal(t, "Huber", info.Group)
}

func TestSeedFromFile(t *testing.T) {
	path := writeSeed(t, `
groups:
  - name: Huber
  - name: Inner
    parent: Huber
users:
  - name: alice
  - name: bob
    group: Inner
follows:
  - user: bob
    target: alice
posts:
  - user: alice
    text: good morning
  - user: bob
    text: rain again
`)

	svc := newDirectory(t)
	ctx := context.Background()
	require.NoError(t, SeedFromFile(ctx, svc, path, logging.Discard()))

	assert.Equal(t, 2, svc.UserCount())
	assert.Equal(t, 3, svc.GroupCount())
	assert.Equal(t, 2, svc.TweetCount())
	assert.Equal(t, 50, svc.PositiveTweetPercent())

	following, err := svc.FollowingList("bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "alice"}, following)

	feed, err := svc.Feed(ctx, "bob", 0)
	require.NoError(t, err)
	assert.Len(t, feed, 2)
}

func TestSeedFromFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
		wantMsg string
	}{
		{
			name:    "Empty",
			content: "follows: []\n",
			wantMsg: "no groups or users",
		},
		{
			name:    "BadYAML",
			content: "groups: {",
			wantMsg: "parse seed yaml",
		},
		{
			name:    "DuplicateUser",
			content: "users:\n  - name: a\n  - name: a\n",
			wantErr: domain.ErrNameCollision,
			wantMsg: "seed user 1 (a)",
		},
		{
			name:    "UnknownParent",
			content: "groups:\n  - name: child\n    parent: nowhere\n",
			wantErr: domain.ErrInvalidParent,
			wantMsg: "seed group 0",
		},
		{
			name:    "UnknownFollowTarget",
			content: "users:\n  - name: a\nfollows:\n  - user: a\n    target: ghost\n",
			wantErr: domain.ErrUnknownTarget,
			wantMsg: "seed follow 0",
		},
		{
			name:    "EmptyPost",
			content: "users:\n  - name: a\nposts:\n  - user: a\n    text: \"\"\n",
			wantErr: domain.ErrInvalidPost,
			wantMsg: "seed post 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newDirectory(t)
			err := SeedFromFile(context.Background(), svc, writeSeed(t, tt.content), logging.Discard())
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestSeedFromFileArguments(t *testing.T) {
	svc := newDirectory(t)
	ctx := context.Background()

	assert.Error(t, SeedFromFile(ctx, nil, "seed.yaml", nil))
	assert.Error(t, SeedFromFile(ctx, svc, "", nil))
	assert.Error(t, SeedFromFile(ctx, svc, filepath.Join(t.TempDir(), "missing.yaml"), nil))
}
