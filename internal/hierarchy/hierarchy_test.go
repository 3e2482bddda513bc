package hierarchy

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DaDevFox/task-systems/social-core/internal/domain"
)

func stepClock() func() time.Time {
	t := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func names(entries []domain.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name()
	}
	return out
}

// buildTree creates Root{Frank, Huber{Liam, Inner{Zed}}, Allison{David}}
func buildTree(t *testing.T) *Hierarchy {
	t.Helper()
	h := New(stepClock())
	_, err := h.CreateRoot("Root")
	require.NoError(t, err)

	_, err = h.AddUser("Frank", nil)
	require.NoError(t, err)
	huber, err := h.AddGroup("Huber", nil)
	require.NoError(t, err)
	_, err = h.AddUser("Liam", huber)
	require.NoError(t, err)
	inner, err := h.AddGroup("Inner", huber)
	require.NoError(t, err)
	_, err = h.AddUser("Zed", inner)
	require.NoError(t, err)
	allison, err := h.AddGroup("Allison", nil)
	require.NoError(t, err)
	_, err = h.AddUser("David", allison)
	require.NoError(t, err)
	return h
}

func TestCreateRoot(t *testing.T) {
	h := New(nil)
	assert.Nil(t, h.Root())
	assert.Nil(t, h.AllEntries())
	assert.Nil(t, h.FindByName("Root"))

	root, err := h.CreateRoot("Root")
	require.NoError(t, err)
	assert.True(t, root.IsRoot())
	assert.Same(t, root, h.Root())
	assert.True(t, h.NameExists("Root"))

	_, err = h.CreateRoot("Other")
	assert.ErrorIs(t, err, domain.ErrAlreadyInitialized)
	assert.False(t, h.NameExists("Other"))
}

func TestInsertBeforeRoot(t *testing.T) {
	h := New(nil)

	_, err := h.AddUser("alice", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidParent)
	_, err = h.AddGroup("group", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidParent)
	assert.Equal(t, 0, h.Len())
}

func TestAllEntriesPreOrder(t *testing.T) {
	h := buildTree(t)

	want := []string{"Root", "Frank", "Huber", "Liam", "Inner", "Zed", "Allison", "David"}
	if diff := cmp.Diff(want, names(h.AllEntries())); diff != "" {
		t.Errorf("AllEntries() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, len(want), h.Len())
}

func TestWalkDepth(t *testing.T) {
	h := buildTree(t)

	depths := map[string]int{}
	h.Walk(func(e domain.Entry, depth int) {
		depths[e.Name()] = depth
	})

	want := map[string]int{
		"Root": 0, "Frank": 1, "Huber": 1, "Liam": 2,
		"Inner": 2, "Zed": 3, "Allison": 1, "David": 2,
	}
	if diff := cmp.Diff(want, depths); diff != "" {
		t.Errorf("Walk depths mismatch (-want +got):\n%s", diff)
	}
}

func TestNameCollisionAcrossKinds(t *testing.T) {
	tests := []struct {
		name   string
		insert func(h *Hierarchy) error
	}{
		{"UserOverUser", func(h *Hierarchy) error { _, err := h.AddUser("Frank", nil); return err }},
		{"GroupOverUser", func(h *Hierarchy) error { _, err := h.AddGroup("Frank", nil); return err }},
		{"UserOverGroup", func(h *Hierarchy) error { _, err := h.AddUser("Huber", nil); return err }},
		{"GroupOverGroup", func(h *Hierarchy) error { _, err := h.AddGroup("Huber", nil); return err }},
		{"UserOverRoot", func(h *Hierarchy) error { _, err := h.AddUser("Root", nil); return err }},
		{"NestedDuplicate", func(h *Hierarchy) error {
			inner, _ := h.Group("Inner")
			_, err := h.AddUser("David", inner)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := buildTree(t)
			before := names(h.AllEntries())

			err := tt.insert(h)
			assert.ErrorIs(t, err, domain.ErrNameCollision)

			if diff := cmp.Diff(before, names(h.AllEntries())); diff != "" {
				t.Errorf("hierarchy changed after collision (-before +after):\n%s", diff)
			}
		})
	}
}

func TestInvalidParent(t *testing.T) {
	h := buildTree(t)

	other := New(nil)
	foreignRoot, err := other.CreateRoot("Huber")
	require.NoError(t, err)

	_, err = h.AddUser("newbie", foreignRoot)
	assert.ErrorIs(t, err, domain.ErrInvalidParent)

	detached, err := domain.NewGroup("Detached", "Root", time.Now())
	require.NoError(t, err)
	_, err = h.AddGroup("child", detached)
	assert.ErrorIs(t, err, domain.ErrInvalidParent)

	assert.False(t, h.NameExists("newbie"))
	assert.False(t, h.NameExists("child"))
}

func TestAddUserAttachesToParent(t *testing.T) {
	h := buildTree(t)

	huber, ok := h.Group("Huber")
	require.True(t, ok)
	u, err := h.AddUser("Alita", huber)
	require.NoError(t, err)

	assert.Equal(t, "Huber", u.Group())
	assert.True(t, huber.HasChild("Alita"))
	assert.Equal(t, []string{"Alita"}, u.Following())
}

func TestFindByName(t *testing.T) {
	h := buildTree(t)

	found := h.FindByName("Zed")
	require.NotNil(t, found)
	assert.Equal(t, domain.EntryKindUser, found.Kind())

	found = h.FindByName("Inner")
	require.NotNil(t, found)
	assert.Equal(t, domain.EntryKindGroup, found.Kind())

	assert.Nil(t, h.FindByName("nobody"))

	// index and tree agree for every entry
	for _, e := range h.AllEntries() {
		assert.True(t, h.NameExists(e.Name()))
		assert.Same(t, e, h.FindByName(e.Name()))
	}
}

func TestTypedLookups(t *testing.T) {
	h := buildTree(t)

	_, ok := h.User("Huber")
	assert.False(t, ok)
	_, ok = h.Group("Frank")
	assert.False(t, ok)
	_, ok = h.User("nobody")
	assert.False(t, ok)

	u, ok := h.User("Frank")
	require.True(t, ok)
	assert.Equal(t, "Frank", u.Name())
}

func TestCreationTimesFromClock(t *testing.T) {
	h := buildTree(t)

	entries := h.AllEntries()
	root := entries[0]
	for _, e := range entries[1:] {
		assert.True(t, e.CreatedAt().After(root.CreatedAt()), "%s created before root", e.Name())
	}
}
