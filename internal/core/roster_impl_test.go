package core

import (
	"fmt"
	"testing"

	"github.com/dkeye/Chat/internal/domain"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoster_UpsertOnJoin_IsIdempotent(t *testing.T) {
	r := NewRosterStore()

	first, err := r.UpsertOnJoin("alice@example.com")
	require.NoError(t, err)
	require.False(t, first.Existed)
	require.Equal(t, domain.ChatUser{Username: "alice@example.com", DisplayName: "alice"}, first.User)

	for range 3 {
		again, err := r.UpsertOnJoin("alice@example.com")
		require.NoError(t, err)
		require.True(t, again.Existed)
		require.Len(t, again.Roster, 1)
	}
	require.Equal(t, 1, r.Len())
}

func TestRoster_UpsertOnJoin_KeepsRenamedEntry(t *testing.T) {
	r := NewRosterStore()
	_, err := r.UpsertOnJoin("bob@x.com")
	require.NoError(t, err)
	r.Rename("bob@x.com", "Bobby")

	change, err := r.UpsertOnJoin("bob@x.com")
	require.NoError(t, err)
	require.True(t, change.Existed)
	require.Equal(t, "Bobby", change.User.DisplayName)
}

func TestRoster_UpsertOnJoin_MalformedLeavesRosterUntouched(t *testing.T) {
	r := NewRosterStore()
	_, err := r.UpsertOnJoin("no-delimiter")
	require.ErrorIs(t, err, domain.ErrMalformedIdentity)
	require.Empty(t, r.Snapshot())
}

func TestRoster_Remove_IsIdempotent(t *testing.T) {
	r := NewRosterStore()
	_, _ = r.UpsertOnJoin("a@x.com")
	_, _ = r.UpsertOnJoin("b@x.com")

	first := r.Remove("a@x.com")
	require.True(t, first.Existed)
	require.Equal(t, "a@x.com", first.User.Username)

	second := r.Remove("a@x.com")
	require.False(t, second.Existed)
	require.Equal(t, first.Roster, second.Roster)
	require.Equal(t, []domain.ChatUser{{Username: "b@x.com", DisplayName: "b"}}, r.Snapshot())
}

func TestRoster_Remove_PreservesOrder(t *testing.T) {
	r := NewRosterStore()
	for _, u := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		_, _ = r.UpsertOnJoin(u)
	}
	change := r.Remove("b@x.com")
	require.Equal(t, []string{"a@x.com", "c@x.com"}, usernames(change.Roster))
}

func TestRoster_Rename_IsolatedAndInPlace(t *testing.T) {
	r := NewRosterStore()
	for _, u := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		_, _ = r.UpsertOnJoin(u)
	}

	change := r.Rename("a@x.com", "Alpha")
	require.True(t, change.Existed)
	require.Equal(t, []domain.ChatUser{
		{Username: "a@x.com", DisplayName: "Alpha"},
		{Username: "b@x.com", DisplayName: "b"},
		{Username: "c@x.com", DisplayName: "c"},
	}, change.Roster)
}

func TestRoster_Rename_AbsentIsNoop(t *testing.T) {
	r := NewRosterStore()
	_, _ = r.UpsertOnJoin("a@x.com")

	change := r.Rename("ghost@x.com", "Ghost")
	require.False(t, change.Existed)
	require.Equal(t, []domain.ChatUser{{Username: "a@x.com", DisplayName: "a"}}, change.Roster)
}

func TestRoster_SnapshotIsACopy(t *testing.T) {
	r := NewRosterStore()
	_, _ = r.UpsertOnJoin("a@x.com")

	snap := r.Snapshot()
	snap[0].DisplayName = "mutated"
	require.Equal(t, "a", r.Snapshot()[0].DisplayName)

	require.NotNil(t, NewRosterStore().Snapshot())
}

func TestRoster_ConcurrentDistinctJoins(t *testing.T) {
	const n = 200
	r := NewRosterStore()

	var wg conc.WaitGroup
	for i := range n {
		wg.Go(func() {
			_, err := r.UpsertOnJoin(fmt.Sprintf("user%d@x.com", i))
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	require.Equal(t, n, r.Len())
	seen := make(map[string]struct{}, n)
	for _, u := range r.Snapshot() {
		seen[u.Username] = struct{}{}
	}
	require.Len(t, seen, n)
}

func TestRoster_ConcurrentSameUserJoins(t *testing.T) {
	r := NewRosterStore()

	var wg conc.WaitGroup
	for range 50 {
		wg.Go(func() { _, _ = r.UpsertOnJoin("same@x.com") })
	}
	wg.Wait()

	require.Equal(t, 1, r.Len())
}

func TestRoster_RenameRacingRemoveNeverResurrects(t *testing.T) {
	r := NewRosterStore()
	_, _ = r.UpsertOnJoin("a@x.com")

	var wg conc.WaitGroup
	wg.Go(func() { r.Remove("a@x.com") })
	for range 20 {
		wg.Go(func() { r.Rename("a@x.com", "A") })
	}
	wg.Wait()

	require.Empty(t, r.Snapshot())
}

func usernames(users []domain.ChatUser) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.Username)
	}
	return out
}
