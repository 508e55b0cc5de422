package vaultstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestVault() *Vault {
	v := &Vault{Entries: make(map[string]*Entry)}
	v.Add(AddInput{ID: "a", ServiceName: "Stripe Test", Environment: EnvDevelopment, Tags: []string{"payments"}}, 100)
	v.Add(AddInput{ID: "b", ServiceName: "Stripe Live", Environment: EnvProduction, Tags: []string{"payments"}}, 200)
	v.Add(AddInput{ID: "c", ServiceName: "OpenAI", Environment: EnvDevelopment, Tags: []string{"ai"}}, 300)
	return v
}

func TestSearchMatchesServiceNameAndTag(t *testing.T) {
	v := newTestVault()

	stripe := v.Search("stripe", 0)
	require.Len(t, stripe, 2)

	ai := v.Search("ai", 0)
	require.Len(t, ai, 1)
	require.Equal(t, "OpenAI", ai[0].ServiceName)
}

func TestListFilterByEnvironment(t *testing.T) {
	v := newTestVault()
	views := v.List(Filter{Environment: EnvDevelopment}, 0)
	require.Len(t, views, 2)
	for _, e := range views {
		require.Equal(t, EnvDevelopment, e.Environment)
	}
}

func TestListSortFavoritesFirstThenRecencyThenCreated(t *testing.T) {
	v := newTestVault()
	v.Entries["b"].Favorite = true
	later := int64(9999)
	v.Entries["c"].LastUsedAt = &later

	views := v.List(Filter{}, 0)
	require.Equal(t, "b", views[0].ID, "favorite sorts first")
	require.Equal(t, "c", views[1].ID, "has LastUsedAt, sorts before entries with none")
}

func TestListExpiredWithinDays(t *testing.T) {
	v := newTestVault()
	exp := int64(5 * 86_400_000)
	v.Entries["a"].ExpiresAt = &exp

	days := 7
	views := v.List(Filter{ExpiredWithinDays: &days}, 0)
	require.Len(t, views, 1)
	require.Equal(t, "a", views[0].ID)
}

func TestRecordUsageMonotoneAndDomainUnion(t *testing.T) {
	v := newTestVault()
	require.True(t, v.RecordUsage("a", "stripe.com", 1000))
	require.Equal(t, int64(1), v.Entries["a"].UsageCount)
	require.Equal(t, []string{"stripe.com"}, v.Entries["a"].Domains)

	require.True(t, v.RecordUsage("a", "stripe.com", 2000))
	require.Equal(t, int64(2), v.Entries["a"].UsageCount)
	require.Len(t, v.Entries["a"].Domains, 1, "duplicate domain is not unioned again")

	require.False(t, v.RecordUsage("missing", "x.com", 3000))
}

func TestDeleteAndGet(t *testing.T) {
	v := newTestVault()
	require.NotNil(t, v.Get("a"))
	require.True(t, v.Delete("a"))
	require.Nil(t, v.Get("a"))
	require.False(t, v.Delete("a"))
}
