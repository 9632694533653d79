package paths

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDocPath(t *testing.T) {
	valid := []string{
		"organizations/org-id",
		"organizations/org-id/series/series-id",
		"organizations/o/series/s/events/e/races/r/preems/p/contributions/c",
		"users/user-id",
		"invites/invite-id",
	}
	for _, p := range valid {
		assert.True(t, IsDocPath(p), p)
	}

	invalid := []string{
		"organizations",
		"organizations/org-id/series",
		"",
		"orgs/org-id",
		"organizations/org-id/events/event-id", // events skip the series level
		"users/user-id/profile",
		"organizations/",
		"organizations/org-id/series//events/event-id",
	}
	for _, p := range invalid {
		assert.False(t, IsDocPath(p), p)
	}
}

func TestAsDocPath(t *testing.T) {
	p, err := AsDocPath("organizations/org-id")
	require.NoError(t, err)
	assert.Equal(t, "organizations/org-id", p)

	_, err = AsDocPath("organizations/org-id/series")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestIsCollectionPath(t *testing.T) {
	valid := []string{
		"organizations",
		"organizations/org-id/series",
		"users",
	}
	for _, p := range valid {
		assert.True(t, IsCollectionPath(p), p)
	}

	invalid := []string{
		"organizations/org-id",
		"users/user-id",
		"organizations/org-id/",
		"organizations//series",
	}
	for _, p := range invalid {
		assert.False(t, IsCollectionPath(p), p)
	}
}

func TestAsCollectionPath(t *testing.T) {
	p, err := AsCollectionPath("organizations/org-id/series")
	require.NoError(t, err)
	assert.Equal(t, "organizations/org-id/series", p)

	_, err = AsCollectionPath("organizations/org-id")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestIsURLPath(t *testing.T) {
	valid := []string{
		"org-id",
		"org-id/series-id",
		"user/user-id",
		"view/user/user-id",
		"a/b/c/d/e/f",
	}
	for _, p := range valid {
		assert.True(t, IsURLPath(p), p)
	}

	invalid := []string{
		"a/b/c/d/e/f/g",
		"org-id//series-id",
		"",
		"user/user-id/profile",
	}
	for _, p := range invalid {
		assert.False(t, IsURLPath(p), p)
	}
}

func TestToDocPath(t *testing.T) {
	cases := map[string]string{
		"org-super-sprinkles/series-1/event-1": "organizations/org-super-sprinkles/series/series-1/events/event-1",
		"org-super-sprinkles":                  "organizations/org-super-sprinkles",
		"user/user-id":                         "users/user-id",
		"view/user/user-id":                    "users/user-id",
		"view/org-id/series-id":                "organizations/org-id/series/series-id",
	}
	for in, want := range cases {
		got, err := ToDocPath(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ToDocPath("a/b/c/d/e/f/g")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestToURLPath(t *testing.T) {
	cases := map[string]string{
		"organizations/org-super-sprinkles/series/giro/events/day-1": "org-super-sprinkles/giro/day-1",
		"organizations/org-super-sprinkles":                          "org-super-sprinkles",
		"users/user-id":                                              "user/user-id",
	}
	for in, want := range cases {
		got, err := ToURLPath(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ToURLPath("organizations/org-id/series")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestRoundTrip(t *testing.T) {
	docPath := "organizations/o/series/s/events/e/races/r/preems/p/contributions/c"
	url, err := ToURLPath(docPath)
	require.NoError(t, err)
	back, err := ToDocPath(url)
	require.NoError(t, err)
	assert.Equal(t, docPath, back)
}

func TestPathParts(t *testing.T) {
	docPath := "organizations/o/series/s/events/e"

	assert.Equal(t, "e", DocID(docPath))
	assert.Equal(t, "events", CollectionGroup(docPath))
	assert.Equal(t, "organizations/o/series/s/events", ParentCollection(docPath))
	assert.Equal(t, "organizations/o", RootDoc(docPath))

	parent, ok := ParentDoc(docPath)
	require.True(t, ok)
	assert.Equal(t, "organizations/o/series/s", parent)

	_, ok = ParentDoc("organizations/o")
	assert.False(t, ok)
}

func TestSubCollectionPath(t *testing.T) {
	p, err := SubCollectionPath("organizations/o", "series")
	require.NoError(t, err)
	assert.Equal(t, "organizations/o/series", p)

	_, err = SubCollectionPath("organizations/o", "series/s")
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, err = SubCollectionPath("organizations/o", "sponsors")
	assert.ErrorIs(t, err, ErrInvalidPath)
}
