package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/manoa-its/helpdesk-assistant/internal/model"
	"github.com/manoa-its/helpdesk-assistant/pkg/logger"
)

type fakeStore struct {
	entries map[string][]byte
	getErr  error
	putErr  error
	deletes []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: map[string][]byte{}}
}

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	data, ok := f.entries[key]
	return data, ok, nil
}

func (f *fakeStore) Put(_ context.Context, key string, value []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.entries[key] = value
	return nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	f.deletes = append(f.deletes, key)
	delete(f.entries, key)
	return nil
}

func testPage(url string) *model.CachedPage {
	return &model.CachedPage{
		URL:   url,
		Title: "Login Help",
		Headings: model.PageHeadings{
			H1: []string{"Account Recovery"},
			H2: []string{"Forgot Username", "Forgot Password"},
		},
		MetaDescription: "How to recover your account",
		Content:         "Click the forgot username link below the sign-in form.",
		CachedAt:        time.Now().UTC(),
	}
}

func TestContentCache_RoundTrip(t *testing.T) {
	store := newFakeStore()
	c := New(store, logger.NewNop())
	ctx := context.Background()

	url := "https://example.edu/help/login"
	c.Put(ctx, url, testPage(url))

	got, ok := c.Get(ctx, url)
	require.True(t, ok)
	require.Equal(t, "Login Help", got.Title)
	require.Equal(t, testPage(url).Content, got.Content)
	require.Equal(t, []string{"Account Recovery"}, got.Headings.H1)
	require.Equal(t, []string{"Forgot Username", "Forgot Password"}, got.Headings.H2)
}

func TestContentCache_MissOnUnknownURL(t *testing.T) {
	c := New(newFakeStore(), logger.NewNop())

	_, ok := c.Get(context.Background(), "https://example.edu/never-stored")
	require.False(t, ok)
}

func TestContentCache_OversizedPayloadNotStored(t *testing.T) {
	store := newFakeStore()
	c := New(store, logger.NewNop())
	ctx := context.Background()

	url := "https://example.edu/huge"
	page := testPage(url)
	page.Content = strings.Repeat("x", maxPayloadBytes+1)
	c.Put(ctx, url, page)

	require.Empty(t, store.entries)
	_, ok := c.Get(ctx, url)
	require.False(t, ok)
}

func TestContentCache_CorruptEntryPurged(t *testing.T) {
	store := newFakeStore()
	c := New(store, logger.NewNop())
	ctx := context.Background()

	url := "https://example.edu/corrupt"
	store.entries[Key(url)] = []byte("{not valid json")

	_, ok := c.Get(ctx, url)
	require.False(t, ok)
	require.Contains(t, store.deletes, Key(url))
	require.NotContains(t, store.entries, Key(url))
}

func TestContentCache_StructurallyInvalidEntryPurged(t *testing.T) {
	store := newFakeStore()
	c := New(store, logger.NewNop())
	ctx := context.Background()

	url := "https://example.edu/empty"
	store.entries[Key(url)] = []byte(`{"title":"orphan"}`)

	_, ok := c.Get(ctx, url)
	require.False(t, ok)
	require.Contains(t, store.deletes, Key(url))
}

func TestContentCache_StoreErrorIsAMiss(t *testing.T) {
	store := newFakeStore()
	store.getErr = context.DeadlineExceeded
	c := New(store, logger.NewNop())

	_, ok := c.Get(context.Background(), "https://example.edu/help")
	require.False(t, ok)
}

func TestKey_TruncatesLongURLs(t *testing.T) {
	long := "https://example.edu/" + strings.Repeat("a", 500)
	other := long + "different-suffix"

	// Beyond the bounded prefix the URLs are indistinguishable.
	require.Equal(t, Key(long), Key(other))
	require.NotEqual(t, Key(long), Key("https://example.edu/short"))
}

func TestContentCache_OverwriteReplacesEntry(t *testing.T) {
	store := newFakeStore()
	c := New(store, logger.NewNop())
	ctx := context.Background()

	url := "https://example.edu/help"
	first := testPage(url)
	c.Put(ctx, url, first)

	second := testPage(url)
	second.Title = "Updated Login Help"
	c.Put(ctx, url, second)

	got, ok := c.Get(ctx, url)
	require.True(t, ok)
	require.Equal(t, "Updated Login Help", got.Title)
}
