package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailgate/internal/dom"
	"github.com/nhle/mailgate/internal/model"
	"github.com/nhle/mailgate/internal/nav"
)

const chromePage = `<html><body>
<nav>
  <a class="nav-item" href="/">Home</a>
  <a class="nav-item" href="/inbox">Inbox</a>
</nav>
<div id="userInfo" class="hidden"><span id="userEmail"></span></div>
<button id="logoutBtn" class="hidden">Sign out</button>
</body></html>`

var errStorageDisabled = errors.New("storage disabled")

// failingStorage fails every call.
type failingStorage struct{}

func (failingStorage) GetItem(context.Context, string) (string, bool, error) {
	return "", false, errStorageDisabled
}

func (failingStorage) SetItem(context.Context, string, string) error {
	return errStorageDisabled
}

func (failingStorage) RemoveItem(context.Context, string) error {
	return errStorageDisabled
}

func newPage(t *testing.T) *dom.Page {
	t.Helper()
	p, err := dom.ParseString(chromePage)
	require.NoError(t, err)
	return p
}

func seed(t *testing.T, items map[string]string) *MemoryStorage {
	t.Helper()
	st := NewMemoryStorage()
	for k, v := range items {
		require.NoError(t, st.SetItem(context.Background(), k, v))
	}
	return st
}

func newGate(st Storage) (*Gate, *nav.Recorder) {
	rec := &nav.Recorder{}
	return NewGate(NewRepository(st), rec, rec, nil), rec
}

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(NewMemoryStorage())

	in := model.Session{
		IdentityMarker: "a@b.com",
		TokenBlob:      model.TokenBlob(`{"token":"t"}`),
		DisplayName:    "Ada",
	}
	require.NoError(t, repo.Set(ctx, in))

	out, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestRepositorySetWithoutDisplayNameRemovesIt(t *testing.T) {
	ctx := context.Background()
	st := seed(t, map[string]string{KeyDisplayName: "Old"})
	repo := NewRepository(st)

	require.NoError(t, repo.Set(ctx, model.Session{IdentityMarker: "a@b.com", TokenBlob: model.TokenBlob(`{}`)}))

	_, ok, err := st.GetItem(ctx, KeyDisplayName)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsAuthenticated(t *testing.T) {
	tests := []struct {
		name  string
		items map[string]string
		want  bool
	}{
		{name: "both present", items: map[string]string{KeyIdentityMarker: "a@b.com", KeyTokenBlob: `{"token":"t"}`}, want: true},
		{name: "marker only", items: map[string]string{KeyIdentityMarker: "a@b.com"}, want: false},
		{name: "blob only", items: map[string]string{KeyTokenBlob: `{"token":"t"}`}, want: false},
		{name: "empty marker", items: map[string]string{KeyIdentityMarker: "", KeyTokenBlob: `{"token":"t"}`}, want: false},
		{name: "nothing", items: nil, want: false},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			gate, rec := newGate(seed(t, tc.items))
			page := newPage(t)

			got, err := gate.IsAuthenticated(context.Background(), page)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)

			assert.Equal(t, !tc.want, page.ByID(ElementUserInfo).HasClass(dom.ClassHidden))
			assert.Equal(t, !tc.want, page.ByID(ElementLogoutBtn).HasClass(dom.ClassHidden))
			if tc.want {
				assert.Equal(t, "a@b.com", page.ByID(ElementUserEmail).Text())
			} else {
				assert.Empty(t, page.ByID(ElementUserEmail).Text())
			}
			assert.False(t, rec.Navigated())
		})
	}
}

func TestIsAuthenticatedToleratesMissingChrome(t *testing.T) {
	gate, _ := newGate(seed(t, map[string]string{KeyIdentityMarker: "a@b.com", KeyTokenBlob: `{}`}))
	page, err := dom.ParseString(`<html><body><p>bare</p></body></html>`)
	require.NoError(t, err)

	ok, err := gate.IsAuthenticated(context.Background(), page)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = gate.IsAuthenticated(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsAuthenticatedStorageFailureIsReturned(t *testing.T) {
	gate, _ := newGate(failingStorage{})

	_, err := gate.IsAuthenticated(context.Background(), newPage(t))
	require.ErrorIs(t, err, errStorageDisabled)
}

func TestSignOutClearsAllKeys(t *testing.T) {
	seeds := []map[string]string{
		{KeyIdentityMarker: "a@b.com", KeyTokenBlob: `{}`, KeyDisplayName: "Ada"},
		{KeyTokenBlob: `{}`},
		nil,
	}

	for _, items := range seeds {
		st := seed(t, items)
		gate, rec := newGate(st)

		require.NoError(t, gate.SignOut(context.Background()))

		for _, key := range []string{KeyIdentityMarker, KeyTokenBlob, KeyDisplayName} {
			_, ok, err := st.GetItem(context.Background(), key)
			require.NoError(t, err)
			assert.False(t, ok, "key %s should be cleared", key)
		}
		assert.Equal(t, nav.PathHome, rec.Location)
		assert.Empty(t, rec.Notices)
	}
}

func TestSignOutStorageFailureDoesNotNavigate(t *testing.T) {
	gate, rec := newGate(failingStorage{})

	require.ErrorIs(t, gate.SignOut(context.Background()), errStorageDisabled)
	assert.False(t, rec.Navigated())
}

func TestRequireAuthenticated(t *testing.T) {
	t.Run("signed in", func(t *testing.T) {
		gate, rec := newGate(seed(t, map[string]string{KeyIdentityMarker: "a@b.com", KeyTokenBlob: `{}`}))

		ok, err := gate.RequireAuthenticated(context.Background(), newPage(t))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.False(t, rec.Navigated())
		assert.Empty(t, rec.Notices)
	})

	t.Run("signed out", func(t *testing.T) {
		gate, rec := newGate(seed(t, map[string]string{KeyIdentityMarker: "a@b.com"}))

		ok, err := gate.RequireAuthenticated(context.Background(), newPage(t))
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, nav.PathAuth, rec.Location)
		assert.Equal(t, []string{NoticeSignInRequired}, rec.Notices)
	})
}

func TestOnPageLoadMarksActiveNav(t *testing.T) {
	gate, _ := newGate(NewMemoryStorage())
	page := newPage(t)

	require.NoError(t, gate.OnPageLoad(context.Background(), page, "/inbox"))

	assert.True(t, page.Document().Find(`.nav-item[href="/inbox"]`).HasClass(dom.ClassActive))
	assert.False(t, page.Document().Find(`.nav-item[href="/"]`).HasClass(dom.ClassActive))
	assert.True(t, page.ByID(ElementUserInfo).HasClass(dom.ClassHidden))
}
