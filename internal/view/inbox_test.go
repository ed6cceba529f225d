package view

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailgate/internal/api"
	"github.com/nhle/mailgate/internal/dom"
	"github.com/nhle/mailgate/internal/model"
	"github.com/nhle/mailgate/internal/nav"
	"github.com/nhle/mailgate/internal/render"
	"github.com/nhle/mailgate/internal/session"
)

const inboxPage = `<html><body>
<div id="statsSection"></div>
<div id="emailList"></div>
</body></html>`

type fakeFetcher struct {
	resp   *model.EmailsResponse
	err    error
	calls  int
	tokens []model.TokenBlob

	// seen captures the list container at fetch time.
	page *dom.Page
	seen string
}

func (f *fakeFetcher) FetchEmails(ctx context.Context, tokens model.TokenBlob) (*model.EmailsResponse, error) {
	_ = ctx
	f.calls++
	f.tokens = append(f.tokens, tokens)
	if f.page != nil {
		f.seen, _ = f.page.InnerHTML(ElementEmailList)
	}
	return f.resp, f.err
}

type failingRepo struct{ err error }

func (r failingRepo) Get(context.Context) (model.Session, error) { return model.Session{}, r.err }
func (r failingRepo) Set(context.Context, model.Session) error   { return r.err }
func (r failingRepo) Clear(context.Context) error                { return r.err }

func signedIn(t *testing.T) session.Repository {
	t.Helper()
	repo := session.NewRepository(session.NewMemoryStorage())
	require.NoError(t, repo.Set(context.Background(), model.Session{
		IdentityMarker: "a@b.com",
		TokenBlob:      model.TokenBlob(`{"token":"abc"}`),
	}))
	return repo
}

func newInbox(repo session.Repository, f EmailFetcher) (*Inbox, *nav.Recorder) {
	rec := &nav.Recorder{}
	r := render.New(render.Options{Location: time.UTC})
	return NewInbox(repo, f, r, rec, rec, nil), rec
}

func newPage(t *testing.T, markup string) *dom.Page {
	t.Helper()
	p, err := dom.ParseString(markup)
	require.NoError(t, err)
	return p
}

func TestLoadEmailListSuccess(t *testing.T) {
	page := newPage(t, inboxPage)
	f := &fakeFetcher{
		page: page,
		resp: &model.EmailsResponse{
			Success: true,
			Emails: []model.EmailSummary{{
				ID: "1", Subject: "Hi", Sender: "a@b.com", Snippet: "short",
				Date: "2024-01-01T00:00:00Z", Priority: model.PriorityWork, AILabels: []string{"urgent"},
			}},
			Stats: &model.StatsDigest{Total: 1, Work: 1},
		},
	}
	in, rec := newInbox(signedIn(t), f)

	require.NoError(t, in.LoadEmailList(context.Background(), page))

	assert.Contains(t, f.seen, "Loading...", "placeholder shown before the fetch returns")
	require.Equal(t, 1, f.calls)
	assert.Equal(t, model.TokenBlob(`{"token":"abc"}`), f.tokens[0])

	doc := page.Document()
	require.Equal(t, 1, doc.Find("#emailList .email-card").Length())
	assert.Equal(t, "Hi", doc.Find("#emailList .email-subject").Text())
	assert.True(t, doc.Find("#emailList .priority-badge").HasClass("priority-work"))
	assert.Equal(t, "short", doc.Find("#emailList .email-snippet").Text())
	assert.Equal(t, "urgent", doc.Find("#emailList .ai-badge").Text())

	var tiles []string
	doc.Find("#statsSection .stats-value").Each(func(_ int, s *goquery.Selection) {
		tiles = append(tiles, s.Text())
	})
	assert.Equal(t, []string{"1", "1", "0", "0"}, tiles)

	assert.Empty(t, rec.Notices)
	assert.False(t, rec.Navigated())
}

func TestLoadEmailListWithoutStatsLeavesSection(t *testing.T) {
	page := newPage(t, inboxPage)
	f := &fakeFetcher{resp: &model.EmailsResponse{Success: true}}
	in, _ := newInbox(signedIn(t), f)

	require.NoError(t, in.LoadEmailList(context.Background(), page))

	assert.Equal(t, 1, page.Document().Find("#emailList .empty-state").Length())
	stats, _ := page.InnerHTML(ElementStatsSection)
	assert.Empty(t, stats)
}

func TestLoadEmailListStatsWithoutSection(t *testing.T) {
	page := newPage(t, `<html><body><div id="emailList"></div></body></html>`)
	f := &fakeFetcher{resp: &model.EmailsResponse{Success: true, Stats: &model.StatsDigest{Total: 3}}}
	in, _ := newInbox(signedIn(t), f)

	require.NoError(t, in.LoadEmailList(context.Background(), page))
	assert.Equal(t, 1, page.Document().Find("#emailList .empty-state").Length())
}

func TestLoadEmailListLogicalFailure(t *testing.T) {
	tests := []struct {
		name string
		resp *model.EmailsResponse
		want string
	}{
		{name: "server message", resp: &model.EmailsResponse{Success: false, Error: "quota exceeded"}, want: "quota exceeded"},
		{name: "generic fallback", resp: &model.EmailsResponse{Success: false}, want: MessageLoadFailed},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			page := newPage(t, inboxPage)
			in, _ := newInbox(signedIn(t), &fakeFetcher{resp: tc.resp})

			require.NoError(t, in.LoadEmailList(context.Background(), page))
			panel := page.Document().Find("#emailList .error-panel")
			require.Equal(t, 1, panel.Length())
			assert.Contains(t, panel.Text(), tc.want)
		})
	}
}

func TestLoadEmailListTransportFailure(t *testing.T) {
	page := newPage(t, inboxPage)
	in, _ := newInbox(signedIn(t), &fakeFetcher{err: errors.New("connection refused")})

	require.NoError(t, in.LoadEmailList(context.Background(), page))

	panel := page.Document().Find("#emailList .error-panel")
	require.Equal(t, 1, panel.Length())
	assert.Equal(t, "Network error: connection refused", panel.Text())
}

func TestLoadEmailListWithoutTokenBlob(t *testing.T) {
	page := newPage(t, inboxPage)
	f := &fakeFetcher{}
	repo := session.NewRepository(session.NewMemoryStorage())
	require.NoError(t, repo.Set(context.Background(), model.Session{IdentityMarker: "a@b.com"}))
	in, rec := newInbox(repo, f)

	require.NoError(t, in.LoadEmailList(context.Background(), page))

	assert.Equal(t, 0, f.calls)
	assert.Equal(t, []string{NoticeSignInFirst}, rec.Notices)
	list, _ := page.InnerHTML(ElementEmailList)
	assert.Empty(t, list)
}

func TestLoadEmailListWithoutContainer(t *testing.T) {
	page := newPage(t, `<html><body><div id="statsSection"></div></body></html>`)
	f := &fakeFetcher{}
	in, rec := newInbox(signedIn(t), f)

	require.NoError(t, in.LoadEmailList(context.Background(), page))
	assert.Equal(t, 0, f.calls)
	assert.Empty(t, rec.Notices)
}

func TestLoadEmailListStorageFailure(t *testing.T) {
	boom := errors.New("storage disabled")
	in, _ := newInbox(failingRepo{err: boom}, &fakeFetcher{})

	err := in.LoadEmailList(context.Background(), newPage(t, inboxPage))
	require.ErrorIs(t, err, boom)
}

func TestFetchOutcomes(t *testing.T) {
	refused := &api.TransportError{Method: "POST", Path: "/api/emails", Err: errors.New("connection refused")}
	signedOut := session.NewRepository(session.NewMemoryStorage())

	tests := []struct {
		name    string
		repo    session.Repository
		fetcher *fakeFetcher
		want    Outcome
		wantErr string
	}{
		{
			name:    "signed out",
			repo:    signedOut,
			fetcher: &fakeFetcher{},
			want:    Outcome{Notice: NoticeSignInFirst},
			wantErr: NoticeSignInFirst,
		},
		{
			name:    "api error",
			repo:    signedIn(t),
			fetcher: &fakeFetcher{resp: &model.EmailsResponse{Error: "Token expired"}},
			want:    Outcome{Failure: "Token expired"},
			wantErr: "Token expired",
		},
		{
			name:    "api error without message",
			repo:    signedIn(t),
			fetcher: &fakeFetcher{resp: &model.EmailsResponse{}},
			want:    Outcome{Failure: MessageLoadFailed},
			wantErr: MessageLoadFailed,
		},
		{
			name:    "transport",
			repo:    signedIn(t),
			fetcher: &fakeFetcher{err: refused},
			want:    Outcome{Failure: "Network error: connection refused", Cause: refused},
			wantErr: "Network error: connection refused",
		},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			in, rec := newInbox(tc.repo, tc.fetcher)

			resp, out, err := in.Fetch(context.Background())
			require.NoError(t, err)
			assert.Nil(t, resp)
			assert.Equal(t, tc.want, out)
			assert.False(t, out.OK())
			require.EqualError(t, out.Err(), tc.wantErr)
			assert.Empty(t, rec.Notices)
		})
	}
}

func TestFetchSuccess(t *testing.T) {
	f := &fakeFetcher{resp: &model.EmailsResponse{
		Success: true,
		Emails:  []model.EmailSummary{{ID: "1", Subject: "Hi"}},
	}}
	in, _ := newInbox(signedIn(t), f)

	resp, out, err := in.Fetch(context.Background())
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Len(t, resp.Emails, 1)
	assert.True(t, out.OK())
	assert.NoError(t, out.Err())
	assert.Equal(t, []model.TokenBlob{`{"token":"abc"}`}, f.tokens)
}

func TestFetchKeepsTransportCause(t *testing.T) {
	refused := &api.TransportError{Method: "POST", Path: "/api/emails", Err: errors.New("connection refused")}
	in, _ := newInbox(signedIn(t), &fakeFetcher{err: refused})

	_, out, err := in.Fetch(context.Background())
	require.NoError(t, err)

	var te *api.TransportError
	require.ErrorAs(t, out.Err(), &te)
	assert.Equal(t, "/api/emails", te.Path)
	assert.True(t, api.IsTransportError(out.Err()))
}

func TestFetchStorageFailure(t *testing.T) {
	boom := errors.New("storage disabled")
	f := &fakeFetcher{}
	in, _ := newInbox(failingRepo{err: boom}, f)

	_, _, err := in.Fetch(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, f.calls)
}

func TestOnPageLoad(t *testing.T) {
	t.Run("inbox with token", func(t *testing.T) {
		f := &fakeFetcher{resp: &model.EmailsResponse{Success: true}}
		in, _ := newInbox(signedIn(t), f)

		require.NoError(t, in.OnPageLoad(context.Background(), newPage(t, inboxPage), nav.PathInbox))
		assert.Equal(t, 1, f.calls)
	})

	t.Run("inbox without token", func(t *testing.T) {
		f := &fakeFetcher{}
		in, rec := newInbox(session.NewRepository(session.NewMemoryStorage()), f)

		require.NoError(t, in.OnPageLoad(context.Background(), newPage(t, inboxPage), nav.PathInbox))
		assert.Equal(t, 0, f.calls)
		assert.Empty(t, rec.Notices, "page load stays silent without a token")
	})

	t.Run("other page", func(t *testing.T) {
		f := &fakeFetcher{}
		in, _ := newInbox(signedIn(t), f)

		require.NoError(t, in.OnPageLoad(context.Background(), newPage(t, inboxPage), "/inbox/"))
		assert.Equal(t, 0, f.calls)
	})
}

func TestNavigationHelpers(t *testing.T) {
	in, rec := newInbox(signedIn(t), &fakeFetcher{})

	in.OpenEmail("42")
	assert.Equal(t, "/email/42", rec.Location)
	in.OpenSummary("42")
	assert.Equal(t, "/email/42/summary", rec.Location)
	in.OpenSmartReply("42")
	assert.Equal(t, "/email/42/smart-reply", rec.Location)
}
