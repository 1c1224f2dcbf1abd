package github_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/gitnotes/internal/apperr"
	"github.com/mithrel/gitnotes/internal/github"
	"github.com/mithrel/gitnotes/internal/testutil/fakegh"
	"github.com/mithrel/gitnotes/pkg/api"
)

func newClient(t *testing.T, srv *fakegh.Server) *github.Client {
	t.Helper()
	return github.New(github.ClientConfig{
		Token:      srv.Token,
		BaseURL:    srv.URL(),
		GraphQLURL: srv.GraphQLURL(),
		Timeout:    5 * time.Second,
	})
}

var ref = api.RepoRef{Owner: "octo", Name: "notes"}

func TestAuthenticate(t *testing.T) {
	srv := fakegh.New(t)
	c := newClient(t, srv)

	u, err := c.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "octocat", u.Login)

	bad := github.New(github.ClientConfig{Token: "nope", BaseURL: srv.URL()})
	_, err = bad.Authenticate(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "Bad credentials")
}

func TestListRepositoriesSortedByUpdate(t *testing.T) {
	srv := fakegh.New(t)
	srv.AddRepo("octo", "old")
	srv.AddRepo("octo", "notes")
	srv.SeedIssue("octo", "old", "bump", "", "")

	repos, err := newClient(t, srv).ListRepositories(context.Background())
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "octo/old", repos[0].FullName)
	assert.Equal(t, api.RepoRef{Owner: "octo", Name: "old"}, repos[0].Ref())
}

func TestListIssuesMapsFieldsAndSkipsPullRequests(t *testing.T) {
	srv := fakegh.New(t)
	srv.SeedIssue("octo", "notes", "first", "body one", "", "idea", "work")
	srv.SeedIssue("octo", "notes", "second", "", "closed")
	srv.SeedPullRequest("octo", "notes", "a PR")

	notes, more, err := newClient(t, srv).ListIssues(context.Background(), ref)
	require.NoError(t, err)
	assert.False(t, more)
	require.Len(t, notes, 2)

	// most recently updated first
	assert.Equal(t, "second", notes[0].Title)
	assert.Equal(t, api.StateClosed, notes[0].State)
	assert.Equal(t, "", notes[0].Content)

	first := notes[1]
	assert.Equal(t, int64(12345), first.ID)
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, "I_12345", first.NodeID)
	assert.Equal(t, "body one", first.Content)
	assert.Equal(t, []string{"idea", "work"}, first.Labels)
	assert.False(t, first.CreatedAt.IsZero())
}

func TestListIssuesNullBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "all", r.URL.Query().Get("state"))
		assert.Equal(t, "updated", r.URL.Query().Get("sort"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		w.Header().Set("Link", `<https://api.github.com/x?page=2>; rel="next", <https://api.github.com/x?page=9>; rel="last"`)
		_, _ = w.Write([]byte(`[{"id":1,"number":1,"title":"t","body":null,"state":"open","labels":[]}]`))
	}))
	defer ts.Close()

	c := github.New(github.ClientConfig{Token: "tok", BaseURL: ts.URL, PageSize: 500})
	assert.Equal(t, github.MaxPageSize, c.PageSize())
	notes, more, err := c.ListIssues(context.Background(), ref)
	require.NoError(t, err)
	assert.True(t, more)
	require.Len(t, notes, 1)
	assert.Equal(t, "", notes[0].Content)
	assert.NotNil(t, notes[0].Labels)
}

func TestListIssuesRequiresRepo(t *testing.T) {
	_, _, err := github.New(github.ClientConfig{}).ListIssues(context.Background(), api.RepoRef{})
	require.ErrorIs(t, err, apperr.ErrNoRepository)
}

func TestCreateAndUpdateIssue(t *testing.T) {
	srv := fakegh.New(t)
	srv.AddRepo("octo", "notes")
	c := newClient(t, srv)
	ctx := context.Background()

	created, err := c.CreateIssue(ctx, ref, github.IssueInput{Title: "Hello", Body: "# hi", Labels: []string{"draft"}})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, 1, created.Number)
	assert.Equal(t, []string{"draft"}, created.Labels)

	title := "Hello again"
	labels := []string{}
	updated, err := c.UpdateIssue(ctx, ref, created.Number, github.IssuePatch{Title: &title, Labels: &labels})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Hello again", updated.Title)
	assert.Equal(t, "# hi", updated.Content)
	assert.Empty(t, updated.Labels)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	closed, err := c.SetIssueState(ctx, ref, created.Number, api.StateClosed)
	require.NoError(t, err)
	assert.Equal(t, api.StateClosed, closed.State)

	got, err := c.GetIssue(ctx, ref, created.Number)
	require.NoError(t, err)
	assert.Equal(t, "Hello again", got.Title)
	assert.Equal(t, 2, srv.Count(http.MethodPatch, "/repos/{owner}/{repo}/issues/{number}"))
}

func TestIssuePatchOmitsNilFields(t *testing.T) {
	title := "x"
	b, err := json.Marshal(github.IssuePatch{Title: &title})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"x"}`, string(b))

	empty := []string{}
	b, err = json.Marshal(github.IssuePatch{Labels: &empty})
	require.NoError(t, err)
	assert.JSONEq(t, `{"labels":[]}`, string(b))
}

func TestErrorsAreClassified(t *testing.T) {
	srv := fakegh.New(t)
	srv.AddRepo("octo", "notes")
	c := newClient(t, srv)
	ctx := context.Background()

	srv.Fail(http.MethodPost, "/repos/octo/notes/issues", http.StatusForbidden, "Resource not accessible by personal access token")
	_, err := c.CreateIssue(ctx, ref, github.IssueInput{Title: "x"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindPermission, apperr.KindOf(err))

	srv.Fail(http.MethodGet, "/repos/octo/notes/issues", http.StatusForbidden, "API rate limit exceeded for user ID 1.")
	_, _, err = c.ListIssues(ctx, ref)
	assert.Equal(t, apperr.KindTransport, apperr.KindOf(err))

	_, err = c.GetIssue(ctx, ref, 99)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	var se *github.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
}

func TestTransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := github.New(github.ClientConfig{Token: "tok", BaseURL: url, Timeout: time.Second})
	_, err := c.Authenticate(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.KindTransport, apperr.KindOf(err))
}

func TestComments(t *testing.T) {
	srv := fakegh.New(t)
	is := srv.SeedIssue("octo", "notes", "n", "b", "")
	c := newClient(t, srv)
	ctx := context.Background()

	list, err := c.ListComments(ctx, ref, is.Number)
	require.NoError(t, err)
	assert.Empty(t, list)

	cm, err := c.CreateComment(ctx, ref, is.Number, "looks good")
	require.NoError(t, err)
	assert.Equal(t, "octocat", cm.Author)

	list, err = c.ListComments(ctx, ref, is.Number)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "looks good", list[0].Body)

	_, err = c.CreateComment(ctx, ref, is.Number, "  ")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestDeleteIssueViaGraphQL(t *testing.T) {
	srv := fakegh.New(t)
	is := srv.SeedIssue("octo", "notes", "doomed", "", "")
	c := newClient(t, srv)
	ctx := context.Background()

	require.NoError(t, c.DeleteIssue(ctx, is.NodeID))
	assert.Zero(t, srv.IssueCount("octo", "notes"))

	err := c.DeleteIssue(ctx, is.NodeID)
	require.Error(t, err)

	err = c.DeleteIssue(ctx, "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
