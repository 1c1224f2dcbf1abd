// Package fakegh is an in-memory GitHub API for tests. It serves the REST
// endpoints the client uses plus the GraphQL deleteIssue mutation.
package fakegh

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

type Label struct {
	Name string `json:"name"`
}

type Issue struct {
	ID        int64     `json:"id"`
	NodeID    string    `json:"node_id"`
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Body      *string   `json:"body"`
	State     string    `json:"state"`
	Labels    []Label   `json:"labels"`
	Comments  int       `json:"comments"`
	HTMLURL   string    `json:"html_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PullRequest *struct{} `json:"pull_request,omitempty"`
}

type Comment struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	User      User      `json:"user"`
	HTMLURL   string    `json:"html_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type User struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name,omitempty"`
}

type repo struct {
	Owner      string
	Name       string
	UpdatedAt  time.Time
	issues     []*Issue
	comments   map[int][]Comment
	nextNumber int
}

type failure struct {
	status  int
	message string
}

// Call is one request seen by the server.
type Call struct {
	Method string
	Route  string
	Path   string
}

type Server struct {
	Token string
	User  User

	mu       sync.Mutex
	repos    map[string]*repo
	order    []string
	nextID   int64
	clock    time.Time
	calls    []Call
	failures map[string][]failure
	hold     chan struct{}

	ts *httptest.Server
}

// New starts a server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		Token:    "test-token",
		User:     User{ID: 1, Login: "octocat", Name: "The Octocat"},
		repos:    map[string]*repo{},
		nextID:   12345,
		clock:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		failures: map[string][]failure{},
	}
	s.ts = httptest.NewServer(s.Router())
	t.Cleanup(s.ts.Close)
	return s
}

func (s *Server) URL() string        { return s.ts.URL }
func (s *Server) GraphQLURL() string { return s.ts.URL + "/graphql" }

// Router returns the handler with all routes registered.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Use(s.auth)
	r.Use(s.inject)

	r.Get("/user", s.handleUser)
	r.Get("/user/repos", s.handleRepos)
	r.Route("/repos/{owner}/{repo}/issues", func(r chi.Router) {
		r.Get("/", s.handleListIssues)
		r.Post("/", s.handleCreateIssue)
		r.Get("/{number}", s.handleGetIssue)
		r.Patch("/{number}", s.handleUpdateIssue)
		r.Get("/{number}/comments", s.handleListComments)
		r.Post("/{number}/comments", s.handleCreateComment)
	})
	r.Post("/graphql", s.handleGraphQL)
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		s.mu.Lock()
		s.calls = append(s.calls, Call{Method: r.Method, Route: strings.TrimSuffix(route, "/"), Path: r.URL.Path})
		s.mu.Unlock()
	})
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get("Authorization")
		if !strings.HasPrefix(got, "Bearer ") || strings.TrimPrefix(got, "Bearer ") != s.Token {
			writeError(w, http.StatusUnauthorized, "Bad credentials")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// inject serves queued failures and honors Hold for mutations.
func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		var f *failure
		if q := s.failures[key]; len(q) > 0 {
			f = &q[0]
			s.failures[key] = q[1:]
		}
		hold := s.hold
		s.mu.Unlock()
		if f != nil {
			writeError(w, f.status, f.message)
			return
		}
		if hold != nil && r.Method != http.MethodGet {
			<-hold
		}
		next.ServeHTTP(w, r)
	})
}

// Fail makes the next request to method+path answer with status and message.
func (s *Server) Fail(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	s.failures[key] = append(s.failures[key], failure{status: status, message: message})
}

// Hold blocks every non-GET request until release is called.
func (s *Server) Hold() (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.hold = ch
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.hold = nil
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Calls returns every request recorded so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Count returns how many requests matched method and chi route pattern,
// e.g. ("PATCH", "/repos/{owner}/{repo}/issues/{number}").
func (s *Server) Count(method, route string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Method == method && c.Route == route {
			n++
		}
	}
	return n
}

// Mutations counts issue creates and updates.
func (s *Server) Mutations() int {
	return s.Count(http.MethodPost, "/repos/{owner}/{repo}/issues") +
		s.Count(http.MethodPatch, "/repos/{owner}/{repo}/issues/{number}")
}

// AddRepo registers an empty repository.
func (s *Server) AddRepo(owner, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addRepoLocked(owner, name)
}

func (s *Server) addRepoLocked(owner, name string) *repo {
	key := owner + "/" + name
	if rp, ok := s.repos[key]; ok {
		return rp
	}
	rp := &repo{Owner: owner, Name: name, UpdatedAt: s.tickLocked(), comments: map[int][]Comment{}, nextNumber: 1}
	s.repos[key] = rp
	s.order = append(s.order, key)
	return rp
}

// SeedIssue stores an issue directly and returns it.
func (s *Server) SeedIssue(owner, name, title, body, state string, labels ...string) Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	rp := s.addRepoLocked(owner, name)
	is := s.newIssueLocked(rp, title, &body, labels)
	if state != "" {
		is.State = state
	}
	return *is
}

// SeedPullRequest stores a pull request, which the issues endpoint also lists.
func (s *Server) SeedPullRequest(owner, name, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rp := s.addRepoLocked(owner, name)
	is := s.newIssueLocked(rp, title, nil, nil)
	is.PullRequest = &struct{}{}
}

// Issue returns the stored issue with the given number.
func (s *Server) Issue(owner, name string, number int) (Issue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rp, ok := s.repos[owner+"/"+name]
	if !ok {
		return Issue{}, false
	}
	for _, is := range rp.issues {
		if is.Number == number {
			return *is, true
		}
	}
	return Issue{}, false
}

// IssueCount returns the number of stored issues in a repository.
func (s *Server) IssueCount(owner, name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rp, ok := s.repos[owner+"/"+name]; ok {
		return len(rp.issues)
	}
	return 0
}

func (s *Server) tickLocked() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *Server) newIssueLocked(rp *repo, title string, body *string, labels []string) *Issue {
	now := s.tickLocked()
	id := s.nextID
	s.nextID++
	is := &Issue{
		ID:        id,
		NodeID:    "I_" + strconv.FormatInt(id, 10),
		Number:    rp.nextNumber,
		Title:     title,
		Body:      body,
		State:     "open",
		Labels:    toLabels(labels),
		HTMLURL:   fmt.Sprintf("https://github.com/%s/%s/issues/%d", rp.Owner, rp.Name, rp.nextNumber),
		CreatedAt: now,
		UpdatedAt: now,
	}
	rp.nextNumber++
	rp.issues = append(rp.issues, is)
	rp.UpdatedAt = now
	return is
}

func toLabels(names []string) []Label {
	out := make([]Label, 0, len(names))
	for _, n := range names {
		out = append(out, Label{Name: n})
	}
	return out
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.User)
}

func (s *Server) handleRepos(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	type repoOut struct {
		ID        int       `json:"id"`
		Name      string    `json:"name"`
		FullName  string    `json:"full_name"`
		Owner     User      `json:"owner"`
		Private   bool      `json:"private"`
		Open      int       `json:"open_issues_count"`
		HTMLURL   string    `json:"html_url"`
		UpdatedAt time.Time `json:"updated_at"`
	}
	out := make([]repoOut, 0, len(s.order))
	for i, key := range s.order {
		rp := s.repos[key]
		open := 0
		for _, is := range rp.issues {
			if is.State == "open" {
				open++
			}
		}
		out = append(out, repoOut{
			ID:        i + 1,
			Name:      rp.Name,
			FullName:  key,
			Owner:     User{Login: rp.Owner},
			Open:      open,
			HTMLURL:   "https://github.com/" + key,
			UpdatedAt: rp.UpdatedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) repoFor(w http.ResponseWriter, r *http.Request) *repo {
	rp, ok := s.repos[chi.URLParam(r, "owner")+"/"+chi.URLParam(r, "repo")]
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return nil
	}
	return rp
}

func (s *Server) issueFor(w http.ResponseWriter, r *http.Request, rp *repo) *Issue {
	n, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Not Found")
		return nil
	}
	for _, is := range rp.issues {
		if is.Number == n {
			return is
		}
	}
	writeError(w, http.StatusNotFound, "Not Found")
	return nil
}

func (s *Server) handleListIssues(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rp := s.repoFor(w, r)
	if rp == nil {
		return
	}
	state := r.URL.Query().Get("state")
	if state == "" {
		state = "open"
	}
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage <= 0 || perPage > 100 {
		perPage = 30
	}
	list := make([]Issue, 0, len(rp.issues))
	for _, is := range rp.issues {
		if state != "all" && is.State != state {
			continue
		}
		list = append(list, *is)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].UpdatedAt.After(list[j].UpdatedAt) })
	if len(list) > perPage {
		list = list[:perPage]
		w.Header().Set("Link", fmt.Sprintf(`<%s%s?page=2>; rel="next"`, s.ts.URL, r.URL.Path))
	}
	writeJSON(w, http.StatusOK, list)
}

type issueBody struct {
	Title  *string   `json:"title"`
	Body   *string   `json:"body"`
	Labels *[]string `json:"labels"`
	State  *string   `json:"state"`
}

func (s *Server) handleCreateIssue(w http.ResponseWriter, r *http.Request) {
	var in issueBody
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Problems parsing JSON")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rp := s.repoFor(w, r)
	if rp == nil {
		return
	}
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		writeError(w, http.StatusUnprocessableEntity, "Validation Failed")
		return
	}
	var labels []string
	if in.Labels != nil {
		labels = *in.Labels
	}
	is := s.newIssueLocked(rp, *in.Title, in.Body, labels)
	writeJSON(w, http.StatusCreated, is)
}

func (s *Server) handleGetIssue(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rp := s.repoFor(w, r)
	if rp == nil {
		return
	}
	if is := s.issueFor(w, r, rp); is != nil {
		writeJSON(w, http.StatusOK, is)
	}
}

func (s *Server) handleUpdateIssue(w http.ResponseWriter, r *http.Request) {
	var in issueBody
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Problems parsing JSON")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rp := s.repoFor(w, r)
	if rp == nil {
		return
	}
	is := s.issueFor(w, r, rp)
	if is == nil {
		return
	}
	if in.Title != nil {
		is.Title = *in.Title
	}
	if in.Body != nil {
		b := *in.Body
		is.Body = &b
	}
	if in.Labels != nil {
		is.Labels = toLabels(*in.Labels)
	}
	if in.State != nil {
		is.State = *in.State
	}
	is.UpdatedAt = s.tickLocked()
	rp.UpdatedAt = is.UpdatedAt
	writeJSON(w, http.StatusOK, is)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rp := s.repoFor(w, r)
	if rp == nil {
		return
	}
	is := s.issueFor(w, r, rp)
	if is == nil {
		return
	}
	out := rp.comments[is.Number]
	if out == nil {
		out = []Comment{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Problems parsing JSON")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rp := s.repoFor(w, r)
	if rp == nil {
		return
	}
	is := s.issueFor(w, r, rp)
	if is == nil {
		return
	}
	now := s.tickLocked()
	c := Comment{
		ID:        s.nextID,
		Body:      in.Body,
		User:      s.User,
		HTMLURL:   fmt.Sprintf("%s#issuecomment-%d", is.HTMLURL, s.nextID),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.nextID++
	rp.comments[is.Number] = append(rp.comments[is.Number], c)
	is.Comments++
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var req struct {
		Query     string                     `json:"query"`
		Variables map[string]json.RawMessage `json:"variables"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Problems parsing JSON")
		return
	}
	if !strings.Contains(req.Query, "deleteIssue(input: $input)") {
		writeGraphQLError(w, "unsupported operation")
		return
	}
	var input struct {
		IssueID string `json:"issueId"`
	}
	_ = json.Unmarshal(req.Variables["input"], &input)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rp := range s.repos {
		for i, is := range rp.issues {
			if is.NodeID == input.IssueID {
				rp.issues = append(rp.issues[:i], rp.issues[i+1:]...)
				writeJSON(w, http.StatusOK, map[string]any{
					"data": map[string]any{"deleteIssue": map[string]any{"clientMutationId": nil}},
				})
				return
			}
		}
	}
	writeGraphQLError(w, fmt.Sprintf("Could not resolve to a node with the global id of '%s'", input.IssueID))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"message":           msg,
		"documentation_url": "https://docs.github.com/rest",
	})
}

func writeGraphQLError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, map[string]any{
		"data":   nil,
		"errors": []map[string]any{{"message": msg}},
	})
}
