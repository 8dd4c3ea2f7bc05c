package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/deferscky/stringeditor/internal/cryptox"
	"github.com/deferscky/stringeditor/internal/logging"
	"github.com/deferscky/stringeditor/internal/server/metrics"
	"github.com/deferscky/stringeditor/internal/server/repositories/repomanager"
	"github.com/deferscky/stringeditor/internal/server/repositories/repotest"
	"github.com/deferscky/stringeditor/internal/server/services"
	"github.com/deferscky/stringeditor/internal/server/sessions"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

type fakePinger struct {
	err error
}

func (p *fakePinger) PingContext(context.Context) error { return p.err }

type testServer struct {
	handler  http.Handler
	pinger   *fakePinger
	sessions *sessions.Table
	metrics  *metrics.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := repotest.NewDB(t)
	rm := repomanager.NewSQLiteRepositoryManager()
	table := sessions.New()
	mx := metrics.New(func() float64 { return float64(table.Count()) })
	log := logging.Discard()
	hasher := cryptox.NewHasher(cryptox.Params{Time: 1, Memory: 1024, Threads: 1, SaltLen: 16, KeyLen: 32})

	history := services.NewHistoryService(db, rm, mx, log)
	pinger := &fakePinger{}

	srv := NewHTTPServer("127.0.0.1:0", time.Second, log, Deps{
		Accounts:       services.NewAccountService(db, rm, table, hasher, 6, mx, log),
		Content:        services.NewContentService(db, rm, history, log),
		History:        history,
		Store:          pinger,
		Metrics:        mx,
		ActiveSessions: table.Count,
		Version:        "test",
	})

	return &testServer{handler: srv.Handler(), pinger: pinger, sessions: table, metrics: mx}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) post(t *testing.T, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(t, http.MethodPost, path, token, body)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) registerAndLogin(t *testing.T, login, password string) string {
	t.Helper()

	rec := s.post(t, "/auth/register", "", echo.Map{"login": login, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.post(t, "/auth/login", "", echo.Map{"login": login, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	return decode[tokenResponse](t, rec).Token
}

// --- tests ---

func TestScenario_AliceChangesPassword(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin(t, "alice", "secret1")

	rec := s.post(t, "/strings/save", token, echo.Map{"strings": []string{"b", "a", "c"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decode[saveResponse](t, rec).Count)

	rec = s.post(t, "/strings/get-all", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.ElementsMatch(t, []string{"b", "a", "c"}, decode[getAllResponse](t, rec).Strings)

	rec = s.post(t, "/auth/change-password", token, echo.Map{"oldPassword": "secret1", "newPassword": "secret2"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.post(t, "/strings/get-all", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.post(t, "/auth/login", "", echo.Map{"login": "alice", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.post(t, "/auth/login", "", echo.Map{"login": "alice", "password": "secret2"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[tokenResponse](t, rec).Token)
}

func TestRegister_StatusCodes(t *testing.T) {
	s := newTestServer(t)

	rec := s.post(t, "/auth/register", "", echo.Map{"login": "alice", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.post(t, "/auth/register", "", echo.Map{"login": "alice", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.post(t, "/auth/register", "", echo.Map{"login": "", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.post(t, "/auth/register", "", echo.Map{"login": "bob", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFieldNamesAreCaseInsensitive(t *testing.T) {
	s := newTestServer(t)

	rec := s.post(t, "/auth/register", "", echo.Map{"Login": "alice", "PASSWORD": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.post(t, "/auth/login", "", echo.Map{"LOGIN": "alice", "Password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLogin_FailuresAreIdentical(t *testing.T) {
	s := newTestServer(t)
	s.registerAndLogin(t, "alice", "secret1")

	wrong := s.post(t, "/auth/login", "", echo.Map{"login": "alice", "password": "nope-nope"})
	unknown := s.post(t, "/auth/login", "", echo.Map{"login": "mallory", "password": "secret1"})

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, wrong.Code, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
}

func TestBearerAuth(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin(t, "alice", "secret1")

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"no token", "Bearer ", http.StatusUnauthorized},
		{"unknown token", "Bearer abc", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/strings/get-all", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			s.handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
			}
		})
	}
}

func TestChangePassword_WrongOldIsBadRequest(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin(t, "alice", "secret1")

	rec := s.post(t, "/auth/change-password", token, echo.Map{"oldPassword": "nope-nope", "newPassword": "secret2"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.post(t, "/strings/get-all", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "token survives a failed change")
}

func TestDeleteAccount(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin(t, "alice", "secret1")
	other := s.registerAndLogin(t, "bob", "secret1")

	rec := s.post(t, "/strings/save", token, echo.Map{"strings": []string{"x"}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.post(t, "/auth/delete-account", token, echo.Map{"password": "wrong-one"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.post(t, "/auth/delete-account", token, echo.Map{"password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.post(t, "/strings/get-all", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.post(t, "/auth/login", "", echo.Map{"login": "alice", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.post(t, "/strings/get-all", other, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStrings_SaveValidationAndDeleteAll(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin(t, "alice", "secret1")

	rec := s.post(t, "/strings/save", token, echo.Map{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.post(t, "/strings/save", token, echo.Map{"strings": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.post(t, "/strings/delete-all", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.post(t, "/strings/get-all", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"strings":[]}`, rec.Body.String())
}

func TestStrings_Transforms(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin(t, "alice", "secret1")
	lines := []string{"pear", "apple", "Apple pie"}

	rec := s.post(t, "/strings/sort", token, echo.Map{"strings": lines})
	require.Equal(t, http.StatusOK, rec.Code)
	sorted := decode[sortResponse](t, rec)
	assert.Equal(t, []string{"Apple pie", "apple", "pear"}, sorted.SortedStrings)
	assert.GreaterOrEqual(t, sorted.ExecutionTimeMs, int64(1))

	rec = s.post(t, "/strings/sort", token, echo.Map{"strings": lines, "ascending": false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"pear", "apple", "Apple pie"}, decode[sortResponse](t, rec).SortedStrings)

	rec = s.post(t, "/strings/search", token, echo.Map{"strings": lines, "searchText": "apple", "caseSensitive": false})
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[searchResponse](t, rec)
	assert.Equal(t, 2, found.FoundCount)
	assert.Equal(t, 1, found.Results[0].Index)

	rec = s.post(t, "/strings/search", token, echo.Map{"strings": lines, "searchText": "kiwi"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no matches", decode[noMatchesResponse](t, rec).Message)

	rec = s.post(t, "/strings/search", token, echo.Map{"strings": lines, "searchText": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.post(t, "/strings/replace", token, echo.Map{"strings": lines, "oldValue": "apple", "newValue": "plum", "caseSensitive": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"pear", "plum", "Apple pie"}, decode[replaceResponse](t, rec).ModifiedStrings)

	rec = s.post(t, "/strings/delete", token, echo.Map{"strings": lines, "indicesToDelete": []int{2, 9}})
	require.Equal(t, http.StatusOK, rec.Code)
	del := decode[deleteResponse](t, rec)
	assert.Equal(t, []string{"pear", "apple"}, del.RemainingStrings)
	assert.Equal(t, 1, del.DeletedCount)

	rec = s.post(t, "/history/get", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	hist := decode[[]operationResponse](t, rec)
	// the rejected empty search is not recorded
	require.Len(t, hist, 6)
	assert.Equal(t, "delete", hist[0].OperationType)
	assert.Equal(t, "replace", hist[1].OperationType)
	assert.Equal(t, "sort", hist[5].OperationType)
	_, err := time.Parse(time.RFC3339, hist[0].OperationTime)
	require.NoError(t, err)
}

func TestHistory_RequiresAuth(t *testing.T) {
	s := newTestServer(t)

	rec := s.post(t, "/history/get", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServiceEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.registerAndLogin(t, "alice", "secret1")

	rec := s.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	idx := decode[indexResponse](t, rec)
	assert.Equal(t, "test", idx.Version)
	assert.Contains(t, idx.Endpoints, "POST /auth/login")

	rec = s.do(t, http.MethodGet, "/system/info", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[systemInfoResponse](t, rec).ActiveSessions)

	rec = s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	s.pinger.err = errors.New("down")
	rec = s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "string_editor_sessions_active 1")
	assert.Contains(t, rec.Body.String(), "string_editor_http_requests_total")
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/", "", nil)
	assert.Len(t, rec.Header().Get(echo.HeaderXRequestID), 36)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())

	srv := NewHTTPServer(addr, time.Second, logging.Discard(), Deps{Store: &fakePinger{}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 3*time.Second, 50*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	srv := NewHTTPServer("127.0.0.1:99999", time.Second, logging.Discard(), Deps{})

	err := srv.Run(context.Background())
	require.Error(t, err)
}
