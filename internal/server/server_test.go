package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskview/internal/store"
	"taskview/internal/task"
	"taskview/pkg/mq"
)

type fixture struct {
	st  *store.Store
	bus *mq.Bus
	srv *Server
	ts  *httptest.Server
}

func newFixture(t *testing.T, notices bool) *fixture {
	t.Helper()
	st, err := store.Open(context.Background(), store.DriverSQLite, filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	bus := mq.NewBus()
	comp := task.New(st, task.WithEvents(bus), task.WithNotices(notices))
	srv := New(st, comp, Options{ExportTTL: time.Minute})
	srv.newID = func() string { return "cid-1" }
	require.NoError(t, srv.Watch(bus))

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &fixture{st: st, bus: bus, srv: srv, ts: ts}
}

func (f *fixture) message(t *testing.T, body string) (int, messageResponse) {
	t.Helper()
	resp, err := http.Post(f.ts.URL+"/component/task/message", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out messageResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, false)
	resp, body := get(t, f.ts.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestIndex_RendersComponent(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.st.CreateTask(context.Background(), "<b>Buy milk</b>")
	require.NoError(t, err)

	resp, body := get(t, f.ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, `data-component="task"`)
	assert.Contains(t, body, `data-component-id="cid-1"`)
	assert.Contains(t, body, "&lt;b&gt;Buy milk&lt;/b&gt;")
	assert.Contains(t, body, `src="/static/component.js"`)
}

func TestIndex_EmptyList(t *testing.T) {
	f := newFixture(t, false)
	_, body := get(t, f.ts.URL+"/")
	assert.Contains(t, body, "No tasks yet.")
}

func TestUnknownPath(t *testing.T) {
	f := newFixture(t, false)
	resp, _ := get(t, f.ts.URL+"/admin/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMessage_Scenario(t *testing.T) {
	f := newFixture(t, true)

	code, res := f.message(t, `{"id":"c1","data":{"title":"Buy milk"},"actions":[{"name":"add_task"}]}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "c1", res.ID)
	assert.Equal(t, "", res.Data.Title)
	require.Len(t, res.Data.Tasks, 1)
	assert.Equal(t, "Buy milk", res.Data.Tasks[0].Title)
	assert.Equal(t, []string{"task added"}, res.Notices)
	assert.Contains(t, res.DOM, "Buy milk")
	id := res.Data.Tasks[0].ID

	code, res = f.message(t, `{"id":"c1","data":{"title":""},"actions":[{"name":"preview_task","args":[`+itoa(id)+`]}]}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Buy milk", res.Data.Title)
	assert.Empty(t, res.Notices)
	assert.Contains(t, res.DOM, `value="Buy milk"`)
	assert.Contains(t, res.DOM, `data-action="update_task"`)

	code, res = f.message(t, `{"id":"c1","data":{"title":"Buy bread"},"actions":[{"name":"update_task","args":["`+itoa(id)+`"]}]}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "", res.Data.Title)
	require.Len(t, res.Data.Tasks, 1)
	assert.Equal(t, "Buy bread", res.Data.Tasks[0].Title)
	assert.NotContains(t, res.DOM, `data-action="update_task"`)

	code, res = f.message(t, `{"id":"c1","data":{"title":""},"actions":[{"name":"delete_task","args":[`+itoa(id)+`]}]}`)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, res.Data.Tasks)
	assert.Equal(t, []string{"task deleted"}, res.Notices)
	assert.Contains(t, res.DOM, "No tasks yet.")
}

func TestMessage_NoActionsRefreshes(t *testing.T) {
	f := newFixture(t, false)
	_, _ = f.st.CreateTask(context.Background(), "one")

	code, res := f.message(t, `{"data":{"title":"draft"}}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "cid-1", res.ID)
	assert.Equal(t, "draft", res.Data.Title)
	require.Len(t, res.Data.Tasks, 1)
}

func TestMessage_MissingIDIsNoop(t *testing.T) {
	f := newFixture(t, true)
	code, res := f.message(t, `{"data":{"title":"kept"},"actions":[{"name":"update_task","args":[99]}]}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "kept", res.Data.Title)
	assert.Empty(t, res.Notices)
	assert.Empty(t, res.Data.Tasks)
}

func TestMessage_Errors(t *testing.T) {
	f := newFixture(t, false)

	resp, err := http.Post(f.ts.URL+"/component/other/message", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	code, _ := f.message(t, `{not json`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = f.message(t, `{"actions":[{"name":"drop_table"}]}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = f.message(t, `{"actions":[{"name":"delete_task","args":[1.5]}]}`)
	assert.Equal(t, http.StatusBadRequest, code)

	// a bad action later in the message rejects the whole message
	code, _ = f.message(t, `{"data":{"title":"kept out"},"actions":[{"name":"add_task"},{"name":"drop_table"}]}`)
	assert.Equal(t, http.StatusBadRequest, code)
	n, err := f.st.CountTasks(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	resp, _ = get(t, f.ts.URL+"/component/task/message")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

type brokenRepo struct{}

var errBroken = errors.New("store offline")

func (brokenRepo) AllTasks(context.Context) ([]store.Task, error) { return nil, errBroken }
func (brokenRepo) GetTask(context.Context, int64) (store.Task, bool, error) {
	return store.Task{}, false, errBroken
}
func (brokenRepo) CreateTask(context.Context, string) (store.Task, error) {
	return store.Task{}, errBroken
}
func (brokenRepo) UpdateTask(context.Context, int64, string) error { return errBroken }
func (brokenRepo) DeleteTask(context.Context, int64) error         { return errBroken }

func TestStoreFailure_Is500(t *testing.T) {
	srv := New(brokenRepo{}, task.New(brokenRepo{}), Options{})
	h := srv.Handler()

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/", nil),
		httptest.NewRequest(http.MethodGet, "/tasks", nil),
		httptest.NewRequest(http.MethodGet, "/export?format=csv", nil),
		httptest.NewRequest(http.MethodPost, "/component/task/message", strings.NewReader(`{"data":{"title":"x"},"actions":[{"name":"add_task"}]}`)),
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, "%s %s", req.Method, req.URL)
		assert.Contains(t, rec.Body.String(), "store offline")
	}
}

func TestListTasks(t *testing.T) {
	f := newFixture(t, false)
	_, _ = f.st.CreateTask(context.Background(), "a")
	_, _ = f.st.CreateTask(context.Background(), "b")

	resp, body := get(t, f.ts.URL+"/tasks")
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var got []store.Task
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Title)
	assert.Equal(t, "b", got[1].Title)
}

func TestExport_FormatsAndCache(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	_, _ = f.st.CreateTask(ctx, "first")

	resp, body := get(t, f.ts.URL+"/export?format=csv")
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Equal(t, "id,title\n1,first\n", body)

	// written behind the component's back: no event, cached payload stays
	_, _ = f.st.CreateTask(ctx, "second")
	_, body = get(t, f.ts.URL+"/export?format=csv")
	assert.Equal(t, "id,title\n1,first\n", body)

	// a component write publishes an event and drops the cache
	code, _ := f.message(t, `{"data":{"title":"third"},"actions":[{"name":"add_task"}]}`)
	require.Equal(t, http.StatusOK, code)
	_, body = get(t, f.ts.URL+"/export?format=csv")
	assert.Equal(t, "id,title\n1,first\n2,second\n3,third\n", body)

	resp, body = get(t, f.ts.URL+"/export")
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, `"title": "third"`)

	resp, body = get(t, f.ts.URL+"/export?format=pdf")
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(body, "%PDF-"))

	resp, _ = get(t, f.ts.URL+"/export?format=xml")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// eventDuringExport publishes a task event right after the export has read
// the store, like a write landing mid-export.
type eventDuringExport struct {
	*store.Store
	bus   *mq.Bus
	fired bool
}

func (e *eventDuringExport) AllTasks(ctx context.Context) ([]store.Task, error) {
	all, err := e.Store.AllTasks(ctx)
	if !e.fired {
		e.fired = true
		_ = mq.PublishEvent(e.bus, mq.Event{Topic: mq.TopicTaskAdded, TaskID: 99, Title: "late"})
	}
	return all, err
}

func TestExport_EventDuringExportSkipsCache(t *testing.T) {
	st, err := store.Open(context.Background(), store.DriverSQLite, filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	_, err = st.CreateTask(context.Background(), "first")
	require.NoError(t, err)

	bus := mq.NewBus()
	repo := &eventDuringExport{Store: st, bus: bus}
	srv := New(repo, task.New(repo), Options{ExportTTL: time.Minute})
	require.NoError(t, srv.Watch(bus))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export?format=csv", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "id,title\n1,first\n", rec.Body.String())
	assert.Zero(t, srv.cache.Len())

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export?format=csv", nil))
	assert.Equal(t, 1, srv.cache.Len())
}

func TestStaticAssets(t *testing.T) {
	f := newFixture(t, false)
	resp, body := get(t, f.ts.URL+"/static/component.js")
	assert.Contains(t, resp.Header.Get("Content-Type"), "javascript")
	assert.Contains(t, body, "/message")

	resp, _ = get(t, f.ts.URL+"/static/app.css")
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/css")
}

// blockingRepo holds AllTasks until release is closed.
type blockingRepo struct {
	brokenRepo
	entered chan struct{}
	release chan struct{}
}

func (b blockingRepo) AllTasks(context.Context) ([]store.Task, error) {
	close(b.entered)
	<-b.release
	return []store.Task{{ID: 1, Title: "slow"}}, nil
}

func TestServe_WaitsForInFlightRequests(t *testing.T) {
	repo := blockingRepo{entered: make(chan struct{}), release: make(chan struct{})}
	srv := New(repo, task.New(repo), Options{})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	type reply struct {
		code int
		err  error
	}
	replies := make(chan reply, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String() + "/tasks")
		if err != nil {
			replies <- reply{err: err}
			return
		}
		resp.Body.Close()
		replies <- reply{code: resp.StatusCode}
	}()

	<-repo.entered
	cancel()
	select {
	case err := <-done:
		t.Fatalf("Serve returned with a request in flight: %v", err)
	case <-time.After(200 * time.Millisecond):
	}

	close(repo.release)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	r := <-replies
	require.NoError(t, r.err)
	assert.Equal(t, http.StatusOK, r.code)
}

func TestListenAndServe_BadAddr(t *testing.T) {
	srv := New(brokenRepo{}, task.New(brokenRepo{}), Options{})
	assert.Error(t, srv.ListenAndServe(context.Background(), "127.0.0.1:-1"))
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	srv := New(brokenRepo{}, task.New(brokenRepo{}), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
