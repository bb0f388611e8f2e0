package server

import (
	"net/http"
	"time"

	"taskview/internal/store"
	"taskview/internal/task"
)

type componentView struct {
	ID      string
	Name    string
	Title   string
	Editing bool
	Tasks   []store.Task
	Notices []string
}

func newView(id string, st *task.State) componentView {
	return componentView{
		ID:      id,
		Name:    task.Name,
		Title:   st.Title,
		Editing: st.Editing(),
		Tasks:   st.Tasks,
		Notices: st.Notices,
	}
}

func staticHandler(contentType, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write([]byte(body))
	}
}

func withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self'; script-src 'self'; base-uri 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

const pageHTML = `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Tasks</title>
    <link rel="stylesheet" href="/static/app.css" />
    <script src="/static/component.js" defer></script>
  </head>
  <body>
    <main class="container">
      <h1 class="title">Tasks</h1>
      {{template "component" .}}
    </main>
  </body>
</html>
{{define "component"}}<section class="tasks" data-component="{{.Name}}" data-component-id="{{.ID}}">
  <form class="add" data-action="add_task">
    <input type="text" name="title" value="{{.Title}}" placeholder="New task..." autocomplete="off" />
    <button type="submit">{{if .Editing}}Add as new{{else}}Add{{end}}</button>
  </form>
  {{range .Notices}}<p class="notice">{{.}}</p>
  {{end}}{{if .Tasks}}<ul class="list">
    {{range .Tasks}}<li data-task-id="{{.ID}}">
      <span class="task-title">{{.Title}}</span>
      <button data-action="preview_task" data-arg="{{.ID}}">Edit</button>
      {{if $.Editing}}<button data-action="update_task" data-arg="{{.ID}}">Save</button>
      {{end}}<button data-action="delete_task" data-arg="{{.ID}}">Delete</button>
    </li>
    {{end}}</ul>{{else}}<p class="empty">No tasks yet.</p>{{end}}
</section>{{end}}`

const componentJS = `(function () {
  "use strict";

  function send(root, name, args) {
    var input = root.querySelector('input[name="title"]');
    var body = {
      id: root.dataset.componentId,
      data: { title: input ? input.value : "" },
      actions: [{ name: name, args: args }]
    };
    fetch("/component/" + root.dataset.component + "/message", {
      method: "POST",
      headers: { "Content-Type": "application/json" },
      body: JSON.stringify(body)
    })
      .then(function (res) {
        if (!res.ok) { throw new Error("status " + res.status); }
        return res.json();
      })
      .then(function (msg) { root.outerHTML = msg.dom; })
      .catch(function (err) { console.error("component update failed:", err); });
  }

  document.addEventListener("submit", function (ev) {
    var root = ev.target.closest("[data-component]");
    if (!root) { return; }
    ev.preventDefault();
    send(root, ev.target.dataset.action, []);
  });

  document.addEventListener("click", function (ev) {
    var btn = ev.target.closest("button[data-arg]");
    if (!btn) { return; }
    var root = btn.closest("[data-component]");
    if (!root) { return; }
    ev.preventDefault();
    send(root, btn.dataset.action, [Number(btn.dataset.arg)]);
  });
})();
`

const appCSS = `:root { color-scheme: light dark; }
body { font-family: system-ui, sans-serif; margin: 0; }
.container { max-width: 40rem; margin: 2rem auto; padding: 0 1rem; }
.title { font-size: 1.6rem; margin-bottom: 1rem; }
.add { display: flex; gap: .5rem; margin-bottom: 1rem; }
.add input { flex: 1; padding: .4rem; }
.list { list-style: none; padding: 0; }
.list li { display: flex; gap: .5rem; align-items: center; padding: .3rem 0; border-bottom: 1px solid #8884; }
.task-title { flex: 1; }
.notice { color: #2a7; margin: .2rem 0; }
.empty { opacity: .6; }
`
