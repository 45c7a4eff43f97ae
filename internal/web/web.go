// Package web serves a read-only board over the local snapshot, so the
// last-synced tasks stay reachable from a browser while the TUI runs.
package web

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"taskdeck/internal/model"
	"taskdeck/internal/snapshot"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.tmpl"))

type Server struct {
	snap *snapshot.Store
}

func NewServer(snap *snapshot.Store) *Server {
	return &Server{snap: snap}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.indexHandler)
	mux.HandleFunc("/api/tasks", s.apiTasksHandler)
	mux.HandleFunc("/api/task-logs", s.apiTaskLogsHandler)
	return mux
}

type boardColumn struct {
	Title string
	Tasks []model.Task
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.snap.Tasks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	var todo, inProgress, done []model.Task
	overdue := 0
	now := time.Now()
	for _, task := range tasks {
		switch task.Status {
		case model.StatusInProgress:
			inProgress = append(inProgress, task)
		case model.StatusDone:
			done = append(done, task)
		case model.StatusToDo:
			todo = append(todo, task)
		}
		if task.OverdueAt(now) {
			overdue++
		}
	}

	data := struct {
		Total   int
		Overdue int
		Columns []boardColumn
	}{
		Total:   len(tasks),
		Overdue: overdue,
		Columns: []boardColumn{
			{Title: "To Do", Tasks: todo},
			{Title: "In Progress", Tasks: inProgress},
			{Title: "Done", Tasks: done},
		},
	}

	if err := indexTemplate.Execute(w, data); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
}

func (s *Server) apiTasksHandler(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.snap.Tasks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, tasks)
}

func (s *Server) apiTaskLogsHandler(w http.ResponseWriter, r *http.Request) {
	logs, err := s.snap.TaskLogs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, logs)
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.WriteHeader(status)
	_, _ = w.Write([]byte(err.Error()))
}
