package api

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"
)

// NewRouter registers every route on a fresh router. Data endpoints verify
// the session themselves; /private redirects anonymous visitors to /.
func NewRouter(s *Server) *mux.Router {
	r := mux.NewRouter()
	r.Use(mux.CORSMethodMiddleware(r), s.cors)

	api := func(h http.HandlerFunc) http.Handler { return s.auth.RequireAPI(h) }

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "OK")
	}).Methods(http.MethodGet)

	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/signup", s.handleSignup).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/logout", s.handleLogout).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/auth-status", s.handleAuthStatus).Methods(http.MethodGet, http.MethodOptions)
	r.Handle("/private", s.auth.RequirePage(http.HandlerFunc(s.handlePrivate))).Methods(http.MethodGet)

	r.Handle("/webhook/{resource:tasks|goals|profile}", api(s.handleResource)).Methods(http.MethodGet, http.MethodOptions)
	r.Handle("/webhook/add-task", api(s.handleAddTask)).Methods(http.MethodPost, http.MethodOptions)
	r.Handle("/webhook/task-done", api(s.handleTaskDone)).Methods(http.MethodPost, http.MethodOptions)
	r.Handle("/webhook/feedback", api(s.handleFeedback)).Methods(http.MethodPost, http.MethodOptions)
	r.Handle("/update-profile", api(s.handleUpdateProfile)).Methods(http.MethodPost, http.MethodOptions)

	if s.opts.Debug {
		r.Handle("/debug/upstream/{resource:tasks|goals|profile}", api(s.handleDebugUpstream)).Methods(http.MethodGet)
	}

	static := s.opts.StaticDir
	if static == "" {
		static = "."
	}
	loginPath := filepath.Join(static, "login.html")
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, loginPath)
	}).Methods(http.MethodGet)
	r.HandleFunc("/index.html", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/", http.StatusFound)
	}).Methods(http.MethodGet)
	if s.opts.PrivatePage != "" {
		r.HandleFunc("/"+s.opts.PrivatePage, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/private", http.StatusFound)
		}).Methods(http.MethodGet)
	}

	r.PathPrefix("/").Handler(http.FileServer(http.Dir(static))).Methods(http.MethodGet)
	return r
}
