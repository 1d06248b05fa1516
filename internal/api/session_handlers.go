package api

import (
	"errors"
	"html"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/harrylevesque/taskboard/internal/auth"
)

// EmailPlaceholder is replaced with the signed-in email in the private page.
const EmailPlaceholder = "{{userEmail}}"

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func isJSON(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "application/json"
}

// readCredentials accepts a JSON body or a form post.
func readCredentials(r *http.Request) (credentials, error) {
	var c credentials
	if isJSON(r) {
		if err := decodeBody(r, &c); err != nil {
			return c, err
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return c, err
		}
		c.Email = r.PostFormValue("email")
		c.Password = r.PostFormValue("password")
	}
	if strings.TrimSpace(c.Email) == "" || c.Password == "" {
		return c, errors.New("email and password are required")
	}
	return c, nil
}

func redirectError(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, "/error.html?msg="+url.QueryEscape(msg), http.StatusFound)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	jsonReq := isJSON(r)
	c, err := readCredentials(r)
	if err != nil {
		if jsonReq {
			badRequest(w, err.Error())
		} else {
			redirectError(w, r, err.Error())
		}
		return
	}

	if err := s.auth.Login(r.Context(), c.Email, c.Password, w, r); err != nil {
		s.logger.Info("login rejected", zap.String("email", c.Email), zap.Error(err))
		if jsonReq {
			auth.ErrorResponse(w, err)
		} else {
			redirectError(w, r, err.Error())
		}
		return
	}

	s.logger.Info("login", zap.String("email", c.Email))
	if jsonReq {
		auth.JSONResponse(w, http.StatusOK, map[string]any{"authenticated": true, "email": c.Email})
		return
	}
	http.Redirect(w, r, "/private", http.StatusFound)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	jsonReq := isJSON(r)
	reg, ok := s.provider.(auth.Registrar)
	if !ok {
		if jsonReq {
			auth.JSONResponse(w, http.StatusNotImplemented, map[string]string{"error": "sign-up is not supported"})
		} else {
			redirectError(w, r, "sign-up is not supported")
		}
		return
	}

	c, err := readCredentials(r)
	if err == nil {
		err = reg.Register(c.Email, c.Password)
	}
	if err != nil {
		if jsonReq {
			if errors.Is(err, auth.ErrUserExists) {
				auth.ErrorResponse(w, err)
			} else {
				badRequest(w, err.Error())
			}
		} else {
			redirectError(w, r, err.Error())
		}
		return
	}

	s.logger.Info("sign-up", zap.String("email", c.Email))
	if jsonReq {
		auth.JSONResponse(w, http.StatusCreated, map[string]string{"email": c.Email})
		return
	}
	http.Redirect(w, r, "/signup_success.html", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(w, r); err != nil {
		s.logger.Warn("logout failed", zap.Error(err))
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	email, err := s.auth.CurrentUser(r)
	if err != nil {
		auth.JSONResponse(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	auth.JSONResponse(w, http.StatusOK, map[string]any{"authenticated": true, "email": email})
}

// handlePrivate serves the dashboard page with the user's email filled in.
func (s *Server) handlePrivate(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(s.opts.StaticDir, s.opts.PrivatePage)
	page, err := os.ReadFile(path)
	if err != nil {
		s.logger.Error("private page could not be loaded", zap.String("path", path), zap.Error(err))
		http.Error(w, "Server error: private page not found.", http.StatusInternalServerError)
		return
	}
	email := auth.EmailFromContext(r.Context())
	out := strings.Replace(string(page), EmailPlaceholder, html.EscapeString(email), 1)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(out))
}
