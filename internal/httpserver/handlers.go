package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	authdomain "carqr/backend/internal/domain/auth"
	cardomain "carqr/backend/internal/domain/car"
	authusecase "carqr/backend/internal/usecase/auth"
	carusecase "carqr/backend/internal/usecase/car"
)

func (s *Server) registerRoutes() {
	s.router.Handle("/", http.HandlerFunc(s.handleRoot))
	s.router.Handle("/health", http.HandlerFunc(s.handleHealth))
	s.router.Handle("/users/", http.HandlerFunc(s.handleRegister))
	s.router.Handle("/auth/token", http.HandlerFunc(s.handleToken))
	s.router.Handle("/auth/login", http.HandlerFunc(s.handleLogin))
	s.router.Handle("/auth/logout", http.HandlerFunc(s.handleLogout))
	s.router.Handle("/auth/session", http.HandlerFunc(s.handleSession))
	s.router.Handle("/public/cars/", http.HandlerFunc(s.handlePublicCar))

	authenticated := s.authMiddleware
	s.router.Handle("/users/me", authenticated(http.HandlerFunc(s.handleMe)))
	s.router.Handle("/cars/", authenticated(http.HandlerFunc(s.handleCars)))
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "resource not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello, QR Car Service!"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/users/" {
		writeError(w, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	var payload authusecase.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	user, err := s.authService.Register(r.Context(), payload)
	if err != nil {
		switch {
		case errors.Is(err, authdomain.ErrEmailExists), errors.Is(err, authdomain.ErrPhoneExists):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// handleToken is the programmatic login endpoint. It accepts a form
// with the email in the username field and answers with a bearer token.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form payload")
		return
	}

	token, _, err := s.authService.Login(r.Context(), authdomain.Credentials{
		Email:    r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	})
	if err != nil {
		if errors.Is(err, authdomain.ErrInvalidCredentials) {
			writeUnauthorized(w, "incorrect email or password")
		} else {
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// handleLogin is the browser login endpoint: same credential check as
// handleToken but the token is delivered as a session cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	var creds authdomain.Credentials
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var payload struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON payload")
			return
		}
		creds = authdomain.Credentials{Email: payload.Email, Password: payload.Password}
	} else {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form payload")
			return
		}
		creds = authdomain.Credentials{
			Email:    r.PostFormValue("username"),
			Password: r.PostFormValue("password"),
		}
	}

	token, user, err := s.authService.Login(r.Context(), creds)
	if err != nil {
		if errors.Is(err, authdomain.ErrInvalidCredentials) {
			writeUnauthorized(w, "incorrect email or password")
		} else {
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.sessionCookie,
		Value:    "Bearer " + token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

// handleSession resolves the session cookie to a user. An anonymous
// visitor is redirected to the landing page instead of receiving 401.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	user, ok := s.sessionUser(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	user, ok := currentUserFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleCars(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUserFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/cars/"), "/")
	if id == "" {
		s.handleCarCollection(w, r, user)
		return
	}
	s.handleCarByID(w, r, user, id)
}

func (s *Server) handleCarCollection(w http.ResponseWriter, r *http.Request, user *authdomain.User) {
	ctx := r.Context()
	switch r.Method {
	case http.MethodGet:
		cars, err := s.carService.ListByOwner(ctx, user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if cars == nil {
			cars = []*cardomain.Car{}
		}
		writeJSON(w, http.StatusOK, cars)
	case http.MethodPost:
		var payload carusecase.CreateInput
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON payload")
			return
		}
		car, err := s.carService.Create(ctx, user.ID, payload)
		if err != nil {
			writeCarError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, car)
	default:
		writeMethodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleCarByID(w http.ResponseWriter, r *http.Request, user *authdomain.User, id string) {
	ctx := r.Context()
	switch r.Method {
	case http.MethodGet:
		car, err := s.carService.Get(ctx, user.ID, id)
		if err != nil {
			writeCarError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, car)
	case http.MethodPatch:
		var payload carusecase.UpdateInput
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON payload")
			return
		}
		car, err := s.carService.Update(ctx, user.ID, id, payload)
		if err != nil {
			writeCarError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, car)
	case http.MethodDelete:
		if err := s.carService.Delete(ctx, user.ID, id); err != nil {
			writeCarError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeMethodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

// handlePublicCar is the anonymous plate lookup backing the QR code flow.
func (s *Server) handlePublicCar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	plate := strings.Trim(strings.TrimPrefix(r.URL.Path, "/public/cars/"), "/")
	if plate == "" {
		writeError(w, http.StatusBadRequest, "license plate required")
		return
	}

	info, err := s.carService.PublicLookup(r.Context(), plate)
	if err != nil {
		if errors.Is(err, cardomain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "car with this license plate is not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func writeCarError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cardomain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, cardomain.ErrNotOwner):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, cardomain.ErrDuplicatePlate):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeUnauthorized(w, "authorization token required")
			return
		}

		user, err := s.authService.UserFromToken(r.Context(), token)
		if err != nil {
			if errors.Is(err, authdomain.ErrTokenInvalid) {
				writeUnauthorized(w, "invalid or expired token")
			} else {
				writeError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUser{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionUser resolves the session cookie to a user. All failures
// collapse to absence so callers can redirect instead of erroring.
func (s *Server) sessionUser(r *http.Request) (*authdomain.User, bool) {
	cookie, err := r.Cookie(s.sessionCookie)
	if err != nil {
		return nil, false
	}
	token := extractBearerToken(cookie.Value)
	if token == "" {
		return nil, false
	}
	return s.authService.SessionUser(r.Context(), token)
}

func currentUserFromContext(ctx context.Context) (*authdomain.User, bool) {
	user, ok := ctx.Value(ctxKeyUser{}).(*authdomain.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

type ctxKeyUser struct{}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
