package twin

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Default client pair accepted by the token endpoint.
const (
	DefaultClientID     = "myclientid"
	DefaultClientSecret = "myclientsecret"
)

// Server is the twin backend.
type Server struct {
	store        *Store
	clientID     string
	clientSecret string
}

// NewServer creates a twin server over store with the default client pair.
func NewServer(store *Store) *Server {
	return &Server{store: store, clientID: DefaultClientID, clientSecret: DefaultClientSecret}
}

// Router mounts all routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Post("/oauth2/token", s.handleToken)

	r.Group(func(r chi.Router) {
		r.Use(s.identify)

		// Catalog reads are public.
		r.Get("/products", s.handleListProducts)
		r.Get("/products/{id}", s.handleGetProduct)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/products", s.handleInsertProduct)
			r.Delete("/products/{id}", s.handleDeleteProduct)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)
			r.Get("/orders/{id}", s.handleGetOrder)
		})
	})

	return r
}

type ctxKey int

const userKey ctxKey = 0

// identify resolves a presented bearer token. A missing header leaves the
// request anonymous; a presented token that fails verification is rejected
// even on public routes.
func (s *Server) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "Token inválido")
			return
		}
		user, ok := s.store.UserForToken(token)
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "Token inválido")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := currentUser(r); !ok {
			writeError(w, r, http.StatusUnauthorized, "Autenticação necessária")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(r)
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "Autenticação necessária")
			return
		}
		if !user.Admin {
			writeError(w, r, http.StatusForbidden, "Acesso negado")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func currentUser(r *http.Request) (User, bool) {
	user, ok := r.Context().Value(userKey).(User)
	return user, ok
}
