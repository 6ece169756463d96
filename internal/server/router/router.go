package router

import (
	"log/slog"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"

	"github.com/andymarkow/bonustier/internal/auth"
	"github.com/andymarkow/bonustier/internal/domain/tiers"
	"github.com/andymarkow/bonustier/internal/server/handlers"
	"github.com/andymarkow/bonustier/internal/storage"
)

type Options struct {
	log      *slog.Logger
	secret   []byte
	authOpts []auth.Option
}

func NewRouter(store storage.Storage, catalog *tiers.Catalog, opts ...Option) chi.Router {
	r := chi.NewRouter()

	rOpts := Options{
		log:    slog.Default(),
		secret: []byte(""),
	}

	for _, opt := range opts {
		opt(&rOpts)
	}

	tokenAuth := jwtauth.New("HS256", rOpts.secret, nil)

	r.Use(
		middleware.Recoverer,
		middleware.StripSlashes,
		middleware.Logger,
	)

	h := handlers.NewHandlers(store, catalog,
		handlers.WithLogger(rOpts.log),
		handlers.WithAuth(auth.NewJWTAuth(rOpts.secret, rOpts.authOpts...)),
	)

	r.Get("/ping", h.Ping)

	r.Group(func(r chi.Router) {
		r.Post("/api/user/register", h.UserRegister)
		r.Post("/api/user/login", h.UserLogin)
	})

	r.Group(func(r chi.Router) {
		r.Use(
			jwtauth.Verifier(tokenAuth),
			jwtauth.Authenticator(tokenAuth),
		)

		r.Get("/api/user/bonus", h.GetUserBonus)
		r.Post("/api/user/spending", h.AddUserSpending)
	})

	return r
}

type Option func(r *Options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.log = logger
	}
}

func WithSecret(secret []byte) Option {
	return func(o *Options) {
		o.secret = secret
	}
}

func WithAuthOptions(opts ...auth.Option) Option {
	return func(o *Options) {
		o.authOpts = opts
	}
}
