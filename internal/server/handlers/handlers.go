package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/andymarkow/bonustier/internal/accrual"
	"github.com/andymarkow/bonustier/internal/auth"
	"github.com/andymarkow/bonustier/internal/domain/tiers"
	"github.com/andymarkow/bonustier/internal/domain/users"
	"github.com/andymarkow/bonustier/internal/errmsg"
	"github.com/andymarkow/bonustier/internal/server/models"
	"github.com/andymarkow/bonustier/internal/storage"
)

type Handlers struct {
	storage storage.Storage
	catalog *tiers.Catalog
	accrual *accrual.Accrual
	log     *slog.Logger
	auth    *auth.JWTAuth
}

// NewHandlers returns a new Handlers instance.
func NewHandlers(store storage.Storage, catalog *tiers.Catalog, opts ...Option) *Handlers {
	handlers := &Handlers{
		storage: store,
		catalog: catalog,
		log:     slog.Default(),
		auth:    auth.NewJWTAuth([]byte("")),
	}

	// Apply options
	for _, opt := range opts {
		opt(handlers)
	}

	handlers.accrual = accrual.NewAccrual(store, catalog, accrual.WithLogger(handlers.log))

	return handlers
}

// Option is a functional option for Handlers.
type Option func(h *Handlers)

// WithLogger is a option for Handlers that sets logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handlers) {
		h.log = logger
	}
}

func WithAuth(auth *auth.JWTAuth) Option {
	return func(h *Handlers) {
		h.auth = auth
	}
}

type JSONResponse struct {
	Message any `json:"message,omitempty"`
	Error   any `json:"error,omitempty"`
}

func handleJSONResponse(w http.ResponseWriter, status int, resp any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func handleError(w http.ResponseWriter, err errmsg.HTTPError) {
	resp := &JSONResponse{
		Error: err.Error(),
	}

	w.Header().Set("content-type", "application/json")
	w.WriteHeader(err.Code)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (h *Handlers) Ping(w http.ResponseWriter, r *http.Request) {
	if err := h.storage.Ping(r.Context()); err != nil {
		h.log.Error("storage.Ping", slog.Any("error", err))
		handleError(w, errmsg.NewHTTPError(http.StatusInternalServerError, err))

		return
	}

	handleJSONResponse(w, http.StatusOK, &JSONResponse{Message: "ok"})
}

func (h *Handlers) UserRegister(w http.ResponseWriter, r *http.Request) {
	var userPayload models.UserRequest

	if err := json.NewDecoder(r.Body).Decode(&userPayload); err != nil {
		if errors.Is(err, io.EOF) {
			h.log.Error("json.NewDecoder().Decode()", slog.Any("error", err))
			handleError(w, errmsg.ErrRequestPayloadEmpty)

			return
		}

		h.log.Error("json.NewDecoder().Decode()", slog.Any("error", err))
		handleError(w, errmsg.ErrRequestPayloadInvalid)

		return
	}

	defer r.Body.Close()

	user, err := users.CreateUser(userPayload.Login, userPayload.Password)
	if err != nil {
		if errors.Is(err, users.ErrUserLoginEmpty) || errors.Is(err, users.ErrUserPasswdEmpty) {
			h.log.Error("users.CreateUser()", slog.Any("error", err))
			handleError(w, errmsg.NewHTTPError(http.StatusBadRequest, err))

			return
		}

		h.log.Error("users.CreateUser()", slog.Any("error", err))
		handleError(w, errmsg.NewHTTPError(http.StatusInternalServerError, err))

		return
	}

	if err := h.storage.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			h.log.Error("storage.CreateUser()", slog.Any("error", err))
			handleError(w, errmsg.ErrUserAlreadyExists)

			return
		}

		h.log.Error("storage.CreateUser()", slog.Any("error", err))
		handleError(w, errmsg.NewHTTPError(http.StatusInternalServerError, err))

		return
	}

	handleJSONResponse(w, http.StatusCreated, &JSONResponse{Message: "user registered successfully"})
}

func (h *Handlers) UserLogin(w http.ResponseWriter, r *http.Request) {
	var userPayload models.UserRequest

	if err := json.NewDecoder(r.Body).Decode(&userPayload); err != nil {
		if errors.Is(err, io.EOF) {
			h.log.Error("json.NewDecoder().Decode()", slog.Any("error", err))
			handleError(w, errmsg.ErrRequestPayloadEmpty)

			return
		}

		h.log.Error("json.NewDecoder().Decode()", slog.Any("error", err))
		handleError(w, errmsg.ErrRequestPayloadInvalid)

		return
	}

	defer r.Body.Close()

	user, err := h.storage.GetUserByLogin(r.Context(), userPayload.Login)
	if err != nil {
		// Unknown login and wrong password are indistinguishable to the caller.
		if errors.Is(err, storage.ErrUserNotFound) {
			h.log.Error("storage.GetUserByLogin()", slog.Any("error", err))
			handleError(w, errmsg.ErrUserCredentialsInvalid)

			return
		}

		h.log.Error("storage.GetUserByLogin()", slog.Any("error", err))
		handleError(w, errmsg.NewHTTPError(http.StatusInternalServerError, err))

		return
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash()), []byte(userPayload.Password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			h.log.Error("bcrypt.CompareHashAndPassword()", slog.Any("error", err))
			handleError(w, errmsg.ErrUserCredentialsInvalid)

			return
		}

		h.log.Error("bcrypt.CompareHashAndPassword()", slog.Any("error", err))
		handleError(w, errmsg.NewHTTPError(http.StatusInternalServerError, err))

		return
	}

	token, err := h.auth.CreateJWTString(user.ID())
	if err != nil {
		h.log.Error("jwtauth.CreateJWTString()", slog.Any("error", err))
		handleError(w, errmsg.NewHTTPError(http.StatusInternalServerError, err))

		return
	}

	w.Header().Set("Authorization", "Bearer "+token)
	w.Header().Set("content-type", "text/html")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(token)) //nolint:errcheck
}

func (h *Handlers) GetUserBonus(w http.ResponseWriter, r *http.Request) {
	token, _, err := jwtauth.FromContext(r.Context())
	if err != nil {
		h.log.Error("jwtauth.FromContext()", slog.Any("error", err))
		handleError(w, errmsg.NewHTTPError(http.StatusInternalServerError, err))

		return
	}

	// Set user id from JWT sub claim field
	userID := token.Subject()

	user, err := h.storage.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.log.Error("storage.GetUserByID()", slog.Any("error", err))
			handleError(w, errmsg.ErrUserNotFound)

			return
		}

		h.log.Error("storage.GetUserByID()", slog.Any("error", err))
		handleError(w, errmsg.NewHTTPError(http.StatusInternalServerError, err))

		return
	}

	resp := models.BonusStatusResponse{
		CurrentLevel: user.Level(),
		Spending:     user.Spending().InexactFloat64(),
	}

	if next, remaining, ok := h.catalog.ResolveNext(user.Spending()); ok {
		resp.NextLevel = &models.NextLevelResponse{
			LevelName:   next.Name(),
			MinSpending: remaining.InexactFloat64(),
		}
	}

	handleJSONResponse(w, http.StatusOK, resp)
}

func (h *Handlers) AddUserSpending(w http.ResponseWriter, r *http.Request) {
	token, _, err := jwtauth.FromContext(r.Context())
	if err != nil {
		h.log.Error("jwtauth.FromContext()", slog.Any("error", err))
		handleError(w, errmsg.NewHTTPError(http.StatusInternalServerError, err))

		return
	}

	// Set user id from JWT sub claim field
	userID := token.Subject()

	var spendingPayload models.SpendingRequest

	if err := json.NewDecoder(r.Body).Decode(&spendingPayload); err != nil {
		if errors.Is(err, io.EOF) {
			h.log.Error("json.NewDecoder().Decode()", slog.Any("error", err))
			handleError(w, errmsg.ErrRequestPayloadEmpty)

			return
		}

		// Non-numeric amounts fail to decode into a decimal.
		h.log.Error("json.NewDecoder().Decode()", slog.Any("error", err))
		handleError(w, errmsg.ErrSpendingAmountInvalid)

		return
	}

	defer r.Body.Close()

	user, err := h.accrual.Accrue(r.Context(), userID, spendingPayload.Amount)
	if err != nil {
		if errors.Is(err, accrual.ErrAmountNotPositive) {
			h.log.Error("accrual.Accrue()", slog.Any("error", err))
			handleError(w, errmsg.ErrSpendingAmountInvalid)

			return
		}

		if errors.Is(err, storage.ErrUserNotFound) {
			h.log.Error("accrual.Accrue()", slog.Any("error", err))
			handleError(w, errmsg.ErrUserNotFound)

			return
		}

		h.log.Error("accrual.Accrue()", slog.Any("error", err))
		handleError(w, errmsg.NewHTTPError(http.StatusInternalServerError, err))

		return
	}

	resp := models.SpendingResponse{
		NewSpending: user.Spending().InexactFloat64(),
		NewLevel:    user.Level(),
	}

	handleJSONResponse(w, http.StatusOK, resp)
}
