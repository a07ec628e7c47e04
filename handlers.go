package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// Handler struct to encapsulate HTTP handling logic
type Handler struct {
	users        *UserService
	transactions *TransactionService
	auth         *AuthService
	log          zerolog.Logger
}

func NewHandler(users *UserService, transactions *TransactionService, auth *AuthService, log zerolog.Logger) *Handler {
	return &Handler{users: users, transactions: transactions, auth: auth, log: log}
}

func RegisterRouters(mux *chi.Mux, handler *Handler, allowedOrigins []string) {
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(requestLogger(handler.log))
	mux.Use(middleware.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	mux.Route("/api", func(api chi.Router) {
		api.Post("/auth/login", handler.Login)

		api.Route("/users", func(r chi.Router) {
			r.Get("/", handler.ListUsers)
			r.Post("/", handler.CreateUser)
			r.Get("/username/{username}", handler.GetUserByUsername)
			r.Get("/{id}", handler.GetUser)
			r.Put("/{id}", handler.UpdateUser)
			r.Delete("/{id}", handler.DeleteUser)
		})

		api.Route("/transactions", func(r chi.Router) {
			r.Post("/", handler.CreateTransaction)
			r.Get("/{id}", handler.GetTransaction)
			r.Put("/{id}", handler.UpdateTransaction)
			r.Delete("/{id}", handler.DeleteTransaction)

			r.Route("/user/{userId}", func(r chi.Router) {
				r.Get("/", handler.ListTransactions)
				r.Get("/type/{type}", handler.ListTransactionsByType)
				r.Get("/category/{category}", handler.ListTransactionsByCategory)
				r.Get("/daterange", handler.ListTransactionsByDateRange)
				r.Get("/summary", handler.GetSummary)
				r.Get("/export", handler.ExportTransactions)
			})
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the error kind to a status and writes an ApiResponse.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	switch {
	case errors.Is(err, ErrValidation):
		status = http.StatusBadRequest
		message = strings.TrimPrefix(message, ErrValidation.Error()+": ")
	case errors.Is(err, ErrUnauthorized):
		status = http.StatusUnauthorized
		message = invalidCredentials
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrConflict):
		status = http.StatusConflict
	default:
		h.log.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
	}

	writeJSON(w, status, ApiResponse{Success: false, Message: message})
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", ErrValidation, name)
	}
	return id, nil
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request payload: %v", ErrValidation, err)
	}
	return nil
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var credentials LoginRequest
	if err := decodeBody(r, &credentials); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.auth.Login(r.Context(), credentials.Username, credentials.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) GetUserByUsername(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUserByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	user.Password = ""
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var dto UserDTO
	if err := decodeBody(r, &dto); err != nil {
		h.writeError(w, r, err)
		return
	}
	created, err := h.users.CreateUser(r.Context(), dto)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var dto UserDTO
	if err := decodeBody(r, &dto); err != nil {
		h.writeError(w, r, err)
		return
	}
	updated, err := h.users.UpdateUser(r.Context(), id, dto)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	items, err := h.transactions.ListByUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) ListTransactionsByType(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	items, err := h.transactions.ListByUserAndType(r.Context(), userID, chi.URLParam(r, "type"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) ListTransactionsByCategory(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	items, err := h.transactions.ListByUserAndCategory(r.Context(), userID, chi.URLParam(r, "category"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) ListTransactionsByDateRange(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	query := r.URL.Query()
	start, err := ParseDateTime(query.Get("start"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	end, err := ParseDateTime(query.Get("end"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items, err := h.transactions.ListByUserAndDateRange(r.Context(), userID, start, end)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	summary, err := h.transactions.Summary(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	item, err := h.transactions.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var dto TransactionDTO
	if err := decodeBody(r, &dto); err != nil {
		h.writeError(w, r, err)
		return
	}
	created, err := h.transactions.Create(r.Context(), dto)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var dto TransactionDTO
	if err := decodeBody(r, &dto); err != nil {
		h.writeError(w, r, err)
		return
	}
	updated, err := h.transactions.Update(r.Context(), id, dto)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.transactions.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent) // 204 No Content
}
