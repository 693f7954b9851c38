package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"restaurant_menu/internal/app/service"
	"restaurant_menu/internal/common"
	"restaurant_menu/internal/common/security"
	"restaurant_menu/internal/domain/model"
	"restaurant_menu/internal/platform/logging"
)

type AuthHandler struct {
	authService   *service.AuthService
	logger        logging.Logger
	secureCookies bool
}

func NewAuthHandler(authService *service.AuthService, logger logging.Logger, secureCookies bool) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger, secureCookies: secureCookies}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Get("/verify", h.verify)
	r.Post("/logout", h.logout)
}

type registerResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

type loginResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
	IsAdmin bool        `json:"isAdmin"`
}

type verifyResponse struct {
	User    *model.User `json:"user"`
	IsAdmin bool        `json:"isAdmin"`
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	user, err := h.authService.Register(r.Context(), req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	h.logger.Info(r.Context(), "user registered", "user_id", user.ID, "role", user.Role)
	common.RespondWithJSON(w, http.StatusCreated, registerResponse{Message: "User created successfully", User: user})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	session, err := h.authService.Login(r.Context(), req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	security.SetSessionCookie(w, session.Token, h.secureCookies)
	common.RespondWithJSON(w, http.StatusOK, loginResponse{
		Message: "Login successful",
		User:    session.User,
		IsAdmin: session.IsAdmin,
	})
}

func (h *AuthHandler) verify(w http.ResponseWriter, r *http.Request) {
	session, err := h.authService.Verify(r.Context(), security.SessionTokenFromRequest(r))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, verifyResponse{User: session.User, IsAdmin: session.IsAdmin})
}

// logout only expires the cookie; issued tokens stay valid until they expire.
func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	security.ClearSessionCookie(w, h.secureCookies)
	common.RespondWithJSON(w, http.StatusOK, common.MessageResponse{Message: "Logout successful"})
}
