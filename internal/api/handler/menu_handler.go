package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"restaurant_menu/internal/api/middleware"
	"restaurant_menu/internal/app/service"
	"restaurant_menu/internal/common"
	"restaurant_menu/internal/domain/model"
	"restaurant_menu/internal/platform/logging"
)

const defaultMaxUploadBytes = 10 << 20

type MenuHandler struct {
	menuService    *service.MenuService
	verifier       middleware.SessionVerifier
	logger         logging.Logger
	maxUploadBytes int64
}

func NewMenuHandler(menuService *service.MenuService, verifier middleware.SessionVerifier, logger logging.Logger, maxUploadBytes int64) *MenuHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &MenuHandler{
		menuService:    menuService,
		verifier:       verifier,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes mounts the menu. Reads are public; writes need an admin session.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.Authenticator(h.verifier, h.logger))
		admin.Use(middleware.AdminOnly)
		admin.Post("/", h.create)
		admin.Put("/{id}", h.update)
		admin.Delete("/{id}", h.delete)
	})
}

type productResponse struct {
	Message string          `json:"message"`
	Product *model.MenuItem `json:"product"`
}

func (h *MenuHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.menuService.List(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, items)
}

func (h *MenuHandler) create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			common.RespondWithError(w, http.StatusRequestEntityTooLarge, "Image is too large")
			return
		}
		common.RespondWithError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	in := service.CreateMenuItemInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		Price:       r.FormValue("price"),
	}
	file, _, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		in.Image, err = io.ReadAll(file)
		if err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid form data")
			return
		}
	case !errors.Is(err, http.ErrMissingFile):
		common.RespondWithError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	item, err := h.menuService.Create(r.Context(), in)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	adminID, _ := middleware.GetUserIDFromContext(r.Context())
	h.logger.Info(r.Context(), "menu item created", "item_id", item.ID, "admin_id", adminID)
	common.RespondWithJSON(w, http.StatusCreated, productResponse{Message: "Product created successfully", Product: item})
}

func (h *MenuHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	var in service.UpdateMenuItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	item, err := h.menuService.Update(r.Context(), id, in)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, item)
}

func (h *MenuHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	if err := h.menuService.Delete(r.Context(), id); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	adminID, _ := middleware.GetUserIDFromContext(r.Context())
	h.logger.Info(r.Context(), "menu item deleted", "item_id", id, "admin_id", adminID)
	common.RespondWithJSON(w, http.StatusOK, common.MessageResponse{Message: "Product deleted successfully"})
}

func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid product ID")
		return 0, false
	}
	return id, true
}
