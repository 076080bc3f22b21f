package menu_api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"grabeat/internal/logger"
	"grabeat/internal/menu"
	"grabeat/internal/models"
	"grabeat/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Service interface {
	CreateMenuItem(ctx context.Context, req *models.CreateMenuItemRequest) (*models.MenuItem, error)
	GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error)
	ListMenuItems(ctx context.Context) ([]models.MenuItem, error)
	ListMenuItemsByCategory(ctx context.Context, categoryID string) ([]models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, id string, req *models.UpdateMenuItemRequest) (*models.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id string) error
}

type MenuHandler struct {
	Service Service
	Log     *logger.Logger
}

func NewMenuHandler(service Service, log *logger.Logger) *MenuHandler {
	return &MenuHandler{Service: service, Log: log}
}

func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Post("/create", h.CreateMenuItem)
	r.Get("/getAll", h.ListMenuItems)
	r.Get("/category/{categoryId}", h.ListByCategory)
	r.Get("/{id}", h.GetMenuItem)
	r.Patch("/{id}", h.UpdateMenuItem)
	r.Delete("/{id}", h.DeleteMenuItem)
}

func (h *MenuHandler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body"))
		return
	}

	item, err := h.Service.CreateMenuItem(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Menu item created successfully", item))
}

func (h *MenuHandler) ListMenuItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListMenuItems(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Menu items fetched successfully", items))
}

func (h *MenuHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "categoryId")
	items, err := h.Service.ListMenuItemsByCategory(r.Context(), categoryID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Menu items fetched successfully", items))
}

func (h *MenuHandler) GetMenuItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	item, err := h.Service.GetMenuItem(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Menu item fetched successfully", item))
}

func (h *MenuHandler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.UpdateMenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body"))
		return
	}

	item, err := h.Service.UpdateMenuItem(r.Context(), id, &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Menu item updated successfully", item))
}

func (h *MenuHandler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Service.DeleteMenuItem(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Menu item deleted successfully", nil))
}

func (h *MenuHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, menu.ErrInvalidRequest):
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(err.Error()))
	case errors.Is(err, menu.ErrNotFound):
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("Menu item not found"))
	default:
		h.Log.Error("MENU", err.Error())
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Internal server error"))
	}
}
