package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"reflect"

	"github.com/go-chi/chi/v5"

	"github.com/rummage/items/internal/models"
	"github.com/rummage/items/internal/services"
)

type ItemHandler struct {
	itemService services.ItemService
}

func NewItemHandler(itemService services.ItemService) *ItemHandler {
	return &ItemHandler{
		itemService: itemService,
	}
}

// Routes mounts the item endpoints on r.
func (h *ItemHandler) Routes(r chi.Router) {
	r.Get("/", h.ListItems)
	r.Post("/", h.CreateItem)
	r.Get("/{itemId}", h.GetItem)
}

func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req models.CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(map[string]string{
				typeErr.Field: fieldTypeMessage(typeErr.Type),
			}))
			return
		}
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	item, err := h.itemService.Create(r.Context(), &req)
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			log.Printf("[CreateItem] Validation errors: %v", verr.Fields)
			writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(verr.Fields))
		case errors.Is(err, services.ErrDuplicateItem):
			log.Printf("[CreateItem] Duplicate title: %q", req.Title)
			writeJSON(w, http.StatusConflict, models.NewErrorResponse("Item already registered"))
		default:
			log.Printf("[CreateItem] Service error: %v", err)
			writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to create item"))
		}
		return
	}

	log.Printf("[CreateItem] Item created: %s", item.ID)
	w.Header().Set("Location", "/items/"+item.ID)
	writeJSON(w, http.StatusCreated, item)
}

func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.itemService.List(r.Context())
	if err != nil {
		log.Printf("[ListItems] Service error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to list items"))
		return
	}

	writeJSON(w, http.StatusOK, items)
}

func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")

	item, err := h.itemService.GetByID(r.Context(), itemID)
	if err != nil {
		if errors.Is(err, services.ErrItemNotFound) {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Item not found"))
			return
		}
		log.Printf("[GetItem] Service error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to get item"))
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// fieldTypeMessage describes the JSON value a request field accepts.
func fieldTypeMessage(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "Must be an integer"
	case reflect.String:
		return "Must be a string"
	default:
		return "Has the wrong type"
	}
}
