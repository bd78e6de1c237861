package handler

import (
	"net/http"
	"strings"

	"github.com/Pons070/studio-sub000/internal/domain/menu"
)

type menuItemResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price"`
	Category    string `json:"category,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Available   bool   `json:"available"`
}

func (h *Handler) listMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.menu.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, it := range items {
		resp[i] = h.toMenuItemResponse(it)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) toMenuItemResponse(it menu.Item) menuItemResponse {
	return menuItemResponse{
		ID:          it.ID,
		Name:        it.Name,
		Description: it.Description,
		Price:       it.Price.StringFixed(2),
		Category:    it.Category,
		ImageURL:    h.imageURL(it.ImageURL),
		Available:   it.Available,
	}
}

// imageURL resolves a stored image path against the configured base URL.
// Absolute URLs pass through untouched.
func (h *Handler) imageURL(path string) string {
	if path == "" || h.imageBaseURL == "" {
		return path
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimSuffix(h.imageBaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}
