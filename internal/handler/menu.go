package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/xenking/karuwa-takeaway/internal/domain/menu"
)

type categoryView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type menuItemView struct {
	ID           string          `json:"id"`
	CategoryID   string          `json:"categoryId"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image,omitempty"`
	IsVegetarian bool            `json:"isVegetarian"`
	IsVegan      bool            `json:"isVegan"`
	IsSpicy      bool            `json:"isSpicy"`
	SpiceLevel   int             `json:"spiceLevel"`
	Allergens    []string        `json:"allergens"`
	IsPopular    bool            `json:"isPopular"`
}

type menuView struct {
	Categories []categoryView `json:"categories"`
	Items      []menuItemView `json:"items"`
}

// GetMenu returns the full catalog.
func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	m, err := h.menu.GetMenu(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewMenu(m))
}

// SaveMenu replaces the entire catalog in one transaction.
func (h *Handler) SaveMenu(w http.ResponseWriter, r *http.Request) {
	var req menuView
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	m := &menu.Menu{
		Categories: make([]menu.Category, len(req.Categories)),
		Items:      make([]menu.Item, len(req.Items)),
	}
	for i, c := range req.Categories {
		if c.ID == "" || c.Name == "" {
			writeError(w, http.StatusBadRequest, "category id and name are required")
			return
		}
		m.Categories[i] = menu.Category{ID: c.ID, Name: c.Name, Description: c.Description}
	}
	for i, it := range req.Items {
		if it.ID == "" || it.Name == "" || it.CategoryID == "" {
			writeError(w, http.StatusBadRequest, "item id, name and categoryId are required")
			return
		}
		if it.Price.IsNegative() {
			writeError(w, http.StatusBadRequest, "item price must not be negative")
			return
		}
		if it.SpiceLevel < 0 || it.SpiceLevel > 4 {
			writeError(w, http.StatusBadRequest, "spice level must be between 0 and 4")
			return
		}
		m.Items[i] = menu.Item{
			ID:           it.ID,
			CategoryID:   it.CategoryID,
			Name:         it.Name,
			Description:  it.Description,
			Price:        it.Price,
			Image:        it.Image,
			IsVegetarian: it.IsVegetarian,
			IsVegan:      it.IsVegan,
			IsSpicy:      it.IsSpicy,
			SpiceLevel:   it.SpiceLevel,
			Allergens:    it.Allergens,
			IsPopular:    it.IsPopular,
		}
	}

	if err := h.menu.ReplaceAll(r.Context(), m); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "menu saved"})
}

func viewMenu(m *menu.Menu) menuView {
	v := menuView{
		Categories: make([]categoryView, len(m.Categories)),
		Items:      make([]menuItemView, len(m.Items)),
	}
	for i, c := range m.Categories {
		v.Categories[i] = categoryView{ID: c.ID, Name: c.Name, Description: c.Description}
	}
	for i, it := range m.Items {
		v.Items[i] = viewMenuItem(it)
	}
	return v
}

func viewMenuItem(it menu.Item) menuItemView {
	allergens := it.Allergens
	if allergens == nil {
		allergens = []string{}
	}
	return menuItemView{
		ID:           it.ID,
		CategoryID:   it.CategoryID,
		Name:         it.Name,
		Description:  it.Description,
		Price:        it.Price,
		Image:        it.Image,
		IsVegetarian: it.IsVegetarian,
		IsVegan:      it.IsVegan,
		IsSpicy:      it.IsSpicy,
		SpiceLevel:   it.SpiceLevel,
		Allergens:    allergens,
		IsPopular:    it.IsPopular,
	}
}
