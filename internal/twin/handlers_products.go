package twin

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/avillar/storecheck/internal/contract"
)

type productDTO struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	ImgURL      string     `json:"imgUrl"`
	Price       float64    `json:"price"`
	Categories  []Category `json:"categories"`
}

func (s *Server) productDTO(p Product) productDTO {
	cats := make([]Category, 0, len(p.CategoryIDs))
	for _, id := range p.CategoryIDs {
		if c, ok := s.store.CategoryByID(id); ok {
			cats = append(cats, c)
		} else {
			cats = append(cats, Category{ID: id})
		}
	}
	return productDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		ImgURL:      p.ImgURL,
		Price:       p.Price,
		Categories:  cats,
	}
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "Recurso não encontrado")
		return
	}
	p, ok := s.store.ProductByID(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, "Recurso não encontrado")
		return
	}
	writeJSON(w, http.StatusOK, s.productDTO(p))
}

// handleListProducts returns a page of products sorted by name, optionally
// filtered by a case-insensitive name substring.
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	page := intParam(r, "page", 0)
	size := intParam(r, "size", 12)
	if size <= 0 {
		size = 12
	}
	nameQuery := strings.ToLower(r.URL.Query().Get("name"))

	all := s.store.ProductsSorted()
	filtered := all[:0:0]
	for _, p := range all {
		if nameQuery == "" || strings.Contains(strings.ToLower(p.Name), nameQuery) {
			filtered = append(filtered, p)
		}
	}

	total := len(filtered)
	start := page * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	content := make([]productDTO, 0, end-start)
	for _, p := range filtered[start:end] {
		content = append(content, s.productDTO(p))
	}

	totalPages := (total + size - 1) / size
	writeJSON(w, http.StatusOK, map[string]any{
		"content":       content,
		"totalElements": total,
		"totalPages":    totalPages,
		"size":          size,
		"number":        page,
	})
}

func (s *Server) handleInsertProduct(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		ImgURL      string  `json:"imgUrl"`
		Price       float64 `json:"price"`
		Categories  *[]struct {
			ID int64 `json:"id"`
		} `json:"categories"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, r, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}

	// null and absent categories both decode to a nil pointer; the
	// validation contract treats them identically.
	draft := contract.ProductDraft{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
	}
	if in.Categories != nil {
		ids := make([]int64, len(*in.Categories))
		for i, c := range *in.Categories {
			ids[i] = c.ID
		}
		draft.Categories = &ids
	}

	if violations := contract.Violations(draft); len(violations) > 0 {
		writeValidationError(w, r, violations)
		return
	}

	p := s.store.InsertProduct(Product{
		Name:        in.Name,
		Description: in.Description,
		ImgURL:      in.ImgURL,
		Price:       in.Price,
		CategoryIDs: *draft.Categories,
	})
	writeJSON(w, http.StatusCreated, s.productDTO(p))
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "Recurso não encontrado")
		return
	}

	deleted, dependent := s.store.DeleteProduct(id)
	switch {
	case dependent:
		writeError(w, r, http.StatusBadRequest, "Falha de integridade referencial")
	case !deleted:
		writeError(w, r, http.StatusNotFound, "Recurso não encontrado")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func intParam(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
