package twin

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type orderItemDTO struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	SubTotal float64 `json:"subTotal"`
}

type orderDTO struct {
	ID      int64          `json:"id"`
	Moment  string         `json:"moment"`
	Status  string         `json:"status"`
	Client  map[string]any `json:"client"`
	Payment map[string]any `json:"payment"`
	Items   []orderItemDTO `json:"items"`
	Total   float64        `json:"total"`
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "Recurso não encontrado")
		return
	}

	o, ok := s.store.OrderByID(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, "Recurso não encontrado")
		return
	}

	user, _ := currentUser(r)
	if !user.Admin && o.ClientID != user.ID {
		writeError(w, r, http.StatusForbidden, "Acesso negado")
		return
	}

	writeJSON(w, http.StatusOK, s.orderDTO(o))
}

func (s *Server) orderDTO(o Order) orderDTO {
	dto := orderDTO{
		ID:     o.ID,
		Moment: o.Moment,
		Status: o.Status,
	}

	if client, ok := s.store.UserByID(o.ClientID); ok {
		dto.Client = map[string]any{"id": client.ID, "name": client.Name}
	}
	if o.PaymentMoment != "" {
		dto.Payment = map[string]any{"moment": o.PaymentMoment}
	}

	dto.Items = make([]orderItemDTO, 0, len(o.Items))
	for _, it := range o.Items {
		name := ""
		if p, ok := s.store.ProductByID(it.ProductID); ok {
			name = p.Name
		}
		sub := it.Price * float64(it.Quantity)
		dto.Items = append(dto.Items, orderItemDTO{
			Name:     name,
			Price:    it.Price,
			Quantity: it.Quantity,
			SubTotal: sub,
		})
		dto.Total += sub
	}

	return dto
}
