package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/DongSeo/platform/internal/cart"
	"github.com/DongSeo/platform/internal/estimate"
	"github.com/DongSeo/platform/internal/httpx"
	"github.com/DongSeo/platform/internal/quotepdf"
)

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (s *server) handleCreateCart(w http.ResponseWriter, r *http.Request) {
	c, err := s.carts.Create(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, c.View())
}

func (s *server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	c, err := s.carts.Get(r.Context(), chi.URLParam(r, "cartID"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, c.View())
}

// handleClearCart empties the cart and keeps the session.
func (s *server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	_, err := s.carts.Update(r.Context(), chi.URLParam(r, "cartID"), func(c *cart.Cart) error {
		c.Clear()
		return nil
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAddLine prices the request before touching the cart so a pricing
// failure leaves the cart unchanged.
func (s *server) handleAddLine(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cartID")
	if _, err := s.carts.Get(r.Context(), cartID); err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	var req estimate.LineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	line, err := s.estimates.Line(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	var added cart.Line
	_, err = s.carts.Update(r.Context(), cartID, func(c *cart.Cart) error {
		added = c.Add(line)
		return nil
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, added)
}

func (s *server) handleRemoveLine(w http.ResponseWriter, r *http.Request) {
	lineID := chi.URLParam(r, "lineID")
	_, err := s.carts.Update(r.Context(), chi.URLParam(r, "cartID"), func(c *cart.Cart) error {
		c.Remove(lineID)
		return nil
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleUpdateLine(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	lineID := chi.URLParam(r, "lineID")
	var updated cart.Line
	_, err := s.carts.Update(r.Context(), chi.URLParam(r, "cartID"), func(c *cart.Cart) error {
		var err error
		updated, err = c.UpdateWoodQuantity(lineID, req.Quantity)
		return err
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, updated)
}

func (s *server) handleCartPDF(w http.ResponseWriter, r *http.Request) {
	c, err := s.carts.Get(r.Context(), chi.URLParam(r, "cartID"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	s.writePDF(w, r, quotepdf.NewDocument(s.companyName, c.Lines(), s.now()))
}
