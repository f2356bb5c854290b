package main

import (
	"net/http"

	"github.com/DongSeo/platform/internal/httpx"
)

func (s *server) handleCategories(w http.ResponseWriter, r *http.Request) {
	companyID, err := optionalQueryID(r, "companyId")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	categories, err := s.catalog.MainCategories(r.Context(), companyID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, categories)
}

func (s *server) handleSubCategories(w http.ResponseWriter, r *http.Request) {
	parentID, err := queryID(r, "parentId")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	categories, err := s.catalog.SubCategories(r.Context(), parentID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, categories)
}

func (s *server) handleProducts(w http.ResponseWriter, r *http.Request) {
	categoryID, err := queryID(r, "categoryId")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	products, err := s.catalog.ProductsByCategory(r.Context(), categoryID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, products)
}

func (s *server) handleSelectableOptions(w http.ResponseWriter, r *http.Request) {
	productID, err := urlID(r, "id")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	companyID, err := optionalQueryID(r, "companyId")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	options, err := s.estimates.SelectableOptions(r.Context(), productID, companyID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, options)
}

// handleOptions lists a company's options, or with productId the options
// that apply to that product.
func (s *server) handleOptions(w http.ResponseWriter, r *http.Request) {
	companyID, err := optionalQueryID(r, "companyId")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	productID, err := optionalQueryID(r, "productId")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	company := s.companyOrDefault(companyID)
	if productID != nil {
		options, err := s.catalog.ProductOptions(r.Context(), *productID, company)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, options)
		return
	}

	options, err := s.catalog.CompanyOptions(r.Context(), company)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, options)
}

func (s *server) handleVariants(w http.ResponseWriter, r *http.Request) {
	productID, err := queryID(r, "productId")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	variants, err := s.catalog.Variants(r.Context(), productID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, variants)
}

func (s *server) handleColors(w http.ResponseWriter, r *http.Request) {
	companyID, err := optionalQueryID(r, "companyId")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	colors, err := s.catalog.Colors(r.Context(), s.companyOrDefault(companyID))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, colors)
}
