package main

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/DongSeo/platform/internal/auth"
	"github.com/DongSeo/platform/internal/catalog"
	"github.com/DongSeo/platform/internal/httpx"
	"github.com/DongSeo/platform/internal/observability"
)

type deletedResponse struct {
	Deleted int64 `json:"deleted"`
}

func actor(r *http.Request) zap.Field {
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		return zap.String("actor", claims.Username)
	}
	return zap.Skip()
}

func (s *server) handleAdminCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := s.catalog.ListCompanies(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, companies)
}

func (s *server) handleAdminCreateCompany(w http.ResponseWriter, r *http.Request) {
	var in catalog.CompanyInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	company, err := s.catalog.CreateCompany(r.Context(), in)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	observability.FromContext(r.Context()).Info("company created", actor(r), zap.Int64("company_id", company.ID), zap.String("code", company.Code))
	httpx.WriteJSON(w, http.StatusCreated, company)
}

func (s *server) handleAdminCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in catalog.CategoryInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	category, err := s.catalog.CreateCategory(r.Context(), in)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	observability.FromContext(r.Context()).Info("category created", actor(r), zap.Int64("category_id", category.ID), zap.String("code", category.Code))
	httpx.WriteJSON(w, http.StatusCreated, category)
}

func (s *server) handleAdminSearchProducts(w http.ResponseWriter, r *http.Request) {
	companyID, err := optionalQueryID(r, "companyId")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	categoryID, err := optionalQueryID(r, "categoryId")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	items, err := s.catalog.SearchProducts(r.Context(), catalog.SearchQuery{
		Keyword:    strings.TrimSpace(r.URL.Query().Get("keyword")),
		CompanyID:  companyID,
		CategoryID: categoryID,
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

func (s *server) handleAdminCreateProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	product, err := s.catalog.CreateProduct(r.Context(), in)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	observability.FromContext(r.Context()).Info("product created", actor(r), zap.Int64("product_id", product.ID))
	httpx.WriteJSON(w, http.StatusCreated, product)
}

func (s *server) handleAdminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var u catalog.ProductUpdate
	if err := httpx.DecodeJSON(r, &u); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := s.catalog.UpdateProduct(r.Context(), id, u); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	product, err := s.catalog.Product(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, product)
}

func (s *server) handleAdminDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := s.catalog.DeleteProduct(r.Context(), id); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	observability.FromContext(r.Context()).Info("product deleted", actor(r), zap.Int64("product_id", id))
	httpx.WriteJSON(w, http.StatusOK, deletedResponse{Deleted: id})
}

func (s *server) handleAdminUpdateVariant(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var u catalog.VariantUpdate
	if err := httpx.DecodeJSON(r, &u); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := s.catalog.UpdateVariant(r.Context(), id, u); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	variant, err := s.catalog.Variant(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, variant)
}

func (s *server) handleAdminDeleteVariant(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := s.catalog.DeleteVariant(r.Context(), id); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	observability.FromContext(r.Context()).Info("variant deleted", actor(r), zap.Int64("variant_id", id))
	httpx.WriteJSON(w, http.StatusOK, deletedResponse{Deleted: id})
}
