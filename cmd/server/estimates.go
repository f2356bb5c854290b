package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/DongSeo/platform/internal/apperr"
	"github.com/DongSeo/platform/internal/estimate"
	"github.com/DongSeo/platform/internal/httpx"
	"github.com/DongSeo/platform/internal/observability"
	"github.com/DongSeo/platform/internal/quotepdf"
)

const (
	msgNoLines     = "견적 항목이 없습니다."
	msgFontMissing = "PDF 폰트를 불러올 수 없습니다."
)

func (s *server) handlePing(w http.ResponseWriter, r *http.Request) {
	httpx.WriteText(w, http.StatusOK, pingMessage)
}

func (s *server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req estimate.CalculateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	resp, err := s.estimates.Calculate(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (s *server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req estimate.QuoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	quote, err := s.estimates.Quote(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, quote)
}

// pdfRequest is either a full document or a reference to a cart.
type pdfRequest struct {
	CartID string `json:"cartId,omitempty"`
	quotepdf.Document
}

func (s *server) handleDocumentPDF(w http.ResponseWriter, r *http.Request) {
	var req pdfRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	doc := req.Document
	if req.CartID != "" {
		c, err := s.carts.Get(r.Context(), req.CartID)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		doc.Lines = c.Lines()
	}
	if doc.CompanyName == "" {
		doc.CompanyName = s.companyName
	}
	if doc.Date.IsZero() {
		doc.Date = s.now()
	}
	s.writePDF(w, r, doc)
}

func (s *server) writePDF(w http.ResponseWriter, r *http.Request, doc quotepdf.Document) {
	if len(doc.Lines) == 0 {
		httpx.WriteError(w, r, apperr.Validation(msgNoLines))
		return
	}

	out, err := s.pdf.Export(r.Context(), doc)
	if err != nil {
		if errors.Is(err, quotepdf.ErrNoFont) {
			err = apperr.Wrap(apperr.KindInternal, msgFontMissing, err)
		}
		observability.FromContext(r.Context()).Error("pdf export failed", zap.Error(err))
		httpx.WriteError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(doc.FileName()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// handleFontScript serves the PDF font as a JavaScript module for browser
// renderers. Concurrent first requests share one load.
func (s *server) handleFontScript(w http.ResponseWriter, r *http.Request) {
	// Detached from the caller: every waiter shares this load.
	loadCtx := context.WithoutCancel(r.Context())
	v, err, _ := s.fonts.Do("font", func() (any, error) {
		font, err := s.pdf.Font(loadCtx)
		if err != nil {
			return "", err
		}
		return quotepdf.EncodeFontScript(font), nil
	})
	if err != nil {
		observability.FromContext(r.Context()).Warn("font script unavailable", zap.Error(err))
		httpx.WriteError(w, r, apperr.Wrap(apperr.KindNotFound, msgFontMissing, err))
		return
	}

	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(v.(string)))
}
