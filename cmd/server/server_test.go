package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/DongSeo/platform/internal/auth"
	"github.com/DongSeo/platform/internal/cart"
	"github.com/DongSeo/platform/internal/catalog"
	"github.com/DongSeo/platform/internal/config"
	"github.com/DongSeo/platform/internal/db"
	"github.com/DongSeo/platform/internal/estimate"
	"github.com/DongSeo/platform/internal/httpx"
	"github.com/DongSeo/platform/internal/migrations"
	"github.com/DongSeo/platform/internal/pricing"
	"github.com/DongSeo/platform/internal/quotepdf"
	"github.com/DongSeo/platform/internal/seed"
)

type testServer struct {
	*server
	ts *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "server-test.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	if _, err := seed.Run(database, seed.Config{AdminUsername: "admin", AdminPassword: "admin123", DemoCatalog: true}); err != nil {
		t.Fatalf("seed database: %v", err)
	}

	cfg := config.Config{
		JWTExpiration:    time.Hour,
		DefaultCompanyID: 1,
		PDFCompanyName:   quotepdf.DefaultCompanyName,
		CartTTL:          time.Hour,
	}
	srv := newServer(database, cfg, pricing.NewClassifier(nil), cart.NewMemoryStore(cfg.CartTTL), zap.NewNop())
	srv.now = func() time.Time { return time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC) }
	// No font sources, so PDF tests do not depend on the host.
	srv.pdf = quotepdf.NewExporter(quotepdf.FontResolver{}, nil)

	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return &testServer{server: srv, ts: ts}
}

func (s *testServer) call(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode request: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, s.ts.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}

func (s *testServer) productID(t *testing.T, name string) int64 {
	t.Helper()
	items, err := s.catalog.SearchProducts(t.Context(), catalog.SearchQuery{Keyword: name})
	if err != nil {
		t.Fatalf("search %q: %v", name, err)
	}
	for _, item := range items {
		if item.Name == name {
			return item.ID
		}
	}
	t.Fatalf("product %q not seeded", name)
	return 0
}

func itoa(id int64) string    { return strconv.FormatInt(id, 10) }
func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func TestPing(t *testing.T) {
	s := newTestServer(t)

	status, body := s.call(t, http.MethodGet, "/api/estimates/ping", "", nil)
	if status != http.StatusOK || string(body) != pingMessage {
		t.Fatalf("ping = %d %q", status, body)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	s := newTestServer(t)

	status, body := s.call(t, http.MethodGet, "/api/categories", "", nil)
	if status != http.StatusOK {
		t.Fatalf("categories status = %d: %s", status, body)
	}
	categories := decode[[]catalog.Category](t, body)
	var window *catalog.Category
	for i := range categories {
		if categories[i].ParentID != nil {
			t.Fatalf("main categories include child %+v", categories[i])
		}
		if categories[i].Code == "WINDOW" {
			window = &categories[i]
		}
	}
	if window == nil {
		t.Fatalf("WINDOW category missing from %+v", categories)
	}

	status, body = s.call(t, http.MethodGet, "/api/subcategories?parentId="+itoa(window.ID), "", nil)
	subs := decode[[]catalog.Category](t, body)
	if status != http.StatusOK || len(subs) != 1 || subs[0].Code != "WINDOW_GANSAL" {
		t.Fatalf("subcategories = %d %+v", status, subs)
	}

	status, body = s.call(t, http.MethodGet, "/api/products?categoryId=abc", "", nil)
	if status != http.StatusBadRequest {
		t.Fatalf("bad categoryId status = %d", status)
	}
	env := decode[httpx.Envelope](t, body)
	if !strings.HasPrefix(env.Message, "에러 발생: ") {
		t.Fatalf("unexpected envelope %+v", env)
	}

	status, body = s.call(t, http.MethodGet, "/api/colors", "", nil)
	colors := decode[[]catalog.Color](t, body)
	if status != http.StatusOK || len(colors) != 3 {
		t.Fatalf("colors = %d %+v", status, colors)
	}

	windowID := s.productID(t, "일반 목창호")
	status, body = s.call(t, http.MethodGet, "/api/products/"+itoa(windowID)+"/selectable-options", "", nil)
	options := decode[[]catalog.Option](t, body)
	if status != http.StatusOK || len(options) != 1 || options[0].Name != "방음재" {
		t.Fatalf("selectable options = %d %+v", status, options)
	}

	status, body = s.call(t, http.MethodGet, "/api/options?productId="+itoa(windowID), "", nil)
	all := decode[[]catalog.Option](t, body)
	if status != http.StatusOK || len(all) != 2 {
		t.Fatalf("product options = %d %+v", status, all)
	}

	status, _ = s.call(t, http.MethodGet, "/api/variants", "", nil)
	if status != http.StatusBadRequest {
		t.Fatalf("variants without productId = %d", status)
	}
}

func TestQuoteAndCalculate(t *testing.T) {
	s := newTestServer(t)
	windowID := s.productID(t, "일반 목창호")

	status, body := s.call(t, http.MethodPost, "/api/estimates/quote", "", estimate.QuoteRequest{ProductID: &windowID, Quantity: 1})
	if status != http.StatusBadRequest {
		t.Fatalf("quote without size = %d: %s", status, body)
	}

	status, body = s.call(t, http.MethodPost, "/api/estimates/quote", "", estimate.QuoteRequest{
		ProductID: &windowID,
		Width:     intPtr(1051),
		Height:    intPtr(2101),
		Quantity:  1,
	})
	if status != http.StatusOK {
		t.Fatalf("quote status = %d: %s", status, body)
	}
	quote := decode[estimate.Quote](t, body)
	if quote.Line.UnitPrice != 135000 || len(quote.Reasons) != 2 {
		t.Fatalf("unexpected quote %+v", quote)
	}

	status, body = s.call(t, http.MethodPost, "/api/estimates/calculate", "", estimate.CalculateRequest{ProductID: windowID, Quantity: 3})
	if status != http.StatusOK {
		t.Fatalf("calculate status = %d: %s", status, body)
	}
	calc := decode[estimate.CalculateResponse](t, body)
	if calc.UnitPrice != 120000 || calc.TotalPrice != 360000 {
		t.Fatalf("unexpected calculation %+v", calc)
	}

	status, _ = s.call(t, http.MethodPost, "/api/estimates/quote", "", estimate.QuoteRequest{ProductID: int64Ptr(9999), Quantity: 1})
	if status != http.StatusNotFound {
		t.Fatalf("unknown product status = %d", status)
	}

	status, body = s.call(t, http.MethodPost, "/api/estimates/quote", "", estimate.QuoteRequest{
		ProductID: &windowID,
		Width:     intPtr(900),
		Height:    intPtr(2000),
		Quantity:  1 << 50,
	})
	if status != http.StatusBadRequest || !strings.Contains(string(body), "금액이 너무 큽니다") {
		t.Fatalf("oversized quote = %d: %s", status, body)
	}

	status, body = s.call(t, http.MethodPost, "/api/estimates/calculate", "", estimate.CalculateRequest{ProductID: windowID, Quantity: 1 << 50})
	if status != http.StatusBadRequest {
		t.Fatalf("oversized calculation = %d: %s", status, body)
	}

	status, body = s.call(t, http.MethodPost, "/api/estimates/quote", "", estimate.QuoteRequest{
		ProductID: &windowID,
		Width:     intPtr(900),
		Height:    intPtr(2000),
		Quantity:  1,
		Margin:    "10%",
	})
	if status != http.StatusOK {
		t.Fatalf("quote with percent margin = %d: %s", status, body)
	}
	quote = decode[estimate.Quote](t, body)
	if quote.Line.MarginAmount == nil || *quote.Line.MarginAmount != 12000 || quote.Line.Price() != 132000 {
		t.Fatalf("unexpected percent margin line %+v", quote.Line)
	}
}

func TestCartFlow(t *testing.T) {
	s := newTestServer(t)
	windowID := s.productID(t, "일반 목창호")
	lumberID := s.productID(t, "라왕 각재")

	_, body := s.call(t, http.MethodGet, "/api/products/"+itoa(windowID)+"/selectable-options", "", nil)
	soundproof := decode[[]catalog.Option](t, body)[0]
	_, body = s.call(t, http.MethodGet, "/api/colors", "", nil)
	var walnut catalog.Color
	for _, c := range decode[[]catalog.Color](t, body) {
		if c.Name == "월넛" {
			walnut = c
		}
	}

	status, body := s.call(t, http.MethodPost, "/api/carts", "", nil)
	if status != http.StatusCreated {
		t.Fatalf("create cart = %d: %s", status, body)
	}
	view := decode[cart.View](t, body)
	base := "/api/carts/" + view.ID

	status, body = s.call(t, http.MethodPost, base+"/lines", "", estimate.LineRequest{QuoteRequest: estimate.QuoteRequest{
		ProductID: &windowID,
		Width:     intPtr(1051),
		Height:    intPtr(2101),
		OptionIDs: []int64{soundproof.ID},
		ColorID:   &walnut.ID,
		Quantity:  2,
		Margin:    "10",
	}})
	if status != http.StatusCreated {
		t.Fatalf("add estimate line = %d: %s", status, body)
	}
	windowLine := decode[cart.Line](t, body)
	// (120000 + 5000 + 10000) × 1.1 = 148500; (148500 + 15000) × 2 = 327000; +10%
	if windowLine.UnitPrice != 148500 || windowLine.TotalPrice != 327000 || *windowLine.FinalPrice != 359700 {
		t.Fatalf("unexpected window line %+v", windowLine)
	}

	status, body = s.call(t, http.MethodPost, base+"/lines", "", estimate.LineRequest{
		Source:       cart.SourceWood,
		QuoteRequest: estimate.QuoteRequest{ProductID: &lumberID, Quantity: 3},
	})
	if status != http.StatusCreated {
		t.Fatalf("add wood line = %d: %s", status, body)
	}
	woodLine := decode[cart.Line](t, body)

	status, body = s.call(t, http.MethodPatch, base+"/lines/"+woodLine.ID, "", quantityRequest{Quantity: 5})
	if status != http.StatusOK || decode[cart.Line](t, body).TotalPrice != 60000 {
		t.Fatalf("update wood quantity = %d: %s", status, body)
	}
	status, _ = s.call(t, http.MethodPatch, base+"/lines/"+windowLine.ID, "", quantityRequest{Quantity: 5})
	if status != http.StatusBadRequest {
		t.Fatalf("estimate line quantity change = %d, want 400", status)
	}

	_, body = s.call(t, http.MethodGet, base, "", nil)
	view = decode[cart.View](t, body)
	if len(view.Lines) != 2 || view.Total != 359700+60000 {
		t.Fatalf("unexpected cart %+v", view)
	}

	status, _ = s.call(t, http.MethodDelete, base+"/lines/"+windowLine.ID, "", nil)
	if status != http.StatusNoContent {
		t.Fatalf("remove line = %d", status)
	}
	_, body = s.call(t, http.MethodGet, base, "", nil)
	if view = decode[cart.View](t, body); view.Total != 60000 {
		t.Fatalf("total after remove = %d", view.Total)
	}

	status, _ = s.call(t, http.MethodDelete, base, "", nil)
	if status != http.StatusNoContent {
		t.Fatalf("clear cart = %d", status)
	}
	_, body = s.call(t, http.MethodGet, base, "", nil)
	if view = decode[cart.View](t, body); len(view.Lines) != 0 || view.Total != 0 {
		t.Fatalf("cart not cleared: %+v", view)
	}

	status, _ = s.call(t, http.MethodGet, "/api/carts/missing", "", nil)
	if status != http.StatusNotFound {
		t.Fatalf("missing cart = %d", status)
	}
}

func TestAddLineFailureLeavesCartUnchanged(t *testing.T) {
	s := newTestServer(t)
	windowID := s.productID(t, "일반 목창호")

	_, body := s.call(t, http.MethodPost, "/api/carts", "", nil)
	base := "/api/carts/" + decode[cart.View](t, body).ID

	status, _ := s.call(t, http.MethodPost, base+"/lines", "", estimate.LineRequest{QuoteRequest: estimate.QuoteRequest{ProductID: &windowID, Quantity: 1}})
	if status != http.StatusBadRequest {
		t.Fatalf("add invalid line = %d", status)
	}
	_, body = s.call(t, http.MethodGet, base, "", nil)
	if view := decode[cart.View](t, body); len(view.Lines) != 0 {
		t.Fatalf("cart changed after failed add: %+v", view)
	}
}

func TestPDFErrors(t *testing.T) {
	s := newTestServer(t)

	_, body := s.call(t, http.MethodPost, "/api/carts", "", nil)
	cartID := decode[cart.View](t, body).ID

	status, _ := s.call(t, http.MethodGet, "/api/carts/"+cartID+"/pdf", "", nil)
	if status != http.StatusBadRequest {
		t.Fatalf("empty cart pdf = %d", status)
	}

	doc := quotepdf.Document{Lines: []cart.Line{{ProductName: "일반 목창호", UnitPrice: 120000, Quantity: 1, TotalPrice: 120000}}}
	status, body = s.call(t, http.MethodPost, "/api/estimates/pdf", "", doc)
	if status != http.StatusInternalServerError {
		t.Fatalf("pdf without font = %d: %s", status, body)
	}
	if env := decode[httpx.Envelope](t, body); !strings.HasPrefix(env.Message, "서버 오류가 발생했습니다: ") {
		t.Fatalf("unexpected envelope %+v", env)
	}

	status, _ = s.call(t, http.MethodGet, "/NanumGothic-normal.js", "", nil)
	if status != http.StatusNotFound {
		t.Fatalf("font script without font = %d", status)
	}
}

func TestLoginAndAdminAccess(t *testing.T) {
	s := newTestServer(t)

	status, body := s.call(t, http.MethodPost, "/api/auth/login", "", loginRequest{Username: "admin"})
	if status != http.StatusBadRequest || decode[loginError](t, body).Error != msgLoginFieldsRequired {
		t.Fatalf("login without password = %d %s", status, body)
	}
	status, body = s.call(t, http.MethodPost, "/api/auth/login", "", loginRequest{Username: "admin", Password: "wrong"})
	if status != http.StatusUnauthorized || decode[loginError](t, body).Error != msgLoginFailed {
		t.Fatalf("login with bad password = %d %s", status, body)
	}
	status, body = s.call(t, http.MethodPost, "/api/auth/login", "", loginRequest{Username: "admin", Password: "admin123"})
	if status != http.StatusOK {
		t.Fatalf("login = %d %s", status, body)
	}
	token := decode[auth.Token](t, body)
	if token.AccessToken == "" || token.Username != "admin" {
		t.Fatalf("unexpected token %+v", token)
	}

	status, _ = s.call(t, http.MethodGet, "/api/admin/companies", "", nil)
	if status != http.StatusOK {
		t.Fatalf("public company list = %d", status)
	}

	in := catalog.CompanyInput{Name: "Test Works"}
	status, _ = s.call(t, http.MethodPost, "/api/admin/companies", "", in)
	if status != http.StatusUnauthorized {
		t.Fatalf("anonymous create = %d", status)
	}
	status, _ = s.call(t, http.MethodPost, "/api/admin/companies", "not-a-token", in)
	if status != http.StatusUnauthorized {
		t.Fatalf("invalid token create = %d", status)
	}
	status, body = s.call(t, http.MethodPost, "/api/admin/companies", token.AccessToken, in)
	if status != http.StatusCreated {
		t.Fatalf("admin create = %d %s", status, body)
	}
	if company := decode[catalog.Company](t, body); company.Code != "TEST_WORKS" {
		t.Fatalf("unexpected company %+v", company)
	}

	lumberID := s.productID(t, "라왕 각재")
	status, body = s.call(t, http.MethodPatch, "/api/admin/products/"+itoa(lumberID), token.AccessToken, catalog.ProductUpdate{BasePrice: int64Ptr(13000)})
	if status != http.StatusOK || decode[catalog.Product](t, body).BasePrice != 13000 {
		t.Fatalf("update product = %d %s", status, body)
	}
	status, _ = s.call(t, http.MethodDelete, "/api/admin/products/9999", token.AccessToken, nil)
	if status != http.StatusNotFound {
		t.Fatalf("delete missing product = %d", status)
	}
}

func TestStaffRoleMayUseAdminRoutes(t *testing.T) {
	s := newTestServer(t)

	staff, err := s.auth.CreateUser(t.Context(), "staff", "staff-pass", auth.RoleStaff)
	if err != nil {
		t.Fatalf("create staff: %v", err)
	}
	token, err := s.auth.Issue(staff)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	status, body := s.call(t, http.MethodGet, "/api/admin/products?"+url.Values{"keyword": {"문틀"}}.Encode(), token, nil)
	if status != http.StatusOK {
		t.Fatalf("staff search = %d %s", status, body)
	}
	if items := decode[[]catalog.SearchItem](t, body); len(items) != 3 {
		t.Fatalf("expected three frames, got %+v", items)
	}
}

func TestFontScriptSurvivesCanceledRequest(t *testing.T) {
	s := newTestServer(t)
	font := []byte("nanum-gothic-ttf")
	fontServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "var font = '"+base64.StdEncoding.EncodeToString(font)+"';")
	}))
	t.Cleanup(fontServer.Close)
	s.pdf = quotepdf.NewExporter(quotepdf.FontResolver{URL: fontServer.URL}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/NanumGothic-normal.js", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	s.handleFontScript(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("font script status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); got != quotepdf.EncodeFontScript(font) {
		t.Fatalf("font script = %q", got)
	}
}
