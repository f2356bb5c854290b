// Package client talks to the estimate API and classifies its failures.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/DongSeo/platform/internal/apperr"
	"github.com/DongSeo/platform/internal/auth"
	"github.com/DongSeo/platform/internal/cart"
	"github.com/DongSeo/platform/internal/catalog"
	"github.com/DongSeo/platform/internal/estimate"
	"github.com/DongSeo/platform/internal/quotepdf"
)

// MsgBackendUnavailable is reported when no response arrives at all.
const MsgBackendUnavailable = "백엔드 서버에 연결할 수 없습니다."

const maxErrorBody = 64 << 10

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

// WithToken sends token as a Bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ping returns the server's health message.
func (c *Client) Ping(ctx context.Context) (string, error) {
	body, err := c.raw(ctx, http.MethodGet, "/api/estimates/ping", nil)
	return string(body), err
}

func (c *Client) Login(ctx context.Context, username, password string) (auth.Token, error) {
	var tok auth.Token
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{"username": username, "password": password}, &tok)
	return tok, err
}

func (c *Client) Categories(ctx context.Context, companyID *int64) ([]catalog.Category, error) {
	q := url.Values{}
	if companyID != nil {
		q.Set("companyId", strconv.FormatInt(*companyID, 10))
	}
	var out []catalog.Category
	err := c.do(ctx, http.MethodGet, withQuery("/api/categories", q), nil, &out)
	return out, err
}

func (c *Client) SubCategories(ctx context.Context, parentID int64) ([]catalog.Category, error) {
	var out []catalog.Category
	err := c.do(ctx, http.MethodGet, withQuery("/api/subcategories", url.Values{"parentId": {strconv.FormatInt(parentID, 10)}}), nil, &out)
	return out, err
}

func (c *Client) Products(ctx context.Context, categoryID int64) ([]catalog.Product, error) {
	var out []catalog.Product
	err := c.do(ctx, http.MethodGet, withQuery("/api/products", url.Values{"categoryId": {strconv.FormatInt(categoryID, 10)}}), nil, &out)
	return out, err
}

func (c *Client) Variants(ctx context.Context, productID int64) ([]catalog.Variant, error) {
	var out []catalog.Variant
	err := c.do(ctx, http.MethodGet, withQuery("/api/variants", url.Values{"productId": {strconv.FormatInt(productID, 10)}}), nil, &out)
	return out, err
}

func (c *Client) Colors(ctx context.Context, companyID int64) ([]catalog.Color, error) {
	var out []catalog.Color
	err := c.do(ctx, http.MethodGet, withQuery("/api/colors", url.Values{"companyId": {strconv.FormatInt(companyID, 10)}}), nil, &out)
	return out, err
}

func (c *Client) SelectableOptions(ctx context.Context, productID int64) ([]catalog.Option, error) {
	var out []catalog.Option
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/products/%d/selectable-options", productID), nil, &out)
	return out, err
}

func (c *Client) Calculate(ctx context.Context, req estimate.CalculateRequest) (estimate.CalculateResponse, error) {
	var out estimate.CalculateResponse
	err := c.do(ctx, http.MethodPost, "/api/estimates/calculate", req, &out)
	return out, err
}

func (c *Client) Quote(ctx context.Context, req estimate.QuoteRequest) (estimate.Quote, error) {
	var out estimate.Quote
	err := c.do(ctx, http.MethodPost, "/api/estimates/quote", req, &out)
	return out, err
}

func (c *Client) CreateCart(ctx context.Context) (cart.View, error) {
	var out cart.View
	err := c.do(ctx, http.MethodPost, "/api/carts", nil, &out)
	return out, err
}

func (c *Client) Cart(ctx context.Context, id string) (cart.View, error) {
	var out cart.View
	err := c.do(ctx, http.MethodGet, "/api/carts/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) AddLine(ctx context.Context, cartID string, req estimate.LineRequest) (cart.Line, error) {
	var out cart.Line
	err := c.do(ctx, http.MethodPost, "/api/carts/"+url.PathEscape(cartID)+"/lines", req, &out)
	return out, err
}

func (c *Client) RemoveLine(ctx context.Context, cartID, lineID string) error {
	return c.do(ctx, http.MethodDelete, "/api/carts/"+url.PathEscape(cartID)+"/lines/"+url.PathEscape(lineID), nil, nil)
}

func (c *Client) UpdateWoodQuantity(ctx context.Context, cartID, lineID string, quantity int) (cart.Line, error) {
	var out cart.Line
	err := c.do(ctx, http.MethodPatch, "/api/carts/"+url.PathEscape(cartID)+"/lines/"+url.PathEscape(lineID), map[string]int{"quantity": quantity}, &out)
	return out, err
}

func (c *Client) ClearCart(ctx context.Context, cartID string) error {
	return c.do(ctx, http.MethodDelete, "/api/carts/"+url.PathEscape(cartID), nil, nil)
}

// CartPDF downloads the server-rendered quote for a cart.
func (c *Client) CartPDF(ctx context.Context, cartID string) ([]byte, error) {
	body, err := c.raw(ctx, http.MethodGet, "/api/carts/"+url.PathEscape(cartID)+"/pdf", nil)
	return body, err
}

// DocumentPDF asks the server to render doc.
func (c *Client) DocumentPDF(ctx context.Context, doc quotepdf.Document) ([]byte, error) {
	body, err := c.raw(ctx, http.MethodPost, "/api/estimates/pdf", doc)
	return body, err
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	body, err := c.raw(ctx, method, path, in)
	if err != nil {
		return err
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) raw(ctx context.Context, method, path string, in any) ([]byte, error) {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s request: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.NetworkUnavailable(MsgBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, apperr.FromStatus(resp.StatusCode, errorMessage(resp.StatusCode, data))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.NetworkUnavailable(MsgBackendUnavailable, err)
	}
	return data, nil
}

// errorMessage prefers the body's message, then its error field, then the
// raw text, then the status.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && !strings.HasPrefix(text, "{") && !strings.HasPrefix(text, "<") {
		return text
	}
	return fmt.Sprintf("HTTP %d %s", status, http.StatusText(status))
}

// IsNetwork reports whether err means the server could not be reached.
func IsNetwork(err error) bool {
	return apperr.Is(err, apperr.KindNetworkUnavailable)
}

// Status returns the HTTP status carried by err, or 0.
func Status(err error) int {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return 0
}
