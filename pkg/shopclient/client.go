// Package shopclient is a typed client for the shop REST API.
package shopclient

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

	"github.com/google/uuid"

	"github.com/Skotchmaster/electro_shop/pkg/models"
	"github.com/Skotchmaster/electro_shop/pkg/transport"
)

const (
	TokenHeader    = "x-access-token"
	DefaultTimeout = 10 * time.Second
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == status
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
}

// NewClient talks to baseURL (for example "http://localhost:8080"). The session
// supplies the token and receives it on login; it may be nil.
func NewClient(baseURL string, session *Session) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		session: session,
	}
}

// WithHTTPClient replaces the transport, mostly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

func (c *Client) Session() *Session { return c.session }

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil {
		if tok := c.session.Token(); tok != "" {
			req.Header.Set(TokenHeader, tok)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &eb) != nil || eb.Error == "" {
			eb.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: eb.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) Register(ctx context.Context, req transport.RegisterRequest) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login signs in a shopper and saves the session.
func (c *Client) Login(ctx context.Context, email, password string) (*transport.LoginResponse, error) {
	return c.login(ctx, "/api/auth/login", email, password)
}

// AdminLogin signs in an administrator and saves the session.
func (c *Client) AdminLogin(ctx context.Context, email, password string) (*transport.LoginResponse, error) {
	return c.login(ctx, "/api/auth/admin-login", email, password)
}

func (c *Client) login(ctx context.Context, path, email, password string) (*transport.LoginResponse, error) {
	var resp transport.LoginResponse
	if err := c.do(ctx, http.MethodPost, path, transport.LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	if c.session != nil {
		if err := c.session.Save(SessionData{Token: resp.Token, User: resp.User}); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
	}
	return &resp, nil
}

// Logout forgets the session. Tokens are stateless, so the server is not involved.
func (c *Client) Logout() error {
	if c.session == nil {
		return nil
	}
	return c.session.Clear()
}

func (c *Client) Products(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	if err := c.do(ctx, http.MethodGet, "/api/inventory", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) LowStock(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	if err := c.do(ctx, http.MethodGet, "/api/inventory/low-stock", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RecentActivities(ctx context.Context) ([]transport.ActivityView, error) {
	var out []transport.ActivityView
	if err := c.do(ctx, http.MethodGet, "/api/inventory/recent-activities", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type SearchResult struct {
	Total int64            `json:"total"`
	Items []models.Product `json:"items"`
}

func (c *Client) Search(ctx context.Context, q string, page, size int) (*SearchResult, error) {
	v := url.Values{}
	v.Set("q", q)
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	if size > 0 {
		v.Set("size", strconv.Itoa(size))
	}
	var out SearchResult
	if err := c.do(ctx, http.MethodGet, "/api/inventory/search?"+v.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	var p models.Product
	if err := c.do(ctx, http.MethodPost, "/api/inventory/add", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id uuid.UUID, req transport.PatchProductRequest) (*models.Product, error) {
	var p models.Product
	if err := c.do(ctx, http.MethodPut, "/api/inventory/update/"+id.String(), req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/inventory/delete/"+id.String(), nil, nil)
}

func (c *Client) Cart(ctx context.Context) (*transport.CartView, error) {
	var out transport.CartView
	if err := c.do(ctx, http.MethodGet, "/api/cart", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddToCart(ctx context.Context, productID uuid.UUID, quantity int) (*transport.CartView, error) {
	var out transport.CartView
	req := transport.AddToCartRequest{ProductID: productID, Quantity: quantity}
	if err := c.do(ctx, http.MethodPost, "/api/cart/add", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveFromCart(ctx context.Context, productID uuid.UUID) (*transport.CartView, error) {
	var out transport.CartView
	if err := c.do(ctx, http.MethodDelete, "/api/cart/remove/"+productID.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PlaceOrder(ctx context.Context, req transport.PlaceOrderRequest) (*transport.PlaceOrderResponse, error) {
	var out transport.PlaceOrderResponse
	if err := c.do(ctx, http.MethodPost, "/api/orders", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) OrderHistory(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	if err := c.do(ctx, http.MethodGet, "/api/orders/history", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Order(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var out models.Order
	if err := c.do(ctx, http.MethodGet, "/api/orders/"+id.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Profile(ctx context.Context) (*transport.ProfileView, error) {
	var out transport.ProfileView
	if err := c.do(ctx, http.MethodGet, "/api/profile", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, req transport.UpdateProfileRequest) (*transport.ProfileView, error) {
	var out transport.ProfileView
	if err := c.do(ctx, http.MethodPut, "/api/profile", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	req := transport.ChangePasswordRequest{CurrentPassword: current, NewPassword: next}
	return c.do(ctx, http.MethodPut, "/api/profile/change-password", req, nil)
}
