package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	apperrors "github.com/leeforge/giftstudio/errors"
	"github.com/leeforge/giftstudio/http/binding"
)

// Login exchanges credentials for tokens and stores them in the client's
// token source.
func (c *Client) Login(ctx context.Context, creds Credentials) (TokenPair, error) {
	if err := binding.Validate(creds); err != nil {
		return TokenPair{}, err
	}
	if c.tokens == nil {
		return TokenPair{}, apperrors.NewInternal("login requires a token source")
	}

	b, err := jsonBody(creds)
	if err != nil {
		return TokenPair{}, err
	}
	var pair TokenPair
	if err := c.WithTokens(nil).call(ctx, http.MethodPost, "/auth/login/", nil, b, &pair); err != nil {
		return TokenPair{}, err
	}
	if pair.Access == "" {
		return TokenPair{}, apperrors.NewExternal("login response carried no access token")
	}
	if err := c.tokens.SetTokens(ctx, pair.tokens(time.Now())); err != nil {
		return TokenPair{}, apperrors.NewInternal("save tokens").WithInnerError(err)
	}
	return pair, nil
}

// Refresh forces a token refresh.
func (c *Client) Refresh(ctx context.Context) error {
	if c.tokens == nil {
		return apperrors.NewUnauthorized("login required")
	}
	return c.refresh(ctx)
}

// Logout revokes the refresh token remotely and always clears local tokens.
func (c *Client) Logout(ctx context.Context) error {
	if c.tokens == nil {
		return nil
	}
	t, err := c.tokens.Tokens(ctx)
	if err != nil {
		return apperrors.NewInternal("load tokens").WithInnerError(err)
	}
	defer c.clearTokens(ctx)
	if t.Refresh == "" {
		return nil
	}

	b, err := jsonBody(map[string]string{"refresh": t.Refresh})
	if err != nil {
		return err
	}
	err = c.call(ctx, http.MethodPost, "/auth/logout/", nil, b, nil)
	if apperrors.IsType(err, apperrors.ErrorTypeUnauthorized) {
		return nil
	}
	return err
}

// Resources returns the admin CRUD accessor for r.
func (c *Client) Resources(r Resource) *Resources {
	return &Resources{client: c, resource: r}
}

// Resources is CRUD over one admin collection.
type Resources struct {
	client   *Client
	resource Resource
}

func (r *Resources) path(id ...int) (string, error) {
	if !r.resource.Valid() {
		return "", apperrors.NewInvalid("resource", string(r.resource), "unknown resource")
	}
	if len(id) == 0 {
		return fmt.Sprintf("/admin/%s/", r.resource), nil
	}
	if id[0] <= 0 {
		return "", apperrors.NewInvalid("id", id[0], "must be positive")
	}
	return fmt.Sprintf("/admin/%s/%d/", r.resource, id[0]), nil
}

// List fetches one page. page starts at 1; zero means the service default.
func (r *Resources) List(ctx context.Context, page int, filters url.Values) (*Page, error) {
	path, err := r.path()
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	for k, v := range filters {
		query[k] = v
	}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	var out Page
	if err := r.client.call(ctx, http.MethodGet, path, query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resources) Get(ctx context.Context, id int) (Record, error) {
	path, err := r.path(id)
	if err != nil {
		return nil, err
	}
	var out Record
	if err := r.client.call(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create posts fields, switching to multipart when image is attached.
func (r *Resources) Create(ctx context.Context, fields Record, image *File) (Record, error) {
	return r.write(ctx, http.MethodPost, 0, fields, image)
}

// Update patches the entity with the given fields.
func (r *Resources) Update(ctx context.Context, id int, fields Record, image *File) (Record, error) {
	if id <= 0 {
		return nil, apperrors.NewInvalid("id", id, "must be positive")
	}
	return r.write(ctx, http.MethodPatch, id, fields, image)
}

func (r *Resources) write(ctx context.Context, method string, id int, fields Record, image *File) (Record, error) {
	if len(fields) == 0 && image.empty() {
		return nil, apperrors.NewValidation("nothing to save")
	}
	var (
		path string
		err  error
	)
	if id > 0 {
		path, err = r.path(id)
	} else {
		path, err = r.path()
	}
	if err != nil {
		return nil, err
	}

	b, err := requestBody(fields, "image", image)
	if err != nil {
		return nil, err
	}
	var out Record
	if err := r.client.call(ctx, method, path, nil, b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Resources) Delete(ctx context.Context, id int) error {
	path, err := r.path(id)
	if err != nil {
		return err
	}
	return r.client.call(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) GetCart(ctx context.Context) (*Cart, error) {
	var out Cart
	if err := c.call(ctx, http.MethodGet, "/cart/", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddToCart posts the item with its preview bitmap and placement metadata.
func (c *Client) AddToCart(ctx context.Context, req AddToCartRequest) (*CartItem, error) {
	if err := binding.Validate(req); err != nil {
		return nil, err
	}
	if req.Preview.empty() && req.PreviewURL == "" {
		return nil, apperrors.NewRequired("preview")
	}

	fields := map[string]any{
		"product_id": req.ProductID,
		"quantity":   req.Quantity,
	}
	if req.VariantID > 0 {
		fields["variant_id"] = req.VariantID
	}
	if req.Placement != nil {
		fields["placement"] = req.Placement
	}
	if req.PreviewURL != "" {
		fields["preview_url"] = req.PreviewURL
	}
	if req.PrintURL != "" {
		fields["print_url"] = req.PrintURL
	}

	b, err := requestBody(fields, "preview", req.Preview)
	if err != nil {
		return nil, err
	}
	var out CartItem
	if err := c.call(ctx, http.MethodPost, "/cart/items/", nil, b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCartItem(ctx context.Context, itemID, quantity int) (*CartItem, error) {
	if itemID <= 0 {
		return nil, apperrors.NewInvalid("item id", itemID, "must be positive")
	}
	if quantity < 1 {
		return nil, apperrors.NewInvalid("quantity", quantity, "must be at least 1")
	}
	b, err := jsonBody(map[string]int{"quantity": quantity})
	if err != nil {
		return nil, err
	}
	var out CartItem
	if err := c.call(ctx, http.MethodPatch, fmt.Sprintf("/cart/items/%d/", itemID), nil, b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveCartItem(ctx context.Context, itemID int) error {
	if itemID <= 0 {
		return apperrors.NewInvalid("item id", itemID, "must be positive")
	}
	return c.call(ctx, http.MethodDelete, fmt.Sprintf("/cart/items/%d/", itemID), nil, nil, nil)
}

// SubmitPrintOrder uploads a document with its print options.
func (c *Client) SubmitPrintOrder(ctx context.Context, req PrintOrderRequest) (*Order, error) {
	if err := binding.Validate(req); err != nil {
		return nil, err
	}
	if req.Document.empty() {
		return nil, apperrors.NewRequired("document")
	}

	fields := map[string]any{
		"copies":     req.Copies,
		"paper_size": req.PaperSize,
		"color":      req.Color,
		"duplex":     req.Duplex,
	}
	if req.Notes != "" {
		fields["notes"] = req.Notes
	}
	b, err := multipartBody(fields, "document", req.Document)
	if err != nil {
		return nil, err
	}
	var out Order
	if err := c.call(ctx, http.MethodPost, "/print-orders/", nil, b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ConfirmPayment(ctx context.Context, req PaymentConfirmation) (*Order, error) {
	if err := binding.Validate(req); err != nil {
		return nil, err
	}
	b, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	var out Order
	if err := c.call(ctx, http.MethodPost, "/payments/confirm/", nil, b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
