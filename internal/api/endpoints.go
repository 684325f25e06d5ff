// ABOUTME: Typed endpoint wrappers for auth, catalog, and admin product management
// ABOUTME: Includes the multipart product save mirroring the admin console upload

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
)

// Login authenticates with username and password.
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	return c.authCall(ctx, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
}

// Register creates an account and, on most servers, logs it in.
func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthResponse, error) {
	return c.authCall(ctx, "/api/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
}

// authCall posts credentials and decodes the shared auth response shape.
func (c *Client) authCall(ctx context.Context, path string, payload map[string]string) (*AuthResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	respBody, err := c.do(ctx, http.MethodPost, path, body, "")
	if err != nil {
		return nil, err
	}
	var resp AuthResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decoding auth response: %w", err)
	}
	return &resp, nil
}

// Me returns the authenticated user's identity and roles.
func (c *Client) Me(ctx context.Context) (*MeResponse, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, "")
	if err != nil {
		return nil, err
	}
	var resp MeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding identity response: %w", err)
	}
	return &resp, nil
}

// ListProducts fetches the catalog, filtered by query when q is non-empty.
func (c *Client) ListProducts(ctx context.Context, q string) ([]Product, error) {
	path := "/api/products"
	if q != "" {
		path += "?q=" + url.QueryEscape(q)
	}
	body, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}
	var products []Product
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("decoding product list: %w", err)
	}
	return products, nil
}

// GetProduct fetches a single product by ID.
func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id), nil, "")
	if err != nil {
		return nil, err
	}
	var product Product
	if err := json.Unmarshal(body, &product); err != nil {
		return nil, fmt.Errorf("decoding product: %w", err)
	}
	return &product, nil
}

// SaveProduct creates (empty id) or updates (non-empty id) a product. The
// request is multipart: a JSON "product" part plus an optional binary
// "image" part. Returns the saved product.
func (c *Client) SaveProduct(ctx context.Context, id string, input ProductInput, imageName string, image io.Reader) (*Product, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="product"`)
	header.Set("Content-Type", "application/json")
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("building product part: %w", err)
	}
	if err := json.NewEncoder(part).Encode(input); err != nil {
		return nil, fmt.Errorf("encoding product: %w", err)
	}

	if image != nil {
		file, err := w.CreateFormFile("image", imageName)
		if err != nil {
			return nil, fmt.Errorf("building image part: %w", err)
		}
		if _, err := io.Copy(file, image); err != nil {
			return nil, fmt.Errorf("reading image: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing multipart body: %w", err)
	}

	path := "/api/admin/products"
	method := http.MethodPost
	if id != "" {
		path += "/" + url.PathEscape(id)
		method = http.MethodPut
	}

	body, err := c.do(ctx, method, path, buf.Bytes(), w.FormDataContentType())
	if err != nil {
		return nil, c.adminClassify(err)
	}

	var saved Product
	if err := json.Unmarshal(body, &saved); err != nil {
		return nil, fmt.Errorf("decoding saved product: %w", err)
	}
	return &saved, nil
}

// DeleteProduct deletes a product by ID.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/admin/products/"+url.PathEscape(id), nil, "")
	return c.adminClassify(err)
}

// adminClassify upgrades 403 responses on admin endpoints to the same
// session-invalid signal as 401: the identity is stale or lacks admin, and
// the user must re-authenticate either way.
func (c *Client) adminClassify(err error) error {
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusForbidden {
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return ErrUnauthorized
	}
	return err
}
