package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	var out LoginResponse
	err := c.sendJSON(ctx, c.forms, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	return out, err
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	var out RegisterResponse
	err := c.sendJSON(ctx, c.forms, http.MethodPost, "/auth/register", req, &out)
	return out, err
}

// Logout tells the backend to end the session and clears the stored tokens
// whether or not the backend call succeeded.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.sendJSON(ctx, c.api, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		c.log.Warn().Err(err).Msg("logout request failed")
	}
	return clearTokens(ctx, c.storage)
}

func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (RefreshResponse, error) {
	var out RefreshResponse
	err := c.sendJSON(ctx, c.bare, http.MethodPost, "/auth/refresh", map[string]string{
		"refreshToken": refreshToken,
	}, &out)
	return out, err
}

func (c *Client) ValidateToken(ctx context.Context, token string) (ValidateResponse, error) {
	var out ValidateResponse
	err := c.sendJSON(ctx, c.bare, http.MethodPost, "/auth/validate", map[string]string{
		"token": token,
	}, &out)
	return out, err
}

func (c *Client) GetCurrentUser(ctx context.Context) (User, error) {
	var out userEnvelope
	err := c.sendJSON(ctx, c.api, http.MethodGet, "/auth/me", nil, &out)
	return out.User, err
}

func (c *Client) UpdateProfile(ctx context.Context, req ProfileRequest) (User, error) {
	var out userEnvelope
	err := c.sendJSON(ctx, c.api, http.MethodPut, "/auth/profile", req, &out)
	return out.User, err
}

func (c *Client) ChangePassword(ctx context.Context, currentPassword, newPassword string) (MessageResponse, error) {
	var out MessageResponse
	err := c.sendJSON(ctx, c.api, http.MethodPut, "/auth/change-password", map[string]string{
		"currentPassword": currentPassword,
		"newPassword":     newPassword,
	}, &out)
	return out, err
}

func (c *Client) RequestPasswordReset(ctx context.Context, email string) (MessageResponse, error) {
	var out MessageResponse
	err := c.sendJSON(ctx, c.forms, http.MethodPost, "/auth/forgot-password", map[string]string{
		"email": email,
	}, &out)
	return out, err
}

func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (MessageResponse, error) {
	var out MessageResponse
	err := c.sendJSON(ctx, c.forms, http.MethodPost, "/auth/reset-password", map[string]string{
		"token":       token,
		"newPassword": newPassword,
	}, &out)
	return out, err
}

// UploadAvatar buffers the file so the request can be replayed after a
// token refresh.
func (c *Client) UploadAvatar(ctx context.Context, filename string, file io.Reader) (User, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return User{}, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return User{}, fmt.Errorf("buffer avatar: %w", err)
	}
	if err := mw.Close(); err != nil {
		return User{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/avatar", bytes.NewReader(buf.Bytes()))
	if err != nil {
		return User{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out userEnvelope
	err = c.do(c.api, req, &out)
	return out.User, err
}
