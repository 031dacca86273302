package api

import (
	"context"

	"ecatalog-admin/internal/infra/logx"
)

// TokenPair is the JWT pair issued by the backend.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// ObtainToken exchanges credentials for a token pair and installs it into
// the session.
func (c *Client) ObtainToken(ctx context.Context, username, password string) (TokenPair, error) {
	var pair TokenPair
	body := map[string]string{"username": username, "password": password}
	if err := c.post(ctx, "/token/", body, &pair); err != nil {
		return TokenPair{}, err
	}
	logx.RegisterSecret(pair.Access)
	logx.RegisterSecret(pair.Refresh)
	c.session.SetTokens(pair.Access, pair.Refresh)
	return pair, nil
}

// Refresh exchanges the stored refresh token for a new access token and
// installs it.
func (c *Client) Refresh(ctx context.Context) error {
	refresh := c.session.RefreshToken()
	if refresh == "" {
		return &Error{Status: 401, Detail: "no refresh token"}
	}
	var out struct {
		Access string `json:"access"`
	}
	if err := c.post(ctx, "/token/refresh/", map[string]string{"refresh": refresh}, &out); err != nil {
		return err
	}
	logx.RegisterSecret(out.Access)
	c.session.SetTokens(out.Access, refresh)
	return nil
}

// Verify checks the current access token against the backend.
func (c *Client) Verify(ctx context.Context) error {
	tok := c.session.Token()
	if tok == "" {
		return &Error{Status: 401, Detail: "no token"}
	}
	return c.post(ctx, "/token/verify/", map[string]string{"token": tok}, nil)
}
