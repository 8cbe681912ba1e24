package broker

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pquerna/otp/totp"
)

// Login generates a session with the venue. The second factor is a TOTP code
// derived from the configured base32 secret, regenerated per attempt.
func (c *Client) Login(ctx context.Context) error {
	code, err := totp.GenerateCode(c.cfg.TOTPSecret, time.Now())
	if err != nil {
		return fmt.Errorf("broker: generate totp: %w", err)
	}

	payload := map[string]any{
		"client_code": c.cfg.ClientCode,
		"password":    c.cfg.Password,
		"totp":        code,
	}

	var session struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(ctx, http.MethodPost, routeLogin, payload, &session); err != nil {
		return err
	}
	if session.AccessToken == "" {
		return fmt.Errorf("broker: login returned empty access token")
	}

	c.accessToken = session.AccessToken
	return nil
}

// Logout drops the local session token.
func (c *Client) Logout() {
	c.accessToken = ""
}
