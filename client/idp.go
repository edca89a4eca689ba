package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// actionHeader selects the identity operation, matching the hosted
// provider's target-header dispatch.
const actionHeader = "X-Identity-Action"

// IdentityError is the provider's structured failure. Kind holds the
// provider exception name.
type IdentityError struct {
	Kind    string `json:"__type"`
	Message string `json:"message"`
}

func (e *IdentityError) Error() string {
	return e.Kind + ": " + e.Message
}

// Friendly maps provider exception names to user-facing text; matching
// is by substring so suffixed or namespaced kinds still resolve.
func (e *IdentityError) Friendly() string {
	switch {
	case strings.Contains(e.Kind, "UserNotConfirmed"):
		return "Please confirm your account before signing in."
	case strings.Contains(e.Kind, "NotAuthorized"):
		return "Incorrect email or password."
	case strings.Contains(e.Kind, "UsernameExists"):
		return "An account with this email already exists."
	case strings.Contains(e.Kind, "InvalidPassword"):
		return "Password must be at least 8 characters and include letters and numbers."
	case strings.Contains(e.Kind, "ExpiredCode"):
		return "That verification code has expired. Request a new one."
	case strings.Contains(e.Kind, "CodeMismatch"):
		return "Invalid verification code."
	case strings.Contains(e.Kind, "UserNotFound"):
		return "No account found for this email."
	case strings.Contains(e.Kind, "LimitExceeded"):
		return "Too many attempts. Please wait and try again."
	}
	if e.Message != "" {
		return e.Message
	}
	return genericFailure
}

// IdentityClient talks to the identity endpoint.
type IdentityClient struct {
	endpoint string
	http     *http.Client
}

func NewIdentityClient(endpoint string) *IdentityClient {
	return &IdentityClient{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *IdentityClient) call(ctx context.Context, action string, in, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "encode identity request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(raw))
	if err != nil {
		return errors.Wrap(err, "build identity request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(actionHeader, action)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "identity %s", action)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var idErr IdentityError
		if json.NewDecoder(resp.Body).Decode(&idErr) == nil && idErr.Kind != "" {
			return &idErr
		}
		return &IdentityError{Kind: "InternalErrorException", Message: "identity request failed"}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrapf(err, "decode identity %s response", action)
		}
	}
	return nil
}

// AuthResult is the successful InitiateAuth payload.
type AuthResult struct {
	IDToken   string `json:"idToken"`
	TokenType string `json:"tokenType"`
	ExpiresIn int64  `json:"expiresIn"`
}

func (c *IdentityClient) InitiateAuth(ctx context.Context, email, password string) (*AuthResult, error) {
	in := map[string]string{"email": email, "password": password}
	var res AuthResult
	if err := c.call(ctx, "InitiateAuth", in, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *IdentityClient) SignUp(ctx context.Context, email, password, firstName, lastName string) error {
	in := map[string]string{
		"email":     email,
		"password":  password,
		"firstName": firstName,
		"lastName":  lastName,
	}
	return c.call(ctx, "SignUp", in, nil)
}

func (c *IdentityClient) ConfirmSignUp(ctx context.Context, email, code string) error {
	in := map[string]string{"email": email, "code": code}
	return c.call(ctx, "ConfirmSignUp", in, nil)
}

func (c *IdentityClient) ResendConfirmationCode(ctx context.Context, email string) error {
	in := map[string]string{"email": email}
	return c.call(ctx, "ResendConfirmationCode", in, nil)
}

func (c *IdentityClient) ForgotPassword(ctx context.Context, email string) error {
	in := map[string]string{"email": email}
	return c.call(ctx, "ForgotPassword", in, nil)
}

func (c *IdentityClient) ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error {
	in := map[string]string{"email": email, "code": code, "newPassword": newPassword}
	return c.call(ctx, "ConfirmForgotPassword", in, nil)
}

func (c *IdentityClient) ChangePassword(ctx context.Context, accessToken, previous, proposed string) error {
	in := map[string]string{
		"accessToken":      accessToken,
		"previousPassword": previous,
		"proposedPassword": proposed,
	}
	return c.call(ctx, "ChangePassword", in, nil)
}
