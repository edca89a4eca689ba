package client

import (
	"context"

	"github.com/pkg/errors"
)

// SignIn runs the full login flow: authenticate, verify the returned
// token against the JWKS, store the verified profile, then upgrade the
// role from the backend. Profile claims are never read from an
// unverified token.
//
// The role fetch is best-effort: if /users/me fails the session keeps
// the CUSTOMER default rather than failing the login.
func SignIn(ctx context.Context, idp *IdentityClient, api *API, verifier *JWKSVerifier, sess *SessionStore, email, password string) error {
	res, err := idp.InitiateAuth(ctx, email, password)
	if err != nil {
		return err
	}

	claims, err := verifier.Verify(ctx, res.IDToken)
	if err != nil {
		return errors.Wrap(err, "sign in")
	}

	p := Profile{
		Sub:       claims.Subject,
		Email:     claims.Email,
		FirstName: claims.GivenName,
		LastName:  claims.FamilyName,
	}
	sess.Login(p, res.IDToken)

	if me, err := api.Me(ctx); err == nil {
		p.Role = me.Role
		if me.FirstName != "" {
			p.FirstName = me.FirstName
		}
		if me.LastName != "" {
			p.LastName = me.LastName
		}
		sess.Login(p, res.IDToken)
	}
	return nil
}
