package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/identity"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/utils"
)

// ActionHeader carries the identity operation name, the way the
// original hosted provider dispatches on a target header.
const ActionHeader = "X-Identity-Action"

type IdentityHTTP struct {
	svc *identity.Service
	log zerolog.Logger
}

func NewIdentityHTTP(svc *identity.Service, log zerolog.Logger) *IdentityHTTP {
	return &IdentityHTTP{svc: svc, log: log}
}

// POST /identity
func (h *IdentityHTTP) Dispatch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		action := r.Header.Get(ActionHeader)
		var (
			result any
			err    error
		)
		switch action {
		case "InitiateAuth":
			var in struct {
				Email    string `json:"email"`
				Password string `json:"password"`
			}
			if err = decode(r, &in); err == nil {
				result, err = h.svc.InitiateAuth(r.Context(), in.Email, in.Password)
			}
		case "SignUp":
			var in struct {
				Email     string `json:"email"`
				Password  string `json:"password"`
				FirstName string `json:"firstName"`
				LastName  string `json:"lastName"`
			}
			if err = decode(r, &in); err == nil {
				var u any
				u, err = h.svc.SignUp(r.Context(), in.Email, in.Password, in.FirstName, in.LastName)
				if err == nil {
					result = map[string]any{"userConfirmed": false, "user": u}
				}
			}
		case "ConfirmSignUp":
			var in struct {
				Email string `json:"email"`
				Code  string `json:"code"`
			}
			if err = decode(r, &in); err == nil {
				err = h.svc.ConfirmSignUp(r.Context(), in.Email, in.Code)
			}
		case "ResendConfirmationCode":
			var in struct {
				Email string `json:"email"`
			}
			if err = decode(r, &in); err == nil {
				err = h.svc.ResendConfirmationCode(r.Context(), in.Email)
			}
		case "ForgotPassword":
			var in struct {
				Email string `json:"email"`
			}
			if err = decode(r, &in); err == nil {
				err = h.svc.ForgotPassword(r.Context(), in.Email)
			}
		case "ConfirmForgotPassword":
			var in struct {
				Email       string `json:"email"`
				Code        string `json:"code"`
				NewPassword string `json:"newPassword"`
			}
			if err = decode(r, &in); err == nil {
				err = h.svc.ConfirmForgotPassword(r.Context(), in.Email, in.Code, in.NewPassword)
			}
		case "ChangePassword":
			var in struct {
				AccessToken      string `json:"accessToken"`
				PreviousPassword string `json:"previousPassword"`
				ProposedPassword string `json:"proposedPassword"`
			}
			if err = decode(r, &in); err == nil {
				var claims *identity.Claims
				claims, err = h.svc.ParseToken(in.AccessToken)
				if err != nil {
					err = &identity.Error{Kind: identity.KindNotAuthorized, Message: "Invalid Access Token"}
				} else {
					err = h.svc.ChangePassword(r.Context(), claims.Subject, in.PreviousPassword, in.ProposedPassword)
				}
			}
		default:
			err = &identity.Error{Kind: identity.KindInvalidParameter, Message: "Unknown action: " + action}
		}

		if err != nil {
			h.writeError(w, err)
			return
		}
		if result == nil {
			result = map[string]any{}
		}
		utils.JSON(w, http.StatusOK, result)
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &identity.Error{Kind: identity.KindInvalidParameter, Message: "Invalid JSON in request body"}
	}
	return nil
}

func (h *IdentityHTTP) writeError(w http.ResponseWriter, err error) {
	var idErr *identity.Error
	if !errors.As(err, &idErr) {
		h.log.Error().Err(err).Msg("identity operation failed")
		idErr = &identity.Error{Kind: identity.KindInternalError, Message: "Internal error"}
	}
	status := http.StatusBadRequest
	if idErr.Kind == identity.KindInternalError {
		status = http.StatusInternalServerError
	}
	utils.JSON(w, status, idErr)
}
