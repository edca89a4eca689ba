package identity

import (
	"context"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/models"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/repository"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/utils"
)

// Service implements the header-dispatched identity operations. There
// is no mail delivery; confirmation and reset codes are written to the
// log and read from there in dev setups.
type Service struct {
	users  repository.UserRepository
	codes  CodeStore
	issuer *TokenIssuer
	log    zerolog.Logger
}

func NewService(users repository.UserRepository, codes CodeStore, issuer *TokenIssuer, log zerolog.Logger) *Service {
	return &Service{users: users, codes: codes, issuer: issuer, log: log}
}

// AuthResult is the success payload of InitiateAuth.
type AuthResult struct {
	IDToken   string `json:"idToken"`
	TokenType string `json:"tokenType"`
	ExpiresIn int    `json:"expiresIn"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// checkPasswordPolicy enforces the pool policy: at least 8 characters
// with one letter and one digit.
func checkPasswordPolicy(pw string) *Error {
	if len(pw) < 8 {
		return errf(KindInvalidPassword, "Password did not conform with policy: Password not long enough")
	}
	var hasLetter, hasDigit bool
	for _, r := range pw {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return errf(KindInvalidPassword, "Password did not conform with policy: Password must have letters and numbers")
	}
	return nil
}

func (s *Service) SignUp(ctx context.Context, email, password, firstName, lastName string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, errf(KindInvalidParameter, "Email is required")
	}
	if perr := checkPasswordPolicy(password); perr != nil {
		return nil, perr
	}

	existing, _, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errf(KindUsernameExists, "An account with the given email already exists.")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		ID:        uuid.NewString(),
		Email:     email,
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Role:      models.RoleCustomer,
		Confirmed: false,
	}
	if err := s.users.Create(ctx, u, hash); err != nil {
		return nil, err
	}
	if err := s.deliverCode(ctx, PurposeConfirm, email); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) ConfirmSignUp(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	u, _, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		return errf(KindUserNotFound, "User does not exist.")
	}
	if u.Confirmed {
		return errf(KindNotAuthorized, "User cannot be confirmed. Current status is CONFIRMED")
	}
	if err := s.consumeCode(ctx, PurposeConfirm, email, code); err != nil {
		return err
	}
	return s.users.SetConfirmed(ctx, u.ID, true)
}

func (s *Service) ResendConfirmationCode(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	u, _, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		return errf(KindUserNotFound, "User does not exist.")
	}
	if u.Confirmed {
		return errf(KindInvalidParameter, "User is already confirmed.")
	}
	return s.deliverCode(ctx, PurposeConfirm, email)
}

func (s *Service) InitiateAuth(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	u, hash, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil || !utils.CheckPassword(hash, password) {
		return nil, errf(KindNotAuthorized, "Incorrect username or password.")
	}
	if !u.Confirmed {
		return nil, errf(KindUserNotConfirmed, "User is not confirmed.")
	}
	tok, err := s.issuer.Sign(u)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		IDToken:   tok,
		TokenType: "Bearer",
		ExpiresIn: int(s.issuer.TTL().Seconds()),
	}, nil
}

func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	u, _, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		return errf(KindUserNotFound, "User does not exist.")
	}
	return s.deliverCode(ctx, PurposeReset, email)
}

func (s *Service) ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)
	if perr := checkPasswordPolicy(newPassword); perr != nil {
		return perr
	}
	u, _, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		return errf(KindUserNotFound, "User does not exist.")
	}
	if err := s.consumeCode(ctx, PurposeReset, email, code); err != nil {
		return err
	}
	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePasswordHash(ctx, u.ID, hash)
}

// ChangePassword requires the caller's verified token subject plus the
// previous password.
func (s *Service) ChangePassword(ctx context.Context, userID, previous, proposed string) error {
	if perr := checkPasswordPolicy(proposed); perr != nil {
		return perr
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return errf(KindUserNotFound, "User does not exist.")
	}
	_, hash, err := s.users.GetByEmail(ctx, u.Email)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(hash, previous) {
		return errf(KindNotAuthorized, "Incorrect username or password.")
	}
	newHash, err := utils.HashPassword(proposed)
	if err != nil {
		return err
	}
	return s.users.UpdatePasswordHash(ctx, u.ID, newHash)
}

// ParseToken exposes verified claim parsing for the ChangePassword
// handler and the API auth middleware.
func (s *Service) ParseToken(token string) (*Claims, error) {
	return s.issuer.Parse(token)
}

func (s *Service) deliverCode(ctx context.Context, purpose, email string) error {
	code, err := NewCode()
	if err != nil {
		return err
	}
	if err := s.codes.Put(ctx, purpose, email, code, CodeTTL); err != nil {
		return err
	}
	s.log.Info().Str("purpose", purpose).Str("email", email).Str("code", code).
		Msg("verification code issued")
	return nil
}

func (s *Service) consumeCode(ctx context.Context, purpose, email, code string) error {
	stored, err := s.codes.Get(ctx, purpose, email)
	if err != nil {
		return err
	}
	if stored == "" || code == "" || stored != code {
		return errf(KindCodeMismatch, "Invalid verification code provided, please try again.")
	}
	return s.codes.Delete(ctx, purpose, email)
}
