package ops

import (
	"context"
	"fmt"
	"time"

	"github.com/hpungsan/slidecraft/internal/auth"
	"github.com/hpungsan/slidecraft/internal/db"
	"github.com/hpungsan/slidecraft/internal/deck"
	"github.com/hpungsan/slidecraft/internal/errors"
)

// CreateUserInput contains parameters for the CreateUser operation.
type CreateUserInput struct {
	Email    string
	Password string
	IsAdmin  bool
}

// CreateUser registers an account. Register is the public form, which never
// grants admin.
func CreateUser(ctx context.Context, env *Env, input CreateUserInput) (*UserView, error) {
	email := deck.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, errors.NewInvalidRequest("email and password are required")
	}
	if !deck.ValidEmail(email) {
		return nil, errors.NewInvalidRequest("invalid email address")
	}
	if len(input.Password) < auth.MinPasswordLength {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	u := &deck.User{
		ID:           deck.NewID(),
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      input.IsAdmin,
		CreatedAt:    time.Now().Unix(),
	}
	if err := db.InsertUser(ctx, env.DB, u); err != nil {
		if errors.Is(err, errors.ErrConflict) {
			return nil, errors.NewConflict("a user with this email already exists")
		}
		return nil, err
	}

	out := userView(u)
	return &out, nil
}

// RegisterInput contains parameters for the Register operation.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a regular account.
func Register(ctx context.Context, env *Env, input RegisterInput) (*UserView, error) {
	return CreateUser(ctx, env, CreateUserInput{Email: input.Email, Password: input.Password})
}

// LoginInput contains parameters for the Login operation.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginOutput contains the result of the Login operation.
type LoginOutput struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

// Login checks credentials and issues a token.
func Login(ctx context.Context, env *Env, input LoginInput) (*LoginOutput, error) {
	if input.Email == "" || input.Password == "" {
		return nil, errors.NewInvalidRequest("email and password are required")
	}

	u, err := db.GetUserByEmail(ctx, env.DB, deck.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.NewUnauthorized("invalid email or password")
		}
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, input.Password) {
		return nil, errors.NewUnauthorized("invalid email or password")
	}

	secret, err := env.secret()
	if err != nil {
		return nil, err
	}
	token, err := auth.GenerateToken(u.ID, secret, env.Config.TokenTTL())
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &LoginOutput{Token: token, User: userView(u)}, nil
}

// Authenticate resolves a bearer token into a Caller. The admin flag is
// read from the current user row, not from the token.
func Authenticate(ctx context.Context, env *Env, token string) (Caller, error) {
	if token == "" {
		return Caller{}, errors.NewUnauthorized("authentication token is missing")
	}
	secret, err := env.secret()
	if err != nil {
		return Caller{}, err
	}
	userID, err := auth.GetUserIDFromToken(token, secret)
	if err != nil {
		return Caller{}, errors.NewUnauthorized("invalid token")
	}
	return CallerFor(ctx, env, userID)
}

// CallerFor builds the Caller for an existing user id.
func CallerFor(ctx context.Context, env *Env, userID string) (Caller, error) {
	u, err := db.GetUserByID(ctx, env.DB, userID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return Caller{}, errors.NewUnauthorized("user not found")
		}
		return Caller{}, err
	}
	return Caller{UserID: u.ID, IsAdmin: u.IsAdmin}, nil
}

// CallerByEmail builds the Caller for the account with email. Local
// surfaces (CLI, MCP) act as a configured user this way.
func CallerByEmail(ctx context.Context, env *Env, email string) (Caller, error) {
	if email == "" {
		return Caller{}, errors.NewInvalidRequest("user email is required")
	}
	u, err := db.GetUserByEmail(ctx, env.DB, deck.NormalizeEmail(email))
	if err != nil {
		return Caller{}, err
	}
	return Caller{UserID: u.ID, IsAdmin: u.IsAdmin}, nil
}

func (e *Env) secret() ([]byte, error) {
	if e.Config == nil || e.Config.SecretKey == "" {
		return nil, errors.NewInternal(fmt.Errorf("secret key is not configured"))
	}
	return []byte(e.Config.SecretKey), nil
}
