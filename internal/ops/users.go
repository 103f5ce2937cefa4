package ops

import (
	"context"

	"github.com/hpungsan/slidecraft/internal/db"
	"github.com/hpungsan/slidecraft/internal/deck"
	"github.com/hpungsan/slidecraft/internal/errors"
)

// ListUsers returns every account, oldest first.
func ListUsers(ctx context.Context, env *Env, caller Caller) ([]UserView, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return listUsers(ctx, env)
}

// ListUsersLocal lists accounts for the operator CLI, which has no caller.
func ListUsersLocal(ctx context.Context, env *Env) ([]UserView, error) {
	return listUsers(ctx, env)
}

func listUsers(ctx context.Context, env *Env) ([]UserView, error) {
	users, err := db.ListUsers(ctx, env.DB)
	if err != nil {
		return nil, err
	}
	out := make([]UserView, 0, len(users))
	for i := range users {
		out = append(out, userView(&users[i]))
	}
	return out, nil
}

// SetAdminInput contains parameters for the SetAdmin operation.
type SetAdminInput struct {
	UserID  string `json:"-"`
	IsAdmin *bool  `json:"is_admin"`
}

// SetAdmin grants or revokes another user's admin flag. Admins cannot
// revoke their own flag, so at least one admin always remains.
func SetAdmin(ctx context.Context, env *Env, caller Caller, input SetAdminInput) (*UserView, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if input.IsAdmin == nil {
		return nil, errors.NewInvalidRequest("is_admin is required")
	}
	if input.UserID == caller.UserID && !*input.IsAdmin {
		return nil, errors.NewInvalidRequest("admins cannot revoke their own admin flag")
	}
	if err := db.SetUserAdmin(ctx, env.DB, input.UserID, *input.IsAdmin); err != nil {
		return nil, err
	}
	u, err := db.GetUserByID(ctx, env.DB, input.UserID)
	if err != nil {
		return nil, err
	}
	env.log().Info(ctx, "changed admin flag", "user_id", u.ID, "is_admin", u.IsAdmin)
	v := userView(u)
	return &v, nil
}

// MakeAdmin grants the admin flag to the account with email. It is the
// operator's bootstrap path and runs without a caller.
func MakeAdmin(ctx context.Context, env *Env, email string) (*UserView, error) {
	if email == "" {
		return nil, errors.NewInvalidRequest("email is required")
	}
	u, err := db.GetUserByEmail(ctx, env.DB, deck.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if err := db.SetUserAdmin(ctx, env.DB, u.ID, true); err != nil {
		return nil, err
	}
	u.IsAdmin = true
	v := userView(u)
	return &v, nil
}
