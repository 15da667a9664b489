package validation

import (
	"context"
)

// UserLookup is the uniqueness collaborator backed by the user store.
type UserLookup interface {
	UserExistsByEmail(ctx context.Context, email string) (bool, error)
	UserExistsByLogin(ctx context.Context, login string) (bool, error)
}

// Checker combines format validation with uniqueness checks that need
// the user store.
type Checker struct {
	Users UserLookup
}

// Email validates the address shape and rejects addresses that already
// belong to a registered account.
func (c *Checker) Email(ctx context.Context, s string) (string, error) {
	email, err := Email(s)
	if err != nil {
		return "", err
	}
	taken, err := c.Users.UserExistsByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if taken {
		return "", Reject("Користувач з таким email вже зареєстрований. Вкажіть іншу адресу.")
	}
	return email, nil
}

// Login validates the login shape and rejects logins that are already
// taken. Lookups run against the lowercased form.
func (c *Checker) Login(ctx context.Context, s string) (string, error) {
	login, err := Login(s)
	if err != nil {
		return "", err
	}
	taken, err := c.Users.UserExistsByLogin(ctx, login)
	if err != nil {
		return "", err
	}
	if taken {
		return "", Reject("Цей логін вже зайнятий. Оберіть інший.")
	}
	return login, nil
}
