package hisab

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 4

// AdminCredentials is the single admin login.
type AdminCredentials struct {
	Identifier   string `json:"identifier"`
	PasswordHash string `json:"passwordHash"`
}

// User is a worker-facing login. Name matches the worker roster name.
type User struct {
	Name         string `json:"name"`
	Mobile       string `json:"mobile"`
	PasswordHash string `json:"passwordHash"`
}

// SetAdminCredentials replaces the admin login.
func (b *Book) SetAdminCredentials(ctx context.Context, identifier, password string) error {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return b.reject(invalid("identifier", "admin identifier is required"))
	}
	hash, err := hashPassword(password)
	if err != nil {
		return b.reject(err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	Set(ctx, b.storage, KeyAdminCredentials, AdminCredentials{Identifier: identifier, PasswordHash: hash})
	return nil
}

// HasAdmin reports whether admin credentials are stored.
func (b *Book) HasAdmin(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Get(ctx, b.storage, KeyAdminCredentials, AdminCredentials{}).PasswordHash != ""
}

// ValidateAdmin checks an admin login.
func (b *Book) ValidateAdmin(ctx context.Context, identifier, password string) bool {
	b.mu.Lock()
	creds := Get(ctx, b.storage, KeyAdminCredentials, AdminCredentials{})
	b.mu.Unlock()

	if creds.PasswordHash == "" || creds.Identifier != strings.TrimSpace(identifier) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(password)) == nil
}

// RegisterUser stores a worker login. The name must be on the roster.
func (b *Book) RegisterUser(ctx context.Context, name, mobile, password string) (User, error) {
	name = strings.TrimSpace(name)
	mobile = strings.TrimSpace(mobile)
	if name == "" || mobile == "" {
		return User{}, b.reject(invalid("user", "name and mobile are required"))
	}
	hash, err := hashPassword(password)
	if err != nil {
		return User{}, b.reject(err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	onRoster := false
	for _, w := range GetArray[string](ctx, b.storage, KeyWorkers) {
		if w == name {
			onRoster = true
			break
		}
	}
	if !onRoster {
		return User{}, b.reject(ErrWorkerNotFound)
	}

	users := GetArray[User](ctx, b.storage, KeyUsers)
	for _, u := range users {
		if u.Name == name {
			return User{}, b.reject(fmt.Errorf("%w: login for %s", ErrWorkerExists, name))
		}
	}
	u := User{Name: name, Mobile: mobile, PasswordHash: hash}
	Set(ctx, b.storage, KeyUsers, append(users, u))
	b.notify.Success("login created for " + name)
	return u, nil
}

// ValidateUser finds the worker login matching name, mobile and password.
func (b *Book) ValidateUser(ctx context.Context, name, mobile, password string) (User, error) {
	b.mu.Lock()
	users := GetArray[User](ctx, b.storage, KeyUsers)
	b.mu.Unlock()

	name = strings.TrimSpace(name)
	mobile = strings.TrimSpace(mobile)
	for _, u := range users {
		if u.Name != name || u.Mobile != mobile {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil {
			return u, nil
		}
		break
	}
	return User{}, ErrInvalidCredentials
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", invalid("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
