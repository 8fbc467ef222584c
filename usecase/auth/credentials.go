package auth

import (
	"context"
	"strings"

	"github.com/fastygo/tasker/domain"
)

// CredentialSource produces the profile for a sign-in attempt. The manager
// assigns the user id and creation time.
type CredentialSource interface {
	Provider() domain.Provider
	Authenticate(ctx context.Context) (domain.User, error)
}

// EmailLogin signs in with an email and password. The password is required
// but not verified against any stored credential.
type EmailLogin struct {
	Email    string
	Password string
}

func (EmailLogin) Provider() domain.Provider { return domain.ProviderEmail }

func (c EmailLogin) Authenticate(context.Context) (domain.User, error) {
	email := strings.TrimSpace(c.Email)
	if email == "" {
		return domain.User{}, domain.ErrEmailRequired
	}
	if c.Password == "" {
		return domain.User{}, domain.ErrPasswordRequired
	}
	return domain.User{
		Email:    email,
		Name:     domain.LocalPart(email),
		Provider: domain.ProviderEmail,
	}, nil
}

// EmailRegistration creates an email account with an explicit display name.
type EmailRegistration struct {
	Name     string
	Email    string
	Password string
}

func (EmailRegistration) Provider() domain.Provider { return domain.ProviderEmail }

func (c EmailRegistration) Authenticate(ctx context.Context) (domain.User, error) {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return domain.User{}, domain.ErrNameRequired
	}
	user, err := EmailLogin{Email: c.Email, Password: c.Password}.Authenticate(ctx)
	if err != nil {
		return domain.User{}, err
	}
	user.Name = name
	return user, nil
}

// GoogleStub stands in for a Google OAuth exchange and always returns the
// same demo identity. Placeholder until a real provider is wired.
type GoogleStub struct{}

func (GoogleStub) Provider() domain.Provider { return domain.ProviderGoogle }

func (GoogleStub) Authenticate(context.Context) (domain.User, error) {
	return domain.User{
		Email:    "user@gmail.com",
		Name:     "Google User",
		Avatar:   "https://images.unsplash.com/photo-1472099645785-5658abf4ff4e?w=40&h=40&fit=crop&crop=face",
		Provider: domain.ProviderGoogle,
	}, nil
}

// FacebookStub stands in for a Facebook OAuth exchange. Placeholder, like GoogleStub.
type FacebookStub struct{}

func (FacebookStub) Provider() domain.Provider { return domain.ProviderFacebook }

func (FacebookStub) Authenticate(context.Context) (domain.User, error) {
	return domain.User{
		Email:    "user@facebook.com",
		Name:     "Facebook User",
		Avatar:   "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?w=40&h=40&fit=crop&crop=face",
		Provider: domain.ProviderFacebook,
	}, nil
}

var (
	_ CredentialSource = EmailLogin{}
	_ CredentialSource = EmailRegistration{}
	_ CredentialSource = GoogleStub{}
	_ CredentialSource = FacebookStub{}
)
