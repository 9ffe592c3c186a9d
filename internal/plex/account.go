package plex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/plextool/plextool/internal/shared"
)

const plexTVURL = "https://plex.tv"

// Account talks to the plex.tv account API: sign-in, linked servers, home
// users. A zero token is fine for SignIn, every other call needs one.
type Account struct {
	c *Client
}

// NewAccount creates a plex.tv client with the given account token, which
// may be empty before sign-in.
func NewAccount(token string, opts ...Option) *Account {
	c, err := New(plexTVURL, token, opts...)
	if err != nil {
		// the base URL is a constant, parsing it cannot fail
		panic(err)
	}
	return &Account{c: c}
}

// Token returns the current account token.
func (a *Account) Token() string {
	return a.c.token
}

// SignIn exchanges account credentials for a token. When the account has
// two-factor auth enabled and code is empty, [shared.ErrTwoFactorRequired]
// is returned and the caller should retry with a verification code.
func (a *Account) SignIn(ctx context.Context, login, password, code string) (*User, error) {
	form := url.Values{}
	form.Set("login", login)
	form.Set("password", password)
	form.Set("rememberMe", "true")
	if code != "" {
		form.Set("verificationCode", code)
	}

	var user User
	err := a.c.doForm(ctx, http.MethodPost, "/api/v2/users/signin", form, &user)
	if err != nil {
		if errors.Is(err, shared.ErrUnauthorized) && strings.Contains(err.Error(), "verification code") {
			return nil, fmt.Errorf("%w: account has two-factor auth enabled", shared.ErrTwoFactorRequired)
		}
		if errors.Is(err, shared.ErrUnauthorized) {
			return nil, fmt.Errorf("%w: check username and password", shared.ErrAuthFailed)
		}
		return nil, err
	}
	if user.AuthToken == "" {
		return nil, fmt.Errorf("%w: sign-in response carried no token", shared.ErrAuthFailed)
	}

	a.c = a.c.WithToken(user.AuthToken)
	return &user, nil
}

// CreatePin requests a plex.tv link code. The user enters the code at
// plex.tv/link and [Account.CheckPin] picks the token up once they have.
// The pin is bound to this account's client identifier.
func (a *Account) CreatePin(ctx context.Context) (*Pin, error) {
	var pin Pin
	if err := a.c.do(ctx, http.MethodPost, "/api/v2/pins", &pin); err != nil {
		return nil, fmt.Errorf("requesting link code: %w", err)
	}
	if pin.Code == "" {
		return nil, fmt.Errorf("%w: pin response carried no code", shared.ErrAuthFailed)
	}
	return &pin, nil
}

// CheckPin polls a link code. The returned pin carries an empty token until
// the code is claimed; once it is, the account adopts the token. Expired
// codes come back as [shared.ErrAuthFailed].
func (a *Account) CheckPin(ctx context.Context, id int) (*Pin, error) {
	var pin Pin
	err := a.c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v2/pins/%d", id), &pin)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("%w: the link code expired, request a new one", shared.ErrAuthFailed)
	}
	if err != nil {
		return nil, err
	}

	if pin.AuthToken != "" {
		a.c = a.c.WithToken(pin.AuthToken)
	}
	return &pin, nil
}

// CurrentUser returns the account the token belongs to. Server access
// tokens resolve to the user they were issued for.
func (a *Account) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := a.c.do(ctx, http.MethodGet, "/api/v2/user", &user); err != nil {
		return nil, fmt.Errorf("fetching account user: %w", err)
	}
	return &user, nil
}

// Resources lists the media servers linked to the account.
func (a *Account) Resources(ctx context.Context) ([]Resource, error) {
	var all []Resource
	err := a.c.do(ctx, http.MethodGet, "/api/v2/resources?includeHttps=1&includeRelay=1", &all)
	if err != nil {
		return nil, fmt.Errorf("listing account resources: %w", err)
	}

	servers := all[:0]
	for _, r := range all {
		if r.IsServer() {
			servers = append(servers, r)
		}
	}
	return servers, nil
}

// HomeUsers lists the users of the account's Plex Home, the owner included.
func (a *Account) HomeUsers(ctx context.Context) ([]HomeUser, error) {
	var res homeUsersResponse
	if err := a.c.do(ctx, http.MethodGet, "/api/v2/home/users", &res); err != nil {
		return nil, fmt.Errorf("listing home users: %w", err)
	}
	return res.Users, nil
}

// SwitchUser obtains a token scoped to the given home user. The pin is only
// required for PIN-protected users.
func (a *Account) SwitchUser(ctx context.Context, uuid, pin string) (*User, error) {
	form := url.Values{}
	if pin != "" {
		form.Set("pin", pin)
	}

	var user User
	endpoint := fmt.Sprintf("/api/v2/home/users/%s/switch", url.PathEscape(uuid))
	if err := a.c.doForm(ctx, http.MethodPost, endpoint, form, &user); err != nil {
		return nil, fmt.Errorf("switching user: %w", err)
	}
	if user.AuthToken == "" {
		return nil, fmt.Errorf("%w: switch response carried no token", shared.ErrAuthFailed)
	}
	return &user, nil
}
