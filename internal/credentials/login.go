package credentials

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/plextool/plextool/internal/plex"
	"github.com/plextool/plextool/internal/prompt"
	"github.com/plextool/plextool/internal/shared"
)

const (
	defaultProbeTimeout = 5 * time.Second
	defaultPollInterval = 2 * time.Second
	linkURL             = "https://plex.tv/link"
)

// Flow walks a user through account sign-in and server selection and returns
// credentials for the chosen server. Zero fields get working defaults, so
// `(&Flow{}).Run(ctx, "", "")` is the whole first-run experience.
type Flow struct {
	Account        *plex.Account // plex.tv client, fresh and token-less by default
	Prompter       prompt.Prompter
	Output         io.Writer
	Logger         *log.Logger
	Link           bool               // sign in with a plex.tv/link code instead of a password
	OpenURL        func(string) error // browser opener for link sign-in, [shared.OpenBrowser] by default
	ProbeTimeout   time.Duration
	PollInterval   time.Duration // how often link sign-in polls for the claimed code
	AccountOptions []plex.Option // for accounts rebuilt after a user switch
	ClientOptions  []plex.Option // for the server probe clients
}

func (f *Flow) defaults() {
	if f.Account == nil {
		f.Account = plex.NewAccount("", f.AccountOptions...)
	}
	if f.Prompter == nil {
		f.Prompter = prompt.New()
	}
	if f.Output == nil {
		f.Output = io.Discard
	}
	if f.OpenURL == nil {
		f.OpenURL = shared.OpenBrowser
	}
	if f.ProbeTimeout <= 0 {
		f.ProbeTimeout = defaultProbeTimeout
	}
	if f.PollInterval <= 0 {
		f.PollInterval = defaultPollInterval
	}
}

// Run signs in, picks a server and probes its connections. A non-empty
// server narrows the choice by name, a non-empty user switches to that home
// user before the server token is resolved.
func (f *Flow) Run(ctx context.Context, server, user string) (*Credentials, error) {
	f.defaults()

	if err := f.signIn(ctx); err != nil {
		return nil, err
	}

	account := f.Account
	if user != "" {
		switched, err := f.switchUser(ctx, user)
		if err != nil {
			return nil, err
		}
		account = switched
	}

	resource, err := f.pickServer(ctx, account, server)
	if err != nil {
		return nil, err
	}
	return f.probe(ctx, resource)
}

func (f *Flow) signIn(ctx context.Context) error {
	if f.Link {
		return f.linkSignIn(ctx)
	}

	login, err := f.Prompter.Input("Plex username or email", "")
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAborted, err)
	}
	password, err := f.Prompter.Password("Password")
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAborted, err)
	}

	_, err = f.Account.SignIn(ctx, login, password, "")
	if errors.Is(err, shared.ErrTwoFactorRequired) {
		code, perr := f.Prompter.Input("Verification code", "")
		if perr != nil {
			return fmt.Errorf("%w: %v", shared.ErrAborted, perr)
		}
		_, err = f.Account.SignIn(ctx, login, password, code)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(f.Output, "✓ signed in")
	return nil
}

// linkSignIn signs in without a password: request a link code, send the user
// to plex.tv/link and poll until they claim the code there. The server
// expires unclaimed codes, which ends the wait.
func (f *Flow) linkSignIn(ctx context.Context) error {
	pin, err := f.Account.CreatePin(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(f.Output, "Go to %s and enter the code %s\n", linkURL, pin.Code)
	if err := f.OpenURL(linkURL); err != nil && f.Logger != nil {
		f.Logger.Debug("browser did not open, enter the code manually", "err", err)
	}

	ticker := time.NewTicker(f.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", shared.ErrAborted, ctx.Err())
		case <-ticker.C:
		}

		checked, err := f.Account.CheckPin(ctx, pin.ID)
		if err != nil {
			return err
		}
		if checked.AuthToken != "" {
			fmt.Fprintln(f.Output, "✓ signed in")
			return nil
		}
	}
}

// switchUser resolves a home user by name and returns an account scoped to
// them. The server token must come from a resource listing under the
// switched account, so the caller re-lists with the result.
func (f *Flow) switchUser(ctx context.Context, name string) (*plex.Account, error) {
	users, err := f.Account.HomeUsers(ctx)
	if err != nil {
		return nil, err
	}

	var match *plex.HomeUser
	for i := range users {
		u := &users[i]
		if strings.EqualFold(u.Username, name) || strings.EqualFold(u.Email, name) || strings.EqualFold(u.Title, name) {
			match = u
			break
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: no home user named %q", shared.ErrNoMatch, name)
	}

	pin := ""
	if match.Protected {
		pin, err = f.Prompter.Password(fmt.Sprintf("PIN for %s", match.Title))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrAborted, err)
		}
	}

	switched, err := f.Account.SwitchUser(ctx, match.UUID, pin)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(f.Output, "✓ switched to %s\n", match.Title)

	return plex.NewAccount(switched.AuthToken, f.AccountOptions...), nil
}

func (f *Flow) pickServer(ctx context.Context, account *plex.Account, name string) (*plex.Resource, error) {
	servers, err := account.Resources(ctx)
	if err != nil {
		return nil, err
	}
	if len(servers) == 0 {
		return nil, fmt.Errorf("%w: the account has no servers", shared.ErrNoMatch)
	}

	if name != "" {
		for i := range servers {
			if strings.EqualFold(servers[i].Name, name) {
				return &servers[i], nil
			}
		}
		return nil, fmt.Errorf("%w: no server named %q", shared.ErrNoMatch, name)
	}

	if len(servers) == 1 {
		fmt.Fprintf(f.Output, "using server %s\n", servers[0].Name)
		return &servers[0], nil
	}

	names := make([]string, len(servers))
	for i, s := range servers {
		names[i] = s.Name
	}
	idx, err := f.Prompter.Select("Choose a server", names)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAborted, err)
	}
	return &servers[idx], nil
}

// probe tries the server's advertised connections, local addresses first and
// relays last, and keeps the first one that answers an identity request.
func (f *Flow) probe(ctx context.Context, resource *plex.Resource) (*Credentials, error) {
	conns := orderConnections(resource.Connections)
	if len(conns) == 0 {
		return nil, fmt.Errorf("%w: server %q advertises no connections", shared.ErrServerUnreachable, resource.Name)
	}

	for _, conn := range conns {
		client, err := plex.New(conn.URI, resource.AccessToken, f.ClientOptions...)
		if err != nil {
			continue
		}

		probeCtx, cancel := context.WithTimeout(ctx, f.ProbeTimeout)
		identity, err := client.Identity(probeCtx)
		cancel()
		if err != nil {
			if f.Logger != nil {
				f.Logger.Debug("connection probe failed", "uri", conn.URI, "err", err)
			}
			continue
		}

		fmt.Fprintf(f.Output, "✓ connected to %s (%s)\n", resource.Name, identity.Version)
		return &Credentials{BaseURL: client.BaseURL(), Token: resource.AccessToken}, nil
	}
	return nil, fmt.Errorf("%w: none of %d connections to %q responded", shared.ErrServerUnreachable, len(conns), resource.Name)
}

func orderConnections(conns []plex.Connection) []plex.Connection {
	ordered := make([]plex.Connection, 0, len(conns))
	for _, c := range conns {
		if c.Local && !c.Relay {
			ordered = append(ordered, c)
		}
	}
	for _, c := range conns {
		if !c.Local && !c.Relay {
			ordered = append(ordered, c)
		}
	}
	for _, c := range conns {
		if c.Relay {
			ordered = append(ordered, c)
		}
	}
	return ordered
}
