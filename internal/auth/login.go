package auth

import (
	"context"
	"time"

	"github.com/basecamp/basecamp-cli/internal/output"
	"github.com/basecamp/basecamp-cli/internal/session"
)

const defaultCallbackTimeout = 180 * time.Second

// AccountPicker chooses among several eligible accounts. A nil picker means
// the session is non-interactive and multiple matches become an error.
type AccountPicker func(accounts []Account) (Account, error)

// LoginOptions configures one login attempt.
type LoginOptions struct {
	AccountID int64
	NoBrowser bool
	Overrides session.Overrides
	Picker    AccountPicker

	// Endpoints and CallbackTimeout default to production values; tests
	// point them at local fakes.
	Endpoints       *Endpoints
	CallbackTimeout time.Duration
}

// LoginResult is what a successful login reports.
type LoginResult struct {
	AccountID   int64  `json:"account_id"`
	AccountName string `json:"account_name"`
}

// Login runs the full authorization-code flow: bind the loopback server,
// send the user to the browser, wait for the redirect, verify the CSRF
// state, exchange the code, pick an account, and persist the session.
func Login(ctx context.Context, store *session.Store, out *output.Writer, opts LoginOptions) (*LoginResult, error) {
	resolved, err := store.ResolveLoginCredentials(opts.Overrides)
	if err != nil {
		return nil, err
	}

	timeout := opts.CallbackTimeout
	if timeout <= 0 {
		timeout = defaultCallbackTimeout
	}
	server, err := BindCallback(resolved.RedirectURI, timeout)
	if err != nil {
		return nil, err
	}

	client := NewClient(resolved.ClientID, resolved.ClientSecret, resolved.RedirectURI)
	if opts.Endpoints != nil {
		client = client.WithEndpoints(*opts.Endpoints)
	}

	expectedState, err := GenerateState()
	if err != nil {
		server.Close()
		return nil, err
	}
	authorizationURL := client.AuthorizationURL(expectedState)

	if opts.NoBrowser {
		out.Textf("Open this URL to continue login:\n%s\n", authorizationURL)
	} else if err := openBrowser(authorizationURL); err != nil {
		out.Notef("Could not open browser automatically (%v). Open this URL manually:\n%s\n", err, authorizationURL)
	}

	callback, err := server.WaitForCode()
	if err != nil {
		return nil, err
	}

	// The state check runs before any call to the token endpoint so a
	// forged redirect never triggers an exchange.
	if callback.State != expectedState {
		return nil, output.ErrOAuth("OAuth state mismatch. Aborting login for security.")
	}

	tokens, err := client.ExchangeCode(ctx, callback.Code)
	if err != nil {
		return nil, err
	}

	accounts, err := client.FetchAuthorization(ctx, tokens.AccessToken)
	if err != nil {
		return nil, err
	}
	account, err := SelectAccount(accounts, opts.AccountID, opts.Picker)
	if err != nil {
		return nil, err
	}

	if err := store.SaveSession(session.Session{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		AccountID:    int64(account.ID),
		AccountName:  account.Name,
		AccountHref:  account.Href,
	}); err != nil {
		return nil, err
	}

	return &LoginResult{AccountID: int64(account.ID), AccountName: account.Name}, nil
}

// SelectAccount narrows the authorization's accounts to current-generation
// Basecamp ("bc3") ones and applies the selection rules: an explicit id must match, a single
// candidate is taken silently, several need the picker.
func SelectAccount(accounts []Account, requestedID int64, pick AccountPicker) (Account, error) {
	var eligible []Account
	for _, account := range accounts {
		if account.Product == "bc3" {
			eligible = append(eligible, account)
		}
	}

	if len(eligible) == 0 {
		return Account{}, output.ErrNoAccount("No accessible Basecamp account found (product == bc3).")
	}

	if requestedID != 0 {
		for _, account := range eligible {
			if int64(account.ID) == requestedID {
				return account, nil
			}
		}
		return Account{}, output.ErrNoAccountf("Requested account_id %d was not found in accessible Basecamp accounts.", requestedID)
	}

	if len(eligible) == 1 {
		return eligible[0], nil
	}

	if pick == nil {
		return Account{}, output.ErrInvalidInputHint(
			"Multiple Basecamp accounts found and no interactive terminal to choose one.",
			"Pass --account-id to select an account")
	}
	return pick(eligible)
}
