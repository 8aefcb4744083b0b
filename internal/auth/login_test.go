package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basecamp/basecamp-cli/internal/output"
	"github.com/basecamp/basecamp-cli/internal/secrets"
	"github.com/basecamp/basecamp-cli/internal/session"
)

func TestSelectAccount(t *testing.T) {
	accounts := []Account{
		{ID: 1, Name: "Classic", Product: "bcx"},
		{ID: 2, Name: "Alpha", Product: "bc3"},
		{ID: 3, Name: "Beta", Product: "bc3"},
	}

	t.Run("filters out non-bc3 products", func(t *testing.T) {
		_, err := SelectAccount([]Account{{ID: 1, Product: "bcx"}}, 0, nil)
		require.Error(t, err)
		assert.Equal(t, output.CodeNoAccount, output.AsError(err).Code)
	})

	t.Run("no accounts at all", func(t *testing.T) {
		_, err := SelectAccount(nil, 0, nil)
		require.Error(t, err)
		assert.Equal(t, output.CodeNoAccount, output.AsError(err).Code)
	})

	t.Run("explicit id match", func(t *testing.T) {
		account, err := SelectAccount(accounts, 3, nil)
		require.NoError(t, err)
		assert.Equal(t, "Beta", account.Name)
	})

	t.Run("explicit id mismatch", func(t *testing.T) {
		_, err := SelectAccount(accounts, 99, nil)
		require.Error(t, err)
		e := output.AsError(err)
		assert.Equal(t, output.CodeNoAccount, e.Code)
		assert.Contains(t, e.Message, "99")
	})

	t.Run("explicit id must be bc3", func(t *testing.T) {
		_, err := SelectAccount(accounts, 1, nil)
		require.Error(t, err)
		assert.Equal(t, output.CodeNoAccount, output.AsError(err).Code)
	})

	t.Run("single candidate chosen silently", func(t *testing.T) {
		picker := func([]Account) (Account, error) {
			t.Fatal("picker must not run for a single candidate")
			return Account{}, nil
		}
		account, err := SelectAccount(accounts[:2], 0, picker)
		require.NoError(t, err)
		assert.Equal(t, "Alpha", account.Name)
	})

	t.Run("several candidates use the picker", func(t *testing.T) {
		account, err := SelectAccount(accounts, 0, func(eligible []Account) (Account, error) {
			require.Len(t, eligible, 2)
			return eligible[1], nil
		})
		require.NoError(t, err)
		assert.Equal(t, "Beta", account.Name)
	})

	t.Run("several candidates without picker", func(t *testing.T) {
		_, err := SelectAccount(accounts, 0, nil)
		require.Error(t, err)
		e := output.AsError(err)
		assert.Equal(t, output.CodeInvalidInput, e.Code)
		assert.Contains(t, e.Hint, "--account-id")
	})
}

// syncBuffer lets the browser-side goroutine read the authorization URL the
// login flow printed without racing the writer.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// awaitAuthorizationState polls the printed output for the authorization URL
// and returns its state parameter.
func awaitAuthorizationState(t *testing.T, buf *syncBuffer) string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		for _, line := range strings.Split(buf.String(), "\n") {
			line = strings.TrimSpace(line)
			if !strings.Contains(line, "authorization/new") {
				continue
			}
			parsed, err := url.Parse(line)
			require.NoError(t, err)
			state := parsed.Query().Get("state")
			require.NotEmpty(t, state)
			return state
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("authorization URL never printed")
	return ""
}

type loginFixture struct {
	store        *session.Store
	out          *output.Writer
	printed      *syncBuffer
	endpoints    Endpoints
	redirectURI  string
	tokenCalls   *atomic.Int32
	callbackPort int
}

func newLoginFixture(t *testing.T, accountsJSON string) *loginFixture {
	t.Helper()

	var tokenCalls atomic.Int32
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "good-code", r.PostFormValue("code"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"access_token":  "at-live",
			"refresh_token": "rt-live",
			"token_type":    "Bearer",
		})
	}))
	t.Cleanup(tokenSrv.Close)

	authzSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(accountsJSON))
	}))
	t.Cleanup(authzSrv.Close)

	port := freePort(t)
	redirectURI := fmt.Sprintf("http://127.0.0.1:%d/callback", port)

	store := session.NewStore(t.TempDir(), secrets.NewMemoryKeystore())
	require.NoError(t, store.SetIntegration("client-id", "client-secret", redirectURI))

	printed := &syncBuffer{}
	out := output.New(output.Options{Out: printed, ErrOut: printed})

	return &loginFixture{
		store:   store,
		out:     out,
		printed: printed,
		endpoints: Endpoints{
			AuthURL:          "https://launchpad.37signals.com/authorization/new",
			TokenURL:         tokenSrv.URL,
			AuthorizationURL: authzSrv.URL,
		},
		redirectURI:  redirectURI,
		tokenCalls:   &tokenCalls,
		callbackPort: port,
	}
}

func (f *loginFixture) sendCallback(t *testing.T, code, state string) {
	t.Helper()
	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/callback?code=%s&state=%s",
		f.callbackPort, url.QueryEscape(code), url.QueryEscape(state)))
	if err == nil {
		resp.Body.Close()
	}
}

func TestLoginEndToEnd(t *testing.T) {
	fixture := newLoginFixture(t, `{"accounts":[
		{"id":42,"name":"Honcho Inc","href":"https://3.basecampapi.com/42","product":"bc3"}
	]}`)

	go func() {
		state := awaitAuthorizationState(t, fixture.printed)
		fixture.sendCallback(t, "good-code", state)
	}()

	result, err := Login(context.Background(), fixture.store, fixture.out, LoginOptions{
		NoBrowser:       true,
		Endpoints:       &fixture.endpoints,
		CallbackTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), result.AccountID)
	assert.Equal(t, "Honcho Inc", result.AccountName)
	assert.Equal(t, int32(1), fixture.tokenCalls.Load())

	ctx, err := fixture.store.ResolveSessionContext()
	require.NoError(t, err)
	assert.Equal(t, int64(42), ctx.AccountID)
	assert.Equal(t, "at-live", ctx.AccessToken)

	rt, err := fixture.store.RefreshToken()
	require.NoError(t, err)
	assert.Equal(t, "rt-live", rt)
}

func TestLoginRejectsForgedState(t *testing.T) {
	fixture := newLoginFixture(t, `{"accounts":[]}`)

	go func() {
		awaitAuthorizationState(t, fixture.printed)
		fixture.sendCallback(t, "attacker-code", "forged-state")
	}()

	_, err := Login(context.Background(), fixture.store, fixture.out, LoginOptions{
		NoBrowser:       true,
		Endpoints:       &fixture.endpoints,
		CallbackTimeout: 5 * time.Second,
	})
	require.Error(t, err)
	assert.Equal(t, output.CodeOAuth, output.AsError(err).Code)
	assert.Contains(t, err.Error(), "state mismatch")

	// A forged redirect must never reach the token endpoint.
	assert.Zero(t, fixture.tokenCalls.Load())

	_, err = fixture.store.ResolveSessionContext()
	assert.Error(t, err)
}

func TestLoginAccountIDMismatchDoesNotPersist(t *testing.T) {
	fixture := newLoginFixture(t, `{"accounts":[
		{"id":42,"name":"Honcho Inc","href":"https://3.basecampapi.com/42","product":"bc3"}
	]}`)

	go func() {
		state := awaitAuthorizationState(t, fixture.printed)
		fixture.sendCallback(t, "good-code", state)
	}()

	_, err := Login(context.Background(), fixture.store, fixture.out, LoginOptions{
		AccountID:       777,
		NoBrowser:       true,
		Endpoints:       &fixture.endpoints,
		CallbackTimeout: 5 * time.Second,
	})
	require.Error(t, err)
	assert.Equal(t, output.CodeNoAccount, output.AsError(err).Code)

	_, err = fixture.store.ResolveSessionContext()
	assert.Error(t, err)
}

func TestLoginMissingCredentials(t *testing.T) {
	t.Setenv(session.EnvClientID, "")
	t.Setenv(session.EnvClientSecret, "")
	t.Setenv(session.EnvRedirectURI, "")
	store := session.NewStore(t.TempDir(), secrets.NewMemoryKeystore())
	out := output.New(output.Options{Out: &bytes.Buffer{}, ErrOut: &bytes.Buffer{}})

	_, err := Login(context.Background(), store, out, LoginOptions{NoBrowser: true})
	require.Error(t, err)
	assert.Equal(t, output.CodeInvalidInput, output.AsError(err).Code)
}
