package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{CodeGeneric, 1},
		{CodeInvalidInput, 2},
		{CodeOAuth, 3},
		{CodeNoAccount, 4},
		{CodeSecureStorage, 5},
		{"something_else", 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExitCodeFor(tt.code), "code %q", tt.code)
	}
}

func TestErrorMessageIncludesHint(t *testing.T) {
	err := ErrOAuthHint("Login failed", "Try login again")
	assert.Equal(t, "Login failed: Try login again", err.Error())
	assert.Equal(t, ExitOAuth, err.ExitCode())
}

func TestAsErrorWrapsPlainErrors(t *testing.T) {
	plain := errors.New("boom")
	e := AsError(plain)
	assert.Equal(t, CodeGeneric, e.Code)
	assert.Equal(t, "boom", e.Message)
	assert.Equal(t, ExitGeneric, e.ExitCode())

	typed := ErrNoAccount("no bc3 accounts")
	assert.Same(t, typed, AsError(typed))
}

func TestAsErrorUnwrapsWrappedError(t *testing.T) {
	inner := ErrSecureStorage("vault unreadable", errors.New("bad tag"))
	wrapped := errors.Join(errors.New("outer"), inner)
	assert.Equal(t, CodeSecureStorage, AsError(wrapped).Code)
}

func TestJSONOutput(t *testing.T) {
	var out bytes.Buffer
	w := New(Options{Out: &out, JSON: true})

	require.NoError(t, w.JSON(map[string]any{"ok": true, "account_id": 42}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, true, decoded["ok"])
	assert.Equal(t, float64(42), decoded["account_id"])
}

func TestJSONOutputWithJQFilter(t *testing.T) {
	var out bytes.Buffer
	w := New(Options{Out: &out, JSON: true, JQ: ".items[].id"})

	payload := map[string]any{
		"items": []map[string]any{{"id": 1}, {"id": 2}},
	}
	require.NoError(t, w.JSON(payload))
	assert.Equal(t, "1\n2\n", out.String())
}

func TestJSONOutputWithInvalidJQ(t *testing.T) {
	var out bytes.Buffer
	w := New(Options{Out: &out, JSON: true, JQ: ".items["})

	err := w.JSON(map[string]any{})
	require.Error(t, err)
	assert.Equal(t, CodeInvalidInput, AsError(err).Code)
}

func TestErrRendersPlainText(t *testing.T) {
	var errOut bytes.Buffer
	w := New(Options{Out: &bytes.Buffer{}, ErrOut: &errOut})

	w.Err(ErrOAuthHint("State mismatch", "Try login again"))
	assert.Equal(t, "Error: State mismatch\nHint: Try login again\n", errOut.String())
}

func TestErrRendersJSONEnvelope(t *testing.T) {
	var errOut bytes.Buffer
	w := New(Options{Out: &bytes.Buffer{}, ErrOut: &errOut, JSON: true})

	w.Err(ErrNoAccount("no eligible accounts"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(errOut.Bytes(), &resp))
	assert.False(t, resp.OK)
	assert.Equal(t, CodeNoAccount, resp.Code)
	assert.Equal(t, "no eligible accounts", resp.Error)
}
