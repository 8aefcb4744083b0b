package appctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basecamp/basecamp-cli/internal/secrets"
)

func TestAppContextRoundTrip(t *testing.T) {
	dir := t.TempDir()
	app := NewApp(dir, secrets.NewMemoryKeystore(), GlobalFlags{JSON: true, JQ: ".ok"})
	require.NotNil(t, app.Session)
	require.NotNil(t, app.Output)
	assert.Equal(t, dir, app.ConfigDir)
	assert.True(t, app.Output.JSONEnabled())

	ctx := WithApp(context.Background(), app)
	assert.Same(t, app, FromContext(ctx))
}

func TestFromContextMissing(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
}
