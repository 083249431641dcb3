package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTree(t *testing.T) {
	root := newRootCmd()
	assert.Equal(t, "orchestrator", root.Use)
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))

	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	assert.Equal(t, "serve", serve.Name())
	assert.NotNil(t, serve.Flags().Lookup("port"))
	assert.NotNil(t, serve.Flags().Lookup("log-level"))
}

func TestServeRejectsBadConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ANALYZER_PROVIDER", "nope")

	root := newRootCmd()
	root.SetArgs([]string{"serve", "--port", "0"})
	err := root.Execute()
	assert.ErrorContains(t, err, "unknown analyzer provider")
}
