package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCredentials(t *testing.T) {
	id, secret, err := parseCredentials([]string{" client-id ", "client-secret"})
	require.NoError(t, err)
	require.Equal(t, "client-id", id)
	require.Equal(t, "client-secret", secret)

	_, _, err = parseCredentials([]string{"", "client-secret"})
	require.Error(t, err)

	_, _, err = parseCredentials([]string{"client-id", "   "})
	require.Error(t, err)
}
