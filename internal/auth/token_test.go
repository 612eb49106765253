package auth

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToken_URLSafe(t *testing.T) {
	token, err := newToken()
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// base64url without padding: 32 bytes encode to 43 characters,
	// none of which need escaping in a cookie or query string.
	assert.Len(t, token, 43)
	assert.Equal(t, token, url.QueryEscape(token))
}

func TestNewToken_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := newToken()
		require.NoError(t, err)
		require.False(t, seen[token], "token collision")
		seen[token] = true
	}
}
