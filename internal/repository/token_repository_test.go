package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenRepositoryRegisterAndCount(t *testing.T) {
	repo := NewTokenRepository()
	assert.Equal(t, 0, repo.GetTokenCount())

	repo.RegisterToken("token-1", "android")
	repo.RegisterToken("token-2", "ios")
	assert.Equal(t, 2, repo.GetTokenCount())

	tokens := repo.GetAllTokens()
	assert.ElementsMatch(t, []string{"token-1", "token-2"}, tokens)
}

func TestTokenRepositoryRegisterIsIdempotent(t *testing.T) {
	repo := NewTokenRepository()

	repo.RegisterToken("token-1", "android")
	repo.RegisterToken("token-1", "android")

	assert.Equal(t, 1, repo.GetTokenCount())
}

func TestTokenRepositoryUnregister(t *testing.T) {
	repo := NewTokenRepository()

	repo.RegisterToken("token-1", "android")
	repo.UnregisterToken("token-1")
	assert.Equal(t, 0, repo.GetTokenCount())

	// Unregistering an unknown token is a no-op.
	repo.UnregisterToken("never-registered")
	assert.Equal(t, 0, repo.GetTokenCount())
}
