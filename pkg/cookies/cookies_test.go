package cookies

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_Create(t *testing.T) {
	t.Parallel()

	c := NewPolicy(true).Create(AccessToken, "value", 15*time.Minute)

	assert.Equal(t, AccessToken, c.Name)
	assert.Equal(t, "value", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 900, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
}

func TestPolicy_Delete(t *testing.T) {
	t.Parallel()

	c := NewPolicy(false).Delete(RefreshToken)

	assert.Equal(t, RefreshToken, c.Name)
	assert.Empty(t, c.Value)
	assert.Equal(t, -1, c.MaxAge)
	assert.False(t, c.Secure)
}
