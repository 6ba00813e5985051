package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dm/nzbinfo-go/internal/model"
)

func TestRegistryCoversEveryBackend(t *testing.T) {
	for _, id := range model.AllBackends {
		e, ok := Lookup(id)
		require.True(t, ok, "missing registry entry for %s", id)
		assert.NotEmpty(t, e.Name)
		assert.Greater(t, e.DefaultPort, 0)
		assert.NotEmpty(t, e.HealthPath)
	}
	assert.Len(t, All(), len(model.AllBackends))
}

func TestLookupUnknown(t *testing.T) {
	_, ok := Lookup(model.Overview)
	assert.False(t, ok)
	assert.Equal(t, "overview", DisplayName(model.Overview))
	assert.Equal(t, "SABnzbd", DisplayName(model.SABnzbd))
}

func TestHealthURL(t *testing.T) {
	sab, _ := Lookup(model.SABnzbd)
	assert.Equal(t, "http://h:8080/api?mode=version&apikey=k%26y", sab.HealthURL("http://h:8080/", "k&y"))
	assert.Equal(t, "http://h:8080/api?mode=version", sab.HealthURL("http://h:8080", ""))

	sonarr, _ := Lookup(model.Sonarr)
	assert.Equal(t, "https://h/sonarr/api/v3/system/status", sonarr.HealthURL("https://h/sonarr", "key"))
}

func TestAuthHeader(t *testing.T) {
	bazarr, _ := Lookup(model.Bazarr)
	h := bazarr.AuthHeader("secret")
	require.NotNil(t, h)
	assert.Equal(t, "secret", h.Get("X-API-KEY"))

	radarr, _ := Lookup(model.Radarr)
	assert.Equal(t, "secret", radarr.AuthHeader("secret").Get("X-Api-Key"))
	assert.Nil(t, radarr.AuthHeader(""))

	sab, _ := Lookup(model.SABnzbd)
	assert.Nil(t, sab.AuthHeader("secret"))
}
