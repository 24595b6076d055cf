package browser

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/comparador-uy/backend/internal/domain"
)

func TestNewSource_Defaults(t *testing.T) {
	s := NewSource(Config{}, zerolog.Nop())

	assert.Equal(t, defaultNavigationTimeout, s.cfg.NavigationTimeout)
	assert.Equal(t, defaultMaxProductPages, s.cfg.MaxProductPages)
	assert.Equal(t, "es-UY", s.cfg.Locale)
	assert.NotEmpty(t, s.cfg.UserAgent)
	assert.Equal(t, domain.TierBrowser, s.Tier())
}

func TestNewSource_KeepsConfiguredValues(t *testing.T) {
	s := NewSource(Config{NavigationTimeout: 10 * time.Second, MaxProductPages: 1, Locale: "es-AR"}, zerolog.Nop())

	assert.Equal(t, 10*time.Second, s.cfg.NavigationTimeout)
	assert.Equal(t, 1, s.cfg.MaxProductPages)
	assert.Equal(t, "es-AR", s.cfg.Locale)
}

func TestEnsureDriver_SkippedWhenDisabled(t *testing.T) {
	s := NewSource(Config{InstallDriver: false}, zerolog.Nop())
	assert.NoError(t, s.ensureDriver())
}

func TestSearchURL(t *testing.T) {
	backend := domain.Backend{Key: "tata", BaseURL: "https://tata.com.uy/"}

	assert.Equal(t,
		"https://tata.com.uy/busca?O=OrderByScoreDESC&ft=yerba+cololo",
		SearchURL(backend, "yerba cololo"))

	backend.SearchPagePath = "/search"
	assert.Equal(t,
		"https://tata.com.uy/search?O=OrderByScoreDESC&ft=arroz",
		SearchURL(backend, "arroz"))
}

func TestSessionClose_NothingAcquired(t *testing.T) {
	sess := &session{}
	assert.NotPanics(t, func() { sess.close(zerolog.Nop()) })
}

func TestMillis(t *testing.T) {
	assert.Equal(t, 2000.0, millis(2*time.Second))
	assert.Equal(t, 600.0, millis(productSettle))
}
