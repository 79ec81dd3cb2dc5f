package handlers_test

import (
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sadat41/Empire-Enhanced-sub001/internal/api/handlers"
	"github.com/Sadat41/Empire-Enhanced-sub001/internal/charm"
)

func TestListCharms_All(t *testing.T) {
	t.Parallel()

	h := handlers.NewCharmsHandler(charm.NewTable())

	_, api := humatest.New(t)
	handlers.RegisterCharmRoutes(api, h)

	resp := api.Get("/api/v1/charms")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Semi-Precious")
	assert.Contains(t, resp.Body.String(), "Big Kev")
	assert.Contains(t, resp.Body.String(), "Lil' Squirt")
	assert.Contains(t, resp.Body.String(), "Hot Hands")
	assert.Contains(t, resp.Body.String(), `"category":"Red"`)
}

func TestListCharms_FilterRed(t *testing.T) {
	t.Parallel()

	h := handlers.NewCharmsHandler(charm.NewTable())

	_, api := humatest.New(t)
	handlers.RegisterCharmRoutes(api, h)

	resp := api.Get("/api/v1/charms?category=red")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Hot Howl")
	assert.NotContains(t, resp.Body.String(), "Big Kev")
	assert.NotContains(t, resp.Body.String(), "Hot Hands")
}

func TestListCharms_FilterPurple(t *testing.T) {
	t.Parallel()

	h := handlers.NewCharmsHandler(charm.NewTable())

	_, api := humatest.New(t)
	handlers.RegisterCharmRoutes(api, h)

	resp := api.Get("/api/v1/charms?category=purple")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Lil' Squirt")
	assert.NotContains(t, resp.Body.String(), "Semi-Precious")
}

func TestListCharms_UnknownCategoryRejected(t *testing.T) {
	t.Parallel()

	h := handlers.NewCharmsHandler(charm.NewTable())

	_, api := humatest.New(t)
	handlers.RegisterCharmRoutes(api, h)

	resp := api.Get("/api/v1/charms?category=golden")
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}
