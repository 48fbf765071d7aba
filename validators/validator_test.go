package validators

import (
	"net/http"
	"testing"

	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Validate(models.UpdatePrivacyRequest{ProfileVisibility: models.VisibilityPrivate}))
	assert.NoError(t, v.Validate(&models.UpdateUserRequest{Bio: "hi", CulturalBackground: "Caribbean"}))

	err := v.Validate(models.UpdatePrivacyRequest{ProfileVisibility: "secret"})
	require.Error(t, err)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)

	lat := 123.0
	assert.Error(t, v.Validate(models.UpdateUserRequest{Latitude: &lat}))
	assert.Error(t, v.Validate(models.UpdateUserRequest{Interests: []string{""}}))
}
