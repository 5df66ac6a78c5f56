package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(context.Context) error { return nil }

func failing(context.Context) error { return errors.New("connection refused") }

func TestValidateServicesRequiresOnlyListed(t *testing.T) {
	sv := NewServiceValidator([]string{"database"})
	sv.Register("database", ok)
	sv.Register("redis", failing)

	assert.NoError(t, sv.ValidateServices(context.Background()))
}

func TestValidateServicesFailsOnRequiredError(t *testing.T) {
	sv := NewServiceValidator([]string{"database", "redis"})
	sv.Register("database", ok)
	sv.Register("redis", failing)

	err := sv.ValidateServices(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}

func TestValidateServicesFailsOnUnconfigured(t *testing.T) {
	sv := NewServiceValidator([]string{"elasticsearch"})
	err := sv.ValidateServices(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestReport(t *testing.T) {
	sv := NewServiceValidator([]string{"database"})
	sv.Register("database", ok)
	sv.Register("gemini", failing)

	statuses, healthy := sv.Report(context.Background())
	assert.True(t, healthy, "optional failures do not make the service unhealthy")
	require.Len(t, statuses, 2)
	assert.Equal(t, "database", statuses[0].Name)
	assert.True(t, statuses[0].Required)
	assert.False(t, statuses[1].Healthy)
	assert.Equal(t, "connection refused", statuses[1].Error)

	sv.Register("database", failing)
	_, healthy = sv.Report(context.Background())
	assert.False(t, healthy)
}
