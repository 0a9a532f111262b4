package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/aretw0/todobot/pkg/adapters/postgres"
	"github.com/aretw0/todobot/pkg/ports"
	"github.com/aretw0/todobot/pkg/ports/tests"
	"github.com/stretchr/testify/require"
)

var _ ports.Gateway = (*postgres.Gateway)(nil)

func TestPostgresGateway_Contract(t *testing.T) {
	url := os.Getenv("TODOBOT_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TODOBOT_TEST_DATABASE_URL not set")
	}

	gw, err := postgres.Open(context.Background(), url)
	require.NoError(t, err)
	defer gw.Close()

	require.NoError(t, gw.Ping(context.Background()))
	tests.GatewayContractTest(t, gw)
}
