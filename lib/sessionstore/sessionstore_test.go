package sessionstore

import (
	"context"
	"testing"

	"cuims-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func TestSessions(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:sessionstore")
	defer cleanup()

	store, err := Open("")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()

	_, err = store.LoadSession(ctx, "21BCS0001")
	require.Equal(t, ErrNotFound, err)

	err = store.SaveSession(ctx, "21BCS0001", []byte("first"))
	require.NoError(t, err)
	err = store.SaveSession(ctx, "21BCS0001", []byte("second"))
	require.NoError(t, err)

	token, err := store.LoadSession(ctx, "21BCS0001")
	require.NoError(t, err)
	require.Equal(t, []byte("second"), token)

	_, err = store.LoadSession(ctx, "21BCS0002")
	require.Equal(t, ErrNotFound, err)
}

func TestStatus(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:sessionstore")
	defer cleanup()

	store, err := Open("")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()

	status, err := store.GetStatus(ctx, "21BCS0001")
	require.NoError(t, err)
	require.Equal(t, "", status)

	err = store.SetStatus(ctx, "21BCS0001", "Refreshing Data")
	require.NoError(t, err)

	status, err = store.GetStatus(ctx, "21BCS0001")
	require.NoError(t, err)
	require.Equal(t, "Refreshing Data", status)
}
