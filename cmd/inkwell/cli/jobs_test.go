package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/inkwell-app/inkwell/testing"
)

func TestTriggerUnsupportedJob(t *testing.T) {
	c, err := NewJobsCLI("127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	_, err = c.Trigger(context.Background(), "mail:send")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported job")
}

func TestTriggerNilClient(t *testing.T) {
	var c *JobsCLI
	_, err := c.Trigger(context.Background(), "auth:prune_sessions")
	require.Error(t, err)
}

func TestInspectQueueNilInspector(t *testing.T) {
	var c *JobsCLI
	_, err := c.InspectQueue(context.Background())
	require.Error(t, err)
}

func TestNewJobsCLIWiresQueueClient(t *testing.T) {
	c, err := NewJobsCLI("127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	require.NotNil(t, c.client)
	require.NotNil(t, c.inspector)
}
