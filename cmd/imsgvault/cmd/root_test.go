package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

// withTestRoot swaps the package-level rootCmd for a bare root carrying sub,
// restoring it when the test ends. Tests using it must not run in parallel.
func withTestRoot(t *testing.T, sub *cobra.Command) *cobra.Command {
	t.Helper()
	saved := rootCmd
	t.Cleanup(func() { rootCmd = saved })

	rootCmd = &cobra.Command{Use: "imsgvault"}
	rootCmd.AddCommand(sub)
	return rootCmd
}

func TestExecuteContext_CancellationPropagates(t *testing.T) {
	started := make(chan struct{})
	root := withTestRoot(t, &cobra.Command{
		Use: "wait",
		RunE: func(cmd *cobra.Command, args []string) error {
			close(started)
			select {
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			case <-time.After(5 * time.Second):
				return nil
			}
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		root.SetArgs([]string{"wait"})
		done <- ExecuteContext(ctx)
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("command handler did not start in time")
	}
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled error, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ExecuteContext did not return after context cancellation")
	}
}

func TestExecuteContext_PropagatesContext(t *testing.T) {
	type ctxKey string
	var received context.Context
	root := withTestRoot(t, &cobra.Command{
		Use: "ctx",
		RunE: func(cmd *cobra.Command, args []string) error {
			received = cmd.Context()
			return nil
		},
	})

	ctx := context.WithValue(context.Background(), ctxKey("k"), "v")
	root.SetArgs([]string{"ctx"})
	if err := ExecuteContext(ctx); err != nil {
		t.Fatalf("ExecuteContext returned unexpected error: %v", err)
	}
	if received == nil || received.Value(ctxKey("k")) != "v" {
		t.Error("command did not receive the caller's context")
	}
}

func TestExecute_UsesBackgroundContext(t *testing.T) {
	var received context.Context
	root := withTestRoot(t, &cobra.Command{
		Use: "bg",
		RunE: func(cmd *cobra.Command, args []string) error {
			received = cmd.Context()
			return nil
		},
	})

	root.SetArgs([]string{"bg"})
	if err := Execute(); err != nil {
		t.Fatalf("Execute() returned error: %v", err)
	}
	if received == nil || received.Err() != nil {
		t.Errorf("expected a live background context, got %v", received)
	}
}
