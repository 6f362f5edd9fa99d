package cli

import (
	"testing"
	"time"
)

func TestSetupSignalHandler(t *testing.T) {
	ctx := SetupSignalHandler()

	if ctx.Done() == nil {
		t.Fatal("Expected a cancellable context")
	}

	select {
	case <-ctx.Done():
		t.Error("Context cancelled without a signal")
	case <-time.After(10 * time.Millisecond):
	}
}
