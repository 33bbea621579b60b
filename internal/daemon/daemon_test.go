package daemon

import (
	"os"
	"testing"
)

func TestDaemonizeNoOpsWhenAlreadyDetached(t *testing.T) {
	os.Setenv("LAMB_DAEMONIZED", "1")
	defer os.Unsetenv("LAMB_DAEMONIZED")

	child, pid, err := Daemonize()
	if err != nil {
		t.Fatalf("Daemonize: %v", err)
	}
	if child {
		t.Fatal("expected child=false once already detached")
	}
	if pid != 0 {
		t.Fatalf("got pid %d, want 0", pid)
	}
}
