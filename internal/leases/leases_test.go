package leases

import "testing"

func TestAcquireReleaseRoundTrip(t *testing.T) {
	m := NewManager()

	release, err := m.Acquire("ssi-1")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	if _, err := m.Acquire("ssi-1"); err == nil {
		t.Fatal("expected ErrBusy for second concurrent Acquire")
	} else if _, ok := err.(*ErrBusy); !ok {
		t.Fatalf("expected *ErrBusy, got %T", err)
	}

	release()

	if _, err := m.Acquire("ssi-1"); err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
}

func TestAcquireIndependentSSIs(t *testing.T) {
	m := NewManager()

	if _, err := m.Acquire("ssi-a"); err != nil {
		t.Fatalf("Acquire ssi-a: %v", err)
	}
	if _, err := m.Acquire("ssi-b"); err != nil {
		t.Fatalf("Acquire ssi-b should not be blocked by ssi-a: %v", err)
	}
}
