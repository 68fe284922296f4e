package common

import (
	"encoding/hex"
	"errors"
	"testing"
)

func TestMakeRandHexString_LengthAndHex(t *testing.T) {
	const n = 16
	s, err := MakeRandHexString(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s) != n*2 {
		t.Fatalf("expected hex length %d, got %d", n*2, len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		t.Fatalf("string is not valid hex: %v", err)
	}
}

func TestMakeRandHexString_ZeroSize(t *testing.T) {
	s, err := MakeRandHexString(0)
	if err != nil {
		t.Fatalf("unexpected error for size=0: %v", err)
	}
	if s != "" {
		t.Fatalf("expected empty string for size=0, got %q", s)
	}
}

func TestNewAccountToken_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		tok, err := NewAccountToken()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tok) != TokenSize*2 {
			t.Fatalf("unexpected token length %d", len(tok))
		}
		if _, dup := seen[tok]; dup {
			t.Fatalf("duplicate token %q", tok)
		}
		seen[tok] = struct{}{}
	}
}

func TestStorageError(t *testing.T) {
	if StorageError("op", nil) != nil {
		t.Fatal("nil cause must stay nil")
	}

	cause := errors.New("connection reset")
	err := StorageError("find", cause)
	if !errors.Is(err, ErrStorageFailure) {
		t.Fatalf("want ErrStorageFailure, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause must stay reachable, got %v", err)
	}
	if err.Error() != "storage failure: find: connection reset" {
		t.Fatalf("unexpected message %q", err.Error())
	}

	for _, sentinel := range []error{ErrorNotFound, ErrDuplicateUsername} {
		if got := StorageError("op", sentinel); got != sentinel {
			t.Fatalf("sentinel %v must pass through, got %v", sentinel, got)
		}
	}

	wrapped := StorageError("outer", err)
	if wrapped != err {
		t.Fatalf("already wrapped errors must not be wrapped twice, got %v", wrapped)
	}
}

func TestWipeByteArray(t *testing.T) {
	b := []byte("secret")
	WipeByteArray(b)
	for i, c := range b {
		if c != 0 {
			t.Fatalf("byte %d not wiped: %v", i, b)
		}
	}

	WipeByteArray(nil)
}
