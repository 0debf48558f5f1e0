package password

import (
	"errors"
	"strings"
	"testing"
)

var fastParams = Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

func TestHashAndVerify(t *testing.T) {
	encoded, err := Hash("s3cret", fastParams)
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Fatalf("unexpected encoding: %s", encoded)
	}

	ok, err := Verify("s3cret", encoded)
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}
	ok, err = Verify("wrong", encoded)
	if err != nil || ok {
		t.Fatalf("expected mismatch, got ok=%v err=%v", ok, err)
	}
}

func TestHashUsesRandomSalt(t *testing.T) {
	a, _ := Hash("same", fastParams)
	b, _ := Hash("same", fastParams)
	if a == b {
		t.Fatal("expected different hashes for the same password")
	}
}

func TestVerifyRejectsForeignFormats(t *testing.T) {
	for _, encoded := range []string{"", "plaintext", "$2a$10$abcdefghijklmnopqrstuv", "$argon2i$v=19$m=1,t=1,p=1$c2FsdA$a2V5"} {
		if _, err := Verify("x", encoded); !errors.Is(err, ErrInvalidHash) {
			t.Fatalf("expected ErrInvalidHash for %q, got %v", encoded, err)
		}
	}
}

func TestGenerateContainsEveryClass(t *testing.T) {
	for i := 0; i < 20; i++ {
		pw, err := Generate(12)
		if err != nil {
			t.Fatalf("Generate returned error: %v", err)
		}
		if len(pw) != 12 {
			t.Fatalf("expected length 12, got %d", len(pw))
		}
		if !strings.ContainsAny(pw, "ABCDEFGHJKLMNPQRSTUVWXYZ") ||
			!strings.ContainsAny(pw, "abcdefghijkmnopqrstuvwxyz") ||
			!strings.ContainsAny(pw, "23456789") ||
			!strings.ContainsAny(pw, "@#%&*!") {
			t.Fatalf("generated password %q misses a character class", pw)
		}
	}
}
