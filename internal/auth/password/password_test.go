package password

import "testing"

func TestHashAndVerify(t *testing.T) {
	encoded, err := Hash("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !Verify("hunter2", encoded) {
		t.Fatal("expected matching password to verify")
	}
	if Verify("hunter3", encoded) {
		t.Fatal("expected non-matching password to fail")
	}
}

func TestHashesAreSalted(t *testing.T) {
	a, err := Hash("same-password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	b, err := Hash("same-password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct salts to produce distinct hashes")
	}
}

func TestVerifyRejectsMalformed(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=3$c2FsdA$aGFzaA",
	} {
		if Verify("whatever", encoded) {
			t.Fatalf("expected malformed hash %q to fail verification", encoded)
		}
	}
}
