package gpg

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

// newTestEntity generates a throwaway signing key
func newTestEntity(t *testing.T) *openpgp.Entity {
	t.Helper()
	entity, err := openpgp.NewEntity("omnibuild test", "", "test@example.com", nil)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	return entity
}

// writeArmoredPublicKey writes the public part of entity to dir/name
func writeArmoredPublicKey(t *testing.T, entity *openpgp.Entity, dir, name string) string {
	t.Helper()
	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	if err != nil {
		t.Fatalf("Failed to create armor encoder: %v", err)
	}
	if err := entity.Serialize(w); err != nil {
		t.Fatalf("Failed to serialize key: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close armor encoder: %v", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		t.Fatalf("Failed to write key: %v", err)
	}
	return path
}

// signFile writes an armored detached signature for path to sigPath
func signFile(t *testing.T, entity *openpgp.Entity, path, sigPath string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}

	var sig bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&sig, entity, bytes.NewReader(data), nil); err != nil {
		t.Fatalf("Failed to sign: %v", err)
	}
	if err := os.WriteFile(sigPath, sig.Bytes(), 0600); err != nil {
		t.Fatalf("Failed to write signature: %v", err)
	}
}

// verifyFile checks the file at path against the detached signature at sigPath
func verifyFile(t *testing.T, v *Verifier, path, sigPath string) error {
	t.Helper()
	sigData, err := os.ReadFile(sigPath)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", sigPath, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return v.VerifyDetached(bytes.NewReader(data), sigData)
}
