package gateways

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"

	domaingateways "github.com/ochairo/omnibuild/internal/domain/interfaces/gateways"
)

var _ domaingateways.SignatureGateway = (*SignatureVerifier)(nil)

func TestFindSignature(t *testing.T) {
	tests := []struct {
		name    string
		files   []string
		want    string
		wantErr bool
	}{
		{name: "armored", files: []string{"pip.yml.asc"}, want: "pip.yml.asc"},
		{name: "binary", files: []string{"pip.yml.sig"}, want: "pip.yml.sig"},
		{name: "armored preferred", files: []string{"pip.yml.sig", "pip.yml.asc"}, want: "pip.yml.asc"},
		{name: "missing", files: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				if err := os.WriteFile(filepath.Join(dir, f), []byte("sig"), 0600); err != nil {
					t.Fatalf("Failed to write %s: %v", f, err)
				}
			}

			got, err := FindSignature(filepath.Join(dir, "pip.yml"))
			if (err != nil) != tt.wantErr {
				t.Fatalf("FindSignature() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != filepath.Join(dir, tt.want) {
				t.Errorf("FindSignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSignatureVerifier_VerifyDefinitionFile(t *testing.T) {
	dir := t.TempDir()

	entity, err := openpgp.NewEntity("omnibuild test", "", "test@example.com", nil)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	var key bytes.Buffer
	if err := entity.Serialize(&key); err != nil {
		t.Fatalf("Failed to serialize key: %v", err)
	}
	keyringPath := filepath.Join(dir, "keyring.gpg")
	if err := os.WriteFile(keyringPath, key.Bytes(), 0600); err != nil {
		t.Fatalf("Failed to write keyring: %v", err)
	}

	defPath := filepath.Join(dir, "python.yml")
	content := []byte("name: python\ndefault_version: \"2.7.14\"\n")
	if err := os.WriteFile(defPath, content, 0600); err != nil {
		t.Fatalf("Failed to write definition: %v", err)
	}

	var sig bytes.Buffer
	if err := openpgp.DetachSign(&sig, entity, bytes.NewReader(content), nil); err != nil {
		t.Fatalf("Failed to sign: %v", err)
	}
	if err := os.WriteFile(defPath+".sig", sig.Bytes(), 0600); err != nil {
		t.Fatalf("Failed to write signature: %v", err)
	}

	verifier := NewSignatureVerifier()
	if err := verifier.ImportKeyring(keyringPath); err != nil {
		t.Fatalf("ImportKeyring() error = %v", err)
	}
	if verifier.KeyringSize() != 1 {
		t.Errorf("KeyringSize() = %d, want 1", verifier.KeyringSize())
	}

	if err := verifier.VerifyDefinitionFile(context.Background(), defPath); err != nil {
		t.Errorf("VerifyDefinitionFile() error = %v", err)
	}

	// Tampering invalidates the signature
	if err := os.WriteFile(defPath, append(content, []byte("build: [[rm, -rf, /]]\n")...), 0600); err != nil {
		t.Fatalf("Failed to rewrite definition: %v", err)
	}
	err = verifier.VerifyDefinitionFile(context.Background(), defPath)
	if err == nil || !strings.Contains(err.Error(), "signature verification failed") {
		t.Errorf("VerifyDefinitionFile() error = %v, want verification failure", err)
	}
}

func TestSignatureVerifier_ImportKeyring_Missing(t *testing.T) {
	verifier := NewSignatureVerifier()
	if err := verifier.ImportKeyring(filepath.Join(t.TempDir(), "missing.asc")); err == nil {
		t.Error("ImportKeyring() expected error for missing file")
	}
}
