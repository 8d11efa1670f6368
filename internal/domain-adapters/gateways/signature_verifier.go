package gateways

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/ochairo/omnibuild/internal/external-adapters/gpg"
)

// signatureExtensions lists the detached signature suffixes checked, in order
var signatureExtensions = []string{".asc", ".sig"}

// SignatureVerifier wraps the external GPG adapter to implement gateways.SignatureGateway
type SignatureVerifier struct {
	verifier *gpg.Verifier
}

// NewSignatureVerifier creates a new signature verifier gateway with an empty keyring
func NewSignatureVerifier() *SignatureVerifier {
	return &SignatureVerifier{
		verifier: gpg.NewVerifier(),
	}
}

// ImportKeyring imports public keys from a local keyring file
func (s *SignatureVerifier) ImportKeyring(keyringPath string) error {
	if err := s.verifier.ImportKeyFromFile(keyringPath); err != nil {
		return fmt.Errorf("failed to import keyring: %w", err)
	}
	return nil
}

// VerifyDefinitionFile reads filePath and verifies it against its detached signature
func (s *SignatureVerifier) VerifyDefinitionFile(ctx context.Context, filePath string) error {
	//nolint:gosec // G304: filePath is the definition file named on the command line
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	return s.VerifyDefinition(ctx, filePath, data)
}

// VerifyDefinition verifies data against the detached signature stored next to filePath
func (s *SignatureVerifier) VerifyDefinition(ctx context.Context, filePath string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sigPath, err := FindSignature(filePath)
	if err != nil {
		return err
	}

	//nolint:gosec // G304: sigPath sits next to a definition file
	sigData, err := os.ReadFile(sigPath)
	if err != nil {
		return fmt.Errorf("failed to read signature %s: %w", sigPath, err)
	}

	if err := s.verifier.VerifyDetached(bytes.NewReader(data), sigData); err != nil {
		return fmt.Errorf("signature verification failed for %s: %w", filePath, err)
	}
	return nil
}

// KeyringSize returns the number of keys loaded
func (s *SignatureVerifier) KeyringSize() int {
	return s.verifier.GetKeyringSize()
}

// FindSignature returns the path of the detached signature belonging to filePath
func FindSignature(filePath string) (string, error) {
	for _, ext := range signatureExtensions {
		candidate := filePath + ext
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no detached signature found for %s", filePath)
}
