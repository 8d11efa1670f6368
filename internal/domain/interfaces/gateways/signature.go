// Package gateways defines interfaces for external service adapters.
package gateways

import "context"

// SignatureGateway defines the interface for verifying definition files
// against detached OpenPGP signatures
type SignatureGateway interface {
	// ImportKeyring loads public keys from an armored or binary keyring file
	ImportKeyring(keyringPath string) error

	// VerifyDefinition checks data, the content read from filePath, against the
	// detached signature stored next to it (filePath + ".asc" or ".sig")
	VerifyDefinition(ctx context.Context, filePath string, data []byte) error
}
