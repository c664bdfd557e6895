// Package vault is the secure key-value store for the two session secrets:
// the credential blob and the token pair. It wraps an encrypted ekv
// filestore; read and write failures are logged and degrade to "the value
// is absent", never to an error the caller must handle.
package vault

import (
	"encoding/json"
	"fmt"

	"gitlab.com/elixxir/ekv"
	"go.uber.org/zap"

	"github.com/huddleapp/huddle/internal/store"
)

// Vault keys.
const (
	KeyCredentials = "credentials"
	KeyTokens      = "tokens"
)

// Vault is an opaque get/set/delete capability over encrypted storage.
type Vault struct {
	kv     ekv.KeyValue
	logger *zap.Logger
}

// Open creates a vault backed by an encrypted filestore under dir.
func Open(dir, password string, logger *zap.Logger) (*Vault, error) {
	fs, err := ekv.NewFilestore(dir, password)
	if err != nil {
		return nil, fmt.Errorf("open vault filestore: %w", err)
	}
	return &Vault{kv: fs, logger: logger}, nil
}

// NewWithKV creates a vault over an existing key-value store. Tests use
// this with ekv.MakeMemstore().
func NewWithKV(kv ekv.KeyValue, logger *zap.Logger) *Vault {
	return &Vault{kv: kv, logger: logger}
}

// Get returns the raw value for key, or false when it is absent or
// unreadable.
func (v *Vault) Get(key string) ([]byte, bool) {
	data, err := v.kv.GetBytes(key)
	if err != nil {
		if ekv.Exists(err) {
			v.logger.Warn("vault read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}
	return data, true
}

// Set stores value under key. Failures are logged.
func (v *Vault) Set(key string, value []byte) {
	if err := v.kv.SetBytes(key, value); err != nil {
		v.logger.Warn("vault write failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete removes key. Failures are logged; deleting an absent key is fine.
func (v *Vault) Delete(key string) {
	if err := v.kv.Delete(key); err != nil {
		v.logger.Warn("vault delete failed", zap.String("key", key), zap.Error(err))
	}
}

// Credentials returns the stored credential blob, if any.
func (v *Vault) Credentials() (*store.Credentials, bool) {
	data, ok := v.Get(KeyCredentials)
	if !ok {
		return nil, false
	}
	var creds store.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		v.logger.Warn("vault credentials corrupt", zap.Error(err))
		return nil, false
	}
	return &creds, true
}

// SetCredentials persists the credential blob.
func (v *Vault) SetCredentials(creds *store.Credentials) {
	data, err := json.Marshal(creds)
	if err != nil {
		v.logger.Warn("vault credentials encode failed", zap.Error(err))
		return
	}
	v.Set(KeyCredentials, data)
}

// Tokens returns the stored token pair, if any.
func (v *Vault) Tokens() (*store.TokenPair, bool) {
	data, ok := v.Get(KeyTokens)
	if !ok {
		return nil, false
	}
	var tokens store.TokenPair
	if err := json.Unmarshal(data, &tokens); err != nil {
		v.logger.Warn("vault tokens corrupt", zap.Error(err))
		return nil, false
	}
	return &tokens, true
}

// SetTokens persists the token pair.
func (v *Vault) SetTokens(tokens *store.TokenPair) {
	data, err := json.Marshal(tokens)
	if err != nil {
		v.logger.Warn("vault tokens encode failed", zap.Error(err))
		return
	}
	v.Set(KeyTokens, data)
}
