package vaultcrypto

// KeyMaterial wraps sensitive key bytes with automatic zeroing on Close.
// The Session Manager uses this to own the cached derived key for the
// lifetime of an Unlocked session (spec.md §5: the derived key is the sole
// sensitive in-memory state, owned exclusively by the Session Manager).
type KeyMaterial struct {
	data   []byte
	closed bool
}

// NewKeyMaterial copies data into a new KeyMaterial. The caller retains
// ownership of the original slice.
func NewKeyMaterial(data []byte) *KeyMaterial {
	if data == nil {
		return &KeyMaterial{}
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	return &KeyMaterial{data: copied}
}

// Bytes returns the underlying key bytes, or nil if closed. Callers must
// not retain the returned slice past the lifetime of a single call.
func (km *KeyMaterial) Bytes() []byte {
	if km == nil || km.closed {
		return nil
	}
	return km.data
}

// Len returns the length of the key data, or 0 if closed.
func (km *KeyMaterial) Len() int {
	if km == nil || km.closed || km.data == nil {
		return 0
	}
	return len(km.data)
}

// Close securely zeros the key data. Idempotent.
func (km *KeyMaterial) Close() {
	if km == nil || km.closed {
		return
	}
	Zeroize(km.data)
	km.data = nil
	km.closed = true
}

// IsClosed reports whether Close has been called.
func (km *KeyMaterial) IsClosed() bool {
	return km == nil || km.closed
}
