package transport

// EpochKeys is the default KeyState: a plain per-level ready flag, set once
// the corresponding encryption keys are installed. Grounded on the teacher's
// packetNumberSpace.canEncrypt/canDecrypt gating in transport/conn.go, which
// likewise reduces key-install state to a boolean per packet-number space.
type EpochKeys struct {
	ready [3]bool
}

func NewEpochKeys() *EpochKeys {
	return &EpochKeys{}
}

func (k *EpochKeys) SendReady(level EncryptionLevel) bool {
	return k.ready[level]
}

// SetReady marks level as having installed send keys, driven by whatever
// handshake/key-update logic sits outside this engine.
func (k *EpochKeys) SetReady(level EncryptionLevel, ready bool) {
	k.ready[level] = ready
}
