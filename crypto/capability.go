package crypto

import (
	"crypto/rand"
	"sync"

	"github.com/sirupsen/logrus"
)

// Capabilities reports which cryptographic primitives are usable on this
// platform. The probe runs once per process and the result is cached, so
// call sites can consult it on every operation without re-probing.
type Capabilities struct {
	// Asymmetric is true when key pair generation and OAEP wrapping are
	// available. When false, the envelope engine cannot produce
	// multi-recipient envelopes and callers fall back to the password
	// cipher or plaintext path.
	Asymmetric bool
}

var (
	capOnce sync.Once
	caps    Capabilities

	// entropyProbe is replaced in tests to simulate a platform without
	// working crypto primitives.
	entropyProbe = func() error {
		var buf [16]byte
		_, err := rand.Read(buf[:])
		return err
	}
)

// Capability returns the cached platform capability flags, probing on
// first use.
func Capability() Capabilities {
	capOnce.Do(func() {
		if err := entropyProbe(); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Capability",
				"error":    err.Error(),
			}).Warn("Entropy source unavailable, asymmetric crypto disabled")
			caps = Capabilities{Asymmetric: false}
			return
		}
		caps = Capabilities{Asymmetric: true}
	})
	return caps
}
