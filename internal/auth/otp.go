package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

var otpOpts = hotp.ValidateOpts{
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// GenerateOTP returns a fresh 6-digit code. Each code is an HOTP value over a
// random secret and counter, so codes are uniformly distributed and unrelated
// to each other.
func GenerateOTP() (string, error) {
	var buf [28]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	secret := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf[:20])
	counter := binary.BigEndian.Uint64(buf[20:])

	code, err := hotp.GenerateCodeCustom(secret, counter, otpOpts)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return code, nil
}

// otpMatches compares codes in constant time.
func otpMatches(stored *string, submitted string) bool {
	if stored == nil || *stored == "" || submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*stored), []byte(submitted)) == 1
}
