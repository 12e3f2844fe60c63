// Package crypt computes and verifies the signatures bank gateways require and implements
// the triple-DES exchange used by the PosNet OOS protocol.
package crypt

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/DanielPopoola/posgateway/internal/core/domain"
)

// Algorithm names a digest and its text encoding.
type Algorithm string

const (
	SHA1Base64       Algorithm = "sha1-base64"
	SHA1HexUpper     Algorithm = "sha1-hex"
	SHA256Base64     Algorithm = "sha256-base64"
	SHA256HexUpper   Algorithm = "sha256-hex"
	SHA512Base64     Algorithm = "sha512-base64"
	SHA512HexUpper   Algorithm = "sha512-hex"
	HMACSHA512Base64 Algorithm = "hmac-sha512-base64"
)

// Keyed reports whether the algorithm takes the secret as a MAC key instead of as input.
func (a Algorithm) Keyed() bool {
	return a == HMACSHA512Base64
}

func (a Algorithm) newHash() (func() hash.Hash, bool) {
	switch a {
	case SHA1Base64, SHA1HexUpper:
		return sha1.New, a == SHA1HexUpper
	case SHA256Base64, SHA256HexUpper:
		return sha256.New, a == SHA256HexUpper
	case SHA512Base64, SHA512HexUpper, HMACSHA512Base64:
		return sha512.New, a == SHA512HexUpper
	}
	panic(fmt.Sprintf("crypt: unknown algorithm %q", a))
}

func encode(sum []byte, upperHex bool) string {
	if upperHex {
		return strings.ToUpper(hex.EncodeToString(sum))
	}
	return base64.StdEncoding.EncodeToString(sum)
}

// ComputeHash joins fields with sep and digests the result. Absent fields must be passed as
// "" so that positions are preserved.
func ComputeHash(fields []string, alg Algorithm, sep string) string {
	newHash, upperHex := alg.newHash()
	h := newHash()
	h.Write([]byte(strings.Join(fields, sep)))
	return encode(h.Sum(nil), upperHex)
}

// ComputeHMAC joins fields with sep and MACs the result with key.
func ComputeHMAC(key string, fields []string, alg Algorithm, sep string) string {
	newHash, upperHex := alg.newHash()
	mac := hmac.New(newHash, []byte(key))
	mac.Write([]byte(strings.Join(fields, sep)))
	return encode(mac.Sum(nil), upperHex)
}

// SecurityData is the intermediate password digest Garanti folds into its outer hashes.
func SecurityData(password, terminalID string) string {
	return ComputeHash([]string{password, LeftPad(terminalID, 9, '0')}, SHA1HexUpper, "")
}

// LeftPad pads s on the left with c up to n bytes. Longer values are returned unchanged.
func LeftPad(s string, n int, c byte) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat(string(c), n-len(s)) + s
}

// HashedPassword is the base64 SHA-1 of a password, as KuveytPos signs with it.
func HashedPassword(password string) string {
	return ComputeHash([]string{password}, SHA1Base64, "")
}

// VerifyHash compares a bank-supplied signature against the locally computed one in
// constant time.
func VerifyHash(name, expected, computed string) error {
	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(computed)) != 1 {
		return domain.NewHashMismatchError(name)
	}
	return nil
}

// BodySigner signs whole request bodies with HMAC and puts the result in a header.
type BodySigner struct {
	header string
	secret string
	alg    Algorithm
}

func NewBodySigner(header, secret string, alg Algorithm) *BodySigner {
	return &BodySigner{header: header, secret: secret, alg: alg}
}

func (s *BodySigner) SignBody(body []byte) (string, string) {
	return s.header, ComputeHMAC(s.secret, []string{string(body)}, s.alg, "")
}
