package crypt

import (
	"bytes"
	"crypto/cipher"
	"crypto/des"
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/crc32"
	"strings"

	"github.com/DanielPopoola/posgateway/internal/core/domain"
)

const (
	oosIVHexLen  = 2 * des.BlockSize
	oosCRCHexLen = 8
)

// OOSCipher encrypts and decrypts PosNet OOS payloads:
// upper hex IV, upper hex DES-EDE3-CBC ciphertext, then an 8 digit hex CRC32 of both.
type OOSCipher struct {
	key      []byte
	newBlock func(key []byte) (cipher.Block, error)
}

// NewOOSCipher derives the triple-DES key from the first 24 characters of the upper hex
// MD5 of the shared secret.
func NewOOSCipher(secret string) *OOSCipher {
	sum := md5.Sum([]byte(secret))
	return &OOSCipher{
		key:      []byte(strings.ToUpper(hex.EncodeToString(sum[:]))[:24]),
		newBlock: des.NewTripleDESCipher,
	}
}

func (c *OOSCipher) Encrypt(plain string) (string, error) {
	iv := make([]byte, des.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}
	return c.EncryptWithIV(plain, iv)
}

func (c *OOSCipher) EncryptWithIV(plain string, iv []byte) (string, error) {
	if len(iv) != des.BlockSize {
		return "", fmt.Errorf("iv must be %d bytes", des.BlockSize)
	}
	block, err := c.newBlock(c.key)
	if err != nil {
		return "", err
	}

	data := pkcs7Pad([]byte(plain), des.BlockSize)
	out := make([]byte, len(data))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, data)

	body := strings.ToUpper(hex.EncodeToString(iv) + hex.EncodeToString(out))
	return body + crc(body), nil
}

// Decrypt validates the trailing CRC before any cipher work.
func (c *OOSCipher) Decrypt(payload string) (string, error) {
	payload = strings.TrimSpace(payload)
	if len(payload) < oosIVHexLen+2*des.BlockSize+oosCRCHexLen {
		return "", domain.NewDecryptionError(errors.New("payload too short"))
	}

	body, sum := payload[:len(payload)-oosCRCHexLen], payload[len(payload)-oosCRCHexLen:]
	if !strings.EqualFold(crc(strings.ToUpper(body)), sum) {
		return "", domain.NewCRCMismatchError()
	}

	iv, err := hex.DecodeString(body[:oosIVHexLen])
	if err != nil {
		return "", domain.NewDecryptionError(err)
	}
	ct, err := hex.DecodeString(body[oosIVHexLen:])
	if err != nil {
		return "", domain.NewDecryptionError(err)
	}
	if len(ct)%des.BlockSize != 0 {
		return "", domain.NewDecryptionError(errors.New("ciphertext is not a whole number of blocks"))
	}

	block, err := c.newBlock(c.key)
	if err != nil {
		return "", domain.NewDecryptionError(err)
	}
	plain := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ct)

	plain, err = pkcs7Unpad(plain, des.BlockSize)
	if err != nil {
		return "", domain.NewDecryptionError(err)
	}
	return string(plain), nil
}

func crc(s string) string {
	return fmt.Sprintf("%08X", crc32.ChecksumIEEE([]byte(s)))
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, errors.New("invalid padded length")
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size {
		return nil, errors.New("invalid padding")
	}
	for _, v := range b[len(b)-n:] {
		if int(v) != n {
			return nil, errors.New("invalid padding")
		}
	}
	return b[:len(b)-n], nil
}
