package crypt_test

import (
	"testing"

	"github.com/DanielPopoola/posgateway/internal/core/domain"
	"github.com/DanielPopoola/posgateway/internal/crypt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleFields = []string{
	"700655000200",
	"order222",
	"100.25",
	"https://domain.com/success",
	"https://domain.com/fail_page",
	"rand",
	"TRPS0200",
}

func TestComputeHash_GoldenVectors(t *testing.T) {
	tests := []struct {
		name string
		alg  crypt.Algorithm
		sep  string
		want string
	}{
		{"sha1 base64", crypt.SHA1Base64, "", "lMqq9XPyKsits84V25HIvOO1YfM="},
		{"sha1 upper hex", crypt.SHA1HexUpper, "", "94CAAAF573F22AC8ADB3CE15DB91C8BCE3B561F3"},
		{"sha256 base64 with separator", crypt.SHA256Base64, "|", "Ayp01UNgVuerlw1n1HLAc5pqkg6lt9LTwUFtmHPPutg="},
		{
			"sha512 upper hex", crypt.SHA512HexUpper, "",
			"0C6B7F4CAB2AD072A52F153A299472ED5B66C91CF67472EFA86F549B7155809A539D29FA0784FF7F879C14D518CBBBCB7214E38EB319803E8F27473FB5CB922F",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, crypt.ComputeHash(sampleFields, tt.alg, tt.sep))
			assert.Equal(t, tt.want, crypt.ComputeHash(sampleFields, tt.alg, tt.sep), "must be deterministic")
		})
	}
}

func TestComputeHash_TamperSensitivity(t *testing.T) {
	base := crypt.ComputeHash(sampleFields, crypt.SHA1Base64, "")

	for i := range sampleFields {
		tampered := append([]string(nil), sampleFields...)
		tampered[i] += "x"
		assert.NotEqual(t, base, crypt.ComputeHash(tampered, crypt.SHA1Base64, ""), "field %d", i)
	}
}

func TestComputeHash_EmptyFieldKeepsPosition(t *testing.T) {
	withEmpty := crypt.ComputeHash([]string{"a", "", "b"}, crypt.SHA1Base64, "|")
	withoutEmpty := crypt.ComputeHash([]string{"a", "b"}, crypt.SHA1Base64, "|")

	assert.NotEqual(t, withEmpty, withoutEmpty)
}

func TestComputeHMAC(t *testing.T) {
	got := crypt.ComputeHMAC("secret", sampleFields, crypt.HMACSHA512Base64, "")

	assert.Equal(t, "2TMUa8/NpyYL+CXbwBUIVsUvgkk1UmLTu97xvJjlDqcDoo7VBLVFEk6Xtxeevvkf/llttxWkzM/RbNP8dSbieg==", got)
}

func TestSecurityData_PadsTerminalID(t *testing.T) {
	assert.Equal(t, "1639636D00AB5EF0B3CE073BB222BFAAC2C2C38D", crypt.SecurityData("123qweASD/", "30691298"))
	assert.Equal(t, crypt.SecurityData("123qweASD/", "030691298"), crypt.SecurityData("123qweASD/", "30691298"))
}

func TestHashedPassword(t *testing.T) {
	assert.Equal(t, "poCqMathhevCYY1LVNbWCQWbC5I=", crypt.HashedPassword("api123"))
}

func TestLeftPad(t *testing.T) {
	assert.Equal(t, "000000123", crypt.LeftPad("123", 9, '0'))
	assert.Equal(t, "1234567890", crypt.LeftPad("1234567890", 9, '0'))
}

func TestVerifyHash(t *testing.T) {
	t.Run("match", func(t *testing.T) {
		require.NoError(t, crypt.VerifyHash("test", "abc", "abc"))
	})

	t.Run("mismatch", func(t *testing.T) {
		err := crypt.VerifyHash("test", "abc", "abd")
		require.Error(t, err)
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeHashMismatch))
		assert.Equal(t, domain.CategoryAuthentication, domain.Categorize(err))
	})

	t.Run("missing signature never verifies", func(t *testing.T) {
		err := crypt.VerifyHash("test", "", "")
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeHashMismatch))
	})
}

func TestBodySigner(t *testing.T) {
	signer := crypt.NewBodySigner("auth-hash", "secret", crypt.HMACSHA512Base64)

	header, value := signer.SignBody([]byte(`{"a":1}`))

	assert.Equal(t, "auth-hash", header)
	assert.Equal(t, "QvCMDaAcmkbU5WY9XyFAUmoBZQfFmBgsZ2nMorz3ukPDlbcZsB0oj1rTIlZNzh1AyijvULh2/EmjPRPWeDEU3Q==", value)
}
