package crypt

import (
	"slices"
	"strings"

	"github.com/DanielPopoola/posgateway/internal/core/domain"
)

// Secret is the reserved field reference marking where the shared secret enters a formula.
const Secret = "$secret"

// Params are named plain-text values a formula reads from.
type Params map[string]string

// Formula is a signature recipe: which fields, in which order, joined how, digested how.
type Formula struct {
	Name      string
	Fields    []string
	Separator string
	Algorithm Algorithm
}

// Input resolves the formula's field references. Missing values become "".
func (f Formula) Input(p Params, secret string) []string {
	in := make([]string, 0, len(f.Fields))
	for _, name := range f.Fields {
		if name == Secret {
			in = append(in, secret)
			continue
		}
		in = append(in, p[name])
	}
	return in
}

// Sign computes the formula over p. Keyed algorithms use secret as the MAC key.
func (f Formula) Sign(p Params, secret string) string {
	if f.Algorithm.Keyed() {
		return ComputeHMAC(secret, f.Input(p, secret), f.Algorithm, f.Separator)
	}
	return ComputeHash(f.Input(p, secret), f.Algorithm, f.Separator)
}

// Verify recomputes the formula and checks it against expected.
func (f Formula) Verify(p Params, secret, expected string) error {
	return VerifyHash(f.Name, expected, f.Sign(p, secret))
}

// SortedFormula signs every parameter except the excluded ones, ordered by name
// case-insensitively, with separators escaped inside values.
type SortedFormula struct {
	Name      string
	Exclude   []string
	Separator string
	Algorithm Algorithm
}

func (f SortedFormula) Input(p Params, secret string) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		if f.excluded(k) {
			continue
		}
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})

	in := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		in = append(in, f.escape(p[k]))
	}
	return append(in, f.escape(secret))
}

func (f SortedFormula) Sign(p Params, secret string) string {
	return ComputeHash(f.Input(p, secret), f.Algorithm, f.Separator)
}

func (f SortedFormula) Verify(p Params, secret, expected string) error {
	return VerifyHash(f.Name, expected, f.Sign(p, secret))
}

func (f SortedFormula) excluded(key string) bool {
	for _, e := range f.Exclude {
		if strings.EqualFold(e, key) {
			return true
		}
	}
	return false
}

func (f SortedFormula) escape(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, f.Separator, `\`+f.Separator)
}

// HashParams verifies callbacks that name their own signed fields: NamesKey lists the field
// names, ValuesKey (optional) echoes their concatenation and HashKey holds the signature.
type HashParams struct {
	Name      string
	NamesKey  string
	ValuesKey string
	HashKey   string
	NameSep   string
	Algorithm Algorithm
}

// Verify checks the echoed value string, then the signature over it plus the secret.
func (h HashParams) Verify(lookup func(string) string, secret string) error {
	names := lookup(h.NamesKey)
	if names == "" {
		return domain.NewHashMismatchError(h.Name)
	}

	var b strings.Builder
	for _, name := range strings.Split(names, h.NameSep) {
		if name == "" {
			continue
		}
		b.WriteString(lookup(name))
	}
	joined := b.String()

	if h.ValuesKey != "" {
		if echoed := lookup(h.ValuesKey); echoed != "" && echoed != joined {
			return VerifyHash(h.Name, echoed, joined)
		}
	}

	var computed string
	if h.Algorithm.Keyed() {
		computed = ComputeHMAC(secret, []string{joined}, h.Algorithm, "")
	} else {
		computed = ComputeHash([]string{joined, secret}, h.Algorithm, "")
	}
	return VerifyHash(h.Name, lookup(h.HashKey), computed)
}
