package domain

import (
	"fmt"
	"net/http"
	"strings"
)

// Field is one named value of a request. Value is a scalar, a nested Fields group or a
// []Fields list of repeated groups.
type Field struct {
	Key   string
	Value any
}

// Fields is an ordered field map. Several gateways reject reordered XML elements, so order
// is kept exactly as the mapper built it.
type Fields []Field

// F is shorthand for building Fields literals.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

func (f Fields) Get(key string) (any, bool) {
	for _, field := range f {
		if field.Key == key {
			return field.Value, true
		}
	}
	return nil, false
}

// String returns the scalar value of key rendered as text, or "" when absent.
func (f Fields) String(key string) string {
	v, ok := f.Get(key)
	if !ok || v == nil {
		return ""
	}
	return Scalar(v)
}

// Group returns the nested group stored under key.
func (f Fields) Group(key string) Fields {
	v, _ := f.Get(key)
	g, _ := v.(Fields)
	return g
}

// Set replaces the value of key in place, or appends it.
func (f *Fields) Set(key string, value any) {
	for i := range *f {
		if (*f)[i].Key == key {
			(*f)[i].Value = value
			return
		}
	}
	*f = append(*f, Field{Key: key, Value: value})
}

func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for _, field := range f {
		keys = append(keys, field.Key)
	}
	return keys
}

// Scalar renders a leaf value the way it is written on the wire.
func Scalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// Values is a decoded gateway reply or callback: leaves are strings, nested elements are
// Values and repeated elements are []any.
type Values map[string]any

// ValuesFromForm flattens posted form values, keeping the first value of each key.
func ValuesFromForm(form map[string][]string) Values {
	v := make(Values, len(form))
	for key, vals := range form {
		if len(vals) > 0 {
			v[key] = vals[0]
		}
	}
	return v
}

// Str walks path and returns the leaf text, or "" when any step is missing.
func (v Values) Str(path ...string) string {
	var cur any = v
	for _, p := range path {
		m, ok := asValues(cur)
		if !ok {
			return ""
		}
		cur, ok = m[p]
		if !ok {
			return ""
		}
	}
	switch t := cur.(type) {
	case string:
		return t
	case nil:
		return ""
	case Values, map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// Has reports whether path resolves to a present value.
func (v Values) Has(path ...string) bool {
	var cur any = v
	for _, p := range path {
		m, ok := asValues(cur)
		if !ok {
			return false
		}
		if cur, ok = m[p]; !ok {
			return false
		}
	}
	return true
}

// Map returns the nested group at path, or nil.
func (v Values) Map(path ...string) Values {
	var cur any = v
	for _, p := range path {
		m, ok := asValues(cur)
		if !ok {
			return nil
		}
		cur = m[p]
	}
	m, _ := asValues(cur)
	return m
}

// Fold returns the first value whose key matches name case-insensitively.
func (v Values) Fold(name string) string {
	if s := v.Str(name); s != "" {
		return s
	}
	for key := range v {
		if strings.EqualFold(key, name) {
			return v.Str(key)
		}
	}
	return ""
}

func asValues(v any) (Values, bool) {
	switch t := v.(type) {
	case Values:
		return t, true
	case map[string]any:
		return Values(t), true
	}
	return nil, false
}

// WireFormat is how an envelope is serialized for, or decoded from, a gateway.
type WireFormat string

const (
	WireXML       WireFormat = "xml"
	WireXMLInForm WireFormat = "xml_form"
	WireJSON      WireFormat = "json"
	WireSOAP      WireFormat = "soap"
	WireForm      WireFormat = "form"
	WireDelimited WireFormat = "delimited"
)

// Endpoint selects which configured gateway URL a request goes to.
type Endpoint string

const (
	EndpointPayment Endpoint = "payment"
	EndpointQuery   Endpoint = "query"
	Endpoint3D      Endpoint = "3d"
	Endpoint3DHost  Endpoint = "3d_host"
)

// BodySigner signs a serialized body for gateways that authenticate the whole payload in a
// header rather than in a field.
type BodySigner interface {
	SignBody(body []byte) (header string, value string)
}

// Envelope is the gateway-specific request a mapper builds: the ordered field set plus how
// it travels.
type Envelope struct {
	Bank       string
	TxType     TransactionType
	Endpoint   Endpoint
	Path       string
	Format     WireFormat
	Response   WireFormat
	Root       string
	FormKey    string
	Namespace  string
	SOAPAction string
	Charset    string
	Fields     Fields
	Signer     BodySigner
}

// Request is an envelope resolved against the account's endpoints.
type Request struct {
	*Envelope
	URL    string
	Method string
}

func NewRequest(env *Envelope, url string) *Request {
	return &Request{Envelope: env, URL: url, Method: http.MethodPost}
}

// FormData is what the merchant renders as an auto-submitting form to redirect the
// cardholder's browser to the bank.
type FormData struct {
	Gateway string            `json:"gateway"`
	Method  string            `json:"method"`
	Inputs  map[string]string `json:"inputs"`
}
