package codec

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/DanielPopoola/posgateway/internal/core/domain"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

const soapNamespace = "http://schemas.xmlsoap.org/soap/envelope/"

var errEmptyDocument = errors.New("empty xml document")

// textEncoding resolves an IANA charset label. UTF-8 and an empty label need no transcoding
// and return nil.
func textEncoding(label string) (encoding.Encoding, error) {
	if label == "" || strings.EqualFold(label, "utf-8") || strings.EqualFold(label, "utf8") {
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("charset %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("charset %q is not supported", label)
	}
	return enc, nil
}

// EncodeXML writes fields under root in their given order and transcodes the document to
// charset. Runes the charset cannot carry are replaced.
func EncodeXML(root string, fields domain.Fields, charset string) ([]byte, error) {
	enc, err := textEncoding(charset)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	label := charset
	if label == "" {
		label = "UTF-8"
	}
	fmt.Fprintf(&buf, `<?xml version="1.0" encoding="%s"?>`, label)

	e := xml.NewEncoder(&buf)
	if err := writeElement(e, xml.StartElement{Name: xml.Name{Local: root}}, fields); err != nil {
		return nil, err
	}
	if err := e.Flush(); err != nil {
		return nil, err
	}

	if enc == nil {
		return buf.Bytes(), nil
	}
	return encoding.ReplaceUnsupported(enc.NewEncoder()).Bytes(buf.Bytes())
}

// EncodeSOAP wraps the operation element root, in namespace ns, in a SOAP 1.1 envelope.
func EncodeSOAP(root, ns string, fields domain.Fields) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)

	e := xml.NewEncoder(&buf)
	envelope := xml.StartElement{
		Name: xml.Name{Local: "soap:Envelope"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "xmlns:soap"}, Value: soapNamespace}},
	}
	body := xml.StartElement{Name: xml.Name{Local: "soap:Body"}}
	op := xml.StartElement{Name: xml.Name{Local: root}}
	if ns != "" {
		op.Attr = []xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: ns}}
	}

	for _, t := range []xml.Token{envelope, body} {
		if err := e.EncodeToken(t); err != nil {
			return nil, err
		}
	}
	if err := writeElement(e, op, fields); err != nil {
		return nil, err
	}
	for _, t := range []xml.Token{body.End(), envelope.End()} {
		if err := e.EncodeToken(t); err != nil {
			return nil, err
		}
	}
	if err := e.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeElement(e *xml.Encoder, start xml.StartElement, fields domain.Fields) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, f := range fields {
		if err := writeField(e, f); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

func writeField(e *xml.Encoder, f domain.Field) error {
	start := xml.StartElement{Name: xml.Name{Local: f.Key}}
	switch v := f.Value.(type) {
	case domain.Fields:
		return writeElement(e, start, v)
	case []domain.Fields:
		for _, group := range v {
			if err := writeElement(e, start, group); err != nil {
				return err
			}
		}
		return nil
	default:
		if err := e.EncodeToken(start); err != nil {
			return err
		}
		if text := domain.Scalar(v); text != "" {
			if err := e.EncodeToken(xml.CharData(text)); err != nil {
				return err
			}
		}
		return e.EncodeToken(start.End())
	}
}

type node struct {
	name     string
	children domain.Values
	text     strings.Builder
}

func (n *node) add(name string, value any) {
	if n.children == nil {
		n.children = domain.Values{}
	}
	prev, ok := n.children[name]
	if !ok {
		n.children[name] = value
		return
	}
	if list, ok := prev.([]any); ok {
		n.children[name] = append(list, value)
		return
	}
	n.children[name] = []any{prev, value}
}

func (n *node) value() any {
	if n.children != nil {
		return n.children
	}
	return strings.TrimSpace(n.text.String())
}

// DecodeXML reads a document into Values keyed by local element name, dropping the root
// element itself. Leaves are trimmed text, repeated elements become []any and attributes
// are ignored.
func DecodeXML(body []byte) (domain.Values, error) {
	d := xml.NewDecoder(bytes.NewReader(body))
	d.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		enc, err := textEncoding(label)
		if err != nil || enc == nil {
			return input, err
		}
		return enc.NewDecoder().Reader(input), nil
	}

	var (
		stack []*node
		root  *node
	)
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, &node{name: t.Name.Local})
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		case xml.EndElement:
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				root = n
				continue
			}
			stack[len(stack)-1].add(n.name, n.value())
		}
	}
	if root == nil {
		return nil, errEmptyDocument
	}
	if root.children == nil {
		return domain.Values{}, nil
	}
	return root.children, nil
}

// DecodeSOAP unwraps a SOAP envelope and returns the contents of the operation response
// element. A fault is reported as an error.
func DecodeSOAP(body []byte) (domain.Values, error) {
	doc, err := DecodeXML(body)
	if err != nil {
		return nil, err
	}
	soapBody := doc.Map("Body")
	if soapBody == nil {
		return nil, errors.New("soap body missing")
	}
	if fault := soapBody.Map("Fault"); fault != nil {
		return nil, fmt.Errorf("soap fault %s: %s", fault.Str("faultcode"), fault.Str("faultstring"))
	}
	for _, v := range soapBody {
		if op, ok := v.(domain.Values); ok {
			return op, nil
		}
	}
	return domain.Values{}, nil
}
