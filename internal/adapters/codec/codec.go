// Package codec turns envelopes into request bodies and gateway replies into Values.
package codec

import (
	"fmt"
	"net/url"

	"github.com/DanielPopoola/posgateway/internal/core/domain"
)

const (
	ContentTypeXML  = "application/xml"
	ContentTypeSOAP = "text/xml; charset=utf-8"
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// Encode renders env in its wire format and reports the content type to send it with.
func Encode(env *domain.Envelope) ([]byte, string, error) {
	switch env.Format {
	case domain.WireXML:
		body, err := EncodeXML(env.Root, env.Fields, env.Charset)
		if err != nil {
			return nil, "", err
		}
		return body, xmlContentType(env.Charset), nil

	case domain.WireXMLInForm:
		body, err := EncodeXML(env.Root, env.Fields, env.Charset)
		if err != nil {
			return nil, "", err
		}
		form := url.Values{env.FormKey: {string(body)}}
		return []byte(form.Encode()), ContentTypeForm, nil

	case domain.WireSOAP:
		body, err := EncodeSOAP(env.Root, env.Namespace, env.Fields)
		if err != nil {
			return nil, "", err
		}
		return body, ContentTypeSOAP, nil

	case domain.WireJSON:
		body, err := EncodeJSON(env.Fields)
		if err != nil {
			return nil, "", err
		}
		return body, ContentTypeJSON, nil

	case domain.WireForm:
		form, err := EncodeForm(env.Fields)
		if err != nil {
			return nil, "", err
		}
		return []byte(form.Encode()), ContentTypeForm, nil

	default:
		return nil, "", fmt.Errorf("codec: unknown request format %q", env.Format)
	}
}

// Decode parses a reply body. Any parse failure is a MALFORMED_RESPONSE.
func Decode(format domain.WireFormat, body []byte) (domain.Values, error) {
	var (
		v   domain.Values
		err error
	)
	switch format {
	case domain.WireXML, domain.WireXMLInForm:
		v, err = DecodeXML(body)
	case domain.WireSOAP:
		v, err = DecodeSOAP(body)
	case domain.WireJSON:
		v, err = DecodeJSON(body)
	case domain.WireForm:
		v, err = DecodeForm(body)
	case domain.WireDelimited:
		v, err = DecodeDelimited(body)
	default:
		err = fmt.Errorf("unknown response format %q", format)
	}
	if err != nil {
		return nil, domain.NewMalformedResponseError(err)
	}
	return v, nil
}

func xmlContentType(charset string) string {
	if charset == "" {
		return ContentTypeXML + "; charset=utf-8"
	}
	return ContentTypeXML + "; charset=" + charset
}
