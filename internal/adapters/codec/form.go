package codec

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/DanielPopoola/posgateway/internal/core/domain"
)

const (
	pairSep  = ";;"
	valueSep = "="
)

// EncodeForm flattens fields into form values. Nested groups have no form representation.
func EncodeForm(fields domain.Fields) (url.Values, error) {
	form := make(url.Values, len(fields))
	for _, f := range fields {
		switch f.Value.(type) {
		case domain.Fields, []domain.Fields:
			return nil, fmt.Errorf("field %s: groups cannot be form encoded", f.Key)
		}
		form.Set(f.Key, domain.Scalar(f.Value))
	}
	return form, nil
}

func DecodeForm(body []byte) (domain.Values, error) {
	form, err := url.ParseQuery(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, err
	}
	return domain.ValuesFromForm(form), nil
}

// DecodeDelimited reads "key=value;;key=value" replies. Values may contain "=".
func DecodeDelimited(body []byte) (domain.Values, error) {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return nil, errEmptyDocument
	}
	v := domain.Values{}
	for _, pair := range strings.Split(text, pairSep) {
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, valueSep)
		if !ok {
			return nil, fmt.Errorf("pair %q has no value separator", pair)
		}
		v[strings.TrimSpace(key)] = value
	}
	return v, nil
}
