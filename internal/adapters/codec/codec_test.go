package codec_test

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/DanielPopoola/posgateway/internal/adapters/codec"
	"github.com/DanielPopoola/posgateway/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeXML_KeepsFieldOrder(t *testing.T) {
	fields := domain.Fields{
		domain.F("Name", "api"),
		domain.F("Total", "100.25"),
		domain.F("Extra", domain.Fields{domain.F("ORDERSTATUS", "QUERY")}),
		domain.F("Taksit", ""),
		domain.F("Item", []domain.Fields{
			{domain.F("Id", "1")},
			{domain.F("Id", "2")},
		}),
	}

	body, err := codec.EncodeXML("CC5Request", fields, "")
	require.NoError(t, err)

	assert.Equal(t,
		`<?xml version="1.0" encoding="UTF-8"?><CC5Request><Name>api</Name><Total>100.25</Total>`+
			`<Extra><ORDERSTATUS>QUERY</ORDERSTATUS></Extra><Taksit></Taksit>`+
			`<Item><Id>1</Id></Item><Item><Id>2</Id></Item></CC5Request>`,
		string(body))
}

func TestEncodeXML_EscapesText(t *testing.T) {
	body, err := codec.EncodeXML("R", domain.Fields{domain.F("Name", "A&B <x>")}, "")
	require.NoError(t, err)
	assert.Contains(t, string(body), "<Name>A&amp;B &lt;x&gt;</Name>")
}

func TestXML_TurkishCharset(t *testing.T) {
	body, err := codec.EncodeXML("R", domain.Fields{domain.F("Holder", "Ayşe Işık")}, "ISO-8859-9")
	require.NoError(t, err)

	assert.Contains(t, string(body), `encoding="ISO-8859-9"`)
	// ş and ı are single bytes in ISO-8859-9.
	assert.Contains(t, body, byte(0xFE))
	assert.Contains(t, body, byte(0xFD))

	decoded, err := codec.DecodeXML(body)
	require.NoError(t, err)
	assert.Equal(t, "Ayşe Işık", decoded.Str("Holder"))
}

func TestDecodeXML(t *testing.T) {
	body := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<CC5Response>
  <OrderId>order222</OrderId>
  <ProcReturnCode>00</ProcReturnCode>
  <ErrMsg></ErrMsg>
  <Extra>
    <TRXDATE>20221101 14:32:09</TRXDATE>
    <TRX>1</TRX>
    <TRX>2</TRX>
  </Extra>
</CC5Response>`)

	v, err := codec.DecodeXML(body)
	require.NoError(t, err)

	assert.Equal(t, "order222", v.Str("OrderId"))
	assert.Equal(t, "00", v.Str("ProcReturnCode"))
	assert.True(t, v.Has("ErrMsg"))
	assert.Equal(t, "20221101 14:32:09", v.Str("Extra", "TRXDATE"))
	assert.Equal(t, []any{"1", "2"}, v.Map("Extra")["TRX"])
}

func TestSOAP(t *testing.T) {
	body, err := codec.EncodeSOAP("GetMerchantOrderDetail", "http://boa.net/service", domain.Fields{
		domain.F("request", domain.Fields{domain.F("MerchantId", "496")}),
	})
	require.NoError(t, err)
	assert.Contains(t, string(body), `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body>`)
	assert.Contains(t, string(body), `<GetMerchantOrderDetail xmlns="http://boa.net/service"><request><MerchantId>496</MerchantId></request></GetMerchantOrderDetail>`)

	reply := []byte(`<?xml version="1.0" encoding="utf-8"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">
  <s:Body>
    <GetMerchantOrderDetailResponse xmlns="http://boa.net/service">
      <GetMerchantOrderDetailResult>
        <Success>true</Success>
        <Value><OrderContract><ResponseCode>00</ResponseCode></OrderContract></Value>
      </GetMerchantOrderDetailResult>
    </GetMerchantOrderDetailResponse>
  </s:Body>
</s:Envelope>`)
	v, err := codec.DecodeSOAP(reply)
	require.NoError(t, err)
	assert.Equal(t, "true", v.Str("GetMerchantOrderDetailResult", "Success"))
	assert.Equal(t, "00", v.Str("GetMerchantOrderDetailResult", "Value", "OrderContract", "ResponseCode"))

	fault := []byte(`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body><s:Fault>` +
		`<faultcode>s:Client</faultcode><faultstring>bad request</faultstring></s:Fault></s:Body></s:Envelope>`)
	_, err = codec.DecodeSOAP(fault)
	assert.ErrorContains(t, err, "bad request")
}

func TestJSON(t *testing.T) {
	body, err := codec.EncodeJSON(domain.Fields{
		domain.F("version", "1.00"),
		domain.F("txnCode", "1000"),
		domain.F("order", domain.Fields{domain.F("orderId", "order222")}),
		domain.F("transaction", domain.Fields{
			domain.F("amount", json.Number("100.25")),
			domain.F("currencyCode", 949),
			domain.F("installCount", 1),
		}),
	})
	require.NoError(t, err)
	assert.Equal(t,
		`{"version":"1.00","txnCode":"1000","order":{"orderId":"order222"},`+
			`"transaction":{"amount":100.25,"currencyCode":949,"installCount":1}}`,
		string(body))

	v, err := codec.DecodeJSON([]byte(`{"Code":0,"Amount":10025,"Ok":true,"Msg":null,"Tx":{"Id":"A1"},"List":[{"N":1}]}`))
	require.NoError(t, err)
	assert.Equal(t, "0", v.Str("Code"))
	assert.Equal(t, "10025", v.Str("Amount"))
	assert.Equal(t, "true", v.Str("Ok"))
	assert.Equal(t, "", v.Str("Msg"))
	assert.Equal(t, "A1", v.Str("Tx", "Id"))
	assert.Len(t, v["List"], 1)
}

func TestForm(t *testing.T) {
	form, err := codec.EncodeForm(domain.Fields{domain.F("ShopCode", "3123"), domain.F("PurchAmount", "100.25")})
	require.NoError(t, err)
	assert.Equal(t, "3123", form.Get("ShopCode"))

	_, err = codec.EncodeForm(domain.Fields{domain.F("Group", domain.Fields{})})
	assert.Error(t, err)

	v, err := codec.DecodeForm([]byte("a=1&b=x%3Dy"))
	require.NoError(t, err)
	assert.Equal(t, "x=y", v.Str("b"))
}

func TestDecodeDelimited(t *testing.T) {
	v, err := codec.DecodeDelimited([]byte("OrderId=order222;;ProcReturnCode=00;;ErrorMessage=;;HASH=ab==;;"))
	require.NoError(t, err)

	assert.Equal(t, "order222", v.Str("OrderId"))
	assert.Equal(t, "00", v.Str("ProcReturnCode"))
	assert.Equal(t, "ab==", v.Str("HASH"))
	assert.True(t, v.Has("ErrorMessage"))

	_, err = codec.DecodeDelimited([]byte("garbage"))
	assert.Error(t, err)
}

func TestEncode_XMLInForm(t *testing.T) {
	env := &domain.Envelope{
		Format:  domain.WireXMLInForm,
		FormKey: "xmldata",
		Root:    "posnetRequest",
		Fields:  domain.Fields{domain.F("mid", "6706598320")},
	}

	body, contentType, err := codec.Encode(env)
	require.NoError(t, err)
	assert.Equal(t, codec.ContentTypeForm, contentType)

	form, err := url.ParseQuery(string(body))
	require.NoError(t, err)
	assert.Contains(t, form.Get("xmldata"), "<posnetRequest><mid>6706598320</mid></posnetRequest>")
}

func TestDecode_WrapsParseErrors(t *testing.T) {
	_, err := codec.Decode(domain.WireXML, []byte("<open>"))
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeMalformedResponse))

	_, err = codec.Decode(domain.WireJSON, []byte("{"))
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeMalformedResponse))
}
