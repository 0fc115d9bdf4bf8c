package lambda

import (
	"net/http"
	"net/url"
)

// Body is the payload of an inbound event. Exactly one of EmptyBody,
// TextBody or BinaryBody.
type Body interface {
	isBody()
}

// EmptyBody is an absent payload
type EmptyBody struct{}

// TextBody is a textual payload, delivered by the runtime as UTF-8
type TextBody string

// BinaryBody is a raw byte payload
type BinaryBody []byte

func (EmptyBody) isBody()  {}
func (TextBody) isBody()   {}
func (BinaryBody) isBody() {}

// BodyBytes normalizes a payload to the byte sequence the handler sees.
// A nil Body is treated as EmptyBody.
func BodyBytes(b Body) []byte {
	switch v := b.(type) {
	case TextBody:
		return []byte(v)
	case BinaryBody:
		return []byte(v)
	default:
		return []byte{}
	}
}

// RequestParts is the header/metadata block of an inbound event
type RequestParts struct {
	Method     string
	URL        *url.URL
	Proto      string
	Header     http.Header
	Host       string
	RemoteAddr string
}

// Request is an inbound event as delivered by the runtime
type Request struct {
	RequestParts
	Body Body
}

// ResponseParts is the header/metadata block of a response
type ResponseParts struct {
	StatusCode int
	Header     http.Header
}

// Response is an outbound event handed back to the runtime. Body always
// holds the complete response content.
type Response struct {
	ResponseParts
	Body []byte
}
