package lambda

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"lambda-http-adapter/internal/jsoncodec"
)

// EventSource names the envelope format of a Lambda event
type EventSource string

const (
	SourceAuto         EventSource = "auto"
	SourceAPIGatewayV1 EventSource = "apigw-v1"
	SourceAPIGatewayV2 EventSource = "apigw-v2"
	SourceALB          EventSource = "alb"
)

// ParseEventSource parses a configured source name
func ParseEventSource(s string) (EventSource, error) {
	switch src := EventSource(strings.ToLower(strings.TrimSpace(s))); src {
	case "":
		return SourceAuto, nil
	case SourceAuto, SourceAPIGatewayV1, SourceAPIGatewayV2, SourceALB:
		return src, nil
	default:
		return "", fmt.Errorf("unknown event source %q", s)
	}
}

type eventProbe struct {
	Version        string `json:"version"`
	HTTPMethod     string `json:"httpMethod"`
	RequestContext struct {
		ELB *struct {
			TargetGroupArn string `json:"targetGroupArn"`
		} `json:"elb"`
	} `json:"requestContext"`
}

// DetectSource inspects a raw payload and reports its envelope format.
// Function URL events share the API Gateway v2 format.
func DetectSource(payload []byte) (EventSource, error) {
	var probe eventProbe
	if err := jsoncodec.Unmarshal(payload, &probe); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnknownEvent, err)
	}

	switch {
	case probe.RequestContext.ELB != nil:
		return SourceALB, nil
	case probe.Version == "2.0":
		return SourceAPIGatewayV2, nil
	case probe.HTTPMethod != "":
		return SourceAPIGatewayV1, nil
	default:
		return "", ErrUnknownEvent
	}
}

// Envelope is a decoded Lambda event: the inbound Request plus the raw
// event struct it came from.
type Envelope struct {
	Source  EventSource
	Request *Request
	// Raw is one of *events.APIGatewayProxyRequest,
	// *events.APIGatewayV2HTTPRequest or *events.ALBTargetGroupRequest
	Raw any

	multiValue bool
}

// DecodeEvent decodes payload according to src. SourceAuto detects the
// format first.
func DecodeEvent(src EventSource, payload []byte) (*Envelope, error) {
	if src == SourceAuto || src == "" {
		detected, err := DetectSource(payload)
		if err != nil {
			return nil, err
		}
		src = detected
	}

	switch src {
	case SourceAPIGatewayV1:
		var ev events.APIGatewayProxyRequest
		if err := jsoncodec.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("decode %s event: %w", src, err)
		}
		req, err := requestFromAPIGatewayV1(&ev)
		if err != nil {
			return nil, err
		}
		return &Envelope{Source: src, Request: req, Raw: &ev}, nil

	case SourceAPIGatewayV2:
		var ev events.APIGatewayV2HTTPRequest
		if err := jsoncodec.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("decode %s event: %w", src, err)
		}
		req, err := requestFromAPIGatewayV2(&ev)
		if err != nil {
			return nil, err
		}
		return &Envelope{Source: src, Request: req, Raw: &ev}, nil

	case SourceALB:
		var ev events.ALBTargetGroupRequest
		if err := jsoncodec.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("decode %s event: %w", src, err)
		}
		req, err := requestFromALB(&ev)
		if err != nil {
			return nil, err
		}
		return &Envelope{
			Source:     src,
			Request:    req,
			Raw:        &ev,
			multiValue: len(ev.MultiValueHeaders) > 0,
		}, nil

	default:
		return nil, fmt.Errorf("%w: source %q", ErrUnknownEvent, src)
	}
}

func requestFromAPIGatewayV1(ev *events.APIGatewayProxyRequest) (*Request, error) {
	body, err := decodeBody(ev.Body, ev.IsBase64Encoded)
	if err != nil {
		return nil, err
	}

	header := headerFrom(ev.MultiValueHeaders, ev.Headers)
	query := make(url.Values)
	if len(ev.MultiValueQueryStringParameters) > 0 {
		for k, vs := range ev.MultiValueQueryStringParameters {
			for _, v := range vs {
				query.Add(k, v)
			}
		}
	} else {
		for k, v := range ev.QueryStringParameters {
			query.Add(k, v)
		}
	}

	return &Request{
		RequestParts: RequestParts{
			Method:     ev.HTTPMethod,
			URL:        &url.URL{Path: ev.Path, RawQuery: query.Encode()},
			Proto:      ev.RequestContext.Protocol,
			Header:     header,
			Host:       hostFrom(header, ev.RequestContext.DomainName),
			RemoteAddr: ev.RequestContext.Identity.SourceIP,
		},
		Body: body,
	}, nil
}

func requestFromAPIGatewayV2(ev *events.APIGatewayV2HTTPRequest) (*Request, error) {
	body, err := decodeBody(ev.Body, ev.IsBase64Encoded)
	if err != nil {
		return nil, err
	}

	header := headerFrom(nil, ev.Headers)
	if len(ev.Cookies) > 0 {
		header.Set("Cookie", strings.Join(ev.Cookies, "; "))
	}

	u := &url.URL{RawQuery: ev.RawQueryString}
	rawPath := ev.RawPath
	if rawPath == "" {
		rawPath = ev.RequestContext.HTTP.Path
	}
	if p, err := url.PathUnescape(rawPath); err == nil {
		u.Path = p
		if p != rawPath {
			u.RawPath = rawPath
		}
	} else {
		u.Path = rawPath
	}

	return &Request{
		RequestParts: RequestParts{
			Method:     ev.RequestContext.HTTP.Method,
			URL:        u,
			Proto:      ev.RequestContext.HTTP.Protocol,
			Header:     header,
			Host:       hostFrom(header, ev.RequestContext.DomainName),
			RemoteAddr: ev.RequestContext.HTTP.SourceIP,
		},
		Body: body,
	}, nil
}

func requestFromALB(ev *events.ALBTargetGroupRequest) (*Request, error) {
	body, err := decodeBody(ev.Body, ev.IsBase64Encoded)
	if err != nil {
		return nil, err
	}

	header := headerFrom(ev.MultiValueHeaders, ev.Headers)

	// ALB forwards query parameters still percent-encoded
	var pairs []string
	if len(ev.MultiValueQueryStringParameters) > 0 {
		for k, vs := range ev.MultiValueQueryStringParameters {
			for _, v := range vs {
				pairs = append(pairs, k+"="+v)
			}
		}
	} else {
		for k, v := range ev.QueryStringParameters {
			pairs = append(pairs, k+"="+v)
		}
	}
	sort.Strings(pairs)

	return &Request{
		RequestParts: RequestParts{
			Method: ev.HTTPMethod,
			URL:    &url.URL{Path: ev.Path, RawQuery: strings.Join(pairs, "&")},
			Header: header,
			Host:   hostFrom(header, ""),
		},
		Body: body,
	}, nil
}

func decodeBody(body string, isBase64 bool) (Body, error) {
	if body == "" {
		return EmptyBody{}, nil
	}
	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
		}
		return BinaryBody(data), nil
	}
	return TextBody(body), nil
}

func headerFrom(multi map[string][]string, single map[string]string) http.Header {
	header := make(http.Header)
	if len(multi) > 0 {
		for k, vs := range multi {
			for _, v := range vs {
				header.Add(k, v)
			}
		}
		return header
	}
	for k, v := range single {
		header.Add(k, v)
	}
	return header
}

func hostFrom(header http.Header, fallback string) string {
	if h := header.Get("Host"); h != "" {
		return h
	}
	return fallback
}

// EncodeResponse converts resp into the response type matching the
// envelope's source. The body is always sent base64 encoded.
func (e *Envelope) EncodeResponse(resp *Response) any {
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	body := base64.StdEncoding.EncodeToString(resp.Body)

	switch e.Source {
	case SourceAPIGatewayV2:
		headers, cookies := joinHeaders(resp.Header, true)
		return events.APIGatewayV2HTTPResponse{
			StatusCode:      status,
			Headers:         headers,
			Cookies:         cookies,
			Body:            body,
			IsBase64Encoded: true,
		}

	case SourceALB:
		out := events.ALBTargetGroupResponse{
			StatusCode:        status,
			StatusDescription: fmt.Sprintf("%d %s", status, http.StatusText(status)),
			Body:              body,
			IsBase64Encoded:   true,
		}
		if e.multiValue {
			out.MultiValueHeaders = multiHeaders(resp.Header)
		} else {
			out.Headers, _ = joinHeaders(resp.Header, false)
		}
		return out

	default:
		return events.APIGatewayProxyResponse{
			StatusCode:        status,
			MultiValueHeaders: multiHeaders(resp.Header),
			Body:              body,
			IsBase64Encoded:   true,
		}
	}
}

func multiHeaders(h http.Header) map[string][]string {
	out := make(map[string][]string, len(h))
	for k, vs := range h {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

func joinHeaders(h http.Header, splitCookies bool) (map[string]string, []string) {
	out := make(map[string]string, len(h))
	var cookies []string
	for k, vs := range h {
		if splitCookies && k == "Set-Cookie" {
			cookies = append(cookies, vs...)
			continue
		}
		out[k] = strings.Join(vs, ",")
	}
	return out, cookies
}

type envelopeKey struct{}

// ContextWithEnvelope attaches e to ctx
func ContextWithEnvelope(ctx context.Context, e *Envelope) context.Context {
	return context.WithValue(ctx, envelopeKey{}, e)
}

// EventFromContext returns the envelope of the current invocation, as seen
// from inside a wrapped service.
func EventFromContext(ctx context.Context) (*Envelope, bool) {
	e, ok := ctx.Value(envelopeKey{}).(*Envelope)
	return e, ok
}
