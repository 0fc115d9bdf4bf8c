package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"lambda-http-adapter/internal/jsoncodec"
	"lambda-http-adapter/pkg/lambda"
)

// invokeError mirrors the error document the Lambda runtime reports
type invokeError struct {
	ErrorMessage string `json:"errorMessage"`
	ErrorType    string `json:"errorType"`
}

// NewInvokeHandler emulates the Lambda runtime over HTTP: the request body
// is a raw event, the response body is the encoded handler result.
func NewInvokeHandler(h awslambda.Handler, logger logrus.FieldLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		requestID := uuid.New().String()
		ctx := lambdacontext.NewContext(r.Context(), &lambdacontext.LambdaContext{AwsRequestID: requestID})

		out, err := invokeRecovered(ctx, h, payload)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"aws_request_id": requestID,
				"error":          err.Error(),
			}).Error("Invocation failed")

			status := http.StatusBadGateway
			errType := "InvocationError"
			switch {
			case errors.Is(err, lambda.ErrUnknownEvent), errors.Is(err, lambda.ErrInvalidBody):
				status = http.StatusBadRequest
				errType = "InvalidEvent"
			case lambda.IsDrainError(err):
				errType = "DrainError"
			case errors.As(err, new(*panicError)):
				errType = "Runtime.Panic"
			}

			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Lambda-Runtime-Aws-Request-Id", requestID)
			w.WriteHeader(status)
			body, _ := jsoncodec.Marshal(invokeError{ErrorMessage: err.Error(), ErrorType: errType})
			_, _ = w.Write(body)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Lambda-Runtime-Aws-Request-Id", requestID)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(out)
	})
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("handler panicked: %v", e.value)
}

// invokeRecovered turns a panic into an error, as the Lambda runtime does
func invokeRecovered(ctx context.Context, h awslambda.Handler, payload []byte) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, &panicError{value: r}
		}
	}()
	return h.Invoke(ctx, payload)
}
