// Package jsoncodec is the JSON codec used for Lambda event payloads.
package jsoncodec

import (
	"github.com/bytedance/sonic"
)

var defaultConfig = sonic.ConfigStd

// Marshal encodes v with sonic's encoding/json compatible config
func Marshal(v any) ([]byte, error) {
	return defaultConfig.Marshal(v)
}

// Unmarshal decodes data into v with sonic's encoding/json compatible config
func Unmarshal(data []byte, v any) error {
	return defaultConfig.Unmarshal(data, v)
}
