package llm

import "errors"

// ErrMalformedChunk is wrapped by stream chunk decoders when a data payload is
// not valid JSON or does not match the provider's chunk schema.
var ErrMalformedChunk = errors.New("malformed stream chunk")
