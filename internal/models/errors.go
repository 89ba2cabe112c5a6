package models

import "fmt"

// UpstreamFetchError means the OpenWeather call failed: network error or a
// non-2xx response. StatusCode is zero when the request never got a response.
type UpstreamFetchError struct {
	Location   string
	StatusCode int
	Err        error
}

func (e *UpstreamFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream fetch for %q failed with status %d: %v", e.Location, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream fetch for %q failed: %v", e.Location, e.Err)
}

func (e *UpstreamFetchError) Unwrap() error { return e.Err }

// SerializationError means a report could not be encoded, or a message
// payload could not be decoded. Payload holds the raw bytes for logging.
type SerializationError struct {
	Payload []byte
	Err     error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization failed: %v", e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// PublishError means the broker rejected or never acknowledged a message.
type PublishError struct {
	Topic string
	Key   string
	Err   error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish to topic %q with key %q failed: %v", e.Topic, e.Key, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }
