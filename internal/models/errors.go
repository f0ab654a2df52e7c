package models

import "fmt"

// DetectorError means the detector was unavailable or failed on a
// frame. The pipeline skips the frame and keeps running.
type DetectorError struct {
	Op  string
	Err error
}

func (e *DetectorError) Error() string {
	return fmt.Sprintf("detector: %s: %v", e.Op, e.Err)
}

func (e *DetectorError) Unwrap() error { return e.Err }

// StorageError means the alert log was unreachable. Non-fatal for the
// real-time path: the alert is still published.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// RelayError means a pub/sub publish or subscribe failed. The single
// message is dropped; persisted alerts are not lost.
type RelayError struct {
	Subject string
	Err     error
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("relay: subject %s: %v", e.Subject, e.Err)
}

func (e *RelayError) Unwrap() error { return e.Err }

// DeliveryError means one connection's send failed during broadcast.
// The connection is unregistered; the error never escapes Broadcast.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
