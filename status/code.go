// Package status carries call-completion information across the wire:
// a numeric code, a human-readable message in a percent-encoded form
// safe for header transport, and optional trailing metadata.
package status

import "strconv"

// Code is the numeric completion code of a call.
type Code int

const (
	CodeOK                 Code = iota // Successful completion
	CodeCanceled                       // Cancelled by the caller
	CodeUnknown                        // Unclassified failure
	CodeInvalidArgument                // Caller supplied a bad value
	CodeDeadlineExceeded               // Deadline expired before completion
	CodeNotFound                       // Requested entity missing
	CodeAlreadyExists                  // Entity already present
	CodePermissionDenied               // Caller lacks permission
	CodeResourceExhausted              // Quota or resource limit hit
	CodeFailedPrecondition             // System state rejects the operation
	CodeAborted                        // Aborted, typically on conflict
	CodeOutOfRange                     // Value outside the valid range
	CodeUnimplemented                  // Operation not supported
	CodeInternal                       // Internal invariant broken
	CodeUnavailable                    // Service temporarily unavailable
	CodeDataLoss                       // Unrecoverable data loss
	CodeUnauthenticated                // Missing or invalid credentials
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "OK"
	case CodeCanceled:
		return "Canceled"
	case CodeUnknown:
		return "Unknown"
	case CodeInvalidArgument:
		return "InvalidArgument"
	case CodeDeadlineExceeded:
		return "DeadlineExceeded"
	case CodeNotFound:
		return "NotFound"
	case CodeAlreadyExists:
		return "AlreadyExists"
	case CodePermissionDenied:
		return "PermissionDenied"
	case CodeResourceExhausted:
		return "ResourceExhausted"
	case CodeFailedPrecondition:
		return "FailedPrecondition"
	case CodeAborted:
		return "Aborted"
	case CodeOutOfRange:
		return "OutOfRange"
	case CodeUnimplemented:
		return "Unimplemented"
	case CodeInternal:
		return "Internal"
	case CodeUnavailable:
		return "Unavailable"
	case CodeDataLoss:
		return "DataLoss"
	case CodeUnauthenticated:
		return "Unauthenticated"
	default:
		return "Code(" + strconv.Itoa(int(c)) + ")"
	}
}
