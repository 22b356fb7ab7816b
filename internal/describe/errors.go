package describe

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind classifies why a description could not be produced.
type Kind string

const (
	// KindIO means the image file could not be read.
	KindIO Kind = "io"
	// KindAuth means the service rejected or could not load the credentials.
	KindAuth Kind = "auth"
	// KindService means the annotation service failed the request.
	KindService Kind = "service"
)

// Error is returned by Describe and by client setup in place of a partial
// result.
type Error struct {
	Kind Kind   // Failure category
	Op   string // Step that failed, e.g. "read image", "label"
	Err  error  // Underlying error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a kind and operation. It returns nil for a nil err.
func NewError(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// serviceError classifies an annotation failure by its gRPC status.
func serviceError(op string, err error) error {
	switch status.Code(err) {
	case codes.Unauthenticated, codes.PermissionDenied:
		return NewError(KindAuth, op, err)
	}
	return NewError(KindService, op, err)
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if
// there is none.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
