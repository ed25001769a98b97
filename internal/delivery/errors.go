package delivery

import (
	"errors"
	"fmt"
)

var (
	// ErrSend matches every *SendError.
	ErrSend = errors.New("email not sent")

	// ErrMissingAttachment matches every *MissingAttachmentError.
	ErrMissingAttachment = errors.New("attachment not found")
)

// SendError is a failed SMTP exchange for one recipient.
type SendError struct {
	Recipient string
	Op        string // smtp step that failed: dial, auth, mail, rcpt, data
	Err       error
}

// Error implements the error interface.
func (e *SendError) Error() string {
	return fmt.Sprintf("delivery: send to %s failed at %s: %v", e.Recipient, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *SendError) Unwrap() error {
	return e.Err
}

// Is matches ErrSend.
func (e *SendError) Is(target error) bool {
	return target == ErrSend
}

// MissingAttachmentError means a generated file disappeared before delivery.
type MissingAttachmentError struct {
	Recipient string
	Path      string
	Err       error
}

// Error implements the error interface.
func (e *MissingAttachmentError) Error() string {
	return fmt.Sprintf("delivery: attachment %s for %s: %v", e.Path, e.Recipient, e.Err)
}

// Unwrap returns the underlying error.
func (e *MissingAttachmentError) Unwrap() error {
	return e.Err
}

// Is matches ErrMissingAttachment.
func (e *MissingAttachmentError) Is(target error) bool {
	return target == ErrMissingAttachment
}

// Summary is the short reason recorded in the delivery log.
func Summary(err error) string {
	var missing *MissingAttachmentError
	var send *SendError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &missing):
		return "Adjunto no encontrado"
	case errors.As(err, &send):
		return "Correo NO enviado (" + send.Op + ")"
	default:
		return err.Error()
	}
}
