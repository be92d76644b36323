package entity

import "errors"

// Failure taxonomy for a single inbound event. Nothing here is fatal to the
// process; each error is reported back to the originating conversation only.
var (
	ErrValidation = errors.New("invalid input")
	ErrNotFound   = errors.New("record not found")
	ErrDownload   = errors.New("file download failed")
	ErrUpload     = errors.New("file upload failed")
)
