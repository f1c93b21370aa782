package shared

type Error string

// Implement the error interface
func (e Error) Error() string { return string(e) }

//------------
// Definitions
//------------

// error taxonomy shared by repository and services. Callers match with errors.Is.
const (
	ErrNotFound       = Error("not found")
	ErrConflict       = Error("conflict")
	ErrValidation     = Error("validation failed")
	ErrIO             = Error("filesystem operation failed")
	ErrPartialFailure = Error("partial failure")
)

// cli errors
const (
	ErrorCreateFile = Error("could not create the file")
	ErrorEncodeFile = Error("could not encode to file")
)
