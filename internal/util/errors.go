package util

// ValidationError marks a caller mistake (bad regex, missing field) as
// opposed to a server fault. Handlers map it to a 400 with the message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validationf builds a ValidationError with a plain message.
func Validationf(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}
