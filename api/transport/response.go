package transport

// Envelope wraps every JSON response, successful or not.
type Envelope struct {
	Status string     `json:"status"`
	Code   string     `json:"code,omitempty"`
	Data   any        `json:"data,omitempty"`
	Error  *ErrorBody `json:"error,omitempty"`
	Meta   any        `json:"meta,omitempty"`
}

type ErrorBody struct {
	Message string `json:"message"`
}

func NewSuccess(data any, meta any) Envelope {
	return Envelope{
		Status: "success",
		Data:   data,
		Meta:   meta,
	}
}

// NewError returns an error envelope; meta carries optional diagnostics.
func NewError(code string, message string, meta any) Envelope {
	return Envelope{
		Status: "error",
		Code:   code,
		Error:  &ErrorBody{Message: message},
		Meta:   meta,
	}
}
