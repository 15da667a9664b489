package response

// Response is the envelope for all JSON API replies.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Ok wraps data in a successful response.
func Ok(data any) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// Error wraps a message in a failed response.
func Error(msg string) Response {
	return Response{
		Success: false,
		Message: msg,
	}
}
