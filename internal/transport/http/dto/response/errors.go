package response

var (
	ErrInvalidRequestFormat = ErrorResponse{
		Status:  "error",
		Error:   "invalid_request",
		Details: "Invalid request format",
	}

	ErrAuthenticationFailed = ErrorResponse{
		Status:  "error",
		Error:   "authentication_failed",
		Details: "Invalid email or password",
	}

	ErrAuthenticationRequired = ErrorResponse{
		Status: "error",
		Error:  "authentication_required",
	}

	ErrAdminRequired = ErrorResponse{
		Status: "error",
		Error:  "admin_required",
	}

	ErrNotFound = ErrorResponse{
		Status: "error",
		Error:  "not_found",
	}

	ErrConflict = ErrorResponse{
		Status: "error",
		Error:  "conflict",
	}

	ErrInternal = ErrorResponse{
		Status:  "error",
		Error:   "internal_error",
		Details: "Internal server error",
	}
)

// ValidationResponse carries field-level messages next to the error code.
type ValidationResponse struct {
	Status string            `json:"status"`
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}
