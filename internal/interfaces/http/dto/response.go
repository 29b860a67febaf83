package dto

// Response is the envelope every endpoint answers with: either Data on
// success or Error, never both. Meta rides along on paginated lists.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

type ErrorInfo struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

func NewSuccessResponse(data interface{}) Response {
	return Response{Success: true, Data: data}
}

// NewSuccessResponseWithMeta wraps a page of results together with the
// pagination counters.
func NewSuccessResponseWithMeta(data interface{}, total int64, page, pageSize int) Response {
	pages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		pages++
	}
	return Response{
		Success: true,
		Data:    data,
		Meta: &Meta{
			Total:      total,
			Page:       page,
			PageSize:   pageSize,
			TotalPages: pages,
		},
	}
}

func NewErrorResponse(code, message string) Response {
	return Response{
		Success: false,
		Error:   &ErrorInfo{Code: code, Message: message},
	}
}

func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	return Response{
		Success: false,
		Error:   &ErrorInfo{Code: code, Message: message, RequestID: requestID},
	}
}

// ValidationDetail names one field that failed binding and why.
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrorInfo struct {
	ErrorInfo
	Details []ValidationDetail `json:"details,omitempty"`
}

// ValidationResponse is the error envelope for request binding failures,
// carrying per-field details alongside the usual code and message.
type ValidationResponse struct {
	Success bool                 `json:"success"`
	Error   *ValidationErrorInfo `json:"error"`
}

func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) ValidationResponse {
	return ValidationResponse{
		Success: false,
		Error: &ValidationErrorInfo{
			ErrorInfo: ErrorInfo{
				Code:      ErrCodeValidation,
				Message:   message,
				RequestID: requestID,
			},
			Details: details,
		},
	}
}

// IDRequest binds the :id path parameter common to most routes.
type IDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}
