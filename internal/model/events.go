package model

// ErrorType classifies failures in structured logs
type ErrorType string

const (
	ErrorTypeExternalService ErrorType = "EXTERNAL_SERVICE_ERROR"
	ErrorTypeAuthentication  ErrorType = "AUTHENTICATION_ERROR"
	ErrorTypeWebsocket       ErrorType = "WEBSOCKET_ERROR"
	ErrorTypeRoom            ErrorType = "ROOM_ERROR"
	ErrorTypeValidation      ErrorType = "VALIDATION_ERROR"
)
