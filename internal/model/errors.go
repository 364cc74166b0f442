package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrInvalidPlayerID = errors.New("invalid player id")
	ErrPlayerOffline   = errors.New("player is offline")

	// Room errors
	ErrRoomNotFound  = errors.New("room not found")
	ErrNotRoomMember = errors.New("player is not a member of this room")
	ErrRoomExists    = errors.New("room already exists for this pair")
	ErrRoomNotReady  = errors.New("room is waiting for its second player")

	// Session errors
	ErrNoSession        = errors.New("room has no session")
	ErrSessionNotActive = errors.New("session is not active")
	ErrSessionRunning   = errors.New("session is already running")
	ErrSessionEnded     = errors.New("session has ended")

	// Profile errors
	ErrNameNotFound = errors.New("display name not found")

	// Match errors
	ErrMatchAlreadyReported = errors.New("match already reported")
	ErrNotMatchWriter       = errors.New("player is not the designated match writer")
)

// ErrorCode is the code carried by an outbound error message
type ErrorCode string

const (
	CodeBadInvite      ErrorCode = "BAD_INVITE"
	CodeSelfInvite     ErrorCode = "SELF_INVITE"
	CodeUserNotInLobby ErrorCode = "USER_NOT_IN_LOBBY"
)

// InviteError is a validation failure answered to the inviter only
type InviteError struct {
	Code    ErrorCode
	Message string
}

func (e *InviteError) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Invite validation errors, checked in this order
var (
	ErrBadInvite      = &InviteError{Code: CodeBadInvite, Message: "Invalid target user."}
	ErrSelfInvite     = &InviteError{Code: CodeSelfInvite, Message: "You cannot invite yourself."}
	ErrUserNotInLobby = &InviteError{Code: CodeUserNotInLobby, Message: "User is not in the lobby."}
)
