package realtime

import "encoding/json"

// Frame is the inbound websocket message envelope. Payload stays raw until
// the command handler decodes it.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is the outbound envelope for replies and broadcasts.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// ErrorEvent is the outbound envelope for failures surfaced to one sender.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Shared message types.
const (
	TypeAuthSuccess = "AUTH_SUCCESS"
	TypeAuthFailed  = "AUTH_FAILED"
	TypeError       = "ERROR"
)

// Board room vocabulary.
const (
	TypeJoinBoard      = "JOIN_BOARD"
	TypePing           = "PING"
	TypePong           = "PONG"
	TypeLeaveBoard     = "LEAVE_BOARD"
	TypeLeftBoard      = "LEFT_BOARD"
	TypeGetUsers       = "GET_USERS"
	TypeBoardUsers     = "BOARD_USERS"
	TypeGetAllUsers    = "GET_ALL_USERS"
	TypeAllBoardUsers  = "ALL_BOARD_USERS"
	TypeCreateCard     = "CREATE_CARD"
	TypeCardCreated    = "CARD_CREATED"
	TypeUpdateCard     = "UPDATE_CARD"
	TypeCardUpdated    = "CARD_UPDATED"
	TypeDeleteCard     = "DELETE_CARD"
	TypeCardDeleted    = "CARD_DELETED"
	TypeMoveCard       = "MOVE_CARD"
	TypeCardMoved      = "CARD_MOVED"
	TypeGetAllTickets  = "GET_ALL_TICKETS"
	TypeAllTickets     = "ALL_TICKETS"
	TypeGetUserTickets = "GET_USER_TICKETS"
	TypeUserTickets    = "USER_TICKETS"
)

// Task room vocabulary.
const (
	TypeJoinTask            = "JOIN_TASK"
	TypeGetComments         = "GET_COMMENTS"
	TypeCommentsList        = "COMMENTS_LIST"
	TypeCreateComment       = "CREATE_COMMENT"
	TypeCommentCreated      = "COMMENT_CREATED"
	TypeUploadAttachments   = "UPLOAD_ATTACHMENTS"
	TypeAttachmentsUploaded = "ATTACHMENTS_UPLOADED"
)

// closePolicyViolation is sent when a connection issues commands before a
// successful join.
const closePolicyViolation = 4001
