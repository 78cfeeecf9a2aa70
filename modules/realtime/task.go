package realtime

import (
	"context"
	"encoding/json"
	"log"
	"strconv"

	"github.com/example/kanban-realtime-demo/domain/comment"
	"github.com/example/kanban-realtime-demo/modules/comments"
	"github.com/example/kanban-realtime-demo/modules/storage"
)

// taskDispatcher implements the task-room command table over the comments
// and storage collaborators.
type taskDispatcher struct {
	rooms    *RoomManager
	comments comments.Port
	storage  storage.Port
}

// NewTaskMux builds the task-room multiplexer: join via JOIN_TASK, comment
// and attachment commands fanned out to everyone watching the task.
func NewTaskMux(verifier TokenVerifier, commentPort comments.Port, storagePort storage.Port) *Mux {
	rooms := NewRoomManager(FamilyTask)
	d := &taskDispatcher{rooms: rooms, comments: commentPort, storage: storagePort}

	vocab := Vocabulary{
		Family:   FamilyTask,
		JoinType: TypeJoinTask,
		KeyField: "taskId",
		Commands: map[string]Handler{
			TypeGetComments:       d.getComments,
			TypeCreateComment:     d.createComment,
			TypeUploadAttachments: d.uploadAttachments,
		},
	}
	return NewMux(vocab, rooms, verifier)
}

// taskID parses the numeric room key the connection joined with.
func (d *taskDispatcher) taskID(c *Conn) (int64, error) {
	return strconv.ParseInt(c.RoomKey(), 10, 64)
}

// getComments replies to the requester only; the feed is a read, not an
// event other members need.
func (d *taskDispatcher) getComments(ctx context.Context, c *Conn, _ json.RawMessage) {
	id, err := d.taskID(c)
	if err != nil {
		_ = c.Send(ErrorEvent{Type: TypeError, Message: "Failed to load comments"})
		return
	}
	feed, err := d.comments.ListByTask(ctx, id)
	if err != nil {
		log.Printf("[realtime] list comments failed: %v", err)
		_ = c.Send(ErrorEvent{Type: TypeError, Message: "Failed to load comments"})
		return
	}
	_ = c.Send(Event{Type: TypeCommentsList, Payload: feed})
}

type createCommentPayload struct {
	Message string `json:"message"`
}

func (d *taskDispatcher) createComment(ctx context.Context, c *Conn, payload json.RawMessage) {
	var p createCommentPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.Message == "" {
		_ = c.Send(ErrorEvent{Type: TypeError, Message: "Message is required"})
		return
	}
	id, err := d.taskID(c)
	if err != nil {
		_ = c.Send(ErrorEvent{Type: TypeError, Message: "Failed to create comment"})
		return
	}
	entry, err := d.comments.Create(ctx, id, c.UserID(), p.Message)
	if err != nil {
		log.Printf("[realtime] create comment failed: %v", err)
		_ = c.Send(ErrorEvent{Type: TypeError, Message: "Failed to create comment"})
		return
	}
	d.rooms.Broadcast(c.RoomKey(), TypeCommentCreated, entry)
}

type uploadAttachmentsPayload struct {
	Files []storage.FilePayload `json:"files"`
}

// uploadAttachments persists the batch sequentially. The first failure
// aborts the rest and nothing is broadcast; only a fully stored batch is
// announced to the room.
func (d *taskDispatcher) uploadAttachments(ctx context.Context, c *Conn, payload json.RawMessage) {
	var p uploadAttachmentsPayload
	if err := json.Unmarshal(payload, &p); err != nil || len(p.Files) == 0 {
		_ = c.Send(ErrorEvent{Type: TypeError, Message: "No files provided"})
		return
	}
	id, err := d.taskID(c)
	if err != nil {
		_ = c.Send(ErrorEvent{Type: TypeError, Message: "Failed to upload attachments"})
		return
	}
	saved := make([]comment.Attachment, 0, len(p.Files))
	for _, f := range p.Files {
		rec, err := d.storage.SaveAttachment(ctx, id, c.UserID(), f)
		if err != nil {
			log.Printf("[realtime] attachment upload failed: %v", err)
			_ = c.Send(ErrorEvent{Type: TypeError, Message: "Failed to upload attachments"})
			return
		}
		saved = append(saved, *rec)
	}
	d.rooms.Broadcast(c.RoomKey(), TypeAttachmentsUploaded, saved)
}
