package storage

// FilePayload is one client-supplied attachment: metadata plus
// base64-encoded content.
type FilePayload struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data string `json:"data"`
}

// AttachRequest is the services.storage.attach request.
type AttachRequest struct {
	TaskID int64       `json:"task_id"`
	UserID int64       `json:"user_id"`
	File   FilePayload `json:"file"`
}

// StoreRequest is the services.storage.store request.
type StoreRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data []byte `json:"data"`
}
