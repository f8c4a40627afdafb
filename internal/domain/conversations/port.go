package conversations

import "context"

// Repository port for imported documents and their messages.
type Repository interface {
	CreateDocument(ctx context.Context, d *Document, msgs []Message) error
	GetDocument(ctx context.Context, id DocumentID) (*Document, error)
	GetMessagesByDocument(ctx context.Context, id DocumentID) ([]Message, error)
	ListDocuments(ctx context.Context, limit int) ([]*Document, error)
}
