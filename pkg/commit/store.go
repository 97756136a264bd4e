package commit

import (
	"context"

	"github.com/harrisonrobin/opsboard/pkg/model"
)

// Store is the persistence collaborator the engine writes through.
type Store interface {
	ListClients(ctx context.Context) ([]model.Client, error)
	// GetClient returns model.ErrClientNotFound (possibly wrapped) for unknown ids.
	GetClient(ctx context.Context, id string) (*model.Client, error)
	CountTasks(ctx context.Context) (int, error)
	CreateTask(ctx context.Context, task *model.Task) (*model.Task, error)
}
