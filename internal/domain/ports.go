package domain

import "context"

// RecordStore is the storage handle for one unit of work. Implementations
// returned by a Transactor are bound to a single transaction.
type RecordStore interface {
	CreateEvent(ctx context.Context, value Event) (Event, error)
	UpdateEvent(ctx context.Context, value Event) (Event, error)
	GetEvent(ctx context.Context, id uint) (Event, error)
	DeleteEvent(ctx context.Context, id uint) error
	ListEvents(ctx context.Context, filter EventFilter) ([]EventSummary, int64, error)
	ListSubjectNames(ctx context.Context, eventIDs []uint) ([]SubjectName, error)

	CreateIndividual(ctx context.Context, value Individual) (Individual, error)
	UpdateIndividual(ctx context.Context, value Individual) error
	GetIndividual(ctx context.Context, id uint) (Individual, error)
	GetIndividuals(ctx context.Context, ids []uint) (map[uint]Individual, error)
	SetFamilyOfOrigin(ctx context.Context, individualID, familyID uint) error

	CreateParticipation(ctx context.Context, value Participation) (Participation, error)
	UpdateParticipation(ctx context.Context, value Participation) error
	RetagParticipation(ctx context.Context, id uint, role Role) error
	FindParticipation(ctx context.Context, eventID, individualID uint, role Role) (Participation, bool, error)
	ListParticipations(ctx context.Context, eventID uint) ([]Participation, error)
	ListParticipationsExcluding(ctx context.Context, eventID uint, roles []Role) ([]Participation, error)
	DeleteParticipation(ctx context.Context, id uint) error

	CreateFamily(ctx context.Context, value Family) (Family, error)
	UpdateFamily(ctx context.Context, value Family) error
	DeleteFamily(ctx context.Context, id uint) error
	GetFamilies(ctx context.Context, ids []uint) (map[uint]Family, error)
	FindMarriage(ctx context.Context, eventID uint) (Family, bool, error)
}

// Transactor runs fn against a store bound to one storage transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(store RecordStore) error) error
}
