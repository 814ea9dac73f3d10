package shared

import "time"

type Entity interface {
	GetID() int64
}

// BaseEntity carries the identity and timestamps shared by every stored
// record. ID stays zero until the database assigns one.
type BaseEntity struct {
	ID        int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{CreatedAt: now, UpdatedAt: now}
}

func (e *BaseEntity) GetID() int64 { return e.ID }

func (e *BaseEntity) IsNew() bool { return e.ID == 0 }

// Touch bumps UpdatedAt after a mutation.
func (e *BaseEntity) Touch() { e.UpdatedAt = time.Now() }
