package user

import "context"

type CreatedEvent struct {
	Data   User
	Result User
}

func NewCreatedEvent(_ context.Context, data User) *CreatedEvent {
	return &CreatedEvent{Data: data}
}
