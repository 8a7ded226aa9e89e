package entities

import "time"

type Invite struct {
	Id        string
	Inviter   User
	Recipient User
	CreatedAt time.Time
}
