package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AvailabilitySlot is one entry of a coach's declarative weekly schedule.
// It is not a booking ledger; it only states when the coach is reachable.
type AvailabilitySlot struct {
	Day       string `bson:"day" json:"day"`
	StartTime string `bson:"startTime" json:"startTime"`
	EndTime   string `bson:"endTime" json:"endTime"`
}

// Coach is the coaching profile linked to a User account.
//
// AssignedPrograms is a derived index over CoachingProgram.CoachID and is
// maintained by the catalog whenever a program is created or deleted; it must
// never be written directly by API callers.
type Coach struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID           primitive.ObjectID   `bson:"userId" json:"userId"`
	Specializations  []string             `bson:"specializations,omitempty" json:"specializations,omitempty"`
	Experience       int                  `bson:"experience" json:"experience"` // years
	AssignedPrograms []primitive.ObjectID `bson:"assignedPrograms,omitempty" json:"assignedPrograms,omitempty"`
	Availability     []AvailabilitySlot   `bson:"availability,omitempty" json:"availability,omitempty"`
	AssignedSessions int                  `bson:"assignedSessions" json:"assignedSessions"`
	CreatedAt        time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time            `bson:"updatedAt" json:"updatedAt"`
}
