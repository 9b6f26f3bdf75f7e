package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Participant is an event attendee referenced by the raffle. The raffle only
// ever mutates IsRaffleEligible; everything else belongs to event management.
type Participant struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	OrgID            primitive.ObjectID `bson:"orgId" json:"orgId"`
	EventID          primitive.ObjectID `bson:"eventId" json:"eventId"`
	Name             string             `bson:"name" json:"name"`
	DepartmentID     primitive.ObjectID `bson:"departmentId,omitempty" json:"departmentId,omitempty"`
	DepartmentName   string             `bson:"departmentName,omitempty" json:"departmentName,omitempty"`
	IsRaffleEligible bool               `bson:"isRaffleEligible" json:"isRaffleEligible"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// HasDepartment reports whether the participant carries a department
// reference. Participants without one are never excluded by the
// no-duplicate-department rule.
func (p *Participant) HasDepartment() bool {
	return !p.DepartmentID.IsZero()
}

// View returns the broadcast/response shape for this participant.
func (p *Participant) View() WinnerView {
	return WinnerView{ID: p.ID, Name: p.Name, Department: p.DepartmentName}
}

// TeamMember ties a participant to a team for one event. Team membership is
// per event, so the team filter only honours memberships of the raffle's own
// event.
type TeamMember struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	TeamID        primitive.ObjectID `bson:"teamId" json:"teamId"`
	EventID       primitive.ObjectID `bson:"eventId" json:"eventId"`
	ParticipantID primitive.ObjectID `bson:"participantId" json:"participantId"`
}
