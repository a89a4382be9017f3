package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category describes the target audience level of a coaching program.
type Category string

const (
	CategoryBeginner     Category = "beginner"
	CategoryIntermediate Category = "intermediate"
	CategoryAdvanced     Category = "advanced"
	CategoryProfessional Category = "professional"
)

// IsValid reports whether the category is one of the recognized values.
func (c Category) IsValid() bool {
	switch c {
	case CategoryBeginner, CategoryIntermediate, CategoryAdvanced, CategoryProfessional:
		return true
	}
	return false
}

// Specialization describes the cricket discipline a program focuses on.
type Specialization string

const (
	SpecializationBatting       Specialization = "batting"
	SpecializationBowling       Specialization = "bowling"
	SpecializationFielding      Specialization = "fielding"
	SpecializationWicketKeeping Specialization = "wicket-keeping"
	SpecializationAllRounder    Specialization = "all-rounder"
	SpecializationFitness       Specialization = "fitness"
	SpecializationMental        Specialization = "mental-coaching"
)

func (s Specialization) IsValid() bool {
	switch s {
	case SpecializationBatting, SpecializationBowling, SpecializationFielding,
		SpecializationWicketKeeping, SpecializationAllRounder,
		SpecializationFitness, SpecializationMental:
		return true
	}
	return false
}

// Difficulty describes how demanding the program is.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// MaterialType classifies an attached learning material.
type MaterialType string

const (
	MaterialTypeVideo    MaterialType = "video"
	MaterialTypeDocument MaterialType = "document"
	MaterialTypeImage    MaterialType = "image"
	MaterialTypeOther    MaterialType = "other"
)

func (t MaterialType) IsValid() bool {
	switch t {
	case MaterialTypeVideo, MaterialTypeDocument, MaterialTypeImage, MaterialTypeOther:
		return true
	}
	return false
}

// Duration is the declared length of a program.
type Duration struct {
	Weeks           int `bson:"weeks" json:"weeks"`
	SessionsPerWeek int `bson:"sessionsPerWeek" json:"sessionsPerWeek"`
}

// Material is a metadata record describing a learning resource attached to a
// program. It has no identity outside its parent program; the actual file (if
// any) lives in object storage and is referenced by URL only.
type Material struct {
	Title       string       `bson:"title" json:"title"`
	Type        MaterialType `bson:"type" json:"type"`
	Description string       `bson:"description,omitempty" json:"description,omitempty"`
	URL         string       `bson:"url,omitempty" json:"url,omitempty"`
}

// CoachingProgram is a structured course offered by a coach to students.
// CurrentEnrollments never exceeds MaxParticipants; the repository's seat
// reservation primitive is the only writer of that counter.
type CoachingProgram struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title              string             `bson:"title" json:"title"`
	Description        string             `bson:"description" json:"description"`
	Category           Category           `bson:"category" json:"category"`
	Specialization     Specialization     `bson:"specialization" json:"specialization"`
	Difficulty         Difficulty         `bson:"difficulty" json:"difficulty"`
	CoachID            primitive.ObjectID `bson:"coach" json:"coachId"`
	Duration           Duration           `bson:"duration" json:"duration"`
	TotalSessions      int                `bson:"totalSessions" json:"totalSessions"`
	MaxParticipants    int                `bson:"maxParticipants" json:"maxParticipants"`
	CurrentEnrollments int                `bson:"currentEnrollments" json:"currentEnrollments"`
	Price              float64            `bson:"price" json:"price"`
	StartDate          time.Time          `bson:"startDate" json:"startDate"`
	EndDate            time.Time          `bson:"endDate" json:"endDate"`
	Benefits           []string           `bson:"benefits,omitempty" json:"benefits,omitempty"`
	Requirements       []string           `bson:"requirements,omitempty" json:"requirements,omitempty"`
	Materials          []Material         `bson:"materials,omitempty" json:"materials,omitempty"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SeatsRemaining returns how many seats are still open.
func (p *CoachingProgram) SeatsRemaining() int {
	remaining := p.MaxParticipants - p.CurrentEnrollments
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsFull reports whether the program has no open seats left.
func (p *CoachingProgram) IsFull() bool {
	return p.CurrentEnrollments >= p.MaxParticipants
}
