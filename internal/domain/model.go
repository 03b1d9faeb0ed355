package domain

import "time"

type EventType string

const (
	EventBaptism  EventType = "BAPTISM"
	EventMarriage EventType = "MARRIAGE"
	EventDeath    EventType = "DEATH"
)

func (t EventType) Valid() bool {
	switch t {
	case EventBaptism, EventMarriage, EventDeath:
		return true
	}
	return false
}

type Sex string

const (
	SexMale    Sex = "M"
	SexFemale  Sex = "F"
	SexUnknown Sex = "U"
)

// Actor is the acting user as resolved by the auth layer in front of the core.
type Actor struct {
	UserID   uint
	ParishID *uint
}

type Event struct {
	ID          uint      `json:"id"`
	Type        EventType `json:"type"`
	Year        *int      `json:"year"`
	Month       *int      `json:"month"`
	Day         *int      `json:"day"`
	SourceURL   *string   `json:"sourceUrl"`
	Notes       *string   `json:"notes"`
	ParishID    uint      `json:"parishId"`
	ParishName  string    `json:"parishName,omitempty"`
	CreatedByID *uint     `json:"createdById"`
	UpdatedByID *uint     `json:"updatedById"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Individual struct {
	ID                 uint      `json:"id"`
	Name               string    `json:"name"`
	Sex                Sex       `json:"sex"`
	LegitimacyStatusID *uint     `json:"legitimacyStatusId"`
	FamilyOfOriginID   *uint     `json:"familyOfOriginId"`
	ContextParishID    *uint     `json:"contextParishId"`
	CreatedByID        *uint     `json:"createdById"`
	UpdatedByID        *uint     `json:"updatedById"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// ParticipationDetails are the per-occurrence attributes recorded for a person
// in one event.
type ParticipationDetails struct {
	Nickname            *string `json:"nickname"`
	ProfessionID        *uint   `json:"professionId"`
	ProfessionOriginal  *string `json:"professionOriginal"`
	TitleID             *uint   `json:"titleId"`
	OriginID            *uint   `json:"originId"`
	ResidenceID         *uint   `json:"residenceId"`
	DeathPlaceID        *uint   `json:"deathPlaceId"`
	ParticipationRoleID *uint   `json:"participationRoleId"`
	KinshipID           *uint   `json:"kinshipId"`
}

type Participation struct {
	ID           uint         `json:"id"`
	EventID      uint         `json:"eventId"`
	IndividualID uint         `json:"individualId"`
	Role         Role         `json:"role"`
	LineageIndex LineageIndex `json:"lineageIndex"`
	ParticipationDetails
	ContextParishID *uint     `json:"contextParishId"`
	CreatedByID     *uint     `json:"createdById"`
	UpdatedByID     *uint     `json:"updatedById"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Union is either a ParentageUnion or a MarriageUnion.
type Union interface {
	unionKind() UnionKind
}

type UnionKind string

const (
	UnionParentage UnionKind = "parentage"
	UnionMarriage  UnionKind = "marriage"
)

// ParentageUnion links the parents of an individual. Either side may be unknown.
type ParentageUnion struct {
	FatherID *uint
	MotherID *uint
}

func (ParentageUnion) unionKind() UnionKind { return UnionParentage }

// MarriageUnion links the two spouses married in EventID.
type MarriageUnion struct {
	EventID uint
	GroomID uint
	BrideID uint
}

func (MarriageUnion) unionKind() UnionKind { return UnionMarriage }

type Family struct {
	ID              uint
	Union           Union
	ContextParishID *uint
	CreatedByID     *uint
	UpdatedByID     *uint
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (f Family) Kind() UnionKind {
	if f.Union == nil {
		return ""
	}
	return f.Union.unionKind()
}

// Parentage returns the parent pair when f is a parentage union.
func (f Family) Parentage() (ParentageUnion, bool) {
	u, ok := f.Union.(ParentageUnion)
	return u, ok
}

// Marriage returns the spouse pair when f is a marriage union.
func (f Family) Marriage() (MarriageUnion, bool) {
	u, ok := f.Union.(MarriageUnion)
	return u, ok
}

type SortField string

const (
	SortByDate   SortField = "date"
	SortByType   SortField = "type"
	SortByParish SortField = "parish"
	SortByName   SortField = "name"
)

type EventFilter struct {
	Type      *EventType
	ParishID  *uint
	SortBy    SortField
	Ascending bool
	Offset    int
	Limit     int
}

type EventSummary struct {
	ID          uint      `json:"id"`
	Type        EventType `json:"type"`
	Year        *int      `json:"year"`
	Month       *int      `json:"month"`
	Day         *int      `json:"day"`
	ParishID    uint      `json:"parishId"`
	ParishName  string    `json:"parish"`
	MainName    string    `json:"mainName"`
	CreatedByID *uint     `json:"createdById"`
	UpdatedByID *uint     `json:"updatedById"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SubjectName is one principal participant of an event, used for list titles.
type SubjectName struct {
	EventID uint
	Role    Role
	Name    string
}
