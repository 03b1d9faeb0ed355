package gormstore

import "time"

type ParishModel struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ParishModel) TableName() string { return "parishes" }

type EventModel struct {
	ID          uint   `gorm:"primaryKey"`
	Type        string `gorm:"not null;index"`
	Year        *int
	Month       *int
	Day         *int
	SourceURL   *string `gorm:"column:source_url"`
	Notes       *string
	ParishID    uint `gorm:"not null;index"`
	CreatedByID *uint
	UpdatedByID *uint
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (EventModel) TableName() string { return "events" }

type IndividualModel struct {
	ID                 uint   `gorm:"primaryKey"`
	Name               string `gorm:"not null;index"`
	Sex                string `gorm:"not null;default:'U'"`
	LegitimacyStatusID *uint
	FamilyOfOriginID   *uint `gorm:"index"`
	ContextParishID    *uint
	CreatedByID        *uint
	UpdatedByID        *uint
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (IndividualModel) TableName() string { return "individuals" }

type ParticipationModel struct {
	ID                  uint   `gorm:"primaryKey"`
	EventID             uint   `gorm:"not null;index:idx_participations_event_individual_role"`
	IndividualID        uint   `gorm:"not null;index:idx_participations_event_individual_role"`
	Role                string `gorm:"not null;index:idx_participations_event_individual_role"`
	LineageIndex        string `gorm:"not null;default:'1'"`
	Nickname            *string
	ProfessionID        *uint
	ProfessionOriginal  *string
	TitleID             *uint
	OriginID            *uint
	ResidenceID         *uint
	DeathPlaceID        *uint
	ParticipationRoleID *uint
	KinshipID           *uint
	ContextParishID     *uint
	CreatedByID         *uint
	UpdatedByID         *uint
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (ParticipationModel) TableName() string { return "participations" }

type FamilyModel struct {
	ID              uint   `gorm:"primaryKey"`
	Kind            string `gorm:"not null"`
	FatherID        *uint
	MotherID        *uint
	MarriageEventID *uint `gorm:"index"`
	ContextParishID *uint
	CreatedByID     *uint
	UpdatedByID     *uint
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (FamilyModel) TableName() string { return "families" }
