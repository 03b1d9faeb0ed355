package application

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/filsalgado/simpleRGN/internal/domain"
	"github.com/pkg/errors"
)

// RecordInput is the create and update payload of one vital record.
type RecordInput struct {
	Event        *EventInput  `json:"event" validate:"required"`
	Subjects     Subjects     `json:"subjects"`
	Participants []PersonNode `json:"participants" validate:"dive"`
}

type EventInput struct {
	Type      domain.EventType `json:"type" validate:"omitempty,oneof=BAPTISM MARRIAGE DEATH"`
	Year      LooseInt         `json:"year"`
	Month     LooseInt         `json:"month"`
	Day       LooseInt         `json:"day"`
	SourceURL string           `json:"sourceUrl"`
	Notes     string           `json:"notes"`
	ParishID  OptionalID       `json:"parishId"`
}

type Subjects struct {
	Primary   *PersonNode `json:"primary"`
	Secondary *PersonNode `json:"secondary,omitempty"`
}

// PersonNode is one person of a submitted tree. Father and Mother nest to any
// depth.
type PersonNode struct {
	ID                  NodeID      `json:"id"`
	Role                string      `json:"role,omitempty"`
	Name                string      `json:"name"`
	Sex                 string      `json:"sex,omitempty" validate:"omitempty,oneof=M F U"`
	Nickname            string      `json:"nickname,omitempty"`
	ProfessionID        OptionalID  `json:"professionId"`
	ProfessionOriginal  string      `json:"professionOriginal,omitempty"`
	TitleID             OptionalID  `json:"titleId"`
	Origin              OptionalID  `json:"origin"`
	Residence           OptionalID  `json:"residence"`
	DeathPlace          OptionalID  `json:"deathPlace"`
	LegitimacyStatusID  OptionalID  `json:"legitimacyStatusId"`
	ParticipationRoleID OptionalID  `json:"participationRoleId"`
	KinshipID           OptionalID  `json:"kinshipId"`
	LineageIndex        string      `json:"lineageIndex,omitempty" validate:"omitempty,lineage"`
	Father              *PersonNode `json:"father,omitempty"`
	Mother              *PersonNode `json:"mother,omitempty"`
}

func (n *PersonNode) named() bool {
	return n != nil && strings.TrimSpace(n.Name) != ""
}

func (n *PersonNode) sexFor(role domain.Role) domain.Sex {
	switch s := domain.Sex(strings.ToUpper(strings.TrimSpace(n.Sex))); s {
	case domain.SexMale, domain.SexFemale, domain.SexUnknown:
		return s
	}
	return role.ImpliedSex()
}

func (n *PersonNode) details() domain.ParticipationDetails {
	return domain.ParticipationDetails{
		Nickname:            nullableString(n.Nickname),
		ProfessionID:        n.ProfessionID.Ptr(),
		ProfessionOriginal:  nullableString(n.ProfessionOriginal),
		TitleID:             n.TitleID.Ptr(),
		OriginID:            n.Origin.Ptr(),
		ResidenceID:         n.Residence.Ptr(),
		DeathPlaceID:        n.DeathPlace.Ptr(),
		ParticipationRoleID: n.ParticipationRoleID.Ptr(),
		KinshipID:           n.KinshipID.Ptr(),
	}
}

// NodeID identifies a submitted person: either an existing individual id or
// the "new" sentinel. Clients also send "temp_<n>" placeholders, empty
// strings, zero and null for people not stored yet.
type NodeID struct {
	id uint
}

const newSentinel = "new"

func ExistingID(id uint) NodeID { return NodeID{id: id} }

func (n NodeID) Existing() (uint, bool) {
	return n.id, n.id != 0
}

func (n NodeID) MarshalJSON() ([]byte, error) {
	if n.id == 0 {
		return json.Marshal(newSentinel)
	}
	return json.Marshal(n.id)
}

func (n *NodeID) UnmarshalJSON(data []byte) error {
	raw, isString, err := scalar(data)
	if err != nil {
		return errors.Wrap(domain.ErrInvalidInput, "person id")
	}
	n.id = 0
	if raw == "" || raw == newSentinel || (isString && strings.HasPrefix(raw, "temp_")) {
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return errors.Wrapf(domain.ErrInvalidInput, "person id %q", raw)
	}
	n.id = uint(v)
	return nil
}

// OptionalID is a nullable reference id. Numbers, numeric strings, empty
// strings and null are accepted.
type OptionalID struct {
	Value uint
	Valid bool
}

func SomeID(v uint) OptionalID { return OptionalID{Value: v, Valid: true} }

func optionalFrom(v *uint) OptionalID {
	if v == nil {
		return OptionalID{}
	}
	return SomeID(*v)
}

func (o OptionalID) Ptr() *uint {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

func (o OptionalID) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func (o *OptionalID) UnmarshalJSON(data []byte) error {
	raw, _, err := scalar(data)
	if err != nil {
		return errors.Wrap(domain.ErrInvalidInput, "reference id")
	}
	*o = OptionalID{}
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return errors.Wrapf(domain.ErrInvalidInput, "reference id %q", raw)
	}
	if v != 0 {
		*o = SomeID(uint(v))
	}
	return nil
}

// LooseInt is a date part. Anything that is not a non-zero integer reads as
// absent rather than failing the request.
type LooseInt struct {
	Value int
	Valid bool
}

func looseFrom(v *int) LooseInt {
	if v == nil {
		return LooseInt{}
	}
	return LooseInt{Value: *v, Valid: true}
}

func (l LooseInt) Ptr() *int {
	if !l.Valid {
		return nil
	}
	v := l.Value
	return &v
}

func (l LooseInt) MarshalJSON() ([]byte, error) {
	if !l.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(l.Value)
}

func (l *LooseInt) UnmarshalJSON(data []byte) error {
	*l = LooseInt{}
	raw, _, err := scalar(data)
	if err != nil || raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v == 0 {
		return nil
	}
	*l = LooseInt{Value: v, Valid: true}
	return nil
}

// scalar unwraps a JSON number, string or null into its text form.
func scalar(data []byte) (string, bool, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", false, nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", true, err
		}
		return strings.TrimSpace(s), true, nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return "", false, err
	}
	return num.String(), false, nil
}

func nullableString(v string) *string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
