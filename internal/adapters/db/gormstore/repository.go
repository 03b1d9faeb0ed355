package gormstore

import (
	"context"
	"fmt"
	"time"

	"github.com/filsalgado/simpleRGN/internal/domain"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type RecordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// RunInTx hands fn a repository bound to a fresh transaction.
func (r *RecordRepository) RunInTx(ctx context.Context, fn func(store domain.RecordStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&RecordRepository{db: tx})
	})
}

func notFound(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrapf(domain.ErrNotFound, "%s %d", what, id)
	}
	return err
}

func (r *RecordRepository) CreateEvent(ctx context.Context, value domain.Event) (domain.Event, error) {
	m := EventModel{
		Type:        string(value.Type),
		Year:        value.Year,
		Month:       value.Month,
		Day:         value.Day,
		SourceURL:   value.SourceURL,
		Notes:       value.Notes,
		ParishID:    value.ParishID,
		CreatedByID: value.CreatedByID,
		UpdatedByID: value.UpdatedByID,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Event{}, err
	}
	return toEvent(m, ""), nil
}

func (r *RecordRepository) UpdateEvent(ctx context.Context, value domain.Event) (domain.Event, error) {
	res := r.db.WithContext(ctx).Model(&EventModel{}).Where("id = ?", value.ID).Updates(map[string]any{
		"type":          string(value.Type),
		"year":          value.Year,
		"month":         value.Month,
		"day":           value.Day,
		"source_url":    value.SourceURL,
		"notes":         value.Notes,
		"parish_id":     value.ParishID,
		"updated_by_id": value.UpdatedByID,
	})
	if res.Error != nil {
		return domain.Event{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Event{}, errors.Wrapf(domain.ErrNotFound, "event %d", value.ID)
	}
	return r.GetEvent(ctx, value.ID)
}

func (r *RecordRepository) GetEvent(ctx context.Context, id uint) (domain.Event, error) {
	type row struct {
		EventModel
		ParishName string
	}

	var m row
	if err := r.db.WithContext(ctx).Raw(`
SELECT e.*, COALESCE(p.name, '') AS parish_name
FROM events e
LEFT JOIN parishes p ON p.id = e.parish_id
WHERE e.id = ?
`, id).Scan(&m).Error; err != nil {
		return domain.Event{}, err
	}
	if m.ID == 0 {
		return domain.Event{}, errors.Wrapf(domain.ErrNotFound, "event %d", id)
	}
	return toEvent(m.EventModel, m.ParishName), nil
}

func (r *RecordRepository) DeleteEvent(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&EventModel{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(domain.ErrNotFound, "event %d", id)
	}
	return nil
}

const mainNameExpr = `COALESCE((
    SELECT i.name
    FROM participations sp
    JOIN individuals i ON i.id = sp.individual_id
    WHERE sp.event_id = e.id AND sp.role IN ('SUBJECT', 'GROOM')
    ORDER BY sp.id ASC
    LIMIT 1
), '')`

func (r *RecordRepository) ListEvents(ctx context.Context, filter domain.EventFilter) ([]domain.EventSummary, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Table("events AS e").Joins("LEFT JOIN parishes p ON p.id = e.parish_id")
		if filter.Type != nil {
			db = db.Where("e.type = ?", string(*filter.Type))
		}
		if filter.ParishID != nil {
			db = db.Where("e.parish_id = ?", *filter.ParishID)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	type row struct {
		ID          uint
		Type        string
		Year        *int
		Month       *int
		Day         *int
		ParishID    uint
		ParishName  string
		MainName    string
		CreatedByID *uint
		UpdatedByID *uint
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	rows := make([]row, 0)
	err := r.db.WithContext(ctx).Scopes(scope).
		Select(`e.id, e.type, e.year, e.month, e.day, e.parish_id,
COALESCE(p.name, '') AS parish_name,
` + mainNameExpr + ` AS main_name,
e.created_by_id, e.updated_by_id, e.created_at, e.updated_at`).
		Order(orderClause(filter)).
		Offset(filter.Offset).
		Limit(filter.Limit).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	result := make([]domain.EventSummary, 0, len(rows))
	for _, m := range rows {
		result = append(result, domain.EventSummary{
			ID:          m.ID,
			Type:        domain.EventType(m.Type),
			Year:        m.Year,
			Month:       m.Month,
			Day:         m.Day,
			ParishID:    m.ParishID,
			ParishName:  m.ParishName,
			MainName:    m.MainName,
			CreatedByID: m.CreatedByID,
			UpdatedByID: m.UpdatedByID,
			CreatedAt:   m.CreatedAt,
			UpdatedAt:   m.UpdatedAt,
		})
	}
	return result, total, nil
}

func orderClause(filter domain.EventFilter) string {
	dir := "DESC"
	if filter.Ascending {
		dir = "ASC"
	}
	switch filter.SortBy {
	case domain.SortByType:
		return fmt.Sprintf("e.type %s, e.id %s", dir, dir)
	case domain.SortByParish:
		return fmt.Sprintf("parish_name %s, e.id %s", dir, dir)
	case domain.SortByName:
		return fmt.Sprintf("main_name %s, e.id %s", dir, dir)
	default:
		return fmt.Sprintf("e.year %s, e.month %s, e.day %s, e.id %s", dir, dir, dir, dir)
	}
}

func (r *RecordRepository) ListSubjectNames(ctx context.Context, eventIDs []uint) ([]domain.SubjectName, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}
	type row struct {
		EventID uint
		Role    string
		Name    string
	}
	rows := make([]row, 0)
	err := r.db.WithContext(ctx).Raw(`
SELECT p.event_id, p.role, i.name
FROM participations p
JOIN individuals i ON i.id = p.individual_id
WHERE p.event_id IN ? AND p.role IN ('SUBJECT', 'GROOM', 'BRIDE')
ORDER BY p.id ASC
`, eventIDs).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]domain.SubjectName, 0, len(rows))
	for _, m := range rows {
		result = append(result, domain.SubjectName{EventID: m.EventID, Role: domain.Role(m.Role), Name: m.Name})
	}
	return result, nil
}

func (r *RecordRepository) CreateIndividual(ctx context.Context, value domain.Individual) (domain.Individual, error) {
	m := IndividualModel{
		Name:               value.Name,
		Sex:                string(value.Sex),
		LegitimacyStatusID: value.LegitimacyStatusID,
		FamilyOfOriginID:   value.FamilyOfOriginID,
		ContextParishID:    value.ContextParishID,
		CreatedByID:        value.CreatedByID,
		UpdatedByID:        value.UpdatedByID,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Individual{}, err
	}
	return toIndividual(m), nil
}

// UpdateIndividual overwrites the core fields. A nil legitimacy status
// clears the stored one.
func (r *RecordRepository) UpdateIndividual(ctx context.Context, value domain.Individual) error {
	res := r.db.WithContext(ctx).Model(&IndividualModel{}).Where("id = ?", value.ID).Updates(map[string]any{
		"name":                 value.Name,
		"sex":                  string(value.Sex),
		"legitimacy_status_id": value.LegitimacyStatusID,
		"updated_by_id":        value.UpdatedByID,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(domain.ErrNotFound, "individual %d", value.ID)
	}
	return nil
}

func (r *RecordRepository) GetIndividual(ctx context.Context, id uint) (domain.Individual, error) {
	var m IndividualModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return domain.Individual{}, notFound(err, "individual", id)
	}
	return toIndividual(m), nil
}

func (r *RecordRepository) GetIndividuals(ctx context.Context, ids []uint) (map[uint]domain.Individual, error) {
	result := make(map[uint]domain.Individual, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	rows := make([]IndividualModel, 0, len(ids))
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, m := range rows {
		result[m.ID] = toIndividual(m)
	}
	return result, nil
}

func (r *RecordRepository) SetFamilyOfOrigin(ctx context.Context, individualID, familyID uint) error {
	res := r.db.WithContext(ctx).Model(&IndividualModel{}).Where("id = ?", individualID).Update("family_of_origin_id", familyID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(domain.ErrNotFound, "individual %d", individualID)
	}
	return nil
}

func (r *RecordRepository) CreateParticipation(ctx context.Context, value domain.Participation) (domain.Participation, error) {
	m := ParticipationModel{
		EventID:             value.EventID,
		IndividualID:        value.IndividualID,
		Role:                string(value.Role),
		LineageIndex:        string(value.LineageIndex),
		Nickname:            value.Nickname,
		ProfessionID:        value.ProfessionID,
		ProfessionOriginal:  value.ProfessionOriginal,
		TitleID:             value.TitleID,
		OriginID:            value.OriginID,
		ResidenceID:         value.ResidenceID,
		DeathPlaceID:        value.DeathPlaceID,
		ParticipationRoleID: value.ParticipationRoleID,
		KinshipID:           value.KinshipID,
		ContextParishID:     value.ContextParishID,
		CreatedByID:         value.CreatedByID,
		UpdatedByID:         value.UpdatedByID,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Participation{}, err
	}
	return toParticipation(m), nil
}

// UpdateParticipation rewrites the lineage and descriptive fields of an
// existing participation. Event, individual and role are its identity and
// stay as stored.
func (r *RecordRepository) UpdateParticipation(ctx context.Context, value domain.Participation) error {
	res := r.db.WithContext(ctx).Model(&ParticipationModel{}).Where("id = ?", value.ID).Updates(map[string]any{
		"lineage_index":         string(value.LineageIndex),
		"nickname":              value.Nickname,
		"profession_id":         value.ProfessionID,
		"profession_original":   value.ProfessionOriginal,
		"title_id":              value.TitleID,
		"origin_id":             value.OriginID,
		"residence_id":          value.ResidenceID,
		"death_place_id":        value.DeathPlaceID,
		"participation_role_id": value.ParticipationRoleID,
		"kinship_id":            value.KinshipID,
		"updated_by_id":         value.UpdatedByID,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(domain.ErrNotFound, "participation %d", value.ID)
	}
	return nil
}

// RetagParticipation changes the role of one participation, used when an
// event is re-rooted under a different subject role.
func (r *RecordRepository) RetagParticipation(ctx context.Context, id uint, role domain.Role) error {
	res := r.db.WithContext(ctx).Model(&ParticipationModel{}).Where("id = ?", id).Update("role", string(role))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(domain.ErrNotFound, "participation %d", id)
	}
	return nil
}

func (r *RecordRepository) FindParticipation(ctx context.Context, eventID, individualID uint, role domain.Role) (domain.Participation, bool, error) {
	rows := make([]ParticipationModel, 0, 1)
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND individual_id = ? AND role = ?", eventID, individualID, string(role)).
		Order("id ASC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return domain.Participation{}, false, err
	}
	if len(rows) == 0 {
		return domain.Participation{}, false, nil
	}
	return toParticipation(rows[0]), true, nil
}

func (r *RecordRepository) ListParticipations(ctx context.Context, eventID uint) ([]domain.Participation, error) {
	return r.listParticipations(r.db.WithContext(ctx).Where("event_id = ?", eventID))
}

func (r *RecordRepository) ListParticipationsExcluding(ctx context.Context, eventID uint, roles []domain.Role) ([]domain.Participation, error) {
	q := r.db.WithContext(ctx).Where("event_id = ?", eventID)
	if len(roles) > 0 {
		tags := make([]string, 0, len(roles))
		for _, role := range roles {
			tags = append(tags, string(role))
		}
		q = q.Where("role NOT IN ?", tags)
	}
	return r.listParticipations(q)
}

func (r *RecordRepository) listParticipations(q *gorm.DB) ([]domain.Participation, error) {
	rows := make([]ParticipationModel, 0)
	if err := q.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Participation, 0, len(rows))
	for _, m := range rows {
		result = append(result, toParticipation(m))
	}
	return result, nil
}

func (r *RecordRepository) DeleteParticipation(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&ParticipationModel{}, id).Error
}

func (r *RecordRepository) CreateFamily(ctx context.Context, value domain.Family) (domain.Family, error) {
	m := FamilyModel{
		ContextParishID: value.ContextParishID,
		CreatedByID:     value.CreatedByID,
		UpdatedByID:     value.UpdatedByID,
	}
	if err := applyUnion(&m, value.Union); err != nil {
		return domain.Family{}, err
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Family{}, err
	}
	return toFamily(m), nil
}

func (r *RecordRepository) UpdateFamily(ctx context.Context, value domain.Family) error {
	var m FamilyModel
	if err := applyUnion(&m, value.Union); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Model(&FamilyModel{}).Where("id = ?", value.ID).Updates(map[string]any{
		"kind":              m.Kind,
		"father_id":         m.FatherID,
		"mother_id":         m.MotherID,
		"marriage_event_id": m.MarriageEventID,
		"updated_by_id":     value.UpdatedByID,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(domain.ErrNotFound, "family %d", value.ID)
	}
	return nil
}

func (r *RecordRepository) DeleteFamily(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&FamilyModel{}, id).Error
}

func (r *RecordRepository) GetFamilies(ctx context.Context, ids []uint) (map[uint]domain.Family, error) {
	result := make(map[uint]domain.Family, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	rows := make([]FamilyModel, 0, len(ids))
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, m := range rows {
		result[m.ID] = toFamily(m)
	}
	return result, nil
}

func (r *RecordRepository) FindMarriage(ctx context.Context, eventID uint) (domain.Family, bool, error) {
	rows := make([]FamilyModel, 0, 1)
	err := r.db.WithContext(ctx).
		Where("kind = ? AND marriage_event_id = ?", string(domain.UnionMarriage), eventID).
		Order("id ASC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return domain.Family{}, false, err
	}
	if len(rows) == 0 {
		return domain.Family{}, false, nil
	}
	return toFamily(rows[0]), true, nil
}

func applyUnion(m *FamilyModel, union domain.Union) error {
	switch u := union.(type) {
	case domain.ParentageUnion:
		m.Kind = string(domain.UnionParentage)
		m.FatherID = u.FatherID
		m.MotherID = u.MotherID
		m.MarriageEventID = nil
	case domain.MarriageUnion:
		groom, bride, event := u.GroomID, u.BrideID, u.EventID
		m.Kind = string(domain.UnionMarriage)
		m.FatherID = &groom
		m.MotherID = &bride
		m.MarriageEventID = &event
	default:
		return errors.Wrapf(domain.ErrInvalidInput, "unknown family union %T", union)
	}
	return nil
}

func toEvent(m EventModel, parishName string) domain.Event {
	return domain.Event{
		ID:          m.ID,
		Type:        domain.EventType(m.Type),
		Year:        m.Year,
		Month:       m.Month,
		Day:         m.Day,
		SourceURL:   m.SourceURL,
		Notes:       m.Notes,
		ParishID:    m.ParishID,
		ParishName:  parishName,
		CreatedByID: m.CreatedByID,
		UpdatedByID: m.UpdatedByID,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toIndividual(m IndividualModel) domain.Individual {
	return domain.Individual{
		ID:                 m.ID,
		Name:               m.Name,
		Sex:                domain.Sex(m.Sex),
		LegitimacyStatusID: m.LegitimacyStatusID,
		FamilyOfOriginID:   m.FamilyOfOriginID,
		ContextParishID:    m.ContextParishID,
		CreatedByID:        m.CreatedByID,
		UpdatedByID:        m.UpdatedByID,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func toParticipation(m ParticipationModel) domain.Participation {
	return domain.Participation{
		ID:           m.ID,
		EventID:      m.EventID,
		IndividualID: m.IndividualID,
		Role:         domain.Role(m.Role),
		LineageIndex: domain.LineageIndex(m.LineageIndex),
		ParticipationDetails: domain.ParticipationDetails{
			Nickname:            m.Nickname,
			ProfessionID:        m.ProfessionID,
			ProfessionOriginal:  m.ProfessionOriginal,
			TitleID:             m.TitleID,
			OriginID:            m.OriginID,
			ResidenceID:         m.ResidenceID,
			DeathPlaceID:        m.DeathPlaceID,
			ParticipationRoleID: m.ParticipationRoleID,
			KinshipID:           m.KinshipID,
		},
		ContextParishID: m.ContextParishID,
		CreatedByID:     m.CreatedByID,
		UpdatedByID:     m.UpdatedByID,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func toFamily(m FamilyModel) domain.Family {
	f := domain.Family{
		ID:              m.ID,
		ContextParishID: m.ContextParishID,
		CreatedByID:     m.CreatedByID,
		UpdatedByID:     m.UpdatedByID,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.Kind == string(domain.UnionMarriage) && m.MarriageEventID != nil {
		f.Union = domain.MarriageUnion{
			EventID: *m.MarriageEventID,
			GroomID: derefUint(m.FatherID),
			BrideID: derefUint(m.MotherID),
		}
		return f
	}
	f.Union = domain.ParentageUnion{FatherID: m.FatherID, MotherID: m.MotherID}
	return f
}

func derefUint(v *uint) uint {
	if v == nil {
		return 0
	}
	return *v
}
