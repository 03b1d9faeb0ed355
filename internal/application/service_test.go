package application

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"testing"

	"github.com/filsalgado/simpleRGN/internal/adapters/db/gormstore"
	"github.com/filsalgado/simpleRGN/internal/domain"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	service  *RecordService
	metrics  *Metrics
	parishID uint
	actor    domain.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := gormstore.Open(gormstore.Options{Driver: gormstore.DriverSQLite, DSN: filepath.Join(t.TempDir(), "records_test.db")})
	require.NoError(t, err, "open db")
	require.NoError(t, gormstore.RunMigrations(ctx, db), "run migrations")
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	parish := gormstore.ParishModel{Name: "Santa Maria"}
	require.NoError(t, db.Create(&parish).Error)

	log := logrus.New()
	log.SetOutput(io.Discard)
	metrics := NewMetrics(prometheus.NewRegistry())

	return &fixture{
		db:       db,
		service:  NewRecordService(gormstore.NewRecordRepository(db), log, metrics),
		metrics:  metrics,
		parishID: parish.ID,
		actor:    domain.Actor{UserID: 7},
	}
}

func (f *fixture) count(t *testing.T, table string, where ...any) int64 {
	t.Helper()
	var n int64
	q := f.db.Table(table)
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func (f *fixture) baptism() *EventInput {
	return &EventInput{Type: domain.EventBaptism, Year: LooseInt{Value: 1801, Valid: true}, ParishID: SomeID(f.parishID)}
}

func person(name string) *PersonNode {
	return &PersonNode{Name: name}
}

func participationsByName(t *testing.T, f *fixture, eventID uint) map[string]domain.Participation {
	t.Helper()
	record, err := f.service.GetRecord(context.Background(), eventID)
	require.NoError(t, err)

	names := make(map[uint]string)
	var walk func(n *PersonNode)
	walk = func(n *PersonNode) {
		if n == nil {
			return
		}
		if id, ok := n.ID.Existing(); ok {
			names[id] = n.Name
		}
		walk(n.Father)
		walk(n.Mother)
	}
	walk(record.Subjects.Primary)
	walk(record.Subjects.Secondary)
	for i := range record.Participants {
		walk(&record.Participants[i])
	}

	out := make(map[string]domain.Participation)
	for _, p := range record.Participations {
		out[names[p.IndividualID]] = p
	}
	return out
}

func TestCreateRecordPrunesUnnamedNodes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	father := person("Pedro")
	father.Father = &PersonNode{Name: " ", Father: person("Ghost")}
	primary := person("Ana")
	primary.Father = father
	primary.Mother = &PersonNode{Name: ""}

	id, err := f.service.CreateRecord(ctx, f.actor, RecordInput{Event: f.baptism(), Subjects: Subjects{Primary: primary}})
	require.NoError(t, err)

	assert.EqualValues(t, 2, f.count(t, "individuals"))
	assert.EqualValues(t, 2, f.count(t, "participations", "event_id = ?", id))
	assert.EqualValues(t, 1, f.count(t, "families", "kind = ?", "parentage"))

	record, err := f.service.GetRecord(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, record.Subjects.Primary)
	assert.Equal(t, "Ana", record.Subjects.Primary.Name)
	require.NotNil(t, record.Subjects.Primary.Father)
	assert.Equal(t, "Pedro", record.Subjects.Primary.Father.Name)
	assert.Equal(t, "1.1", record.Subjects.Primary.Father.LineageIndex)
	assert.Nil(t, record.Subjects.Primary.Mother)
	assert.Nil(t, record.Subjects.Primary.Father.Father)
	assert.Nil(t, record.Subjects.Secondary)
}

func TestCreateRecordThreeGenerations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	father := person("Pedro")
	father.Father = person("Manuel")
	mother := person("Rosa")
	mother.Mother = person("Joana")
	primary := person("Ana")
	primary.Father = father
	primary.Mother = mother

	id, err := f.service.CreateRecord(ctx, f.actor, RecordInput{Event: f.baptism(), Subjects: Subjects{Primary: primary}})
	require.NoError(t, err)

	got := participationsByName(t, f, id)
	require.Len(t, got, 5)
	assert.Equal(t, domain.RoleSubject, got["Ana"].Role)
	assert.Equal(t, domain.LineageIndex("1"), got["Ana"].LineageIndex)
	assert.Equal(t, domain.RoleFather, got["Pedro"].Role)
	assert.Equal(t, domain.LineageIndex("1.1"), got["Pedro"].LineageIndex)
	assert.Equal(t, domain.RoleGrandfatherPaternal, got["Manuel"].Role)
	assert.Equal(t, domain.LineageIndex("1.1.1"), got["Manuel"].LineageIndex)
	assert.Equal(t, domain.RoleMother, got["Rosa"].Role)
	assert.Equal(t, domain.LineageIndex("1.2"), got["Rosa"].LineageIndex)
	assert.Equal(t, domain.RoleGrandmotherMaternal, got["Joana"].Role)
	assert.Equal(t, domain.LineageIndex("1.2.2"), got["Joana"].LineageIndex)

	var manuel gormstore.IndividualModel
	require.NoError(t, f.db.Where("name = ?", "Manuel").First(&manuel).Error)
	assert.Equal(t, "M", manuel.Sex)

	record, err := f.service.GetRecord(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, record.Subjects.Primary.Father.Father)
	assert.Equal(t, "Manuel", record.Subjects.Primary.Father.Father.Name)
	assert.Equal(t, "1.1.1", record.Subjects.Primary.Father.Father.LineageIndex)
	require.NotNil(t, record.Subjects.Primary.Mother.Mother)
	assert.Equal(t, "Joana", record.Subjects.Primary.Mother.Mother.Name)
}

func TestCreateMarriageLinksSpousesOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	groom := person("João")
	groom.Father = person("António")
	bride := person("Maria")
	bride.Father = person("José")
	in := RecordInput{
		Event:    &EventInput{Type: domain.EventMarriage, ParishID: SomeID(f.parishID)},
		Subjects: Subjects{Primary: groom, Secondary: bride},
	}

	id, err := f.service.CreateRecord(ctx, f.actor, in)
	require.NoError(t, err)

	got := participationsByName(t, f, id)
	assert.Equal(t, domain.RoleGroom, got["João"].Role)
	assert.Equal(t, domain.RoleBride, got["Maria"].Role)
	assert.Equal(t, domain.LineageIndex("2"), got["Maria"].LineageIndex)
	assert.Equal(t, domain.RoleFather, got["José"].Role)
	assert.Equal(t, domain.LineageIndex("2.1"), got["José"].LineageIndex)

	var union gormstore.FamilyModel
	require.NoError(t, f.db.Where("kind = ? AND marriage_event_id = ?", "marriage", id).First(&union).Error)
	require.NotNil(t, union.FatherID)
	require.NotNil(t, union.MotherID)
	assert.Equal(t, got["João"].IndividualID, *union.FatherID)
	assert.Equal(t, got["Maria"].IndividualID, *union.MotherID)

	record, err := f.service.GetRecord(ctx, id)
	require.NoError(t, err)
	require.NoError(t, f.service.UpdateRecord(ctx, f.actor, id, roundTrip(t, record)))
	assert.EqualValues(t, 1, f.count(t, "families", "kind = ? AND marriage_event_id = ?", "marriage", id))

	record, err = f.service.GetRecord(ctx, id)
	require.NoError(t, err)
	update := roundTrip(t, record)
	update.Subjects.Secondary.Name = ""
	require.NoError(t, f.service.UpdateRecord(ctx, f.actor, id, update))
	assert.EqualValues(t, 0, f.count(t, "families", "kind = ?", "marriage"))
}

// roundTrip turns a read-back record into an update payload the way a client
// would, through JSON.
func roundTrip(t *testing.T, record Record) RecordInput {
	t.Helper()
	raw, err := json.Marshal(record)
	require.NoError(t, err)
	var in RecordInput
	require.NoError(t, json.Unmarshal(raw, &in))
	return in
}

func TestUpdateWithReadBackIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	father := person("Pedro")
	father.Father = person("Manuel")
	father.Mother = person("Luísa")
	primary := person("Ana")
	primary.Father = father
	primary.Mother = person("Rosa")
	in := RecordInput{
		Event:    f.baptism(),
		Subjects: Subjects{Primary: primary},
		Participants: []PersonNode{
			{Name: "Padre Bento", Role: "PRIEST"},
			{Name: "Francisco", Role: "GODFATHER", Father: person("Tomé")},
		},
	}
	id, err := f.service.CreateRecord(ctx, f.actor, in)
	require.NoError(t, err)

	counts := func() [3]int64 {
		return [3]int64{f.count(t, "individuals"), f.count(t, "participations"), f.count(t, "families")}
	}
	before := counts()
	assert.Equal(t, [3]int64{8, 8, 3}, before)

	for i := 0; i < 2; i++ {
		record, err := f.service.GetRecord(ctx, id)
		require.NoError(t, err)
		require.Len(t, record.Participants, 2)
		require.NoError(t, f.service.UpdateRecord(ctx, f.actor, id, roundTrip(t, record)))
		assert.Equal(t, before, counts(), "pass %d", i)
	}

	record, err := f.service.GetRecord(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, record.Participants[1].Father)
	assert.Equal(t, "Tomé", record.Participants[1].Father.Name)
	assert.Equal(t, "1.1", record.Participants[1].Father.LineageIndex)
	require.NotNil(t, record.Event.Year)
	assert.Equal(t, 1801, *record.Event.Year)
	assert.Equal(t, float64(3), testutil.ToFloat64(f.metrics.operations.WithLabelValues("get", "ok")))
	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.operations.WithLabelValues("update", "ok")))
}

func TestUpdateDuplicateIndividualRoleLastLineageWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id, err := f.service.CreateRecord(ctx, f.actor, RecordInput{
		Event:        f.baptism(),
		Subjects:     Subjects{Primary: person("Ana")},
		Participants: []PersonNode{{Name: "Padre Bento", Role: "PRIEST"}},
	})
	require.NoError(t, err)
	record, err := f.service.GetRecord(ctx, id)
	require.NoError(t, err)
	priestID, ok := record.Participants[0].ID.Existing()
	require.True(t, ok)

	update := roundTrip(t, record)
	update.Participants = []PersonNode{
		{ID: ExistingID(priestID), Name: "Padre Bento", Role: "PRIEST", LineageIndex: "1"},
		{ID: ExistingID(priestID), Name: "Padre Bento", Role: "PRIEST", LineageIndex: "2"},
	}
	require.NoError(t, f.service.UpdateRecord(ctx, f.actor, id, update))

	var rows []gormstore.ParticipationModel
	require.NoError(t, f.db.Where("event_id = ? AND individual_id = ?", id, priestID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "2", rows[0].LineageIndex)
}

func TestUpdateReconcilesFreeRoleParticipants(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	primary := person("Ana")
	primary.Father = person("Pedro")
	id, err := f.service.CreateRecord(ctx, f.actor, RecordInput{
		Event:    f.baptism(),
		Subjects: Subjects{Primary: primary},
		Participants: []PersonNode{
			{Name: "Padre Bento", Role: "PRIEST"},
			{Name: "Teresa", Role: "GODMOTHER"},
		},
	})
	require.NoError(t, err)

	record, err := f.service.GetRecord(ctx, id)
	require.NoError(t, err)
	update := roundTrip(t, record)
	update.Subjects.Primary.Father = nil
	update.Participants = update.Participants[:1]
	update.Participants = append(update.Participants, PersonNode{ID: NodeID{}, Name: "Clara", Role: "witness"})
	require.NoError(t, f.service.UpdateRecord(ctx, f.actor, id, update))

	got := participationsByName(t, f, id)
	assert.Contains(t, got, "Padre Bento")
	assert.Contains(t, got, "Pedro", "structural participations are kept")
	assert.NotContains(t, got, "Teresa")
	assert.Equal(t, domain.RoleOther, got["Clara"].Role)
	assert.EqualValues(t, 1, f.count(t, "individuals", "name = ?", "Teresa"), "individuals are never deleted")
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.participantsRemoved))
}

func TestUpdateWithoutParticipantsKeepsFreeRoles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id, err := f.service.CreateRecord(ctx, f.actor, RecordInput{
		Event:    f.baptism(),
		Subjects: Subjects{Primary: person("Ana")},
		Participants: []PersonNode{
			{Name: "Padre Bento", Role: "PRIEST"},
			{Name: "Teresa", Role: "GODMOTHER"},
		},
	})
	require.NoError(t, err)
	record, err := f.service.GetRecord(ctx, id)
	require.NoError(t, err)
	anaID, ok := record.Subjects.Primary.ID.Existing()
	require.True(t, ok)

	freeRoles := func() int64 {
		return f.count(t, "participations", "event_id = ? AND role IN ?", id, []string{"PRIEST", "GODMOTHER"})
	}
	decode := func(raw string) RecordInput {
		var in RecordInput
		require.NoError(t, json.Unmarshal([]byte(raw), &in))
		return in
	}

	in := decode(fmt.Sprintf(`{"event":{"type":"BAPTISM","year":1802},"subjects":{"primary":{"id":%d,"name":"Ana"}}}`, anaID))
	require.Nil(t, in.Participants)
	require.NoError(t, f.service.UpdateRecord(ctx, f.actor, id, in))
	assert.EqualValues(t, 2, freeRoles(), "a payload without participants leaves them in place")

	in = decode(fmt.Sprintf(`{"event":{"type":"BAPTISM"},"subjects":{"primary":{"id":%d,"name":"Ana"}},"participants":[]}`, anaID))
	require.NoError(t, f.service.UpdateRecord(ctx, f.actor, id, in))
	assert.EqualValues(t, 0, freeRoles(), "an explicit empty list clears them")
	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.participantsRemoved))
}

func TestUpdateRemovingParticipantKeepsTheirAncestorRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	primary := person("Ana")
	primary.Father = person("Pedro")
	id, err := f.service.CreateRecord(ctx, f.actor, RecordInput{Event: f.baptism(), Subjects: Subjects{Primary: primary}})
	require.NoError(t, err)

	record, err := f.service.GetRecord(ctx, id)
	require.NoError(t, err)
	pedroID, ok := record.Subjects.Primary.Father.ID.Existing()
	require.True(t, ok)
	anaID, ok := record.Subjects.Primary.ID.Existing()
	require.True(t, ok)

	update := roundTrip(t, record)
	update.Participants = []PersonNode{{ID: ExistingID(pedroID), Name: "Pedro", Role: "GODFATHER"}}
	require.NoError(t, f.service.UpdateRecord(ctx, f.actor, id, update))

	roles := func() map[domain.Role]string {
		var rows []gormstore.ParticipationModel
		require.NoError(t, f.db.Where("event_id = ? AND individual_id = ?", id, pedroID).Find(&rows).Error)
		out := make(map[domain.Role]string, len(rows))
		for _, r := range rows {
			out[domain.Role(r.Role)] = r.LineageIndex
		}
		return out
	}
	assert.Equal(t, map[domain.Role]string{domain.RoleFather: "1.1", domain.RoleGodfather: "1"}, roles())

	record, err = f.service.GetRecord(ctx, id)
	require.NoError(t, err)
	update = roundTrip(t, record)
	update.Participants = []PersonNode{}
	require.NoError(t, f.service.UpdateRecord(ctx, f.actor, id, update))

	assert.Equal(t, map[domain.Role]string{domain.RoleFather: "1.1"}, roles())

	var ana gormstore.IndividualModel
	require.NoError(t, f.db.First(&ana, anaID).Error)
	require.NotNil(t, ana.FamilyOfOriginID)
	var family gormstore.FamilyModel
	require.NoError(t, f.db.First(&family, *ana.FamilyOfOriginID).Error)
	require.NotNil(t, family.FatherID)
	assert.Equal(t, pedroID, *family.FatherID)
}

func TestUpdateChangingEventTypeReroots(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	primary := person("Ana")
	primary.Father = person("Pedro")
	id, err := f.service.CreateRecord(ctx, f.actor, RecordInput{Event: f.baptism(), Subjects: Subjects{Primary: primary}})
	require.NoError(t, err)
	roleCount := func(role domain.Role) int64 {
		return f.count(t, "participations", "event_id = ? AND role = ?", id, string(role))
	}

	record, err := f.service.GetRecord(ctx, id)
	require.NoError(t, err)
	update := roundTrip(t, record)
	update.Event.Type = domain.EventMarriage
	update.Subjects.Secondary = person("Maria")
	require.NoError(t, f.service.UpdateRecord(ctx, f.actor, id, update))

	assert.EqualValues(t, 0, roleCount(domain.RoleSubject))
	assert.EqualValues(t, 1, roleCount(domain.RoleGroom))
	assert.EqualValues(t, 1, roleCount(domain.RoleBride))
	assert.EqualValues(t, 3, f.count(t, "participations", "event_id = ?", id))
	assert.EqualValues(t, 1, f.count(t, "families", "kind = ? AND marriage_event_id = ?", "marriage", id))

	page, err := f.service.ListRecords(ctx, RecordFilter{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Ana & Maria", page.Data[0].MainName)

	record, err = f.service.GetRecord(ctx, id)
	require.NoError(t, err)
	update = roundTrip(t, record)
	update.Event.Type = domain.EventBaptism
	require.NoError(t, f.service.UpdateRecord(ctx, f.actor, id, update))

	got := participationsByName(t, f, id)
	assert.Equal(t, domain.RoleSubject, got["Ana"].Role)
	assert.Equal(t, domain.RoleFather, got["Pedro"].Role)
	assert.NotContains(t, got, "Maria")
	assert.EqualValues(t, 0, roleCount(domain.RoleGroom))
	assert.EqualValues(t, 0, roleCount(domain.RoleBride))
	assert.EqualValues(t, 0, f.count(t, "families", "kind = ?", "marriage"))
}

func TestCreateRecordRollsBackOnConstraintFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	primary := person("Ana")
	primary.Father = person("Pedro")
	_, err := f.service.CreateRecord(ctx, f.actor, RecordInput{
		Event:        f.baptism(),
		Subjects:     Subjects{Primary: primary},
		Participants: []PersonNode{{Name: "Padre Bento", Role: "PRIEST", ProfessionID: SomeID(999)}},
	})
	require.Error(t, err)

	var txErr *domain.TxError
	require.True(t, errors.As(err, &txErr))
	assert.Equal(t, "create record", txErr.Op)
	assert.False(t, errors.Is(err, domain.ErrInvalidInput))

	assert.EqualValues(t, 0, f.count(t, "events"))
	assert.EqualValues(t, 0, f.count(t, "individuals"))
	assert.EqualValues(t, 0, f.count(t, "participations"))
	assert.EqualValues(t, 0, f.count(t, "families"))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.operations.WithLabelValues("create", "error")))
}

func TestCreateRecordRejectsInvalidInputBeforeWriting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.service.CreateRecord(ctx, f.actor, RecordInput{Event: f.baptism(), Subjects: Subjects{Primary: person("")}})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = f.service.CreateRecord(ctx, f.actor, RecordInput{
		Event:    &EventInput{Type: domain.EventDeath},
		Subjects: Subjects{Primary: person("Ana")},
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "parish is required without an actor parish")

	assert.EqualValues(t, 0, f.count(t, "events"))
	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.operations.WithLabelValues("create", "invalid")))
}

func TestCreateRecordFallsBackToActorParish(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	actor := domain.Actor{UserID: 3, ParishID: &f.parishID}
	id, err := f.service.CreateRecord(ctx, actor, RecordInput{
		Event:    &EventInput{Type: domain.EventDeath},
		Subjects: Subjects{Primary: person("Ana")},
	})
	require.NoError(t, err)

	record, err := f.service.GetRecord(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, f.parishID, record.Event.ParishID)
	assert.Equal(t, "Santa Maria", record.Event.ParishName)
	require.NotNil(t, record.Event.CreatedByID)
	assert.EqualValues(t, 3, *record.Event.CreatedByID)
}

func TestMissingRecordIsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := f.service.UpdateRecord(ctx, f.actor, 404, RecordInput{Event: &EventInput{}, Subjects: Subjects{Primary: person("Ana")}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	var txErr *domain.TxError
	assert.True(t, errors.As(err, &txErr))

	_, err = f.service.GetRecord(ctx, 404)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, errors.Is(f.service.DeleteRecord(ctx, 404), domain.ErrNotFound))
	assert.EqualValues(t, 0, f.count(t, "individuals"))
}

func TestListAndDeleteRecords(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	create := func(in RecordInput) uint {
		id, err := f.service.CreateRecord(ctx, f.actor, in)
		require.NoError(t, err)
		return id
	}
	baptismID := create(RecordInput{Event: f.baptism(), Subjects: Subjects{Primary: person("Ana")}})
	marriageID := create(RecordInput{
		Event:    &EventInput{Type: domain.EventMarriage, Year: LooseInt{Value: 1820, Valid: true}, Month: LooseInt{Value: 5, Valid: true}, ParishID: SomeID(f.parishID)},
		Subjects: Subjects{Primary: person("João"), Secondary: person("Maria")},
	})
	create(RecordInput{Event: &EventInput{Type: domain.EventDeath, ParishID: SomeID(f.parishID)}, Subjects: Subjects{Primary: person("Bento")}})

	page, err := f.service.ListRecords(ctx, RecordFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Meta.Total)
	assert.Equal(t, 1, page.Meta.Page)
	assert.Equal(t, 20, page.Meta.Limit)
	assert.Equal(t, 1, page.Meta.TotalPages)

	page, err = f.service.ListRecords(ctx, RecordFilter{Type: "marriage"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, marriageID, page.Data[0].ID)
	assert.Equal(t, "João & Maria", page.Data[0].MainName)
	assert.Equal(t, "1820-05-?", page.Data[0].Date)
	assert.Equal(t, "Santa Maria", page.Data[0].ParishName)

	page, err = f.service.ListRecords(ctx, RecordFilter{Limit: 2, Page: 2, SortBy: "type", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Meta.TotalPages)
	require.Len(t, page.Data, 1)
	assert.Equal(t, domain.EventMarriage, page.Data[0].Type)

	_, err = f.service.ListRecords(ctx, RecordFilter{Type: "BURIAL"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	require.NoError(t, f.service.DeleteRecord(ctx, baptismID))
	require.NoError(t, f.service.DeleteRecord(ctx, marriageID))
	assert.EqualValues(t, 1, f.count(t, "events"))
	assert.EqualValues(t, 1, f.count(t, "participations"))
	assert.EqualValues(t, 0, f.count(t, "families", "kind = ?", "marriage"))
	assert.EqualValues(t, 4, f.count(t, "individuals"))
}
