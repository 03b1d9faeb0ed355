package application

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/filsalgado/simpleRGN/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 200
)

type RecordService struct {
	tx       domain.Transactor
	log      logrus.FieldLogger
	metrics  *Metrics
	validate *validator.Validate
}

func NewRecordService(tx domain.Transactor, log logrus.FieldLogger, metrics *Metrics) *RecordService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RecordService{
		tx:       tx,
		log:      log.WithField("component", "records"),
		metrics:  metrics,
		validate: newValidator(),
	}
}

// CreateRecord stores a new event with its subject trees and participants in
// one transaction and returns the event id.
func (s *RecordService) CreateRecord(ctx context.Context, actor domain.Actor, in RecordInput) (id uint, err error) {
	started := time.Now()
	defer func() { s.metrics.observe("create", started, err) }()

	if err := s.validateInput(in, true); err != nil {
		return 0, err
	}
	parishID := in.Event.ParishID.Ptr()
	if parishID == nil {
		parishID = actor.ParishID
	}
	if parishID == nil {
		return 0, errors.Wrap(domain.ErrInvalidInput, "event parishId is required")
	}

	var stats writeStats
	err = s.tx.RunInTx(ctx, func(store domain.RecordStore) error {
		event, err := store.CreateEvent(ctx, domain.Event{
			Type:        in.Event.Type,
			Year:        in.Event.Year.Ptr(),
			Month:       in.Event.Month.Ptr(),
			Day:         in.Event.Day.Ptr(),
			SourceURL:   nullableString(in.Event.SourceURL),
			Notes:       nullableString(in.Event.Notes),
			ParishID:    *parishID,
			CreatedByID: &actor.UserID,
			UpdatedByID: &actor.UserID,
		})
		if err != nil {
			return errors.Wrap(err, "create event")
		}
		id = event.ID

		w := newPersonWriter(store, actor, event.ID)
		if err := writeSubjects(ctx, w, event.Type, in.Subjects); err != nil {
			return err
		}
		if err := w.writeParticipants(ctx, in.Participants); err != nil {
			return err
		}
		stats = w.stats
		return nil
	})
	if err != nil {
		return 0, &domain.TxError{Op: "create record", Err: err}
	}

	s.metrics.written(stats)
	s.log.WithFields(logrus.Fields{
		"event_id":        id,
		"actor_id":        actor.UserID,
		"persons_created": stats.created,
		"persons_updated": stats.updated,
	}).Info("record created")
	return id, nil
}

// UpdateRecord rewrites an existing event, its subject trees and its
// participant set in one transaction.
func (s *RecordService) UpdateRecord(ctx context.Context, actor domain.Actor, eventID uint, in RecordInput) (err error) {
	started := time.Now()
	defer func() { s.metrics.observe("update", started, err) }()

	if eventID == 0 {
		return errors.Wrap(domain.ErrInvalidInput, "event id is required")
	}
	if err := s.validateInput(in, false); err != nil {
		return err
	}

	var stats writeStats
	err = s.tx.RunInTx(ctx, func(store domain.RecordStore) error {
		event, err := store.GetEvent(ctx, eventID)
		if err != nil {
			return err
		}

		previousType := event.Type
		if in.Event.Type != "" {
			event.Type = in.Event.Type
		}
		if parishID := in.Event.ParishID.Ptr(); parishID != nil {
			event.ParishID = *parishID
		}
		event.Year = in.Event.Year.Ptr()
		event.Month = in.Event.Month.Ptr()
		event.Day = in.Event.Day.Ptr()
		event.SourceURL = nullableString(in.Event.SourceURL)
		event.Notes = nullableString(in.Event.Notes)
		event.UpdatedByID = &actor.UserID
		if event, err = store.UpdateEvent(ctx, event); err != nil {
			return errors.Wrap(err, "update event")
		}

		w := newPersonWriter(store, actor, event.ID)
		if err := w.reroot(ctx, previousType, event.Type); err != nil {
			return err
		}
		if err := writeSubjects(ctx, w, event.Type, in.Subjects); err != nil {
			return err
		}
		// A payload without a participants list leaves the free roles alone;
		// an explicit empty list clears them.
		if in.Participants != nil {
			if err := w.reconcile(ctx, in.Participants); err != nil {
				return err
			}
		}
		stats = w.stats
		return nil
	})
	if err != nil {
		return &domain.TxError{Op: "update record", Err: err}
	}

	s.metrics.written(stats)
	s.log.WithFields(logrus.Fields{
		"event_id":             eventID,
		"actor_id":             actor.UserID,
		"persons_created":      stats.created,
		"persons_updated":      stats.updated,
		"participants_removed": stats.removed,
	}).Info("record updated")
	return nil
}

// writeSubjects walks the primary tree and, for marriages, the secondary one,
// then keeps the marriage union in step with the two spouses.
func writeSubjects(ctx context.Context, w *personWriter, eventType domain.EventType, subjects Subjects) error {
	marriage := eventType == domain.EventMarriage

	primaryRole := domain.RoleSubject
	if marriage {
		primaryRole = domain.RoleGroom
	}
	primaryID, err := w.upsert(ctx, subjects.Primary, primaryRole, domain.RootLineage(false), []domain.Role{primaryRole})
	if err != nil {
		return errors.Wrap(err, "primary subject")
	}

	var secondaryID uint
	if marriage {
		secondaryID, err = w.upsert(ctx, subjects.Secondary, domain.RoleBride, domain.RootLineage(true), []domain.Role{domain.RoleBride})
		if err != nil {
			return errors.Wrap(err, "secondary subject")
		}
	}

	return w.linkMarriage(ctx, marriage, primaryID, secondaryID)
}

// reroot carries the stored subject trees across a change between marriage
// and any other event type. The primary root is retagged between SUBJECT and
// GROOM; outside a marriage the bride's line belongs to no tree and is removed.
func (w *personWriter) reroot(ctx context.Context, from, to domain.EventType) error {
	wasMarriage, isMarriage := from == domain.EventMarriage, to == domain.EventMarriage
	if wasMarriage == isMarriage {
		return nil
	}
	oldRoot, newRoot := domain.RoleSubject, domain.RoleGroom
	if wasMarriage {
		oldRoot, newRoot = domain.RoleGroom, domain.RoleSubject
	}

	current, err := w.store.ListParticipations(ctx, w.eventID)
	if err != nil {
		return errors.Wrap(err, "list participations")
	}
	for _, p := range current {
		switch {
		case p.Role == oldRoot && p.LineageIndex == domain.PrimaryLineage:
			if err := w.store.RetagParticipation(ctx, p.ID, newRoot); err != nil {
				return errors.Wrapf(err, "retag participation %d", p.ID)
			}
		case wasMarriage && p.Role.IsStructural() && strings.HasPrefix(string(p.LineageIndex), string(domain.SecondaryLineage)):
			if err := w.store.DeleteParticipation(ctx, p.ID); err != nil {
				return errors.Wrapf(err, "remove participation %d", p.ID)
			}
			w.stats.removed++
		}
	}
	return nil
}

func (s *RecordService) GetRecord(ctx context.Context, eventID uint) (record Record, err error) {
	started := time.Now()
	defer func() { s.metrics.observe("get", started, err) }()

	err = s.tx.RunInTx(ctx, func(store domain.RecordStore) error {
		event, err := store.GetEvent(ctx, eventID)
		if err != nil {
			return err
		}
		tree, err := loadTree(ctx, store, eventID)
		if err != nil {
			return err
		}
		record.Event = event
		record.Subjects, record.Participants = tree.build(event.Type)
		record.Participations = tree.participations
		return nil
	})
	if err != nil {
		return Record{}, &domain.TxError{Op: "get record", Err: err}
	}
	return record, nil
}

type RecordFilter struct {
	Type      string
	ParishID  *uint
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

type RecordSummary struct {
	domain.EventSummary
	Date string `json:"date"`
}

type PageMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

type RecordPage struct {
	Data []RecordSummary `json:"data"`
	Meta PageMeta        `json:"meta"`
}

func (s *RecordService) ListRecords(ctx context.Context, in RecordFilter) (page RecordPage, err error) {
	started := time.Now()
	defer func() { s.metrics.observe("list", started, err) }()

	filter := domain.EventFilter{
		ParishID:  in.ParishID,
		SortBy:    domain.SortByDate,
		Ascending: strings.EqualFold(in.SortOrder, "asc"),
	}
	if in.Type != "" {
		t := domain.EventType(strings.ToUpper(in.Type))
		if !t.Valid() {
			return RecordPage{}, errors.Wrapf(domain.ErrInvalidInput, "unknown event type %q", in.Type)
		}
		filter.Type = &t
	}
	switch sort := domain.SortField(strings.ToLower(in.SortBy)); sort {
	case domain.SortByType, domain.SortByParish, domain.SortByName:
		filter.SortBy = sort
	}

	pageNo := in.Page
	if pageNo <= 0 {
		pageNo = 1
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	filter.Limit = limit
	filter.Offset = (pageNo - 1) * limit

	var (
		rows  []domain.EventSummary
		total int64
		names []domain.SubjectName
	)
	err = s.tx.RunInTx(ctx, func(store domain.RecordStore) error {
		var err error
		if rows, total, err = store.ListEvents(ctx, filter); err != nil {
			return err
		}
		ids := make([]uint, 0, len(rows))
		for _, r := range rows {
			ids = append(ids, r.ID)
		}
		names, err = store.ListSubjectNames(ctx, ids)
		return err
	})
	if err != nil {
		return RecordPage{}, &domain.TxError{Op: "list records", Err: err}
	}

	page.Data = make([]RecordSummary, 0, len(rows))
	for _, r := range rows {
		r.MainName = displayName(r.Type, r.ID, names)
		page.Data = append(page.Data, RecordSummary{EventSummary: r, Date: formatDate(r.Year, r.Month, r.Day)})
	}
	page.Meta = PageMeta{
		Total:      total,
		Page:       pageNo,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}
	return page, nil
}

func (s *RecordService) DeleteRecord(ctx context.Context, eventID uint) (err error) {
	started := time.Now()
	defer func() { s.metrics.observe("delete", started, err) }()

	err = s.tx.RunInTx(ctx, func(store domain.RecordStore) error {
		return store.DeleteEvent(ctx, eventID)
	})
	if err != nil {
		return &domain.TxError{Op: "delete record", Err: err}
	}
	s.log.WithField("event_id", eventID).Info("record deleted")
	return nil
}

// displayName titles a record by its subjects: "Groom & Bride" for
// marriages, the subject otherwise, "?" for any missing name.
func displayName(eventType domain.EventType, eventID uint, names []domain.SubjectName) string {
	lookup := func(role domain.Role) string {
		for _, n := range names {
			if n.EventID == eventID && n.Role == role && n.Name != "" {
				return n.Name
			}
		}
		return "?"
	}
	if eventType == domain.EventMarriage {
		return lookup(domain.RoleGroom) + " & " + lookup(domain.RoleBride)
	}
	return lookup(domain.RoleSubject)
}

func formatDate(year, month, day *int) string {
	part := func(v *int, width int) string {
		if v == nil {
			return "?"
		}
		return fmt.Sprintf("%0*d", width, *v)
	}
	return part(year, 1) + "-" + part(month, 2) + "-" + part(day, 2)
}

func isInvalid(err error) bool  { return errors.Is(err, domain.ErrInvalidInput) }
func isNotFound(err error) bool { return errors.Is(err, domain.ErrNotFound) }
