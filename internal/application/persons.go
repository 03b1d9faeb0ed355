package application

import (
	"context"
	"strings"

	"github.com/filsalgado/simpleRGN/internal/domain"
	"github.com/pkg/errors"
)

type writeStats struct {
	created int
	updated int
	removed int
}

// personWriter writes person trees of one event inside one transaction.
type personWriter struct {
	store   domain.RecordStore
	actor   domain.Actor
	eventID uint
	stats   writeStats
}

func newPersonWriter(store domain.RecordStore, actor domain.Actor, eventID uint) *personWriter {
	return &personWriter{store: store, actor: actor, eventID: eventID}
}

// upsert stores node with the given role and lineage, then its named parents.
// It returns 0 when node is unnamed; such a node prunes its whole subtree.
func (w *personWriter) upsert(ctx context.Context, node *PersonNode, role domain.Role, lineage domain.LineageIndex, path []domain.Role) (uint, error) {
	if !node.named() {
		return 0, nil
	}

	individualID, isNew, err := w.writeIndividual(ctx, node, role)
	if err != nil {
		return 0, err
	}
	if err := w.writeParticipation(ctx, node, individualID, isNew, role, lineage); err != nil {
		return 0, err
	}

	fatherPath := extend(path, domain.RoleFather)
	fatherID, err := w.upsert(ctx, node.Father, domain.AncestorRole(fatherPath), lineage.Child(domain.RoleFather), fatherPath)
	if err != nil {
		return 0, errors.Wrapf(err, "father of %q", node.Name)
	}
	motherPath := extend(path, domain.RoleMother)
	motherID, err := w.upsert(ctx, node.Mother, domain.AncestorRole(motherPath), lineage.Child(domain.RoleMother), motherPath)
	if err != nil {
		return 0, errors.Wrapf(err, "mother of %q", node.Name)
	}

	if err := w.linkParents(ctx, individualID, isNew, idPtr(fatherID), idPtr(motherID)); err != nil {
		return 0, err
	}
	return individualID, nil
}

func (w *personWriter) writeIndividual(ctx context.Context, node *PersonNode, role domain.Role) (uint, bool, error) {
	name := strings.TrimSpace(node.Name)
	if id, ok := node.ID.Existing(); ok {
		err := w.store.UpdateIndividual(ctx, domain.Individual{
			ID:                 id,
			Name:               name,
			Sex:                node.sexFor(role),
			LegitimacyStatusID: node.LegitimacyStatusID.Ptr(),
			UpdatedByID:        w.actorID(),
		})
		if err != nil {
			return 0, false, errors.Wrapf(err, "update individual %d", id)
		}
		w.stats.updated++
		return id, false, nil
	}

	created, err := w.store.CreateIndividual(ctx, domain.Individual{
		Name:               name,
		Sex:                node.sexFor(role),
		LegitimacyStatusID: node.LegitimacyStatusID.Ptr(),
		ContextParishID:    w.actor.ParishID,
		CreatedByID:        w.actorID(),
		UpdatedByID:        w.actorID(),
	})
	if err != nil {
		return 0, false, errors.Wrapf(err, "create individual %q", name)
	}
	w.stats.created++
	return created.ID, true, nil
}

// writeParticipation keys existing participations by (event, individual,
// role). Lineage is not part of the key, so a repeated pair overwrites it.
func (w *personWriter) writeParticipation(ctx context.Context, node *PersonNode, individualID uint, isNew bool, role domain.Role, lineage domain.LineageIndex) error {
	value := domain.Participation{
		EventID:              w.eventID,
		IndividualID:         individualID,
		Role:                 role,
		LineageIndex:         lineage,
		ParticipationDetails: node.details(),
		ContextParishID:      w.actor.ParishID,
		CreatedByID:          w.actorID(),
		UpdatedByID:          w.actorID(),
	}

	if !isNew {
		existing, found, err := w.store.FindParticipation(ctx, w.eventID, individualID, role)
		if err != nil {
			return errors.Wrapf(err, "find participation of individual %d", individualID)
		}
		if found {
			value.ID = existing.ID
			if err := w.store.UpdateParticipation(ctx, value); err != nil {
				return errors.Wrapf(err, "update participation %d", existing.ID)
			}
			return nil
		}
	}

	if _, err := w.store.CreateParticipation(ctx, value); err != nil {
		return errors.Wrapf(err, "create %s participation of individual %d", role, individualID)
	}
	return nil
}

// reconcile removes free-role participations whose individual is missing from
// participants, then upserts every participant. Structural participations are
// owned by the subject trees and never touched here.
func (w *personWriter) reconcile(ctx context.Context, participants []PersonNode) error {
	current, err := w.store.ListParticipationsExcluding(ctx, w.eventID, domain.StructuralRoles())
	if err != nil {
		return errors.Wrap(err, "list participants")
	}

	submitted := make(map[uint]struct{}, len(participants))
	for _, p := range participants {
		if id, ok := p.ID.Existing(); ok {
			submitted[id] = struct{}{}
		}
	}

	for _, p := range current {
		if _, keep := submitted[p.IndividualID]; keep {
			continue
		}
		if err := w.store.DeleteParticipation(ctx, p.ID); err != nil {
			return errors.Wrapf(err, "remove participation %d", p.ID)
		}
		w.stats.removed++
	}

	return w.writeParticipants(ctx, participants)
}

func (w *personWriter) writeParticipants(ctx context.Context, participants []PersonNode) error {
	for i := range participants {
		node := &participants[i]
		role := participantRole(node.Role)
		lineage := domain.LineageIndex(node.LineageIndex)
		if lineage == "" {
			lineage = domain.PrimaryLineage
		}
		if _, err := w.upsert(ctx, node, role, lineage, []domain.Role{domain.RoleOther}); err != nil {
			return errors.Wrapf(err, "participant %d", i)
		}
	}
	return nil
}

// participantRole keeps a caller-chosen free role; anything else is OTHER.
func participantRole(raw string) domain.Role {
	role, ok := domain.ParseRole(raw)
	if !ok || role.IsStructural() {
		return domain.RoleOther
	}
	return role
}

func (w *personWriter) actorID() *uint {
	id := w.actor.UserID
	return &id
}

func extend(path []domain.Role, hop domain.Role) []domain.Role {
	out := make([]domain.Role, len(path), len(path)+1)
	copy(out, path)
	return append(out, hop)
}

func idPtr(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}
