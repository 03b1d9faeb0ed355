package application

import (
	"context"

	"github.com/filsalgado/simpleRGN/internal/domain"
	"github.com/pkg/errors"
)

// linkParents attaches the written parents to the individual's family of
// origin. Parents that were not submitted never unlink stored ones.
func (w *personWriter) linkParents(ctx context.Context, individualID uint, isNew bool, fatherID, motherID *uint) error {
	if fatherID == nil && motherID == nil {
		return nil
	}

	if !isNew {
		linked, err := w.mergeFamilyOfOrigin(ctx, individualID, fatherID, motherID)
		if err != nil || linked {
			return err
		}
	}

	family, err := w.store.CreateFamily(ctx, domain.Family{
		Union:           domain.ParentageUnion{FatherID: fatherID, MotherID: motherID},
		ContextParishID: w.actor.ParishID,
		CreatedByID:     w.actorID(),
		UpdatedByID:     w.actorID(),
	})
	if err != nil {
		return errors.Wrapf(err, "create family of origin of individual %d", individualID)
	}
	if err := w.store.SetFamilyOfOrigin(ctx, individualID, family.ID); err != nil {
		return errors.Wrapf(err, "attach family %d", family.ID)
	}
	return nil
}

// mergeFamilyOfOrigin fills the submitted parent slots of an existing
// family of origin. It reports false when there is no such family.
func (w *personWriter) mergeFamilyOfOrigin(ctx context.Context, individualID uint, fatherID, motherID *uint) (bool, error) {
	individual, err := w.store.GetIndividual(ctx, individualID)
	if err != nil {
		return false, err
	}
	if individual.FamilyOfOriginID == nil {
		return false, nil
	}

	familyID := *individual.FamilyOfOriginID
	families, err := w.store.GetFamilies(ctx, []uint{familyID})
	if err != nil {
		return false, err
	}
	parents, ok := families[familyID].Parentage()
	if !ok {
		return false, nil
	}

	merged := parents
	if fatherID != nil {
		merged.FatherID = fatherID
	}
	if motherID != nil {
		merged.MotherID = motherID
	}
	if sameID(merged.FatherID, parents.FatherID) && sameID(merged.MotherID, parents.MotherID) {
		return true, nil
	}

	err = w.store.UpdateFamily(ctx, domain.Family{ID: familyID, Union: merged, UpdatedByID: w.actorID()})
	if err != nil {
		return false, errors.Wrapf(err, "update family %d", familyID)
	}
	return true, nil
}

// linkMarriage keeps exactly one marriage union for the event while it is a
// marriage with both spouses named, and none otherwise.
func (w *personWriter) linkMarriage(ctx context.Context, marriage bool, groomID, brideID uint) error {
	existing, found, err := w.store.FindMarriage(ctx, w.eventID)
	if err != nil {
		return errors.Wrap(err, "find marriage union")
	}

	if !marriage || groomID == 0 || brideID == 0 {
		if found {
			return errors.Wrap(w.store.DeleteFamily(ctx, existing.ID), "drop marriage union")
		}
		return nil
	}

	union := domain.MarriageUnion{EventID: w.eventID, GroomID: groomID, BrideID: brideID}
	if found {
		if current, _ := existing.Marriage(); current == union {
			return nil
		}
		err := w.store.UpdateFamily(ctx, domain.Family{ID: existing.ID, Union: union, UpdatedByID: w.actorID()})
		return errors.Wrap(err, "retarget marriage union")
	}

	_, err = w.store.CreateFamily(ctx, domain.Family{
		Union:           union,
		ContextParishID: w.actor.ParishID,
		CreatedByID:     w.actorID(),
		UpdatedByID:     w.actorID(),
	})
	return errors.Wrap(err, "create marriage union")
}

func sameID(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
