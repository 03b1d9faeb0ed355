package application

import (
	"context"

	"github.com/filsalgado/simpleRGN/internal/domain"
	"github.com/pkg/errors"
)

// Record is a stored vital record with its person trees rebuilt. It decodes
// as a RecordInput, so a client can edit it and send it back as an update.
type Record struct {
	Event          domain.Event           `json:"event"`
	Subjects       Subjects               `json:"subjects"`
	Participants   []PersonNode           `json:"participants"`
	Participations []domain.Participation `json:"participations"`
}

// treeBuilder rebuilds subject and participant trees of one event from its
// participations and the families of origin of the people involved. Only
// ancestors that take part in the event are included.
type treeBuilder struct {
	participations []domain.Participation
	byIndividual   map[uint][]int
	used           map[uint]bool
	individuals    map[uint]domain.Individual
	families       map[uint]domain.Family
}

func loadTree(ctx context.Context, store domain.RecordStore, eventID uint) (*treeBuilder, error) {
	participations, err := store.ListParticipations(ctx, eventID)
	if err != nil {
		return nil, errors.Wrap(err, "list participations")
	}

	b := &treeBuilder{
		participations: participations,
		byIndividual:   make(map[uint][]int),
		used:           make(map[uint]bool),
	}
	ids := make([]uint, 0, len(participations))
	for i, p := range participations {
		if _, seen := b.byIndividual[p.IndividualID]; !seen {
			ids = append(ids, p.IndividualID)
		}
		b.byIndividual[p.IndividualID] = append(b.byIndividual[p.IndividualID], i)
	}

	if b.individuals, err = store.GetIndividuals(ctx, ids); err != nil {
		return nil, errors.Wrap(err, "load individuals")
	}

	familyIDs := make([]uint, 0, len(b.individuals))
	for _, ind := range b.individuals {
		if ind.FamilyOfOriginID != nil {
			familyIDs = append(familyIDs, *ind.FamilyOfOriginID)
		}
	}
	if b.families, err = store.GetFamilies(ctx, familyIDs); err != nil {
		return nil, errors.Wrap(err, "load families")
	}
	return b, nil
}

func (b *treeBuilder) build(eventType domain.EventType) (Subjects, []PersonNode) {
	var subjects Subjects
	if eventType == domain.EventMarriage {
		subjects.Primary = b.root(domain.RoleGroom, domain.PrimaryLineage)
		subjects.Secondary = b.root(domain.RoleBride, domain.SecondaryLineage)
	} else {
		subjects.Primary = b.root(domain.RoleSubject, domain.PrimaryLineage)
	}

	participants := make([]PersonNode, 0)
	for i, p := range b.participations {
		if b.used[p.ID] || p.Role.IsStructural() {
			continue
		}
		b.used[p.ID] = true
		node := b.node(p.IndividualID, b.participations[i], []domain.Role{domain.RoleOther}, map[uint]bool{})
		participants = append(participants, *node)
	}
	return subjects, participants
}

func (b *treeBuilder) root(role domain.Role, lineage domain.LineageIndex) *PersonNode {
	for _, p := range b.participations {
		if p.Role != role || b.used[p.ID] {
			continue
		}
		b.used[p.ID] = true
		p.LineageIndex = lineage
		return b.node(p.IndividualID, p, []domain.Role{role}, map[uint]bool{})
	}
	return nil
}

func (b *treeBuilder) node(individualID uint, p domain.Participation, path []domain.Role, visiting map[uint]bool) *PersonNode {
	ind := b.individuals[individualID]
	node := &PersonNode{
		ID:                  ExistingID(individualID),
		Role:                string(p.Role),
		Name:                ind.Name,
		Sex:                 string(ind.Sex),
		Nickname:            derefString(p.Nickname),
		ProfessionID:        optionalFrom(p.ProfessionID),
		ProfessionOriginal:  derefString(p.ProfessionOriginal),
		TitleID:             optionalFrom(p.TitleID),
		Origin:              optionalFrom(p.OriginID),
		Residence:           optionalFrom(p.ResidenceID),
		DeathPlace:          optionalFrom(p.DeathPlaceID),
		LegitimacyStatusID:  optionalFrom(ind.LegitimacyStatusID),
		ParticipationRoleID: optionalFrom(p.ParticipationRoleID),
		KinshipID:           optionalFrom(p.KinshipID),
		LineageIndex:        string(p.LineageIndex),
	}

	if ind.FamilyOfOriginID == nil {
		return node
	}
	parents, ok := b.families[*ind.FamilyOfOriginID].Parentage()
	if !ok {
		return node
	}

	visiting[individualID] = true
	defer delete(visiting, individualID)

	node.Father = b.ancestor(parents.FatherID, p.LineageIndex, path, domain.RoleFather, visiting)
	node.Mother = b.ancestor(parents.MotherID, p.LineageIndex, path, domain.RoleMother, visiting)
	return node
}

func (b *treeBuilder) ancestor(id *uint, childLineage domain.LineageIndex, path []domain.Role, hop domain.Role, visiting map[uint]bool) *PersonNode {
	if id == nil || visiting[*id] {
		return nil
	}
	ancestorPath := extend(path, hop)
	lineage := childLineage.Child(hop)
	p, ok := b.claim(*id, domain.AncestorRole(ancestorPath), lineage)
	if !ok {
		return nil
	}
	p.LineageIndex = lineage
	return b.node(*id, p, ancestorPath, visiting)
}

// claim picks the participation of individualID that best matches the
// expected role and lineage, preferring an exact match, then the role, then
// any unclaimed structural participation.
func (b *treeBuilder) claim(individualID uint, role domain.Role, lineage domain.LineageIndex) (domain.Participation, bool) {
	candidates := b.byIndividual[individualID]
	match := func(accept func(domain.Participation) bool) (domain.Participation, bool) {
		for _, i := range candidates {
			p := b.participations[i]
			if !b.used[p.ID] && accept(p) {
				b.used[p.ID] = true
				return p, true
			}
		}
		return domain.Participation{}, false
	}

	if p, ok := match(func(p domain.Participation) bool { return p.Role == role && p.LineageIndex == lineage }); ok {
		return p, true
	}
	if p, ok := match(func(p domain.Participation) bool { return p.Role == role }); ok {
		return p, true
	}
	return match(func(p domain.Participation) bool { return p.Role.IsStructural() })
}
