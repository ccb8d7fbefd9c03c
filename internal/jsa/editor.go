package jsa

import (
	"errors"
	"fmt"

	"jsa/api/internal/util"
)

// IDSource mints element ids for appended hazards, tools and controls.
type IDSource func() string

// Edit is one typed mutation of a document. Implementations receive a private
// deep copy, so a failed edit never leaks a partial update.
type Edit interface {
	Op() string
	apply(doc *Document, ids IDSource) error
}

// Apply returns a new document with the edit applied. On error the receiver is
// returned unchanged alongside the error.
func (d Document) Apply(edit Edit, ids IDSource) (Document, error) {
	if edit == nil {
		return d, errors.New("nil edit")
	}
	if ids == nil {
		ids = util.Token
	}
	next := Clone(d)
	if err := edit.apply(&next, ids); err != nil {
		return d, fmt.Errorf("%s: %w", edit.Op(), err)
	}
	return next, nil
}

type Collection string

const (
	CollectionHazards     Collection = "hazards"
	CollectionTools       Collection = "tools"
	CollectionControls    Collection = "controls"
	CollectionSteps       Collection = "steps"
	CollectionTeamMembers Collection = "teamMembers"
	CollectionPermits     Collection = "requiredPermits"
)

// ItemField names a scalar sub-field of a collection element.
type ItemField string

const (
	FieldDescription ItemField = "description"
	FieldLimit       ItemField = "limit"
	FieldName        ItemField = "name"
	FieldBrandModel  ItemField = "brandModel"
	FieldType        ItemField = "type"
	FieldStandardRef ItemField = "standardRef"
	FieldHazardRef   ItemField = "hazardRef"
	// FieldValue addresses the element itself in string collections.
	FieldValue ItemField = "value"
)

type MetadataField string

const (
	MetaCompany    MetadataField = "company"
	MetaProject    MetadataField = "project"
	MetaWorkOrder  MetadataField = "workOrder"
	MetaTeamLeader MetadataField = "teamLeader"
)

// RiskSlot selects which of the two document risk scores an edit targets.
type RiskSlot string

const (
	SlotInitial  RiskSlot = "initialRisk"
	SlotResidual RiskSlot = "residualRisk"
)

// Append defaults, as presented by the editor for a brand new row.
const (
	DefaultHazardDescription  = "New Hazard"
	DefaultControlDescription = "New Control"
	DefaultToolName           = "New Tool"
)

type SetTitle struct {
	Lang  Language
	Value string
}

func (e SetTitle) Op() string { return "title.set" }

func (e SetTitle) apply(doc *Document, _ IDSource) error {
	title, err := doc.Title.Set(e.Lang, e.Value)
	if err != nil {
		return err
	}
	doc.Title = title
	return nil
}

type SetMetadata struct {
	Field MetadataField
	Value string
}

func (e SetMetadata) Op() string { return "metadata.set" }

func (e SetMetadata) apply(doc *Document, _ IDSource) error {
	switch e.Field {
	case MetaCompany:
		doc.Metadata.Company = e.Value
	case MetaProject:
		doc.Metadata.Project = e.Value
	case MetaWorkOrder:
		doc.Metadata.WorkOrder = e.Value
	case MetaTeamLeader:
		doc.Metadata.TeamLeader = e.Value
	default:
		return fmt.Errorf("%w: metadata.%s", ErrUnknownField, e.Field)
	}
	return nil
}

type SetCategory struct {
	Value string
}

func (e SetCategory) Op() string { return "category.set" }

func (e SetCategory) apply(doc *Document, _ IDSource) error {
	doc.Category = e.Value
	return nil
}

type SetRisk struct {
	Slot   RiskSlot
	Factor RiskFactor
	Value  int
}

func (e SetRisk) Op() string { return "risk.set" }

func (e SetRisk) apply(doc *Document, _ IDSource) error {
	var target *RiskScore
	switch e.Slot {
	case SlotInitial:
		target = &doc.InitialRisk
	case SlotResidual:
		target = &doc.ResidualRisk
	default:
		return fmt.Errorf("%w: risk slot %q", ErrUnknownField, e.Slot)
	}
	next, err := target.With(e.Factor, e.Value)
	if err != nil {
		return err
	}
	*target = next
	return nil
}

// Append adds one element with fresh defaults at the end of a collection.
// Value is the element text for team members and permits; a blank permit is ignored.
type Append struct {
	Collection Collection
	Value      string
}

func (e Append) Op() string { return string(e.Collection) + ".append" }

func (e Append) apply(doc *Document, ids IDSource) error {
	switch e.Collection {
	case CollectionHazards:
		doc.Hazards = append(doc.Hazards, Hazard{ID: ids(), Description: DefaultHazardDescription})
	case CollectionTools:
		doc.Tools = append(doc.Tools, Tool{ID: ids(), Name: DefaultToolName})
	case CollectionControls:
		doc.Controls = append(doc.Controls, Control{ID: ids(), Description: DefaultControlDescription, Type: ControlProcedure})
	case CollectionSteps:
		doc.Steps = append(doc.Steps, Step{ID: nextStepID(doc.Steps)})
	case CollectionTeamMembers:
		doc.Metadata.TeamMembers = append(doc.Metadata.TeamMembers, e.Value)
	case CollectionPermits:
		if e.Value == "" {
			return nil
		}
		doc.RequiredPermits = append(doc.RequiredPermits, e.Value)
	default:
		return fmt.Errorf("%w: collection %q", ErrUnknownField, e.Collection)
	}
	return nil
}

// Update replaces one scalar sub-field of the element at Index.
type Update struct {
	Collection Collection
	Index      int
	Field      ItemField
	Value      string
}

func (e Update) Op() string { return string(e.Collection) + ".update" }

func (e Update) apply(doc *Document, _ IDSource) error {
	var err error
	switch e.Collection {
	case CollectionHazards:
		doc.Hazards, err = updateAt(doc.Hazards, e.Index, func(h *Hazard) error {
			switch e.Field {
			case FieldDescription:
				h.Description = e.Value
			case FieldLimit:
				h.Limit = e.Value
			default:
				return unknownItemField(e.Collection, e.Field)
			}
			return nil
		})
	case CollectionTools:
		doc.Tools, err = updateAt(doc.Tools, e.Index, func(t *Tool) error {
			switch e.Field {
			case FieldName:
				t.Name = e.Value
			case FieldBrandModel:
				t.BrandModel = e.Value
			default:
				return unknownItemField(e.Collection, e.Field)
			}
			return nil
		})
	case CollectionControls:
		doc.Controls, err = updateAt(doc.Controls, e.Index, func(c *Control) error {
			switch e.Field {
			case FieldDescription:
				c.Description = e.Value
			case FieldType:
				ct, err := ParseControlType(e.Value)
				if err != nil {
					return err
				}
				c.Type = ct
			case FieldStandardRef:
				c.StandardRef = e.Value
			default:
				return unknownItemField(e.Collection, e.Field)
			}
			return nil
		})
	case CollectionSteps:
		doc.Steps, err = updateAt(doc.Steps, e.Index, func(s *Step) error {
			switch e.Field {
			case FieldDescription:
				s.Description = e.Value
			case FieldHazardRef:
				s.HazardRef = e.Value
			default:
				return unknownItemField(e.Collection, e.Field)
			}
			return nil
		})
	case CollectionTeamMembers:
		doc.Metadata.TeamMembers, err = updateAt(doc.Metadata.TeamMembers, e.Index, e.setString)
	case CollectionPermits:
		doc.RequiredPermits, err = updateAt(doc.RequiredPermits, e.Index, e.setString)
	default:
		return fmt.Errorf("%w: collection %q", ErrUnknownField, e.Collection)
	}
	return err
}

func (e Update) setString(s *string) error {
	if e.Field != "" && e.Field != FieldValue {
		return unknownItemField(e.Collection, e.Field)
	}
	*s = e.Value
	return nil
}

// Remove deletes the element at Index; later elements shift down. Step ids are kept.
type Remove struct {
	Collection Collection
	Index      int
}

func (e Remove) Op() string { return string(e.Collection) + ".remove" }

func (e Remove) apply(doc *Document, _ IDSource) error {
	var err error
	switch e.Collection {
	case CollectionHazards:
		doc.Hazards, err = removeAt(doc.Hazards, e.Index)
	case CollectionTools:
		doc.Tools, err = removeAt(doc.Tools, e.Index)
	case CollectionControls:
		doc.Controls, err = removeAt(doc.Controls, e.Index)
	case CollectionSteps:
		doc.Steps, err = removeAt(doc.Steps, e.Index)
	case CollectionTeamMembers:
		doc.Metadata.TeamMembers, err = removeAt(doc.Metadata.TeamMembers, e.Index)
	case CollectionPermits:
		doc.RequiredPermits, err = removeAt(doc.RequiredPermits, e.Index)
	default:
		return fmt.Errorf("%w: collection %q", ErrUnknownField, e.Collection)
	}
	return err
}

// RenumberSteps reassigns step ids 1..n in display order.
type RenumberSteps struct{}

func (RenumberSteps) Op() string { return "steps.renumber" }

func (RenumberSteps) apply(doc *Document, _ IDSource) error {
	for i := range doc.Steps {
		doc.Steps[i].ID = i + 1
	}
	return nil
}

// SetActiveLocation moves the chosen location to the front of the list,
// which is where the emergency block reads it from.
type SetActiveLocation struct {
	Index int
}

func (SetActiveLocation) Op() string { return "location.activate" }

func (e SetActiveLocation) apply(doc *Document, _ IDSource) error {
	if e.Index < 0 || e.Index >= len(doc.Locations) {
		return fmt.Errorf("%w: location %d of %d", ErrIndexOutOfRange, e.Index, len(doc.Locations))
	}
	chosen := doc.Locations[e.Index]
	copy(doc.Locations[1:e.Index+1], doc.Locations[:e.Index])
	doc.Locations[0] = chosen
	return nil
}

func nextStepID(steps []Step) int {
	next := len(steps) + 1
	for _, s := range steps {
		if s.ID >= next {
			next = s.ID + 1
		}
	}
	return next
}

func updateAt[T any](items []T, index int, fn func(*T) error) ([]T, error) {
	if index < 0 || index >= len(items) {
		return items, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(items))
	}
	if err := fn(&items[index]); err != nil {
		return items, err
	}
	return items, nil
}

func removeAt[T any](items []T, index int) ([]T, error) {
	if index < 0 || index >= len(items) {
		return items, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(items))
	}
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:index]...)
	return append(out, items[index+1:]...), nil
}

func unknownItemField(collection Collection, field ItemField) error {
	return fmt.Errorf("%w: %s.%s", ErrUnknownField, collection, field)
}
