package goinject

import (
	"slices"

	"github.com/google/uuid"
)

// Reserved metadata keys. Any other key attached to a Target is a custom tag.
const (
	InjectTag      = "inject"
	MultiInjectTag = "multi_inject"
	NamedTag       = "named"
	OptionalTag    = "optional"
)

type TargetKind int

const (
	TargetKindVariable TargetKind = iota + 1
	TargetKindConstructorArgument
	TargetKindClassProperty
)

func (k TargetKind) String() string {
	switch k {
	case TargetKindVariable:
		return "Variable"
	case TargetKindConstructorArgument:
		return "ConstructorArgument"
	case TargetKindClassProperty:
		return "ClassProperty"
	default:
		return "Unknown"
	}
}

// Metadata is a key/value pair attached to a Target or remembered by a
// named/tagged binding constraint.
type Metadata struct {
	Key   any
	Value any
}

// Target describes one injection point: the root of a resolution, a
// constructor parameter or a struct field.
type Target struct {
	id                string
	kind              TargetKind
	name              string
	index             int
	serviceIdentifier ServiceIdentifier
	metadata          []Metadata
}

func newTarget(kind TargetKind, name string, index int, serviceIdentifier ServiceIdentifier, metadata []Metadata) *Target {
	return &Target{
		id:                uuid.NewString(),
		kind:              kind,
		name:              name,
		index:             index,
		serviceIdentifier: serviceIdentifier,
		metadata:          slices.Clone(metadata),
	}
}

func (t *Target) ID() string                           { return t.id }
func (t *Target) Kind() TargetKind                     { return t.kind }
func (t *Target) Name() string                         { return t.name }
func (t *Target) Index() int                           { return t.index }
func (t *Target) ServiceIdentifier() ServiceIdentifier { return t.serviceIdentifier }
func (t *Target) Metadata() []Metadata                 { return slices.Clone(t.metadata) }

func (t *Target) HasTag(key any) bool {
	return slices.ContainsFunc(t.metadata, func(m Metadata) bool { return m.Key == key })
}

func (t *Target) IsArray() bool {
	return t.HasTag(MultiInjectTag)
}

// MatchesArray reports whether t is a multi-injection of serviceIdentifier.
func (t *Target) MatchesArray(serviceIdentifier ServiceIdentifier) bool {
	return t.MatchesTag(MultiInjectTag, serviceIdentifier)
}

func (t *Target) IsNamed() bool {
	return t.HasTag(NamedTag)
}

func (t *Target) IsOptional() bool {
	return t.MatchesTag(OptionalTag, true)
}

// IsTagged reports whether t carries any custom tag.
func (t *Target) IsTagged() bool {
	return len(t.CustomTags()) > 0
}

func (t *Target) NamedTag() (Metadata, bool) {
	for _, m := range t.metadata {
		if m.Key == NamedTag {
			return m, true
		}
	}
	return Metadata{}, false
}

func (t *Target) CustomTags() []Metadata {
	tags := []Metadata{}
	for _, m := range t.metadata {
		if !isReservedTag(m.Key) {
			tags = append(tags, m)
		}
	}
	return tags
}

func (t *Target) MatchesNamedTag(name string) bool {
	return t.MatchesTag(NamedTag, name)
}

func (t *Target) MatchesTag(key any, value any) bool {
	return slices.ContainsFunc(t.metadata, func(m Metadata) bool {
		return m.Key == key && m.Value == value
	})
}

func isReservedTag(key any) bool {
	switch key {
	case InjectTag, MultiInjectTag, NamedTag, OptionalTag:
		return true
	default:
		return false
	}
}
