package goinject

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Annotation describes how one constructor parameter is injected. A nil
// annotation, or one built with Auto, infers the identifier from the
// parameter type.
type Annotation struct {
	serviceIdentifier ServiceIdentifier
	multi             bool
	optional          bool
	tags              []Metadata
}

func Inject(serviceIdentifier ServiceIdentifier) *Annotation {
	return &Annotation{serviceIdentifier: serviceIdentifier}
}

// MultiInject injects every binding of serviceIdentifier, in registration
// order. The parameter must be a slice.
func MultiInject(serviceIdentifier ServiceIdentifier) *Annotation {
	return &Annotation{serviceIdentifier: serviceIdentifier, multi: true}
}

func Auto() *Annotation {
	return &Annotation{}
}

func (a *Annotation) Named(name string) *Annotation {
	a.tags = append(a.tags, Metadata{Key: NamedTag, Value: name})
	return a
}

func (a *Annotation) Tagged(key any, value any) *Annotation {
	a.tags = append(a.tags, Metadata{Key: key, Value: value})
	return a
}

func (a *Annotation) Optional() *Annotation {
	a.optional = true
	return a
}

// Class describes how to instantiate a value: a constructor function whose
// parameters are injected positionally. When the constructor returns a
// pointer to a struct, exported fields carrying an `inject` struct tag are
// injected afterwards.
//
// The constructor must return exactly one value, or a value and an error.
type Class struct {
	name          string
	constructor   reflect.Value
	allocate      reflect.Type
	annotations   []*Annotation
	postConstruct func(instance any) error
	preDestroy    func(instance any) error

	parseOnce  sync.Once
	parameters []parameterInfo
	properties []propertyInfo
	parseErr   error
}

type parameterInfo struct {
	paramType  reflect.Type
	annotation *Annotation
}

type propertyInfo struct {
	field      reflect.StructField
	annotation *Annotation
}

// NewClass panics when constructor is not a valid constructor function.
func NewClass(constructor any, annotations ...*Annotation) *Class {
	constructorFunction := reflect.ValueOf(constructor)
	constructorType := constructorFunction.Type()

	if constructorType.Kind() != reflect.Func || constructorType.NumOut() < 1 || constructorType.NumOut() > 2 {
		panic("constructor must be a function returning exactly one value, or a value and an error")
	}
	if constructorType.NumOut() == 2 && !constructorType.Out(1).AssignableTo(reflect.TypeFor[error]()) {
		panic("constructor must be a function returning exactly one value, or a value and an error")
	}
	if constructorType.IsVariadic() {
		panic(fmt.Sprintf("variadic constructors cannot be injected: %v", constructorType))
	}
	if len(annotations) > constructorType.NumIn() {
		panic(fmt.Sprintf("%d annotations given for a constructor with %d parameters: %v", len(annotations), constructorType.NumIn(), constructorType))
	}

	return &Class{
		name:        constructorType.Out(0).String(),
		constructor: constructorFunction,
		annotations: annotations,
	}
}

// ClassFor describes a struct type T built from its zero value and filled
// through property injection only. Instances are *T.
func ClassFor[T any]() *Class {
	structType := reflect.TypeFor[T]()
	if structType.Kind() != reflect.Struct {
		panic(fmt.Sprintf("ClassFor requires a struct type, got %v", structType))
	}
	return &Class{
		name:     reflect.PointerTo(structType).String(),
		allocate: structType,
	}
}

func (c *Class) Name() string { return c.name }

// WithName overrides the name used in error messages.
func (c *Class) WithName(name string) *Class {
	c.name = name
	return c
}

// WithPostConstruct runs fn on every new instance, after property
// injection and before activation.
func (c *Class) WithPostConstruct(fn func(instance any) error) *Class {
	c.postConstruct = fn
	return c
}

// WithPreDestroy runs fn when a singleton instance of the class is
// deactivated.
func (c *Class) WithPreDestroy(fn func(instance any) error) *Class {
	c.preDestroy = fn
	return c
}

func (c *Class) producedType() reflect.Type {
	if c.allocate != nil {
		return reflect.PointerTo(c.allocate)
	}
	return c.constructor.Type().Out(0)
}

func (c *Class) parse() error {
	c.parseOnce.Do(func() {
		c.parseErr = c.parseMetadata()
	})
	return c.parseErr
}

func (c *Class) parseMetadata() error {
	if c.allocate == nil {
		constructorType := c.constructor.Type()
		for i := range constructorType.NumIn() {
			var annotation *Annotation
			if i < len(c.annotations) {
				annotation = c.annotations[i]
			}
			c.parameters = append(c.parameters, parameterInfo{
				paramType:  constructorType.In(i),
				annotation: annotation,
			})
		}
	}

	producedType := c.producedType()
	if producedType.Kind() != reflect.Pointer || producedType.Elem().Kind() != reflect.Struct {
		return nil
	}
	structType := producedType.Elem()
	for i := range structType.NumField() {
		field := structType.Field(i)
		tag, found := field.Tag.Lookup("inject")
		if !found {
			continue
		}
		if !field.IsExported() {
			return fmt.Errorf("%w: field %s of %s has an inject tag but is not exported", ErrMissingAnnotation, field.Name, c.name)
		}
		annotation, err := parseInjectTag(tag)
		if err != nil {
			return fmt.Errorf("%w: field %s of %s: %w", ErrMissingAnnotation, field.Name, c.name, err)
		}
		c.properties = append(c.properties, propertyInfo{field: field, annotation: annotation})
	}
	return nil
}

// parseInjectTag reads `inject:"id,multi,optional,named=x,tag=k:v"`.
func parseInjectTag(tag string) (*Annotation, error) {
	parts := strings.Split(tag, ",")
	annotation := &Annotation{}
	if id := strings.TrimSpace(parts[0]); id != "" {
		annotation.serviceIdentifier = id
	}
	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		switch {
		case part == "multi":
			annotation.multi = true
		case part == "optional":
			annotation.optional = true
		case strings.HasPrefix(part, "named="):
			annotation.Named(strings.TrimPrefix(part, "named="))
		case strings.HasPrefix(part, "tag="):
			key, value, found := strings.Cut(strings.TrimPrefix(part, "tag="), ":")
			if !found {
				return nil, fmt.Errorf("tag option must look like tag=key:value, got %q", part)
			}
			annotation.Tagged(key, value)
		case part == "":
		default:
			return nil, fmt.Errorf("unknown inject option %q", part)
		}
	}
	return annotation, nil
}

// MetadataReader tells the planner which dependencies a class declares.
type MetadataReader interface {
	ConstructorMetadata(class *Class) ([]*Target, error)
	PropertyMetadata(class *Class) ([]*Target, error)
}

type defaultMetadataReader struct{}

// NewMetadataReader returns the reader used by containers unless
// WithMetadataReader says otherwise. It reads Annotations given to NewClass
// and `inject` struct tags.
func NewMetadataReader() MetadataReader {
	return defaultMetadataReader{}
}

func (defaultMetadataReader) ConstructorMetadata(class *Class) ([]*Target, error) {
	if err := class.parse(); err != nil {
		return nil, err
	}
	targets := make([]*Target, 0, len(class.parameters))
	for i, parameter := range class.parameters {
		target, err := annotationTarget(TargetKindConstructorArgument, "", i, parameter.paramType, parameter.annotation)
		if err != nil {
			return nil, fmt.Errorf("argument %d of %s: %w", i, class.name, err)
		}
		targets = append(targets, target)
	}
	return targets, nil
}

func (defaultMetadataReader) PropertyMetadata(class *Class) ([]*Target, error) {
	if err := class.parse(); err != nil {
		return nil, err
	}
	targets := make([]*Target, 0, len(class.properties))
	for _, property := range class.properties {
		target, err := annotationTarget(TargetKindClassProperty, property.field.Name, -1, property.field.Type, property.annotation)
		if err != nil {
			return nil, fmt.Errorf("field %s of %s: %w", property.field.Name, class.name, err)
		}
		targets = append(targets, target)
	}
	return targets, nil
}

func annotationTarget(kind TargetKind, name string, index int, valueType reflect.Type, annotation *Annotation) (*Target, error) {
	if annotation == nil {
		annotation = &Annotation{}
	}

	serviceIdentifier := annotation.serviceIdentifier
	multi := annotation.multi
	if serviceIdentifier == nil {
		switch {
		case multi && valueType.Kind() == reflect.Slice:
			serviceIdentifier = valueType.Elem()
		case multi:
			return nil, fmt.Errorf("%w: multi injection into non slice type %v", ErrMissingAnnotation, valueType)
		case valueType.Kind() == reflect.Slice && valueType.Elem().Kind() != reflect.Uint8:
			serviceIdentifier = valueType.Elem()
			multi = true
		default:
			serviceIdentifier = valueType
		}
	}
	if t, ok := serviceIdentifier.(reflect.Type); ok && t.Kind() == reflect.Interface && t.NumMethod() == 0 {
		return nil, fmt.Errorf("%w: cannot infer a service identifier for %v, annotate it with Inject", ErrMissingAnnotation, t)
	}

	metadata := []Metadata{}
	if multi {
		metadata = append(metadata, Metadata{Key: MultiInjectTag, Value: serviceIdentifier})
	} else {
		metadata = append(metadata, Metadata{Key: InjectTag, Value: serviceIdentifier})
	}
	if annotation.optional {
		metadata = append(metadata, Metadata{Key: OptionalTag, Value: true})
	}
	metadata = append(metadata, annotation.tags...)

	return newTarget(kind, name, index, serviceIdentifier, metadata), nil
}
