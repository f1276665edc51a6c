package goinject

import (
	"math/rand/v2"

	"github.com/google/uuid"
)

type IService interface {
	GetValue() int
}
type Service struct {
	value string
}

func (s Service) GetValue() int {
	return 12
}

func NewService() IService {
	return &Service{
		value: uuid.NewString(),
	}
}

func NewServiceWithCallback(callback func()) func() IService {
	return func() IService {
		callback()
		return NewService()
	}
}

func NewServiceUnsafe() (IService, error) {
	return &Service{value: uuid.NewString()}, nil
}

type CustomError struct{}

func (c CustomError) Error() string {
	return "custom error"
}

var customError = &CustomError{}

func NewServiceError() (IService, error) {
	return nil, customError
}

type OtherService struct {
	value string
}

func (s OtherService) GetValue() int {
	return 13
}

func NewOtherService() IService {
	return &OtherService{
		value: uuid.NewString(),
	}
}

type IServiceOne interface {
	GetValueOne() int
}
type ServiceOne struct {
	value string
}

func NewServiceOne() IServiceOne {
	return &ServiceOne{
		value: uuid.NewString(),
	}
}

func (s ServiceOne) GetValueOne() int {
	return 1
}

type IServiceTwo interface {
	GetValueTwo() int
}
type ServiceTwo struct {
	value string
}

func NewServiceTwo() (IServiceTwo, error) {
	return &ServiceTwo{
		value: uuid.NewString(),
	}, nil
}

func (s ServiceTwo) GetValueTwo() int {
	return 2
}

type IServiceThree interface {
	GetValueThree() int
}
type ServiceThree struct {
	value      string
	serviceOne IServiceOne
	serviceTwo IServiceTwo
}

func NewServiceThree(serviceOne IServiceOne, serviceTwo IServiceTwo) IServiceThree {
	return &ServiceThree{
		value:      uuid.NewString(),
		serviceOne: serviceOne,
		serviceTwo: serviceTwo,
	}
}

func (s ServiceThree) GetValueThree() int {
	return s.serviceOne.GetValueOne() + s.serviceTwo.GetValueTwo()
}

type MultiServiceInjection struct {
	services []IService
}

func NewMultiServiceInjection(services []IService) MultiServiceInjection {
	return MultiServiceInjection{
		services,
	}
}

func (m MultiServiceInjection) GetMultiValue() []int {
	values := []int{}
	for _, service := range m.services {
		values = append(values, service.GetValue())
	}
	return values
}

type SeeminglyHarmlessService struct {
	circularDependency CircularDependency
}

func NewSeeminglyHarmlessService(circularDependency CircularDependency) IService {
	return &SeeminglyHarmlessService{
		circularDependency,
	}
}

func (s SeeminglyHarmlessService) GetValue() int {
	return 13
}

type CircularDependency struct {
	service IService
}

func NewCircularDependency(service IService) CircularDependency {
	return CircularDependency{
		service,
	}
}

type Weapon interface {
	Hit() string
}

type Katana struct{}

func NewKatana() *Katana     { return &Katana{} }
func (*Katana) Hit() string { return "cut!" }

type Shuriken struct{}

func NewShuriken() *Shuriken   { return &Shuriken{} }
func (*Shuriken) Hit() string { return "hit!" }

type Ninja struct {
	weapon Weapon
}

func NewNinja(weapon Weapon) *Ninja {
	return &Ninja{weapon: weapon}
}

func (n *Ninja) Fight() string { return n.weapon.Hit() }

// Armory gets every Weapon through its untagged slice field.
type Armory struct {
	Weapons []Weapon `inject:""`
}

type Samurai struct {
	Primary   Weapon `inject:",named=primary"`
	Secondary Weapon `inject:",tag=rank:secondary"`
	Backup    Weapon `inject:"backup,optional"`
}

// node is a string-identified service pointing at the next one.
type node struct {
	name string
	next any
}

func newNode(name string) func(next any) *node {
	return func(next any) *node {
		return &node{name: name, next: next}
	}
}

type Shared struct {
	value string
}

func NewShared() *Shared {
	return &Shared{value: uuid.NewString()}
}

type Left struct {
	shared *Shared
}

func NewLeft(shared *Shared) *Left { return &Left{shared: shared} }

type Right struct {
	shared *Shared
}

func NewRight(shared *Shared) *Right { return &Right{shared: shared} }

type Diamond struct {
	left  *Left
	right *Right
}

func NewDiamond(left *Left, right *Right) *Diamond {
	return &Diamond{left: left, right: right}
}

func randomNumber(*Context) (any, error) {
	return rand.Float64(), nil
}
