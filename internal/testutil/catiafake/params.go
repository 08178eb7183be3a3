package catiafake

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/GoSim-25-26J-441/catia-bridge/internal/catia"
)

// Params mirrors a Parameters collection. The root collection spans
// every parameter in the document; each parameter set scopes one of
// its own, and set-scoped creations land in the root collection too.
type Params struct {
	root   *Root
	set    *ParameterSet
	list   []*Parameter
	byName map[string]*Parameter
}

func (ps *Params) add(p *Parameter) {
	if ps.byName == nil {
		ps.byName = make(map[string]*Parameter)
	}
	ps.list = append(ps.list, p)
	ps.byName[p.Name] = p
	if ps.set != nil {
		ps.root.params.add(p)
	}
}

func (ps *Params) remove(name string) bool {
	p, ok := ps.byName[name]
	if !ok {
		return false
	}
	delete(ps.byName, name)
	for i, q := range ps.list {
		if q == p {
			ps.list = append(ps.list[:i], ps.list[i+1:]...)
			break
		}
	}
	if ps.set != nil {
		ps.root.params.remove(name)
	}
	// Deleting a parameter takes the formula driving it along, as the
	// application does
	if ps.set == nil && p.relation != nil {
		ps.root.relations.removeFormula(p.relation)
	}
	return true
}

func (ps *Params) class() string { return "Parameters" }

func (ps *Params) get(property string, args []any) (any, error) {
	switch property {
	case "Count":
		return len(ps.list), nil
	case "RootParameterSet":
		return ps.root.rootSet, nil
	}
	return nil, notFound(property)
}

func (ps *Params) put(property string, value any) error {
	return notFound(property)
}

func (ps *Params) call(method string, args []any) (any, error) {
	switch method {
	case "Item":
		if len(args) != 1 {
			return nil, methodFailed("Item")
		}
		switch key := args[0].(type) {
		case int:
			if key < 1 || key > len(ps.list) {
				return nil, methodFailed("Item")
			}
			return ps.list[key-1], nil
		case string:
			if p := ps.byName[key]; p != nil {
				return p, nil
			}
			return nil, methodFailed("Item")
		}
		return nil, methodFailed("Item")
	case "GetNameToUseInRelation":
		if len(args) != 1 {
			return nil, methodFailed(method)
		}
		p, ok := modelOf(args[0]).(*Parameter)
		if !ok {
			return nil, methodFailed(method)
		}
		return p.relationName(), nil
	case "Remove":
		if len(args) != 1 {
			return nil, methodFailed("Remove")
		}
		name, ok := args[0].(string)
		if !ok || !ps.remove(name) {
			return nil, methodFailed("Remove")
		}
		return nil, nil
	case "CreateDimension":
		if len(args) != 3 {
			return nil, methodFailed(method)
		}
		name, nameOK := args[0].(string)
		mag, magOK := args[1].(string)
		val, valOK := toFloat(args[2])
		if !nameOK || !magOK || !valOK {
			return nil, methodFailed(method)
		}
		unit := ps.root.units[mag]
		if unit == nil {
			unit = &Unit{Magnitude: mag}
			ps.root.units[mag] = unit
		}
		p := &Parameter{Name: name, Class: "Dimension", Unit: unit, val: val}
		ps.add(p)
		return p, nil
	case "CreateReal":
		if len(args) != 2 {
			return nil, methodFailed(method)
		}
		name, nameOK := args[0].(string)
		val, valOK := toFloat(args[1])
		if !nameOK || !valOK {
			return nil, methodFailed(method)
		}
		p := &Parameter{Name: name, Class: "RealParam", val: val}
		ps.add(p)
		return p, nil
	}
	return nil, notFound(method)
}

// Parameter is one knowledge parameter. Class selects which automation
// members it exposes: dimension classes carry a Unit, the discrete
// classes a raw Value.
type Parameter struct {
	Name string
	// RelationName is the name relations address this parameter by;
	// defaults to Name
	RelationName string
	Class        string
	Comment      string
	Unit         *Unit
	// ValuateErr fails ValuateFromString calls until cleared
	ValuateErr error

	val      any
	relation *Formula
}

// Dim builds a dimension parameter, e.g. Dim("PadHeight", 50, "mm", "LENGTH")
func Dim(name string, value float64, symbol, magnitude string) *Parameter {
	class := "Dimension"
	switch magnitude {
	case "LENGTH":
		class = "Length"
	case "ANGLE":
		class = "Angle"
	}
	return &Parameter{
		Name:  name,
		Class: class,
		Unit:  &Unit{Symbol: symbol, Magnitude: magnitude},
		val:   value,
	}
}

// Real builds a unitless real parameter
func Real(name string, value float64) *Parameter {
	return &Parameter{Name: name, Class: "RealParam", val: value}
}

// Int builds an integer parameter
func Int(name string, value int) *Parameter {
	return &Parameter{Name: name, Class: "IntParam", val: value}
}

// Bool builds a boolean parameter
func Bool(name string, value bool) *Parameter {
	return &Parameter{Name: name, Class: "BoolParam", val: value}
}

// Str builds a string parameter
func Str(name, value string) *Parameter {
	return &Parameter{Name: name, Class: "StrParam", val: value}
}

// Object returns the parameter automation handle
func (p *Parameter) Object() catia.Object {
	return wrap(p)
}

// Value returns the current raw value
func (p *Parameter) Value() any {
	return p.val
}

// SetRaw replaces the raw value without automation-side checks
func (p *Parameter) SetRaw(v any) {
	p.val = v
}

// Float returns the value as a float64 for dimension and real parameters
func (p *Parameter) Float() float64 {
	f, _ := toFloat(p.val)
	return f
}

// Relation returns the formula driving this parameter, if any
func (p *Parameter) Relation() *Formula {
	return p.relation
}

func (p *Parameter) relationName() string {
	if p.RelationName != "" {
		return p.RelationName
	}
	return p.Name
}

func (p *Parameter) isDimension() bool {
	return p.Unit != nil
}

func (p *Parameter) valueAsString() string {
	if p.isDimension() {
		return strconv.FormatFloat(p.Float(), 'g', -1, 64) + p.Unit.Symbol
	}
	switch v := p.val.(type) {
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	case string:
		return v
	}
	return fmt.Sprintf("%v", p.val)
}

func (p *Parameter) valuateFromString(s string) error {
	if p.ValuateErr != nil {
		return p.ValuateErr
	}
	if p.isDimension() {
		body := strings.TrimSpace(s)
		if sym := p.Unit.Symbol; sym != "" {
			body = strings.TrimSpace(strings.TrimSuffix(body, sym))
		}
		f, err := strconv.ParseFloat(body, 64)
		if err != nil {
			return fmt.Errorf("cannot valuate %s from %q", p.Name, s)
		}
		p.val = f
		return nil
	}
	if p.Class == "RealParam" {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("cannot valuate %s from %q", p.Name, s)
		}
		p.val = f
		return nil
	}
	return fmt.Errorf("cannot valuate %s parameter %s", p.Class, p.Name)
}

func (p *Parameter) class() string { return p.Class }

func (p *Parameter) get(property string, args []any) (any, error) {
	switch property {
	case "Name":
		return p.Name, nil
	case "Comment":
		return p.Comment, nil
	case "Unit":
		if p.Unit != nil {
			return p.Unit, nil
		}
		return nil, notFound("Unit")
	case "Value":
		return p.val, nil
	case "OptionalRelation":
		if p.relation != nil {
			return p.relation, nil
		}
		return nil, nil
	}
	return nil, notFound(property)
}

func (p *Parameter) put(property string, value any) error {
	switch property {
	case "Value":
		return p.putValue(value)
	case "Comment":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("Comment: expected string, got %T", value)
		}
		p.Comment = s
		return nil
	}
	return notFound(property)
}

func (p *Parameter) putValue(value any) error {
	switch p.Class {
	case "IntParam":
		n, ok := toInt(value)
		if !ok {
			return fmt.Errorf("parameter %s: expected integer, got %T", p.Name, value)
		}
		p.val = n
	case "BoolParam":
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("parameter %s: expected bool, got %T", p.Name, value)
		}
		p.val = b
	case "StrParam":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("parameter %s: expected string, got %T", p.Name, value)
		}
		p.val = s
	default:
		f, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("parameter %s: expected number, got %T", p.Name, value)
		}
		p.val = f
	}
	return nil
}

func (p *Parameter) call(method string, args []any) (any, error) {
	switch method {
	case "ValueAsString":
		return p.valueAsString(), nil
	case "ValuateFromString":
		if len(args) != 1 {
			return nil, methodFailed(method)
		}
		s, ok := args[0].(string)
		if !ok {
			return nil, methodFailed(method)
		}
		return nil, p.valuateFromString(s)
	}
	return nil, notFound(method)
}

// Unit is a dimension parameter's display unit
type Unit struct {
	Symbol    string
	Magnitude string
}

func (u *Unit) class() string { return "Unit" }

func (u *Unit) get(property string, args []any) (any, error) {
	switch property {
	case "Symbol":
		return u.Symbol, nil
	case "Magnitude":
		return u.Magnitude, nil
	}
	return nil, notFound(property)
}

func (u *Unit) put(property string, value any) error {
	return notFound(property)
}

func (u *Unit) call(method string, args []any) (any, error) {
	return nil, notFound(method)
}

// ParameterSet groups parameters under the root set tree
type ParameterSet struct {
	Name string

	root     *Root
	params   *Params
	children []*ParameterSet
	byName   map[string]*ParameterSet
}

func newParameterSet(root *Root, name string) *ParameterSet {
	s := &ParameterSet{Name: name, root: root}
	s.params = &Params{root: root, set: s}
	return s
}

// Object returns the parameter set automation handle
func (s *ParameterSet) Object() catia.Object {
	return wrap(s)
}

// Params lists the parameters directly in this set
func (s *ParameterSet) Params() []*Parameter {
	out := make([]*Parameter, len(s.params.list))
	copy(out, s.params.list)
	return out
}

// Child finds a nested parameter set by name
func (s *ParameterSet) Child(name string) *ParameterSet {
	return s.byName[name]
}

func (s *ParameterSet) class() string { return "ParameterSet" }

func (s *ParameterSet) get(property string, args []any) (any, error) {
	switch property {
	case "Name":
		return s.Name, nil
	case "AllParameters":
		return s.params, nil
	case "ParameterSets":
		return &parameterSets{set: s}, nil
	}
	return nil, notFound(property)
}

func (s *ParameterSet) put(property string, value any) error {
	return notFound(property)
}

func (s *ParameterSet) call(method string, args []any) (any, error) {
	return nil, notFound(method)
}

// parameterSets mirrors a set's nested ParameterSets collection
type parameterSets struct {
	set *ParameterSet
}

func (c *parameterSets) class() string { return "ParameterSets" }

func (c *parameterSets) get(property string, args []any) (any, error) {
	switch property {
	case "Count":
		return len(c.set.children), nil
	}
	return nil, notFound(property)
}

func (c *parameterSets) put(property string, value any) error {
	return notFound(property)
}

func (c *parameterSets) call(method string, args []any) (any, error) {
	switch method {
	case "Item":
		if len(args) != 1 {
			return nil, methodFailed("Item")
		}
		switch key := args[0].(type) {
		case int:
			if key < 1 || key > len(c.set.children) {
				return nil, methodFailed("Item")
			}
			return c.set.children[key-1], nil
		case string:
			if child := c.set.byName[key]; child != nil {
				return child, nil
			}
			return nil, methodFailed("Item")
		}
		return nil, methodFailed("Item")
	case "CreateSet":
		if len(args) != 1 {
			return nil, methodFailed("CreateSet")
		}
		name, ok := args[0].(string)
		if !ok {
			return nil, methodFailed("CreateSet")
		}
		child := newParameterSet(c.set.root, name)
		if c.set.byName == nil {
			c.set.byName = make(map[string]*ParameterSet)
		}
		c.set.children = append(c.set.children, child)
		c.set.byName[name] = child
		return child, nil
	}
	return nil, notFound(method)
}
