package catiafake

import (
	"github.com/GoSim-25-26J-441/catia-bridge/internal/catia"
)

// DocKind selects the automation document class
type DocKind string

const (
	Part     DocKind = "PartDocument"
	Product  DocKind = "ProductDocument"
	Analysis DocKind = "AnalysisDocument"
)

// rootProperty names the document property holding the root object
func (k DocKind) rootProperty() string {
	switch k {
	case Part:
		return "Part"
	case Product:
		return "Product"
	case Analysis:
		return "Analysis"
	}
	return ""
}

// Document is a fake document behind the STI lookup table
type Document struct {
	Path     string
	Kind     DocKind
	Loaded   bool
	ReadOnly bool
	// OpenedWithAlertsOff records whether file alert dialogs were
	// suppressed while Documents.Open loaded this document
	OpenedWithAlertsOff bool
	Opens               int
	Activations         int

	app  *App
	root *Root
}

func newDocument(app *App, path string, kind DocKind, params []*Parameter) *Document {
	doc := &Document{Path: path, Kind: kind, app: app}
	doc.root = newRoot(doc, params)
	return doc
}

// Object returns the document automation handle
func (d *Document) Object() catia.Object {
	return wrap(d)
}

// Root returns the document's root model
func (d *Document) Root() *Root {
	return d.root
}

func (d *Document) class() string { return string(d.Kind) }

func (d *Document) get(property string, args []any) (any, error) {
	if rp := d.Kind.rootProperty(); rp != "" && property == rp {
		return d.root, nil
	}
	switch property {
	case "FullName":
		return d.Path, nil
	}
	return nil, notFound(property)
}

func (d *Document) put(property string, value any) error {
	return notFound(property)
}

func (d *Document) call(method string, args []any) (any, error) {
	switch method {
	case "Activate":
		d.Activations++
		return nil, nil
	}
	return nil, notFound(method)
}

// Root is the object parameters and relations hang off: the Part,
// Product, or Analysis of its document
type Root struct {
	// UpdateErr fails every Update call until cleared
	UpdateErr error
	// OnUpdate runs on each successful Update, for scripting how the
	// model recomputes outputs from inputs
	OnUpdate func(*Root) error
	Updates  int

	doc       *Document
	params    *Params
	rootSet   *ParameterSet
	relations *Relations
	sensors   []*SensorNode
	units     map[string]*Unit
}

func newRoot(doc *Document, params []*Parameter) *Root {
	r := &Root{doc: doc, units: make(map[string]*Unit)}
	r.params = &Params{root: r}
	r.rootSet = newParameterSet(r, "Parameters")
	r.relations = &Relations{root: r}
	for _, p := range params {
		r.register(p)
	}
	return r
}

func (r *Root) register(p *Parameter) {
	r.params.add(p)
	if p.Unit != nil {
		if _, ok := r.units[p.Unit.Magnitude]; !ok {
			r.units[p.Unit.Magnitude] = p.Unit
		}
	}
}

// Object returns the root automation handle
func (r *Root) Object() catia.Object {
	return wrap(r)
}

// AddParam registers another parameter under the root
func (r *Root) AddParam(p *Parameter) *Parameter {
	r.register(p)
	return p
}

// Param finds a parameter by name anywhere under the root
func (r *Root) Param(name string) *Parameter {
	return r.params.byName[name]
}

// RootSet returns the root parameter set
func (r *Root) RootSet() *ParameterSet {
	return r.rootSet
}

// Set finds a parameter set directly under the root set
func (r *Root) Set(name string) *ParameterSet {
	return r.rootSet.Child(name)
}

// Relations returns the root's relation collection model
func (r *Root) Relations() *Relations {
	return r.relations
}

// AddSensor attaches a local sensor to an analysis root
func (r *Root) AddSensor(name, xmlName string) *SensorNode {
	s := &SensorNode{Name: name, XMLName: xmlName}
	r.sensors = append(r.sensors, s)
	return s
}

func (r *Root) class() string {
	switch r.doc.Kind {
	case Part:
		return "Part"
	case Product:
		return "Product"
	case Analysis:
		return "Analysis"
	}
	return "Root"
}

func (r *Root) get(property string, args []any) (any, error) {
	switch property {
	case "Parameters":
		return r.params, nil
	case "Relations":
		return r.relations, nil
	case "Sensors":
		if r.doc.Kind == Analysis {
			return &sensorList{root: r}, nil
		}
	}
	return nil, notFound(property)
}

func (r *Root) put(property string, value any) error {
	return notFound(property)
}

func (r *Root) call(method string, args []any) (any, error) {
	switch method {
	case "Update":
		if r.UpdateErr != nil {
			return nil, r.UpdateErr
		}
		if r.OnUpdate != nil {
			if err := r.OnUpdate(r); err != nil {
				return nil, err
			}
		}
		r.Updates++
		return nil, nil
	}
	return nil, notFound(method)
}

// SensorNode is a local sensor under an analysis root
type SensorNode struct {
	Name    string
	XMLName string
}

func (s *SensorNode) class() string { return "AnalysisLocalSensor" }

func (s *SensorNode) get(property string, args []any) (any, error) {
	switch property {
	case "Name":
		return s.Name, nil
	case "XMLName":
		return s.XMLName, nil
	}
	return nil, notFound(property)
}

func (s *SensorNode) put(property string, value any) error {
	return notFound(property)
}

func (s *SensorNode) call(method string, args []any) (any, error) {
	return nil, notFound(method)
}

// sensorList mirrors the analysis root's sensor collection
type sensorList struct {
	root *Root
}

func (l *sensorList) class() string { return "AnalysisSensors" }

func (l *sensorList) get(property string, args []any) (any, error) {
	switch property {
	case "Count":
		return len(l.root.sensors), nil
	}
	return nil, notFound(property)
}

func (l *sensorList) put(property string, value any) error {
	return notFound(property)
}

func (l *sensorList) call(method string, args []any) (any, error) {
	switch method {
	case "Item":
		if len(args) != 1 {
			return nil, methodFailed("Item")
		}
		i, ok := toInt(args[0])
		if !ok || i < 1 || i > len(l.root.sensors) {
			return nil, methodFailed("Item")
		}
		return l.root.sensors[i-1], nil
	}
	return nil, notFound(method)
}
