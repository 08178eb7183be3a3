package catiafake

import (
	"fmt"

	"github.com/GoSim-25-26J-441/catia-bridge/internal/catia"
)

// Relations is the root's relation collection
type Relations struct {
	root   *Root
	list   []*Formula
	byName map[string]*Formula
}

// Object returns the relations automation handle
func (r *Relations) Object() catia.Object {
	return wrap(r)
}

// Formula finds a relation by name
func (r *Relations) Formula(name string) *Formula {
	return r.byName[name]
}

// Names lists relation names in creation order
func (r *Relations) Names() []string {
	out := make([]string, len(r.list))
	for i, f := range r.list {
		out[i] = f.Name
	}
	return out
}

func (r *Relations) class() string { return "Relations" }

func (r *Relations) get(property string, args []any) (any, error) {
	switch property {
	case "Count":
		return len(r.list), nil
	}
	return nil, notFound(property)
}

func (r *Relations) put(property string, value any) error {
	return notFound(property)
}

func (r *Relations) call(method string, args []any) (any, error) {
	switch method {
	case "CreateFormula":
		if len(args) != 4 {
			return nil, methodFailed(method)
		}
		name, nameOK := args[0].(string)
		comment, commentOK := args[1].(string)
		output, outputOK := modelOf(args[2]).(*Parameter)
		body, bodyOK := args[3].(string)
		if !nameOK || !commentOK || !outputOK || !bodyOK {
			return nil, methodFailed(method)
		}
		if output.relation != nil {
			return nil, fmt.Errorf("parameter %s is already constrained by %s", output.Name, output.relation.Name)
		}
		if _, exists := r.byName[name]; exists {
			return nil, fmt.Errorf("relation %s already exists", name)
		}
		if r.byName == nil {
			r.byName = make(map[string]*Formula)
		}
		f := &Formula{Name: name, Comment: comment, Body: body, Output: output, rels: r}
		r.list = append(r.list, f)
		r.byName[name] = f
		output.relation = f
		return f, nil
	case "Remove":
		if len(args) != 1 {
			return nil, methodFailed("Remove")
		}
		name, ok := args[0].(string)
		if !ok {
			return nil, methodFailed("Remove")
		}
		f := r.byName[name]
		if f == nil {
			return nil, methodFailed("Remove")
		}
		r.removeFormula(f)
		return nil, nil
	}
	return nil, notFound(method)
}

func (r *Relations) removeFormula(f *Formula) {
	delete(r.byName, f.Name)
	for i, q := range r.list {
		if q == f {
			r.list = append(r.list[:i], r.list[i+1:]...)
			break
		}
	}
	if f.Output != nil && f.Output.relation == f {
		f.Output.relation = nil
	}
}

// Formula is a relation created through CreateFormula. Output is the
// parameter the formula drives and Body the relation expression.
type Formula struct {
	Name    string
	Comment string
	Body    string
	Output  *Parameter

	rels *Relations
}

func (f *Formula) class() string { return "Formula" }

func (f *Formula) get(property string, args []any) (any, error) {
	switch property {
	case "Name":
		return f.Name, nil
	case "Comment":
		return f.Comment, nil
	case "Parent":
		return f.rels, nil
	}
	return nil, notFound(property)
}

func (f *Formula) put(property string, value any) error {
	return notFound(property)
}

func (f *Formula) call(method string, args []any) (any, error) {
	return nil, notFound(method)
}
