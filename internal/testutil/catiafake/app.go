package catiafake

import (
	"fmt"

	"github.com/GoSim-25-26J-441/catia-bridge/internal/catia"
)

// App is the fake application, the root of the automation tree
type App struct {
	Caption           string
	Visible           bool
	DisplayFileAlerts bool
	// OpenErr fails Documents.Open and Documents.Read
	OpenErr error
	// QuitCalled records that the application was asked to exit
	QuitCalled bool

	dead    bool
	docs    map[string]*Document
	docList *documents
	entries map[string]*stiEntry
}

// NewApp builds an application with no documents
func NewApp() *App {
	a := &App{
		Caption:           "CATIA V5",
		DisplayFileAlerts: true,
		docs:              make(map[string]*Document),
		entries:           make(map[string]*stiEntry),
	}
	a.docList = &documents{app: a}
	return a
}

// Object returns the application automation handle
func (a *App) Object() catia.Object {
	return wrap(a)
}

// AddDocument registers a document the application can open. Documents
// start unloaded; Documents.Open or the STI lookup loads them.
func (a *App) AddDocument(path string, kind DocKind, params ...*Parameter) *Document {
	doc := newDocument(a, path, kind, params)
	a.docs[path] = doc
	return doc
}

// Document finds a registered document by path
func (a *App) Document(path string) *Document {
	return a.docs[path]
}

// Kill makes every application member fail, as if the process died
func (a *App) Kill() {
	a.dead = true
}

// entry returns the per-path STI lookup row, creating it on first use
// so repeated lookups share identity
func (a *App) entry(path string) *stiEntry {
	e, ok := a.entries[path]
	if !ok {
		e = &stiEntry{app: a, path: path}
		a.entries[path] = e
	}
	return e
}

func (a *App) class() string { return "Application" }

func (a *App) get(property string, args []any) (any, error) {
	if a.dead {
		return nil, catia.ErrNotConnected
	}
	switch property {
	case "Caption":
		return a.Caption, nil
	case "Visible":
		return a.Visible, nil
	case "DisplayFileAlerts":
		return a.DisplayFileAlerts, nil
	case "Documents":
		return a.docList, nil
	}
	return nil, notFound(property)
}

func (a *App) put(property string, value any) error {
	if a.dead {
		return catia.ErrNotConnected
	}
	switch property {
	case "Visible":
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("Visible: expected bool, got %T", value)
		}
		a.Visible = b
		return nil
	case "DisplayFileAlerts":
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("DisplayFileAlerts: expected bool, got %T", value)
		}
		a.DisplayFileAlerts = b
		return nil
	}
	return notFound(property)
}

func (a *App) call(method string, args []any) (any, error) {
	if a.dead {
		return nil, catia.ErrNotConnected
	}
	switch method {
	case "GetItem":
		if len(args) == 1 && args[0] == "CAIEngine" {
			return &stiEngine{app: a}, nil
		}
		return nil, methodFailed("GetItem")
	case "Quit":
		a.QuitCalled = true
		a.dead = true
		return nil, nil
	}
	return nil, notFound(method)
}

// stiEngine answers the CAIEngine GetItem lookup
type stiEngine struct {
	app *App
}

func (e *stiEngine) class() string { return "StiEngine" }

func (e *stiEngine) get(property string, args []any) (any, error) {
	return nil, notFound(property)
}

func (e *stiEngine) put(property string, value any) error {
	return notFound(property)
}

func (e *stiEngine) call(method string, args []any) (any, error) {
	switch method {
	case "GetStiDBItemFromCATBSTR":
		if len(args) != 1 {
			return nil, methodFailed(method)
		}
		path, ok := args[0].(string)
		if !ok {
			return nil, methodFailed(method)
		}
		return e.app.entry(path), nil
	}
	return nil, notFound(method)
}

// stiEntry is one row of the STI document lookup table. An unloaded
// document's row is its own parent, the quirk LoadDocument keys off.
type stiEntry struct {
	app  *App
	path string
}

func (e *stiEntry) class() string { return "StiDBItem" }

func (e *stiEntry) get(property string, args []any) (any, error) {
	switch property {
	case "Parent":
		if doc := e.app.docs[e.path]; doc != nil && doc.Loaded {
			return doc, nil
		}
		return e, nil
	}
	return nil, notFound(property)
}

func (e *stiEntry) put(property string, value any) error {
	return notFound(property)
}

func (e *stiEntry) call(method string, args []any) (any, error) {
	switch method {
	case "GetDocument":
		doc := e.app.docs[e.path]
		if doc == nil || !doc.Loaded {
			return nil, methodFailed(method)
		}
		return doc, nil
	}
	return nil, notFound(method)
}

// documents mirrors the application's Documents collection
type documents struct {
	app *App
}

func (d *documents) class() string { return "Documents" }

func (d *documents) get(property string, args []any) (any, error) {
	switch property {
	case "Count":
		n := 0
		for _, doc := range d.app.docs {
			if doc.Loaded {
				n++
			}
		}
		return n, nil
	}
	return nil, notFound(property)
}

func (d *documents) put(property string, value any) error {
	return notFound(property)
}

func (d *documents) call(method string, args []any) (any, error) {
	switch method {
	case "Open", "Read":
		if len(args) != 1 {
			return nil, methodFailed(method)
		}
		path, ok := args[0].(string)
		if !ok {
			return nil, methodFailed(method)
		}
		if d.app.OpenErr != nil {
			return nil, d.app.OpenErr
		}
		doc := d.app.docs[path]
		if doc == nil {
			return nil, fmt.Errorf("cannot open document %s", path)
		}
		doc.Loaded = true
		doc.ReadOnly = method == "Read"
		doc.OpenedWithAlertsOff = !d.app.DisplayFileAlerts
		doc.Opens++
		return doc, nil
	}
	return nil, notFound(method)
}
