package catia

import (
	"fmt"

	"github.com/GoSim-25-26J-441/catia-bridge/pkg/logger"
)

// LoadDocument resolves the document at path, reusing the instance the
// application already has loaded when there is one. Paths are passed to
// the application verbatim, so callers supply them in the form the
// application resolves (absolute windows paths in practice).
//
// Loaded documents are found through the STI engine's lookup table. A
// document that is not loaded shows up there as an entry that is its
// own parent, in which case the document is opened fresh with file
// alert dialogs suppressed. readOnly selects Documents.Read over
// Documents.Open.
func LoadDocument(app Object, path string, readOnly bool) (Object, error) {
	engine, err := CallObject(app, "GetItem", "CAIEngine")
	if err != nil {
		return nil, fmt.Errorf("sti engine lookup: %w", err)
	}
	defer engine.Release()

	item, err := CallObject(engine, "GetStiDBItemFromCATBSTR", path)
	if err != nil {
		return nil, fmt.Errorf("sti db lookup for %s: %w", path, err)
	}
	defer item.Release()

	parent, err := GetObject(item, "Parent")
	if err != nil {
		return nil, fmt.Errorf("sti db item parent for %s: %w", path, err)
	}
	defer parent.Release()

	// An unloaded document is its own parent in the STI DB
	if parent.Same(item) {
		return openDocument(app, path, readOnly)
	}

	doc, err := CallObject(item, "GetDocument")
	if err != nil {
		return nil, fmt.Errorf("loaded document for %s: %w", path, err)
	}
	return doc, nil
}

func openDocument(app Object, path string, readOnly bool) (Object, error) {
	alerts, err := GetBool(app, "DisplayFileAlerts")
	if err != nil {
		return nil, fmt.Errorf("read file alerts setting: %w", err)
	}
	if err := app.Put("DisplayFileAlerts", false); err != nil {
		return nil, fmt.Errorf("suppress file alerts: %w", err)
	}
	defer func() {
		if err := app.Put("DisplayFileAlerts", alerts); err != nil {
			logger.Warn("failed to restore file alerts setting", "error", err)
		}
	}()

	docs, err := GetObject(app, "Documents")
	if err != nil {
		return nil, fmt.Errorf("documents collection: %w", err)
	}
	defer docs.Release()

	method := "Open"
	if readOnly {
		method = "Read"
	}
	doc, err := CallObject(docs, method, path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return doc, nil
}
