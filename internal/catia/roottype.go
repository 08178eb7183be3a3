package catia

import "fmt"

// RootType identifies the kind of document the bridge can drive
type RootType string

const (
	// RootAnalysis is an analysis document, rooted at its Analysis object
	RootAnalysis RootType = "analysis"
	// RootPart is a part document, rooted at its Part object
	RootPart RootType = "part"
	// RootProduct is an assembly document, rooted at its Product object
	RootProduct RootType = "product"
)

// UnrecognizedDocumentError reports a document class with no known root object
type UnrecognizedDocumentError struct {
	Class string
}

func (e *UnrecognizedDocumentError) Error() string {
	return fmt.Sprintf("unrecognized document type: %s", e.Class)
}

// RootTypeFromDocClass maps an automation document class name to a RootType
func RootTypeFromDocClass(class string) (RootType, error) {
	switch class {
	case "AnalysisDocument":
		return RootAnalysis, nil
	case "PartDocument":
		return RootPart, nil
	case "ProductDocument":
		return RootProduct, nil
	default:
		return "", &UnrecognizedDocumentError{Class: class}
	}
}

// rootProperty names the document property holding the root object
func (rt RootType) rootProperty() string {
	switch rt {
	case RootAnalysis:
		return "Analysis"
	case RootPart:
		return "Part"
	case RootProduct:
		return "Product"
	}
	return ""
}

// RootObject classifies a document by its automation class and returns
// the root object parameters and relations hang off of. The caller owns
// the returned handle.
func RootObject(doc Object) (Object, RootType, error) {
	class, err := doc.TypeName()
	if err != nil {
		return nil, "", fmt.Errorf("document type: %w", err)
	}
	rt, err := RootTypeFromDocClass(class)
	if err != nil {
		return nil, "", err
	}
	root, err := GetObject(doc, rt.rootProperty())
	if err != nil {
		return nil, "", fmt.Errorf("%s root: %w", rt, err)
	}
	return root, rt, nil
}
