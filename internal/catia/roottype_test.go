package catia_test

import (
	"errors"
	"testing"

	"github.com/GoSim-25-26J-441/catia-bridge/internal/catia"
	"github.com/GoSim-25-26J-441/catia-bridge/internal/testutil/catiafake"
)

func TestRootTypeFromDocClass(t *testing.T) {
	tests := []struct {
		class string
		want  catia.RootType
	}{
		{"AnalysisDocument", catia.RootAnalysis},
		{"PartDocument", catia.RootPart},
		{"ProductDocument", catia.RootProduct},
	}

	for _, tt := range tests {
		got, err := catia.RootTypeFromDocClass(tt.class)
		if err != nil {
			t.Errorf("RootTypeFromDocClass(%q) error = %v", tt.class, err)
			continue
		}
		if got != tt.want {
			t.Errorf("RootTypeFromDocClass(%q) = %q, want %q", tt.class, got, tt.want)
		}
	}
}

func TestRootTypeFromDocClassUnrecognized(t *testing.T) {
	_, err := catia.RootTypeFromDocClass("DrawingDocument")
	if err == nil {
		t.Fatal("expected error for an unrecognized class")
	}
	var docErr *catia.UnrecognizedDocumentError
	if !errors.As(err, &docErr) {
		t.Fatalf("error type = %T, want *UnrecognizedDocumentError", err)
	}
	if docErr.Class != "DrawingDocument" {
		t.Errorf("Class = %q, want DrawingDocument", docErr.Class)
	}
	want := "unrecognized document type: DrawingDocument"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestRootObject(t *testing.T) {
	tests := []struct {
		kind catiafake.DocKind
		want catia.RootType
	}{
		{catiafake.Part, catia.RootPart},
		{catiafake.Product, catia.RootProduct},
		{catiafake.Analysis, catia.RootAnalysis},
	}

	for _, tt := range tests {
		app := catiafake.NewApp()
		doc := app.AddDocument(`C:\models\m`, tt.kind)

		root, rt, err := catia.RootObject(doc.Object())
		if err != nil {
			t.Errorf("RootObject(%s) error = %v", tt.kind, err)
			continue
		}
		if rt != tt.want {
			t.Errorf("RootObject(%s) type = %q, want %q", tt.kind, rt, tt.want)
		}
		if _, err := root.Get("Parameters"); err != nil {
			t.Errorf("root of %s has no Parameters: %v", tt.kind, err)
		}
	}
}

func TestRootObjectUnrecognized(t *testing.T) {
	app := catiafake.NewApp()
	doc := app.AddDocument(`C:\models\sheet.CATDrawing`, catiafake.DocKind("DrawingDocument"))

	_, _, err := catia.RootObject(doc.Object())
	var docErr *catia.UnrecognizedDocumentError
	if !errors.As(err, &docErr) {
		t.Fatalf("error = %v, want *UnrecognizedDocumentError", err)
	}
}
