package bridge

import (
	"context"
	"strings"
	"testing"

	"github.com/GoSim-25-26J-441/catia-bridge/internal/catia"
	"github.com/GoSim-25-26J-441/catia-bridge/internal/testutil/catiafake"
	"github.com/GoSim-25-26J-441/catia-bridge/pkg/config"
	"github.com/GoSim-25-26J-441/catia-bridge/pkg/models"
)

const docPath = `C:\models\bracket.CATPart`

func newTestApp(t *testing.T) (*catiafake.App, *catiafake.Root) {
	t.Helper()
	app := catiafake.NewApp()
	doc := app.AddDocument(docPath, catiafake.Part,
		catiafake.Dim("PadHeight", 50, "mm", "LENGTH"),
		catiafake.Dim("FaceArea", 2, "m2", "AREA"),
		catiafake.Real("Ratio", 0.4),
		catiafake.Int("HoleCount", 3),
		catiafake.Bool("Mirrored", true),
		catiafake.Str("Material", "steel"),
		catiafake.Dim("Mass", 12.5, "kg", "MASS"),
	)
	return app, doc.Root()
}

func session(t *testing.T, app *catiafake.App) *catia.Session {
	t.Helper()
	return catia.NewSession(app.Object(), "")
}

func setUp(t *testing.T, app *catiafake.App, opts Options) *Component {
	t.Helper()
	c, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Setup(context.Background(), session(t, app)); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	return c
}

func boolPtr(b bool) *bool { return &b }

func valPtr(v models.Value) *models.Value { return &v }

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr string
	}{
		{
			name:    "missing path",
			opts:    Options{Inputs: map[string]config.VarSpec{"PadHeight": {Name: "pad"}}},
			wantErr: "path is required",
		},
		{
			name:    "no variables",
			opts:    Options{Path: docPath},
			wantErr: "at least one variable",
		},
		{
			name:    "missing variable name",
			opts:    Options{Path: docPath, Inputs: map[string]config.VarSpec{"PadHeight": {}}},
			wantErr: "name is required",
		},
		{
			name: "duplicate variable name",
			opts: Options{
				Path:    docPath,
				Inputs:  map[string]config.VarSpec{"PadHeight": {Name: "x"}},
				Outputs: map[string]config.VarSpec{"Mass": {Name: "x"}},
			},
			wantErr: "mapped to both",
		},
		{
			name: "reflected name collides",
			opts: Options{
				Path:          docPath,
				Inputs:        map[string]config.VarSpec{"PadHeight": {Name: "pad"}},
				ReflectInputs: map[string]string{"pad": "PadHeight"},
			},
			wantErr: "mapped to both",
		},
		{
			name: "reflected without parameter",
			opts: Options{
				Path:          docPath,
				ReflectInputs: map[string]string{"pad": ""},
			},
			wantErr: "parameter name is required",
		},
		{
			name: "valid",
			opts: Options{Path: docPath, Inputs: map[string]config.VarSpec{"PadHeight": {Name: "pad"}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("New: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("New error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestOptionsFromSpec(t *testing.T) {
	spec := config.ModelSpec{
		Path:     docPath,
		ReadOnly: true,
		Inputs:   map[string]config.VarSpec{"PadHeight": {Name: "pad_height"}},
		Outputs:  map[string]config.VarSpec{"Mass": {Name: "mass"}},
		Reflect: &config.ReflectSpec{
			Inputs: map[string]string{"mirror": "Ratio"},
		},
	}
	opts := OptionsFromSpec(spec)
	if opts.Path != docPath || !opts.ReadOnly {
		t.Fatalf("opts = %+v", opts)
	}
	if opts.Inputs["PadHeight"].Name != "pad_height" {
		t.Fatalf("inputs = %+v", opts.Inputs)
	}
	if opts.ReflectInputs["mirror"] != "Ratio" {
		t.Fatalf("reflect inputs = %+v", opts.ReflectInputs)
	}
	if len(opts.ReflectOutputs) != 0 {
		t.Fatalf("reflect outputs = %+v", opts.ReflectOutputs)
	}
}

func TestOptionsFromSpecWithoutReflect(t *testing.T) {
	opts := OptionsFromSpec(config.ModelSpec{
		Path:   docPath,
		Inputs: map[string]config.VarSpec{"PadHeight": {Name: "pad"}},
	})
	if opts.ReflectInputs != nil || opts.ReflectOutputs != nil {
		t.Fatalf("opts = %+v", opts)
	}
}
