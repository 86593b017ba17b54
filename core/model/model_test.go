package model

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/matpipe/matpipe/pkg/errors"
)

func TestStateManager(t *testing.T) {
	s := NewStateManager()
	err := s.RequireFitted("LinearRegression", "Predict")
	var nf *errors.NotFittedError
	if !errors.As(err, &nf) {
		t.Fatalf("got %v, want NotFittedError", err)
	}
	if nf.Method != "Predict" {
		t.Errorf("Method = %q", nf.Method)
	}

	s.SetFitted()
	s.SetDimensions(4, 100)
	if err := s.RequireFitted("LinearRegression", "Predict"); err != nil {
		t.Fatalf("unexpected error after SetFitted: %v", err)
	}
	if err := s.RequireFeatures("Predict", 4); err != nil {
		t.Errorf("RequireFeatures(4) = %v", err)
	}
	var de *errors.DimensionError
	if err := s.RequireFeatures("Predict", 3); !errors.As(err, &de) || de.Axis != 1 {
		t.Errorf("RequireFeatures(3) = %v, want feature DimensionError", err)
	}

	state := s.GetState()
	if !state.Fitted || state.NFeatures != 4 || state.NSamples != 100 {
		t.Errorf("GetState = %+v", state)
	}

	s.Reset()
	if s.IsFitted() {
		t.Error("Reset did not clear the fitted flag")
	}
	s.SetState(state)
	if f, n := s.GetDimensions(); !s.IsFitted() || f != 4 || n != 100 {
		t.Errorf("SetState restored fitted=%v dims=(%d,%d)", s.IsFitted(), f, n)
	}
}

func TestModelWeightsValidate(t *testing.T) {
	tests := []struct {
		name    string
		weights ModelWeights
		wantErr bool
	}{
		{"valid", ModelWeights{ModelType: "LinearRegression", Version: WeightsVersion, Coefficients: []float64{1, 2}, IsFitted: true}, false},
		{"missing type", ModelWeights{Version: WeightsVersion}, true},
		{"missing version", ModelWeights{ModelType: "Ridge"}, true},
		{"unfitted with coefficients", ModelWeights{ModelType: "Ridge", Version: WeightsVersion, Coefficients: []float64{1}}, true},
		{"fitted without coefficients", ModelWeights{ModelType: "Ridge", Version: WeightsVersion, IsFitted: true}, true},
		{"feature count mismatch", ModelWeights{ModelType: "Ridge", Version: WeightsVersion, IsFitted: true, Coefficients: []float64{1, 2}, Features: []string{"a"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestModelWeightsJSONAndClone(t *testing.T) {
	mw := &ModelWeights{
		ModelType:       "LinearRegression",
		Version:         WeightsVersion,
		Coefficients:    []float64{0.5, -1.25},
		Intercept:       3,
		Features:        []string{"density__density", "density__vpa"},
		Hyperparameters: map[string]interface{}{"fit_intercept": true},
		IsFitted:        true,
	}
	data, err := mw.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	var back ModelWeights
	if err := back.FromJSON(data); err != nil {
		t.Fatal(err)
	}
	if back.Intercept != 3 || back.Features[1] != "density__vpa" || back.Hyperparameters["fit_intercept"] != true {
		t.Errorf("decoded weights = %+v", back)
	}

	clone := mw.Clone()
	clone.Coefficients[0] = 99
	clone.Hyperparameters["fit_intercept"] = false
	if mw.Coefficients[0] != 0.5 || mw.Hyperparameters["fit_intercept"] != true {
		t.Error("Clone shares state with the original")
	}

	path := filepath.Join(t.TempDir(), "weights.json")
	if err := mw.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

type persisted struct {
	Name  string
	Coefs []float64
}

func TestSaveLoadModel(t *testing.T) {
	in := persisted{Name: "ridge", Coefs: []float64{1, 2, 3}}
	path := filepath.Join(t.TempDir(), "model.gob")
	if err := SaveModel(&in, path); err != nil {
		t.Fatalf("SaveModel: %v", err)
	}
	var out persisted
	if err := LoadModel(&out, path); err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if out.Name != in.Name || len(out.Coefs) != 3 || out.Coefs[2] != 3 {
		t.Errorf("round trip = %+v", out)
	}

	if err := LoadModel(&out, filepath.Join(t.TempDir(), "absent.gob")); err == nil {
		t.Error("expected error for a missing file")
	}
	if err := LoadModelFromReader(&out, bytes.NewReader([]byte("not gob"))); err == nil {
		t.Error("expected decode error")
	}
}

func TestParamConversions(t *testing.T) {
	if v, err := ParamFloat("alpha", 2); err != nil || v != 2 {
		t.Errorf("ParamFloat(int) = %v, %v", v, err)
	}
	if _, err := ParamFloat("alpha", "x"); err == nil {
		t.Error("ParamFloat(string) should fail")
	}
	if v, err := ParamInt("n", 3.0); err != nil || v != 3 {
		t.Errorf("ParamInt(3.0) = %v, %v", v, err)
	}
	if _, err := ParamInt("n", 3.5); err == nil {
		t.Error("ParamInt(3.5) should fail")
	}
	if _, err := ParamBool("fit_intercept", 1); err == nil {
		t.Error("ParamBool(int) should fail")
	}
	var ve *errors.ValidationError
	if err := UnknownParam("Ridge", "beta", 1.0); !errors.As(err, &ve) || ve.ParamName != "beta" {
		t.Errorf("UnknownParam = %v", err)
	}
}
