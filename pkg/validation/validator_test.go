package validation

import (
	"strings"
	"testing"
)

// TestValidateName tests name syntax rules
func TestValidateName(t *testing.T) {
	valid := []string{"wind", "co2_source", "electrolyzer", "Node1", "a"}
	for _, name := range valid {
		if err := ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) failed: %v", name, err)
		}
	}

	invalid := []string{"", "1wind", "_wind", "wind turbine", "wind-turbine", "wind.demand", strings.Repeat("a", 101)}
	for _, name := range invalid {
		if err := ValidateName(name); err == nil {
			t.Errorf("ValidateName(%q) should have failed", name)
		}
	}
}

// TestValidateNodeParams tests node parameter ranges
func TestValidateNodeParams(t *testing.T) {
	params := &NodeParams{Name: "wind", Costs: 10}
	if err := ValidateNodeParams(params); err != nil {
		t.Fatalf("valid params rejected: %v", err)
	}

	if err := ValidateNodeParams(nil); err == nil {
		t.Error("nil params should be rejected")
	}

	tests := []struct {
		name   string
		params NodeParams
		substr string
	}{
		{"empty name", NodeParams{Name: ""}, "Name"},
		{"bad name", NodeParams{Name: "wind farm"}, "Name"},
		{"negative costs", NodeParams{Name: "wind", Costs: -1}, "Costs"},
		{"negative flow costs", NodeParams{Name: "wind", InputFlowCosts: -0.5}, "InputFlowCosts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNodeParams(&tt.params)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("error %q should mention %s", err.Error(), tt.substr)
			}
		})
	}
}

// TestValidateStorageParams tests storage parameter ranges
func TestValidateStorageParams(t *testing.T) {
	valid := []StorageParams{
		{Costs: 5, MaxChargingSpeed: 1},
		{Costs: 0, MaxChargingSpeed: 0.25, StorageLoss: 0.1, ChargingLoss: 0.05},
		{MaxChargingSpeed: 0.5, InitialLevel: 3},
	}
	for i, params := range valid {
		p := params
		if err := ValidateStorageParams(&p); err != nil {
			t.Errorf("valid params %d rejected: %v", i, err)
		}
	}

	if err := ValidateStorageParams(nil); err == nil {
		t.Error("nil params should be rejected")
	}

	tests := []struct {
		name   string
		params StorageParams
		substr string
	}{
		{"zero charging speed", StorageParams{MaxChargingSpeed: 0}, "MaxChargingSpeed"},
		{"charging speed above one", StorageParams{MaxChargingSpeed: 1.5}, "MaxChargingSpeed"},
		{"negative costs", StorageParams{Costs: -1, MaxChargingSpeed: 1}, "Costs"},
		{"storage loss of one", StorageParams{MaxChargingSpeed: 1, StorageLoss: 1}, "StorageLoss"},
		{"negative storage loss", StorageParams{MaxChargingSpeed: 1, StorageLoss: -0.1}, "StorageLoss"},
		{"charging loss of one", StorageParams{MaxChargingSpeed: 1, ChargingLoss: 1}, "ChargingLoss"},
		{"negative initial level", StorageParams{MaxChargingSpeed: 1, InitialLevel: -2}, "InitialLevel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStorageParams(&tt.params)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("error %q should mention %s", err.Error(), tt.substr)
			}
		})
	}
}
