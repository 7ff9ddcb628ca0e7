package core

import (
	"testing"

	"k8s.io/utils/ptr"
)

func TestParseGPUType(t *testing.T) {
	tests := []struct {
		in        string
		want      GPUType
		wantClass GPUType
	}{
		{"A100", GPUA100, GPUA100},
		{"NVIDIA H100", GPUH100, GPUH100},
		{"nvidia-v100", GPUV100, GPUV100},
		{"RTX 4090", GPURTX4090, GPURTX4090},
		{" T4 ", "t4", GPUOther},
		{"", GPUOther, GPUOther},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseGPUType(tt.in)
			if got != tt.want {
				t.Errorf("ParseGPUType(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if got.Class() != tt.wantClass {
				t.Errorf("Class() = %q, want %q", got.Class(), tt.wantClass)
			}
		})
	}
}

func TestEnumsValid(t *testing.T) {
	for _, m := range PricingModes {
		if !m.Valid() {
			t.Errorf("pricing mode %q not valid", m)
		}
	}
	if PricingMode("hourly").Valid() || Objective("x").Valid() || ConstraintType("x").Valid() || Operator("<").Valid() {
		t.Error("unknown enum value accepted")
	}
	if !Reserved3Y.IsReserved() || Spot.IsReserved() {
		t.Error("IsReserved() mismatch")
	}
	if !StatusFailed.Terminal() || StatusRunning.Terminal() {
		t.Error("Terminal() mismatch")
	}
	if ProviderKey("  AWS ") != "aws" {
		t.Error("ProviderKey() does not normalize")
	}
}

func TestInstanceOption_PriceAndAvailability(t *testing.T) {
	o := &InstanceOption{
		ProviderID:       "aws",
		InstanceTypeID:   "p4d.24xlarge",
		Region:           "us-east-1",
		GPUCount:         8,
		GPUMemoryGB:      40,
		OnDemandPrice:    ptr.To(32.77),
		Reserved1YPrice:  ptr.To(19.22),
		SpotAvailability: ptr.To(0.7),
	}
	if p, ok := o.Price(Reserved1Y); !ok || p != 19.22 {
		t.Errorf("Price(reserved_1y) = %v, %v", p, ok)
	}
	if _, ok := o.Price(Spot); ok {
		t.Error("Price(spot) offered without a spot price")
	}
	if a, ok := o.Availability(Reserved3Y); !ok || a != 1 {
		t.Errorf("Availability(reserved_3y) = %v, %v", a, ok)
	}
	if a, ok := o.Availability(Spot); !ok || a != 0.7 {
		t.Errorf("Availability(spot) = %v, %v", a, ok)
	}
	if _, ok := o.Availability(OnDemand); ok {
		t.Error("Availability(on_demand) known without data")
	}
	if o.TotalGPUMemoryGB() != 320 {
		t.Errorf("TotalGPUMemoryGB() = %v", o.TotalGPUMemoryGB())
	}
	if o.Key() != "aws/p4d.24xlarge/us-east-1/" {
		t.Errorf("Key() = %q", o.Key())
	}

	extras := Extras{}
	extras.Set(o, "placementGroup", "cluster")
	if v, ok := extras.Get(o, "placementGroup"); !ok || v != "cluster" {
		t.Errorf("Extras.Get() = %q, %v", v, ok)
	}
	if _, ok := extras.Get(&InstanceOption{}, "placementGroup"); ok {
		t.Error("Extras.Get() found attribute of another option")
	}
}
