package validation

import (
	"strings"
	"testing"
)

func TestConfigValidatorCollectsAllErrors(t *testing.T) {
	err := NewConfigValidator("Options").
		GreaterThanFloat("MaximumDistanceFactor", 0.9, 1.0).
		HalfOpenUnitFloat("MinimumAngleFactor", 1.2).
		Positive("Workers", -1).
		Err()
	if err == nil {
		t.Fatal("Expected aggregated validation error")
	}
	for _, frag := range []string{"MaximumDistanceFactor", "MinimumAngleFactor", "Workers"} {
		if !strings.Contains(err.Error(), frag) {
			t.Errorf("Error should mention %s: %v", frag, err)
		}
	}
}

func TestConfigValidatorPasses(t *testing.T) {
	err := NewConfigValidator("Options").
		GreaterThanFloat("MaximumDistanceFactor", 2.0, 1.0).
		HalfOpenUnitFloat("MinimumAngleFactor", 0.05).
		PositiveFloat("DistanceCutoff", 10).
		RangeFloat("HintThreshold", 30, 0, 100).
		NonNegative("MaxHintSteps", 3).
		Err()
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

type taggedConfig struct {
	DistanceCutoff float64 `validate:"required,gt=1"`
	AngleCutoff    float64 `validate:"gte=0,lt=1"`
}

func TestStructTags(t *testing.T) {
	if err := Struct(taggedConfig{DistanceCutoff: 1.4, AngleCutoff: 0.3}); err != nil {
		t.Errorf("Valid config rejected: %v", err)
	}
	err := Struct(taggedConfig{DistanceCutoff: 0.5, AngleCutoff: 1.5})
	if err == nil {
		t.Fatal("Expected validation failure")
	}
	if !strings.Contains(err.Error(), "DistanceCutoff") {
		t.Errorf("Error should name the failing field: %v", err)
	}
}

func TestStructNil(t *testing.T) {
	if err := Struct(nil); err == nil {
		t.Error("Nil config must be rejected")
	}
}
