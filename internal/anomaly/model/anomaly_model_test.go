package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected Method
		err      error
	}{
		{name: "wire_z_score", in: "z_score", expected: MethodZScore},
		{name: "wire_iqr", in: "iqr", expected: MethodIQR},
		{name: "wire_rolling_mean", in: "rolling_mean", expected: MethodRollingMean},
		{name: "wire_lof", in: "lof", expected: MethodLOF},
		{name: "canonical", in: "RollingMean", expected: MethodRollingMean},
		{name: "negative_unknown", in: "prophet", err: ErrUnsupportedMethod},
		{name: "negative_empty", in: "", err: ErrUnsupportedMethod},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ParseMethod(test.in)
			if !errors.Is(err, test.err) {
				t.Fatalf("parse method error, got: %v, expected: %v", err, test.err)
			}
			if got != test.expected {
				t.Errorf("parse method, got: %v, expected: %v", got, test.expected)
			}
		})
	}
}

func TestAnomaly_JSON(t *testing.T) {
	a := NewAnomaly("b1", time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), 10, 4, SeverityError, MethodIQR)
	b, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(b, &fields); err != nil {
		t.Fatal(err)
	}
	if fields["severity"] != "Error" {
		t.Errorf("severity field, got: %v, expected: %v", fields["severity"], "Error")
	}
	if fields["detection_method"] != "IQR" {
		t.Errorf("method field, got: %v, expected: %v", fields["detection_method"], "IQR")
	}

	var back Anomaly
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back.Key() != a.Key() {
		t.Errorf("key, got: %v, expected: %v", back.Key(), a.Key())
	}
}

func TestKey(t *testing.T) {
	got := Key(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), "north wing", MethodZScore)
	if got != "2024-01-02|north wing|ZScore" {
		t.Errorf("key, got: %v, expected: %v", got, "2024-01-02|north wing|ZScore")
	}
}
