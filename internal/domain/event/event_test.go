package event

import (
	"testing"
	"time"
)

func TestNewCostThreshold(t *testing.T) {
	at := time.Unix(1700000000, 0)
	e := NewCostThreshold(at, 8, 10)
	if e.Kind != KindCostThreshold {
		t.Errorf("Kind = %q", e.Kind)
	}
	if e.ID == "" {
		t.Error("ID is empty")
	}
	if e.CostThreshold == nil || e.CostThreshold.Fraction != 0.8 {
		t.Errorf("CostThreshold = %+v", e.CostThreshold)
	}
	if e.Degraded != nil {
		t.Error("Degraded payload must be nil")
	}
}

func TestNewDegraded(t *testing.T) {
	e := NewDegraded(time.Unix(0, 0), Degraded{UserID: "u1", Stale: true})
	if e.Kind != KindDegradedResult || e.Degraded == nil || !e.Degraded.Stale {
		t.Errorf("event = %+v", e)
	}
	if e2 := NewDegraded(time.Unix(0, 0), Degraded{}); e2.ID == e.ID {
		t.Error("event ids must be unique")
	}
}
