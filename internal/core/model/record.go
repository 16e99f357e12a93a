package model

import "time"

// PatientRecord is one observation row from the medical_records table.
// Vitals holds the dynamic vitals_* columns keyed by their full column
// name (e.g. "vitals_HR"), so rule signals can address them directly.
type PatientRecord struct {
	PatientID   string            `json:"patient_id"`
	Datetime    time.Time         `json:"datetime"`
	Condition   string            `json:"condition,omitempty"`
	Vitals      map[string]string `json:"vitals,omitempty"`
	Medications string            `json:"medications,omitempty"`
}

// Signal resolves a rule's signal name against this record. Vitals are
// addressed by column name; "condition" and "medications" are also valid
// signals so categorical rules can inspect them.
func (r PatientRecord) Signal(name string) (string, bool) {
	switch name {
	case "condition":
		if r.Condition == "" {
			return "", false
		}
		return r.Condition, true
	case "medications":
		if r.Medications == "" {
			return "", false
		}
		return r.Medications, true
	}
	v, ok := r.Vitals[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
