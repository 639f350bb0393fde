package utils

import (
	"errors"
	"fmt"
	"testing"
)

func TestFieldErrors_AggregatesAndKeepsFirstMessage(t *testing.T) {
	errs := FieldErrors{}
	if errs.Err() != nil {
		t.Fatalf("expected nil error for empty field set")
	}
	errs.Add("details[0].uomId", "Invalid uomId")
	errs.Add("details[0].uomId", "UOM not in product unit category")
	errs.Add("details[1].quantity", "quantity must be greater than zero")

	err := errs.Err()
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	fields := ValidationFields(err)
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields["details[0].uomId"] != "Invalid uomId" {
		t.Fatalf("expected first message to win, got %q", fields["details[0].uomId"])
	}
	expected := "Validation failed: details[0].uomId: Invalid uomId; details[1].quantity: quantity must be greater than zero"
	if err.Error() != expected {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestErrorKinds(t *testing.T) {
	nf := NewNotFoundError("purchase order", 7)
	if !IsNotFound(nf) || !errors.Is(nf, ErrorRecordNotFound) {
		t.Fatalf("expected not found error to match ErrorRecordNotFound")
	}
	if nf.Error() != "purchase order 7 not found" {
		t.Fatalf("unexpected message %q", nf.Error())
	}

	conflict := fmt.Errorf("delete: %w", NewConflictError("Cannot delete GRN with status %s", "COMPLETE"))
	if !IsConflict(conflict) || IsValidation(conflict) || IsNotFound(conflict) {
		t.Fatalf("expected wrapped conflict to be detected")
	}
}
