package dispatch

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestCheckOwnerAllowsOwner(t *testing.T) {
	id := uuid.New()
	if err := CheckOwner(id, id, "Reader", id.String(), "Get Outbox"); err != nil {
		t.Errorf("Expected nil for matching principal, got %v", err)
	}
}

func TestCheckOwnerDeniesOthers(t *testing.T) {
	owner := uuid.New()
	intruder := uuid.New()

	err := CheckOwner(intruder, owner, "Reader", owner.String(), "Get Outbox")
	if err == nil {
		t.Fatal("Expected denial for mismatched principal")
	}
	if err.StatusCode != 403 {
		t.Errorf("Expected status 403, got %d", err.StatusCode)
	}
	if err.Details.Type != "Reader" {
		t.Errorf("Expected details type 'Reader', got '%s'", err.Details.Type)
	}
	if err.Details.Id != owner.String() {
		t.Errorf("Expected details id '%s', got '%s'", owner, err.Details.Id)
	}
	if err.Details.Activity != "Get Outbox" {
		t.Errorf("Expected details activity 'Get Outbox', got '%s'", err.Details.Activity)
	}
	if !strings.Contains(err.Message, "disallowed") {
		t.Errorf("Expected denial message, got '%s'", err.Message)
	}
}

func TestCheckOwnerCarriesResourceContext(t *testing.T) {
	err := CheckOwner(uuid.New(), uuid.New(), "Publication", "https://example.com/publication-x", "Delete Publication")
	if err == nil {
		t.Fatal("Expected denial")
	}
	if err.Details.Type != "Publication" {
		t.Errorf("Expected details type 'Publication', got '%s'", err.Details.Type)
	}
	if !strings.Contains(err.Message, "publication") {
		t.Errorf("Expected message naming the resource kind, got '%s'", err.Message)
	}
}
