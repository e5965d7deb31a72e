package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestLeadStatus_Label(t *testing.T) {
	tests := []struct {
		status LeadStatus
		want   string
	}{
		{LeadStatusNew, "New"},
		{LeadStatusProposal, "Proposal"},
		{LeadStatusLost, "Lost"},
		{LeadStatus("archived"), "archived"},
		{LeadStatus(""), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.status.Label(); got != tt.want {
			t.Errorf("LeadStatus(%q).Label() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestLead_UnknownStatusDecodes(t *testing.T) {
	var l Lead
	if err := json.Unmarshal([]byte(`{"id":"l1","company_name":"Acme","status":"archived"}`), &l); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if l.Status.Valid() {
		t.Error("archived should not be a valid status")
	}
	if got := l.Status.Label(); got != "archived" {
		t.Errorf("Label() = %q, want %q", got, "archived")
	}
}

func TestParseLeadStatus(t *testing.T) {
	s, err := ParseLeadStatus(" Won ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != LeadStatusWon {
		t.Errorf("status = %q, want %q", s, LeadStatusWon)
	}

	_, err = ParseLeadStatus("archived")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestLead_OptionalFieldLabels(t *testing.T) {
	l := Lead{CompanyName: "Acme Corp", Status: LeadStatusNew}

	if got := l.IndustryLabel(); got != "No industry" {
		t.Errorf("IndustryLabel() = %q, want %q", got, "No industry")
	}
	if got := l.CompanySizeLabel(); got != "Not specified" {
		t.Errorf("CompanySizeLabel() = %q, want %q", got, "Not specified")
	}
	if got := l.WebsiteLabel(); got != "Not specified" {
		t.Errorf("WebsiteLabel() = %q, want %q", got, "Not specified")
	}
	if got := l.NotesLabel(); got != "Not specified" {
		t.Errorf("NotesLabel() = %q, want %q", got, "Not specified")
	}
}

func TestLeadInput_Validate(t *testing.T) {
	if err := (LeadInput{CompanyName: "  "}).Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("blank company name: error = %v, want ErrValidation", err)
	}
	if err := (LeadInput{CompanyName: "Acme Corp"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (LeadInput{CompanyName: "Acme", Status: "archived"}).Validate(); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestLeadPatch_MarshalsOnlySetFields(t *testing.T) {
	status := LeadStatusContacted
	body, err := json.Marshal(LeadPatch{Status: &status})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(body) != `{"status":"contacted"}` {
		t.Errorf("body = %s, want %s", body, `{"status":"contacted"}`)
	}
}

func TestLeadPatch_Validate(t *testing.T) {
	if err := (LeadPatch{}).Validate(); err == nil {
		t.Error("expected error for empty patch")
	}
	empty := ""
	if err := (LeadPatch{CompanyName: &empty}).Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestLeadPatch_Apply(t *testing.T) {
	won := LeadStatusWon
	notes := "signed"
	got := LeadPatch{Status: &won, Notes: &notes}.Apply(Lead{ID: "l1", CompanyName: "Acme", Status: LeadStatusProposal})

	if got.Status != LeadStatusWon {
		t.Errorf("Status = %q, want %q", got.Status, LeadStatusWon)
	}
	if got.Notes != "signed" {
		t.Errorf("Notes = %q, want %q", got.Notes, "signed")
	}
	if got.CompanyName != "Acme" {
		t.Errorf("CompanyName = %q, want %q", got.CompanyName, "Acme")
	}
}

func TestComputeLeadStats(t *testing.T) {
	leads := []Lead{
		{Status: LeadStatusNew},
		{Status: LeadStatusNew},
		{Status: LeadStatusWon},
		{Status: LeadStatusLost},
		{Status: LeadStatus("archived")},
	}
	s := ComputeLeadStats(leads)

	if s.Total != 5 {
		t.Errorf("Total = %d, want 5", s.Total)
	}
	if s.New != 2 {
		t.Errorf("New = %d, want 2", s.New)
	}
	if s.Count(LeadStatusWon) != 1 {
		t.Errorf("Count(won) = %d, want 1", s.Count(LeadStatusWon))
	}
	if s.Count(LeadStatus("archived")) != 0 {
		t.Errorf("Count(archived) = %d, want 0", s.Count(LeadStatus("archived")))
	}
}

func TestUserMessage(t *testing.T) {
	err := NewRemoteError(502, "upstream timeout")
	if got := UserMessage("AI research failed", err); got != "AI research failed: upstream timeout" {
		t.Errorf("UserMessage = %q", got)
	}
	if got := UserMessage("Research failed", nil); got != "Research failed" {
		t.Errorf("UserMessage(nil) = %q", got)
	}
	if got := UserMessage("Save failed", NewValidationError("name", "Contact name is required")); got != "Save failed: Contact name is required" {
		t.Errorf("UserMessage(validation) = %q", got)
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	tests := []struct {
		err    error
		target error
	}{
		{NewAuthRejectedError(), ErrAuthRejected},
		{NewNotFoundError("lead", "l1"), ErrNotFound},
		{NewValidationError("name", "required"), ErrValidation},
		{NewOperationPendingError("research"), ErrPending},
	}
	for _, tt := range tests {
		if !errors.Is(tt.err, tt.target) {
			t.Errorf("errors.Is(%v, %v) = false, want true", tt.err, tt.target)
		}
	}
	if errors.Is(NewRemoteError(500, ""), ErrNotFound) {
		t.Error("remote error should not match ErrNotFound")
	}
}

func TestDiscoveryDraft_AnyIndustry(t *testing.T) {
	d := DiscoveryDraft{CompanyName: "Globex", Industry: AnyIndustry, AdditionalContext: "met at expo"}

	in := d.LeadInput()
	if in.Industry != "" {
		t.Errorf("Industry = %q, want empty", in.Industry)
	}
	if in.Notes != "met at expo" {
		t.Errorf("Notes = %q, want %q", in.Notes, "met at expo")
	}
	if r := d.ResearchInput(); r.Industry != "" {
		t.Errorf("research Industry = %q, want empty", r.Industry)
	}
}
