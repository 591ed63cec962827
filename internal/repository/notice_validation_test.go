package repository

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateNotice(t *testing.T) {
	long := strings.Repeat("x", 256)
	cases := []struct {
		name                                       string
		title, content, category, priority, status string
		wantField                                  string // "" means valid
	}{
		{"valid", "Title", "Body", "General", PriorityMedium, StatusActive, ""},
		{"empty title", "", "Body", "General", PriorityLow, StatusActive, "title"},
		{"blank title", "   ", "Body", "General", PriorityLow, StatusActive, "title"},
		{"title too long", long, "Body", "General", PriorityLow, StatusActive, "title"},
		{"empty content", "Title", "", "General", PriorityLow, StatusActive, "content"},
		{"empty category", "Title", "Body", "", PriorityLow, StatusActive, "category"},
		{"bad priority", "Title", "Body", "General", "urgent", StatusActive, "priority"},
		{"bad status", "Title", "Body", "General", PriorityLow, "archived", "status"},
	}
	for _, tc := range cases {
		err := validateNotice(tc.title, tc.content, tc.category, tc.priority, tc.status)
		if tc.wantField == "" {
			if err != nil {
				t.Errorf("%s: unexpected error %v", tc.name, err)
			}
			continue
		}
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("%s: expected ValidationError, got %v", tc.name, err)
			continue
		}
		if ve.Field != tc.wantField {
			t.Errorf("%s: field = %q, want %q", tc.name, ve.Field, tc.wantField)
		}
	}
}

func TestClassifyWrite(t *testing.T) {
	if classifyWrite(nil, "c") != nil {
		t.Fatal("nil error must stay nil")
	}
	dup := errors.New("Error 1062 (23000): Duplicate entry 'admin' for key 'users.username'")
	var ce *ConstraintError
	if err := classifyWrite(dup, "users.username unique"); !errors.As(err, &ce) {
		t.Fatalf("1062 not classified as constraint violation: %v", err)
	} else if ce.Constraint != "users.username unique" {
		t.Fatalf("constraint identity lost: %q", ce.Constraint)
	}
	fk := errors.New("Error 1452 (23000): Cannot add or update a child row")
	if err := classifyWrite(fk, "notices.user_id -> users.id"); !errors.As(err, &ce) {
		t.Fatalf("1452 not classified as constraint violation: %v", err)
	}
	other := errors.New("Error 1064 (42000): syntax error")
	if err := classifyWrite(other, "c"); !errors.Is(err, other) {
		t.Fatalf("unrelated error rewrapped: %v", err)
	}
}
