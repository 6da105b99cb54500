// Swan-Z Style Engine - Personalization and Recommendation
// Copyright 2026 Swan-Z Style
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swanz/styleengine

package validation

import (
	"errors"
	"strings"
	"testing"
)

type sampleRequest struct {
	UserID string `validate:"required"`
	Limit  int    `validate:"min=1,max=100"`
	Style  string `validate:"omitempty,stylecategory"`
}

func TestValidateStruct_Valid(t *testing.T) {
	t.Parallel()

	req := sampleRequest{UserID: "u1", Limit: 10, Style: "CASUAL"}
	if err := ValidateStruct(&req); err != nil {
		t.Errorf("ValidateStruct() = %v, want nil", err)
	}
}

func TestValidateStruct_FieldFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		req       sampleRequest
		wantField string
		wantTag   string
		wantMsg   string
	}{
		{
			name:      "missing required field",
			req:       sampleRequest{Limit: 10},
			wantField: "UserID",
			wantTag:   "required",
			wantMsg:   "UserID is required",
		},
		{
			name:      "below minimum",
			req:       sampleRequest{UserID: "u1", Limit: 0},
			wantField: "Limit",
			wantTag:   "min",
			wantMsg:   "Limit must be at least 1",
		},
		{
			name:      "above maximum",
			req:       sampleRequest{UserID: "u1", Limit: 101},
			wantField: "Limit",
			wantTag:   "max",
			wantMsg:   "Limit must be at most 100",
		},
		{
			name:      "unknown style category",
			req:       sampleRequest{UserID: "u1", Limit: 10, Style: "GRUNGE"},
			wantField: "Style",
			wantTag:   "stylecategory",
			wantMsg:   "Style must be a known style category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateStruct(&tt.req)
			if err == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}

			errs := err.Errors()
			if len(errs) != 1 {
				t.Fatalf("Errors() = %d entries, want 1: %v", len(errs), err)
			}
			fieldErr := errs[0]
			if fieldErr.Field() != tt.wantField {
				t.Errorf("Field() = %s, want %s", fieldErr.Field(), tt.wantField)
			}
			if fieldErr.Tag() != tt.wantTag {
				t.Errorf("Tag() = %s, want %s", fieldErr.Tag(), tt.wantTag)
			}
			if fieldErr.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", fieldErr.Error(), tt.wantMsg)
			}
		})
	}
}

func TestValidateStruct_CollectsAllFailures(t *testing.T) {
	t.Parallel()

	req := sampleRequest{Limit: 200, Style: "FANCY"}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("ValidateStruct() = nil, want error")
	}
	if got := len(err.Errors()); got != 3 {
		t.Errorf("Errors() = %d entries, want 3: %v", got, err)
	}
	if !strings.Contains(err.Error(), "; ") {
		t.Errorf("Error() = %q, want combined message", err.Error())
	}
}

func TestValidateStruct_UnwrapsToErrValidation(t *testing.T) {
	t.Parallel()

	req := sampleRequest{}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("ValidateStruct() = nil, want error")
	}
	if !errors.Is(err, ErrValidation) {
		t.Errorf("errors.Is(err, ErrValidation) = false for %v", err)
	}
}

func TestValidateStruct_NilOnSuccessIsComparable(t *testing.T) {
	t.Parallel()

	// The concrete pointer return keeps `err != nil` checks honest.
	req := sampleRequest{UserID: "u1", Limit: 1}
	if err := ValidateStruct(&req); err != nil {
		t.Errorf("ValidateStruct() = %v, want typed nil", err)
	}
}

func TestStyleCategoryRule(t *testing.T) {
	t.Parallel()

	type wrapper struct {
		Style string `validate:"stylecategory"`
	}

	for _, valid := range []string{"CASUAL", "FORMAL", "SPORTY", "ELEGANT"} {
		if err := ValidateStruct(&wrapper{Style: valid}); err != nil {
			t.Errorf("ValidateStruct(%s) = %v, want nil", valid, err)
		}
	}
	for _, invalid := range []string{"", "casual", "GRUNGE"} {
		if err := ValidateStruct(&wrapper{Style: invalid}); err == nil {
			t.Errorf("ValidateStruct(%q) = nil, want error", invalid)
		}
	}
}

func TestGetValidator_Singleton(t *testing.T) {
	t.Parallel()

	if GetValidator() != GetValidator() {
		t.Error("GetValidator() returned distinct instances")
	}
}
