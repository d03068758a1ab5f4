package errors

import (
	"strings"
	"testing"
)

func TestValidateCellName(t *testing.T) {
	tests := []struct {
		name    string
		cell    string
		wantErr bool
	}{
		{"simple", "BASELIB_DCPL_1", false},
		{"with dollar", "TOP$CELL", false},
		{"with question mark", "CELL?", false},
		{"empty", "", true},
		{"too long", strings.Repeat("A", 33), true},
		{"max length ok", strings.Repeat("A", 32), false},
		{"space", "MAIN CELL", true},
		{"dash", "MAIN-CELL", true},
		{"slash", "a/b", true},
		{"unicode", "CELLÜ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCellName(tt.cell)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCellName(%q) error = %v, wantErr %v", tt.cell, err, tt.wantErr)
			}
		})
	}
}

func TestValidateTemplateName(t *testing.T) {
	tests := []struct {
		name    string
		tmpl    string
		wantErr bool
	}{
		{"simple", "BASELIB_CMARK", false},
		{"empty", "", true},
		{"too long", strings.Repeat("X", 25), true},
		{"max length ok", strings.Repeat("X", 24), false},
		{"space", "BAD NAME", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTemplateName(tt.tmpl)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTemplateName(%q) error = %v, wantErr %v", tt.tmpl, err, tt.wantErr)
			}
		})
	}
}

func TestValidateParameterName(t *testing.T) {
	tests := []struct {
		name    string
		param   string
		wantErr bool
	}{
		{"simple", "input_dist", false},
		{"empty", "", true},
		{"leading space", " width", true},
		{"inner space", "in put", true},
		{"tab", "wid\tth", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateParameterName(tt.param)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateParameterName(%q) error = %v, wantErr %v", tt.param, err, tt.wantErr)
			}
		})
	}
}
