package normalization

import (
	"errors"
	"testing"

	"fieldcatalog/catalog"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"simple", "First Name", "first_name"},
		{"already normalized", "first_name", "first_name"},
		{"hyphens", "date-of-birth", "date_of_birth"},
		{"punctuation dropped", "E-mail (Address)!", "e_mail_address"},
		{"repeated separators", "first   name", "first_name"},
		{"leading trailing", "  _first name_  ", "first_name"},
		{"mixed case", "LICENSE Number", "license_number"},
		{"digits kept", "address line 2", "address_line_2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeKey(tt.raw)
			if err != nil {
				t.Fatalf("NormalizeKey(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeKey(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

// Normalizing an already normalized key must change nothing.
func TestNormalizeKeyIdempotent(t *testing.T) {
	inputs := []string{"First Name", "E-mail Address", "years_of_experience", "Zip/Postal Code"}

	for _, raw := range inputs {
		once, err := NormalizeKey(raw)
		if err != nil {
			t.Fatalf("NormalizeKey(%q) error = %v", raw, err)
		}
		twice, err := NormalizeKey(once)
		if err != nil {
			t.Fatalf("NormalizeKey(%q) error = %v", once, err)
		}
		if once != twice {
			t.Errorf("NormalizeKey not idempotent for %q: %q != %q", raw, once, twice)
		}
	}
}

func TestNormalizeKeyEmpty(t *testing.T) {
	for _, raw := range []string{"", "   ", "!!!", "???"} {
		_, err := NormalizeKey(raw)
		if err == nil {
			t.Errorf("NormalizeKey(%q) expected error", raw)
			continue
		}
		var validationErr *catalog.ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("NormalizeKey(%q) error = %T, want *catalog.ValidationError", raw, err)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"First Name", "first name"},
		{"Legal First Name", "first name"},
		{"Your Email Address", "email address"},
		{"Applicant's Last Name", "last name"},
		{"First Name (Required)", "first name"},
		{"Criminal History Details (If Applicable)", "criminal history details"},
		{"Full Legal Name", "name"},
		{"Date of Birth", "date of birth"},
	}

	for _, tt := range tests {
		if got := NormalizeName(tt.raw); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

// Filler stripping must never empty the name entirely.
func TestNormalizeNameKeepsLastWord(t *testing.T) {
	if got := NormalizeName("Required"); got != "required" {
		t.Errorf("NormalizeName(\"Required\") = %q, want \"required\"", got)
	}
	if got := NormalizeName("Your"); got != "your" {
		t.Errorf("NormalizeName(\"Your\") = %q, want \"your\"", got)
	}
}
