package convention

import "testing"

func TestUnderscore(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"user", "user"},
		{"UserProfile", "user_profile"},
		{"HTTPRequest", "http_request"},
		{"order-item", "order_item"},
		{"Order Item", "order_item"},
		{"api.key", "api_key"},
		{"Version2Tag", "version2_tag"},
		{"__user__", "user"},
	}

	for _, tt := range tests {
		if got := Underscore(tt.in); got != tt.want {
			t.Errorf("Underscore(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCamelize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"user", "User"},
		{"user_profile", "UserProfile"},
		{"UserProfile", "UserProfile"},
		{"order-item", "OrderItem"},
	}

	for _, tt := range tests {
		if got := Camelize(tt.in); got != tt.want {
			t.Errorf("Camelize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"user", "User"},
		{"users", "User"},
		{"User", "User"},
		{"user_profiles", "UserProfile"},
		{"UserProfile", "UserProfile"},
		{"order-items", "OrderItem"},
		{"people", "Person"},
		{"categories", "Category"},
	}

	for _, tt := range tests {
		got := Classify(tt.in)
		if got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if got != "" && Classify(got) != got {
			t.Errorf("Classify is not idempotent on %q", got)
		}
		if got != "" && !IsTypeName(got) {
			t.Errorf("IsTypeName(%q) = false", got)
		}
	}
}

func TestTableize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"User", "users"},
		{"users", "users"},
		{"UserProfile", "user_profiles"},
		{"Person", "people"},
		{"people", "people"},
		{"Box", "boxes"},
		{"Category", "categories"},
	}

	for _, tt := range tests {
		if got := Tableize(tt.in); got != tt.want {
			t.Errorf("Tableize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsTypeName(t *testing.T) {
	tests := map[string]bool{
		"User":        true,
		"UserProfile": true,
		"V2":          true,
		"":            false,
		"user":        false,
		"User_Name":   false,
		"User Name":   false,
	}

	for in, want := range tests {
		if got := IsTypeName(in); got != want {
			t.Errorf("IsTypeName(%q) = %v, want %v", in, got, want)
		}
	}
}
