package rbac

import "testing"

func TestSatisfies(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		required string
		want     bool
	}{
		{name: "user требует user", role: RoleUser, required: RoleUser, want: true},
		{name: "admin требует admin", role: RoleAdmin, required: RoleAdmin, want: true},
		{name: "admin не удовлетворяет user — иерархии нет", role: RoleAdmin, required: RoleUser, want: false},
		{name: "user не удовлетворяет admin", role: RoleUser, required: RoleAdmin, want: false},
		{name: "неизвестная роль", role: "superadmin", required: "superadmin", want: false},
		{name: "пустая роль", role: "", required: RoleUser, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Satisfies(tt.role, tt.required); got != tt.want {
				t.Errorf("Satisfies(%q, %q) = %v, хотели %v", tt.role, tt.required, got, tt.want)
			}
		})
	}
}

func TestHomePath(t *testing.T) {
	tests := []struct {
		role string
		want string
	}{
		{RoleUser, CabinetPath},
		{RoleAdmin, AdminPath},
		{"superadmin", LoginPath},
		{"", LoginPath},
	}

	for _, tt := range tests {
		if got := HomePath(tt.role); got != tt.want {
			t.Errorf("HomePath(%q) = %q, хотели %q", tt.role, got, tt.want)
		}
	}
}

func TestIsValidRole(t *testing.T) {
	if !IsValidRole(RoleUser) || !IsValidRole(RoleAdmin) {
		t.Error("user и admin должны быть допустимыми ролями")
	}
	if IsValidRole("readonly") {
		t.Error("readonly не является ролью портала")
	}
}
