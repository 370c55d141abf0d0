package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		input string
		want  Role
		ok    bool
	}{
		{"ADMIN", RoleAdmin, true},
		{"admin", RoleAdmin, true},
		{" Manager ", RoleManager, true},
		{"DEFAULT", RoleDefault, true},
		{"", "", false},
		{"ROOT", "", false},
	}

	for _, tt := range tests {
		role, ok := ParseRole(tt.input)
		assert.Equal(t, tt.ok, ok, "input %q", tt.input)
		assert.Equal(t, tt.want, role, "input %q", tt.input)
	}
}

func TestIsAdmin(t *testing.T) {
	tests := []struct {
		name string
		user User
		want bool
	}{
		{"admin role", User{Role: RoleAdmin}, true},
		{"superuser with default role", User{Role: RoleDefault, IsSuperuser: true}, true},
		{"superuser without staff flag", User{Role: RoleManager, IsSuperuser: true, IsStaff: false}, true},
		{"manager", User{Role: RoleManager}, false},
		{"default", User{Role: RoleDefault}, false},
		{"staff flag alone does not grant admin", User{Role: RoleDefault, IsStaff: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.IsAdmin())
		})
	}
}

func TestFullName(t *testing.T) {
	user := User{FirstName: "Anna", LastName: "Smith"}
	assert.Equal(t, "Anna Smith", user.FullName())

	partial := User{FirstName: "Anna"}
	assert.Equal(t, "Anna", partial.FullName())
}
