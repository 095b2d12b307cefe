package authz

import (
	"testing"

	"github.com/jobportal/apiserver/internal/apperr"
	"github.com/jobportal/apiserver/types"
	"github.com/stretchr/testify/assert"
)

func TestAuthorize(t *testing.T) {
	user := types.User{ID: 1, Role: types.RoleUser}
	recruiter := types.User{ID: 2, Role: types.RoleRecruiter}
	admin := types.User{ID: 3, Role: types.RoleAdmin}

	tests := []struct {
		name     string
		user     types.User
		resource Resource
		action   Action
		ownerID  int
		allowed  bool
	}{
		{"user cannot create job", user, ResourceJob, ActionCreate, 0, false},
		{"recruiter creates job", recruiter, ResourceJob, ActionCreate, 0, true},
		{"recruiter updates own job", recruiter, ResourceJob, ActionUpdate, 2, true},
		{"recruiter cannot update foreign job", recruiter, ResourceJob, ActionUpdate, 9, false},
		{"admin overrides ownership", admin, ResourceJob, ActionDelete, 9, true},
		{"only users apply", recruiter, ResourceJob, ActionApply, 0, false},
		{"user applies", user, ResourceJob, ActionApply, 0, true},
		{"owner exports resume", user, ResourceResume, ActionExport, 1, true},
		{"admin cannot export foreign resume", admin, ResourceResume, ActionExport, 1, false},
		{"recruiter cannot list users", recruiter, ResourceUser, ActionList, 0, false},
		{"admin changes roles", admin, ResourceUser, ActionUpdateRole, 0, true},
		{"unknown action is denied", admin, ResourceUser, Action("purge"), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.user, tt.resource, tt.action, tt.ownerID)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
		})
	}
}

func TestAuthorizeOwnershipMessage(t *testing.T) {
	recruiter := types.User{ID: 2, Role: types.RoleRecruiter}
	err := Authorize(recruiter, ResourceJob, ActionDelete, 5)
	assert.Equal(t, "You can only delete your own jobs.", apperr.MessageOf(err))
}

func TestContactRoles(t *testing.T) {
	roles, all := ContactRoles(types.RoleUser)
	assert.Equal(t, []types.Role{types.RoleRecruiter}, roles)
	assert.False(t, all)

	roles, all = ContactRoles(types.RoleRecruiter)
	assert.Equal(t, []types.Role{types.RoleUser}, roles)
	assert.False(t, all)

	roles, all = ContactRoles(types.RoleAdmin)
	assert.Empty(t, roles)
	assert.True(t, all)

	roles, all = ContactRoles(types.Role("GUEST"))
	assert.Empty(t, roles)
	assert.False(t, all)
}
