// Package authz holds the declarative role policy evaluated once per request.
package authz

import (
	"slices"

	"github.com/jobportal/apiserver/internal/apperr"
	"github.com/jobportal/apiserver/types"
)

type Resource string

type Action string

const (
	ResourceJob         Resource = "job"
	ResourceApplication Resource = "application"
	ResourceResume      Resource = "resume"
	ResourceUser        Resource = "user"
)

const (
	ActionList         Action = "list"
	ActionRead         Action = "read"
	ActionCreate       Action = "create"
	ActionUpdate       Action = "update"
	ActionDelete       Action = "delete"
	ActionApply        Action = "apply"
	ActionListOwn      Action = "list_own"
	ActionUpdateStatus Action = "update_status"
	ActionUpdateRole   Action = "update_role"
	ActionExport       Action = "export"
)

// Rule lists the roles allowed to perform an action. When Owner is set the
// caller must also own the target, unless their role is in Override.
type Rule struct {
	Roles    []types.Role
	Owner    bool
	Override []types.Role
	Denied   string
}

type key struct {
	resource Resource
	action   Action
}

var (
	anyRole        = []types.Role{types.RoleUser, types.RoleRecruiter, types.RoleAdmin}
	recruiterRoles = []types.Role{types.RoleRecruiter, types.RoleAdmin}
	adminOnly      = []types.Role{types.RoleAdmin}
	userOnly       = []types.Role{types.RoleUser}
)

var policy = map[key]Rule{
	{ResourceJob, ActionCreate}:  {Roles: recruiterRoles},
	{ResourceJob, ActionUpdate}:  {Roles: recruiterRoles, Owner: true, Override: adminOnly, Denied: "You can only update your own jobs."},
	{ResourceJob, ActionDelete}:  {Roles: recruiterRoles, Owner: true, Override: adminOnly, Denied: "You can only delete your own jobs."},
	{ResourceJob, ActionApply}:   {Roles: userOnly},
	{ResourceJob, ActionListOwn}: {Roles: recruiterRoles},

	{ResourceApplication, ActionList}:         {Roles: recruiterRoles, Owner: true, Override: adminOnly, Denied: "You can only view applications for your own jobs."},
	{ResourceApplication, ActionUpdateStatus}: {Roles: recruiterRoles, Owner: true, Override: adminOnly, Denied: "You can only update applications for your own jobs."},
	{ResourceApplication, ActionListOwn}:      {Roles: userOnly},

	{ResourceResume, ActionRead}:   {Roles: anyRole, Owner: true, Denied: "You can only access your own resumes."},
	{ResourceResume, ActionUpdate}: {Roles: anyRole, Owner: true, Denied: "You can only update your own resumes."},
	{ResourceResume, ActionDelete}: {Roles: anyRole, Owner: true, Denied: "You can only delete your own resumes."},
	{ResourceResume, ActionExport}: {Roles: anyRole, Owner: true, Denied: "You can only export your own resumes."},

	{ResourceUser, ActionList}:       {Roles: adminOnly},
	{ResourceUser, ActionUpdateRole}: {Roles: adminOnly},
}

// Lookup returns the rule for (resource, action).
func Lookup(resource Resource, action Action) (Rule, bool) {
	rule, ok := policy[key{resource, action}]
	return rule, ok
}

// Allow checks the role part of the rule only. It is used by route
// middleware for actions whose rule has no ownership requirement.
func Allow(user types.User, resource Resource, action Action) error {
	rule, ok := Lookup(resource, action)
	if !ok {
		return apperr.Forbidden("Access denied.")
	}
	if !slices.Contains(rule.Roles, user.Role) {
		return apperr.Forbidden("Access denied. Insufficient permissions.")
	}
	return nil
}

// Authorize evaluates the full rule against a target owned by ownerID.
func Authorize(user types.User, resource Resource, action Action, ownerID int) error {
	if err := Allow(user, resource, action); err != nil {
		return err
	}
	rule, _ := Lookup(resource, action)
	if !rule.Owner || slices.Contains(rule.Override, user.Role) || ownerID == user.ID {
		return nil
	}
	message := rule.Denied
	if message == "" {
		message = "Access denied."
	}
	return apperr.Forbidden(message)
}

// ContactRoles returns the roles a user of the given role may chat with.
// all is true when every account except the caller is a valid contact.
func ContactRoles(role types.Role) (roles []types.Role, all bool) {
	switch role {
	case types.RoleUser:
		return []types.Role{types.RoleRecruiter}, false
	case types.RoleRecruiter:
		return []types.Role{types.RoleUser}, false
	case types.RoleAdmin:
		return nil, true
	default:
		return nil, false
	}
}
