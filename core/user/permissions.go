package user

import "github.com/jukulab/shiken/core/permission"

// Can decides whether usr holds cap under the school policy. It is pure
// and fail-closed: a nil user, an unknown role or an unknown capability
// never grant anything.
//
// Rules, in precedence order:
//   - school admins hold every known capability, classroom settings
//     notwithstanding;
//   - the school-wide kill switch (AllowClassroomStudentManagement=false)
//     denies can_register_students to classroom admins even when their own
//     permission set grants it. The switch is capability-specific on
//     purpose; see DESIGN.md;
//   - an absent permission set, or an absent key within it, falls back to
//     the conservative defaults (reports readable, everything else denied).
//
// A nil policy means "settings unknown": the kill switch is not engaged.
func Can(usr *User, cap permission.Capability, policy *permission.SchoolPolicy) bool {
	if usr == nil || !cap.Known() {
		return false
	}

	switch usr.Role {
	case RoleSchoolAdmin:
		return true
	case RoleClassroomAdmin:
		// fall through to classroom rules
	default:
		return false
	}

	if cap == permission.CapRegisterStudents && policy != nil && !policy.AllowClassroomStudentManagement {
		return false
	}

	if usr.Permissions == nil {
		return permission.Default(cap)
	}
	granted, ok := usr.Permissions[cap]
	if !ok {
		return permission.Default(cap)
	}
	return granted
}

// Can is the method form of the package-level resolver.
func (u User) Can(cap permission.Capability, policy *permission.SchoolPolicy) bool {
	return Can(&u, cap, policy)
}
