package user

import (
	"testing"

	"github.com/jukulab/shiken/core/permission"
)

func TestCan(t *testing.T) {
	policy := func(allowMgmt bool) *permission.SchoolPolicy {
		return &permission.SchoolPolicy{AllowClassroomStudentManagement: allowMgmt}
	}
	classroomAdmin := func(perms permission.Set) *User {
		return &User{ID: 1, Role: RoleClassroomAdmin, SchoolID: 3, ClassroomID: 7, Permissions: perms}
	}
	schoolAdmin := &User{ID: 2, Role: RoleSchoolAdmin, SchoolID: 3}

	tests := []struct {
		name   string
		usr    *User
		cap    permission.Capability
		policy *permission.SchoolPolicy
		want   bool
	}{
		{name: "nil user denies registration", usr: nil, cap: permission.CapRegisterStudents},
		{name: "nil user denies scores", usr: nil, cap: permission.CapInputScores},
		{name: "nil user denies reports", usr: nil, cap: permission.CapViewReports},

		{name: "school admin registration", usr: schoolAdmin, cap: permission.CapRegisterStudents, want: true},
		{name: "school admin scores", usr: schoolAdmin, cap: permission.CapInputScores, want: true},
		{name: "school admin reports", usr: schoolAdmin, cap: permission.CapViewReports, want: true},
		{name: "school admin ignores kill switch", usr: schoolAdmin, cap: permission.CapRegisterStudents, policy: policy(false), want: true},

		{name: "never-synced defaults deny registration", usr: classroomAdmin(nil), cap: permission.CapRegisterStudents},
		{name: "never-synced defaults deny scores", usr: classroomAdmin(nil), cap: permission.CapInputScores},
		{name: "never-synced defaults grant reports", usr: classroomAdmin(nil), cap: permission.CapViewReports, want: true},

		{
			name: "explicit grant",
			usr:  classroomAdmin(permission.Set{permission.CapRegisterStudents: true}),
			cap:  permission.CapRegisterStudents,
			want: true,
		},
		{
			name: "explicit deny",
			usr:  classroomAdmin(permission.Set{permission.CapViewReports: false}),
			cap:  permission.CapViewReports,
		},
		{
			name: "missing key falls back per capability",
			usr:  classroomAdmin(permission.Set{permission.CapRegisterStudents: true}),
			cap:  permission.CapViewReports,
			want: true,
		},
		{
			name:   "kill switch beats explicit grant",
			usr:    classroomAdmin(permission.Set{permission.CapRegisterStudents: true}),
			cap:    permission.CapRegisterStudents,
			policy: policy(false),
		},
		{
			name:   "kill switch off keeps explicit grant",
			usr:    classroomAdmin(permission.Set{permission.CapRegisterStudents: true}),
			cap:    permission.CapRegisterStudents,
			policy: policy(true),
			want:   true,
		},
		{
			name:   "kill switch only gates registration",
			usr:    classroomAdmin(permission.Set{permission.CapInputScores: true}),
			cap:    permission.CapInputScores,
			policy: policy(false),
			want:   true,
		},

		{name: "unknown role fails closed", usr: &User{ID: 9, Role: "principal"}, cap: permission.CapViewReports},
		{name: "empty role fails closed", usr: &User{ID: 9}, cap: permission.CapViewReports},
		{name: "unknown capability fails closed for school admin", usr: schoolAdmin, cap: "can_delete_school"},
		{
			name: "unknown capability fails closed even when granted",
			usr:  classroomAdmin(permission.Set{"can_delete_school": true}),
			cap:  "can_delete_school",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Can(tt.usr, tt.cap, tt.policy); got != tt.want {
				t.Errorf("Can() = %v; want %v", got, tt.want)
			}
			if tt.usr != nil {
				if got := tt.usr.Can(tt.cap, tt.policy); got != tt.want {
					t.Errorf("User.Can() = %v; want %v", got, tt.want)
				}
			}
		})
	}
}

func TestCanHasNoSideEffects(t *testing.T) {
	usr := &User{Role: RoleClassroomAdmin, Permissions: permission.Set{permission.CapInputScores: true}}
	for i := 0; i < 3; i++ {
		_ = Can(usr, permission.CapInputScores, nil)
		_ = Can(usr, permission.CapViewReports, nil)
	}
	if len(usr.Permissions) != 1 || !usr.Permissions[permission.CapInputScores] {
		t.Errorf("resolver mutated the permission set: %v", usr.Permissions)
	}
}
