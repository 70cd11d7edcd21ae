package permission

// Capability names a single classroom-level right. The enumeration is
// closed: anything outside AllCapabilities is never granted.
type Capability string

const (
	CapRegisterStudents Capability = "can_register_students"
	CapInputScores      Capability = "can_input_scores"
	CapViewReports      Capability = "can_view_reports"
)

var AllCapabilities = []Capability{CapRegisterStudents, CapInputScores, CapViewReports}

func (c Capability) Known() bool {
	for _, known := range AllCapabilities {
		if c == known {
			return true
		}
	}
	return false
}

// Set maps capabilities to granted/denied. A nil Set means "never synced";
// missing keys fall back to the conservative defaults.
type Set map[Capability]bool

// conservative defaults: read-only access until told otherwise.
var defaults = Set{
	CapRegisterStudents: false,
	CapInputScores:      false,
	CapViewReports:      true,
}

// Default returns the fallback grant of cap when no explicit value exists.
func Default(c Capability) bool { return defaults[c] }

// Defaults returns a fresh copy of the conservative default Set.
func Defaults() Set {
	s := make(Set, len(defaults))
	for c, granted := range defaults {
		s[c] = granted
	}
	return s
}

func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	out := make(Set, len(s))
	for c, granted := range s {
		out[c] = granted
	}
	return out
}

// KnownOnly drops unknown capability names from the Set.
func (s Set) KnownOnly() Set {
	if s == nil {
		return nil
	}
	out := make(Set, len(s))
	for c, granted := range s {
		if c.Known() {
			out[c] = granted
		}
	}
	return out
}

// SchoolPolicy holds the tenant-wide settings of a school.
type SchoolPolicy struct {
	// AllowClassroomStudentManagement is a hard kill switch: when false,
	// can_register_students is denied to every classroom admin of the
	// school no matter their own permission set.
	AllowClassroomStudentManagement bool `json:"allow_classroom_student_management"`

	// DefaultPermissions is applied to newly created classrooms.
	DefaultPermissions Set `json:"default_permissions,omitempty"`
}

// DefaultSchoolPolicy returns the settings a school starts with.
func DefaultSchoolPolicy() SchoolPolicy {
	return SchoolPolicy{
		AllowClassroomStudentManagement: true,
		DefaultPermissions:              Defaults(),
	}
}
