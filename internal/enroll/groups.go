package enroll

// Age groups are a fixed set: each cohort has its own schedule and its own
// seat limit row in group_limits.
const (
	GroupJunior = "9–11 years"
	GroupSenior = "12–14 years"
)

// Groups lists the known age groups in presentation order.
var Groups = []string{GroupJunior, GroupSenior}

// Schedule maps an age group to its lesson slot description.
var Schedule = map[string]string{
	GroupJunior: "Sunday 09:30–12:30 or 15:30–18:30",
	GroupSenior: "Sunday 12:30–15:30",
}

// KnownGroup reports whether label is one of the configured age groups.
func KnownGroup(label string) bool {
	for _, g := range Groups {
		if g == label {
			return true
		}
	}
	return false
}
