package auth

import (
	"sort"
	"strings"
)

// Users pick a first name from this fixed list instead of free text, so a
// name alone never identifies anyone.
var approvedNames = map[string]struct{}{}

func init() {
	for _, name := range []string{
		// Gender-neutral
		"Alex", "Jordan", "Taylor", "Morgan", "Casey", "Riley", "Quinn", "Avery",
		"Sam", "Charlie", "Jamie", "Drew", "Skyler", "Reese", "Finley", "Rowan",

		// Common male names
		"James", "John", "Michael", "David", "Daniel", "Matthew", "Andrew", "Ryan",
		"William", "Joseph", "Thomas", "Christopher", "Anthony", "Mark", "Steven",
		"Paul", "Kevin", "Brian", "Jason", "Eric", "Adam", "Nathan", "Justin",
		"Brandon", "Tyler", "Aaron", "Benjamin", "Nicholas", "Kyle", "Jeremy",
		"Ethan", "Noah", "Lucas", "Mason", "Oliver", "Henry", "Sebastian", "Jack",
		"Leo", "Max", "Oscar", "Felix", "Hugo", "Arthur", "Louis", "Theo",

		// Common female names
		"Emma", "Olivia", "Sophia", "Isabella", "Mia", "Charlotte", "Amelia", "Emily",
		"Elizabeth", "Sofia", "Ella", "Grace", "Chloe", "Victoria", "Madison", "Luna",
		"Hannah", "Lily", "Zoe", "Nora", "Leah", "Hazel", "Violet", "Aurora",
		"Sarah", "Jessica", "Ashley", "Amanda", "Jennifer", "Stephanie", "Nicole",
		"Michelle", "Rachel", "Laura", "Katherine", "Rebecca", "Megan", "Anna",
		"Julia", "Claire", "Alice", "Lucy", "Ruby", "Eva", "Ivy", "Eleanor",

		// International
		"Omar", "Ali", "Ahmed", "Yusuf", "Hassan", "Ibrahim", "Khalid", "Tariq",
		"Wei", "Ming", "Chen", "Lin", "Yuki", "Hana", "Kenji", "Sakura",
		"Maria", "Carlos", "Diego", "Pablo", "Elena", "Miguel", "Ana",
		"Pierre", "Marie", "Jean", "Sophie", "Luca", "Marco", "Giulia",
		"Hans", "Klaus", "Lukas", "Sven", "Erik", "Ingrid", "Freya",
	} {
		approvedNames[name] = struct{}{}
	}
}

// NormalizeName trims and title-cases a first name.
func NormalizeName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// IsApprovedName reports whether the (normalized) name is on the allow list.
func IsApprovedName(name string) bool {
	_, ok := approvedNames[NormalizeName(name)]
	return ok
}

// ApprovedNames returns the allow list in sorted order.
func ApprovedNames() []string {
	names := make([]string, 0, len(approvedNames))
	for name := range approvedNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
