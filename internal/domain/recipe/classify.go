package recipe

// Role is the slot a recipe fills in an assembled meal.
type Role string

// Meal roles, in the fixed order a combination is assembled.
const (
	RoleStaple    Role = "staple"
	RoleVegetable Role = "vegetable"
	RoleProtein   Role = "protein"
)

// Roles lists the meal roles in assembly order.
var Roles = [3]Role{RoleStaple, RoleVegetable, RoleProtein}

// IsValid checks if the role is known.
func (r Role) IsValid() bool {
	return r == RoleStaple || r == RoleVegetable || r == RoleProtein
}

// Classify decides which ranking a recipe belongs to. A Protein-rich ingredient wins,
// then a Vegetable ingredient, then the declared Staple category.
// ok is false for a non-staple recipe with neither tag.
func Classify(r Recipe, ingredients []Ingredient) (Role, bool) {
	hasProtein, hasVegetable := false, false
	for _, ing := range ingredients {
		if ing.HasType(TypeProteinRich) {
			hasProtein = true
		}
		if ing.HasType(TypeVegetable) {
			hasVegetable = true
		}
	}
	switch {
	case hasProtein:
		return RoleProtein, true
	case hasVegetable:
		return RoleVegetable, true
	case r.Category() == CategoryStaple:
		return RoleStaple, true
	default:
		return "", false
	}
}
