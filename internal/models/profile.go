package models

// Profile is a user's public-facing profile.
type Profile struct {
	// ID is the user id the profile belongs to
	ID string

	// Username is the unique display name
	Username string

	// Bio is free text
	Bio string

	// Branch and Year describe the user's program
	Branch string
	Year   int

	// Expertise and Interests are self-declared skill and hobby lists
	Expertise []string
	Interests []string

	// CookieScore is the total reputation earned from vouches
	CookieScore int

	// SkillScores breaks CookieScore down per skill
	SkillScores map[string]int

	// Privacy is the profile's visibility setting
	Privacy string
}
