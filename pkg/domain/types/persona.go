package types

// Persona selects the system prompt that frames the assistant
type Persona string

const (
	PersonaDefault        Persona = "default"
	PersonaTechnical      Persona = "technical"
	PersonaProjectDetails Persona = "projectDetails"
)

// AllPersonas returns all known personas
func AllPersonas() []Persona {
	return []Persona{
		PersonaDefault,
		PersonaTechnical,
		PersonaProjectDetails,
	}
}

// IsValid checks if the persona is known
func (p Persona) IsValid() bool {
	switch p {
	case PersonaDefault,
		PersonaTechnical,
		PersonaProjectDetails:
		return true
	default:
		return false
	}
}

// Normalize maps unknown or empty personas to PersonaDefault
func (p Persona) Normalize() Persona {
	if !p.IsValid() {
		return PersonaDefault
	}
	return p
}

// String returns the string representation of the persona
func (p Persona) String() string {
	return string(p)
}
