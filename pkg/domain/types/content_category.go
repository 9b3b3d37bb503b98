package types

import "github.com/m-mizutani/goerr/v2"

// ContentCategory classifies a piece of portfolio content
type ContentCategory string

const (
	ContentCategoryProject    ContentCategory = "project"
	ContentCategorySkill      ContentCategory = "skill"
	ContentCategoryExperience ContentCategory = "experience"
	ContentCategoryAbout      ContentCategory = "about"
	ContentCategoryEducation  ContentCategory = "education"
)

// AllContentCategories returns all valid content categories
func AllContentCategories() []ContentCategory {
	return []ContentCategory{
		ContentCategoryProject,
		ContentCategorySkill,
		ContentCategoryExperience,
		ContentCategoryAbout,
		ContentCategoryEducation,
	}
}

// IsValid checks if the category is valid
func (c ContentCategory) IsValid() bool {
	for _, v := range AllContentCategories() {
		if c == v {
			return true
		}
	}
	return false
}

// String returns the string representation of the category
func (c ContentCategory) String() string {
	return string(c)
}

// ParseContentCategory parses a string into a ContentCategory
func ParseContentCategory(s string) (ContentCategory, error) {
	c := ContentCategory(s)
	if !c.IsValid() {
		return "", goerr.New("invalid content category", goerr.V("category", s))
	}
	return c, nil
}
