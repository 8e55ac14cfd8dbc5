package model

// WorkCategory is a labeled kind of work a shift can be logged against
// (`work_categories` table).  Categories are archived by clearing
// IsActive and are never removed while intervals reference them.
type WorkCategory struct {
    ID       uint64 // work_categories.id
    Name     string // work_categories.name
    IsActive bool   // work_categories.is_active
}
