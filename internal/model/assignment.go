package model

import "time"

// Assignment binds a set of work categories to a user
// (`assignments` + `assignment_categories`).  ActiveInLogs is cleared
// when the last category is removed from the set.
type Assignment struct {
    ID           uint64         // assignments.id
    UserID       uint64         // assignments.user_id
    ActiveInLogs bool           // assignments.active_in_logs
    AssignedOn   time.Time      // assignments.assigned_on
    Categories   []WorkCategory // loaded from assignment_categories
}

// HasCategory reports whether categoryID is part of the assignment.
func (a *Assignment) HasCategory(categoryID uint64) bool {
    for _, c := range a.Categories {
        if c.ID == categoryID {
            return true
        }
    }
    return false
}

// AssignedCategory is an active category assigned to a user together
// with whether the user currently has an open interval in it.
type AssignedCategory struct {
    AssignmentID uint64 `json:"assignment_id"`
    CategoryID   uint64 `json:"category_id"`
    Name         string `json:"name"`
    HasActiveLog bool   `json:"has_active_log"`
}
