package model

import (
	"time"
)

type HabitFrequency string

const (
	FrequencyDaily   HabitFrequency = "daily"
	FrequencyWeekly  HabitFrequency = "weekly"
	FrequencyMonthly HabitFrequency = "monthly"
)

// DefaultTargetCount applies when a habit is created without a target.
const DefaultTargetCount = 1

type Habit struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	Name        string         `json:"name"`
	Description *string        `json:"description"`
	Frequency   HabitFrequency `json:"frequency"`
	TargetCount int            `json:"targetCount"`
	IsActive    bool           `json:"isActive"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	Tags        []Tag          `json:"tags"`
}

// Entry records one completion of a habit.
type Entry struct {
	ID             string    `json:"id"`
	HabitID        string    `json:"habitId"`
	CompletionDate time.Time `json:"completionDate"`
	Note           *string   `json:"note"`
	CreatedAt      time.Time `json:"createdAt"`
}
