package domain

import (
	"fmt"
	"regexp"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,24}$`)
	actionRegex   = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)
	badgeIDRegex  = regexp.MustCompile(`^[a-z0-9][a-z0-9_\-]{0,63}$`)
)

// ValidateEmail checks if an email address is valid.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateUsername checks the display-name format.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username must be 3-24 characters (letters, digits, underscore)")
	}
	return nil
}

// ValidateActionType checks a quest requirement action-type key.
func ValidateActionType(action string) error {
	if !actionRegex.MatchString(action) {
		return fmt.Errorf("invalid action type: %q", action)
	}
	return nil
}

// ValidateBadgeID checks a badge identifier.
func ValidateBadgeID(id string) error {
	if !badgeIDRegex.MatchString(id) {
		return fmt.Errorf("invalid badge id: %q", id)
	}
	return nil
}

// ValidatePositiveAmount checks that an XP amount is positive.
func ValidatePositiveAmount(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive, got %d", amount)
	}
	return nil
}

// ValidateRequirements checks a quest definition's requirement list.
func ValidateRequirements(reqs []Requirement) error {
	if len(reqs) == 0 {
		return fmt.Errorf("at least one requirement is required")
	}
	seen := make(map[string]bool, len(reqs))
	for _, r := range reqs {
		if err := ValidateActionType(r.Action); err != nil {
			return err
		}
		if r.Target <= 0 {
			return fmt.Errorf("requirement target must be positive, got %d for %q", r.Target, r.Action)
		}
		if seen[r.Action] {
			return fmt.Errorf("duplicate requirement action: %q", r.Action)
		}
		seen[r.Action] = true
	}
	return nil
}
