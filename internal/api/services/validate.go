package services

import (
	"strings"
	"unicode/utf8"
)

const (
	// MinUsernameLength is the shortest username accepted at registration
	MinUsernameLength = 4
	// maxPasswordBytes is the longest input bcrypt will hash
	maxPasswordBytes = 72
	// googleUsernamePrefix is reserved for accounts created by Google sign-in
	googleUsernamePrefix = "google_"
)

func validateRegistration(in RegisterInput) error {
	if in.Fullname == "" {
		return &ValidationError{Field: "fullname", Reason: "is required"}
	}
	if in.Username == "" {
		return &ValidationError{Field: "username", Reason: "is required"}
	}
	if utf8.RuneCountInString(in.Username) < MinUsernameLength {
		return &ValidationError{Field: "username", Reason: "must be at least 4 characters"}
	}
	if strings.HasPrefix(strings.ToLower(in.Username), googleUsernamePrefix) {
		return &ValidationError{Field: "username", Reason: "must not start with " + googleUsernamePrefix}
	}
	if strings.ContainsAny(in.Username, " \t\r\n") {
		return &ValidationError{Field: "username", Reason: "must not contain whitespace"}
	}
	if in.Password == "" {
		return &ValidationError{Field: "password", Reason: "is required"}
	}
	if len(in.Password) > maxPasswordBytes {
		return &ValidationError{Field: "password", Reason: "must be at most 72 bytes"}
	}
	return nil
}

func validatePost(in PostInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	if strings.TrimSpace(in.Content) == "" {
		return &ValidationError{Field: "content", Reason: "is required"}
	}
	return nil
}
