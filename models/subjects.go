package models

import "slices"

// Subjects is the fixed course list that mnemonics and vault notes are filed under.
var Subjects = []string{
	"Pharmacology",
	"Microbiology",
	"Hematology",
	"Pathology",
	"Forensic Medicine",
	"Obstetrics and Gynecology",
	"Pediatrics",
	"Community and Public Medicine",
}

var Moods = []string{"Happy", "Neutral", "Sad", "Tired", "Anxious"}

func IsSubject(s string) bool {
	return slices.Contains(Subjects, s)
}

func IsMood(s string) bool {
	return slices.Contains(Moods, s)
}
