package utils

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/teachhire/marketplace/backend/internal/domain"
)

var firstNames = []string{
	"Amelia", "Arjun", "Chloe", "Daniel", "Elena", "Farah", "George", "Hana", "Isaac", "Jade",
	"Kofi", "Leila", "Mateo", "Nadia", "Oliver", "Priya", "Quentin", "Rosa", "Samuel", "Tara",
}

var lastNames = []string{
	"Adams", "Bianchi", "Chen", "Dubois", "Evans", "Fischer", "Garcia", "Haddad", "Ivanova", "Jensen",
	"Khan", "Lopez", "Mensah", "Nakamura", "Okafor", "Patel", "Quinn", "Rossi", "Silva", "Tanaka",
}

var instituteKinds = []string{"Academy", "High School", "Learning Centre", "International School", "College"}

var cities = []string{"Riverside", "Northgate", "Lakeview", "Hillcrest", "Southbank", "Westbrook"}

var subjects = []string{
	"Mathematics", "Physics", "Chemistry", "Biology", "English", "History",
	"Geography", "Computer Science", "Art", "Music", "Economics", "French",
}

var levels = []string{"Primary", "Middle School", "High School", "A-Level", "IB"}

func GenerateRandomPersonName() string {
	return firstNames[rand.Intn(len(firstNames))] + " " + lastNames[rand.Intn(len(lastNames))]
}

func GenerateRandomInstituteName() string {
	return cities[rand.Intn(len(cities))] + " " + instituteKinds[rand.Intn(len(instituteKinds))]
}

var digits = "0123456789"

// GenerateEmail derives a mailbox from a display name, with a numeric suffix
// to keep generated addresses apart.
func GenerateEmail(name, host string) string {
	local := strings.ToLower(strings.Join(strings.Fields(name), "."))

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		local += string(digits[rand.Intn(len(digits))])
	}

	return local + "@" + host
}

var letters = []rune("abcdefghijklmnopqrstuvwxyz")

func GenerateRandomID(letterLength int, digitLength int) string {
	id := make([]rune, letterLength+digitLength)
	for i := range id {
		if i < letterLength {
			id[i] = letters[rand.Intn(len(letters))]
		} else {
			id[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(id)
}

// GenerateRandomSubset returns a non-empty random subset of arr using a
// Fisher-Yates shuffle of a copy.
func GenerateRandomSubset[T any](arr []T) []T {
	arrCopy := append([]T{}, arr...)

	for i := 0; i < len(arrCopy)-1; i++ {
		j := rand.Intn(len(arrCopy)-i) + i
		arrCopy[i], arrCopy[j] = arrCopy[j], arrCopy[i]
	}

	l := rand.Intn(len(arrCopy)) + 1
	return arrCopy[:l]
}

func GenerateRandomSubjects() []string {
	picked := GenerateRandomSubset(subjects)
	if len(picked) > 3 {
		picked = picked[:3]
	}
	return picked
}

type JobPosting struct {
	Title       string
	Description string
	Subjects    []string
}

func GenerateRandomJobPosting() JobPosting {
	subjects := GenerateRandomSubjects()
	level := levels[rand.Intn(len(levels))]

	return JobPosting{
		Title:       fmt.Sprintf("%s %s Teacher", level, subjects[0]),
		Description: fmt.Sprintf("We are looking for a %s teacher to join our team. Reference %s.", strings.Join(subjects, " and "), GenerateRandomID(3, 4)),
		Subjects:    subjects,
	}
}

func GenerateRandomCoverLetter(name string) string {
	years := rand.Intn(15) + 1
	return fmt.Sprintf("Dear hiring team, my name is %s and I have %d years of classroom experience.", name, years)
}

// reviewPaths are the status sequences an application can follow from applied.
var reviewPaths = [][]domain.ApplicationStatus{
	nil,
	{domain.StatusUnderReview},
	{domain.StatusUnderReview, domain.StatusShortlisted},
	{domain.StatusShortlisted, domain.StatusInterview},
	{domain.StatusShortlisted, domain.StatusInterview, domain.StatusHired},
	{domain.StatusUnderReview, domain.StatusRejected},
	{domain.StatusRejected},
}

func GenerateRandomReviewPath() []domain.ApplicationStatus {
	return reviewPaths[rand.Intn(len(reviewPaths))]
}
