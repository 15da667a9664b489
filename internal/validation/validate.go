// Package validation holds the registration input validators. Each
// validator either returns the normalized value or an error whose text
// is shown to the user as-is, so the messages name the exact rule that
// failed.
package validation

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// DefaultDepartment is stored when the user leaves the department empty.
const DefaultDepartment = "Не вказано"

var (
	validate = validator.New()

	nameRe  = regexp.MustCompile(`^[a-zA-Zа-яА-ЯіІїЇєЄґҐёЁ]+([ '-][a-zA-Zа-яА-ЯіІїЇєЄґҐёЁ]+)*$`)
	loginRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

// Name validates a first or last name: 2-50 characters, Latin or
// Cyrillic letters, with single spaces, apostrophes or hyphens between
// parts.
func Name(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len([]rune(s)) < 2 || len([]rune(s)) > 50 {
		return "", Reject("Ім'я має містити від 2 до 50 символів. Спробуйте ще раз.")
	}
	if !nameRe.MatchString(s) {
		return "", Reject("Ім'я може містити лише літери, апостроф або дефіс. Спробуйте ще раз.")
	}
	return s, nil
}

// Email validates the address shape and lowercases it.
func Email(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if err := validate.Var(s, "required,email"); err != nil {
		return "", Reject("Невірний формат email. Приклад: name@example.com. Спробуйте ще раз.")
	}
	return s, nil
}

// Login validates a login: 3-50 characters, ASCII letters, digits and
// underscores, at least one letter. The result is lowercased.
func Login(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 3 || len(s) > 50 {
		return "", Reject("Логін має містити від 3 до 50 символів. Спробуйте ще раз.")
	}
	if !loginRe.MatchString(s) {
		return "", Reject("Логін може містити лише латинські літери, цифри та знак підкреслення. Спробуйте ще раз.")
	}
	hasLetter := false
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			hasLetter = true
			break
		}
	}
	if !hasLetter {
		return "", Reject("Логін має містити хоча б одну літеру. Спробуйте ще раз.")
	}
	return s, nil
}

// Phone strips separators and normalizes to a leading "+" with 10-15
// digits.
func Phone(s string) (string, error) {
	digits := strings.Builder{}
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) < 10 || len(d) > 15 {
		return "", Reject("Номер телефону має містити від 10 до 15 цифр. Приклад: +380501234567. Спробуйте ще раз.")
	}
	return "+" + d, nil
}

// Password validates: at least 6 characters, at least one ASCII letter
// and one digit, no Cyrillic.
func Password(s string) (string, error) {
	if len(s) < 6 {
		return "", Reject("Пароль має містити щонайменше 6 символів. Спробуйте ще раз.")
	}
	hasLetter, hasDigit := false, false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			hasLetter = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case unicode.Is(unicode.Cyrillic, r):
			return "", Reject("Пароль не може містити кирилицю. Використовуйте латинські літери та цифри.")
		}
	}
	if !hasLetter || !hasDigit {
		return "", Reject("Пароль має містити хоча б одну латинську літеру та одну цифру. Спробуйте ще раз.")
	}
	return s, nil
}

// Department validates an optional department name: 2-100 characters,
// empty input falls back to DefaultDepartment.
func Department(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultDepartment, nil
	}
	if len([]rune(s)) < 2 || len([]rune(s)) > 100 {
		return "", Reject("Назва відділу має містити від 2 до 100 символів. Спробуйте ще раз.")
	}
	return s, nil
}
