package notify

// PluralForm picks the correct Ukrainian plural form for a count:
// 1 -> one, 2-4 -> few, the rest -> many, with the usual 11-14
// exception. Every message that spells out hour/day/minute counts goes
// through this helper.
func PluralForm(n int, one, few, many string) string {
	if n < 0 {
		n = -n
	}
	if n%10 == 1 && n%100 != 11 {
		return one
	}
	if n%10 >= 2 && n%10 <= 4 && (n%100 < 12 || n%100 > 14) {
		return few
	}
	return many
}

// PluralizeMinutes returns the correct form of "хвилина".
func PluralizeMinutes(n int) string {
	return PluralForm(n, "хвилина", "хвилини", "хвилин")
}

// PluralizeHours returns the correct form of "година".
func PluralizeHours(n int) string {
	return PluralForm(n, "година", "години", "годин")
}

// PluralizeDays returns the correct form of "день".
func PluralizeDays(n int) string {
	return PluralForm(n, "день", "дні", "днів")
}
