package password

import "strings"

// commonPasswords is the fixed client-side blocklist. Membership is a set
// lookup so the cost stays flat as entries are added.
var commonPasswords = func() map[string]struct{} {
	list := []string{
		"password", "password1", "password123", "passw0rd", "123456",
		"1234567", "12345678", "123456789", "1234567890", "qwerty",
		"qwertyuiop", "qwerty123", "abc123", "abcd1234", "iloveyou",
		"admin", "admin123", "welcome", "welcome1", "monkey",
		"login", "dragon", "letmein", "sunshine", "princess",
		"football", "baseball", "master", "shadow", "superman",
		"batman", "trustno1", "freedom", "whatever", "starwars",
		"charlie", "mustang", "hello123", "access", "flower",
		"654321", "666666", "121212", "696969", "qazwsx",
		"zxcvbnm", "asdfghjkl", "asdf1234", "1q2w3e4r", "1qaz2wsx",
	}
	set := make(map[string]struct{}, len(list))
	for _, p := range list {
		set[p] = struct{}{}
	}
	return set
}()

// IsCommon reports whether the password, compared case-insensitively, is
// on the blocklist.
func IsCommon(pw string) bool {
	_, ok := commonPasswords[strings.ToLower(pw)]
	return ok
}
