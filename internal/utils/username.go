package utils

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// đ has no decomposition, so it is mapped by hand before stripping marks
var strokeReplacer = strings.NewReplacer("đ", "d", "Đ", "D")

// FoldName strips diacritics and keeps lower-case ASCII letters only
func FoldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strokeReplacer.Replace(s))
	if err != nil {
		folded = s
	}

	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// BaseUsername is the first name followed by the initial of every last name word.
// Binh / Nguyen Van becomes binhnv.
func BaseUsername(firstName, lastName string) string {
	var b strings.Builder
	b.WriteString(FoldName(firstName))
	for _, word := range strings.Fields(lastName) {
		if folded := FoldName(word); folded != "" {
			b.WriteByte(folded[0])
		}
	}
	return b.String()
}

// DisambiguateUsername appends the next free numeric suffix to base.
// taken holds every existing username that starts with base.
func DisambiguateUsername(base string, taken []string) string {
	found := false
	maxSuffix := 0
	for _, name := range taken {
		suffix, ok := strings.CutPrefix(strings.ToLower(name), base)
		if !ok {
			continue
		}
		if suffix == "" {
			found = true
			continue
		}
		var n int
		if _, err := fmt.Sscanf(suffix, "%d", &n); err != nil || fmt.Sprint(n) != suffix {
			continue
		}
		found = true
		maxSuffix = max(maxSuffix, n)
	}
	if !found {
		return base
	}
	return fmt.Sprintf("%s%d", base, maxSuffix+1)
}

// DefaultPassword is username@ddMMyyyy of the date of birth
func DefaultPassword(username string, dateOfBirth time.Time) string {
	return username + "@" + dateOfBirth.Format("02012006")
}
