package shortcode

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GeneratedLength is the length of auto-generated codes. 62^6 possible
// codes keeps the collision probability negligible at this system's scale.
const GeneratedLength = 6

var codePattern = regexp.MustCompile(`^[A-Za-z0-9]{6,8}$`)

// Validate reports whether code is 6-8 characters from the alphanumeric
// alphabet. It never errors; an empty string is simply invalid.
func Validate(code string) bool {
	return codePattern.MatchString(code)
}

// Generate returns a random code of GeneratedLength drawn uniformly from
// the alphabet. Every generated code passes Validate.
func Generate() (string, error) {
	b := make([]byte, GeneratedLength)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		b[i] = charset[num.Int64()]
	}
	return string(b), nil
}
