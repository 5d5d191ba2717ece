package api

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const (
	idLength = 24
	charset  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	responseIDPrefix = "resp_"
	itemIDPrefix     = "item_"
	runIDPrefix      = "run_"
)

var (
	responseIDPattern = regexp.MustCompile(`^resp_[a-zA-Z0-9]{24}$`)
	itemIDPattern     = regexp.MustCompile(`^item_[a-zA-Z0-9]{24}$`)
	runIDPattern      = regexp.MustCompile(`^run_[a-zA-Z0-9]{24}$`)
)

// NewResponseID generates a new response ID with the "resp_" prefix
// followed by 24 cryptographically random alphanumeric characters.
func NewResponseID() string {
	return responseIDPrefix + randomAlphanumeric(idLength)
}

// NewItemID generates a new item ID with the "item_" prefix
// followed by 24 cryptographically random alphanumeric characters.
func NewItemID() string {
	return itemIDPrefix + randomAlphanumeric(idLength)
}

// NewRunID generates a new probe run ID with the "run_" prefix
// followed by 24 cryptographically random alphanumeric characters.
func NewRunID() string {
	return runIDPrefix + randomAlphanumeric(idLength)
}

// ValidateResponseID checks whether the given string is a valid response ID.
func ValidateResponseID(id string) bool {
	return responseIDPattern.MatchString(id)
}

// ValidateItemID checks whether the given string is a valid item ID.
func ValidateItemID(id string) bool {
	return itemIDPattern.MatchString(id)
}

// ValidateRunID checks whether the given string is a valid probe run ID.
func ValidateRunID(id string) bool {
	return runIDPattern.MatchString(id)
}

func randomAlphanumeric(n int) string {
	max := big.NewInt(int64(len(charset)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		b[i] = charset[idx.Int64()]
	}
	return string(b)
}
