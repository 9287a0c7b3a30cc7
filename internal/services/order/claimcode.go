package order

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

const claimCodeBytes = 6

// GenerateClaimCode retourne 12 caractères hexadécimaux majuscules issus de crypto/rand.
// Pas de nouvel essai en cas de collision : la contrainte UNIQUE fait échouer la création.
func GenerateClaimCode() (string, error) {
	buf := make([]byte, claimCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "génération code de retrait")
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}
