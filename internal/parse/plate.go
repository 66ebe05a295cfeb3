package parse

import (
	"strings"

	"parking-backend/internal/model"
)

const (
	minPlateLen = 2
	maxPlateLen = 16
)

// NormalizePlate canonicalizes a raw number plate: strips all whitespace and
// upper-cases the result, so "ka 01 ab 1234" and "KA01AB1234" resolve to the
// same vehicle across park-ins.
func NormalizePlate(raw string) (string, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return "", model.ErrInvalidPlate
	}

	plate := strings.ToUpper(strings.Join(fields, ""))
	if len(plate) < minPlateLen || len(plate) > maxPlateLen {
		return "", model.ErrInvalidPlate
	}

	for _, r := range plate {
		if !isPlateRune(r) {
			return "", model.ErrInvalidPlate
		}
	}
	return plate, nil
}

func isPlateRune(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '-':
		return true
	}
	return false
}
