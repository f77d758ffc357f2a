// Package util holds small cross-cutting helpers shared by controllers
// across services.
package util

import (
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/apperr"
)

// IsNotFound reports whether err represents a not-found condition, whether
// it arrives as an *apperr.Error or as a raw pgx.ErrNoRows that slipped
// through a repository layer uncategorized.
func IsNotFound(err error) bool {
	if apperr.IsNotFound(err) {
		return true
	}
	return errors.Is(err, pgx.ErrNoRows)
}
