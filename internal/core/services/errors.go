package services

import (
	"errors"
	"fmt"

	"loanlink/internal/adapters/persistence/repositories"
	"loanlink/internal/core/domain"
)

// notFoundAs maps a repository miss to the given domain error and keeps
// every other error as is
func notFoundAs(err error, target error) error {
	if errors.Is(err, repositories.ErrRecordNotFound) {
		return target
	}
	return err
}

func validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", domain.ErrValidation, fmt.Sprintf(format, args...))
}
