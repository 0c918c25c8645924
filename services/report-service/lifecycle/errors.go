package lifecycle

import (
	"errors"
	"fmt"

	"lapordesa/services/report-service/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrReportNotFound       = errors.New("report not found")
	ErrTaskNotFound         = errors.New("task not found")
	ErrStaffNotFound        = errors.New("staff not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNumberExhausted      = errors.New("could not generate a free number")

	ErrInvalidID = fmt.Errorf("%w: invalid id", ErrValidation)
)

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

func parseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}

func parseOptionalID(hex string) (*primitive.ObjectID, error) {
	if hex == "" {
		return nil, nil
	}
	id, err := parseID(hex)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// notFound maps store.ErrNotFound to the domain error and wraps anything else.
func notFound(err, domainErr error, op string) error {
	if errors.Is(err, store.ErrNotFound) {
		return domainErr
	}
	return fmt.Errorf("%s: %w", op, err)
}
