package models

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var betValidator = validator.New()

// Validate checks the bet carries every field settlement depends on
func (b *Bet) Validate() error {
	if err := betValidator.Struct(b); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			fields := make([]string, 0, len(validationErrors))
			for _, fieldError := range validationErrors {
				fields = append(fields, fmt.Sprintf("%s(%s)", fieldError.Field(), fieldError.Tag()))
			}
			return fmt.Errorf("%w: bet %s failed validation: %v", ErrMalformedBet, b.ID, fields)
		}
		return fmt.Errorf("%w: %v", ErrMalformedBet, err)
	}

	if b.RaceDate.IsZero() {
		return fmt.Errorf("%w: bet %s has no race date", ErrMalformedBet, b.ID)
	}

	if _, err := b.Legs(); err != nil {
		return err
	}

	return nil
}
