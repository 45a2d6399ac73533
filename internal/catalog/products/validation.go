package products

import (
	"errors"
	"strings"
)

func (s *Service) validate(p Product) error {
	if strings.TrimSpace(p.Code) == "" {
		return errors.New("product code is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("product name is required")
	}
	valid := false
	for _, c := range Categories() {
		if p.Category == c {
			valid = true
			break
		}
	}
	if !valid {
		return errors.New("unknown product category")
	}
	if p.UnitPrice.IsNegative() {
		return errors.New("unit price must not be negative")
	}
	return nil
}
