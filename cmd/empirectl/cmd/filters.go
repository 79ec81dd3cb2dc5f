package cmd

import (
	"fmt"
	"strconv"
	"strings"

	domain "github.com/Sadat41/Empire-Enhanced-sub001/pkg/types"
)

// applyTargetFilters parses CLI --filter flags onto a target entry.
// Supported formats:
//
//	float_min=0.00
//	float_max=0.07
//	percent_min=-100
//	percent_max=-30
//	percent_use_reference=true
//	price_min=10.00
//	price_max=500.00
func applyTargetFilters(entry *domain.TargetEntry, filters []string) error {
	for _, f := range filters {
		parts := strings.SplitN(f, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid filter format %q: expected key=value", f)
		}
		if err := applyTargetFilter(entry, parts[0], parts[1]); err != nil {
			return err
		}
	}
	return nil
}

func applyTargetFilter(entry *domain.TargetEntry, key, value string) error {
	switch key {
	case "float_min":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float_min %q: %w", value, err)
		}
		ensureFloatFilter(entry).Min = v
	case "float_max":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float_max %q: %w", value, err)
		}
		ensureFloatFilter(entry).Max = v
	case "percent_min":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid percent_min %q: %w", value, err)
		}
		ensurePercentFilter(entry).Min = &v
	case "percent_max":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid percent_max %q: %w", value, err)
		}
		ensurePercentFilter(entry).Max = &v
	case "percent_use_reference":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid percent_use_reference %q: %w", value, err)
		}
		ensurePercentFilter(entry).UseReferencePrice = v
	case "price_min":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid price_min %q: %w", value, err)
		}
		ensurePriceFilter(entry).Min = &v
	case "price_max":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid price_max %q: %w", value, err)
		}
		ensurePriceFilter(entry).Max = &v
	default:
		return fmt.Errorf("unknown filter key %q", key)
	}
	return nil
}

// ensureFloatFilter returns the entry's wear filter, enabling it over the
// full [0, 1] range on first use so a single-bound flag stays valid.
func ensureFloatFilter(entry *domain.TargetEntry) *domain.FloatFilter {
	if entry.Float == nil {
		entry.Float = &domain.FloatFilter{Enabled: true, Min: 0, Max: 1}
	}
	return entry.Float
}

func ensurePercentFilter(entry *domain.TargetEntry) *domain.PercentDiffFilter {
	if entry.PercentDiff == nil {
		entry.PercentDiff = &domain.PercentDiffFilter{Enabled: true}
	}
	return entry.PercentDiff
}

func ensurePriceFilter(entry *domain.TargetEntry) *domain.PriceFilter {
	if entry.Price == nil {
		entry.Price = &domain.PriceFilter{Enabled: true}
	}
	return entry.Price
}
