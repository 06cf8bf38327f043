package handlers

import (
	"strings"
)

var allowedThemes = map[string]struct{}{
	"light":  {},
	"dark":   {},
	"system": {},
}

var allowedDateFormats = map[string]struct{}{
	"MM/DD/YYYY": {},
	"DD/MM/YYYY": {},
	"YYYY-MM-DD": {},
}

func validateProfileUpdateRequest(req updateProfileRequest) string {
	if req.FullName != nil && strings.TrimSpace(*req.FullName) == "" {
		return "full_name must not be empty"
	}
	if req.MonthlyIncome != nil && *req.MonthlyIncome <= 0 {
		return "monthly_income must be greater than 0"
	}
	return ""
}

func validatePreferencesRequest(req updatePreferencesRequest) string {
	if req.Theme != nil {
		if _, ok := allowedThemes[strings.TrimSpace(*req.Theme)]; !ok {
			return "theme must be one of: light, dark, system"
		}
	}
	if req.Currency != nil {
		currency := strings.TrimSpace(*req.Currency)
		if len(currency) != 3 || currency != strings.ToUpper(currency) {
			return "currency must be a 3-letter ISO code"
		}
	}
	if req.DateFormat != nil {
		if _, ok := allowedDateFormats[strings.TrimSpace(*req.DateFormat)]; !ok {
			return "date_format must be one of: MM/DD/YYYY, DD/MM/YYYY, YYYY-MM-DD"
		}
	}
	return ""
}
