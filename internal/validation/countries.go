// Package validation holds the business-rule checks the core applies
// independently of any HTTP-level schema validation, so the services
// stay safe to call from scheduled jobs and CLIs.
package validation

import (
	"regexp"
	"strings"

	"kobopay/internal/errors"
)

// CountryRule describes what a valid mobile-money payment looks like
// for one country: the local phone shape and the providers that
// operate there. The table is immutable after process start.
type CountryRule struct {
	DialCode     string
	PhonePattern *regexp.Regexp
	Providers    []string
}

var countryRules = map[string]CountryRule{
	"NG": {
		DialCode:     "234",
		PhonePattern: regexp.MustCompile(`^(?:\+?234|0)[789]\d{8}$`),
		Providers:    []string{"MTN_MOMO", "AIRTEL_MONEY", "OPAY", "PALMPAY"},
	},
	"KE": {
		DialCode:     "254",
		PhonePattern: regexp.MustCompile(`^(?:\+?254|0)[17]\d{8}$`),
		Providers:    []string{"MPESA", "AIRTEL_MONEY"},
	},
	"GH": {
		DialCode:     "233",
		PhonePattern: regexp.MustCompile(`^(?:\+?233|0)[235]\d{8}$`),
		Providers:    []string{"MTN_MOMO", "VODAFONE_CASH", "AIRTEL_TIGO"},
	},
	"UG": {
		DialCode:     "256",
		PhonePattern: regexp.MustCompile(`^(?:\+?256|0)[37]\d{8}$`),
		Providers:    []string{"MTN_MOMO", "AIRTEL_MONEY"},
	},
	"TZ": {
		DialCode:     "255",
		PhonePattern: regexp.MustCompile(`^(?:\+?255|0)[67]\d{8}$`),
		Providers:    []string{"MPESA", "TIGO_PESA", "AIRTEL_MONEY"},
	},
}

// RuleForCountry returns the validation rule for an ISO2 country code.
func RuleForCountry(country string) (CountryRule, bool) {
	rule, ok := countryRules[strings.ToUpper(country)]
	return rule, ok
}

// SupportedCountries lists the ISO2 codes the gateway accepts.
func SupportedCountries() []string {
	codes := make([]string, 0, len(countryRules))
	for code := range countryRules {
		codes = append(codes, code)
	}
	return codes
}

// ValidatePhone checks a phone number against the country's pattern.
func ValidatePhone(phone, country string) error {
	rule, ok := RuleForCountry(country)
	if !ok {
		return errors.NewValidationError("country", "unsupported country")
	}
	if !rule.PhonePattern.MatchString(strings.TrimSpace(phone)) {
		return errors.NewValidationError("phone_number", "invalid phone number for country "+strings.ToUpper(country))
	}
	return nil
}

// ValidateProvider checks that the provider operates in the country.
func ValidateProvider(provider, country string) error {
	rule, ok := RuleForCountry(country)
	if !ok {
		return errors.NewValidationError("country", "unsupported country")
	}
	provider = strings.ToUpper(strings.TrimSpace(provider))
	for _, p := range rule.Providers {
		if p == provider {
			return nil
		}
	}
	return errors.NewValidationError("provider", "provider not supported in country "+strings.ToUpper(country))
}

// NormalizePhone converts a locally formatted number to E.164-like
// form (+<dial code><subscriber>). The number must already have passed
// ValidatePhone.
func NormalizePhone(phone, country string) (string, error) {
	rule, ok := RuleForCountry(country)
	if !ok {
		return "", errors.NewValidationError("country", "unsupported country")
	}
	p := strings.TrimSpace(phone)
	p = strings.TrimPrefix(p, "+")
	if strings.HasPrefix(p, rule.DialCode) {
		return "+" + p, nil
	}
	p = strings.TrimPrefix(p, "0")
	return "+" + rule.DialCode + p, nil
}
