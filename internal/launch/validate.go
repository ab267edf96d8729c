package launch

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/shopspring/decimal"

	"token-launchpad/internal/domain"
)

// textLength counts UTF-16 code units, the unit the form limits are stated in.
// A character outside the Basic Multilingual Plane counts twice.
func textLength(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// ValidateName checks the token name.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if n := textLength(name); n > domain.MaxNameLength {
		return fmt.Errorf("%w: name has %d characters, max %d", ErrValidation, n, domain.MaxNameLength)
	}
	return nil
}

// ValidateTicker checks the token symbol.
func ValidateTicker(ticker string) error {
	if strings.TrimSpace(ticker) == "" {
		return fmt.Errorf("%w: ticker is required", ErrValidation)
	}
	if n := textLength(ticker); n > domain.MaxTickerLength {
		return fmt.Errorf("%w: ticker has %d characters, max %d", ErrValidation, n, domain.MaxTickerLength)
	}
	return nil
}

// ValidateDescription checks the description. Empty is allowed.
func ValidateDescription(description string) error {
	if n := textLength(description); n > domain.MaxDescriptionLength {
		return fmt.Errorf("%w: description has %d characters, max %d",
			ErrValidation, n, domain.MaxDescriptionLength)
	}
	return nil
}

// ValidateLiquidity checks the optional initial buy amount. Nil is accepted.
func ValidateLiquidity(amount *decimal.Decimal) error {
	if amount == nil {
		return nil
	}
	if amount.LessThan(domain.MinInitialLiquidity) || amount.GreaterThan(domain.MaxInitialLiquidity) {
		return fmt.Errorf("%w: initial liquidity %s SOL outside [%s, %s]",
			ErrValidation, amount.String(), domain.MinInitialLiquidity, domain.MaxInitialLiquidity)
	}
	return nil
}

// ParseLiquidity parses a user supplied SOL amount. Empty input means no initial buy.
func ParseLiquidity(input string) (*decimal.Decimal, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	amount, err := decimal.NewFromString(input)
	if err != nil {
		return nil, fmt.Errorf("%w: initial liquidity %q is not a number", ErrValidation, input)
	}
	if err := ValidateLiquidity(&amount); err != nil {
		return nil, err
	}
	return &amount, nil
}

// ValidateImage checks that an image asset is attached.
func ValidateImage(img domain.Image) error {
	if len(img.Data) == 0 {
		return fmt.Errorf("%w: image is required", ErrValidation)
	}
	if img.ContentType != "" && !strings.HasPrefix(img.ContentType, "image/") {
		return fmt.Errorf("%w: content type %q is not an image", ErrValidation, img.ContentType)
	}
	return nil
}

// ValidateRequest checks every field of a launch request.
func ValidateRequest(req *domain.LaunchRequest) error {
	if req == nil {
		return fmt.Errorf("%w: request is nil", ErrValidation)
	}
	if err := ValidateName(req.Name); err != nil {
		return err
	}
	if err := ValidateTicker(req.Ticker); err != nil {
		return err
	}
	if err := ValidateDescription(req.Description); err != nil {
		return err
	}
	if err := ValidateLiquidity(req.InitialLiquidity); err != nil {
		return err
	}
	return ValidateImage(req.Image)
}
