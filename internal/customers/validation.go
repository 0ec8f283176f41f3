package customers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/stitchdesk/stitchdesk/internal/platform/httpx"
)

var mobilePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

func (s *Service) validate(c Customer) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: customer name is required", httpx.ErrValidation)
	}
	if !mobilePattern.MatchString(strings.TrimSpace(c.Mobile)) {
		return fmt.Errorf("%w: mobile number must be 7 to 15 digits", httpx.ErrValidation)
	}
	return nil
}
