// internal/vendors/validate.go
package vendors

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultPhoneRegion = "US"

// Intake is a vendor application before persistence.
type Intake struct {
	Name   string
	Email  string
	Phone  string
	ICSURL string
}

// Validate normalizes the intake in place and reports the first
// problem found.
func (in *Intake) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return fmt.Errorf("name is required")
	}

	in.Email = strings.TrimSpace(in.Email)
	addr, err := mail.ParseAddress(in.Email)
	if err != nil {
		return fmt.Errorf("email is invalid")
	}
	in.Email = addr.Address

	in.Phone = strings.TrimSpace(in.Phone)
	if in.Phone != "" {
		normalized, err := NormalizePhone(in.Phone)
		if err != nil {
			return err
		}
		in.Phone = normalized
	}

	in.ICSURL = strings.TrimSpace(in.ICSURL)
	if in.ICSURL != "" {
		u, err := url.Parse(in.ICSURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("ics_url must be an absolute http(s) URL")
		}
	}
	return nil
}

// NormalizePhone parses a phone number and returns it in E.164 form.
func NormalizePhone(raw string) (string, error) {
	num, err := phonenumbers.Parse(raw, defaultPhoneRegion)
	if err != nil {
		return "", fmt.Errorf("phone is invalid")
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("phone is invalid")
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
