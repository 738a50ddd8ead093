package domain

import (
	"errors"
	"math"
	"strings"
	"unicode/utf8"
)

var (
	ErrInvalidLinkedIn    = errors.New("linkedin must start with https://")
	ErrInvalidTwitter     = errors.New("twitter handle must contain only letters, digits or underscores")
	ErrInvalidPhotoURL    = errors.New("photo must be an http or https URL")
	ErrProfileFieldTooBig = errors.New("profile field is too long")
)

const (
	MaxBioLen      = 280
	MaxPhoneLen    = 30
	MaxCityLen     = 100
	MaxHandleLen   = 16
	MaxURLLen      = 2048
	profileFields  = 8
	completionFull = 100
)

// Profile holds the optional public details a user can fill in.
type Profile struct {
	Bio      string `json:"bio" db:"bio"`
	Phone    string `json:"phone" db:"phone"`
	Birthday string `json:"birthday" db:"birthday"`
	City     string `json:"city" db:"city"`
	LinkedIn string `json:"linkedin" db:"linkedin"`
	Twitter  string `json:"twitter" db:"twitter"`
	PhotoURL string `json:"photo_url" db:"photo_url"`
}

// ProfileUpdate changes only the fields that are set. An empty string clears
// a field, except the display name which falls back to the email local part.
type ProfileUpdate struct {
	DisplayName *string
	Bio         *string
	Phone       *string
	Birthday    *string
	City        *string
	LinkedIn    *string
	Twitter     *string
	PhotoURL    *string
}

// UpdateProfile validates upd and applies it. On error the user is unchanged.
func (u *User) UpdateProfile(upd ProfileUpdate) error {
	next := *u

	if upd.DisplayName != nil {
		name := strings.TrimSpace(*upd.DisplayName)
		if name == "" {
			name, _, _ = strings.Cut(next.Email, "@")
		}
		if utf8.RuneCountInString(name) > MaxDisplayNameLen {
			return ErrDisplayNameTooLong
		}
		next.DisplayName = name
	}

	limited := []struct {
		src *string
		dst *string
		max int
	}{
		{upd.Bio, &next.Bio, MaxBioLen},
		{upd.Phone, &next.Phone, MaxPhoneLen},
		{upd.City, &next.City, MaxCityLen},
	}
	for _, f := range limited {
		if f.src == nil {
			continue
		}
		v := strings.TrimSpace(*f.src)
		if utf8.RuneCountInString(v) > f.max {
			return ErrProfileFieldTooBig
		}
		*f.dst = v
	}

	if upd.Birthday != nil {
		v := strings.TrimSpace(*upd.Birthday)
		if v != "" {
			if _, err := ParseDate(v); err != nil {
				return err
			}
		}
		next.Birthday = v
	}

	if upd.LinkedIn != nil {
		v := strings.TrimSpace(*upd.LinkedIn)
		if v != "" && (!strings.HasPrefix(v, "https://") || len(v) > MaxURLLen) {
			return ErrInvalidLinkedIn
		}
		next.LinkedIn = v
	}

	if upd.Twitter != nil {
		v, err := NormalizeTwitter(*upd.Twitter)
		if err != nil {
			return err
		}
		next.Twitter = v
	}

	if upd.PhotoURL != nil {
		v := strings.TrimSpace(*upd.PhotoURL)
		if v != "" && !(strings.HasPrefix(v, "https://") || strings.HasPrefix(v, "http://")) {
			return ErrInvalidPhotoURL
		}
		if len(v) > MaxURLLen {
			return ErrProfileFieldTooBig
		}
		next.PhotoURL = v
	}

	*u = next
	return nil
}

// NormalizeTwitter turns "name", "@name" or "@@name" into "@name".
func NormalizeTwitter(handle string) (string, error) {
	h := strings.TrimLeft(strings.TrimSpace(handle), "@")
	if h == "" {
		return "", nil
	}
	if len(h) > MaxHandleLen-1 {
		return "", ErrInvalidTwitter
	}
	for _, r := range h {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return "", ErrInvalidTwitter
		}
	}
	return "@" + h, nil
}

// ProfileCompletion is the rounded share of filled profile fields, display
// name and photo included.
func (u *User) ProfileCompletion() int {
	filled := 0
	for _, v := range []string{u.DisplayName, u.Bio, u.Phone, u.Birthday, u.City, u.LinkedIn, u.Twitter, u.PhotoURL} {
		if strings.TrimSpace(v) != "" {
			filled++
		}
	}
	return int(math.Round(float64(filled) / profileFields * completionFull))
}
