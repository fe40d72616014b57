package domain

import "errors"

var (
	ErrArtworkNotFound  = errors.New("artwork not found")
	ErrArtistNotFound   = errors.New("artist not found")
	ErrInvalidArtworkID = errors.New("invalid artwork id")
	ErrInvalidProfileID = errors.New("invalid profile id")
	ErrUnknownFrame     = errors.New("unknown frame option")

	// Artist application
	ErrMissingInformation = errors.New("please fill in all required fields")
	ErrArtTypeRequired    = errors.New("please select at least one art type")
	ErrTermsRequired      = errors.New("please agree to the terms and conditions")
	ErrBioTooLong         = errors.New("bio must be 300 characters or fewer")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrUnknownArtType     = errors.New("unknown art type")
	ErrUnknownStyle       = errors.New("unknown style")
)
