// Package user provides the logged-in user's Profile entity.
package user

import "time"

const (
	// DefaultUsername is shown when the backend does not return a name.
	DefaultUsername = "user"
	// DefaultProfileImage is shown when the backend does not return an image.
	DefaultProfileImage = "https://via.placeholder.com/40"
)

// Profile represents the authenticated member as reported by the backend.
type Profile struct {
	Username     string    // Display name
	ProfileImage string    // Avatar URL
	IsArtist     bool      // Artist account (may upload albums)
	FetchedAt    time.Time // When the profile was last refreshed
}

// NewProfile creates a profile, filling in display defaults.
func NewProfile(username, profileImage string, isArtist bool) *Profile {
	if username == "" {
		username = DefaultUsername
	}
	if profileImage == "" {
		profileImage = DefaultProfileImage
	}
	return &Profile{
		Username:     username,
		ProfileImage: profileImage,
		IsArtist:     isArtist,
		FetchedAt:    time.Now(),
	}
}

// CanUpload reports whether the member may access artist-only features.
func (p *Profile) CanUpload() bool {
	return p != nil && p.IsArtist
}
