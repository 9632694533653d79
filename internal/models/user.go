package models

// User is a platform account. Users live in the flat users collection; the
// document id doubles as the caller identity everywhere else.
type User struct {
	ID               string    `json:"id" mapstructure:"id"`
	Path             string    `json:"path" mapstructure:"path"`
	Name             string    `json:"name,omitempty" mapstructure:"name"`
	Email            string    `json:"email,omitempty" mapstructure:"email"`
	AvatarURL        string    `json:"avatarUrl,omitempty" mapstructure:"avatarUrl"`
	Affiliation      string    `json:"affiliation,omitempty" mapstructure:"affiliation"`
	RaceLicenseID    string    `json:"raceLicenseId,omitempty" mapstructure:"raceLicenseId"`
	Address          string    `json:"address,omitempty" mapstructure:"address"`
	TermsAccepted    bool      `json:"termsAccepted,omitempty" mapstructure:"termsAccepted"`
	PasswordHash     string    `json:"-" mapstructure:"passwordHash"`
	OrganizationRefs []DocRef  `json:"organizationRefs,omitempty" mapstructure:"organizationRefs"`
	FavoriteRefs     []DocRef  `json:"favoriteRefs,omitempty" mapstructure:"favoriteRefs"`
	Metadata         *Metadata `json:"metadata,omitempty" mapstructure:"metadata"`
}

// Brief projects the user for embedding in contributions.
func (u *User) Brief() UserBrief {
	return UserBrief{ID: u.ID, Path: u.Path, Name: u.Name, AvatarURL: u.AvatarURL}
}
