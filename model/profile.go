package model

// Profile is the current user's account summary.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Region   string `json:"region"`
	Discord  string `json:"discord"`
	Tracks   int    `json:"tracks"`
	Likes    int    `json:"likes"`
}

// ProfileForm is the editable part of a profile. Username is shown but not sent.
type ProfileForm struct {
	ID       string `json:"id"`
	Username string `json:"-"`
	Region   string `json:"region" form:"region" validate:"required,region"`
	Discord  string `json:"discord" form:"discord" validate:"omitempty,discord"`
}

// Form returns the profile as an edit form.
func (p Profile) Form() ProfileForm {
	return ProfileForm{ID: p.ID, Username: p.Username, Region: p.Region, Discord: p.Discord}
}
