package dto

import (
	"time"

	domainuser "orbit/internal/domain/user"
)

type UserSnippet struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	FullName       string `json:"full_name"`
	ProfilePicture string `json:"profile_picture"`
	Verified       bool   `json:"is_verified"`
}

type UserProfile struct {
	ID             string        `json:"id"`
	Email          string        `json:"email"`
	Username       string        `json:"username"`
	FullName       string        `json:"full_name"`
	Bio            string        `json:"bio"`
	ProfilePicture string        `json:"profile_picture"`
	CoverPhoto     string        `json:"cover_photo"`
	Location       string        `json:"location"`
	Verified       bool          `json:"is_verified"`
	Followers      []UserSnippet `json:"followers"`
	Following      []UserSnippet `json:"following"`
	Connections    []UserSnippet `json:"connections"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

type UserSnippetCollection struct {
	Items []UserSnippet `json:"items"`
	Total int           `json:"total"`
}

type AuthResponse struct {
	User  UserProfile `json:"user"`
	Token string      `json:"token"`
}

func MapSnippet(snippet domainuser.Snippet) UserSnippet {
	return UserSnippet{
		ID:             string(snippet.ID),
		Username:       snippet.Username,
		FullName:       snippet.FullName,
		ProfilePicture: snippet.ProfilePicture,
		Verified:       snippet.Verified,
	}
}

func MapSnippets(snippets []domainuser.Snippet) []UserSnippet {
	out := make([]UserSnippet, 0, len(snippets))
	for _, snippet := range snippets {
		out = append(out, MapSnippet(snippet))
	}
	return out
}

func MapUserProfile(user *domainuser.User, followers, following, connections []domainuser.Snippet) UserProfile {
	if user == nil {
		return UserProfile{}
	}
	return UserProfile{
		ID:             string(user.ID),
		Email:          user.Email,
		Username:       user.Username,
		FullName:       user.FullName,
		Bio:            user.Bio,
		ProfilePicture: user.ProfilePicture,
		CoverPhoto:     user.CoverPhoto,
		Location:       user.Location,
		Verified:       user.Verified,
		Followers:      MapSnippets(followers),
		Following:      MapSnippets(following),
		Connections:    MapSnippets(connections),
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}
}

func NewAuthResponse(user *domainuser.User, token string) AuthResponse {
	return AuthResponse{
		User:  MapUserProfile(user, nil, nil, nil),
		Token: token,
	}
}
