package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Like toggle results returned by the upstream API.
const (
	LikeAdded   = "Like added"
	LikeRemoved = "Like removed"
)

// ErrUnknownLikeResult is returned when a like response carries neither known message.
var ErrUnknownLikeResult = errors.New("unknown like result")

// Beat is a user-uploaded track. The list, search, by-user and favorite
// endpoints return subsets of these fields.
type Beat struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Username    string `json:"username,omitempty"`
	Description string `json:"description,omitempty"`
	Discord     string `json:"discord,omitempty"`
	Genre       string `json:"genre,omitempty"`
	Tags        string `json:"tags,omitempty"` // comma-joined
	FileURL     string `json:"file_url"`
	FileSize    int64  `json:"file_size,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	Likes       int    `json:"likes"`
	IsLiked     string `json:"is_liked,omitempty"` // "0" or "1"
}

// BeatUpdate is the body of an edit request.
type BeatUpdate struct {
	Title       string `json:"title" form:"title" validate:"notblank,min=2,max=100"`
	Description string `json:"description" form:"description" validate:"notblank,min=10,max=500"`
	Genre       string `json:"genre" form:"genre" validate:"required,genre"`
	Tags        string `json:"tags" form:"tags" validate:"notblank,max=200"`
}

// Page is the paginated envelope used by list endpoints.
type Page[T any] struct {
	Message    string `json:"message,omitempty"`
	Data       []T    `json:"data"`
	TotalPages int    `json:"totalPages"`
}

// Liked reports whether the current user likes the beat.
func (b Beat) Liked() bool {
	return b.IsLiked == "1"
}

// TagList splits the comma-joined tags.
func (b Beat) TagList() []string {
	var tags []string
	for _, t := range strings.Split(b.Tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// Update returns the editable part of the beat.
func (b Beat) Update() BeatUpdate {
	return BeatUpdate{Title: b.Title, Description: b.Description, Genre: b.Genre, Tags: b.Tags}
}

// ApplyLike applies a successful like toggle response to the beat.
func (b *Beat) ApplyLike(message string) error {
	switch message {
	case LikeAdded:
		b.IsLiked = "1"
		b.Likes++
	case LikeRemoved:
		b.IsLiked = "0"
		if b.Likes > 0 {
			b.Likes--
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownLikeResult, message)
	}
	return nil
}

// HumanSize formats FileSize as Bytes/KB/MB/GB.
func (b Beat) HumanSize() string {
	return FormatFileSize(b.FileSize)
}

// FormatFileSize formats a byte count with two decimals at most.
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	const k = 1024
	sizes := []string{"Bytes", "KB", "MB", "GB"}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(k)))
	if i >= len(sizes) {
		i = len(sizes) - 1
	}
	v := float64(bytes) / math.Pow(k, float64(i))
	s := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
	return s + " " + sizes[i]
}
