package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/heronhoga/bars-fe/model"
)

const fetchBeatsFailed = "Failed to fetch beats"

// getPage fetches a paginated beat list; data must be present.
func (c *Client) getPage(ctx context.Context, op, path string, query url.Values, token string) (*model.Page[model.Beat], error) {
	if err := requireToken(op, token); err != nil {
		return nil, err
	}
	req, err := c.createRequest(ctx, http.MethodGet, path+"?"+query.Encode(), nil, token)
	if err != nil {
		return nil, err
	}

	var page model.Page[model.Beat]
	if err := c.do(op, req, fetchBeatsFailed, &page); err != nil {
		return nil, err
	}
	if page.Data == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidResponse)
	}
	return &page, nil
}

func pageQuery(page int) url.Values {
	if page < 1 {
		page = 1
	}
	return url.Values{"page": {strconv.Itoa(page)}}
}

// ListBeats returns one page of the home feed.
func (c *Client) ListBeats(ctx context.Context, token string, page int) (*model.Page[model.Beat], error) {
	return c.getPage(ctx, "list beats", "/beat", pageQuery(page), token)
}

// SearchBeats matches q against both title and artist.
func (c *Client) SearchBeats(ctx context.Context, token, q string, page int) (*model.Page[model.Beat], error) {
	query := pageQuery(page)
	query.Set("title", q)
	query.Set("artist", q)
	return c.getPage(ctx, "search beats", "/beat", query, token)
}

// BeatsByUser lists the current user's uploads.
func (c *Client) BeatsByUser(ctx context.Context, token string, page int) (*model.Page[model.Beat], error) {
	return c.getPage(ctx, "beats by user", "/beatbyuser", pageQuery(page), token)
}

// LikedBeatsByUser lists the beats the current user liked.
func (c *Client) LikedBeatsByUser(ctx context.Context, token string, page int) (*model.Page[model.Beat], error) {
	return c.getPage(ctx, "liked beats by user", "/likedbeatbyuser", pageQuery(page), token)
}

// FavoriteBeats returns the public favorites shown on the landing page.
func (c *Client) FavoriteBeats(ctx context.Context) ([]model.Beat, error) {
	req, err := c.createRequest(ctx, http.MethodGet, "/favoritebeats", nil, "")
	if err != nil {
		return nil, err
	}

	var page model.Page[model.Beat]
	if err := c.do("favorite beats", req, fetchBeatsFailed, &page); err != nil {
		return nil, err
	}
	if page.Data == nil {
		return nil, fmt.Errorf("favorite beats: %w", ErrInvalidResponse)
	}
	return page.Data, nil
}

// CreateBeat uploads a new beat as multipart form data.
func (c *Client) CreateBeat(ctx context.Context, token string, form model.UploadForm) (string, error) {
	if err := requireToken("create beat", token); err != nil {
		return "", err
	}
	if form.File == nil || form.File.Content == nil {
		return "", fmt.Errorf("create beat: missing file")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, field := range [][2]string{
		{"title", form.Title},
		{"description", form.Description},
		{"genre", form.Genre},
		{"tags", form.Tags},
	} {
		if err := mw.WriteField(field[0], field[1]); err != nil {
			return "", fmt.Errorf("create beat: failed to write field %s: %w", field[0], err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, form.File.Name))
	h.Set("Content-Type", form.File.ContentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("create beat: failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, form.File.Content); err != nil {
		return "", fmt.Errorf("create beat: failed to copy file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("create beat: %w", err)
	}

	req, err := c.createRequest(ctx, http.MethodPost, "/beat", &buf, token)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.doMessage("create beat", req, "Failed to upload beat")
}

// EditBeat replaces the editable fields of a beat.
func (c *Client) EditBeat(ctx context.Context, token, id string, update model.BeatUpdate) (string, error) {
	if err := requireToken("edit beat", token); err != nil {
		return "", err
	}
	req, err := c.jsonRequest(ctx, http.MethodPut, "/beat/"+url.PathEscape(id), update, token)
	if err != nil {
		return "", err
	}
	return c.doMessage("edit beat", req, "Failed to update beat")
}

// DeleteBeat removes a beat owned by the current user.
func (c *Client) DeleteBeat(ctx context.Context, token, id string) (string, error) {
	if err := requireToken("delete beat", token); err != nil {
		return "", err
	}
	req, err := c.jsonRequest(ctx, http.MethodDelete, "/beat", map[string]string{"beat_id": id}, token)
	if err != nil {
		return "", err
	}
	return c.doMessage("delete beat", req, "Failed to delete beat")
}

// LikeBeat toggles the like; the returned message is model.LikeAdded or model.LikeRemoved.
func (c *Client) LikeBeat(ctx context.Context, token, id string) (string, error) {
	if err := requireToken("like beat", token); err != nil {
		return "", err
	}
	req, err := c.jsonRequest(ctx, http.MethodPost, "/beat/like", map[string]string{"id": id}, token)
	if err != nil {
		return "", err
	}
	return c.doMessage("like beat", req, "Failed to like beat")
}
