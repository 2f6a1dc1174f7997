package live

import (
	"context"
	"errors"

	"github.com/heronhoga/bars-fe/core/api"
	"github.com/heronhoga/bars-fe/core/feed"
	"github.com/heronhoga/bars-fe/core/player"
	"github.com/heronhoga/bars-fe/logger"
	"github.com/heronhoga/bars-fe/model"
)

// BeatAPI is the part of the upstream client a feed page needs.
type BeatAPI interface {
	ListBeats(ctx context.Context, token string, page int) (*model.Page[model.Beat], error)
	LikeBeat(ctx context.Context, token, id string) (string, error)
}

// Sender delivers a message to the browser.
type Sender func(msg *WSMessage)

// Session is the server-side state of one home page: loaded beats, the
// playing track and like counts. Handle is called from a single read loop.
type Session struct {
	api    BeatAPI
	token  string
	send   Sender
	feed   *feed.Feed[model.Beat]
	player *player.Player
}

// NewSession creates the page state for token.
func NewSession(beats BeatAPI, token string, send Sender) *Session {
	s := &Session{api: beats, token: token, send: send}
	s.feed = feed.New(func(ctx context.Context, page int) (*model.Page[model.Beat], error) {
		return beats.ListBeats(ctx, token, page)
	})
	s.player = player.New(s.newAudio)
	return s
}

// remoteAudio drives the browser's single <audio> element.
type remoteAudio struct {
	id, url string
	send    func(MessageType, any)
}

func (a *remoteAudio) Play() error {
	a.send(MsgTypePlay, PlayData{ID: a.id, URL: a.url})
	return nil
}

// Pause tells the browser to stop; the browser rewinds on stop.
func (a *remoteAudio) Pause() {
	a.send(MsgTypeStop, BeatRef{ID: a.id})
}

func (a *remoteAudio) Rewind()  {}
func (a *remoteAudio) Release() {}

func (s *Session) newAudio(id, url string) (player.Audio, error) {
	if url == "" {
		return nil, errors.New("beat has no file url")
	}
	return &remoteAudio{id: id, url: url, send: s.emit}, nil
}

func (s *Session) emit(t MessageType, data any) {
	msg, err := NewMessage(t, data)
	if err != nil {
		logger.Error("failed to build message", logger.String("type", string(t)), logger.ErrorField(err))
		return
	}
	s.send(msg)
}

func (s *Session) fail(err error, fallback string) {
	data := ErrorData{Message: api.Message(err, fallback)}
	if api.IsUnauthorized(err) {
		data.Redirect = "/login"
	}
	s.emit(MsgTypeError, data)
}

// Handle dispatches one browser message.
func (s *Session) Handle(ctx context.Context, msg *WSMessage) {
	switch msg.Type {
	case MsgTypeLoad:
		s.load(ctx, 1)

	case MsgTypeScroll:
		var d ScrollData
		if err := msg.Decode(&d); err != nil {
			s.badMessage(msg, err)
			return
		}
		if feed.NearBottom(d.ScrollTop, d.ClientHeight, d.ScrollHeight) {
			s.load(ctx, 0)
		}

	case MsgTypePlay:
		var ref BeatRef
		if err := msg.Decode(&ref); err != nil {
			s.badMessage(msg, err)
			return
		}
		s.toggle(ref.ID)

	case MsgTypeEnded:
		var ref BeatRef
		if err := msg.Decode(&ref); err != nil {
			s.badMessage(msg, err)
			return
		}
		if s.player.Ended(ref.ID) {
			s.emit(MsgTypeStop, ref)
		}

	case MsgTypeStop:
		s.player.Stop()

	case MsgTypeLike:
		var ref BeatRef
		if err := msg.Decode(&ref); err != nil {
			s.badMessage(msg, err)
			return
		}
		s.like(ctx, ref.ID)

	case MsgTypeNavigate:
		s.Close()

	default:
		logger.Warn("unknown live message", logger.String("type", string(msg.Type)))
		s.emit(MsgTypeError, ErrorData{Message: "Unknown message"})
	}
}

// load fetches page 1 when page is 1, the next page otherwise.
func (s *Session) load(ctx context.Context, page int) {
	var (
		res feed.Result[model.Beat]
		err error
	)
	if page == 1 {
		res, err = s.feed.Load(ctx, 1)
	} else {
		res, err = s.feed.LoadMore(ctx)
	}

	switch {
	case errors.Is(err, feed.ErrBusy), errors.Is(err, feed.ErrExhausted),
		errors.Is(err, feed.ErrStale), errors.Is(err, feed.ErrClosed):
		return
	case err != nil:
		logger.Warn("Failed to load beats", logger.Int("page", res.Page), logger.ErrorField(err))
		s.fail(err, "Failed to load beats")
		s.emit(MsgTypeEnd, nil)
		return
	}

	if len(res.Items) > 0 || res.Replace {
		beats := res.Items
		if beats == nil {
			beats = []model.Beat{}
		}
		s.emit(MsgTypeBeats, BeatsData{Page: res.Page, Beats: beats, Replace: res.Replace})
	}
	if res.Done {
		s.emit(MsgTypeEnd, nil)
	}
}

func (s *Session) toggle(id string) {
	beat, ok := s.feed.Find(func(b model.Beat) bool { return b.ID == id })
	if !ok {
		s.emit(MsgTypeError, ErrorData{Message: "Beat not found"})
		return
	}
	if _, err := s.player.Toggle(beat.ID, beat.FileURL); err != nil {
		if errors.Is(err, player.ErrClosed) {
			return
		}
		logger.Warn("Failed to play beat", logger.String("beatID", id), logger.ErrorField(err))
		s.emit(MsgTypeError, ErrorData{Message: "Failed to play audio"})
	}
}

// like issues the toggle first and changes local state only on success.
func (s *Session) like(ctx context.Context, id string) {
	result, err := s.api.LikeBeat(ctx, s.token, id)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Warn("Failed to toggle like", logger.String("beatID", id), logger.ErrorField(err))
		s.fail(err, "Failed to like beat")
		return
	}

	beat, ok, err := s.feed.Update(
		func(b model.Beat) bool { return b.ID == id },
		func(b *model.Beat) error { return b.ApplyLike(result) },
	)
	if err != nil {
		logger.Warn("Unexpected like result", logger.String("beatID", id), logger.String("message", result))
		s.emit(MsgTypeError, ErrorData{Message: "Failed to like beat"})
		return
	}
	if !ok {
		return
	}
	s.emit(MsgTypeLiked, LikedData{ID: beat.ID, Likes: beat.Likes, IsLiked: beat.Liked()})
}

func (s *Session) badMessage(msg *WSMessage, err error) {
	logger.Warn("invalid live message data", logger.String("type", string(msg.Type)), logger.ErrorField(err))
	s.emit(MsgTypeError, ErrorData{Message: "Invalid message"})
}

// Close stops playback and cancels loads in flight.
func (s *Session) Close() {
	s.player.Navigate()
	s.feed.Close()
}

// Beats returns the loaded beats.
func (s *Session) Beats() []model.Beat {
	return s.feed.Items()
}

// Playing returns the id of the playing beat, or "".
func (s *Session) Playing() string {
	return s.player.Current()
}
