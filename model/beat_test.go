package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeat_ApplyLike(t *testing.T) {
	t.Run("added", func(t *testing.T) {
		b := Beat{ID: "1", Likes: 4, IsLiked: "0"}
		require.NoError(t, b.ApplyLike(LikeAdded))
		assert.Equal(t, 5, b.Likes)
		assert.True(t, b.Liked())
	})

	t.Run("removed", func(t *testing.T) {
		b := Beat{ID: "1", Likes: 4, IsLiked: "1"}
		require.NoError(t, b.ApplyLike(LikeRemoved))
		assert.Equal(t, 3, b.Likes)
		assert.False(t, b.Liked())
	})

	t.Run("removed never goes negative", func(t *testing.T) {
		b := Beat{ID: "1", Likes: 0, IsLiked: "1"}
		require.NoError(t, b.ApplyLike(LikeRemoved))
		assert.Equal(t, 0, b.Likes)
	})

	t.Run("unknown message leaves beat untouched", func(t *testing.T) {
		b := Beat{ID: "1", Likes: 2, IsLiked: "0"}
		err := b.ApplyLike("ok")
		assert.ErrorIs(t, err, ErrUnknownLikeResult)
		assert.Equal(t, Beat{ID: "1", Likes: 2, IsLiked: "0"}, b)
	})
}

func TestBeat_TagList(t *testing.T) {
	b := Beat{Tags: " chill, trap ,,lofi "}
	assert.Equal(t, []string{"chill", "trap", "lofi"}, b.TagList())
	assert.Nil(t, (&Beat{}).TagList())
}

func TestFormatFileSize(t *testing.T) {
	cases := map[int64]string{
		0:               "0 Bytes",
		512:             "512 Bytes",
		1024:            "1 KB",
		1536:            "1.5 KB",
		5 * 1024 * 1024: "5 MB",
		3 << 30:         "3 GB",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatFileSize(in), "bytes=%d", in)
	}
}

func TestProfile_Form(t *testing.T) {
	p := Profile{ID: "7", Username: "mc", Region: "Asia", Discord: "mc.1", Tracks: 3}
	assert.Equal(t, ProfileForm{ID: "7", Username: "mc", Region: "Asia", Discord: "mc.1"}, p.Form())
}
