package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heronhoga/bars-fe/cache"
	"github.com/heronhoga/bars-fe/core/api"
	"github.com/heronhoga/bars-fe/core/live"
	"github.com/heronhoga/bars-fe/core/session"
	"github.com/heronhoga/bars-fe/web"
)

// upstream is a fake REST API that records the calls it served.
type upstream struct {
	t   *testing.T
	mux *http.ServeMux
	srv *httptest.Server

	mu    sync.Mutex
	calls []string
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{t: t, mux: http.NewServeMux()}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.calls = append(u.calls, r.Method+" "+r.URL.Path)
		u.mu.Unlock()
		u.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(u.srv.Close)
	return u
}

func (u *upstream) handle(pattern, body string) {
	u.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, body)
	})
}

func (u *upstream) Calls() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.calls...)
}

type testServer struct {
	up    *upstream
	store *cache.MemoryStore
	hub   *live.Hub
	srv   *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerTimeout(t, time.Second)
}

// newTestServerTimeout is newTestServer with a custom upstream client timeout.
func newTestServerTimeout(t *testing.T, timeout time.Duration) *testServer {
	t.Helper()
	up := newUpstream(t)
	renderer, err := web.NewRenderer("")
	require.NoError(t, err)

	store := cache.NewMemoryStore()
	hub := live.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	client := api.NewClient(up.srv.URL, "app-secret", timeout)
	h := NewHandler(client, session.NewStore(false, time.Hour), store, renderer, hub, 8<<20)
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return &testServer{up: up, store: store, hub: hub, srv: srv}
}

func noRedirect(req *http.Request, via []*http.Request) error { return http.ErrUseLastResponse }

// do sends a request as a browser with the given cookies, never following redirects.
func (s *testServer) do(t *testing.T, req *http.Request, loggedIn bool) *http.Response {
	t.Helper()
	req.AddCookie(&http.Cookie{Name: session.VisitorCookie, Value: visitor})
	if loggedIn {
		req.AddCookie(&http.Cookie{Name: session.TokenCookie, Value: "tok"})
	}
	client := &http.Client{CheckRedirect: noRedirect}
	res, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func (s *testServer) get(t *testing.T, path string, loggedIn bool) *http.Response {
	req, err := http.NewRequest(http.MethodGet, s.srv.URL+path, nil)
	require.NoError(t, err)
	return s.do(t, req, loggedIn)
}

func (s *testServer) post(t *testing.T, path string, form url.Values, loggedIn bool) *http.Response {
	req, err := http.NewRequest(http.MethodPost, s.srv.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(t, req, loggedIn)
}

const visitor = "9f1c4b1e-2f7a-4c1d-9a43-1b5a6c7d8e9f"

func body(t *testing.T, res *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return string(b)
}

func cookie(res *http.Response, name string) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

const beatsPage = `{"data":[
	{"id":"b1","title":"Night Drive","username":"mc","genre":"Trap","tags":"trap,dark","description":"late night trap beat","file_url":"http://cdn/b1.mp3","file_size":2048,"likes":3,"is_liked":"0"},
	{"id":"b2","title":"Sunrise","username":"mc","file_url":"http://cdn/b2.mp3","likes":0}
],"totalPages":2}`

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	res := s.get(t, "/healthz", false)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "ok", body(t, res))
	assert.NotEmpty(t, res.Header.Get("X-Request-ID"))
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t)

	res := s.get(t, "/home", false)
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/login", res.Header.Get("Location"))

	req, err := http.NewRequest(http.MethodPost, s.srv.URL+"/beat/b1/like", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json")
	res = s.do(t, req, false)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	var e jsonError
	require.NoError(t, json.NewDecoder(res.Body).Decode(&e))
	assert.Equal(t, "/login", e.Redirect)

	assert.Empty(t, s.up.Calls())
}

func TestVisitorCookieIssued(t *testing.T) {
	s := newTestServer(t)
	res, err := http.Get(s.srv.URL + "/login")
	require.NoError(t, err)
	defer res.Body.Close()
	c := cookie(res, session.VisitorCookie)
	require.NotNil(t, c)
	assert.Len(t, c.Value, 36)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.up.mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		var form map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&form))
		if form["password"] != "Secret123" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":"Wrong credentials"}`)
			return
		}
		_, _ = io.WriteString(w, `{"message":"Login successful","token":"jwt-token"}`)
	})

	t.Run("invalid form never reaches the API", func(t *testing.T) {
		res := s.post(t, "/login", url.Values{"username": {" "}, "password": {""}}, false)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		html := body(t, res)
		assert.Contains(t, html, "Username is required")
		assert.Contains(t, html, "Password is required")
		assert.Empty(t, s.up.Calls())
	})

	t.Run("server message is shown", func(t *testing.T) {
		res := s.post(t, "/login", url.Values{"username": {"mc"}, "password": {"nope"}}, false)
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
		assert.Contains(t, body(t, res), "Wrong credentials")
		assert.Nil(t, cookie(res, session.TokenCookie))
	})

	t.Run("success stores the cookie", func(t *testing.T) {
		res := s.post(t, "/login", url.Values{"username": {"mc"}, "password": {"Secret123"}}, false)
		assert.Equal(t, http.StatusSeeOther, res.StatusCode)
		assert.Equal(t, "/home?alert=logged-in", res.Header.Get("Location"))
		c := cookie(res, session.TokenCookie)
		require.NotNil(t, c)
		assert.Equal(t, "jwt-token", c.Value)
		assert.True(t, c.HttpOnly)
	})
}

func TestLoginFailure_Network(t *testing.T) {
	assert.Equal(t, "Login failed. Please try again later.", loginFailure(io.ErrUnexpectedEOF))
	assert.Equal(t, "Invalid username or password. Please try again.", loginFailure(api.ErrInvalidResponse))
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)
	var sent map[string]any
	s.up.mux.HandleFunc("POST /register", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
		_, _ = io.WriteString(w, `{"message":"User created"}`)
	})

	form := url.Values{
		"username": {"new_mc"}, "password": {"Secret123"}, "confirmPassword": {"Secret12"},
		"region": {"Asia"}, "discord": {"mc.discord"},
	}
	res := s.post(t, "/register", form, false)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	html := body(t, res)
	assert.Contains(t, html, "Passwords do not match")
	assert.NotContains(t, html, "Secret12")
	assert.Empty(t, s.up.Calls())

	form.Set("confirmPassword", "Secret123")
	res = s.post(t, "/register", form, false)
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/login?alert=registered", res.Header.Get("Location"))
	assert.Equal(t, "new_mc", sent["username"])
	assert.NotContains(t, sent, "confirmPassword")

	res = s.get(t, "/login?alert=registered", false)
	assert.Contains(t, body(t, res), "Registration Successful")
}

func TestLogout(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/logout", "/api/logout"} {
		res := s.post(t, path, nil, true)
		assert.Equal(t, http.StatusSeeOther, res.StatusCode)
		assert.Equal(t, "/", res.Header.Get("Location"))
		c := cookie(res, session.TokenCookie)
		require.NotNil(t, c)
		assert.Equal(t, -1, c.MaxAge)
	}
}

func TestLanding(t *testing.T) {
	s := newTestServer(t)
	s.up.mux.HandleFunc("GET /favoritebeats", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"data":[{"id":"f1","title":"Crowd Favorite","username":"dj","file_url":"http://cdn/f1.mp3","likes":42}]}`)
	})

	res := s.get(t, "/", false)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body(t, res), "Crowd Favorite")
}

func TestLanding_UpstreamDown(t *testing.T) {
	s := newTestServer(t)
	s.up.srv.Close()

	res := s.get(t, "/", false)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body(t, res), "Failed to fetch beats")
}

func TestSearch(t *testing.T) {
	s := newTestServer(t)
	var pages []string
	s.up.mux.HandleFunc("GET /beat", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "night drive", q.Get("title"))
		assert.Equal(t, "night drive", q.Get("artist"))
		pages = append(pages, q.Get("page"))
		_, _ = io.WriteString(w, beatsPage)
	})

	res := s.get(t, "/search?q=night+drive", true)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	html := body(t, res)
	assert.Contains(t, html, "Night Drive")
	assert.Contains(t, html, "/search?page=2&amp;q=night")

	recent, err := s.store.Recent(t.Context(), visitor)
	require.NoError(t, err)
	assert.Equal(t, []string{"night drive"}, recent)

	// past the last page is clamped and refetched
	res = s.get(t, "/search?q=night+drive&page=9", true)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, []string{"1", "9", "2"}, pages)

	res = s.post(t, "/search/recent/clear", nil, true)
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	recent, err = s.store.Recent(t.Context(), visitor)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestSearch_Unauthorized(t *testing.T) {
	s := newTestServer(t)
	s.up.mux.HandleFunc("GET /beat", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"token expired"}`)
	})

	res := s.get(t, "/search?q=x", true)
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/login", res.Header.Get("Location"))
	c := cookie(res, session.TokenCookie)
	require.NotNil(t, c)
	assert.Equal(t, -1, c.MaxAge)
}

func uploadRequest(t *testing.T, s *testServer, contentType string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"title": "Night Drive", "description": "late night trap beat", "genre": "Trap", "tags": "trap,dark",
	} {
		require.NoError(t, mw.WriteField(k, v))
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="night.mp3"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, s.srv.URL+"/upload", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUpload(t *testing.T) {
	s := newTestServer(t)
	var got struct {
		title, fileType string
		size           int
	}
	s.up.mux.HandleFunc("POST /beat", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		got.title = r.FormValue("title")
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		got.size = len(data)
		got.fileType = hdr.Header.Get("Content-Type")
		_, _ = io.WriteString(w, `{"message":"New Beat successfully created"}`)
	})

	res := s.do(t, uploadRequest(t, s, "audio/wav", []byte("RIFF")), true)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body(t, res), "Please select a valid audio file (MP3)")
	assert.Empty(t, s.up.Calls())

	res = s.do(t, uploadRequest(t, s, "audio/mpeg", []byte("ID3-audio")), true)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	html := body(t, res)
	assert.Contains(t, html, "Beat Uploaded Successfully!")
	assert.Contains(t, html, `href="/home"`)
	assert.Equal(t, "Night Drive", got.title)
	assert.Equal(t, "audio/mpeg", got.fileType)
	assert.Equal(t, len("ID3-audio"), got.size)
}

func TestProfile_Tabs(t *testing.T) {
	s := newTestServer(t)
	s.up.handle("GET /profile", `{"data":{"id":"u1","username":"mc","region":"Asia","tracks":2,"likes":5}}`)
	s.up.mux.HandleFunc("GET /likedbeatbyuser", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		_, _ = io.WriteString(w, beatsPage)
	})
	s.up.handle("GET /beatbyuser", `{"data":[],"totalPages":0}`)

	res := s.get(t, "/profile?tab=liked&beats=3&liked=2", true)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	html := body(t, res)
	assert.Contains(t, html, "Night Drive")
	assert.Contains(t, html, "/profile?beats=3&amp;liked=2&amp;tab=beats")
	assert.NotContains(t, html, "/draft", "liked tab has no owner actions")

	res = s.get(t, "/profile", true)
	assert.Contains(t, body(t, res), "You have not uploaded any beats yet.")
}

func TestBeatEditFlow(t *testing.T) {
	s := newTestServer(t)
	s.up.handle("GET /beatbyuser", beatsPage)
	var update map[string]string
	s.up.mux.HandleFunc("PUT /beat/b1", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&update))
		_, _ = io.WriteString(w, `{"message":"Beat updated"}`)
	})

	res := s.get(t, "/profile/beat/b1/edit", true)
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/profile?alert=draft-missing", res.Header.Get("Location"))

	res = s.post(t, "/profile/beat/b1/draft", url.Values{"page": {"1"}}, true)
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/profile/beat/b1/edit", res.Header.Get("Location"))

	res = s.get(t, "/profile/beat/b1/edit", true)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body(t, res), "late night trap beat")

	res = s.post(t, "/profile/beat/b1/edit", url.Values{
		"title": {"N"}, "description": {"short"}, "genre": {"Trap"}, "tags": {"x"},
	}, true)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Nil(t, update)

	res = s.post(t, "/profile/beat/b1/edit", url.Values{
		"title": {"Night Drive II"}, "description": {"a longer description"}, "genre": {"Trap"}, "tags": {"trap"},
	}, true)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body(t, res), "Beat Updated Successfully!")
	assert.Equal(t, "Night Drive II", update["title"])

	_, err := s.store.Draft(t.Context(), visitor, "b1")
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

func TestCancelEdit(t *testing.T) {
	s := newTestServer(t)
	s.up.handle("GET /beatbyuser", beatsPage)

	s.post(t, "/profile/beat/b2/draft", nil, true)
	res := s.post(t, "/profile/beat/b2/cancel", nil, true)
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/profile", res.Header.Get("Location"))

	_, err := s.store.Draft(t.Context(), visitor, "b2")
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

func TestDeleteBeat(t *testing.T) {
	s := newTestServer(t)
	s.up.mux.HandleFunc("DELETE /beat", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req["beat_id"] != "b1" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":"not found"}`)
			return
		}
		_, _ = io.WriteString(w, `{"message":"Beat deleted"}`)
	})

	res := s.post(t, "/profile/beat/b1/delete", nil, true)
	assert.Equal(t, "/profile?alert=deleted", res.Header.Get("Location"))

	res = s.post(t, "/profile/beat/zz/delete", nil, true)
	assert.Equal(t, "/profile?alert=delete-failed", res.Header.Get("Location"))
}

func TestProfileEdit(t *testing.T) {
	s := newTestServer(t)
	s.up.handle("GET /profile", `{"id":"u1","username":"mc","region":"Asia","discord":"mc.d"}`)
	var sent map[string]string
	s.up.mux.HandleFunc("PUT /profile/edit", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
		_, _ = io.WriteString(w, `{"message":"Profile updated"}`)
	})

	res := s.get(t, "/profile/edit", true)
	html := body(t, res)
	assert.Contains(t, html, `value="mc"`)
	assert.Contains(t, html, `value="u1"`)

	res = s.post(t, "/profile/edit", url.Values{"id": {"u1"}, "region": {"Mars"}}, true)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body(t, res), "Please select your region")
	assert.Nil(t, sent)

	res = s.post(t, "/profile/edit", url.Values{"id": {"u1"}, "region": {"Europe"}, "discord": {"mc.new"}}, true)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body(t, res), "Profile Data Updated")
	assert.Equal(t, map[string]string{"id": "u1", "region": "Europe", "discord": "mc.new"}, sent)
}

func TestLike(t *testing.T) {
	s := newTestServer(t)
	s.up.mux.HandleFunc("POST /beat/like", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		switch req["id"] {
		case "b1":
			_, _ = io.WriteString(w, `{"message":"Like added"}`)
		case "b2":
			_, _ = io.WriteString(w, `{"message":"Like removed"}`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"error":"boom"}`)
		}
	})

	like := func(id string, form url.Values) (*http.Response, map[string]any) {
		req, err := http.NewRequest(http.MethodPost, s.srv.URL+"/beat/"+id+"/like", strings.NewReader(form.Encode()))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")
		res := s.do(t, req, true)
		var out map[string]any
		require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
		return res, out
	}

	res, out := like("b1", url.Values{"likes": {"3"}, "liked": {"0"}})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, map[string]any{"id": "b1", "likes": float64(4), "isLiked": true}, out)

	_, out = like("b2", url.Values{"likes": {"1"}, "liked": {"1"}})
	assert.Equal(t, map[string]any{"id": "b2", "likes": float64(0), "isLiked": false}, out)

	res, out = like("b3", url.Values{"likes": {"1"}, "liked": {"1"}})
	assert.Equal(t, http.StatusBadGateway, res.StatusCode)
	assert.Equal(t, "boom", out["error"])
}

func TestFeedSocket(t *testing.T) {
	s := newTestServer(t)
	s.up.mux.HandleFunc("GET /beat", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, beatsPage)
	})

	header := http.Header{}
	header.Add("Cookie", session.TokenCookie+"=tok")
	wsURL := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws/feed"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer conn.Close()

	load, err := live.NewMessage(live.MsgTypeLoad, nil)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(load))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var page *live.BeatsData
	for page == nil {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		for _, line := range bytes.Split(data, []byte{'\n'}) {
			var msg live.WSMessage
			require.NoError(t, json.Unmarshal(line, &msg))
			if msg.Type == live.MsgTypeBeats {
				page = &live.BeatsData{}
				require.NoError(t, msg.Decode(page))
			}
		}
	}
	assert.Equal(t, 1, page.Page)
	assert.Len(t, page.Beats, 2)
	assert.Eventually(t, func() bool { return s.hub.Count() == 1 }, time.Second, 10*time.Millisecond)
}

// blockingFeed makes GET /beat hang until the caller gives up.
func (s *testServer) blockingFeed() (started, aborted chan struct{}) {
	started, aborted = make(chan struct{}, 1), make(chan struct{}, 1)
	s.up.mux.HandleFunc("GET /beat", func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		<-r.Context().Done()
		aborted <- struct{}{}
	})
	return started, aborted
}

func TestFeedSocket_LeavingAbortsUpstreamCall(t *testing.T) {
	leave := map[string]func(t *testing.T, conn *websocket.Conn){
		"navigate": func(t *testing.T, conn *websocket.Conn) {
			nav, err := live.NewMessage(live.MsgTypeNavigate, nil)
			require.NoError(t, err)
			require.NoError(t, conn.WriteJSON(nav))
		},
		"close": func(t *testing.T, conn *websocket.Conn) {
			conn.Close()
		},
	}

	for name, fn := range leave {
		t.Run(name, func(t *testing.T) {
			// far longer than the test waits, so only cancellation can end the call
			s := newTestServerTimeout(t, 30*time.Second)
			started, aborted := s.blockingFeed()

			header := http.Header{}
			header.Add("Cookie", session.TokenCookie+"=tok")
			wsURL := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws/feed"
			conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
			require.NoError(t, err)
			defer conn.Close()

			load, err := live.NewMessage(live.MsgTypeLoad, nil)
			require.NoError(t, err)
			require.NoError(t, conn.WriteJSON(load))

			select {
			case <-started:
			case <-time.After(2 * time.Second):
				t.Fatal("feed request never reached upstream")
			}

			fn(t, conn)

			select {
			case <-aborted:
			case <-time.After(2 * time.Second):
				t.Fatal("upstream call still running after the page went away")
			}
			assert.Eventually(t, func() bool { return s.hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
		})
	}
}

func TestFeedSocket_RequiresSession(t *testing.T) {
	s := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws/feed"
	_, res, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
}
