package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regdesk/internal/common/errors"
	httpclient "regdesk/internal/common/http"
	"regdesk/internal/common/logger"
	"regdesk/internal/models"
)

type recordingObserver struct {
	ops      []string
	statuses []int
}

func (r *recordingObserver) ObserveRequest(_ context.Context, operation string, status int, _ time.Duration) {
	r.ops = append(r.ops, operation)
	r.statuses = append(r.statuses, status)
}

func newTestClient(t *testing.T, handler http.Handler, opts ...httpclient.Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL + "/"
	client, err := NewClient(cfg, logger.NewTestLogger(t), opts...)
	require.NoError(t, err)
	return client
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.Validate())

	cfg.BaseURL = "not a url"
	assert.Error(t, cfg.Validate())

	cfg.BaseURL = "https://api.example.org"
	assert.NoError(t, cfg.Validate())

	cfg.Timeout = 0
	assert.Error(t, cfg.Validate())
}

func TestCreateRegistration_SendsMultipart(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/registrations", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get(httpclient.RequestIDHeader))
		assert.Equal(t, "intake-station", r.Header.Get("User-Agent"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Asha Devi", r.FormValue("name"))
		assert.Equal(t, "Rampur", r.FormValue("village"))
		assert.Equal(t, "Khurda", r.FormValue("district"))
		assert.Equal(t, "Jatni", r.FormValue("block"))
		assert.Equal(t, "9876543210", r.FormValue("mobile"))
		assert.Equal(t, "123456789012", r.FormValue("aadhaar"))
		assert.Equal(t, "Farmer", r.FormValue("category"))

		file, header, err := r.FormFile("photo")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "face.png", header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))
		data, _ := io.ReadAll(file)
		assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"qrCode": "REG-0001", "name": "Asha Devi"})
	})
	client := newTestClient(t, handler)

	reg, err := client.CreateRegistration(context.Background(), models.CreateRegistrationRequest{
		Name:       "Asha Devi",
		Village:    "Rampur",
		District:   "Khurda",
		Block:      "Jatni",
		Mobile:     "9876543210",
		NationalID: "123456789012",
		Category:   "Farmer",
		Photo: &models.Photo{
			Filename:    "face.png",
			ContentType: "image/png",
			Data:        []byte{0x89, 'P', 'N', 'G'},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "REG-0001", reg.Code)
	assert.Equal(t, "Asha Devi", reg.Name)
}

func TestCreateRegistration_WithoutPhotoOmitsPart(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, _, err := r.FormFile("photo")
		assert.ErrorIs(t, err, http.ErrMissingFile)
		_ = json.NewEncoder(w).Encode(map[string]string{"qrCode": "REG-0002"})
	})
	client := newTestClient(t, handler)

	reg, err := client.CreateRegistration(context.Background(), models.CreateRegistrationRequest{Name: "A"})
	require.NoError(t, err)
	assert.Equal(t, "REG-0002", reg.Code)
}

func TestCreateRegistration_ServerRejected(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"duplicate identifier"}`))
	})
	client := newTestClient(t, handler)

	_, err := client.CreateRegistration(context.Background(), models.CreateRegistrationRequest{Name: "A"})
	require.Error(t, err)

	assert.True(t, errors.HasCode(err, errors.ErrCodeServerRejected))
	assert.False(t, errors.IsRetryable(err))
	assert.Equal(t, "duplicate identifier", errors.ServerMessage(err))
	assert.Equal(t, http.StatusConflict, errors.AsStandard(err).Status)
}

func TestCreateRegistration_MissingCodeIsDecodeError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"A"}`))
	})
	client := newTestClient(t, handler)

	_, err := client.CreateRegistration(context.Background(), models.CreateRegistrationRequest{Name: "A"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeDecodeFailed))
}

func TestCheckIdentifier(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/registrations/check-aadhaar", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["aadhaar"] == "123456789012" {
			_, _ = w.Write([]byte(`{"exists":true,"qrCode":"REG-0001"}`))
			return
		}
		_, _ = w.Write([]byte(`{"exists":false}`))
	})
	client := newTestClient(t, handler)

	res, err := client.CheckIdentifier(context.Background(), "123456789012")
	require.NoError(t, err)
	assert.True(t, res.Exists)
	assert.Equal(t, "REG-0001", res.Code)

	res, err = client.CheckIdentifier(context.Background(), "999999999999")
	require.NoError(t, err)
	assert.False(t, res.Exists)
	assert.Empty(t, res.Code)
}

func TestCheckIdentifier_ExistsWithoutCode(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"exists":true}`))
	})
	client := newTestClient(t, handler)

	_, err := client.CheckIdentifier(context.Background(), "123456789012")
	assert.True(t, errors.HasCode(err, errors.ErrCodeDecodeFailed))
}

func TestFetchByCode_EscapesPath(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/registrations/REG%2F7", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{"name":"Asha Devi","district":"Khurda"}`))
	})
	client := newTestClient(t, handler)

	reg, err := client.FetchByCode(context.Background(), "REG/7")
	require.NoError(t, err)
	assert.Equal(t, "REG/7", reg.Code)
	assert.Equal(t, "Khurda", reg.District)
}

func TestWithSession_AddsBearerToken(t *testing.T) {
	var auth []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = append(auth, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"exists":false}`))
	})
	client := newTestClient(t, handler)
	authed := client.WithSession(&models.Session{Token: "tok-1"})

	_, err := authed.CheckIdentifier(context.Background(), "123456789012")
	require.NoError(t, err)
	_, err = client.CheckIdentifier(context.Background(), "123456789012")
	require.NoError(t, err)

	assert.Equal(t, []string{"Bearer tok-1", ""}, auth)
}

func TestWithSession_ExpiredSessionMakesNoCall(t *testing.T) {
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"exists":false}`))
	})
	issued := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	authed := newTestClient(t, handler).WithSession(&models.Session{
		StationID: "desk-01",
		Token:     "tok-1",
		IssuedAt:  issued,
		ExpiresAt: issued.Add(time.Hour),
	})

	authed.now = func() time.Time { return issued.Add(30 * time.Minute) }
	_, err := authed.CheckIdentifier(context.Background(), "123456789012")
	require.NoError(t, err)

	authed.now = func() time.Time { return issued.Add(time.Hour) }
	_, err = authed.CheckIdentifier(context.Background(), "123456789012")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeSessionMissing))
	assert.Equal(t, 1, calls)
}

type sessionSequence struct {
	sessions []*models.Session
	calls    int
}

func (s *sessionSequence) Current(context.Context) (*models.Session, error) {
	if s.calls >= len(s.sessions) {
		return nil, errors.NewSessionMissingError("desk-01")
	}
	sess := s.sessions[s.calls]
	s.calls++
	return sess, nil
}

func TestWithSessionSource_ResolvesEachRequest(t *testing.T) {
	var auth []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = append(auth, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"exists":false}`))
	})
	src := &sessionSequence{sessions: []*models.Session{{Token: "tok-1"}, {Token: "tok-2"}}}
	client := newTestClient(t, handler).WithSessionSource(src)

	for i := 0; i < 2; i++ {
		_, err := client.CheckIdentifier(context.Background(), "123456789012")
		require.NoError(t, err)
	}
	_, err := client.CheckIdentifier(context.Background(), "123456789012")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeSessionMissing))

	assert.Equal(t, []string{"Bearer tok-1", "Bearer tok-2"}, auth)
	assert.Equal(t, 2, src.calls)
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	obs := &recordingObserver{}
	cfg := DefaultConfig()
	cfg.BaseURL = url
	cfg.Timeout = 2 * time.Second
	client, err := NewClient(cfg, nil, httpclient.WithObserver(obs))
	require.NoError(t, err)

	_, err = client.FetchByCode(context.Background(), "REG-1")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeTransportFailure))
	assert.True(t, errors.IsRetryable(err))
	assert.Equal(t, errors.TransportMessage, errors.ServerFirst("").Message(err))

	assert.Equal(t, []string{OpFetchByCode}, obs.ops)
	assert.Equal(t, []int{0}, obs.statuses)
}

func TestObserverSeesStatus(t *testing.T) {
	obs := &recordingObserver{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	client := newTestClient(t, handler, httpclient.WithObserver(obs))

	_, err := client.CheckIdentifier(context.Background(), "123456789012")
	require.Error(t, err)
	assert.True(t, errors.IsRetryable(err))
	assert.Equal(t, "", errors.ServerMessage(err))
	assert.Equal(t, "Request failed with status code 500", errors.ServerFirst("").Message(err))
	assert.Equal(t, []int{500}, obs.statuses)
}
