package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisaathi/agriwaste/cmd/server/internal/ai/classify"
	"github.com/agrisaathi/agriwaste/cmd/server/internal/ai/describe"
	"github.com/agrisaathi/agriwaste/cmd/server/internal/ai/speech"
	"github.com/agrisaathi/agriwaste/cmd/server/internal/session"
)

var pngImage = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, make([]byte, 16)...)

type stubClassifier struct {
	pred classify.Prediction
}

func (s *stubClassifier) Classify(ctx context.Context, imageDataURI string) (classify.Prediction, error) {
	return s.pred, nil
}

func (s *stubClassifier) Name() string { return "stub" }

type stubTranslator struct{}

func (s *stubTranslator) TranslateText(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	return targetLang + ":" + text, nil
}

func (s *stubTranslator) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = targetLang + ":" + t
	}
	return out, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *session.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	manager := session.NewManager(session.Deps{
		Classifier: &stubClassifier{pred: classify.Prediction{WasteType: "Rice Husk", Confidence: 0.92}},
		Describer: describe.DescriberFunc(func(ctx context.Context, wasteType string) (string, error) {
			return "desc of " + wasteType, nil
		}),
		Translator: &stubTranslator{},
		Speech:     &speech.MockPlayer{},
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, 0)

	r := gin.New()
	NewSessionHandler(manager).Register(r)
	return r, manager
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeSnapshot(t *testing.T, w *httptest.ResponseRecorder) session.Snapshot {
	t.Helper()
	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	return snap
}

func createSession(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	snap := decodeSnapshot(t, w)
	require.NotEmpty(t, snap.ID)
	return snap.ID
}

func uploadImage(t *testing.T, r *gin.Engine, id string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "field.png")
	require.NoError(t, err)
	_, err = part.Write(pngImage)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateAndGetSession(t *testing.T) {
	r, _ := newTestRouter(t)

	id := createSession(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap := decodeSnapshot(t, w)
	assert.Equal(t, id, snap.ID)
	assert.Equal(t, "en", snap.ActiveLanguage)
	assert.False(t, snap.HasImage)
	assert.NotEmpty(t, snap.UIStrings)
}

func TestGetUnknownSession(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/sessions/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestUploadImageClassifies(t *testing.T) {
	r, _ := newTestRouter(t)
	id := createSession(t, r)

	w := uploadImage(t, r, id)
	require.Equal(t, http.StatusOK, w.Code)

	snap := decodeSnapshot(t, w)
	require.NotNil(t, snap.Prediction)
	assert.Equal(t, "Rice Husk", snap.Prediction.WasteType)
	assert.Equal(t, "desc of Rice Husk", snap.Description)
	assert.True(t, snap.HasImage)
}

func TestUploadImageMissingField(t *testing.T) {
	r, _ := newTestRouter(t)
	id := createSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/sessions/"+id+"/image", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSelectionAndCorrection(t *testing.T) {
	r, _ := newTestRouter(t)
	id := createSession(t, r)
	uploadImage(t, r, id)

	w := doJSON(t, r, http.MethodPost, "/api/sessions/"+id+"/correction", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Choices []string `json:"choices"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Choices, 7)

	w = doJSON(t, r, http.MethodPost, "/api/sessions/"+id+"/selection", gin.H{"wasteType": "Manure"})
	require.Equal(t, http.StatusOK, w.Code)
	snap := decodeSnapshot(t, w)
	assert.Equal(t, "Manure", snap.Selection)
	assert.Nil(t, snap.Prediction)
	assert.Equal(t, "desc of Manure", snap.Description)

	w = doJSON(t, r, http.MethodPost, "/api/sessions/"+id+"/selection", gin.H{"wasteType": "Old Tires"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetLanguage(t *testing.T) {
	r, _ := newTestRouter(t)
	id := createSession(t, r)
	uploadImage(t, r, id)

	w := doJSON(t, r, http.MethodPut, "/api/sessions/"+id+"/language", gin.H{"language": "hi"})
	require.Equal(t, http.StatusOK, w.Code)
	snap := decodeSnapshot(t, w)
	assert.Equal(t, "hi", snap.ActiveLanguage)
	assert.Equal(t, "hi:desc of Rice Husk", snap.Description)

	w = doJSON(t, r, http.MethodPut, "/api/sessions/"+id+"/language", gin.H{"language": "xx"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCameraPermissionFlow(t *testing.T) {
	r, _ := newTestRouter(t)
	id := createSession(t, r)
	frame := base64.StdEncoding.EncodeToString(pngImage)

	// Capture before any permission report is rejected.
	w := doJSON(t, r, http.MethodPost, "/api/sessions/"+id+"/camera/frame", gin.H{"frame": frame})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// A denial is terminal: the later grant does not help.
	w = doJSON(t, r, http.MethodPost, "/api/sessions/"+id+"/camera/permission", gin.H{"granted": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeSnapshot(t, w).CameraDenied)

	w = doJSON(t, r, http.MethodPost, "/api/sessions/"+id+"/camera/permission", gin.H{"granted": true})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/sessions/"+id+"/camera/frame", gin.H{"frame": frame})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCameraCaptureClassifies(t *testing.T) {
	r, _ := newTestRouter(t)
	id := createSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/sessions/"+id+"/camera/permission", gin.H{"granted": true})
	require.Equal(t, http.StatusOK, w.Code)

	frame := base64.StdEncoding.EncodeToString(pngImage)
	w = doJSON(t, r, http.MethodPost, "/api/sessions/"+id+"/camera/frame", gin.H{"frame": frame})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Rice Husk", decodeSnapshot(t, w).Selection)
}

func TestSpeechFlow(t *testing.T) {
	r, _ := newTestRouter(t)
	id := createSession(t, r)
	uploadImage(t, r, id)

	w := doJSON(t, r, http.MethodGet, "/api/sessions/"+id+"/speech", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "no audio before the first playback")

	w = doJSON(t, r, http.MethodPost, "/api/sessions/"+id+"/speech/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeSnapshot(t, w).IsSpeaking)

	w = doJSON(t, r, http.MethodGet, "/api/sessions/"+id+"/speech", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/wav", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestResetAndDelete(t *testing.T) {
	r, m := newTestRouter(t)
	id := createSession(t, r)
	uploadImage(t, r, id)

	w := doJSON(t, r, http.MethodPost, "/api/sessions/"+id+"/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap := decodeSnapshot(t, w)
	assert.False(t, snap.HasImage)
	assert.Empty(t, snap.Description)

	w = doJSON(t, r, http.MethodDelete, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, m.Len())

	w = doJSON(t, r, http.MethodDelete, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
