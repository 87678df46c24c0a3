package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/resume-builder/internal/assist"
	"github.com/jonathan/resume-builder/internal/export"
	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/rendering"
	"github.com/jonathan/resume-builder/internal/server/ratelimit"
	"github.com/jonathan/resume-builder/internal/session"
	"github.com/jonathan/resume-builder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	mu      sync.Mutex
	text    string
	err     error
	prompts []string
	keys    []string
}

func (c *stubClient) GenerateContent(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	return c.text, c.err
}

func (c *stubClient) GetModel(llm.ModelTier) string { return "stub" }

func (c *stubClient) Close() error { return nil }

func (c *stubClient) factory() assist.ClientFactory {
	return func(_ context.Context, apiKey string) (llm.Client, error) {
		c.mu.Lock()
		c.keys = append(c.keys, apiKey)
		c.mu.Unlock()
		return c, nil
	}
}

type stubPDF struct {
	html string
	err  error
}

func (p *stubPDF) RenderPDF(_ context.Context, html string) ([]byte, error) {
	p.html = html
	if p.err != nil {
		return nil, p.err
	}
	return []byte("%PDF-1.4 stub"), nil
}

func testConfig() Config {
	return Config{
		Host:      "127.0.0.1",
		Port:      0,
		Session:   session.Config{IdleTTL: time.Hour, CleanupInterval: time.Minute, AssistTimeout: 5 * time.Second},
		RateLimit: &ratelimit.Config{Enabled: false},
	}
}

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	s, err := New(testConfig(), opts...)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func do(t *testing.T, s *Server, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createSession(t *testing.T, s *Server) string {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[CreateSessionResponse](t, rec).SessionID
}

func regionHTML(t *testing.T, p *rendering.Preview, id rendering.RegionID) *goquery.Document {
	t.Helper()
	require.NotNil(t, p)
	region, ok := p.Region(id)
	require.True(t, ok)
	d, err := goquery.NewDocumentFromReader(strings.NewReader(string(region.HTML)))
	require.NoError(t, err)
	return d
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	createSession(t, s)

	rec := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 1, body["sessions"])
}

func TestIndex_RedirectsToNewSession(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/sessions/"))
	assert.Equal(t, 1, s.Registry().Len())
}

func TestCreateSession_SeedsExampleDocument(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	rec := do(t, s, http.MethodGet, "/sessions/"+id+"/document", "")
	require.Equal(t, http.StatusOK, rec.Code)

	doc := decode[types.Resume](t, rec)
	assert.Equal(t, "Alex Morgan", doc.Personal.FullName)
	assert.Equal(t, types.DefaultThemeColor, doc.ThemeColor)
	require.Len(t, doc.Experience, 1)
	assert.NotEmpty(t, doc.Experience[0].ID)
}

func TestCreateSession_FromDocument(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/sessions", `{"personal":{"fullName":"Jo","jobTitle":"Engineer"},"skills":"Go"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[CreateSessionResponse](t, rec).SessionID

	doc := decode[types.Resume](t, do(t, s, http.MethodGet, "/sessions/"+id+"/document", ""))
	assert.Equal(t, "Jo", doc.Personal.FullName)
	assert.Equal(t, types.DefaultThemeColor, doc.ThemeColor)
	assert.Empty(t, doc.Experience)
}

func TestCreateSession_InvalidDocument(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/sessions", `{"personal":{"fullName":1}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, s.Registry().Len())
}

func TestEditorPage(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	rec := do(t, s, http.MethodGet, "/sessions/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	d, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	session, _ := d.Find("body").Attr("data-session")
	assert.Equal(t, id, session)
	assert.Equal(t, "Alex Morgan", d.Find("#preview-name").Text())

	busy, _ := d.Find(`button[data-assist="summary"]`).Attr("data-busy")
	assert.Equal(t, "Thinking...", busy)
}

func TestUnknownSession(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{"/sessions/nope", "/sessions/nope/document", "/sessions/nope/preview", "/sessions/nope/events"} {
		rec := do(t, s, http.MethodGet, target, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}
}

func TestDeleteSession(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, "/sessions/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/sessions/"+id+"/document", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodDelete, "/sessions/"+id, "").Code)
}

func TestSetPersonalField(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	rec := do(t, s, http.MethodPut, "/sessions/"+id+"/personal/fullName", `{"value":"Sam Lee"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[MutationResponse](t, rec)
	assert.EqualValues(t, 1, resp.Revision)
	assert.Nil(t, resp.ExperienceInputs)
	assert.Equal(t, "Sam Lee", regionHTML(t, resp.Preview, rendering.RegionHeader).Find("#preview-name").Text())
}

func TestSetPersonalField_EmptyValueHidesSummary(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	rec := do(t, s, http.MethodPut, "/sessions/"+id+"/personal/summary", `{"value":""}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[MutationResponse](t, rec)
	region, ok := resp.Preview.Region(rendering.RegionSummary)
	require.True(t, ok)
	assert.True(t, region.Hidden)
}

func TestSetPersonalField_Rejections(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	tests := []struct {
		name   string
		target string
		body   string
	}{
		{"unknown field", "/sessions/" + id + "/personal/nickname", `{"value":"x"}`},
		{"missing value", "/sessions/" + id + "/personal/email", `{}`},
		{"malformed body", "/sessions/" + id + "/personal/email", `{"value":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPut, tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decode[map[string]string](t, rec), "error")
		})
	}

	doc := decode[types.Resume](t, do(t, s, http.MethodGet, "/sessions/"+id+"/document", ""))
	assert.Equal(t, "alex@example.com", doc.Personal.Email)
}

func TestSetTheme(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	rec := do(t, s, http.MethodPut, "/sessions/"+id+"/theme", `{"color":"#059669"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[MutationResponse](t, rec)
	assert.Equal(t, "#059669", resp.Preview.ThemeColor)
	style, _ := regionHTML(t, resp.Preview, rendering.RegionHeader).Find("#preview-name").Attr("style")
	assert.Contains(t, style, "#059669")

	long := strings.Repeat("a", 65)
	for _, color := range []string{"", "tomato", long} {
		rec = do(t, s, http.MethodPut, "/sessions/"+id+"/theme", `{"color":"`+color+`"}`)
		require.Equal(t, http.StatusOK, rec.Code, "color %q", color)
		assert.Equal(t, color, decode[MutationResponse](t, rec).Preview.ThemeColor)
	}

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPut, "/sessions/"+id+"/theme", `{}`).Code)
}

func TestOversizedBody(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	big := strings.Repeat("x", maxBodyBytes+1)
	rec := do(t, s, http.MethodPut, "/sessions/"+id+"/skills", `{"text":"`+big+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = do(t, s, http.MethodPut, "/sessions/"+id+"/document", `{"personal":{"summary":"`+big+`"}}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	doc := decode[types.Resume](t, do(t, s, http.MethodGet, "/sessions/"+id+"/document", ""))
	assert.NotEqual(t, big, doc.Skills)
}

func TestSetSkills(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	rec := do(t, s, http.MethodPut, "/sessions/"+id+"/skills", `{"text":"Go, SQL"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[MutationResponse](t, rec)
	chips := regionHTML(t, resp.Preview, rendering.RegionSkills).Find(".chip")
	assert.Equal(t, 2, chips.Length())

	rec = do(t, s, http.MethodPut, "/sessions/"+id+"/skills", `{"text":""}`)
	require.Equal(t, http.StatusOK, rec.Code)
	region, _ := decode[MutationResponse](t, rec).Preview.Region(rendering.RegionSkills)
	assert.True(t, region.Hidden)
}

func TestExperienceLifecycle(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	rec := do(t, s, http.MethodPost, "/sessions/"+id+"/experience", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	added := decode[MutationResponse](t, rec)
	require.NotEmpty(t, added.EntryID)
	require.NotNil(t, added.ExperienceInputs)
	assert.Contains(t, *added.ExperienceInputs, added.EntryID)

	doc := decode[types.Resume](t, do(t, s, http.MethodGet, "/sessions/"+id+"/document", ""))
	require.Len(t, doc.Experience, 2)
	assert.Equal(t, added.EntryID, doc.Experience[0].ID)
	assert.Equal(t, types.NewExperienceDescription, doc.Experience[0].Description)

	rec = do(t, s, http.MethodPut, "/sessions/"+id+"/experience/"+added.EntryID+"/company", `{"value":"Acme"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	company := regionHTML(t, decode[MutationResponse](t, rec).Preview, rendering.RegionExperience).Find(".company").First().Text()
	assert.Equal(t, "Acme", company)

	rec = do(t, s, http.MethodPut, "/sessions/"+id+"/experience/"+added.EntryID+"/salary", `{"value":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodDelete, "/sessions/"+id+"/experience/"+added.EntryID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, decode[MutationResponse](t, rec).ExperienceInputs)

	doc = decode[types.Resume](t, do(t, s, http.MethodGet, "/sessions/"+id+"/document", ""))
	assert.Len(t, doc.Experience, 1)
}

func TestExperience_UnknownEntryIsNoOp(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	rec := do(t, s, http.MethodPut, "/sessions/"+id+"/experience/missing/role", `{"value":"x"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode[MutationResponse](t, rec).Revision)

	rec = do(t, s, http.MethodDelete, "/sessions/"+id+"/experience/missing", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode[MutationResponse](t, rec).Revision)
}

func TestEducationLifecycle(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	rec := do(t, s, http.MethodPost, "/sessions/"+id+"/education", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	added := decode[MutationResponse](t, rec)
	require.NotNil(t, added.EducationInputs)
	assert.Nil(t, added.ExperienceInputs)

	rec = do(t, s, http.MethodPut, "/sessions/"+id+"/education/"+added.EntryID+"/school", `{"value":"MIT"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	school := regionHTML(t, decode[MutationResponse](t, rec).Preview, rendering.RegionEducation).Find(".school").First().Text()
	assert.Equal(t, "MIT", school)

	rec = do(t, s, http.MethodDelete, "/sessions/"+id+"/education/"+added.EntryID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decode[types.Resume](t, do(t, s, http.MethodGet, "/sessions/"+id+"/document", ""))
	assert.Len(t, doc.Education, 1)
}

func TestPutDocument(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	rec := do(t, s, http.MethodPut, "/sessions/"+id+"/document", `{"personal":{"fullName":"Jo"},"themeColor":"#dc2626"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[MutationResponse](t, rec)
	require.NotNil(t, resp.Document)
	assert.Equal(t, "Jo", resp.Document.Personal.FullName)
	assert.NotNil(t, resp.ExperienceInputs)
	assert.NotNil(t, resp.EducationInputs)
	assert.Equal(t, "#dc2626", resp.Preview.ThemeColor)

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPut, "/sessions/"+id+"/document", `{"skills":"x"}`).Code)
}

func TestGetPreview(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	rec := do(t, s, http.MethodGet, "/sessions/"+id+"/preview", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[MutationResponse](t, rec)
	require.Len(t, resp.Preview.Regions, len(rendering.RegionOrder))
}

func TestResumeTex(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	rec := do(t, s, http.MethodGet, "/sessions/"+id+"/resume.tex", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "resume.tex")
	assert.Contains(t, rec.Body.String(), "Alex Morgan")
	assert.Contains(t, rec.Body.String(), `\end{document}`)
}

func TestResumePDF(t *testing.T) {
	pdf := &stubPDF{}
	s := newTestServer(t, WithPDFRenderer(pdf))
	id := createSession(t, s)

	rec := do(t, s, http.MethodGet, "/sessions/"+id+"/resume.pdf", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
	assert.Contains(t, pdf.html, "Alex Morgan")
}

func TestResumePDF_Failure(t *testing.T) {
	pdf := &stubPDF{err: &export.ExportError{Message: "failed to print page", Cause: errors.New("chrome missing")}}
	s := newTestServer(t, WithPDFRenderer(pdf))
	id := createSession(t, s)

	rec := do(t, s, http.MethodGet, "/sessions/"+id+"/resume.pdf", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestResumePDF_DisabledByDefault(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/sessions/"+id+"/resume.pdf", "").Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodOptions, "/sessions", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), APIKeyHeader)
}

func TestRateLimit_SessionCreation(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = &ratelimit.Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		EndpointConfigs: []ratelimit.EndpointConfig{
			{Path: "/sessions", Method: "POST", Limit: 1, Window: time.Hour, Burst: 1},
		},
	}
	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	assert.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/sessions", "").Code)

	rec := do(t, s, http.MethodPost, "/sessions", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, 1, s.Registry().Len())
}

func TestEvents_StreamsPreviewAfterEdit(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/sessions/"+id+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	event, data := readEvent(t, reader)
	assert.Equal(t, session.EventPreview, event)
	assert.EqualValues(t, 0, decodePreviewEvent(t, data).Revision)

	rec := do(t, s, http.MethodPut, "/sessions/"+id+"/personal/jobTitle", `{"value":"Architect"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	event, data = readEvent(t, reader)
	assert.Equal(t, session.EventPreview, event)
	ev := decodePreviewEvent(t, data)
	assert.EqualValues(t, 1, ev.Revision)
	assert.Equal(t, "Architect", regionHTML(t, ev.Preview, rendering.RegionHeader).Find("#preview-title").Text())
}

func TestEvents_OpenStreamKeepsSessionAlive(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/sessions/"+id+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	event, _ := readEvent(t, bufio.NewReader(resp.Body))
	require.Equal(t, session.EventPreview, event)

	assert.Equal(t, 0, s.Registry().Sweep(time.Now().Add(24*time.Hour)))
	rec := do(t, s, http.MethodPut, "/sessions/"+id+"/skills", `{"text":"Go"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if event != "" {
				return event, data
			}
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func decodePreviewEvent(t *testing.T, data string) session.PreviewEvent {
	t.Helper()
	var ev session.PreviewEvent
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	return ev
}

func TestCreateSession_MalformedDocument(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/sessions", `{"personal":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
