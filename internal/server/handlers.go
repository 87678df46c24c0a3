package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"

	"github.com/jonathan/resume-builder/internal/assist"
	"github.com/jonathan/resume-builder/internal/rendering"
	"github.com/jonathan/resume-builder/internal/schemas"
	"github.com/jonathan/resume-builder/internal/session"
	"github.com/jonathan/resume-builder/internal/types"
)

// maxBodyBytes caps request bodies, including imported documents.
const maxBodyBytes = 1 << 20

// RefreshEducationInputs marks the education input blocks for re-rendering.
const RefreshEducationInputs = "education-inputs"

// refreshAll is every view the editor page can refresh.
var refreshAll = []string{
	assist.RefreshPersonalInputs,
	assist.RefreshExperienceInputs,
	RefreshEducationInputs,
	assist.RefreshSkillsInput,
	assist.RefreshPreview,
}

// CreateSessionResponse represents the response for POST /sessions
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// MutationResponse is returned by every endpoint that changes the document. It always
// carries the re-rendered preview, plus whichever editor views need refreshing.
type MutationResponse struct {
	Revision         uint64             `json:"revision"`
	Preview          *rendering.Preview `json:"preview"`
	ExperienceInputs *string            `json:"experience_inputs,omitempty"`
	EducationInputs  *string            `json:"education_inputs,omitempty"`
	Document         *types.Resume      `json:"document,omitempty"`
	Refresh          []string           `json:"refresh,omitempty"`
	EntryID          string             `json:"entry_id,omitempty"`
}

// lookupSession resolves the {id} path value, writing a 404 when it is unknown.
func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.registry.Get(r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	return sess, true
}

// decodeJSON decodes a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &ErrBadRequest{Message: "Invalid request body", Cause: err}
	}
	return nil
}

// decodeDocument validates raw against the document schema and decodes it.
// A missing theme color falls back to the default.
func decodeDocument(raw []byte) (types.Resume, error) {
	if !json.Valid(raw) {
		return types.Resume{}, &ErrBadRequest{Message: "Invalid document: malformed JSON"}
	}
	if err := schemas.ValidateDocument(raw); err != nil {
		return types.Resume{}, err
	}
	doc := types.Resume{ThemeColor: types.DefaultThemeColor}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return types.Resume{}, &ErrBadRequest{Message: "Invalid document", Cause: err}
	}
	if doc.ThemeColor == "" {
		doc.ThemeColor = types.DefaultThemeColor
	}
	return doc, nil
}

func assistLabels() rendering.AssistLabels {
	label := func(a assist.Action) rendering.ButtonLabel {
		l := assist.LabelFor(a)
		return rendering.ButtonLabel{Idle: l.Idle, Busy: l.Busy}
	}
	return rendering.AssistLabels{
		Summary: label(assist.ActionSummary),
		Polish:  label(assist.ActionPolish),
		Skills:  label(assist.ActionSkills),
	}
}

// mutationResult renders the current document state for the views named in refresh.
// The preview is always included.
func (s *Server) mutationResult(sess *session.Session, refresh []string) (*MutationResponse, error) {
	snap := sess.Doc.Snapshot()
	preview, err := s.renderer.Preview(snap)
	if err != nil {
		return nil, err
	}

	resp := &MutationResponse{
		Revision: sess.Doc.Revision(),
		Preview:  preview,
		Refresh:  refresh,
	}
	data := rendering.NewPageData(sess.ID, snap, preview, assistLabels())

	if slices.Contains(refresh, assist.RefreshExperienceInputs) {
		var buf bytes.Buffer
		if err := s.renderer.ExperienceInputs(&buf, data); err != nil {
			return nil, err
		}
		html := buf.String()
		resp.ExperienceInputs = &html
	}
	if slices.Contains(refresh, RefreshEducationInputs) {
		var buf bytes.Buffer
		if err := s.renderer.EducationInputs(&buf, data); err != nil {
			return nil, err
		}
		html := buf.String()
		resp.EducationInputs = &html
	}
	if slices.Contains(refresh, assist.RefreshPersonalInputs) || slices.Contains(refresh, assist.RefreshSkillsInput) {
		resp.Document = &snap
	}

	return resp, nil
}

func (s *Server) respondMutation(w http.ResponseWriter, r *http.Request, sess *session.Session, status int, entryID string, refresh ...string) {
	resp, err := s.mutationResult(sess, refresh)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp.EntryID = entryID
	s.jsonResponse(w, status, resp)
}

// handleIndex starts a new session seeded with the example document and redirects to its editor
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.registry.Create(nil)
	http.Redirect(w, r, "/sessions/"+sess.ID, http.StatusSeeOther)
}

// handleCreateSession starts a session from an optional JSON document body
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.fail(w, r, &ErrBadRequest{Message: "Invalid request body", Cause: err})
		return
	}

	var seed *types.Resume
	if len(bytes.TrimSpace(raw)) > 0 {
		doc, err := decodeDocument(raw)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		seed = &doc
	}

	sess := s.registry.Create(seed)
	s.jsonResponse(w, http.StatusCreated, CreateSessionResponse{
		SessionID: sess.ID,
		URL:       "/sessions/" + sess.ID,
	})
}

// handleEditorPage renders the full editor page for a session
func (s *Server) handleEditorPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	snap := sess.Doc.Snapshot()
	preview, err := s.renderer.Preview(snap)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := s.renderer.Page(&buf, rendering.NewPageData(sess.ID, snap, preview, assistLabels())); err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleDeleteSession discards a session and everything in it
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Delete(r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetDocument returns the document as JSON
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, sess.Doc.Snapshot())
}

// handlePutDocument replaces the whole document with an imported one
func (s *Server) handlePutDocument(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.fail(w, r, &ErrBadRequest{Message: "Invalid request body", Cause: err})
		return
	}
	doc, err := decodeDocument(raw)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	sess.Doc.Replace(doc)
	s.respondMutation(w, r, sess, http.StatusOK, "", refreshAll...)
}

// handleSetPersonalField overwrites one personal field
func (s *Server) handleSetPersonalField(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	param := types.PersonalFieldParam{Field: r.PathValue("field")}
	if err := param.Validate(); err != nil {
		s.fail(w, r, &types.UnknownFieldError{Section: "personal", Field: param.Field})
		return
	}

	var req types.FieldValueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(w, r, fromValidator(err))
		return
	}

	if err := sess.Doc.SetPersonalField(types.PersonalField(param.Field), *req.Value); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondMutation(w, r, sess, http.StatusOK, "")
}

// handleSetTheme sets the accent color
func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	var req types.ThemeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(w, r, fromValidator(err))
		return
	}

	sess.Doc.SetThemeColor(*req.Color)
	s.respondMutation(w, r, sess, http.StatusOK, "")
}

// handleSetSkills commits the skills input text
func (s *Server) handleSetSkills(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	var req types.SkillsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(w, r, fromValidator(err))
		return
	}

	sess.Doc.SetSkills(*req.Text)
	s.respondMutation(w, r, sess, http.StatusOK, "")
}

// handleAddExperience prepends a new experience entry
func (s *Server) handleAddExperience(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	id := sess.Doc.AddExperience()
	s.respondMutation(w, r, sess, http.StatusCreated, id, assist.RefreshExperienceInputs, assist.RefreshPreview)
}

// handleUpdateExperience sets one field of an experience entry. Unknown entries are ignored.
func (s *Server) handleUpdateExperience(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	field := types.ExperienceField(r.PathValue("field"))
	if !types.ValidExperienceField(string(field)) {
		s.fail(w, r, &types.UnknownFieldError{Section: "experience", Field: string(field)})
		return
	}

	var req types.FieldValueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(w, r, fromValidator(err))
		return
	}

	entryID := r.PathValue("entry")
	if _, err := sess.Doc.UpdateExperienceField(entryID, field, *req.Value); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondMutation(w, r, sess, http.StatusOK, entryID)
}

// handleRemoveExperience drops an experience entry. Unknown entries are ignored.
func (s *Server) handleRemoveExperience(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	sess.Doc.RemoveExperience(r.PathValue("entry"))
	s.respondMutation(w, r, sess, http.StatusOK, "", assist.RefreshExperienceInputs, assist.RefreshPreview)
}

// handleAddEducation prepends a new education entry
func (s *Server) handleAddEducation(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	id := sess.Doc.AddEducation()
	s.respondMutation(w, r, sess, http.StatusCreated, id, RefreshEducationInputs, assist.RefreshPreview)
}

// handleUpdateEducation sets one field of an education entry. Unknown entries are ignored.
func (s *Server) handleUpdateEducation(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	field := types.EducationField(r.PathValue("field"))
	if !types.ValidEducationField(string(field)) {
		s.fail(w, r, &types.UnknownFieldError{Section: "education", Field: string(field)})
		return
	}

	var req types.FieldValueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(w, r, fromValidator(err))
		return
	}

	entryID := r.PathValue("entry")
	if _, err := sess.Doc.UpdateEducationField(entryID, field, *req.Value); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondMutation(w, r, sess, http.StatusOK, entryID)
}

// handleRemoveEducation drops an education entry. Unknown entries are ignored.
func (s *Server) handleRemoveEducation(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	sess.Doc.RemoveEducation(r.PathValue("entry"))
	s.respondMutation(w, r, sess, http.StatusOK, "", RefreshEducationInputs, assist.RefreshPreview)
}

// handleGetPreview returns the rendered preview regions
func (s *Server) handleGetPreview(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	s.respondMutation(w, r, sess, http.StatusOK, "")
}

// handleResumeTex returns the document rendered as LaTeX
func (s *Server) handleResumeTex(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	tex, err := rendering.RenderLaTeX(sess.Doc.Snapshot(), s.config.LaTeXTemplate)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=resume.tex")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(tex))
}

// handleResumePDF prints the visible preview regions to PDF
func (s *Server) handleResumePDF(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	var html bytes.Buffer
	if err := s.renderer.Printable(&html, sess.Doc.Snapshot()); err != nil {
		s.fail(w, r, err)
		return
	}

	pdf, err := s.pdf.RenderPDF(r.Context(), html.String())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=resume.pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

// isEmptyBody reports whether err is the decoder's end-of-input error.
func isEmptyBody(err error) bool {
	var badRequest *ErrBadRequest
	return errors.As(err, &badRequest) && errors.Is(badRequest.Cause, io.EOF)
}
