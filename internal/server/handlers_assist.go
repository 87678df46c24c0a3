package server

import (
	"context"
	"net/http"

	"github.com/jonathan/resume-builder/internal/assist"
	"github.com/jonathan/resume-builder/internal/types"
)

// APIKeyHeader carries the caller's Gemini API key.
const APIKeyHeader = "X-Goog-Api-Key"

// AssistResponse is returned by the assist endpoints
type AssistResponse struct {
	MutationResponse
	Action  assist.Action `json:"action"`
	Applied bool          `json:"applied"`
}

// credential reads the API key from the header, falling back to the JSON body.
// The key is used for this request only.
func credential(w http.ResponseWriter, r *http.Request) (string, error) {
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return key, nil
	}
	var req types.AssistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		if isEmptyBody(err) {
			return "", nil
		}
		return "", err
	}
	return req.APIKey, nil
}

type assistCall func(ctx context.Context, a *assist.Assistant, apiKey string) (assist.Outcome, error)

func (s *Server) runAssist(w http.ResponseWriter, r *http.Request, call assistCall) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	apiKey, err := credential(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	outcome, err := call(r.Context(), sess.Assist, apiKey)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	result, err := s.mutationResult(sess, outcome.Refresh)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, AssistResponse{
		MutationResponse: *result,
		Action:           outcome.Action,
		Applied:          outcome.Applied,
	})
}

// handleAssistSummary drafts the summary from the job title
func (s *Server) handleAssistSummary(w http.ResponseWriter, r *http.Request) {
	s.runAssist(w, r, func(ctx context.Context, a *assist.Assistant, apiKey string) (assist.Outcome, error) {
		return a.DraftSummary(ctx, apiKey)
	})
}

// handleAssistSkills suggests skills for the job title
func (s *Server) handleAssistSkills(w http.ResponseWriter, r *http.Request) {
	s.runAssist(w, r, func(ctx context.Context, a *assist.Assistant, apiKey string) (assist.Outcome, error) {
		return a.SuggestSkills(ctx, apiKey)
	})
}

// handleAssistPolish rewrites one experience description
func (s *Server) handleAssistPolish(w http.ResponseWriter, r *http.Request) {
	entryID := r.PathValue("entry")
	s.runAssist(w, r, func(ctx context.Context, a *assist.Assistant, apiKey string) (assist.Outcome, error) {
		return a.PolishExperience(ctx, apiKey, entryID)
	})
}
