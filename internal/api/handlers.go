package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/harrylevesque/taskboard/internal/auth"
	"github.com/harrylevesque/taskboard/internal/normalize"
	"github.com/harrylevesque/taskboard/internal/utils"
)

// DegradedHeader carries the failure reason when a data response is a fallback.
const DegradedHeader = "X-Upstream-Degraded"

const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("empty body")

// handleResource proxies GET /webhook/{tasks,goals,profile} through the
// normalizer. Upstream failures still answer 200 with an empty canonical body.
func (s *Server) handleResource(w http.ResponseWriter, r *http.Request) {
	kind := normalize.Kind(mux.Vars(r)["resource"])
	path := "/webhook/" + string(kind)

	var res normalize.Result
	body, err := s.upstream.Fetch(r.Context(), path)
	if err != nil {
		s.logger.Warn("upstream fetch failed, serving empty result",
			zap.String("kind", string(kind)), zap.Error(err))
		res = normalize.Empty(kind, normalize.Degraded(fetchReason(err)))
	} else {
		res = s.normalizer.Normalize(kind, body)
	}

	if h := res.Status(); h.Degraded {
		w.Header().Set(DegradedHeader, h.Reason)
	}
	auth.JSONResponse(w, http.StatusOK, res)
}

func fetchReason(err error) string {
	var fe *utils.FetchError
	if errors.As(err, &fe) {
		if fe.Kind == utils.FetchStatus {
			return fmt.Sprintf("status %d", fe.Status)
		}
		return string(fe.Kind)
	}
	return "error"
}

type debugReply struct {
	Status     int               `json:"status,omitempty"`
	StatusText string            `json:"statusText,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	OK         bool              `json:"ok"`
	Data       json.RawMessage   `json:"data,omitempty"`
	Shape      *normalize.Shape  `json:"shape,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// handleDebugUpstream shows the raw upstream reply for a resource.
func (s *Server) handleDebugUpstream(w http.ResponseWriter, r *http.Request) {
	path := "/webhook/" + mux.Vars(r)["resource"]
	resp, err := s.upstream.Do(r.Context(), http.MethodGet, path, nil)
	if err != nil {
		auth.JSONResponse(w, http.StatusOK, debugReply{Error: err.Error()})
		return
	}

	reply := debugReply{
		Status:     resp.Status,
		StatusText: http.StatusText(resp.Status),
		Headers:    make(map[string]string, len(resp.Header)),
		OK:         resp.Status >= 200 && resp.Status <= 299,
	}
	for k := range resp.Header {
		reply.Headers[k] = resp.Header.Get(k)
	}
	if !reply.OK {
		reply.Error = string(resp.Body)
		auth.JSONResponse(w, http.StatusOK, reply)
		return
	}
	shape := normalize.Describe(resp.Body)
	reply.Shape = &shape
	if shape.Valid {
		reply.Data = json.RawMessage(resp.Body)
	} else {
		reply.Error = "body is not valid JSON"
	}
	auth.JSONResponse(w, http.StatusOK, reply)
}

// decodeBody reads a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return errEmptyBody
	}
	return json.Unmarshal(data, v)
}

func badRequest(w http.ResponseWriter, msg string) {
	auth.JSONResponse(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// ack is the success-shaped reply every action returns, including on upstream failure.
type ack struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Note    string `json:"note,omitempty"`
}

// ackMessage picks the message variant for an upstream outcome.
func ackMessage(base string, ok string, err error) string {
	if err == nil {
		return ok
	}
	if utils.FetchErrorKind(err) == utils.FetchStatus {
		return base + " (upstream webhook not available)"
	}
	return base + " (network error)"
}
