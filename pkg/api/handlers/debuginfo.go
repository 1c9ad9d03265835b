package handlers

import (
	"bufio"
	"encoding/json"
	"net/http"

	"github.com/parca-dev/debuginfo-ingest/pkg/debuginfo"
	"github.com/parca-dev/debuginfo-ingest/pkg/debuginfo/coordinator"
)

// DebuginfoHandler exposes the upload coordinator's four RPCs over HTTP.
type DebuginfoHandler struct {
	coordinator *coordinator.Coordinator
}

// NewDebuginfoHandler creates a DebuginfoHandler.
func NewDebuginfoHandler(c *coordinator.Coordinator) *DebuginfoHandler {
	return &DebuginfoHandler{coordinator: c}
}

type shouldInitiateRequestBody struct {
	BuildID     string `json:"build_id"`
	BuildIDType string `json:"build_id_type"`
	Kind        string `json:"kind"`
	Hash        string `json:"hash"`
	Force       bool   `json:"force"`
}

type shouldInitiateResponseBody struct {
	ShouldInitiate bool   `json:"should_initiate"`
	Reason         string `json:"reason"`
}

// ShouldInitiate handles POST /api/v1/debuginfo/should-initiate.
func (h *DebuginfoHandler) ShouldInitiate(w http.ResponseWriter, r *http.Request) {
	var body shouldInitiateRequestBody
	if !decodeJSONBody(w, r, &body) {
		return
	}

	resp, err := h.coordinator.ShouldInitiateUpload(r.Context(), coordinator.ShouldInitiateRequest{
		BuildID:     debuginfo.BuildID(body.BuildID),
		BuildIDType: parseBuildIDType(body.BuildIDType),
		Kind:        parseKind(body.Kind),
		Hash:        body.Hash,
		Force:       body.Force,
	})
	if err != nil {
		WriteCoordinatorError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, shouldInitiateResponseBody{
		ShouldInitiate: resp.ShouldInitiate,
		Reason:         string(resp.Reason),
	})
}

type initiateRequestBody struct {
	BuildID     string `json:"build_id"`
	BuildIDType string `json:"build_id_type"`
	Kind        string `json:"kind"`
	Hash        string `json:"hash"`
	Size        int64  `json:"size"`
	Force       bool   `json:"force"`
}

type initiateResponseBody struct {
	UploadID string `json:"upload_id"`
	BuildID  string `json:"build_id"`
	Kind     string `json:"kind"`
}

// Initiate handles POST /api/v1/debuginfo/initiate.
func (h *DebuginfoHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	var body initiateRequestBody
	if !decodeJSONBody(w, r, &body) {
		return
	}

	resp, err := h.coordinator.InitiateUpload(r.Context(), coordinator.InitiateRequest{
		BuildID:     debuginfo.BuildID(body.BuildID),
		BuildIDType: parseBuildIDType(body.BuildIDType),
		Kind:        parseKind(body.Kind),
		Hash:        body.Hash,
		Size:        body.Size,
		Force:       body.Force,
	})
	if err != nil {
		WriteCoordinatorError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, initiateResponseBody{
		UploadID: resp.UploadID,
		BuildID:  string(resp.BuildID),
		Kind:     resp.Kind.String(),
	})
}

type uploadInfoFrame struct {
	BuildID  string `json:"build_id"`
	UploadID string `json:"upload_id"`
	Kind     string `json:"kind"`
}

type uploadResponseBody struct {
	BuildID string `json:"build_id"`
	Size    int64  `json:"size"`
}

// Upload handles POST /api/v1/debuginfo/upload. The request body is a
// single newline-delimited JSON header frame (uploadInfoFrame) followed by
// the raw debug information bytes, streamed straight through to the object
// bucket without buffering the whole payload in the handler.
func (h *DebuginfoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	reader := bufio.NewReader(r.Body)

	line, err := reader.ReadBytes('\n')
	if err != nil {
		BadRequest(w, "missing upload info header frame")
		return
	}

	var frame uploadInfoFrame
	if err := json.Unmarshal(line, &frame); err != nil {
		BadRequest(w, "invalid upload info header frame")
		return
	}

	resp, err := h.coordinator.Upload(r.Context(), coordinator.UploadInfo{
		BuildID:  debuginfo.BuildID(frame.BuildID),
		UploadID: frame.UploadID,
		Kind:     parseKind(frame.Kind),
	}, reader)
	if err != nil {
		WriteCoordinatorError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponseBody{BuildID: string(resp.BuildID), Size: resp.Size})
}

type markFinishedRequestBody struct {
	BuildID  string `json:"build_id"`
	Kind     string `json:"kind"`
	UploadID string `json:"upload_id"`
}

// MarkFinished handles POST /api/v1/debuginfo/mark-finished. ELF validity
// is not accepted from the client here: it is not a trustworthy source for
// that judgment, and any attestation it supplied could be used to bypass
// the AlreadyExists dedup guard on the next InitiateUpload.
func (h *DebuginfoHandler) MarkFinished(w http.ResponseWriter, r *http.Request) {
	var body markFinishedRequestBody
	if !decodeJSONBody(w, r, &body) {
		return
	}

	err := h.coordinator.MarkUploadFinished(r.Context(), coordinator.MarkFinishedRequest{
		BuildID:  debuginfo.BuildID(body.BuildID),
		Kind:     parseKind(body.Kind),
		UploadID: body.UploadID,
	})
	if err != nil {
		WriteCoordinatorError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseKind(s string) debuginfo.Kind {
	switch s {
	case "executable":
		return debuginfo.KindExecutable
	case "sources":
		return debuginfo.KindSources
	default:
		return debuginfo.KindDebuginfo
	}
}

func parseBuildIDType(s string) debuginfo.BuildIDType {
	switch s {
	case "gnu":
		return debuginfo.BuildIDTypeGNU
	case "other":
		return debuginfo.BuildIDTypeOther
	default:
		return debuginfo.BuildIDTypeUnknownUnspecified
	}
}
