package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"skinsrv/internal/inference"
	"skinsrv/pkg/types"
)

const analysisIDHeader = "X-Analysis-ID"

// multipartMemory is the part of a form kept in memory before spilling to disk.
const multipartMemory = 8 << 20

// uploadError is a request rejected before it reaches the service.
type uploadError struct {
	status int
	reason string
	msg    string
}

func (e uploadError) Error() string   { return e.msg }
func (e uploadError) StatusCode() int { return e.status }

// readPredictRequest parses the multipart form: file (or image), age, sex,
// anatom_site_general (or site) and an optional top_k form field or query
// parameter.
func readPredictRequest(w http.ResponseWriter, r *http.Request) (types.PredictRequest, error) {
	var req types.PredictRequest
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if !strings.HasPrefix(ct, "multipart/form-data") {
		return req, uploadError{http.StatusUnsupportedMediaType, "content_type", "Content-Type must be multipart/form-data"}
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large") {
			return req, uploadError{http.StatusRequestEntityTooLarge, "too_large", "upload exceeds " + strconv.FormatInt(maxBodyBytes, 10) + " bytes"}
		}
		return req, uploadError{http.StatusBadRequest, "malformed", "invalid multipart form"}
	}

	f, hdr, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		f, hdr, err = r.FormFile("image")
	}
	if err != nil {
		return req, uploadError{http.StatusBadRequest, "missing_file", "file is required"}
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return req, uploadError{http.StatusBadRequest, "malformed", "failed to read file"}
	}
	if len(data) == 0 {
		return req, uploadError{http.StatusBadRequest, "missing_file", "file is empty"}
	}

	req.Image = data
	req.Filename = hdr.Filename
	req.Age = r.FormValue("age")
	req.Sex = r.FormValue("sex")
	req.Site = siteValue(r)

	topK := r.URL.Query().Get("top_k")
	if topK == "" {
		topK = r.FormValue("top_k")
	}
	if topK != "" {
		n, err := strconv.Atoi(strings.TrimSpace(topK))
		if err != nil || n < 1 {
			return req, uploadError{http.StatusBadRequest, "top_k", "top_k must be a positive integer"}
		}
		req.TopK = n
	}
	return req, nil
}

func siteValue(r *http.Request) string {
	if v := r.FormValue("anatom_site_general"); v != "" {
		return v
	}
	return r.FormValue("site")
}

// predictContext joins the request with the server lifetime and applies
// the configured timeout.
func predictContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	if predictTimeout <= 0 {
		return ctx, cancel
	}
	tctx, tcancel := context.WithTimeout(ctx, predictTimeout)
	return tctx, func() {
		tcancel()
		cancel()
	}
}

// writeServiceError maps err to a status and writes the payload. A request
// abandoned by the client or by shutdown gets no body; 499 is returned for
// logging only.
func writeServiceError(ctx context.Context, w http.ResponseWriter, r *http.Request, err error) int {
	if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
		return 499
	}
	var he HTTPError
	if errors.As(err, &he) {
		if he.StatusCode() == http.StatusTooManyRequests {
			w.Header().Set("Retry-After", "1")
		}
		writeJSONError(w, he.StatusCode(), he.Error())
		return he.StatusCode()
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
		writeJSONError(w, http.StatusGatewayTimeout, "prediction timed out")
		return http.StatusGatewayTimeout
	}
	writeJSONError(w, http.StatusInternalServerError, err.Error())
	return http.StatusInternalServerError
}

// predictFunc runs one parsed request and returns the response body plus
// the fields to log.
type predictFunc func(ctx context.Context, req inference.Request) (any, predictLog, error)

// handlePredict is the shared request cycle of the prediction endpoints.
func handlePredict(run predictFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lvl := requestLogLevel(r)
		id := uuid.NewString()
		w.Header().Set(analysisIDHeader, id)

		req, err := readPredictRequest(w, r)
		if r.MultipartForm != nil {
			defer r.MultipartForm.RemoveAll()
		}
		if err != nil {
			ue := err.(uploadError)
			incrementRejected(ue.reason)
			writeJSONError(w, ue.status, ue.msg)
			logPredict(r, lvl, predictLog{analysisID: id, status: ue.status, start: start, err: err})
			return
		}

		ctx, cancel := predictContext(r)
		defer cancel()
		resp, e, err := run(ctx, inference.FromTypes(id, req))
		e.analysisID, e.start = id, start
		if err != nil {
			e.status, e.err = writeServiceError(ctx, w, r, err), err
			logPredict(r, lvl, e)
			return
		}
		writeJSON(w, http.StatusOK, resp)
		e.status = http.StatusOK
		logPredict(r, lvl, e)
	}
}

// predictHandler godoc
//
//	@Summary		Classify a lesion image
//	@Description	Ranks the diagnostic classes for an image and optional patient metadata. Model failures are answered with a uniform, uncertain ranking flagged as fallback.
//	@Tags			predict
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file				formData	file	true	"JPEG or PNG image"
//	@Param			age					formData	string	false	"Patient age"
//	@Param			sex					formData	string	false	"Patient sex"
//	@Param			anatom_site_general	formData	string	false	"Anatomical site"
//	@Param			top_k				query		int		false	"Number of classes to return (default 3)"
//	@Success		200					{object}	types.TopKResponse
//	@Failure		400					{object}	types.ErrorResponse
//	@Failure		413					{object}	types.ErrorResponse
//	@Failure		415					{object}	types.ErrorResponse
//	@Failure		429					{object}	types.ErrorResponse
//	@Failure		502					{object}	types.ErrorResponse
//	@Router			/predict [post]
func predictHandler(svc Service) http.HandlerFunc {
	return handlePredict(func(ctx context.Context, req inference.Request) (any, predictLog, error) {
		resp, err := svc.PredictTopK(ctx, req)
		if err != nil {
			return nil, predictLog{}, err
		}
		e := predictLog{fallback: resp.Fallback}
		if len(resp.Results) > 0 {
			e.class = resp.Results[0].Class
		}
		return resp, e, nil
	})
}

// summaryHandler godoc
//
//	@Summary		Classify a lesion image (top two)
//	@Description	Returns the two best classes, every class probability and the uncertainty flag.
//	@Tags			predict
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file				formData	file	true	"JPEG or PNG image"
//	@Param			age					formData	string	false	"Patient age"
//	@Param			sex					formData	string	false	"Patient sex"
//	@Param			anatom_site_general	formData	string	false	"Anatomical site"
//	@Success		200					{object}	types.SummaryResponse
//	@Failure		400					{object}	types.ErrorResponse
//	@Failure		413					{object}	types.ErrorResponse
//	@Router			/predict/summary [post]
func summaryHandler(svc Service) http.HandlerFunc {
	return handlePredict(func(ctx context.Context, req inference.Request) (any, predictLog, error) {
		resp, err := svc.PredictSummary(ctx, req)
		if err != nil {
			return nil, predictLog{}, err
		}
		return resp, predictLog{class: resp.Top1.Class, uncertain: resp.Uncertain, fallback: resp.Fallback}, nil
	})
}
