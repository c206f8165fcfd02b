package harness

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// maxHeaderResponseBytes bounds how much of a getwork response this
// source will read, generalizing the teacher's fixed 113-byte read
// buffer (network.go's getHeaderForWork) into a cap rather than an
// exact size, since this package's header length is caller-defined
// instead of Sia's fixed 80-byte block header.
const maxHeaderResponseBytes = 4096

// HTTPJobSource is a plain request/response job source: GET a header,
// POST a solved one back. This is distinct from the stratum push
// protocol (a persistent, subscribed connection); it generalizes the
// teacher's package-level getHeaderForWork/submitHeader functions
// (network.go) into a reusable, testable JobSource.
type HTTPJobSource struct {
	BaseJobSource

	GetworkURL string
	SubmitURL  string
	Client     *http.Client
	Log        *logrus.Entry
}

// NewHTTPJobSource builds a job source polling getworkURL for headers
// and posting solutions to submitURL.
func NewHTTPJobSource(getworkURL, submitURL string, log *logrus.Entry) *HTTPJobSource {
	return &HTTPJobSource{
		GetworkURL: getworkURL,
		SubmitURL:  submitURL,
		Client:     &http.Client{},
		Log:        log,
	}
}

// Start is a no-op: a getwork-style source has no persistent connection
// to establish, matching the teacher's own Client.Start() for its
// non-stratum implementations.
func (h *HTTPJobSource) Start() error { return nil }

// NextJob fetches one header over HTTP and deprecates whatever job
// preceded it, since a getwork source has no notion of two headers
// being valid to mine concurrently.
func (h *HTTPJobSource) NextJob() (Job, error) {
	req, err := http.NewRequest(http.MethodGet, h.GetworkURL, nil)
	if err != nil {
		return Job{}, errors.Wrap(err, "harness: building getwork request")
	}
	req.Header.Set("User-Agent", "zeropow-agent")

	resp, err := h.Client.Do(req)
	if err != nil {
		return Job{}, errors.Wrap(err, "harness: fetching work")
	}
	defer resp.Body.Close()

	header, err := io.ReadAll(io.LimitReader(resp.Body, maxHeaderResponseBytes))
	if err != nil {
		return Job{}, errors.Wrap(err, "harness: reading getwork response")
	}
	if len(header) == 0 {
		return Job{}, errors.New("harness: empty getwork response")
	}

	idLen := len(header)
	if idLen > 8 {
		idLen = 8
	}
	id := hex.EncodeToString(header[:idLen])

	h.DeprecateOutstandingJobs()
	dep := h.AddJobToDeprecate(id)
	if h.Log != nil {
		h.Log.WithField("job", id).WithField("header_bytes", len(header)).Debug("fetched new job")
	}
	return Job{ID: id, Header: header, Deprecation: dep}, nil
}

// SubmitSolution posts header ‖ nonce ‖ solution (each index
// little-endian uint32) to submitURL, generalizing the teacher's
// submitHeader.
func (h *HTTPJobSource) SubmitSolution(report SolutionReport) error {
	body := make([]byte, 0, len(report.Header)+len(report.Nonce)+4*len(report.Solution))
	body = append(body, report.Header...)
	body = append(body, report.Nonce...)
	for _, idx := range report.Solution {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], idx)
		body = append(body, b[:]...)
	}

	req, err := http.NewRequest(http.MethodPost, h.SubmitURL, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "harness: building submit request")
	}
	req.Header.Set("User-Agent", "zeropow-agent")

	resp, err := h.Client.Do(req)
	if err != nil {
		return errors.Wrap(err, "harness: submitting solution")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errors.Errorf("harness: submit rejected with status %s", resp.Status)
	}
	if h.Log != nil {
		h.Log.WithField("job", report.JobID).Info("solution submitted")
	}
	return nil
}
