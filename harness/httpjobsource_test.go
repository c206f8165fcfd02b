package harness

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPJobSourceNextJobFetchesHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("some-header-bytes"))
	}))
	defer server.Close()

	log := logrus.NewEntry(logrus.New())
	source := NewHTTPJobSource(server.URL, server.URL+"/submit", log)

	job, err := source.NextJob()
	require.NoError(t, err)
	assert.Equal(t, []byte("some-header-bytes"), job.Header)
	assert.NotEmpty(t, job.ID)
	assert.NotNil(t, job.Deprecation)
}

func TestHTTPJobSourceNextJobDeprecatesPreviousJob(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("header-one"))
	}))
	defer server.Close()

	log := logrus.NewEntry(logrus.New())
	source := NewHTTPJobSource(server.URL, server.URL+"/submit", log)

	first, err := source.NextJob()
	require.NoError(t, err)

	_, err = source.NextJob()
	require.NoError(t, err)

	select {
	case <-first.Deprecation:
		// expected: fetching a second job deprecates the first.
	default:
		t.Fatal("expected first job's deprecation channel to be closed")
	}
}

func TestHTTPJobSourceNextJobRejectsEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	log := logrus.NewEntry(logrus.New())
	source := NewHTTPJobSource(server.URL, server.URL+"/submit", log)

	_, err := source.NextJob()
	assert.Error(t, err)
}

func TestHTTPJobSourceSubmitSolution(t *testing.T) {
	var received []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		received = body
	}))
	defer server.Close()

	log := logrus.NewEntry(logrus.New())
	source := NewHTTPJobSource(server.URL, server.URL, log)

	err := source.SubmitSolution(SolutionReport{
		JobID:    "abc",
		Header:   []byte("hh"),
		Nonce:    []byte("nn"),
		Solution: []uint32{1, 2, 3},
	})
	require.NoError(t, err)
	assert.Equal(t, "hhnn", string(received[:4]))
	assert.Len(t, received, 4+4*3)
}

func TestHTTPJobSourceSubmitSolutionRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	log := logrus.NewEntry(logrus.New())
	source := NewHTTPJobSource(server.URL, server.URL, log)

	err := source.SubmitSolution(SolutionReport{Header: []byte("h")})
	assert.Error(t, err)
}
