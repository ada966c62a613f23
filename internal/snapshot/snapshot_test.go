package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/markmdev/networking-copilot/internal/model"
	"github.com/markmdev/networking-copilot/pkg/brightdata"
	"github.com/markmdev/networking-copilot/pkg/brightdata/mocks"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://uk.linkedin.com/in/jane-doe", "https://www.linkedin.com/in/jane-doe"},
		{"https://linkedin.com/in/jane-doe/?originalSubdomain=uk", "https://www.linkedin.com/in/jane-doe/?originalSubdomain=uk"},
		{"  https://ke.linkedin.com/in/tonykipkemboi#about ", "https://www.linkedin.com/in/tonykipkemboi#about"},
		{"http://de.linkedin.com/in/x", "http://www.linkedin.com/in/x"},
		{"https://www.linkedin.com/in/x", "https://www.linkedin.com/in/x"},
		{"//fr.linkedin.com/in/x", "https://www.linkedin.com/in/x"},
		{"linkedin.com/in/x?trk=1", "https://www.linkedin.com/in/x?trk=1"},
		{"https://uk.linkedin.com:443/in/jane", "https://www.linkedin.com/in/jane"},
		{"http://linkedin.com:80/in/jane", "http://www.linkedin.com/in/jane"},
		{"https://WWW.LinkedIn.com./in/jane", "https://www.linkedin.com/in/jane"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := NormalizeURL(got)
			require.NoError(t, err)
			assert.Equal(t, got, again, "not idempotent")
		})
	}
}

func TestNormalizeURL_Invalid(t *testing.T) {
	for _, in := range []string{
		"", "   ", "not a url", "hello", "ftp://www.linkedin.com/in/x", "https:///in/x",
		"https://notlinkedin.com/in/jane",
		"https://linkedin.com.evil.io/in/jane",
		"https://example.com/in/jane",
		"https://www.linkedin.com",
		"https://www.linkedin.com/",
		"https://www.linkedin.com/in/",
		"https://www.linkedin.com/company/crewai",
		"https://uk.linkedin.com:8443/in/jane",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := NormalizeURL(in)
			assert.ErrorIs(t, err, ErrInvalidURL)
		})
	}
}

func fastPoll() []brightdata.PollOption {
	return []brightdata.PollOption{
		brightdata.WithPollInterval(time.Millisecond),
		brightdata.WithPollCap(2 * time.Millisecond),
		brightdata.WithPollTimeout(200 * time.Millisecond),
	}
}

const profileRow = `{"id":"tonykipkemboi","name":"Tony Kipkemboi","city":"San Francisco","position":"Head of DevRel","experience":[{"company":"CrewAI"}],"extra":"kept"}`

func TestFetch_Ready(t *testing.T) {
	c := mocks.NewMockClient(t)
	c.On("Trigger", mock.Anything, "gd_profiles", []brightdata.Input{{URL: "https://www.linkedin.com/in/tonykipkemboi"}}).Return("s_1", nil)
	c.On("Progress", mock.Anything, "s_1").Return(&brightdata.ProgressResponse{Status: "running"}, nil).Once()
	c.On("Progress", mock.Anything, "s_1").Return(&brightdata.ProgressResponse{Status: "ready", Records: 1}, nil).Once()
	c.On("Download", mock.Anything, "s_1").Return([]json.RawMessage{json.RawMessage(profileRow)}, nil)

	res, err := NewFetcher(c, "gd_profiles", fastPoll()...).Fetch(context.Background(), "https://ke.linkedin.com/in/tonykipkemboi")
	require.NoError(t, err)

	assert.Equal(t, "s_1", res.SnapshotID)
	assert.Equal(t, "gd_profiles", res.DatasetID)
	assert.Equal(t, model.SnapshotStatusReady, res.Status)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "tonykipkemboi", res.Records[0].Key())
	assert.JSONEq(t, profileRow, string(res.Records[0].Raw()))
}

func TestFetch_DownloadNotReadyYet(t *testing.T) {
	c := mocks.NewMockClient(t)
	c.On("Trigger", mock.Anything, mock.Anything, mock.Anything).Return("s_2", nil)
	c.On("Progress", mock.Anything, "s_2").Return(&brightdata.ProgressResponse{Status: "ready"}, nil)
	c.On("Download", mock.Anything, "s_2").Return(nil, brightdata.ErrNotReady).Twice()
	c.On("Download", mock.Anything, "s_2").Return([]json.RawMessage{json.RawMessage(profileRow)}, nil).Once()

	res, err := NewFetcher(c, "gd_profiles", fastPoll()...).Fetch(context.Background(), "https://www.linkedin.com/in/tonykipkemboi")
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
}

func TestFetch_Failures(t *testing.T) {
	tests := []struct {
		name      string
		progress  *brightdata.ProgressResponse
		download  []json.RawMessage
		wantFetch bool
		wantErr   error
	}{
		{name: "terminal error", progress: &brightdata.ProgressResponse{Status: "error", Errors: 1}, wantFetch: true},
		{name: "failed", progress: &brightdata.ProgressResponse{Status: "failed"}, wantFetch: true},
		{name: "ready with errors", progress: &brightdata.ProgressResponse{Status: "ready", Errors: 2}, wantFetch: true},
		{name: "empty", progress: &brightdata.ProgressResponse{Status: "ready"}, download: []json.RawMessage{}, wantErr: ErrEmpty},
		{name: "malformed", progress: &brightdata.ProgressResponse{Status: "ready"}, download: []json.RawMessage{json.RawMessage(`"just text"`)}, wantErr: ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mocks.NewMockClient(t)
			c.On("Trigger", mock.Anything, mock.Anything, mock.Anything).Return("s_3", nil)
			c.On("Progress", mock.Anything, "s_3").Return(tt.progress, nil)
			if tt.download != nil {
				c.On("Download", mock.Anything, "s_3").Return(tt.download, nil)
			}

			_, err := NewFetcher(c, "gd_profiles", fastPoll()...).Fetch(context.Background(), "https://www.linkedin.com/in/x")
			if tt.wantFetch {
				var fetchErr *FetchError
				require.True(t, errors.As(err, &fetchErr), "got %v", err)
				var jobErr *brightdata.JobError
				assert.True(t, errors.As(err, &jobErr))
				c.AssertNotCalled(t, "Download", mock.Anything, mock.Anything)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFetch_InvalidURLMakesNoCalls(t *testing.T) {
	for _, in := range []string{"not a url", "https://notlinkedin.com/in/jane", "https://example.com/in/jane", "https://www.linkedin.com"} {
		t.Run(in, func(t *testing.T) {
			c := mocks.NewMockClient(t)
			_, err := NewFetcher(c, "gd_profiles").Fetch(context.Background(), in)
			assert.ErrorIs(t, err, ErrInvalidURL)
			c.AssertNotCalled(t, "Trigger", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestFetch_TriggerError(t *testing.T) {
	c := mocks.NewMockClient(t)
	c.On("Trigger", mock.Anything, mock.Anything, mock.Anything).Return("", &brightdata.APIError{StatusCode: 500, Body: "boom"})

	_, err := NewFetcher(c, "gd_profiles").Fetch(context.Background(), "https://www.linkedin.com/in/x")
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, "https://www.linkedin.com/in/x", fetchErr.URL)
}
