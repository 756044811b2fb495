package payment

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/h2non/gock"
)

// captureForm records the form body and headers of the matched request
// without constraining the match.
func captureForm(mock *gock.Request, form *url.Values, headers *http.Header) {
	mock.AddMatcher(func(req *http.Request, _ *gock.Request) (bool, error) {
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			return false, err
		}
		req.Body = io.NopCloser(bytes.NewReader(raw))

		parsed, err := url.ParseQuery(string(raw))
		if err != nil {
			return false, err
		}
		*form = parsed
		*headers = req.Header.Clone()
		return true, nil
	})
}

// captureJSON records the decoded JSON body of the matched request without
// constraining the match.
func captureJSON(mock *gock.Request, body *map[string]interface{}) {
	mock.AddMatcher(func(req *http.Request, _ *gock.Request) (bool, error) {
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			return false, err
		}
		req.Body = io.NopCloser(bytes.NewReader(raw))

		var decoded map[string]interface{}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return false, err
		}
		*body = decoded
		return true, nil
	})
}
