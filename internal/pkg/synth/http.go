package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/airenas/docread/internal/pkg/audio"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/cenkalti/backoff/v4"
)

// HTTPSynth calls a synthesis service.
// The service returns raw 16 bit little endian pcm at audio.SampleRate
type HTTPSynth struct {
	httpclient *http.Client
	url        string
	timeout    time.Duration
	backoff    func() backoff.BackOff
}

type httpRequest struct {
	Text       string `json:"text"`
	Voice      string `json:"voice"`
	SampleRate int    `json:"sampleRate"`
}

// NewHTTPSynth creates a synthesis service client
func NewHTTPSynth(urlStr string) (*HTTPSynth, error) {
	if urlStr == "" {
		return nil, fmt.Errorf("no synth URL")
	}
	goapp.Log.Info().Str("url", urlStr).Msg("cfg: http synthesizer")
	res := &HTTPSynth{url: urlStr}
	res.timeout = time.Minute * 2
	res.httpclient = &http.Client{Transport: newTransport()}
	res.backoff = newSimpleBackoff
	return res, nil
}

// Synthesize implements Synthesizer
func (sp *HTTPSynth) Synthesize(ctx context.Context, text, voice string) ([]audio.Segment, error) {
	body, err := json.Marshal(httpRequest{Text: text, Voice: voice, SampleRate: audio.SampleRate})
	if err != nil {
		return nil, fmt.Errorf("can't marshal: %w", err)
	}
	return goapp.InvokeWithBackoff(ctx, func() ([]audio.Segment, bool, error) {
		ctx, cancelF := context.WithTimeout(ctx, sp.timeout)
		defer cancelF()
		req, err := http.NewRequest(http.MethodPost, sp.url, bytes.NewReader(body))
		if err != nil {
			return nil, false, err
		}
		req = req.WithContext(ctx)
		req.Header.Set("Content-Type", "application/json")
		resp, err := sp.httpclient.Do(req)
		if err != nil {
			return nil, goapp.IsRetryableErr(err), fmt.Errorf("can't call: %w", err)
		}
		defer func() {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 10000))
			_ = resp.Body.Close()
		}()
		if err := goapp.ValidateHTTPResp(resp, 100); err != nil {
			err = fmt.Errorf("can't invoke '%s': %w", req.URL.String(), err)
			return nil, goapp.IsRetryableCode(resp.StatusCode), err
		}
		br, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, goapp.IsRetryableErr(err), fmt.Errorf("can't read body: %w", err)
		}
		seg, err := audio.FromPCM16(br)
		if err != nil {
			return nil, false, err
		}
		return []audio.Segment{seg}, false, nil
	}, sp.backoff())
}

func newTransport() http.RoundTripper {
	res := http.DefaultTransport.(*http.Transport).Clone()
	res.MaxIdleConns = 10
	res.MaxIdleConnsPerHost = 10
	res.IdleConnTimeout = 90 * time.Second
	return res
}

func newSimpleBackoff() backoff.BackOff {
	res := backoff.NewExponentialBackOff()
	return backoff.WithMaxRetries(res, 3)
}
