package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/thesrcielos/TopCodeBattle/internal/apperrors"
	"github.com/thesrcielos/TopCodeBattle/internal/language"
)

const (
	EstimateTotal   = 50
	maxResponseSize = 1 << 20
)

const instruction = `You are grading a competitive programming submission written in %s.
Imagine %d hidden test cases for the problem this code solves and guess how many of them it passes.
Reply in exactly this format and nothing else:
PASSED: <number between 0 and %d>
COMMENT: <one or two sentences about correctness and complexity>

Code:
%s`

var (
	passedPattern   = regexp.MustCompile(`(?i)passed\s*:\s*(\d+)`)
	fractionPattern = regexp.MustCompile(`(\d+)\s*/\s*50`)
	commentPattern  = regexp.MustCompile(`(?is)comment\s*:\s*(.+)`)
)

// Estimate is a non-binding guess of how many of EstimateTotal cases would pass.
type Estimate struct {
	Passed  int    `json:"passed"`
	Total   int    `json:"total"`
	Comment string `json:"comment"`
	Raw     string `json:"raw"`
}

func (e *Estimate) Percentage() float64 {
	return float64(e.Passed) / float64(e.Total) * 100
}

// Client talks to a generateContent style text-generation endpoint.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: timeout},
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) Estimate(ctx context.Context, lang language.Language, code string) (*Estimate, error) {
	if c.apiKey == "" {
		return nil, apperrors.External("Estimation service is not configured", nil)
	}

	prompt := fmt.Sprintf(instruction, lang.Name(), EstimateTotal, EstimateTotal, code)
	body, err := json.Marshal(generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}})
	if err != nil {
		return nil, apperrors.External("Error encoding estimation request", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.External("Error building estimation request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.External("Estimation service unreachable", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, apperrors.External("Error reading estimation response", err)
	}
	var decoded generateResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, apperrors.External("Estimation service returned an unreadable response", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		if decoded.Error != nil && decoded.Error.Message != "" {
			msg = decoded.Error.Message
		}
		return nil, apperrors.External("Estimation service error", fmt.Errorf("%s", msg))
	}

	var text strings.Builder
	if len(decoded.Candidates) > 0 {
		for _, p := range decoded.Candidates[0].Content.Parts {
			text.WriteString(p.Text)
		}
	}
	return ParseEstimate(text.String())
}

// ParseEstimate extracts the pass count and comment from the model's reply.
func ParseEstimate(text string) (*Estimate, error) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return nil, apperrors.External("Estimation service returned no text", nil)
	}

	m := passedPattern.FindStringSubmatch(raw)
	if m == nil {
		m = fractionPattern.FindStringSubmatch(raw)
	}
	if m == nil {
		return nil, apperrors.External("Could not read an estimate from the response", fmt.Errorf("%q", raw))
	}
	passed, err := strconv.Atoi(m[1])
	if err != nil || passed < 0 || passed > EstimateTotal {
		return nil, apperrors.External("Estimate out of range", fmt.Errorf("%q", m[1]))
	}

	comment := ""
	if c := commentPattern.FindStringSubmatch(raw); c != nil {
		comment = strings.TrimSpace(c[1])
	}
	return &Estimate{Passed: passed, Total: EstimateTotal, Comment: comment, Raw: raw}, nil
}
