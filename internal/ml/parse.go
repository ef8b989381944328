package ml

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/franckalain/wastedetect/internal/apperr"
	"github.com/franckalain/wastedetect/internal/models"
)

// listSize is the number of disposal methods and mistakes expected when
// waste is present.
const listSize = 3

// ParseClassification decodes the model's text reply. With validate set, the
// reply must also follow one of the two shapes the prompt asks for.
func ParseClassification(text string, validate bool) (*models.ClassificationResult, error) {
	text = stripCodeFences(text)
	if text == "" {
		return nil, apperr.Errorf(apperr.UpstreamMalformedResponse, "empty model response")
	}

	var raw struct {
		WasteType       string      `json:"waste_type"`
		Quantity        json.Number `json:"quantity"`
		DisposalMethods []string    `json:"disposal_methods"`
		MistakesToAvoid []string    `json:"mistakes_to_avoid"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, apperr.New(apperr.UpstreamMalformedResponse,
			fmt.Errorf("failed to parse model response: %w while parsing %s", err, text))
	}

	quantity, err := parseQuantity(raw.Quantity)
	if err != nil {
		return nil, apperr.New(apperr.UpstreamMalformedResponse, err)
	}

	result := &models.ClassificationResult{
		WasteType:       strings.TrimSpace(raw.WasteType),
		Quantity:        quantity,
		DisposalMethods: nonNil(raw.DisposalMethods),
		MistakesToAvoid: nonNil(raw.MistakesToAvoid),
	}
	if models.IsNoWasteLabel(result.WasteType) {
		result.WasteType = models.NoWasteDetected
	}

	if validate {
		if err := Validate(result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Validate checks that a result is either a full detection or the
// "no waste" shape. Partial states are rejected.
func Validate(r *models.ClassificationResult) error {
	if r.WasteType == "" {
		return apperr.Errorf(apperr.UpstreamMalformedResponse, "missing waste_type in response")
	}
	if !r.HasWaste() {
		if r.Quantity != 0 || len(r.DisposalMethods) != 0 || len(r.MistakesToAvoid) != 0 {
			return apperr.Errorf(apperr.UpstreamMalformedResponse,
				"no-waste response must have quantity 0 and empty lists")
		}
		return nil
	}
	if r.Quantity < 1 {
		return apperr.Errorf(apperr.UpstreamMalformedResponse, "invalid quantity %d for detected waste", r.Quantity)
	}
	if len(r.DisposalMethods) != listSize || len(r.MistakesToAvoid) != listSize {
		return apperr.Errorf(apperr.UpstreamMalformedResponse,
			"expected %d disposal methods and %d mistakes, got %d and %d",
			listSize, listSize, len(r.DisposalMethods), len(r.MistakesToAvoid))
	}
	return nil
}

// parseQuantity accepts integers, integral floats and numeric strings that
// fit in an int.
func parseQuantity(n json.Number) (int, error) {
	if n == "" {
		return 0, nil
	}
	if i, err := n.Int64(); err == nil {
		if i < math.MinInt || i > math.MaxInt {
			return 0, fmt.Errorf("quantity %s is out of range", n.String())
		}
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("quantity %q is not an integer", n.String())
	}
	// float64(math.MaxInt) rounds up to 2^63, so the upper bound is exclusive
	if f < math.MinInt || f >= -math.MinInt {
		return 0, fmt.Errorf("quantity %s is out of range", n.String())
	}
	return int(f), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// stripCodeFences removes a markdown fence and its json language tag, in
// any case.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "```"); ok {
		s = rest
		if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
			s = s[4:]
		}
	}
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// PickMIME prefers the declared content type when it names an image, and
// sniffs the bytes otherwise.
func PickMIME(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if strings.HasPrefix(declared, "image/") {
		return declared
	}
	if len(data) > 0 {
		if sniffed := http.DetectContentType(data); strings.HasPrefix(sniffed, "image/") {
			return sniffed
		}
	}
	return "image/jpeg"
}
