package ml

import (
	"testing"

	"cloud.google.com/go/vertexai/genai"
	"github.com/franckalain/wastedetect/internal/apperr"
)

func TestVertexText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{
				genai.Text(`{"waste_type":`),
				genai.Blob{MIMEType: "image/png", Data: []byte{1}},
				genai.Text(`"Can"}`),
			}},
		}},
	}
	text, err := vertexText(resp)
	if err != nil {
		t.Fatalf("vertexText: %v", err)
	}
	if text != `{"waste_type":"Can"}` {
		t.Errorf("text = %s", text)
	}

	empty := []*genai.GenerateContentResponse{
		nil,
		{},
		{Candidates: []*genai.Candidate{{}}},
		{Candidates: []*genai.Candidate{{Content: &genai.Content{}}}},
	}
	for i, r := range empty {
		if _, err := vertexText(r); apperr.KindOf(err) != apperr.UpstreamMalformedResponse {
			t.Errorf("case %d: %v", i, err)
		}
	}
}
