package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Jakob-KB/financial-market-correlation-topology/internal/contracts"
)

// WriteCommunitiesJSON writes the flat node → label mapping.
func WriteCommunitiesJSON(w io.Writer, communities *contracts.CommunityAssignment) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(communities.Labels); err != nil {
		return fmt.Errorf("encode communities: %w", err)
	}
	return nil
}

// ReadCommunitiesJSON reads a mapping written by WriteCommunitiesJSON.
func ReadCommunitiesJSON(r io.Reader) (*contracts.CommunityAssignment, error) {
	var labels map[string]int
	if err := json.NewDecoder(r).Decode(&labels); err != nil {
		return nil, fmt.Errorf("decode communities: %w", err)
	}
	return &contracts.CommunityAssignment{Labels: labels}, nil
}

// WriteRenderPayloadJSON writes the viewer artifact.
func WriteRenderPayloadJSON(w io.Writer, payload *contracts.RenderPayload) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("encode render payload: %w", err)
	}
	return nil
}
