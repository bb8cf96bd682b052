// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"

	"github.com/pdiddy/bibliograph/pkg/types"
)

// arxivPDFBase is the arXiv PDF endpoint. Declared as a var so tests can
// substitute an httptest server.
var arxivPDFBase = "https://arxiv.org/pdf/"

// ArxivResolver constructs the canonical arXiv PDF URL for an identifier.
// arXiv URLs are derivable, so Resolve performs no metadata lookup at all.
type ArxivResolver struct{}

func (r *ArxivResolver) Source() types.Source { return types.SourceArxiv }

func (r *ArxivResolver) Applicable(e types.BibEntry) bool { return e.ArxivID != "" }

func (r *ArxivResolver) Resolve(_ context.Context, e types.BibEntry) (string, error) {
	return arxivPDFBase + e.ArxivID, nil
}
