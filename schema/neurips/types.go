package neurips

import (
	"bytes"
	"strconv"
)

// Metadata is the per paper JSON document of proceedings up to 2019, e.g.
// https://papers.neurips.cc/paper/2019/file/<hash>-Metadata.json.
type Metadata struct {
	SourceID SourceID `json:"sourceid"`  // 9505, 8744, ...
	Title    string   `json:"title"`     // Fast and Accurate Least-Mean-Squares ...
	Abstract string   `json:"abstract"`  // Least-mean squares (LMS) solvers such ...
	FullText string   `json:"full_text"` // Fast and Accurate Least-Mean-Squares ...
	Authors  []Author `json:"authors"`
}

// Author of a paper, any field may be empty.
type Author struct {
	GivenName   string `json:"given_name"`  // Alaa, Ibrahim, ...
	FamilyName  string `json:"family_name"` // Maalouf, Jubran, ...
	Institution string `json:"institution"` // University of Haifa, ...
}

// SourceID is published as number or as string, depending on the year.
type SourceID string

// UnmarshalJSON accepts numbers, strings and null.
func (s *SourceID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*s = ""
	case len(b) > 0 && b[0] == '"':
		v, err := strconv.Unquote(string(b))
		if err != nil {
			return err
		}
		*s = SourceID(v)
	default:
		*s = SourceID(b)
	}
	return nil
}
