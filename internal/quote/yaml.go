package quote

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// DecodeYAML reads a list of quotes, as written by hand for bulk import:
//
//	- quote_ua: "..."
//	  quote_es: "..."
//	  quote_en: "..."
//	  code: |
//	    @app.get("/health")
//	  comment_en: "# my favourite phrase"
func DecodeYAML(r io.Reader) ([]NewQuote, error) {
	var quotes []NewQuote
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&quotes); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode quotes yaml: %w", err)
	}
	return quotes, nil
}
