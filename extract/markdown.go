// CLAUDE:SUMMARY HTML-to-markdown rendering for signal extraction; keeps mailto/tel link targets plain text drops.
package extract

import (
	"fmt"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// Markdown renders an HTML document to markdown. Unlike the density
// text, the markdown keeps link targets, so mailto: and tel: contacts
// that only exist in href attributes survive into text analysis.
func Markdown(body []byte) (string, error) {
	md, err := htmltomarkdown.ConvertString(string(body))
	if err != nil {
		return "", fmt.Errorf("extract: markdown convert: %w", err)
	}
	return md, nil
}
