package extract

import "github.com/hbomb79/Grabbr/internal/engine"

// PublicFormat is the subset of a raw engine format record that is safe
// to return to a caller. Media locators are deliberately omitted.
type PublicFormat struct {
	FormatID   string `json:"format_id"`
	Ext        string `json:"ext"`
	Resolution string `json:"resolution,omitempty"`
	Note       string `json:"note,omitempty"`
	Filesize   *int64 `json:"filesize,omitempty"`
}

// FilterFormats keeps only raw records that carry both a retrievable
// media locator and a recognised extension, projecting each survivor
// in to its public shape. The engine's own ordering is preserved;
// downstream consumers rely on its relative quality ordering.
func FilterFormats(raw []engine.Format) []PublicFormat {
	usable := make([]PublicFormat, 0, len(raw))
	for _, format := range raw {
		if format.URL == "" || format.Ext == "" || format.Ext == "none" {
			continue
		}

		usable = append(usable, PublicFormat{
			FormatID:   format.FormatID,
			Ext:        format.Ext,
			Resolution: format.Resolution,
			Note:       format.Note,
			Filesize:   format.Filesize,
		})
	}

	return usable
}
