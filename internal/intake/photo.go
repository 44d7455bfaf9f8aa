package intake

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"regdesk/internal/models"
)

// PreviewPhoto renders p as a data URL. The media type is sniffed from the
// bytes; anything that is not an image is refused.
func PreviewPhoto(p *models.Photo) (string, error) {
	if p == nil || len(p.Data) == 0 {
		return "", fmt.Errorf("no photo data")
	}
	mime := mimetype.Detect(p.Data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return "", fmt.Errorf("photo is %s, not an image", mime.String())
	}
	mediaType := mime.String()
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(p.Data), nil
}
