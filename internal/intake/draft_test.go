package intake

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regdesk/internal/common/errors"
	"regdesk/internal/models"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestDraft_SetDistrictClearsBlock(t *testing.T) {
	d := validDraft()
	d.SetDistrict("Puri")
	assert.Equal(t, "Puri", d.DistrictID)
	assert.Empty(t, d.BlockID)
}

func TestDraft_SetSameDistrictKeepsBlock(t *testing.T) {
	d := validDraft()
	d.SetDistrict("Khurda")
	assert.Equal(t, "Bhubaneswar", d.BlockID)
}

func TestDraft_DigitSetters(t *testing.T) {
	var d Draft
	d.SetMobile("+91 98765-43210")
	assert.Equal(t, "9198765432", d.Mobile)

	d.SetMobile("98-76 543!210")
	assert.Equal(t, "9876543210", d.Mobile)

	d.SetNationalID("1234 5678 9012 345")
	assert.Equal(t, "123456789012", d.NationalID)
}

func TestDraft_AttachPhoto(t *testing.T) {
	var d Draft
	require.NoError(t, d.AttachPhoto(&models.Photo{Filename: "a.png", Data: pngHeader}))
	assert.NotNil(t, d.Photo)

	err := d.AttachPhoto(&models.Photo{Data: bytes.Repeat([]byte{0}, MaxPhotoBytes+1)})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodePhotoTooLarge))
	assert.Equal(t, "a.png", d.Photo.Filename)

	require.NoError(t, d.AttachPhoto(nil))
	assert.Nil(t, d.Photo)
}

func TestDraft_ResetAndRequest(t *testing.T) {
	d := validDraft()
	req := d.Request()
	assert.Equal(t, "Asha Devi", req.Name)
	assert.Equal(t, "Khurda", req.District)
	assert.Equal(t, "Bhubaneswar", req.Block)
	assert.Equal(t, "123456789012", req.NationalID)

	d.Reset()
	assert.Equal(t, Draft{}, d)
}

func TestPreviewPhoto(t *testing.T) {
	url, err := PreviewPhoto(&models.Photo{Data: pngHeader})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"), url)

	_, err = PreviewPhoto(&models.Photo{Data: []byte("plain text, not a picture")})
	assert.Error(t, err)

	_, err = PreviewPhoto(nil)
	assert.Error(t, err)
}
