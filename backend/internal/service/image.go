package service

import (
	"regexp"
	"strings"

	"github.com/itchan-dev/contestbot/shared/domain"
	internal_errors "github.com/itchan-dev/contestbot/shared/errors"
)

var (
	imgurRegex      = regexp.MustCompile(`(https?://)?(www\.)?(i\.)?imgur\.com/[a-zA-Z0-9]+(\.jpg|\.png|\.gif|\.jpeg)?`)
	imageExtRegex   = regexp.MustCompile(`\.(jpeg|jpg|png|gif)$`)
	defaultImgurExt = ".jpeg"
)

var errNoImage = &internal_errors.ValidationError{Message: "❌ Please send a valid image."}

// ResolveImage picks the image of a submission message: an imgur link in the
// text wins over attachments, otherwise the first image attachment is used.
func ResolveImage(content string, attachments []domain.Attachment) (domain.MediaRef, error) {
	if match := imgurRegex.FindString(content); match != "" {
		if !imageExtRegex.MatchString(match) {
			match += defaultImgurExt
		}
		return match, nil
	}

	for _, a := range attachments {
		if strings.HasPrefix(a.ContentType, "image") && a.URL != "" {
			return a.URL, nil
		}
	}
	return "", errNoImage
}
