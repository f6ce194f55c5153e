package course

import (
	"path/filepath"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/kursly/backend/core"
)

var (
	videoExtTag  = "videoext"
	videoExtText = "unsupported video format; allowed formats: mp4, avi, mov, mkv"

	// allowed media container formats
	allowedVideoExts = map[string]bool{
		".mp4": true,
		".avi": true,
		".mov": true,
		".mkv": true,
	}
)

// InitValidators registers content-specific validations and translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(videoExtTag, videoExtValidation)
	core.RegisterCustomTranslation(validate, translator, videoExtTag, videoExtText)
}

func videoExtValidation(fl validator.FieldLevel) bool {
	ext := strings.ToLower(filepath.Ext(fl.Field().String()))
	return allowedVideoExts[ext]
}
